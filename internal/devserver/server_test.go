package devserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/domain"
)

func testConfig() config.DevServerConfig {
	return config.DevServerConfig{
		JWTSecret:  strings.Repeat("k", 32),
		JWTIssuer:  "devserver-test",
		AccessTTL:  5 * time.Minute,
		RefreshTTL: time.Hour,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), testConfig(), "test")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func login(t *testing.T, ts *httptest.Server, username, password string) (access, refresh string) {
	t.Helper()

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login/", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login body: %v", body)
	return body["access"].(string), body["refresh"].(string)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password"})
	require.NoError(t, err)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login/", "", map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please provide both username and password", body["error"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login/", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["error"])

	access, refresh := login(t, ts, "alice", "good-password")
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
}

func TestRegister_FieldErrors(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register/", "", map[string]string{
		"username": "bob", "password": "password-1", "password2": "password-2",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"Passwords don't match"}, body["password"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register/", "", map[string]string{
		"username": "bob", "password": "short", "password2": "short", "email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "password")
	assert.Contains(t, body, "email")

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register/", "", map[string]string{
		"username": "bob", "password": "password-1", "password2": "password-1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User registered successfully", body["message"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/register/", "", map[string]string{
		"username": "Bob", "password": "password-1", "password2": "password-1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "username")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/auth/profile/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "detail")

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/malpractices/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshAndLogout(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password"})
	require.NoError(t, err)
	access, refresh := login(t, ts, "alice", "good-password")

	srv.RevokeAccessToken(access)
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/auth/profile/", access, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fresh := body["access"].(string)
	assert.NotContains(t, body, "refresh", "refresh tokens are not rotated by default")

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/auth/profile/", fresh, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["username"])

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/logout/", fresh, map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logout successful", body["message"])
	assert.True(t, srv.IsRefreshRevoked(refresh))

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token_not_valid", body["code"])
}

func TestRefresh_Rotation(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.RotateRefresh = true
	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, "test")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password"})
	require.NoError(t, err)
	_, refresh := login(t, ts, "alice", "good-password")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/auth/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated, _ := body["refresh"].(string)
	require.NotEmpty(t, rotated)
	assert.True(t, srv.IsRefreshRevoked(refresh))
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password", FirstName: "Alice"})
	require.NoError(t, err)
	access, _ := login(t, ts, "alice", "good-password")

	resp, body := doJSON(t, http.MethodPatch, ts.URL+"/api/auth/profile/update/", access, map[string]string{"last_name": "Liddell"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", body["first_name"])
	assert.Equal(t, "Liddell", body["last_name"])

	resp, body = doJSON(t, http.MethodPatch, ts.URL+"/api/auth/profile/update/", access, map[string]string{"email": "nope"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "email")
}

func TestIncidents_FilterAndMutate(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password"})
	require.NoError(t, err)
	srv.AddHall("H1", "A", "Block A")
	srv.AddHall("H2", "B", "Block B")

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	srv.AddIncident(domain.Incident{ID: 1, Type: domain.IncidentMobile, LectureHallName: "H1", DetectedAt: base})
	srv.AddIncident(domain.Incident{ID: 2, Type: domain.IncidentLeaning, LectureHallName: "H2", DetectedAt: base.Add(time.Hour), Verified: true})
	srv.AddIncident(domain.Incident{ID: 3, Type: domain.IncidentPaperPassing, LectureHallName: "H1", DetectedAt: base.Add(2 * time.Hour)})

	access, _ := login(t, ts, "alice", "good-password")

	list := func(query string) []map[string]any {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/malpractices/"+query, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+access)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var items []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
		return items
	}
	ids := func(items []map[string]any) []float64 {
		out := make([]float64, 0, len(items))
		for _, it := range items {
			out = append(out, it["id"].(float64))
		}
		return out
	}

	assert.Equal(t, []float64{3, 2, 1}, ids(list("")), "newest first")
	assert.Equal(t, []float64{3, 1}, ids(list("?building=A")))
	assert.Equal(t, []float64{2}, ids(list("?verified=TRUE")))
	assert.Equal(t, []float64{3, 1}, ids(list("?verified=no")))
	assert.Equal(t, []float64{3}, ids(list("?search=PAPER")))
	assert.Equal(t, []float64{2}, ids(list("?search=h2")))

	first := list("?building=A")[0]
	assert.Equal(t, "paper_passing", first["malpractice"])
	assert.Equal(t, "2024-03-01", first["date"])
	assert.Equal(t, "12:00:00", first["time"])
	assert.Equal(t, "A", first["lecture_hall_building"])

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/malpractices/1/verify/", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "verified", body["status"])
	assert.Equal(t, true, body["data"].(map[string]any)["verified"])

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/malpractices/2/", access, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/malpractices/2/unverify/", access, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found.", body["detail"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/malpractices/stats/", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(1), body["verified"])
	assert.Equal(t, float64(1), body["unverified"])

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/dashboard/stats/", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["total_halls"])
	assert.Len(t, body["recent_malpractices"], 2)
}

func TestBuildings_DistinctInOrder(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	_, err := srv.AddUser(UserSeed{Username: "alice", Password: "good-password"})
	require.NoError(t, err)
	srv.AddHall("H1", "B", "Block B")
	srv.AddHall("H2", "A", "")
	srv.AddHall("H3", "B", "Block B")
	access, _ := login(t, ts, "alice", "good-password")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/lecture-halls/buildings/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var opts []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&opts))
	assert.Equal(t, []map[string]string{
		{"value": "B", "label": "Block B"},
		{"value": "A", "label": "A"},
	}, opts)
}

func TestFailNext(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	srv.FailNext(http.MethodPost, "auth/login/", http.StatusBadGateway)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/auth/login/", "", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/login/", "", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 2, srv.Hits(http.MethodPost, "auth/login/"))
}

func TestSeedDemo(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	require.NoError(t, srv.SeedDemo(time.Now()))

	access, _ := login(t, ts, DemoUsername, DemoPassword)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard/stats/", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(12), body["total_malpractices"])
	assert.Equal(t, float64(6), body["total_halls"])
	assert.Len(t, body["recent_malpractices"], recentLimit)
}
