package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
api:
  base_url: "https://exams.example.org/api"
  timeout: "5s"
  retry_backoff: "100ms"
  refresh_skew: "10s"

credentials:
  backend: "sqlite"
  profile: "invigilator"
  sqlite_path: "/tmp/examwatch.db"

session:
  preserve_on_transport_error: true

incidents:
  filter_debounce: "250ms"
  watch_interval: "30s"

metrics:
  addr: ":9100"

log:
  level: "debug"
  format: "json"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://exams.example.org/api/" {
		t.Errorf("api.base_url = %q, want trailing slash appended", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("api.timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.API.UserAgent != "examwatch" {
		t.Errorf("api.user_agent = %q, want default %q", cfg.API.UserAgent, "examwatch")
	}
	if cfg.Credentials.Backend != BackendSQLite {
		t.Errorf("credentials.backend = %q, want %q", cfg.Credentials.Backend, BackendSQLite)
	}
	if cfg.Credentials.Profile != "invigilator" {
		t.Errorf("credentials.profile = %q, want %q", cfg.Credentials.Profile, "invigilator")
	}
	if !cfg.Session.PreserveOnTransportError {
		t.Error("session.preserve_on_transport_error = false, want true")
	}
	if cfg.Incidents.FilterDebounce != 250*time.Millisecond {
		t.Errorf("incidents.filter_debounce = %v, want 250ms", cfg.Incidents.FilterDebounce)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("metrics.addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want %q", cfg.Log.Format, "json")
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CREDENTIALS_PROFILE", "night-shift")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Credentials.Profile != "night-shift" {
		t.Errorf("credentials.profile = %q, want %q (ENV override)", cfg.Credentials.Profile, "night-shift")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CREDENTIALS_BACKEND", "memory")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000/api/" {
		t.Errorf("api.base_url = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("api.timeout = %v, want 10s (default)", cfg.API.Timeout)
	}
	if cfg.Incidents.WatchInterval != 15*time.Second {
		t.Errorf("incidents.watch_interval = %v, want 15s (default)", cfg.Incidents.WatchInterval)
	}
	if cfg.Session.PreserveOnTransportError {
		t.Error("session.preserve_on_transport_error = true, want false (default)")
	}
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	dir := t.TempDir()
	_ = os.Chdir(dir)

	yaml := "credentials:\n  backend: memory\n  profile: exam-hall\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Credentials.Profile != "exam-hall" {
		t.Errorf("credentials.profile = %q, want %q (from %s)", cfg.Credentials.Profile, "exam-hall", DefaultFile)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
	if !strings.Contains(err.Error(), "CONFIG_PATH") {
		t.Errorf("error %q does not name CONFIG_PATH", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, `{{{invalid yaml`)
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_BaseURLScheme(t *testing.T) {
	cfg := validConfig()
	cfg.API.BaseURL = "ftp://exams.example.org/api/"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http base url")
	}
}

func TestValidate_TimeoutZero(t *testing.T) {
	cfg := validConfig()
	cfg.API.Timeout = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero timeout")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Backend = "etcd"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "etcd") {
		t.Errorf("error %q does not name the backend", err)
	}
}

func TestValidate_EmptyProfile(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Profile = "  "

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank profile")
	}
}

func TestValidate_FileBackendDefaultsPath(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Backend = BackendFile
	cfg.Credentials.FilePath = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(cfg.Credentials.FilePath, "credentials.json") {
		t.Errorf("file_path = %q, want default credentials.json", cfg.Credentials.FilePath)
	}
}

func TestValidate_PostgresRequiresDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Backend = BackendPostgres

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for postgres backend without dsn")
	}

	cfg.Credentials.Postgres.DSN = "postgres://u:p@localhost:5432/examwatch"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RedisNegativeTTL(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.Backend = BackendRedis
	cfg.Credentials.Redis.Addr = "localhost:6379"
	cfg.Credentials.Redis.TTL = -time.Second

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative redis ttl")
	}
}

func TestValidate_WatchIntervalZero(t *testing.T) {
	cfg := validConfig()
	cfg.Incidents.WatchInterval = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero watch interval")
	}
}

func TestValidate_NegativeDebounce(t *testing.T) {
	cfg := validConfig()
	cfg.Incidents.FilterDebounce = -time.Millisecond

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative debounce")
	}
}

func TestValidate_DevServer(t *testing.T) {
	cfg := validConfig()
	cfg.DevServer.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short jwt secret")
	}

	cfg = validConfig()
	cfg.DevServer.AccessTTL = cfg.DevServer.RefreshTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when access ttl is not shorter than refresh ttl")
	}
}

// validConfig returns a Config that passes all validation checks.
func validConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/",
			Timeout: 10 * time.Second,
		},
		Credentials: CredentialsConfig{
			Backend: BackendMemory,
			Profile: "default",
		},
		Incidents: IncidentsConfig{
			WatchInterval: 15 * time.Second,
		},
		DevServer: DevServerConfig{
			JWTSecret:  strings.Repeat("s", 32),
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
	}
}
