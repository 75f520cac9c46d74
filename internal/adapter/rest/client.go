// Package rest implements the remote exam-monitoring API client.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/examwatch/internal/auth"
	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/pkg/ctxutil"
)

const maxBodySize = 4 << 20

// credentialStore is the slice of the credential store the client needs:
// it reads the access token for every call and writes refreshed tokens back
// only while the refresh token they were exchanged for is still stored.
type credentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	SaveIf(ctx context.Context, refresh string, creds domain.Credentials) (bool, error)
}

// Client talks to the remote API over HTTP.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	store        credentialStore
	log          *slog.Logger
	metrics      *Metrics
	userAgent    string
	retryBackoff time.Duration
	refreshSkew  time.Duration
	now          func() time.Time
	refreshGroup singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides the time source used for pre-emptive refresh.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client for the API described by cfg.
func New(logger *slog.Logger, cfg config.APIConfig, store credentialStore, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("rest: parse base url: %w", err)
	}
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	c := &Client{
		baseURL:      base,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		store:        store,
		log:          logger.With("adapter", "rest"),
		metrics:      NewMetrics(nil),
		userAgent:    cfg.UserAgent,
		retryBackoff: cfg.RetryBackoff,
		refreshSkew:  cfg.RefreshSkew,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request describes one API call. The body is kept as bytes so the call can
// be replayed on retry or after a token refresh.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	authed      bool
	// noRefresh skips the refresh-and-replay on 401.
	noRefresh bool
}

func jsonRequest(op, method, path string, payload any) (request, error) {
	r := request{op: op, method: method, path: path}
	if payload == nil {
		return r, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return r, fmt.Errorf("%s: encode body: %w", op, err)
	}
	r.body = body
	r.contentType = "application/json"
	return r, nil
}

// call performs r and decodes a successful JSON response into out (when non-nil).
func (c *Client) call(ctx context.Context, r request, out any) error {
	start := time.Now()
	resp, err := c.send(ctx, r)
	if err != nil {
		c.metrics.observe(r.op, "error", time.Since(start))
		c.log.WarnContext(ctx, "api request failed",
			slog.String("op", r.op),
			slog.String("error", err.Error()),
		)
		return &domain.APIError{Op: r.op, Kind: domain.ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	c.metrics.observe(r.op, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &domain.APIError{Op: r.op, Status: resp.StatusCode, Kind: domain.ErrTransport, Err: fmt.Errorf("read body: %w", err)}
	}

	c.log.DebugContext(ctx, "api response",
		slog.String("op", r.op),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(r.op, resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.APIError{Op: r.op, Status: resp.StatusCode, Kind: domain.ErrTransport, Err: fmt.Errorf("decode json: %w", err)}
	}
	return nil
}

// send attaches credentials, retries idempotent calls once and replays once
// after refreshing an access token the server rejected.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	ctx, requestID := ctxutil.EnsureRequestID(ctx)

	var token string
	if r.authed {
		var err error
		token, err = c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.doWithRetry(ctx, r, token, requestID)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !r.authed || r.noRefresh {
		return resp, nil
	}

	fresh, rerr := c.refresh(ctx, token)
	if rerr != nil {
		c.log.InfoContext(ctx, "token refresh unavailable",
			slog.String("op", r.op),
			slog.String("reason", rerr.Error()),
		)
		return resp, nil
	}
	resp.Body.Close()

	return c.doWithRetry(ctx, r, fresh, requestID)
}

// doWithRetry executes the request with a single retry on 5xx or network
// errors. Only GET requests are retried.
func (c *Client) doWithRetry(ctx context.Context, r request, token, requestID string) (*http.Response, error) {
	resp, err := c.do(ctx, r, token, requestID)

	shouldRetry := r.method == http.MethodGet && (err != nil || resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	// Don't retry if context is already cancelled.
	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "api retry", slog.String("op", r.op), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryBackoff):
	}

	return c.do(ctx, r, token, requestID)
}

func (c *Client) do(ctx context.Context, r request, token, requestID string) (*http.Response, error) {
	u := c.baseURL.ResolveReference(&url.URL{Path: r.path})
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// accessToken returns the stored access token, refreshing it first when it
// is about to expire. A failed pre-emptive refresh falls back to the stored
// token and leaves the decision to the server.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	creds, err := c.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load credentials: %w", err)
	}

	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return creds.AccessToken, nil
	}
	if !auth.ExpiresWithin(creds.AccessToken, c.refreshSkew, c.now()) {
		return creds.AccessToken, nil
	}

	fresh, err := c.refresh(ctx, creds.AccessToken)
	if err != nil {
		c.log.DebugContext(ctx, "pre-emptive refresh failed", slog.String("error", err.Error()))
		return creds.AccessToken, nil
	}
	return fresh, nil
}

var errNoRefreshToken = errors.New("no refresh token stored")

// refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share one round trip. stale is the access token the
// caller used; if the store already holds a different one, another caller
// refreshed in the meantime and that token is returned as is.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		creds, err := c.store.Load(ctx)
		if err != nil {
			return "", fmt.Errorf("load credentials: %w", err)
		}
		if creds.AccessToken != "" && creds.AccessToken != stale {
			return creds.AccessToken, nil
		}
		if creds.RefreshToken == "" {
			return "", errNoRefreshToken
		}

		pair, err := c.exchangeRefresh(ctx, creds.RefreshToken)
		if err != nil {
			c.metrics.refreshes.WithLabelValues("failed").Inc()
			return "", err
		}

		if pair.RefreshToken == "" {
			pair.RefreshToken = creds.RefreshToken
		}
		// A logout that ran during the exchange wins: do not write tokens back.
		saved, err := c.store.SaveIf(ctx, creds.RefreshToken, pair)
		if err != nil {
			return "", fmt.Errorf("save credentials: %w", err)
		}
		if !saved {
			c.log.DebugContext(ctx, "refreshed tokens dropped, credentials changed during exchange")
			return "", errNoRefreshToken
		}

		c.metrics.refreshes.WithLabelValues("ok").Inc()
		c.log.InfoContext(ctx, "access token refreshed")
		return pair.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.DebugContext(ctx, "joined in-flight token refresh")
	}
	return v.(string), nil
}
