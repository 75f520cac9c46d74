package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.API.validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err := c.Credentials.validate(); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}

	if c.Incidents.FilterDebounce < 0 {
		return fmt.Errorf("incidents.filter_debounce must be >= 0 (got %s)", c.Incidents.FilterDebounce)
	}
	if c.Incidents.WatchInterval <= 0 {
		return fmt.Errorf("incidents.watch_interval must be > 0 (got %s)", c.Incidents.WatchInterval)
	}

	if err := c.DevServer.validate(); err != nil {
		return fmt.Errorf("dev_server: %w", err)
	}

	return nil
}

func (d *DevServerConfig) validate() error {
	if len(d.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters (got %d)", len(d.JWTSecret))
	}
	if d.AccessTTL <= 0 || d.RefreshTTL <= 0 {
		return fmt.Errorf("access_ttl and refresh_ttl must be > 0")
	}
	if d.AccessTTL >= d.RefreshTTL {
		return fmt.Errorf("access_ttl (%s) must be shorter than refresh_ttl (%s)", d.AccessTTL, d.RefreshTTL)
	}
	return nil
}

func (a *APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http(s) (got %q)", a.BaseURL)
	}
	if !strings.HasSuffix(a.BaseURL, "/") {
		a.BaseURL += "/"
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", a.Timeout)
	}
	if a.RefreshSkew < 0 {
		return fmt.Errorf("refresh_skew must be >= 0 (got %s)", a.RefreshSkew)
	}
	return nil
}

func (c *CredentialsConfig) validate() error {
	if !c.IsBackendSupported() {
		return fmt.Errorf("unsupported backend %q (want one of %s)", c.Backend, strings.Join(Backends(), ", "))
	}
	if strings.TrimSpace(c.Profile) == "" {
		return fmt.Errorf("profile must not be empty")
	}

	switch c.Backend {
	case BackendFile:
		if c.FilePath == "" {
			c.FilePath = DefaultCredentialsPath()
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
		if c.Redis.TTL < 0 {
			return fmt.Errorf("redis.ttl must be >= 0 (got %s)", c.Redis.TTL)
		}
	}

	return nil
}

// DefaultCredentialsPath returns the per-user credentials file location,
// falling back to the working directory when no config dir is available.
func DefaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "credentials.json")
	}
	return filepath.Join(dir, "examwatch", "credentials.json")
}
