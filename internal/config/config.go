package config

import (
	"slices"
	"time"
)

// Credential store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the root client configuration.
type Config struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Session     SessionConfig     `yaml:"session"`
	Incidents   IncidentsConfig   `yaml:"incidents"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	DevServer   DevServerConfig   `yaml:"dev_server"`
	Log         LogConfig         `yaml:"log"`
}

// APIConfig holds settings of the remote exam-monitoring API.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"      env:"API_BASE_URL"      env-default:"http://localhost:8000/api/"`
	Timeout      time.Duration `yaml:"timeout"       env:"API_TIMEOUT"       env-default:"10s"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env:"API_RETRY_BACKOFF" env-default:"500ms"`
	RefreshSkew  time.Duration `yaml:"refresh_skew"  env:"API_REFRESH_SKEW"  env-default:"30s"`
	UserAgent    string        `yaml:"user_agent"    env:"API_USER_AGENT"    env-default:"examwatch"`
}

// CredentialsConfig selects and configures the credential store.
type CredentialsConfig struct {
	Backend    string         `yaml:"backend"    env:"CREDENTIALS_BACKEND"    env-default:"file"`
	Profile    string         `yaml:"profile"    env:"CREDENTIALS_PROFILE"    env-default:"default"`
	FilePath   string         `yaml:"file_path"  env:"CREDENTIALS_FILE_PATH"`
	Passphrase string         `yaml:"passphrase" env:"CREDENTIALS_PASSPHRASE"`
	SQLitePath string         `yaml:"sqlite_path" env:"CREDENTIALS_SQLITE_PATH" env-default:"./data/credentials.db"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Redis      RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds PostgreSQL connection settings for the shared credential store.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"                env:"CREDENTIALS_POSTGRES_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"CREDENTIALS_POSTGRES_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"CREDENTIALS_POSTGRES_MIN_CONNS"          env-default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"CREDENTIALS_POSTGRES_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"CREDENTIALS_POSTGRES_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// RedisConfig holds Redis settings for the shared credential store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"CREDENTIALS_REDIS_ADDR"     env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"CREDENTIALS_REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"CREDENTIALS_REDIS_DB"       env-default:"0"`
	TTL      time.Duration `yaml:"ttl"      env:"CREDENTIALS_REDIS_TTL"      env-default:"0s"`
	Prefix   string        `yaml:"prefix"   env:"CREDENTIALS_REDIS_PREFIX"   env-default:"examwatch"`
}

// SessionConfig holds session controller settings.
type SessionConfig struct {
	// PreserveOnTransportError keeps stored credentials when the startup
	// profile fetch fails for a reason other than rejected credentials.
	PreserveOnTransportError bool `yaml:"preserve_on_transport_error" env:"SESSION_PRESERVE_ON_TRANSPORT_ERROR" env-default:"false"`
}

// IncidentsConfig holds incident listing settings.
type IncidentsConfig struct {
	FilterDebounce time.Duration `yaml:"filter_debounce" env:"INCIDENTS_FILTER_DEBOUNCE" env-default:"0s"`
	WatchInterval  time.Duration `yaml:"watch_interval"  env:"INCIDENTS_WATCH_INTERVAL"  env-default:"15s"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

// DevServerConfig configures the in-memory development API server.
type DevServerConfig struct {
	Addr          string        `yaml:"addr"           env:"DEVSERVER_ADDR"           env-default:":8000"`
	JWTSecret     string        `yaml:"jwt_secret"     env:"DEVSERVER_JWT_SECRET"     env-default:"examwatch-development-secret-key!"`
	JWTIssuer     string        `yaml:"jwt_issuer"     env:"DEVSERVER_JWT_ISSUER"     env-default:"examwatch-devserver"`
	AccessTTL     time.Duration `yaml:"access_ttl"     env:"DEVSERVER_ACCESS_TTL"     env-default:"5m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"    env:"DEVSERVER_REFRESH_TTL"    env-default:"24h"`
	RotateRefresh bool          `yaml:"rotate_refresh" env:"DEVSERVER_ROTATE_REFRESH" env-default:"false"`
	Seed          bool          `yaml:"seed"           env:"DEVSERVER_SEED"           env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Backends lists the supported credential store backends.
func Backends() []string {
	return []string{BackendMemory, BackendFile, BackendSQLite, BackendPostgres, BackendRedis}
}

// IsBackendSupported checks if the given backend name is known.
func (c CredentialsConfig) IsBackendSupported() bool {
	return slices.Contains(Backends(), c.Backend)
}
