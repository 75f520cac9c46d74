package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/heartmarshall/examwatch/internal/adapter/credstore"
	"github.com/heartmarshall/examwatch/internal/adapter/postgres"
	"github.com/heartmarshall/examwatch/internal/adapter/postgres/credential"
	"github.com/heartmarshall/examwatch/internal/adapter/redis"
	"github.com/heartmarshall/examwatch/internal/adapter/rest"
	"github.com/heartmarshall/examwatch/internal/adapter/sqlite"
	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/domain"
	"github.com/heartmarshall/examwatch/internal/service/incident"
	"github.com/heartmarshall/examwatch/internal/service/session"
)

// CredentialStore persists the credential pair. SaveIf is atomic with
// respect to Clear, so a token refresh cannot resurrect a cleared session.
type CredentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	SaveIf(ctx context.Context, refresh string, creds domain.Credentials) (bool, error)
	Clear(ctx context.Context) error
}

// App holds the wired client components.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry
	Store    CredentialStore
	Client   *rest.Client
	Session  *session.Controller

	incidentMetrics *incident.Metrics
	closers         []func() error
}

// New opens the configured credential store and wires the API client and
// the session controller on top of it. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:          cfg,
		Log:             logger,
		Registry:        reg,
		incidentMetrics: incident.NewMetrics(reg),
	}

	backend, closer, err := OpenStore(ctx, logger, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	// The session controller and the client share one guarded store.
	store := credstore.NewGuarded(backend)
	a.Store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	client, err := rest.New(logger, cfg.API, store, rest.WithMetrics(rest.NewMetrics(reg)))
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Client = client
	a.Session = session.NewController(logger, client, store, cfg.Session)

	logger.DebugContext(ctx, "app initialized",
		slog.String("version", BuildVersion()),
		slog.String("api", cfg.API.BaseURL),
		slog.String("credentials_backend", cfg.Credentials.Backend),
	)
	return a, nil
}

// Incidents creates a synchronizer for one incident view.
func (a *App) Incidents() *incident.Synchronizer {
	return incident.NewSynchronizer(a.Log, a.Client, a.incidentMetrics)
}

// Close releases the credential store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore creates the credential store selected by cfg.Backend. The
// returned closer is nil for backends holding no connections.
func OpenStore(ctx context.Context, logger *slog.Logger, cfg config.CredentialsConfig) (credstore.Backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return credstore.NewMemory(cfg.Profile), nil, nil

	case config.BackendFile:
		path := cfg.FilePath
		if path == "" {
			path = config.DefaultCredentialsPath()
		}
		return credstore.NewFile(logger, path, cfg.Profile, cfg.Passphrase), nil, nil

	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, logger, cfg.SQLitePath, cfg.Profile)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite credentials: %w", err)
		}
		return s, s.Close, nil

	case config.BackendPostgres:
		if err := postgres.Migrate(ctx, logger, cfg.Postgres.DSN); err != nil {
			return nil, nil, fmt.Errorf("migrate postgres credentials: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres credentials: %w", err)
		}
		return credential.New(logger, pool, cfg.Profile), func() error { pool.Close(); return nil }, nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis credentials: %w", err)
		}
		return redis.New(logger, client, cfg.Redis.Prefix, cfg.Profile, cfg.Redis.TTL), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Backend)
	}
}
