// Package credential implements the credential store using PostgreSQL.
package credential

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/examwatch/internal/adapter/postgres"
	"github.com/heartmarshall/examwatch/internal/domain"
)

const table = "credentials"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo stores one row per (profile, key).
type Repo struct {
	pool    *pgxpool.Pool
	tx      *postgres.TxManager
	profile string
	log     *slog.Logger
}

// New creates a credential repository scoped to profile.
func New(logger *slog.Logger, pool *pgxpool.Pool, profile string) *Repo {
	return &Repo{
		pool:    pool,
		tx:      postgres.NewTxManager(pool),
		profile: profile,
		log:     logger.With("adapter", "postgres.credential"),
	}
}

// Load returns the stored pair, or zero Credentials when the profile has none.
func (r *Repo) Load(ctx context.Context) (domain.Credentials, error) {
	query, args, err := psql.
		Select("key", "value").
		From(table).
		Where(sq.Eq{"profile": r.profile}).
		ToSql()
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("credential.Load: build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return domain.Credentials{}, postgres.MapError(err, table, r.profile)
	}
	defer rows.Close()

	var creds domain.Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Credentials{}, postgres.MapError(err, table, r.profile)
		}
		switch key {
		case domain.AccessTokenKey:
			creds.AccessToken = value
		case domain.RefreshTokenKey:
			creds.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Credentials{}, postgres.MapError(err, table, r.profile)
	}

	return creds, nil
}

// Save upserts both tokens in one statement inside a transaction.
func (r *Repo) Save(ctx context.Context, creds domain.Credentials) error {
	query, args, err := psql.
		Insert(table).
		Columns("profile", "key", "value", "updated_at").
		Values(r.profile, domain.AccessTokenKey, creds.AccessToken, sq.Expr("now()")).
		Values(r.profile, domain.RefreshTokenKey, creds.RefreshToken, sq.Expr("now()")).
		Suffix("ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("credential.Save: build query: %w", err)
	}

	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		// Serialize writers of the same profile.
		if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", r.profile); err != nil {
			return err
		}
		_, err := q.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return postgres.MapError(err, table, r.profile)
	}

	r.log.DebugContext(ctx, "credentials saved", slog.String("profile", r.profile))
	return nil
}

// Clear deletes both tokens.
func (r *Repo) Clear(ctx context.Context) error {
	query, args, err := psql.
		Delete(table).
		Where(sq.Eq{"profile": r.profile}).
		ToSql()
	if err != nil {
		return fmt.Errorf("credential.Clear: build query: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, table, r.profile)
	}
	return nil
}
