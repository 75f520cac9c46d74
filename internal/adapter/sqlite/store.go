// Package sqlite implements the credential store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Store keeps one row per (profile, key) in the credentials table.
type Store struct {
	db      *sql.DB
	profile string
	log     *slog.Logger
}

// Open opens (creating if needed) the database at path and prepares the schema.
func Open(ctx context.Context, logger *slog.Logger, path, profile string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, profile: profile, log: logger.With("adapter", "sqlite")}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS credentials (
		profile    TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (profile, key)
	);`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored pair, or zero Credentials when the profile has none.
func (s *Store) Load(ctx context.Context) (domain.Credentials, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM credentials WHERE profile = ?`, s.profile)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("sqlite.Load: %w", err)
	}
	defer rows.Close()

	var creds domain.Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Credentials{}, fmt.Errorf("sqlite.Load: scan: %w", err)
		}
		switch key {
		case domain.AccessTokenKey:
			creds.AccessToken = value
		case domain.RefreshTokenKey:
			creds.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Credentials{}, fmt.Errorf("sqlite.Load: %w", err)
	}

	return creds, nil
}

// Save writes both tokens in a single transaction.
func (s *Store) Save(ctx context.Context, creds domain.Credentials) error {
	now := time.Now().Unix()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for key, value := range map[string]string{
			domain.AccessTokenKey:  creds.AccessToken,
			domain.RefreshTokenKey: creds.RefreshToken,
		} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO credentials (profile, key, value, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT (profile, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				s.profile, key, value, now,
			); err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite.Save: %w", err)
	}

	s.log.DebugContext(ctx, "credentials saved", slog.String("profile", s.profile))
	return nil
}

// Clear deletes both tokens in a single statement.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE profile = ?`, s.profile); err != nil {
		return fmt.Errorf("sqlite.Clear: %w", err)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
