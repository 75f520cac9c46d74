// Package redis implements the credential store on Redis, for consoles that
// share sessions across hosts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/domain"
)

// Store keeps the pair in one hash per profile. Writes run in MULTI/EXEC.
type Store struct {
	client *goredis.Client
	key    string
	ttl    time.Duration
	log    *slog.Logger
}

// NewClient builds a client from config and checks connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// New creates a store for profile. A zero ttl keeps credentials until cleared.
func New(logger *slog.Logger, client *goredis.Client, prefix, profile string, ttl time.Duration) *Store {
	return &Store{
		client: client,
		key:    credentialsKey(prefix, profile),
		ttl:    ttl,
		log:    logger.With("adapter", "redis"),
	}
}

func credentialsKey(prefix, profile string) string {
	return fmt.Sprintf("%s:credentials:%s", prefix, profile)
}

// Load returns the stored pair, or zero Credentials when the key is absent or expired.
func (s *Store) Load(ctx context.Context) (domain.Credentials, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.Credentials{}, nil
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("redis.Load: %w", err)
	}

	return domain.Credentials{
		AccessToken:  fields[domain.AccessTokenKey],
		RefreshToken: fields[domain.RefreshTokenKey],
	}, nil
}

// Save replaces both tokens atomically and refreshes the TTL.
func (s *Store) Save(ctx context.Context, creds domain.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key,
			domain.AccessTokenKey, creds.AccessToken,
			domain.RefreshTokenKey, creds.RefreshToken,
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis.Save: %w", err)
	}

	s.log.DebugContext(ctx, "credentials saved", slog.String("key", s.key))
	return nil
}

// Clear removes both tokens.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis.Clear: %w", err)
	}
	return nil
}
