// Package credstoretest holds the behavioural checks every credential store
// backend must pass.
package credstoretest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Store is the credential store surface under test.
type Store interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

// Factory returns a store scoped to profile. Stores created with the same
// profile within one test must share their backing storage.
type Factory func(t *testing.T, profile string) Store

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("empty load", func(t *testing.T) {
		s := newStore(t, "empty")

		got, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("save then load", func(t *testing.T) {
		s := newStore(t, "roundtrip")
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, domain.Credentials{AccessToken: "A", RefreshToken: "R"}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Credentials{AccessToken: "A", RefreshToken: "R"}, got)
	})

	t.Run("save replaces both tokens", func(t *testing.T) {
		s := newStore(t, "replace")
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, domain.Credentials{AccessToken: "A1", RefreshToken: "R1"}))
		require.NoError(t, s.Save(ctx, domain.Credentials{AccessToken: "A2", RefreshToken: "R2"}))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Credentials{AccessToken: "A2", RefreshToken: "R2"}, got)
	})

	t.Run("clear removes both tokens", func(t *testing.T) {
		s := newStore(t, "clear")
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, domain.Credentials{AccessToken: "A", RefreshToken: "R"}))
		require.NoError(t, s.Clear(ctx))

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.True(t, got.IsZero(), "expected empty store, got %+v", got)

		// Clearing an empty store is not an error.
		require.NoError(t, s.Clear(ctx))
	})

	t.Run("profiles are isolated", func(t *testing.T) {
		a := newStore(t, "isolated-a")
		b := newStore(t, "isolated-b")
		ctx := context.Background()

		require.NoError(t, a.Save(ctx, domain.Credentials{AccessToken: "A", RefreshToken: "R"}))
		require.NoError(t, b.Save(ctx, domain.Credentials{AccessToken: "B", RefreshToken: "S"}))
		require.NoError(t, a.Clear(ctx))

		got, err := b.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.Credentials{AccessToken: "B", RefreshToken: "S"}, got)
	})

	t.Run("concurrent saves never mix pairs", func(t *testing.T) {
		s := newStore(t, "concurrent")
		ctx := context.Background()

		pairs := []domain.Credentials{
			{AccessToken: "A1", RefreshToken: "R1"},
			{AccessToken: "A2", RefreshToken: "R2"},
			{AccessToken: "A3", RefreshToken: "R3"},
		}

		var wg sync.WaitGroup
		for _, p := range pairs {
			wg.Add(1)
			go func(p domain.Credentials) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, p))
			}(p)
		}
		wg.Wait()

		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Contains(t, pairs, got)
	})
}
