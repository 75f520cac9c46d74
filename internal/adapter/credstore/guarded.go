package credstore

import (
	"context"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Backend is any credential store: memory, file, SQLite, PostgreSQL or Redis.
type Backend interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

// Guarded serializes every access to a backend so that SaveIf is atomic with
// respect to Save and Clear issued by other components of the process.
type Guarded struct {
	mu      sync.Mutex
	backend Backend
}

// NewGuarded wraps b.
func NewGuarded(b Backend) *Guarded {
	return &Guarded{backend: b}
}

func (g *Guarded) Load(ctx context.Context) (domain.Credentials, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backend.Load(ctx)
}

func (g *Guarded) Save(ctx context.Context, creds domain.Credentials) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backend.Save(ctx, creds)
}

func (g *Guarded) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.backend.Clear(ctx)
}

// SaveIf writes creds only while the stored refresh token still equals
// refresh. It reports whether the write happened.
func (g *Guarded) SaveIf(ctx context.Context, refresh string, creds domain.Credentials) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	if current.RefreshToken == "" || current.RefreshToken != refresh {
		return false, nil
	}
	return true, g.backend.Save(ctx, creds)
}
