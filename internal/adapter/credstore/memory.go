// Package credstore implements process-local credential stores: an in-memory
// store for tests and ephemeral sessions, and a JSON file store for the CLI.
package credstore

import (
	"context"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Memory keeps credentials in process memory, one pair per profile.
type Memory struct {
	mu      sync.RWMutex
	profile string
	pairs   map[string]domain.Credentials
}

// NewMemory creates an empty in-memory store scoped to profile.
func NewMemory(profile string) *Memory {
	return &Memory{profile: profile, pairs: make(map[string]domain.Credentials)}
}

// Load returns the stored pair, or zero Credentials when nothing is stored.
func (m *Memory) Load(ctx context.Context) (domain.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return domain.Credentials{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pairs[m.profile], nil
}

// Save replaces both tokens at once.
func (m *Memory) Save(ctx context.Context, creds domain.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[m.profile] = creds
	return nil
}

// SaveIf replaces the pair only while the stored refresh token equals refresh.
func (m *Memory) SaveIf(ctx context.Context, refresh string, creds domain.Credentials) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.pairs[m.profile].RefreshToken
	if current == "" || current != refresh {
		return false, nil
	}
	m.pairs[m.profile] = creds
	return true, nil
}

// Clear removes both tokens.
func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, m.profile)
	return nil
}
