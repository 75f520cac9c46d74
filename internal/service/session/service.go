// Package session owns the client's authentication state: who is logged in,
// whether an operation is in flight, and the persisted credential pair.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/domain"
)

// apiClient defines the remote operations needed by the controller.
type apiClient interface {
	Login(ctx context.Context, username, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	FetchProfile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.User, error)
}

// credentialStore defines the credential persistence needed by the controller.
type credentialStore interface {
	Load(ctx context.Context) (domain.Credentials, error)
	Save(ctx context.Context, creds domain.Credentials) error
	Clear(ctx context.Context) error
}

// Controller is the single writer of the session. Every operation takes an
// operation token; a completion commits only while its token is the latest
// issued, so an older completion can never overwrite a newer one and an
// in-flight login cannot resurrect a logged-out session.
type Controller struct {
	log   *slog.Logger
	api   apiClient
	store credentialStore
	cfg   config.SessionConfig

	mu      sync.Mutex
	session domain.Session
	op      uint64
	subs    map[int]chan domain.Session
	nextSub int

	// storeMu serializes credential store writes with the token check that
	// guards them. storedBy is the token of the last operation that wrote.
	storeMu  sync.Mutex
	storedBy uint64
}

// NewController creates a controller with an unauthenticated, idle session.
func NewController(logger *slog.Logger, api apiClient, store credentialStore, cfg config.SessionConfig) *Controller {
	return &Controller{
		log:   logger.With("service", "session"),
		api:   api,
		store: store,
		cfg:   cfg,
		subs:  make(map[int]chan domain.Session),
	}
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Subscribe returns a channel that receives the session after every change,
// starting with the current one. Slow readers only see the latest state.
// cancel releases the subscription and closes the channel.
func (c *Controller) Subscribe() (<-chan domain.Session, func()) {
	ch := make(chan domain.Session, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.session.Clone()
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, cancel
}

// ClearError resets LastError.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.LastError == nil {
		return
	}
	c.session.LastError = nil
	c.publishLocked()
}

// begin issues a new operation token. With loading set the session is
// marked as busy until the operation finishes.
func (c *Controller) begin(loading bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.op++
	if loading && !c.session.IsLoading {
		c.session.IsLoading = true
		c.publishLocked()
	}
	return c.op
}

func (c *Controller) isLatest(tok uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.op == tok
}

// finish applies mutate and clears IsLoading if tok is still the latest
// operation. A superseded operation leaves the session to the newer one.
func (c *Controller) finish(tok uint64, mutate func(s *domain.Session)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.op != tok {
		return domain.ErrSuperseded
	}
	if mutate != nil {
		mutate(&c.session)
	}
	c.session.IsLoading = false
	c.publishLocked()
	return nil
}

// publishLocked must be called with mu held.
func (c *Controller) publishLocked() {
	snap := c.session
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap.Clone()
	}
}

// persist saves creds on behalf of operation tok. It fails with
// ErrSuperseded when a newer operation was issued in the meantime.
func (c *Controller) persist(ctx context.Context, tok uint64, creds domain.Credentials) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	if !c.isLatest(tok) {
		return domain.ErrSuperseded
	}
	if err := c.store.Save(ctx, creds); err != nil {
		return err
	}
	c.storedBy = tok
	return nil
}

// purge clears the store on behalf of operation tok unless a newer
// operation has written to it since.
func (c *Controller) purge(ctx context.Context, tok uint64) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	if c.storedBy > tok {
		return nil
	}
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.storedBy = tok
	return nil
}
