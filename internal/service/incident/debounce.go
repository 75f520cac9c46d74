package incident

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Debouncer coalesces filter updates arriving within wait of each other into
// a single SetFilter call.
type Debouncer struct {
	target *Synchronizer
	wait   time.Duration

	mu      sync.Mutex
	pending domain.FilterUpdate
	ctx     context.Context
	timer   *time.Timer
}

// NewDebouncer wraps s. With wait <= 0 every update is applied immediately.
func NewDebouncer(s *Synchronizer, wait time.Duration) *Debouncer {
	return &Debouncer{target: s, wait: wait}
}

// Update queues u. The fetch runs with the context of the last update.
func (d *Debouncer) Update(ctx context.Context, u domain.FilterUpdate) {
	if d.wait <= 0 {
		d.apply(ctx, u)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = d.pending.Merge(u)
	d.ctx = ctx
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fire)
}

// Flush applies the pending update now.
func (d *Debouncer) Flush(ctx context.Context) error {
	u, ok := d.take()
	if !ok {
		return nil
	}
	return d.target.SetFilter(ctx, u)
}

// Stop drops the pending update.
func (d *Debouncer) Stop() {
	d.take()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	ctx := d.ctx
	d.mu.Unlock()

	u, ok := d.take()
	if !ok || ctx == nil {
		return
	}
	d.apply(ctx, u)
}

// apply runs the fetch for u. Its outcome is already in the list state, so
// the error is only logged.
func (d *Debouncer) apply(ctx context.Context, u domain.FilterUpdate) {
	if err := d.target.SetFilter(ctx, u); err != nil {
		d.target.log.DebugContext(ctx, "debounced filter fetch", slog.String("error", err.Error()))
	}
}

func (d *Debouncer) take() (domain.FilterUpdate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	u := d.pending
	d.pending = domain.FilterUpdate{}
	return u, !u.IsZero()
}
