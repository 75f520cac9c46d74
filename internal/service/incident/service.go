// Package incident keeps a filtered incident listing in sync with the server.
package incident

import (
	"context"
	"log/slog"
	"sync"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// incidentClient defines the remote operations needed by the synchronizer.
type incidentClient interface {
	ListIncidents(ctx context.Context, f domain.IncidentFilter) ([]domain.Incident, error)
	ListBuildings(ctx context.Context) ([]string, error)
	VerifyIncident(ctx context.Context, id int64) error
	UnverifyIncident(ctx context.Context, id int64) error
	DeleteIncident(ctx context.Context, id int64) error
}

// Synchronizer owns the state of one incident listing. Every fetch carries a
// sequence number and only the response of the latest fetch is applied, so a
// slow response for an old filter never overwrites newer results.
type Synchronizer struct {
	log     *slog.Logger
	api     incidentClient
	metrics *Metrics

	mu      sync.Mutex
	filter  domain.IncidentFilter
	state   domain.ListState
	seq     uint64
	subs    map[int]chan domain.ListState
	nextSub int
}

// NewSynchronizer creates an empty listing. A nil metrics records nothing.
func NewSynchronizer(logger *slog.Logger, api incidentClient, metrics *Metrics) *Synchronizer {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Synchronizer{
		log:     logger.With("service", "incident"),
		api:     api,
		metrics: metrics,
		subs:    make(map[int]chan domain.ListState),
	}
}

// Snapshot returns a copy of the listing state.
func (s *Synchronizer) Snapshot() domain.ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Filter returns the current filter set. It may differ from Snapshot().Filter
// while a fetch for it is in flight or after it failed.
func (s *Synchronizer) Filter() domain.IncidentFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Clone()
}

// Summary counts the incidents currently listed.
func (s *Synchronizer) Summary() domain.IncidentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Summarize(s.state.Items)
}

// Subscribe returns a channel receiving the state after every change,
// starting with the current one. Slow readers only see the latest state.
func (s *Synchronizer) Subscribe() (<-chan domain.ListState, func()) {
	ch := make(chan domain.ListState, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.Clone()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// publishLocked must be called with mu held.
func (s *Synchronizer) publishLocked() {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.state.Clone()
	}
}
