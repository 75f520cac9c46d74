package incident

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Load fetches the incidents for the current filter and the building
// options in parallel. A failure of one does not discard the other.
func (s *Synchronizer) Load(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		return s.Refresh(ctx)
	})
	g.Go(func() error {
		return s.loadBuildings(ctx)
	})

	return g.Wait()
}

func (s *Synchronizer) loadBuildings(ctx context.Context) error {
	buildings, err := s.api.ListBuildings(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "load buildings failed", slog.String("error", err.Error()))
		return fmt.Errorf("load buildings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Buildings = buildings
	s.publishLocked()
	return nil
}

// SetFilter merges u into the current filter and re-fetches immediately.
func (s *Synchronizer) SetFilter(ctx context.Context, u domain.FilterUpdate) error {
	s.mu.Lock()
	s.filter = u.Apply(s.filter)
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// ResetFilters removes every constraint and re-fetches.
func (s *Synchronizer) ResetFilters(ctx context.Context) error {
	s.mu.Lock()
	s.filter = domain.IncidentFilter{}
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// Refresh re-issues the current filter. A failed fetch keeps the previous
// items and records the error. It returns domain.ErrSuperseded when a newer
// fetch was started before this one completed.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	filter := s.filter.Clone()
	s.state.IsLoading = true
	s.publishLocked()
	s.mu.Unlock()

	items, err := s.api.ListIncidents(ctx, filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.metrics.fetched(resultStale)
		s.log.DebugContext(ctx, "discarded stale incident list", slog.Uint64("seq", seq))
		return domain.ErrSuperseded
	}

	s.state.IsLoading = false
	if err != nil {
		s.metrics.fetched(resultError)
		s.state.LastError = err
		s.publishLocked()
		s.log.WarnContext(ctx, "fetch incidents failed", slog.String("error", err.Error()))
		return err
	}

	s.metrics.fetched(resultOK)
	if items == nil {
		items = []domain.Incident{}
	}
	s.state.Items = items
	s.state.Filter = filter
	s.state.LastError = nil
	s.publishLocked()
	return nil
}
