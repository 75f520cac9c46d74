package incident

import (
	"context"
	"errors"
	"log/slog"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Verify marks incident id as verified, then refreshes the listing.
func (s *Synchronizer) Verify(ctx context.Context, id int64) error {
	return s.mutate(ctx, "verify", id, s.api.VerifyIncident)
}

// Unverify clears the verified mark of incident id, then refreshes.
func (s *Synchronizer) Unverify(ctx context.Context, id int64) error {
	return s.mutate(ctx, "unverify", id, s.api.UnverifyIncident)
}

// Delete removes incident id, then refreshes.
func (s *Synchronizer) Delete(ctx context.Context, id int64) error {
	return s.mutate(ctx, "delete", id, s.api.DeleteIncident)
}

// mutate never patches the listing locally: it changes only through the
// refresh that follows a successful call. The result reports the call alone;
// a failed refresh is recorded in the list state as LastError.
func (s *Synchronizer) mutate(ctx context.Context, op string, id int64, call func(context.Context, int64) error) error {
	if err := call(ctx, id); err != nil {
		s.log.WarnContext(ctx, "incident mutation failed",
			slog.String("op", op),
			slog.Int64("incident_id", id),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.log.InfoContext(ctx, "incident updated", slog.String("op", op), slog.Int64("incident_id", id))

	if err := s.Refresh(ctx); err != nil && !errors.Is(err, domain.ErrSuperseded) {
		s.log.WarnContext(ctx, "refresh after incident mutation failed",
			slog.String("op", op),
			slog.Int64("incident_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
