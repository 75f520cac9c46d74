package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Bootstrap restores the session at startup. Without a stored access token
// the session stays unauthenticated and no request is made.
func (c *Controller) Bootstrap(ctx context.Context) error {
	creds, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if !creds.HasAccessToken() {
		c.log.DebugContext(ctx, "no stored credentials")
		return nil
	}
	return c.FetchUser(ctx)
}

// FetchUser loads the profile for the stored credentials. Any failure ends
// the session: the user is cleared and the stored credentials are purged,
// unless the config asks to keep them across transport failures. The cause
// is logged, not returned.
func (c *Controller) FetchUser(ctx context.Context) error {
	tok := c.begin(true)

	user, err := c.api.FetchProfile(ctx)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: empty profile response", domain.ErrTransport)
	}
	if err != nil {
		c.log.WarnContext(ctx, "fetch user failed", slog.String("error", err.Error()))

		if ferr := c.finish(tok, func(s *domain.Session) {
			s.User = nil
			s.IsAuthenticated = false
		}); ferr != nil {
			return ferr
		}

		if c.keepCredentials(err) {
			return nil
		}
		if perr := c.purge(ctx, tok); perr != nil {
			c.log.ErrorContext(ctx, "purge credentials", slog.String("error", perr.Error()))
		}
		return nil
	}

	u := *user
	return c.finish(tok, func(s *domain.Session) {
		s.User = &u
		s.IsAuthenticated = true
	})
}

func (c *Controller) keepCredentials(err error) bool {
	return c.cfg.PreserveOnTransportError &&
		errors.Is(err, domain.ErrTransport) &&
		!errors.Is(err, domain.ErrUnauthorized)
}

// UpdateProfile sends a partial profile update and replaces the session user
// with the server's version. On failure the user is left untouched.
func (c *Controller) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) error {
	if !c.Snapshot().IsAuthenticated {
		return domain.ErrUnauthorized
	}

	tok := c.begin(true)

	if err := validateProfileUpdate(upd); err != nil {
		return c.fail(tok, "update_profile", "Profile update failed", err)
	}

	user, err := c.api.UpdateProfile(ctx, upd)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: empty profile response", domain.ErrTransport)
	}
	if err != nil {
		return c.fail(tok, "update_profile", "Profile update failed", err)
	}

	u := *user
	return c.finish(tok, func(s *domain.Session) {
		s.User = &u
		s.LastError = nil
	})
}
