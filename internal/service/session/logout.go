package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Logout resets the session and clears the stored credentials. The server is
// told to revoke the refresh token on a best-effort basis: a failed remote
// call is logged and never prevents the local logout.
func (c *Controller) Logout(ctx context.Context) error {
	tok := c.begin(false)
	_ = c.finish(tok, func(s *domain.Session) {
		*s = domain.Session{}
	})

	creds, err := c.store.Load(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "load credentials for logout", slog.String("error", err.Error()))
	}
	if creds.RefreshToken != "" {
		if err := c.api.Logout(ctx, creds.RefreshToken); err != nil {
			c.log.WarnContext(ctx, "remote logout failed", slog.String("error", err.Error()))
		}
	}

	if err := c.purge(ctx, tok); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}

	c.log.InfoContext(ctx, "session logged out")
	return nil
}
