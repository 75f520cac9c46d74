package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// Login authenticates with username and password. On success the returned
// credential pair is persisted and the session becomes authenticated. On
// failure the session identity is left as it was and LastError is set.
func (c *Controller) Login(ctx context.Context, in LoginInput) error {
	tok := c.begin(true)

	if err := in.Validate(); err != nil {
		return c.fail(tok, "login", "Login failed", err)
	}

	res, err := c.api.Login(ctx, in.Username, in.Password)
	if err != nil {
		return c.fail(tok, "login", "Login failed", err)
	}
	return c.authenticate(ctx, tok, "login", res)
}

// Register creates an account and logs in with it. Failures carry a
// field-keyed *domain.ValidationError; errors not tied to a field are
// reported under domain.NonFieldKey.
func (c *Controller) Register(ctx context.Context, in RegisterInput) error {
	tok := c.begin(true)

	err := in.Validate()
	if err == nil {
		var res *domain.AuthResult
		res, err = c.api.Register(ctx, in.registration())
		if err == nil {
			return c.authenticate(ctx, tok, "register", res)
		}
	}

	opErr := newOperationError("register", "Registration failed", err)
	if opErr.Fields == nil {
		opErr.Fields = domain.NewValidationError(domain.NonFieldKey, opErr.Message)
	}
	return c.reject(tok, opErr)
}

// authenticate persists the credentials of a successful login or register
// and commits the authenticated session.
func (c *Controller) authenticate(ctx context.Context, tok uint64, op string, res *domain.AuthResult) error {
	if res == nil || res.User == nil {
		return c.fail(tok, op, "Login failed", fmt.Errorf("%w: empty %s response", domain.ErrTransport, op))
	}

	if err := c.persist(ctx, tok, res.Credentials); err != nil {
		if errors.Is(err, domain.ErrSuperseded) {
			return err
		}
		return c.fail(tok, op, "Could not save credentials", fmt.Errorf("save credentials: %w", err))
	}

	user := *res.User
	if err := c.finish(tok, func(s *domain.Session) {
		s.User = &user
		s.IsAuthenticated = true
		s.LastError = nil
	}); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "session authenticated",
		slog.String("op", op),
		slog.Int64("user_id", user.ID),
	)
	return nil
}

// fail records err as the session's LastError and returns it.
func (c *Controller) fail(tok uint64, op, fallback string, err error) error {
	return c.reject(tok, newOperationError(op, fallback, err))
}

func (c *Controller) reject(tok uint64, opErr *domain.OperationError) error {
	if err := c.finish(tok, func(s *domain.Session) {
		s.LastError = opErr
	}); err != nil {
		return err
	}
	return opErr
}

func newOperationError(op, fallback string, err error) *domain.OperationError {
	opErr := &domain.OperationError{
		Op:      op,
		Message: domain.Message(err, fallback),
		Err:     err,
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		opErr.Fields = vErr
	}
	return opErr
}
