// Package guard decides what a view shows for a given session.
package guard

import (
	"context"

	"github.com/heartmarshall/examwatch/internal/domain"
)

// View describes who may see a view.
type View int

const (
	// ViewProtected requires an authenticated session.
	ViewProtected View = iota
	// ViewPublicOnly is shown to anonymous users only (login, register).
	ViewPublicOnly
)

// Entry points used as redirect targets.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Outcome is the kind of decision.
type Outcome int

const (
	Loading Outcome = iota
	Redirect
	Render
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision is what to show. Target is set for Redirect.
type Decision struct {
	Outcome Outcome
	Target  string
}

// Evaluate decides how view is rendered for s. It has no side effects.
func Evaluate(s domain.Session, view View) Decision {
	if s.IsLoading {
		return Decision{Outcome: Loading}
	}

	switch view {
	case ViewPublicOnly:
		if s.IsAuthenticated {
			return Decision{Outcome: Redirect, Target: DashboardPath}
		}
	default:
		if !s.IsAuthenticated {
			return Decision{Outcome: Redirect, Target: LoginPath}
		}
	}
	return Decision{Outcome: Render}
}

// Watch re-evaluates view on every session received from sessions and emits
// the decision when it changes. The returned channel is closed when ctx is
// done or sessions is closed.
func Watch(ctx context.Context, sessions <-chan domain.Session, view View) <-chan Decision {
	out := make(chan Decision, 1)

	go func() {
		defer close(out)

		var (
			last Decision
			sent bool
		)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-sessions:
				if !ok {
					return
				}
				d := Evaluate(s, view)
				if sent && d == last {
					continue
				}
				select {
				case out <- d:
					last, sent = d, true
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
