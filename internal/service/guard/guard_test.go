package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/examwatch/internal/domain"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: 1, Username: "alice"}

	tests := []struct {
		name    string
		session domain.Session
		view    View
		want    Decision
	}{
		{
			name:    "loading protected",
			session: domain.Session{IsLoading: true},
			view:    ViewProtected,
			want:    Decision{Outcome: Loading},
		},
		{
			name:    "loading while authenticated",
			session: domain.Session{User: user, IsAuthenticated: true, IsLoading: true},
			view:    ViewProtected,
			want:    Decision{Outcome: Loading},
		},
		{
			name:    "anonymous protected",
			session: domain.Session{},
			view:    ViewProtected,
			want:    Decision{Outcome: Redirect, Target: LoginPath},
		},
		{
			name:    "authenticated protected",
			session: domain.Session{User: user, IsAuthenticated: true},
			view:    ViewProtected,
			want:    Decision{Outcome: Render},
		},
		{
			name:    "anonymous public only",
			session: domain.Session{},
			view:    ViewPublicOnly,
			want:    Decision{Outcome: Render},
		},
		{
			name:    "authenticated public only",
			session: domain.Session{User: user, IsAuthenticated: true},
			view:    ViewPublicOnly,
			want:    Decision{Outcome: Redirect, Target: DashboardPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(tt.session, tt.view))
		})
	}
}

func next(t *testing.T, ch <-chan Decision) Decision {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "decision channel closed")
		return d
	case <-time.After(time.Second):
		t.Fatal("no decision received")
		return Decision{}
	}
}

func TestWatch(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := make(chan domain.Session)
	decisions := Watch(ctx, sessions, ViewProtected)

	sessions <- domain.Session{IsLoading: true}
	assert.Equal(t, Loading, next(t, decisions).Outcome)

	// Same decision is not repeated.
	sessions <- domain.Session{IsLoading: true}
	sessions <- domain.Session{User: &domain.User{ID: 1}, IsAuthenticated: true}
	assert.Equal(t, Render, next(t, decisions).Outcome)

	sessions <- domain.Session{}
	assert.Equal(t, Decision{Outcome: Redirect, Target: LoginPath}, next(t, decisions))

	close(sessions)
	select {
	case _, ok := <-decisions:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("decision channel not closed")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	decisions := Watch(ctx, make(chan domain.Session), ViewPublicOnly)

	cancel()
	select {
	case _, ok := <-decisions:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("decision channel not closed")
	}
}
