package domain

// SessionState is the coarse authentication state derived from a Session.
type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticating
	Authenticated
)

func (s SessionState) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the client's belief about the current identity.
// IsAuthenticated implies User != nil.
type Session struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	LastError       error
}

// State derives the state-machine position of the session.
func (s Session) State() SessionState {
	switch {
	case s.IsAuthenticated:
		return Authenticated
	case s.IsLoading:
		return Authenticating
	default:
		return Unauthenticated
	}
}

// Clone copies the session so the user record is not shared with the owner.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ListState is the state of one filtered incident listing.
type ListState struct {
	Filter    IncidentFilter
	Items     []Incident
	Buildings []string
	IsLoading bool
	LastError error
}

// Clone copies slices and the filter so snapshots are safe to hand out.
func (s ListState) Clone() ListState {
	s.Filter = s.Filter.Clone()
	if s.Items != nil {
		s.Items = append([]Incident(nil), s.Items...)
	}
	if s.Buildings != nil {
		s.Buildings = append([]string(nil), s.Buildings...)
	}
	return s
}
