package domain

import "net/url"

// IncidentFilter narrows an incident listing. A nil field means "no constraint".
type IncidentFilter struct {
	Building *string
	Verified *bool
	Search   *string
}

// Equal compares filters by field values.
func (f IncidentFilter) Equal(o IncidentFilter) bool {
	return eqPtr(f.Building, o.Building) && eqPtr(f.Verified, o.Verified) && eqPtr(f.Search, o.Search)
}

// IsEmpty reports whether no constraint is set.
func (f IncidentFilter) IsEmpty() bool {
	return f.Building == nil && f.Verified == nil && f.Search == nil
}

// Clone returns a deep copy so callers cannot mutate shared pointers.
func (f IncidentFilter) Clone() IncidentFilter {
	return IncidentFilter{
		Building: clonePtr(f.Building),
		Verified: clonePtr(f.Verified),
		Search:   clonePtr(f.Search),
	}
}

// Query encodes only the fields that are set.
func (f IncidentFilter) Query() url.Values {
	q := url.Values{}
	if f.Building != nil {
		q.Set("building", *f.Building)
	}
	if f.Verified != nil {
		if *f.Verified {
			q.Set("verified", "true")
		} else {
			q.Set("verified", "false")
		}
	}
	if f.Search != nil {
		q.Set("search", *f.Search)
	}
	return q
}

// FieldUpdate is a three-way update of one filter field: leave it, set it or clear it.
type FieldUpdate[T comparable] struct {
	set   bool
	clear bool
	value T
}

// Set returns an update that assigns v.
func Set[T comparable](v T) FieldUpdate[T] { return FieldUpdate[T]{set: true, value: v} }

// Clear returns an update that removes the constraint.
func Clear[T comparable]() FieldUpdate[T] { return FieldUpdate[T]{clear: true} }

func (u FieldUpdate[T]) apply(cur *T) *T {
	switch {
	case u.clear:
		return nil
	case u.set:
		v := u.value
		return &v
	default:
		return cur
	}
}

// IsZero reports whether the update leaves the field untouched.
func (u FieldUpdate[T]) IsZero() bool { return !u.set && !u.clear }

func (u FieldUpdate[T]) then(next FieldUpdate[T]) FieldUpdate[T] {
	if next.IsZero() {
		return u
	}
	return next
}

// FilterUpdate is a partial update merged into an IncidentFilter.
// Zero-valued fields leave the current value untouched.
type FilterUpdate struct {
	Building FieldUpdate[string]
	Verified FieldUpdate[bool]
	Search   FieldUpdate[string]
}

// Apply merges u into f and returns the result. Empty strings clear text fields,
// mirroring a form input being emptied.
func (u FilterUpdate) Apply(f IncidentFilter) IncidentFilter {
	out := f.Clone()
	out.Building = emptyToNil(u.Building.apply(out.Building))
	out.Verified = u.Verified.apply(out.Verified)
	out.Search = emptyToNil(u.Search.apply(out.Search))
	return out
}

// Merge combines u followed by next into one update; fields set in next win.
func (u FilterUpdate) Merge(next FilterUpdate) FilterUpdate {
	return FilterUpdate{
		Building: u.Building.then(next.Building),
		Verified: u.Verified.then(next.Verified),
		Search:   u.Search.then(next.Search),
	}
}

// IsZero reports whether the update changes nothing.
func (u FilterUpdate) IsZero() bool {
	return u.Building.IsZero() && u.Verified.IsZero() && u.Search.IsZero()
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
