// Package filter builds event predicates from small composable pieces.
//
// Predicates are plain functions and a Filter is an immutable value: every
// builder method returns a new Filter and leaves the receiver untouched, so a
// caller can hold the current filter by value and swap it wholesale.
package filter

import "github.com/ccollicutt/mitilog/pkg/event"

// Predicate decides whether an event is a member of a filter.
type Predicate func(e *event.Event) bool

// Match decides whether a single attribute value is accepted.
type Match[T comparable] func(v T) bool

// Is matches exactly one value.
func Is[T comparable](want T) Match[T] {
	return func(v T) bool { return v == want }
}

// OneOf matches any of the given values. An empty set matches nothing.
func OneOf[T comparable](values ...T) Match[T] {
	set := toSet(values)
	return func(v T) bool {
		_, ok := set[v]
		return ok
	}
}

// NoneOf matches every value except the given ones. An empty set matches
// everything.
func NoneOf[T comparable](values ...T) Match[T] {
	set := toSet(values)
	return func(v T) bool {
		_, ok := set[v]
		return !ok
	}
}

// Any matches every value.
func Any[T comparable]() Match[T] {
	return func(T) bool { return true }
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Type matches events of any of the given kinds.
func Type(kinds ...event.Kind) Predicate {
	m := OneOf(kinds...)
	return func(e *event.Event) bool { return m(e.Type) }
}

// Source matches events whose source actor is accepted by m.
func Source(m Match[event.ActorID]) Predicate {
	return func(e *event.Event) bool { return m(e.Source) }
}

// Target matches events whose target actor is accepted by m.
func Target(m Match[event.ActorID]) Predicate {
	return func(e *event.Event) bool { return m(e.Target) }
}

// Action matches events whose action id is accepted by m.
func Action(m Match[event.ActionID]) Predicate {
	return func(e *event.Event) bool { return m(e.Action) }
}

// Status matches events whose status id is accepted by m.
func Status(m Match[event.StatusID]) Predicate {
	return func(e *event.Event) bool { return m(e.Status) }
}

// All is the conjunction of ps. With no predicates it matches everything.
func All(ps ...Predicate) Predicate {
	ps = append([]Predicate(nil), ps...)
	return func(e *event.Event) bool {
		for _, p := range ps {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// Filter is an immutable conjunction of predicates.
// The zero value matches every event.
type Filter struct {
	preds []Predicate
}

// New returns an empty filter.
func New() Filter {
	return Filter{}
}

// With returns a copy of f that additionally requires p.
func (f Filter) With(p Predicate) Filter {
	preds := make([]Predicate, len(f.preds), len(f.preds)+1)
	copy(preds, f.preds)
	return Filter{preds: append(preds, p)}
}

// Type returns a copy of f restricted to the given kinds.
func (f Filter) Type(kinds ...event.Kind) Filter {
	return f.With(Type(kinds...))
}

// Source returns a copy of f restricted to matching source actors.
func (f Filter) Source(m Match[event.ActorID]) Filter {
	return f.With(Source(m))
}

// Target returns a copy of f restricted to matching target actors.
func (f Filter) Target(m Match[event.ActorID]) Filter {
	return f.With(Target(m))
}

// Action returns a copy of f restricted to matching action ids.
func (f Filter) Action(m Match[event.ActionID]) Filter {
	return f.With(Action(m))
}

// Status returns a copy of f restricted to matching status ids.
func (f Filter) Status(m Match[event.StatusID]) Filter {
	return f.With(Status(m))
}

// Match reports whether every predicate of f holds for e.
func (f Filter) Match(e *event.Event) bool {
	for _, p := range f.preds {
		if !p(e) {
			return false
		}
	}
	return true
}

// Predicate returns f as a plain predicate.
func (f Filter) Predicate() Predicate {
	return f.Match
}
