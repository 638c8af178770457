// Package event defines the combat log event model replayed by mitilog.
package event

// Kind discriminates event payloads.
type Kind string

const (
	// KindAction is an ability cast.
	KindAction Kind = "action"

	// KindDamage is one instance of damage, possibly hitting several targets.
	KindDamage Kind = "damage"

	// KindStatusApply marks a buff or debuff going up.
	KindStatusApply Kind = "statusApply"

	// KindStatusRemove marks a buff or debuff falling off.
	KindStatusRemove Kind = "statusRemove"

	// KindPull carries encounter bounds. It is consumed by the dispatcher and
	// never delivered to subscribers.
	KindPull Kind = "pull"
)

// ActorID identifies a participant in the encounter.
type ActorID string

// ActionID identifies an ability in the action catalog.
type ActionID int

// StatusID identifies a buff or debuff in the status catalog.
type StatusID int

// Event is a single timestamped record from an encounter log.
// Timestamps are milliseconds on the log's clock.
type Event struct {
	Timestamp int64   `json:"timestamp"`
	Type      Kind    `json:"type"`
	Source    ActorID `json:"source,omitempty"`
	Target    ActorID `json:"target,omitempty"`

	// Action is set on action events and on damage events caused by an action.
	Action ActionID `json:"action,omitempty"`

	// Status is set on statusApply and statusRemove events.
	Status StatusID `json:"status,omitempty"`

	// Targets lists per-target damage for damage events.
	Targets []DamageTarget `json:"targets,omitempty"`

	// Duration is the encounter length in milliseconds (pull records only).
	Duration int64 `json:"duration,omitempty"`
}

// DamageTarget is the damage a single target took from one damage event.
type DamageTarget struct {
	Target ActorID `json:"target"`
	Amount int64   `json:"amount"`
}

// TotalDamage sums the amount across all targets of the event.
func (e *Event) TotalDamage() int64 {
	var total int64
	for _, t := range e.Targets {
		total += t.Amount
	}
	return total
}

// Pull describes the bounds of one encounter.
type Pull struct {
	// Timestamp is the encounter start on the log's clock.
	Timestamp int64 `json:"timestamp"`

	// Duration is the encounter length in milliseconds.
	Duration int64 `json:"duration"`
}

// End returns the encounter end instant.
func (p Pull) End() int64 {
	return p.Timestamp + p.Duration
}

// Relative converts a log timestamp to an offset from the pull start.
// Offsets before the pull are clamped to zero.
func (p Pull) Relative(ts int64) int64 {
	if ts < p.Timestamp {
		return 0
	}
	return ts - p.Timestamp
}
