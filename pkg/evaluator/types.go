// Package evaluator defines the window evaluation protocol and the built-in
// evaluators.
package evaluator

import (
	"encoding/json"

	"github.com/ccollicutt/mitilog/pkg/data"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/window"
)

// Evaluator analyses a closed window history. Implementations must not keep
// state between calls or mutate the windows they are given.
type Evaluator[T any] interface {
	// Suggest returns at most one suggestion, or nil when nothing is actionable.
	Suggest(windows []window.Window[[]T]) *suggestion.Suggestion

	// Output returns the columns this evaluator contributes, or nil.
	Output(windows []window.Window[[]T]) []Output
}

// EvaluatedAction is a captured action event with its resolved catalog entry.
type EvaluatedAction struct {
	Event  event.Event
	Action data.Action
}

// Outcome classifies a table row for highlighting.
type Outcome int

const (
	// OutcomeNegative marks a row that fell below its expectation.
	OutcomeNegative Outcome = iota
	// OutcomeNeutral marks a row with nothing to compare against.
	OutcomeNeutral
	// OutcomePositive marks a row that met its expectation.
	OutcomePositive
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNegative:
		return "negative"
	case OutcomePositive:
		return "positive"
	default:
		return "neutral"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Comparator overrides the default outcome classification of a row.
type Comparator func(actual int64, expected *int64) Outcome

// TargetData is one window's value in a table column.
type TargetData struct {
	Actual     int64
	Expected   *int64
	Comparator Comparator
}

// Outcome classifies the row: the comparator if set, otherwise positive when
// actual meets expected, negative when it does not, and neutral without an
// expectation.
func (d TargetData) Outcome() Outcome {
	if d.Comparator != nil {
		return d.Comparator(d.Actual, d.Expected)
	}
	if d.Expected == nil {
		return OutcomeNeutral
	}
	if d.Actual >= *d.Expected {
		return OutcomePositive
	}
	return OutcomeNegative
}

// MarshalJSON renders the row with its computed outcome.
func (d TargetData) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Actual   int64   `json:"actual"`
		Expected *int64  `json:"expected,omitempty"`
		Outcome  Outcome `json:"outcome"`
	}{d.Actual, d.Expected, d.Outcome()})
}

// Entry is the per-window record handed to the presentation layer.
// Start and End are relative to the pull start.
type Entry struct {
	Start       int64                 `json:"start"`
	End         int64                 `json:"end"`
	Captured    []event.Event         `json:"captured"`
	TargetsData map[string]TargetData `json:"targets_data"`
	Notes       map[string]string     `json:"notes"`
}

// TableHeader names a table column. When Resolve is set it computes the row
// from the entry directly and Accessor is not used as a join key.
type TableHeader struct {
	Title    string                 `json:"title"`
	Accessor string                 `json:"accessor,omitempty"`
	Resolve  func(Entry) TargetData `json:"-"`
}

// Value returns the column's row for e.
func (h TableHeader) Value(e Entry) (TargetData, bool) {
	if h.Resolve != nil {
		return h.Resolve(e), true
	}
	d, ok := e.TargetsData[h.Accessor]
	return d, ok
}

// NotesHeader names a notes column. Resolve behaves as in TableHeader.
type NotesHeader struct {
	Title    string             `json:"title"`
	Accessor string             `json:"accessor,omitempty"`
	Resolve  func(Entry) string `json:"-"`
}

// Value returns the column's annotation for e.
func (h NotesHeader) Value(e Entry) (string, bool) {
	if h.Resolve != nil {
		return h.Resolve(e), true
	}
	n, ok := e.Notes[h.Accessor]
	return n, ok
}

// Output is one evaluator-declared column. It is either a Table or Notes.
type Output interface {
	isOutput()
}

// Table is a column of actual/expected rows, one per window.
type Table struct {
	Header TableHeader
	Rows   []TargetData
}

// Notes is a column of free-form annotations, one per window.
type Notes struct {
	Header NotesHeader
	Rows   []string
}

func (Table) isOutput() {}
func (Notes) isOutput() {}
