package evaluator

import (
	"fmt"

	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/window"
)

// Default column identity for ExpectedCount.
const (
	DefaultExpectedCountAccessor = "expectedcount"
	DefaultExpectedCountHeader   = "Expected Uses"
)

// ExpectedCountOptions configures an ExpectedCount evaluator.
type ExpectedCountOptions[T any] struct {
	// Expected is the number of counted events each window should contain.
	Expected int64

	// Counts selects which captured events count. Nil counts every event.
	Counts func(T) bool

	// Adjust changes the expectation for a single window. Optional.
	Adjust func(w window.Window[[]T]) int64

	// Accessor and Header identify the output column.
	Accessor string
	Header   string

	SuggestionIcon       string
	SuggestionContent    string
	SuggestionWindowName string
	SeverityTiers        suggestion.Tiers
}

var _ Evaluator[EvaluatedAction] = (*ExpectedCount[EvaluatedAction])(nil)

// ExpectedCount compares the number of matching events in each window with a
// fixed expectation. The suggestion value is the number of windows that fell
// short.
type ExpectedCount[T any] struct {
	opts ExpectedCountOptions[T]
}

// NewExpectedCount creates an ExpectedCount evaluator.
func NewExpectedCount[T any](opts ExpectedCountOptions[T]) *ExpectedCount[T] {
	if opts.Accessor == "" {
		opts.Accessor = DefaultExpectedCountAccessor
	}
	if opts.Header == "" {
		opts.Header = DefaultExpectedCountHeader
	}
	if opts.SuggestionWindowName == "" {
		opts.SuggestionWindowName = "buff"
	}
	return &ExpectedCount[T]{opts: opts}
}

// Count returns how many events in w satisfy the count predicate.
func (e *ExpectedCount[T]) Count(w window.Window[[]T]) int64 {
	var n int64
	for _, item := range w.Data {
		if e.opts.Counts == nil || e.opts.Counts(item) {
			n++
		}
	}
	return n
}

// ExpectedFor returns the expectation for w after any adjustment.
func (e *ExpectedCount[T]) ExpectedFor(w window.Window[[]T]) int64 {
	expected := e.opts.Expected
	if e.opts.Adjust != nil {
		expected += e.opts.Adjust(w)
	}
	return expected
}

// Suggest counts windows below expectation and grades that count.
func (e *ExpectedCount[T]) Suggest(windows []window.Window[[]T]) *suggestion.Suggestion {
	short := 0
	for _, w := range windows {
		if e.Count(w) < e.ExpectedFor(w) {
			short++
		}
	}

	plural := "s"
	if short == 1 {
		plural = ""
	}

	why := fmt.Sprintf("%d %s window%s contained fewer than the expected %d use(s).",
		short, e.opts.SuggestionWindowName, plural, e.opts.Expected)
	if e.opts.Adjust != nil {
		why = fmt.Sprintf("%d %s window%s contained fewer uses than expected for that window.",
			short, e.opts.SuggestionWindowName, plural)
	}

	return suggestion.NewTiered(suggestion.Tiered{
		Icon:    e.opts.SuggestionIcon,
		Content: e.opts.SuggestionContent,
		Tiers:   e.opts.SeverityTiers,
		Value:   float64(short),
		Why:     why,
	})
}

// Output returns one table column with actual and expected counts.
func (e *ExpectedCount[T]) Output(windows []window.Window[[]T]) []Output {
	rows := make([]TargetData, len(windows))
	for i, w := range windows {
		expected := e.ExpectedFor(w)
		rows[i] = TargetData{
			Actual:   e.Count(w),
			Expected: &expected,
		}
	}

	return []Output{Table{
		Header: TableHeader{
			Title:    e.opts.Header,
			Accessor: e.opts.Accessor,
		},
		Rows: rows,
	}}
}

// CountOnGCD counts actions on the global cooldown.
func CountOnGCD(a EvaluatedAction) bool {
	return a.Action.OnGCD
}

// CountOffGCD counts actions off the global cooldown.
func CountOffGCD(a EvaluatedAction) bool {
	return !a.Action.OnGCD
}
