package evaluator

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/window"
)

// Default column identity for DamageTaken.
const (
	DefaultDamageTakenAccessor = "totaldamagetaken"
	DefaultDamageTakenHeader   = "Total Damage"
)

// DamageTakenOptions configures a DamageTaken evaluator.
type DamageTakenOptions struct {
	Accessor string
	Header   string

	// Language controls number grouping in the rendered totals.
	// Defaults to English.
	Language language.Tag
}

var _ Evaluator[event.Event] = (*DamageTaken)(nil)

// DamageTaken annotates each damage window with the total damage taken.
// It is informational and never suggests anything.
type DamageTaken struct {
	accessor string
	header   string
	printer  *message.Printer
}

// NewDamageTaken creates a DamageTaken evaluator.
func NewDamageTaken(opts DamageTakenOptions) *DamageTaken {
	if opts.Accessor == "" {
		opts.Accessor = DefaultDamageTakenAccessor
	}
	if opts.Header == "" {
		opts.Header = DefaultDamageTakenHeader
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	return &DamageTaken{
		accessor: opts.Accessor,
		header:   opts.Header,
		printer:  message.NewPrinter(opts.Language),
	}
}

// Total sums the per-target amounts of every damage event in w.
func Total(w window.Window[[]event.Event]) int64 {
	var total int64
	for i := range w.Data {
		total += w.Data[i].TotalDamage()
	}
	return total
}

// Suggest always returns nil.
func (d *DamageTaken) Suggest([]window.Window[[]event.Event]) *suggestion.Suggestion {
	return nil
}

// Output returns one notes column holding each window's total.
func (d *DamageTaken) Output(windows []window.Window[[]event.Event]) []Output {
	rows := make([]string, len(windows))
	for i, w := range windows {
		rows[i] = d.printer.Sprintf("%d", Total(w))
	}

	return []Output{Notes{
		Header: NotesHeader{
			Title:    d.header,
			Accessor: d.accessor,
		},
		Rows: rows,
	}}
}
