package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ccollicutt/mitilog/pkg/analyzer"
	"github.com/ccollicutt/mitilog/pkg/evaluator"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "mitilog: %d encounters, %d windows, %d suggestions\n",
		report.Summary.Encounters,
		report.Summary.Windows,
		report.Summary.Suggestions)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== mitilog Analysis Report ===")
	fmt.Fprintln(w)

	for i := range report.Encounters {
		if err := f.formatEncounter(&report.Encounters[i], w); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d encounters, %d windows, %d suggestions%s\n",
		report.Summary.Encounters,
		report.Summary.Windows,
		report.Summary.Suggestions,
		severityBreakdown(report.Summary.BySeverity))

	if f.opts.Verbose {
		fmt.Fprintf(w, "Events processed: %d\n", report.Summary.EventsProcessed)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
		fmt.Fprintf(w, "Run: %s\n", report.Metadata.RunID)
	}

	return nil
}

func (f *TextFormatter) formatEncounter(enc *EncounterReport, w io.Writer) error {
	fmt.Fprintf(w, "## %s (%s)\n", enc.Name, FormatOffset(enc.Pull.Duration))
	if f.opts.Verbose {
		fmt.Fprintf(w, "  Sources: %s\n", strings.Join(enc.Sources, ", "))
		fmt.Fprintf(w, "  Events: %d\n", enc.EventsProcessed)
	}
	fmt.Fprintln(w)

	for _, m := range enc.Modules {
		if err := f.formatModule(m, w); err != nil {
			return err
		}
	}

	for _, name := range enc.ModulesWithoutWindows {
		fmt.Fprintf(w, "[%s]\n  No windows captured\n\n", name)
	}

	if len(enc.Suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions")
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintf(w, "Suggestions: %d\n", len(enc.Suggestions))
	for _, s := range enc.Suggestions {
		formatSuggestion(&s, w)
	}
	fmt.Fprintln(w)
	return nil
}

func (f *TextFormatter) formatModule(m *analyzer.Result, w io.Writer) error {
	fmt.Fprintf(w, "[%s] %s\n", m.Name, m.Title)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"  Start", "End"}
	for _, t := range m.Targets {
		header = append(header, t.Title)
	}
	for _, n := range m.Notes {
		header = append(header, n.Title)
	}
	if f.opts.Verbose {
		header = append(header, "Captured")
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, e := range m.Entries {
		row := []string{"  " + FormatOffset(e.Start), FormatOffset(e.End)}
		for _, t := range m.Targets {
			row = append(row, formatTarget(t, e))
		}
		for _, n := range m.Notes {
			note, _ := n.Value(e)
			row = append(row, note)
		}
		if f.opts.Verbose {
			row = append(row, formatCaptured(e))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(m.Collisions) > 0 {
		fmt.Fprintf(w, "  warning: overwritten columns: %s\n", strings.Join(m.Collisions, ", "))
	}
	fmt.Fprintln(w)
	return nil
}

func formatTarget(h evaluator.TableHeader, e evaluator.Entry) string {
	d, ok := h.Value(e)
	if !ok {
		return "-"
	}
	if d.Expected == nil {
		return fmt.Sprintf("%d", d.Actual)
	}
	cell := fmt.Sprintf("%d/%d", d.Actual, *d.Expected)
	if d.Outcome() == evaluator.OutcomeNegative {
		cell += " (short)"
	}
	return cell
}

func formatCaptured(e evaluator.Entry) string {
	ids := make([]string, len(e.Captured))
	for i, c := range e.Captured {
		ids[i] = fmt.Sprintf("%d", c.Action)
	}
	return strings.Join(ids, " ")
}

func formatSuggestion(s *suggestion.Suggestion, w io.Writer) {
	fmt.Fprintf(w, "  [%s] %s", strings.ToUpper(s.Severity.String()), s.Content)
	if s.Source != "" {
		fmt.Fprintf(w, " (%s)", s.Source)
	}
	fmt.Fprintln(w)
	if s.Why != "" {
		fmt.Fprintf(w, "    %s\n", s.Why)
	}
}

func severityBreakdown(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, counts[name])
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// FormatOffset renders an encounter offset in milliseconds as m:ss.t.
func FormatOffset(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	tenths := (ms % 1000) / 100
	return fmt.Sprintf("%d:%02d.%d", minutes, seconds, tenths)
}
