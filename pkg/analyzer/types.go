// Package analyzer captures encounter events into time-bounded windows and
// evaluates them.
//
// A WindowAnalyzer owns one window history. A TriggerPolicy decides when its
// windows open and close; while a window is open every event passing the
// analyzer's filter is captured. When the replay completes the analyzer maps
// captured events to an evaluable form, runs its evaluators, forwards their
// suggestions to the sink, and pivots their columns into one Entry per
// window.
//
// The encounter-level Analyzer builds WindowAnalyzers from configuration and
// replays one encounter through them.
package analyzer

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

// AnalysisResult contains the complete output of one encounter.
type AnalysisResult struct {
	// Modules holds the result of every module that opened a window, in
	// configuration order.
	Modules []*Result

	// Suggestions are all suggestions emitted by the modules.
	Suggestions []suggestion.Suggestion

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// RunID uniquely identifies this analysis.
	RunID uuid.UUID

	// Pull is the resolved encounter bounds.
	Pull event.Pull

	// Sources lists the event logs that were read.
	Sources []string

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// EventsProcessed is the number of events replayed, pull records excluded.
	EventsProcessed int

	// ModulesWithoutWindows names the modules that never opened a window.
	ModulesWithoutWindows []string
}

// HasSuggestions reports whether any module emitted a suggestion.
func (r *AnalysisResult) HasSuggestions() bool {
	return len(r.Suggestions) > 0
}

// WindowCount returns the number of windows across all modules.
func (r *AnalysisResult) WindowCount() int {
	total := 0
	for _, m := range r.Modules {
		total += len(m.Entries)
	}
	return total
}

// Module returns the result of the named module, or nil.
func (r *AnalysisResult) Module(name string) *Result {
	for _, m := range r.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}
