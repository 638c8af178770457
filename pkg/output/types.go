// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/mitilog/pkg/analyzer"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

// Report is the complete analysis output across encounters.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Encounters holds one entry per analysed encounter, in config order.
	Encounters []EncounterReport `json:"encounters"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// EncounterReport is the output for a single encounter.
type EncounterReport struct {
	Name  string     `json:"name"`
	RunID uuid.UUID  `json:"run_id"`
	Pull  event.Pull `json:"pull"`

	Modules               []*analyzer.Result      `json:"modules"`
	ModulesWithoutWindows []string                `json:"modules_without_windows,omitempty"`
	Suggestions           []suggestion.Suggestion `json:"suggestions"`

	Sources         []string `json:"sources"`
	EventsProcessed int      `json:"events_processed"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// Encounters is the number of encounters analysed.
	Encounters int `json:"encounters"`

	// ModulesWithWindows counts module results across encounters.
	ModulesWithWindows int `json:"modules_with_windows"`

	// Windows is the total number of windows captured.
	Windows int `json:"windows"`

	// Suggestions is the total number of suggestions emitted.
	Suggestions int `json:"suggestions"`

	// BySeverity counts suggestions per severity name.
	BySeverity map[string]int `json:"by_severity,omitempty"`

	// EventsProcessed is the total number of events replayed.
	EventsProcessed int `json:"events_processed"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID identifies the whole invocation.
	RunID uuid.UUID `json:"run_id"`

	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`
}

// Encounter pairs an encounter name with its analysis.
type Encounter struct {
	Name   string
	Result *analyzer.AnalysisResult
}

// NewReport creates a Report from per-encounter analysis results.
func NewReport(configFile string, encounters []Encounter) *Report {
	report := &Report{
		Encounters: make([]EncounterReport, 0, len(encounters)),
		Metadata: Metadata{
			RunID:      uuid.New(),
			ConfigFile: configFile,
		},
	}

	var first, last time.Time
	for _, enc := range encounters {
		r := enc.Result
		report.Encounters = append(report.Encounters, EncounterReport{
			Name:                  enc.Name,
			RunID:                 r.Metadata.RunID,
			Pull:                  r.Metadata.Pull,
			Modules:               r.Modules,
			ModulesWithoutWindows: r.Metadata.ModulesWithoutWindows,
			Suggestions:           r.Suggestions,
			Sources:               r.Metadata.Sources,
			EventsProcessed:       r.Metadata.EventsProcessed,
		})

		report.Summary.ModulesWithWindows += len(r.Modules)
		report.Summary.Windows += r.WindowCount()
		report.Summary.EventsProcessed += r.Metadata.EventsProcessed
		for _, s := range r.Suggestions {
			if report.Summary.BySeverity == nil {
				report.Summary.BySeverity = make(map[string]int)
			}
			report.Summary.BySeverity[s.Severity.String()]++
			report.Summary.Suggestions++
		}

		if first.IsZero() || r.Metadata.StartTime.Before(first) {
			first = r.Metadata.StartTime
		}
		if r.Metadata.EndTime.After(last) {
			last = r.Metadata.EndTime
		}
	}

	report.Summary.Encounters = len(report.Encounters)
	report.Metadata.AnalyzedAt = last
	report.Metadata.Duration = last.Sub(first)

	return report
}

// HasSuggestions returns true if any suggestion was emitted.
func (r *Report) HasSuggestions() bool {
	return r.Summary.Suggestions > 0
}
