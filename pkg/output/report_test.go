package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/mitilog/pkg/analyzer"
	"github.com/ccollicutt/mitilog/pkg/evaluator"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
)

func createTestReport() *Report {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	one := int64(1)

	result := &analyzer.AnalysisResult{
		Modules: []*analyzer.Result{{
			Name:  "kerachole",
			Title: "Kerachole Uses",
			Targets: []evaluator.TableHeader{
				{Title: "Attacks Mitigated", Accessor: "missedgcd"},
			},
			Notes: []evaluator.NotesHeader{
				{Title: "Total Damage", Accessor: "totaldamagetaken"},
			},
			Entries: []evaluator.Entry{
				{
					Start:       1000,
					End:         16000,
					Captured:    []event.Event{{Timestamp: 2500, Type: event.KindAction, Source: "100", Action: 7}},
					TargetsData: map[string]evaluator.TargetData{"missedgcd": {Actual: 1, Expected: &one}},
					Notes:       map[string]string{"totaldamagetaken": "2,000"},
				},
				{
					Start:       29000,
					End:         44000,
					TargetsData: map[string]evaluator.TargetData{"missedgcd": {Actual: 0, Expected: &one}},
					Notes:       map[string]string{},
				},
			},
		}},
		Suggestions: []suggestion.Suggestion{{
			Content:  "Kerachole mitigates incoming damage.",
			Why:      "1 Kerachole window contained fewer than the expected 1 use(s).",
			Value:    1,
			Severity: suggestion.SeverityMedium,
			Source:   "kerachole",
		}},
		Metadata: analyzer.AnalysisMetadata{
			RunID:                 uuid.New(),
			Pull:                  event.Pull{Timestamp: 1000, Duration: 185000},
			Sources:               []string{"pull.jsonl"},
			StartTime:             start,
			EndTime:               start.Add(150 * time.Millisecond),
			EventsProcessed:       42,
			ModulesWithoutWindows: []string{"zoe"},
		},
	}

	return NewReport("mitilog.yaml", []Encounter{{Name: "pull-1", Result: result}})
}
