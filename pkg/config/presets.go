package config

import (
	"fmt"
	"sort"
)

// PresetKerachole is the Sage Kerachole module: foe actions are captured
// while Kerachole is up, and each window should mitigate at least one.
const PresetKerachole = "sge-kerachole"

var presets = map[string]ModuleConfig{
	PresetKerachole: {
		Type:  string(ModuleTypeFoeAction),
		Title: "Kerachole Uses",
		Trigger: TriggerConfig{
			Type:   string(TriggerTypeBuff),
			Status: "KERACHOLE",
		},
		Evaluators: []EvaluatorConfig{
			{
				Type:     string(EvaluatorTypeExpectedCount),
				Expected: 1,
				Count:    CountAll,
				Accessor: "missedgcd",
				Header:   "Attacks Mitigated",
				SeverityTiers: map[float64]string{
					1: "medium",
					2: "major",
				},
				Suggestion: SuggestionConfig{
					Icon:       "https://xivapi.com/i/003000/003680.png",
					Content:    "Kerachole mitigates incoming damage. Try to use it in anticipation of significant damage spikes.",
					WindowName: "Kerachole",
				},
			},
		},
	},
}

// Presets returns the names of the built-in module presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyPreset fills unset module fields from the named preset.
func applyPreset(m *ModuleConfig) error {
	if m.Preset == "" {
		return nil
	}
	p, ok := presets[m.Preset]
	if !ok {
		return fmt.Errorf("unknown preset %q", m.Preset)
	}

	if m.Type == "" {
		m.Type = p.Type
	}
	if m.Title == "" {
		m.Title = p.Title
	}
	if m.Trigger.Type == "" {
		m.Trigger.Type = p.Trigger.Type
	}
	if m.Trigger.Status == "" {
		m.Trigger.Status = p.Trigger.Status
	}
	if m.Trigger.Target == "" {
		m.Trigger.Target = p.Trigger.Target
	}
	if len(m.TrackOnly) == 0 && len(m.Ignore) == 0 {
		m.TrackOnly = append([]string(nil), p.TrackOnly...)
		m.Ignore = append([]string(nil), p.Ignore...)
	}
	if len(m.Evaluators) == 0 {
		m.Evaluators = make([]EvaluatorConfig, len(p.Evaluators))
		for i, ev := range p.Evaluators {
			ev.SeverityTiers = cloneTiers(ev.SeverityTiers)
			m.Evaluators[i] = ev
		}
	}
	return nil
}

func cloneTiers(in map[float64]string) map[float64]string {
	if in == nil {
		return nil
	}
	out := make(map[float64]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
