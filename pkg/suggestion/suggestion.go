// Package suggestion holds severity-graded advice produced by evaluators.
package suggestion

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Severity grades how important a suggestion is.
type Severity int

const (
	SeverityMinor Severity = iota + 1
	SeverityMedium
	SeverityMajor
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityMedium:
		return "medium"
	case SeverityMajor:
		return "major"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "minor":
		return SeverityMinor, nil
	case "medium":
		return SeverityMedium, nil
	case "major":
		return SeverityMajor, nil
	default:
		return 0, fmt.Errorf("unknown severity %q (must be minor, medium, or major)", name)
	}
}

// Tiers maps a minimum triggering value to the severity it earns.
type Tiers map[float64]Severity

// Grade returns the severity of the highest threshold value meets.
// The second result is false when value is below every threshold.
func (t Tiers) Grade(value float64) (Severity, bool) {
	thresholds := make([]float64, 0, len(t))
	for threshold := range t {
		thresholds = append(thresholds, threshold)
	}
	sort.Float64s(thresholds)

	var (
		sev   Severity
		found bool
	)
	for _, threshold := range thresholds {
		if value < threshold {
			break
		}
		sev = t[threshold]
		found = true
	}
	return sev, found
}

// Suggestion is a single piece of advice.
type Suggestion struct {
	Icon     string   `json:"icon,omitempty"`
	Content  string   `json:"content"`
	Why      string   `json:"why"`
	Value    float64  `json:"value"`
	Severity Severity `json:"severity"`

	// Source names the module that produced the suggestion.
	Source string `json:"source,omitempty"`
}

// Tiered describes a suggestion whose severity depends on a scalar value.
type Tiered struct {
	Icon    string
	Content string
	Why     string
	Tiers   Tiers
	Value   float64
}

// NewTiered grades t.Value against t.Tiers. It returns nil when the value is
// below the lowest threshold, meaning there is nothing actionable.
func NewTiered(t Tiered) *Suggestion {
	sev, ok := t.Tiers.Grade(t.Value)
	if !ok {
		return nil
	}
	return &Suggestion{
		Icon:     t.Icon,
		Content:  t.Content,
		Why:      t.Why,
		Value:    t.Value,
		Severity: sev,
	}
}

// Sink collects suggestions.
type Sink interface {
	Add(s Suggestion)
}

// Collector is a Sink that keeps suggestions in insertion order.
type Collector struct {
	mu    sync.Mutex
	items []Suggestion
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a suggestion.
func (c *Collector) Add(s Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, s)
}

// All returns a copy of the collected suggestions.
func (c *Collector) All() []Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Suggestion(nil), c.items...)
}

// Len returns the number of collected suggestions.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
