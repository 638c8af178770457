// Package metrics exposes Prometheus instrumentation for window analysis.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records window and evaluation activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Windows opened, by module
	WindowsOpened *prometheus.CounterVec

	// Events appended to an open window, by module
	EventsCaptured *prometheus.CounterVec

	// Captured events dropped because their action could not be resolved
	EventsDropped *prometheus.CounterVec

	// Suggestions emitted, by module and severity
	Suggestions *prometheus.CounterVec

	// Events replayed per encounter
	EventsReplayed prometheus.Counter

	// Wall time of one encounter replay
	ReplayDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		WindowsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mitilog_windows_opened_total",
			Help: "Total capture windows opened by module",
		}, []string{"module"}),

		EventsCaptured: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mitilog_window_events_captured_total",
			Help: "Total events captured into open windows by module",
		}, []string{"module"}),

		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mitilog_window_events_dropped_total",
			Help: "Captured events dropped because their action could not be resolved",
		}, []string{"module"}),

		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mitilog_suggestions_total",
			Help: "Total suggestions emitted by module and severity",
		}, []string{"module", "severity"}),

		EventsReplayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mitilog_events_replayed_total",
			Help: "Total events replayed across encounters",
		}),

		ReplayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mitilog_replay_duration_seconds",
			Help:    "Duration of a full encounter replay including evaluation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementWindowsOpened records a newly opened window.
func (m *Metrics) IncrementWindowsOpened(module string) {
	if m != nil {
		m.WindowsOpened.WithLabelValues(module).Inc()
	}
}

// IncrementEventsCaptured records an event appended to a window.
func (m *Metrics) IncrementEventsCaptured(module string) {
	if m != nil {
		m.EventsCaptured.WithLabelValues(module).Inc()
	}
}

// AddEventsDropped records events dropped while mapping windows.
func (m *Metrics) AddEventsDropped(module string, n int) {
	if m != nil && n > 0 {
		m.EventsDropped.WithLabelValues(module).Add(float64(n))
	}
}

// IncrementSuggestions records an emitted suggestion.
func (m *Metrics) IncrementSuggestions(module, severity string) {
	if m != nil {
		m.Suggestions.WithLabelValues(module, severity).Inc()
	}
}

// AddEventsReplayed records replayed events.
func (m *Metrics) AddEventsReplayed(n int) {
	if m != nil && n > 0 {
		m.EventsReplayed.Add(float64(n))
	}
}

// ObserveReplayDuration records the duration of one encounter replay.
func (m *Metrics) ObserveReplayDuration(d time.Duration) {
	if m != nil {
		m.ReplayDuration.Observe(d.Seconds())
	}
}
