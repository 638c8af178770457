package analyzer

// Module is one configured window analyzer as seen by the encounter
// Analyzer. Every WindowAnalyzer implements it.
type Module interface {
	// Name returns the module name for reporting.
	Name() string

	// Result returns the evaluated windows once the replay has completed,
	// or nil when the module never opened a window.
	Result() *Result
}

var (
	_ Module   = (*WindowAnalyzer[struct{}])(nil)
	_ Triggers = (*WindowAnalyzer[struct{}])(nil)
)
