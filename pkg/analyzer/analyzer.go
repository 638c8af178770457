package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"

	"github.com/ccollicutt/mitilog/pkg/config"
	"github.com/ccollicutt/mitilog/pkg/data"
	"github.com/ccollicutt/mitilog/pkg/dispatch"
	"github.com/ccollicutt/mitilog/pkg/evaluator"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/filter"
	"github.com/ccollicutt/mitilog/pkg/metrics"
	"github.com/ccollicutt/mitilog/pkg/parser"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/telemetry"
)

// Analyzer replays encounters through the configured modules.
// An Analyzer is safe for concurrent use: every Analyze call builds its own
// dispatcher and modules.
type Analyzer struct {
	cfg     *config.Config
	catalog *data.Catalog
	plans   []*modulePlan

	// Options
	moduleFilter map[string]bool // nil means all modules
	logger       *slog.Logger
	metrics      *metrics.Metrics
	timeline     Timeline
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithModuleFilter limits analysis to the named modules.
func WithModuleFilter(modules []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(modules) > 0 {
			a.moduleFilter = make(map[string]bool)
			for _, m := range modules {
				a.moduleFilter[m] = true
			}
		}
	}
}

// WithLookup sets the action and status catalog. Without it the catalog is
// loaded from the config's actions_file, or the embedded one is used.
func WithLookup(c *data.Catalog) AnalyzerOption {
	return func(a *Analyzer) {
		a.catalog = c
	}
}

// WithLogger sets the logger passed to every module.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithTimeline sets the timeline collaborator handed to results.
func WithTimeline(t Timeline) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeline = t
	}
}

// modulePlan is a module config with its catalog references resolved.
type modulePlan struct {
	cfg       *config.ModuleConfig
	status    event.StatusID
	target    filter.Match[event.ActorID]
	trackOnly []event.ActionID
	ignore    []event.ActionID
	languages []language.Tag
}

// NewAnalyzer creates a new analyzer from configuration. Catalog references
// in the selected modules are resolved here so bad keys fail before any
// event is read.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		cfg:   cfg,
		plans: make([]*modulePlan, 0, len(cfg.Modules)),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}

	if a.catalog == nil {
		if cfg.ActionsFile != "" {
			cat, err := data.LoadCatalog(cfg.ActionsFile)
			if err != nil {
				return nil, fmt.Errorf("loading actions file: %w", err)
			}
			a.catalog = cat
		} else {
			a.catalog = data.DefaultCatalog()
		}
	}

	for i := range cfg.Modules {
		m := &cfg.Modules[i]

		if a.moduleFilter != nil && !a.moduleFilter[m.Name] {
			continue
		}

		plan, err := resolvePlan(a.catalog, m, cfg.ActorID())
		if err != nil {
			return nil, fmt.Errorf("modules[%d] (%s): %w", i, m.Name, err)
		}
		a.plans = append(a.plans, plan)
	}

	if len(a.plans) == 0 {
		return nil, errors.New("no modules to execute (check --module filter)")
	}

	return a, nil
}

func resolvePlan(cat *data.Catalog, m *config.ModuleConfig, actor event.ActorID) (*modulePlan, error) {
	plan := &modulePlan{cfg: m}

	status, err := cat.ResolveStatusRef(m.Trigger.Status)
	if err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	plan.status = status

	plan.target = triggerTarget(m.Trigger.Target, actor)

	if plan.trackOnly, err = resolveActions(cat, m.TrackOnly); err != nil {
		return nil, fmt.Errorf("track_only: %w", err)
	}
	if plan.ignore, err = resolveActions(cat, m.Ignore); err != nil {
		return nil, fmt.Errorf("ignore: %w", err)
	}

	plan.languages = make([]language.Tag, len(m.Evaluators))
	for i, ev := range m.Evaluators {
		if ev.Language == "" {
			continue
		}
		tag, err := language.Parse(ev.Language)
		if err != nil {
			return nil, fmt.Errorf("evaluators[%d]: language: %w", i, err)
		}
		plan.languages[i] = tag
	}

	return plan, nil
}

func resolveActions(cat *data.Catalog, refs []string) ([]event.ActionID, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]event.ActionID, len(refs))
	for i, ref := range refs {
		id, err := cat.ResolveActionRef(ref)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Catalog returns the catalog modules resolve actions against.
func (a *Analyzer) Catalog() *data.Catalog {
	return a.catalog
}

// ModuleNames returns the names of the modules that will run.
func (a *Analyzer) ModuleNames() []string {
	names := make([]string, len(a.plans))
	for i, p := range a.plans {
		names[i] = p.cfg.Name
	}
	return names
}

// Analyze replays one encounter and returns the evaluated modules.
func (a *Analyzer) Analyze(ctx context.Context, source parser.EventSource) (*AnalysisResult, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "analyzer.Analyze")
	defer span.End()

	result := &AnalysisResult{
		Modules: make([]*Result, 0, len(a.plans)),
		Metadata: AnalysisMetadata{
			RunID:     uuid.New(),
			StartTime: time.Now(),
		},
	}
	span.SetAttributes(attribute.String("mitilog.run_id", result.Metadata.RunID.String()))

	logger := a.logger.With("run_id", result.Metadata.RunID.String())
	d := dispatch.New(dispatch.WithLogger(logger), dispatch.WithMetrics(a.metrics))
	sink := suggestion.NewCollector()
	deps := Deps{
		Lookup:      a.catalog,
		Suggestions: sink,
		Timeline:    a.timeline,
		Logger:      logger,
		Metrics:     a.metrics,
	}

	modules := make([]Module, 0, len(a.plans))
	for _, plan := range a.plans {
		m, err := a.createModule(d, plan, deps)
		if err != nil {
			return nil, fmt.Errorf("creating module %q: %w", plan.cfg.Name, err)
		}
		modules = append(modules, m)
	}

	tracked := &sourceTracker{EventSource: source, seen: make(map[string]bool)}
	pull, err := d.Replay(ctx, tracked)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay failed")
		return nil, fmt.Errorf("replaying encounter: %w", err)
	}

	for _, m := range modules {
		if r := m.Result(); r != nil {
			result.Modules = append(result.Modules, r)
		} else {
			result.Metadata.ModulesWithoutWindows = append(result.Metadata.ModulesWithoutWindows, m.Name())
		}
	}

	result.Suggestions = sink.All()
	result.Metadata.Pull = pull
	result.Metadata.Sources = tracked.sources
	result.Metadata.EventsProcessed = d.Stats().Events
	result.Metadata.EndTime = time.Now()

	span.SetAttributes(
		attribute.Int("mitilog.modules", len(result.Modules)),
		attribute.Int("mitilog.suggestions", len(result.Suggestions)),
	)

	return result, nil
}

// createModule creates the window analyzer for a module type.
func (a *Analyzer) createModule(d dispatch.Subscriber, plan *modulePlan, deps Deps) (Module, error) {
	m := plan.cfg

	switch m.ModuleTypeEnum() {
	case config.ModuleTypeAction:
		w := NewActionWindow(d, m.Name, a.cfg.ActorID(), deps)
		configure(w, plan)
		for _, ev := range actionEvaluators(plan) {
			w.AddEvaluator(ev)
		}
		return w, nil

	case config.ModuleTypeFoeAction:
		w := NewFoeActionWindow(d, m.Name, a.cfg.FoeIDs(), deps)
		configure(w, plan)
		for _, ev := range actionEvaluators(plan) {
			w.AddEvaluator(ev)
		}
		return w, nil

	case config.ModuleTypeDamage:
		w := NewDamageWindow(d, m.Name, a.cfg.FoeIDs(), deps)
		configure(w, plan)
		for _, ev := range damageEvaluators(plan) {
			w.AddEvaluator(ev)
		}
		return w, nil

	default:
		return nil, fmt.Errorf("unknown module type: %s", m.Type)
	}
}

// triggerTarget picks whose copy of the trigger status drives windows. An
// empty target follows the tracked actor so party-wide buffs are not closed
// by an ally losing theirs.
func triggerTarget(target string, actor event.ActorID) filter.Match[event.ActorID] {
	switch {
	case target == config.AnyTarget:
		return nil
	case target != "":
		return filter.Is(event.ActorID(target))
	case actor != "":
		return filter.Is(actor)
	default:
		return nil
	}
}

func configure[T any](w *WindowAnalyzer[T], plan *modulePlan) {
	w.SetTitle(plan.cfg.Title)

	switch {
	case len(plan.trackOnly) > 0:
		w.TrackOnlyActions(plan.trackOnly...)
	case len(plan.ignore) > 0:
		w.IgnoreActions(plan.ignore...)
	}

	w.Attach(BuffPolicy{Status: plan.status, Target: plan.target})
}

func actionEvaluators(plan *modulePlan) []evaluator.Evaluator[evaluator.EvaluatedAction] {
	var evs []evaluator.Evaluator[evaluator.EvaluatedAction]
	for i := range plan.cfg.Evaluators {
		ec := &plan.cfg.Evaluators[i]
		if ec.EvaluatorTypeEnum() != config.EvaluatorTypeExpectedCount {
			continue
		}

		opts := evaluator.ExpectedCountOptions[evaluator.EvaluatedAction]{
			Expected:             ec.Expected,
			Accessor:             ec.Accessor,
			Header:               ec.Header,
			SuggestionIcon:       ec.Suggestion.Icon,
			SuggestionContent:    ec.Suggestion.Content,
			SuggestionWindowName: ec.Suggestion.WindowName,
			SeverityTiers:        ec.Tiers(),
		}
		switch ec.Count {
		case config.CountGCD:
			opts.Counts = evaluator.CountOnGCD
		case config.CountOGCD:
			opts.Counts = evaluator.CountOffGCD
		}

		evs = append(evs, evaluator.NewExpectedCount(opts))
	}
	return evs
}

func damageEvaluators(plan *modulePlan) []evaluator.Evaluator[event.Event] {
	var evs []evaluator.Evaluator[event.Event]
	for i := range plan.cfg.Evaluators {
		ec := &plan.cfg.Evaluators[i]
		if ec.EvaluatorTypeEnum() != config.EvaluatorTypeDamageTaken {
			continue
		}
		evs = append(evs, evaluator.NewDamageTaken(evaluator.DamageTakenOptions{
			Accessor: ec.Accessor,
			Header:   ec.Header,
			Language: plan.languages[i],
		}))
	}
	return evs
}

// sourceTracker records the distinct files records were read from.
type sourceTracker struct {
	parser.EventSource
	seen    map[string]bool
	sources []string
}

func (s *sourceTracker) Next(ctx context.Context) (*parser.Record, error) {
	rec, err := s.EventSource.Next(ctx)
	if err == nil && rec.Source != "" && !s.seen[rec.Source] {
		s.seen[rec.Source] = true
		s.sources = append(s.sources, rec.Source)
	}
	return rec, err
}
