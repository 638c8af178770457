package analyzer

import (
	"log/slog"

	"github.com/ccollicutt/mitilog/pkg/data"
	"github.com/ccollicutt/mitilog/pkg/dispatch"
	"github.com/ccollicutt/mitilog/pkg/evaluator"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/filter"
	"github.com/ccollicutt/mitilog/pkg/metrics"
	"github.com/ccollicutt/mitilog/pkg/suggestion"
	"github.com/ccollicutt/mitilog/pkg/window"
)

// Timeline jumps the presentation layer to a span of the encounter.
type Timeline interface {
	Show(start, end int64)
}

// NopTimeline ignores every request.
type NopTimeline struct{}

// Show does nothing.
func (NopTimeline) Show(int64, int64) {}

// Deps are the collaborators a window analyzer needs. Zero fields are
// replaced with defaults: the embedded catalog, a fresh collector, a no-op
// timeline and a discarding logger.
type Deps struct {
	Lookup      data.Lookup
	Suggestions suggestion.Sink
	Timeline    Timeline
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Lookup == nil {
		d.Lookup = data.DefaultCatalog()
	}
	if d.Suggestions == nil {
		d.Suggestions = suggestion.NewCollector()
	}
	if d.Timeline == nil {
		d.Timeline = NopTimeline{}
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// WindowAnalyzer captures events into windows opened and closed by a trigger
// policy, then evaluates the closed windows when the encounter completes.
// T is the evaluable form each captured event is mapped to.
type WindowAnalyzer[T any] struct {
	name  string
	title string
	deps  Deps
	log   *slog.Logger

	sub     dispatch.Subscriber
	history *window.History[[]event.Event]

	kind    event.Kind
	sources filter.Match[event.ActorID]
	filter  filter.Filter

	hook       dispatch.Handle
	subscribed bool

	evaluators []evaluator.Evaluator[T]
	mapEvent   func(event.Event) (T, bool)

	completed bool
	result    *Result
}

func newWindowAnalyzer[T any](
	sub dispatch.Subscriber,
	name string,
	deps Deps,
	kind event.Kind,
	sources filter.Match[event.ActorID],
	mapEvent func(event.Event) (T, bool),
) *WindowAnalyzer[T] {
	deps = deps.withDefaults()
	a := &WindowAnalyzer[T]{
		name:     name,
		title:    name,
		deps:     deps,
		log:      deps.Logger.With("module", name),
		sub:      sub,
		history:  window.NewHistory(func() []event.Event { return nil }),
		kind:     kind,
		sources:  sources,
		mapEvent: mapEvent,
	}
	a.filter = filter.New().Source(sources).Type(kind)
	sub.OnComplete(a.complete)
	return a
}

// NewActionWindow tracks the actions of a single actor.
func NewActionWindow(sub dispatch.Subscriber, name string, actor event.ActorID, deps Deps) *WindowAnalyzer[evaluator.EvaluatedAction] {
	deps = deps.withDefaults()
	return newWindowAnalyzer(sub, name, deps, event.KindAction, filter.Is(actor), resolveAction(deps.Lookup))
}

// NewFoeActionWindow tracks the actions of hostile actors.
func NewFoeActionWindow(sub dispatch.Subscriber, name string, foes []event.ActorID, deps Deps) *WindowAnalyzer[evaluator.EvaluatedAction] {
	deps = deps.withDefaults()
	return newWindowAnalyzer(sub, name, deps, event.KindAction, filter.OneOf(foes...), resolveAction(deps.Lookup))
}

// NewDamageWindow tracks damage events dealt by the given sources. Damage
// events are evaluated as captured.
func NewDamageWindow(sub dispatch.Subscriber, name string, sources []event.ActorID, deps Deps) *WindowAnalyzer[event.Event] {
	return newWindowAnalyzer(sub, name, deps, event.KindDamage, filter.OneOf(sources...),
		func(e event.Event) (event.Event, bool) { return e, true })
}

func resolveAction(lookup data.Lookup) func(event.Event) (evaluator.EvaluatedAction, bool) {
	return func(e event.Event) (evaluator.EvaluatedAction, bool) {
		action, ok := lookup.Action(e.Action)
		if !ok {
			return evaluator.EvaluatedAction{}, false
		}
		return evaluator.EvaluatedAction{Event: e, Action: action}, true
	}
}

// Name returns the module name.
func (a *WindowAnalyzer[T]) Name() string { return a.name }

// Title returns the display title.
func (a *WindowAnalyzer[T]) Title() string { return a.title }

// SetTitle overrides the display title, which defaults to the name.
func (a *WindowAnalyzer[T]) SetTitle(title string) {
	if title != "" {
		a.title = title
	}
}

// AddEvaluator registers an evaluator. Evaluators run in registration order.
func (a *WindowAnalyzer[T]) AddEvaluator(ev evaluator.Evaluator[T]) {
	a.evaluators = append(a.evaluators, ev)
}

// Attach hands the analyzer's triggers to a policy.
func (a *WindowAnalyzer[T]) Attach(p TriggerPolicy) {
	p.Attach(a.sub, a)
}

// SetFilter replaces the capture filter. It applies from the next window open.
func (a *WindowAnalyzer[T]) SetFilter(f filter.Filter) {
	a.filter = f
}

// IgnoreActions captures every action from the tracked sources except ids.
func (a *WindowAnalyzer[T]) IgnoreActions(ids ...event.ActionID) {
	a.filter = filter.New().Source(a.sources).Action(filter.NoneOf(ids...)).Type(a.kind)
}

// TrackOnlyActions captures only ids from the tracked sources.
func (a *WindowAnalyzer[T]) TrackOnlyActions(ids ...event.ActionID) {
	a.filter = filter.New().Source(a.sources).Action(filter.OneOf(ids...)).Type(a.kind)
}

// NotifyWindowShouldOpen opens a window at ts unless one is already open.
func (a *WindowAnalyzer[T]) NotifyWindowShouldOpen(ts int64) {
	if a.completed {
		return
	}
	if !a.subscribed {
		a.hook = a.sub.Subscribe(a.filter.Predicate(), a.capture)
		a.subscribed = true
	}
	if a.history.Current() == nil {
		a.deps.Metrics.IncrementWindowsOpened(a.name)
		a.log.Debug("window opened", "timestamp", ts)
	}
	a.history.GetCurrentOrOpenNew(ts)
}

// NotifyWindowShouldClose closes the open window at ts. It is a no-op when
// no window is open.
func (a *WindowAnalyzer[T]) NotifyWindowShouldClose(ts int64) {
	if a.subscribed {
		a.sub.Unsubscribe(a.hook)
		a.subscribed = false
	}
	if a.history.Current() != nil {
		a.log.Debug("window closed", "timestamp", ts)
	}
	a.history.CloseCurrent(ts)
}

func (a *WindowAnalyzer[T]) capture(e *event.Event) {
	a.history.DoIfOpen(func(data *[]event.Event) {
		*data = append(*data, *e)
		a.deps.Metrics.IncrementEventsCaptured(a.name)
	})
}

// Windows returns the captured windows with their raw events.
func (a *WindowAnalyzer[T]) Windows() []window.Window[[]event.Event] {
	return a.history.Entries()
}

// Result returns the evaluated windows. It is nil before completion and when
// no window was ever opened.
func (a *WindowAnalyzer[T]) Result() *Result {
	return a.result
}

func (a *WindowAnalyzer[T]) complete(pull event.Pull) {
	if a.completed {
		return
	}
	a.NotifyWindowShouldClose(pull.End())
	a.completed = true

	raw := a.history.Entries()
	if len(raw) == 0 {
		a.log.Debug("no windows captured")
		return
	}

	mapped, captured := a.mapWindows(raw)

	suggested := 0
	for _, ev := range a.evaluators {
		s := ev.Suggest(mapped)
		if s == nil {
			continue
		}
		if s.Source == "" {
			s.Source = a.name
		}
		a.deps.Suggestions.Add(*s)
		a.deps.Metrics.IncrementSuggestions(a.name, s.Severity.String())
		suggested++
	}

	a.result = a.pivot(pull, raw, captured, mapped)
	a.log.Info("module complete",
		"windows", len(raw),
		"suggestions", suggested,
		"collisions", len(a.result.Collisions))
}

// mapWindows converts each window's raw events to T, dropping events the
// mapping rejects. captured holds the raw events that survived.
func (a *WindowAnalyzer[T]) mapWindows(raw []window.Window[[]event.Event]) ([]window.Window[[]T], [][]event.Event) {
	mapped := make([]window.Window[[]T], len(raw))
	captured := make([][]event.Event, len(raw))
	dropped := 0

	for i, w := range raw {
		items := make([]T, 0, len(w.Data))
		kept := make([]event.Event, 0, len(w.Data))
		for _, e := range w.Data {
			item, ok := a.mapEvent(e)
			if !ok {
				dropped++
				a.log.Debug("dropping unresolvable event", "timestamp", e.Timestamp, "action", e.Action)
				continue
			}
			items = append(items, item)
			kept = append(kept, e)
		}
		mapped[i] = window.Window[[]T]{Start: w.Start, End: w.End, Open: w.Open, Data: items}
		captured[i] = kept
	}

	a.deps.Metrics.AddEventsDropped(a.name, dropped)
	return mapped, captured
}

func (a *WindowAnalyzer[T]) pivot(pull event.Pull, raw []window.Window[[]event.Event], captured [][]event.Event, mapped []window.Window[[]T]) *Result {
	res := &Result{
		Name:     a.name,
		Title:    a.title,
		Entries:  make([]evaluator.Entry, len(raw)),
		timeline: a.deps.Timeline,
	}

	for i, w := range raw {
		res.Entries[i] = evaluator.Entry{
			Start:       pull.Relative(w.Start),
			End:         pull.Relative(w.EndOrStart()),
			Captured:    captured[i],
			TargetsData: map[string]evaluator.TargetData{},
			Notes:       map[string]string{},
		}
	}

	var columns []evaluator.Output
	for _, ev := range a.evaluators {
		columns = append(columns, ev.Output(mapped)...)
	}

	tables := map[string]bool{}
	notes := map[string]bool{}
	for _, col := range columns {
		switch c := col.(type) {
		case evaluator.Table:
			res.Targets = append(res.Targets, c.Header)
			if c.Header.Resolve != nil || c.Header.Accessor == "" {
				continue
			}
			a.claim(res, tables, c.Header.Accessor)
			for i := range res.Entries {
				if i < len(c.Rows) {
					res.Entries[i].TargetsData[c.Header.Accessor] = c.Rows[i]
				}
			}
		case evaluator.Notes:
			res.Notes = append(res.Notes, c.Header)
			if c.Header.Resolve != nil || c.Header.Accessor == "" {
				continue
			}
			a.claim(res, notes, c.Header.Accessor)
			for i := range res.Entries {
				if i < len(c.Rows) {
					res.Entries[i].Notes[c.Header.Accessor] = c.Rows[i]
				}
			}
		}
	}

	return res
}

// claim records accessor as written. A second writer overwrites the first.
func (a *WindowAnalyzer[T]) claim(res *Result, seen map[string]bool, accessor string) {
	if seen[accessor] {
		a.log.Warn("evaluator column overwritten", "accessor", accessor)
		res.Collisions = append(res.Collisions, accessor)
	}
	seen[accessor] = true
}

// Result is the evaluated output of one window analyzer: one entry per
// window in start order, with the columns evaluators declared.
type Result struct {
	Name       string                  `json:"name"`
	Title      string                  `json:"title"`
	Targets    []evaluator.TableHeader `json:"targets,omitempty"`
	Notes      []evaluator.NotesHeader `json:"notes,omitempty"`
	Entries    []evaluator.Entry       `json:"entries"`
	Collisions []string                `json:"collisions,omitempty"`

	timeline Timeline
}

// GoTo shows entry i on the timeline. It reports false when i is out of range.
func (r *Result) GoTo(i int) bool {
	if i < 0 || i >= len(r.Entries) || r.timeline == nil {
		return false
	}
	r.timeline.Show(r.Entries[i].Start, r.Entries[i].End)
	return true
}
