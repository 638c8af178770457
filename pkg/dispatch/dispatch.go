// Package dispatch replays an encounter's events to subscribed handlers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/filter"
	"github.com/ccollicutt/mitilog/pkg/metrics"
	"github.com/ccollicutt/mitilog/pkg/parser"
	"github.com/ccollicutt/mitilog/pkg/telemetry"
)

// ErrReplayed is returned when Replay is called a second time.
var ErrReplayed = errors.New("dispatcher already replayed")

// Handle identifies a subscription. The zero Handle is never issued.
type Handle uint64

// Handler receives a delivered event. The event must not be retained.
type Handler func(e *event.Event)

// Subscriber is the subscription side of a Dispatcher.
type Subscriber interface {
	Subscribe(pred filter.Predicate, fn Handler) Handle
	Unsubscribe(h Handle)
	OnComplete(fn func(pull event.Pull))
}

// Stats counts replay activity.
type Stats struct {
	// Events is the number of non-pull events read from the source.
	Events int

	// Delivered is the number of handler invocations.
	Delivered int
}

type hook struct {
	id      Handle
	pred    filter.Predicate
	fn      Handler
	removed bool
}

// Dispatcher delivers events to subscribers in source order and signals
// completion exactly once.
type Dispatcher struct {
	hooks    []*hook
	next     Handle
	complete []func(event.Pull)

	replayed bool
	stats    Stats

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers fn for events matching pred. A nil pred matches every
// event. Subscriptions made during delivery start with the next event.
func (d *Dispatcher) Subscribe(pred filter.Predicate, fn Handler) Handle {
	d.next++
	d.hooks = append(d.hooks, &hook{id: d.next, pred: pred, fn: fn})
	return d.next
}

// Unsubscribe removes a subscription. Unknown handles are ignored. A hook
// removed during delivery is not called for the event being delivered.
func (d *Dispatcher) Unsubscribe(h Handle) {
	d.hooks = slices.DeleteFunc(d.hooks, func(hk *hook) bool {
		if hk.id == h {
			hk.removed = true
			return true
		}
		return false
	})
}

// OnComplete registers fn to run once the source is exhausted.
func (d *Dispatcher) OnComplete(fn func(pull event.Pull)) {
	d.complete = append(d.complete, fn)
}

// Stats returns replay counters.
func (d *Dispatcher) Stats() Stats {
	return d.stats
}

// Replay reads src to the end, delivering each event to matching hooks, then
// runs completion listeners with the resolved pull. The first pull record
// fixes the pull bounds; without one the pull spans the first to the last
// event. Pull records are not delivered.
func (d *Dispatcher) Replay(ctx context.Context, src parser.EventSource) (event.Pull, error) {
	if d.replayed {
		return event.Pull{}, ErrReplayed
	}
	d.replayed = true

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "dispatch.Replay")
	defer span.End()
	started := time.Now()

	var (
		pull                event.Pull
		havePull, haveEvent bool
		first, last         int64
	)

	for {
		rec, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reading event source")
			if ctxErr := ctx.Err(); ctxErr != nil {
				return event.Pull{}, ctxErr
			}
			return event.Pull{}, fmt.Errorf("reading event source: %w", err)
		}

		e := rec.Event
		if e.Type == event.KindPull {
			if !havePull {
				pull = event.Pull{Timestamp: e.Timestamp, Duration: e.Duration}
				havePull = true
			}
			continue
		}

		if !haveEvent {
			first = e.Timestamp
			haveEvent = true
		}
		last = e.Timestamp
		d.stats.Events++
		d.deliver(&e)
	}

	if !havePull && haveEvent {
		pull = event.Pull{Timestamp: first, Duration: last - first}
	}

	d.logger.Debug("replay finished",
		"events", d.stats.Events,
		"delivered", d.stats.Delivered,
		"pull_start", pull.Timestamp,
		"pull_duration", pull.Duration)

	for _, fn := range d.complete {
		fn(pull)
	}

	span.SetAttributes(
		attribute.Int("mitilog.events", d.stats.Events),
		attribute.Int("mitilog.delivered", d.stats.Delivered),
		attribute.Int64("mitilog.pull.duration_ms", pull.Duration),
	)
	d.metrics.AddEventsReplayed(d.stats.Events)
	d.metrics.ObserveReplayDuration(time.Since(started))

	return pull, nil
}

func (d *Dispatcher) deliver(e *event.Event) {
	if len(d.hooks) == 0 {
		return
	}
	snapshot := slices.Clone(d.hooks)
	for _, hk := range snapshot {
		if hk.removed {
			continue
		}
		if hk.pred != nil && !hk.pred(e) {
			continue
		}
		hk.fn(e)
		d.stats.Delivered++
	}
}
