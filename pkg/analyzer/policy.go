package analyzer

import (
	"github.com/ccollicutt/mitilog/pkg/dispatch"
	"github.com/ccollicutt/mitilog/pkg/event"
	"github.com/ccollicutt/mitilog/pkg/filter"
)

// Triggers opens and closes windows. Both calls are safe to repeat.
type Triggers interface {
	NotifyWindowShouldOpen(ts int64)
	NotifyWindowShouldClose(ts int64)
}

// TriggerPolicy decides when a window analyzer's windows open and close.
type TriggerPolicy interface {
	Attach(sub dispatch.Subscriber, t Triggers)
}

// PolicyFunc adapts a function to TriggerPolicy.
type PolicyFunc func(sub dispatch.Subscriber, t Triggers)

// Attach calls f.
func (f PolicyFunc) Attach(sub dispatch.Subscriber, t Triggers) {
	f(sub, t)
}

// BuffPolicy keeps a window open while a status is applied. A nil Target
// matches the status on any actor.
type BuffPolicy struct {
	Status event.StatusID
	Target filter.Match[event.ActorID]
}

// Attach subscribes to the status applying and falling off.
func (p BuffPolicy) Attach(sub dispatch.Subscriber, t Triggers) {
	target := p.Target
	if target == nil {
		target = filter.Any[event.ActorID]()
	}

	base := filter.New().Status(filter.Is(p.Status)).Target(target)

	sub.Subscribe(base.Type(event.KindStatusApply).Predicate(), func(e *event.Event) {
		t.NotifyWindowShouldOpen(e.Timestamp)
	})
	sub.Subscribe(base.Type(event.KindStatusRemove).Predicate(), func(e *event.Event) {
		t.NotifyWindowShouldClose(e.Timestamp)
	})
}
