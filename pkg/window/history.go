// Package window keeps the ordered history of time-bounded capture windows.
package window

// Window is a time interval accumulating a payload while it is open.
type Window[T any] struct {
	// Start is the log timestamp the window opened at.
	Start int64

	// End is the log timestamp the window closed at. Unset while Open.
	End int64

	// Open is true until the window is closed.
	Open bool

	// Data is the captured payload.
	Data T
}

// EndOrStart returns End for a closed window and Start for an open one.
func (w Window[T]) EndOrStart() int64 {
	if w.Open {
		return w.Start
	}
	return w.End
}

// History is an ordered list of windows, at most one of which is open.
// Windows are appended in start order and never removed or merged.
type History[T any] struct {
	seed    func() T
	entries []*Window[T]
}

// NewHistory creates a history whose new windows start with seed().
func NewHistory[T any](seed func() T) *History[T] {
	return &History[T]{seed: seed}
}

// Current returns the open window, or nil when none is open.
func (h *History[T]) Current() *Window[T] {
	if len(h.entries) == 0 {
		return nil
	}
	last := h.entries[len(h.entries)-1]
	if !last.Open {
		return nil
	}
	return last
}

// GetCurrentOrOpenNew returns the open window, opening one at ts if needed.
func (h *History[T]) GetCurrentOrOpenNew(ts int64) *Window[T] {
	if current := h.Current(); current != nil {
		return current
	}
	w := &Window[T]{
		Start: ts,
		Open:  true,
		Data:  h.seed(),
	}
	h.entries = append(h.entries, w)
	return w
}

// CloseCurrent closes the open window at ts. It is a no-op when no window is
// open. An end before the start is clamped to the start.
func (h *History[T]) CloseCurrent(ts int64) {
	current := h.Current()
	if current == nil {
		return
	}
	if ts < current.Start {
		ts = current.Start
	}
	current.End = ts
	current.Open = false
}

// DoIfOpen applies fn to the open window's payload. Without an open window it
// does nothing.
func (h *History[T]) DoIfOpen(fn func(data *T)) {
	if current := h.Current(); current != nil {
		fn(&current.Data)
	}
}

// Entries returns a snapshot of all windows in start order.
func (h *History[T]) Entries() []Window[T] {
	out := make([]Window[T], len(h.entries))
	for i, w := range h.entries {
		out[i] = *w
	}
	return out
}

// Len returns the number of windows ever opened.
func (h *History[T]) Len() int {
	return len(h.entries)
}
