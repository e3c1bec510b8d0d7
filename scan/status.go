package scan

import (
	"sync"

	"trophyroom/logging"
	"trophyroom/progress"
)

// RunState is the terminal or live state of a refresh run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateCanceled  RunState = "canceled"
	StateError     RunState = "error"
)

// Status is the orchestrator's last known condition, kept per instance for
// late-subscribing UI rather than in any global.
type Status struct {
	State      RunState
	Mode       Mode
	Message    string
	GamesSaved int
}

// statusHub owns the latest status/progress values and their subscribers.
// Listener invocation iterates a snapshot with each call shielded, so one
// misbehaving subscriber cannot starve the rest.
type statusHub struct {
	mu               sync.Mutex
	status           Status
	mapper           progress.Mapper
	nextID           int
	statusListeners  map[int]func(Status)
	reportListeners  map[int]func(progress.Report)
	changedListeners map[int]func()
}

func newStatusHub() *statusHub {
	return &statusHub{
		status:           Status{State: StateIdle},
		statusListeners:  make(map[int]func(Status)),
		reportListeners:  make(map[int]func(progress.Report)),
		changedListeners: make(map[int]func()),
	}
}

func (h *statusHub) latestStatus() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *statusHub) latestReport() (progress.Report, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mapper.Last()
}

// setStatus records and broadcasts a new status.
func (h *statusHub) setStatus(s Status) {
	h.mu.Lock()
	h.status = s
	listeners := snapshot(h.statusListeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		invoke(func() { fn(s) })
	}
}

// reemit broadcasts the current status unchanged. Used when a duplicate run
// request is dropped so the caller still hears something.
func (h *statusHub) reemit() {
	h.setStatus(h.latestStatus())
}

// report maps and broadcasts a progress update; duplicates are suppressed by
// the mapper.
func (h *statusHub) report(u progress.Update) {
	h.mu.Lock()
	r, emit := h.mapper.Map(u)
	listeners := snapshot(h.reportListeners)
	h.mu.Unlock()

	if !emit {
		return
	}
	for _, fn := range listeners {
		invoke(func() { fn(r) })
	}
}

// notifyChanged broadcasts a cache-changed signal.
func (h *statusHub) notifyChanged() {
	h.mu.Lock()
	listeners := snapshot(h.changedListeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		invoke(fn)
	}
}

func (h *statusHub) subscribeStatus(fn func(Status)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.statusListeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.statusListeners, id)
	}
}

func (h *statusHub) subscribeReport(fn func(progress.Report)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.reportListeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.reportListeners, id)
	}
}

func (h *statusHub) subscribeChanged(fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.changedListeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.changedListeners, id)
	}
}

func snapshot[T any](m map[int]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("refresh listener panicked", "panic", r)
		}
	}()
	fn()
}
