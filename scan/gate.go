package scan

import (
	"sync/atomic"
	"time"
)

// emitGate rations signal emission to at most one per interval, except for
// forced boundary emissions. Lock-free: a compare-and-swap loop over the
// last-emit timestamp, so concurrent callers cannot double-emit within one
// window.
type emitGate struct {
	last     atomic.Int64 // unix nanos of last allowed emission
	interval time.Duration
}

func newEmitGate(interval time.Duration) *emitGate {
	return &emitGate{interval: interval}
}

// allow reports whether an emission may happen now. force bypasses the
// interval check but still updates the timestamp.
func (g *emitGate) allow(force bool) bool {
	now := time.Now().UnixNano()
	for {
		last := g.last.Load()
		if !force && now-last < int64(g.interval) {
			return false
		}
		if g.last.CompareAndSwap(last, now) {
			return true
		}
	}
}
