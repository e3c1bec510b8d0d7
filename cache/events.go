package cache

import (
	"sync"

	"trophyroom/logging"
)

// listenerSet holds cache-change subscribers. Delivery iterates a snapshot
// and shields each listener, so one panicking handler cannot break the rest.
type listenerSet struct {
	mu          sync.Mutex
	nextID      int
	gameUpdated map[int]func(key string)
	invalidated map[int]func()
}

// SubscribeGameUpdated registers fn to run after each successful per-game
// write. The returned function unsubscribes.
func (m *Manager) SubscribeGameUpdated(fn func(key string)) func() {
	l := &m.listeners
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gameUpdated == nil {
		l.gameUpdated = make(map[int]func(key string))
	}
	id := l.nextID
	l.nextID++
	l.gameUpdated[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.gameUpdated, id)
	}
}

// SubscribeInvalidated registers fn to run on full-reset invalidations
// (scope change or cache clear). The returned function unsubscribes.
func (m *Manager) SubscribeInvalidated(fn func()) func() {
	l := &m.listeners
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.invalidated == nil {
		l.invalidated = make(map[int]func())
	}
	id := l.nextID
	l.nextID++
	l.invalidated[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.invalidated, id)
	}
}

func (m *Manager) fireGameUpdated(key string) {
	l := &m.listeners
	l.mu.Lock()
	snapshot := make([]func(string), 0, len(l.gameUpdated))
	for _, fn := range l.gameUpdated {
		snapshot = append(snapshot, fn)
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		safeCallKey(fn, key)
	}
}

func (m *Manager) fireInvalidated() {
	l := &m.listeners
	l.mu.Lock()
	snapshot := make([]func(), 0, len(l.invalidated))
	for _, fn := range l.invalidated {
		snapshot = append(snapshot, fn)
	}
	l.mu.Unlock()

	for _, fn := range snapshot {
		safeCall(fn)
	}
}

func safeCallKey(fn func(string), key string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("cache listener panicked", "panic", r)
		}
	}()
	fn(key)
}

func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("cache listener panicked", "panic", r)
		}
	}()
	fn()
}
