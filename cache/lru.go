package cache

import (
	"container/list"

	"trophyroom/achievements"
)

// lru is a bounded least-recently-used map from cache key to record. It is
// not safe for concurrent use; the Manager's mutex guards it.
type lru struct {
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type lruEntry struct {
	key  string
	data *achievements.GameData
}

func newLRU(capacity int) *lru {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &lru{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// get returns the cached record and marks it most recently used.
func (l *lru) get(key string) (*achievements.GameData, bool) {
	el, ok := l.entries[key]
	if !ok {
		return nil, false
	}
	l.order.MoveToFront(el)
	return el.Value.(*lruEntry).data, true
}

// put inserts or replaces a record, evicting the least recently used entry
// when over capacity.
func (l *lru) put(key string, data *achievements.GameData) {
	if el, ok := l.entries[key]; ok {
		el.Value.(*lruEntry).data = data
		l.order.MoveToFront(el)
		return
	}

	l.entries[key] = l.order.PushFront(&lruEntry{key: key, data: data})

	if l.order.Len() > l.capacity {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.entries, oldest.Value.(*lruEntry).key)
		}
	}
}

// remove drops a key if present.
func (l *lru) remove(key string) {
	if el, ok := l.entries[key]; ok {
		l.order.Remove(el)
		delete(l.entries, key)
	}
}

// clear drops every entry.
func (l *lru) clear() {
	l.order.Init()
	l.entries = make(map[string]*list.Element, l.capacity)
}

func (l *lru) len() int {
	return l.order.Len()
}
