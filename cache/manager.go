// Package cache provides the in-process facade over the durable achievement
// store: a bounded LRU in front of SQLite, scope-token invalidation, and
// change events for UI consumers.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trophyroom/achievements"
	"trophyroom/logging"
	"trophyroom/metrics"
	"trophyroom/store"
)

// DefaultCapacity bounds the in-process LRU when no capacity is configured.
const DefaultCapacity = 256

// Manager coordinates reads and writes against the achievement cache. All
// cache-state mutation happens under one mutex; durable-store calls are small
// per-game payloads and run while holding it.
type Manager struct {
	mu    sync.Mutex
	store *store.Store
	mem   *lru

	scopeToken string
	failed     bool
	warnOnce   sync.Once

	listeners listenerSet
}

// NewManager wraps an open store with an LRU of the given capacity.
func NewManager(s *store.Store, capacity int) *Manager {
	return &Manager{
		store: s,
		mem:   newLRU(capacity),
	}
}

// Open opens the durable store at path and wraps it. When the store cannot
// be initialized the manager comes up degraded: reads return nothing and
// writes fail fast with a structured result, rather than silently dropping
// data.
func Open(ctx context.Context, path string, capacity int) *Manager {
	s, err := store.Open(ctx, path)
	if err != nil {
		logging.Error("achievement cache unavailable, running degraded", "path", path, "error", err)
		m := NewManager(nil, capacity)
		m.failed = true
		return m
	}
	return NewManager(s, capacity)
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

// Store returns the underlying durable store, or nil when degraded.
func (m *Manager) Store() *store.Store {
	return m.store
}

// Degraded reports whether the durable store failed to initialize.
func (m *Manager) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

func (m *Manager) warnDegraded() {
	m.warnOnce.Do(func() {
		logging.Warn("achievement cache is degraded; data will not be read or written until the store is repaired or cleared")
	})
}

// checkScopeLocked recomputes the store scope token and purges the LRU when
// it changed. Durable rows are untouched. Returns true when a full-reset
// event must be fired once the lock is released.
func (m *Manager) checkScopeLocked(ctx context.Context) bool {
	token, err := m.store.ScopeToken(ctx)
	if err != nil {
		logging.Debug("failed to compute scope token", "error", err)
		return false
	}
	if token == m.scopeToken {
		return false
	}
	first := m.scopeToken == ""
	m.scopeToken = token
	if first {
		// Initial token observation, nothing cached yet to invalidate.
		return false
	}
	m.mem.clear()
	logging.Info("cache scope changed, memory cache invalidated")
	return true
}

// Load returns the cached record for a key, or nil when absent. Memory hits
// are served from the LRU; misses read through to the store and populate it.
// Records crossing the cache boundary are cloned.
func (m *Manager) Load(ctx context.Context, key string) (*achievements.GameData, error) {
	m.mu.Lock()
	if m.failed {
		m.mu.Unlock()
		m.warnDegraded()
		return nil, nil
	}

	invalidated := m.checkScopeLocked(ctx)

	if data, ok := m.mem.get(key); ok {
		clone := data.Clone()
		m.mu.Unlock()
		if invalidated {
			m.fireInvalidated()
		}
		return clone, nil
	}

	data, err := m.store.Load(ctx, key)
	if err != nil {
		m.mu.Unlock()
		if invalidated {
			m.fireInvalidated()
		}
		return nil, err
	}
	if data != nil {
		before := m.mem.len()
		m.mem.put(key, data)
		if m.mem.len() == before && before == m.mem.capacity {
			metrics.MemoryCacheEvictions.Inc()
		}
	}
	clone := data.Clone()
	m.mu.Unlock()

	if invalidated {
		m.fireInvalidated()
	}
	return clone, nil
}

// Save writes a record through to the durable store and only then updates
// the LRU and notifies listeners, so memory never diverges from disk.
func (m *Manager) Save(ctx context.Context, key string, data *achievements.GameData) WriteResult {
	if data == nil {
		return writeFailure(CodeInvalidRecord, "nil achievement record", nil)
	}

	m.mu.Lock()
	if m.failed {
		m.mu.Unlock()
		m.warnDegraded()
		metrics.CacheWriteFailures.Inc()
		return writeFailure(CodeStoreUnavailable, "achievement store is unavailable", nil)
	}

	record := data.Clone()
	record.Normalize()

	if err := m.store.Save(ctx, key, record); err != nil {
		m.mu.Unlock()
		metrics.CacheWriteFailures.Inc()
		return writeFailure(CodeWriteFailed, fmt.Sprintf("failed to persist record %q", key), err)
	}

	m.mem.put(key, record)
	m.mu.Unlock()

	m.fireGameUpdated(key)
	return writeOK()
}

// Remove deletes a game's record from both the store and the LRU.
func (m *Manager) Remove(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	if m.failed {
		m.mu.Unlock()
		m.warnDegraded()
		return fmt.Errorf("achievement store is unavailable")
	}

	if err := m.store.Remove(ctx, id); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mem.remove(id.String())
	m.mu.Unlock()

	m.fireGameUpdated(id.String())
	return nil
}

// CachedGameIDs enumerates the library ids present in the durable store.
func (m *Manager) CachedGameIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	if m.failed {
		m.mu.Unlock()
		m.warnDegraded()
		return nil, nil
	}
	invalidated := m.checkScopeLocked(ctx)
	ids, err := m.store.GameIDs(ctx)
	m.mu.Unlock()

	if invalidated {
		m.fireInvalidated()
	}
	return ids, err
}

// IsValid reports whether the cache holds data fresh enough to serve, i.e.
// at least one record newer than maxAge.
func (m *Manager) IsValid(ctx context.Context, maxAge time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return false
	}

	newest, err := m.store.LastUpdated(ctx)
	if err != nil || newest.IsZero() {
		return false
	}
	return time.Since(newest) <= maxAge
}

// Clear wipes the durable store, resets all in-memory state and the scope
// token, and fires one full-reset invalidation. Destructive and synchronous.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	if m.failed {
		m.mu.Unlock()
		return fmt.Errorf("achievement store is unavailable")
	}

	if err := m.store.Clear(ctx); err != nil {
		m.mu.Unlock()
		return err
	}
	m.mem.clear()
	m.scopeToken = ""
	m.mu.Unlock()

	metrics.CachedGames.Set(0)
	m.fireInvalidated()
	return nil
}

// MemoryLen returns the number of records resident in the LRU.
func (m *Manager) MemoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem.len()
}
