package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trophyroom/achievements"
	"trophyroom/store"
)

func openTestManager(t *testing.T, capacity int) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s, capacity), s
}

func record(id uuid.UUID, apiNames ...string) *achievements.GameData {
	details := make([]achievements.Detail, len(apiNames))
	for i, n := range apiNames {
		details[i] = achievements.Detail{ApiName: n, DisplayName: n}
	}
	return &achievements.GameData{
		GameID:          id,
		ProviderName:    "steam",
		HasAchievements: len(details) > 0,
		Achievements:    details,
		LastUpdatedUtc:  time.Now().UTC(),
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	res := m.Save(ctx, id.String(), record(id, "A", "B"))
	require.True(t, res.OK, "save should succeed: %+v", res)

	got, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Achievements, 2)
}

func TestLoadMissing(t *testing.T) {
	m, _ := openTestManager(t, 8)

	got, err := m.Load(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadReturnsClone(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)

	first, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	first.Achievements[0].ApiName = "mutated"

	second, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "A", second.Achievements[0].ApiName, "cached state must not observe caller mutation")
}

func TestLRUBound(t *testing.T) {
	const capacity = 4
	m, _ := openTestManager(t, capacity)
	ctx := context.Background()

	for i := 0; i < capacity*3; i++ {
		id := uuid.New()
		require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	}

	assert.Equal(t, capacity, m.MemoryLen(), "memory cache never exceeds capacity")
}

// deleteRow removes a row from the durable store behind the manager's back,
// so a later Load succeeds only if the record is memory-resident.
func deleteRow(t *testing.T, s *store.Store, key string) {
	t.Helper()
	_, err := s.Conn().Exec("DELETE FROM game_achievements WHERE cache_key = ?", key)
	require.NoError(t, err)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	const capacity = 4
	m, s := openTestManager(t, capacity)
	ctx := context.Background()

	keyA := uuid.New()
	require.True(t, m.Save(ctx, keyA.String(), record(keyA, "A")).OK)

	// Fill the cache; A is now the least recently used entry.
	for i := 0; i < capacity-1; i++ {
		id := uuid.New()
		require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	}

	// Touch A so it becomes most recently used, then insert one more key.
	// The eviction must pick a fill key, not A.
	_, err := m.Load(ctx, keyA.String())
	require.NoError(t, err)

	evictor := uuid.New()
	require.True(t, m.Save(ctx, evictor.String(), record(evictor, "A")).OK)
	assert.Equal(t, capacity, m.MemoryLen())

	deleteRow(t, s, keyA.String())
	got, err := m.Load(ctx, keyA.String())
	require.NoError(t, err)
	assert.NotNil(t, got, "recently touched key must still be memory-resident")
}

func TestLRUEvictsUntouchedKey(t *testing.T) {
	const capacity = 4
	m, s := openTestManager(t, capacity)
	ctx := context.Background()

	keyA := uuid.New()
	require.True(t, m.Save(ctx, keyA.String(), record(keyA, "A")).OK)

	// Insert capacity more keys without ever touching A again; A is the
	// least recently used entry throughout and must be evicted.
	for i := 0; i < capacity; i++ {
		id := uuid.New()
		require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	}
	assert.Equal(t, capacity, m.MemoryLen())

	deleteRow(t, s, keyA.String())
	got, err := m.Load(ctx, keyA.String())
	require.NoError(t, err)
	assert.Nil(t, got, "untouched key was evicted and its row is gone")
}

func TestScopeChangeInvalidatesMemoryOnly(t *testing.T) {
	m, s := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	require.NoError(t, s.SetAccount(ctx, "steam", "user-1"))
	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)

	// Prime the memory cache under the first identity.
	_, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, 1, m.MemoryLen())

	invalidations := 0
	unsubscribe := m.SubscribeInvalidated(func() { invalidations++ })
	defer unsubscribe()

	require.NoError(t, s.SetAccount(ctx, "steam", "user-2"))

	got, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	require.NotNil(t, got, "durable data survives a scope change")
	assert.Equal(t, 1, invalidations, "exactly one full-reset event per transition")

	// A second read under the same identity fires nothing further.
	_, err = m.Load(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, 1, invalidations)
}

func TestRemove(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	require.NoError(t, m.Remove(ctx, id))

	got, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedGameIDs(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.True(t, m.Save(ctx, a.String(), record(a, "A")).OK)
	require.True(t, m.Save(ctx, b.String(), record(b, "A")).OK)

	ids, err := m.CachedGameIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)
}

func TestIsValid(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()

	assert.False(t, m.IsValid(ctx, time.Hour), "empty cache is stale")

	id := uuid.New()
	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	assert.True(t, m.IsValid(ctx, time.Hour))

	stale := record(id, "A")
	stale.LastUpdatedUtc = time.Now().UTC().Add(-48 * time.Hour)
	require.True(t, m.Save(ctx, id.String(), stale).OK)
	assert.False(t, m.IsValid(ctx, time.Hour), "old records do not count as fresh")
}

func TestClear(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)

	invalidations := 0
	defer m.SubscribeInvalidated(func() { invalidations++ })()

	require.NoError(t, m.Clear(ctx))

	got, err := m.Load(ctx, id.String())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, m.MemoryLen())
	assert.Equal(t, 1, invalidations)
}

func TestGameUpdatedEvent(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	var keys []string
	defer m.SubscribeGameUpdated(func(k string) { keys = append(keys, k) })()

	require.True(t, m.Save(ctx, id.String(), record(id, "A")).OK)
	assert.Equal(t, []string{id.String()}, keys)
}

func TestListenerPanicDoesNotBreakDelivery(t *testing.T) {
	m, _ := openTestManager(t, 8)
	ctx := context.Background()
	id := uuid.New()

	defer m.SubscribeGameUpdated(func(string) { panic("boom") })()
	delivered := false
	defer m.SubscribeGameUpdated(func(string) { delivered = true })()

	res := m.Save(ctx, id.String(), record(id, "A"))
	assert.True(t, res.OK)
	assert.True(t, delivered, "second listener still runs after the first panics")
}

func TestSaveNilRecord(t *testing.T) {
	m, _ := openTestManager(t, 8)

	res := m.Save(context.Background(), uuid.NewString(), nil)
	assert.False(t, res.OK)
	assert.Equal(t, CodeInvalidRecord, res.Code)
}

func TestDegradedManager(t *testing.T) {
	// sqlite will not create intermediate directories, so this path is
	// unopenable and the manager must come up degraded.
	dir := t.TempDir()
	m := Open(context.Background(), filepath.Join(dir, "missing", "deep", "test.db"), 8)
	require.True(t, m.Degraded())

	got, err := m.Load(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got, "degraded reads return nothing")

	res := m.Save(context.Background(), uuid.NewString(), record(uuid.New(), "A"))
	assert.False(t, res.OK)
	assert.Equal(t, CodeStoreUnavailable, res.Code)

	assert.False(t, m.IsValid(context.Background(), time.Hour))
	assert.Error(t, m.Clear(context.Background()))
}
