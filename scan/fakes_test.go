package scan

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trophyroom/achievements"
	"trophyroom/cache"
	"trophyroom/library"
	"trophyroom/provider"
	"trophyroom/store"
)

type providerIface = provider.Provider

// errProvider scans like its inner fake but fails the batch afterwards.
type errProvider struct {
	*fakeProvider
	err error
}

func (e *errProvider) Scan(ctx context.Context, games []library.Entry, progressFn provider.ProgressFunc, completed provider.CompletedFunc) (*provider.ScanSummary, error) {
	summary, _ := e.fakeProvider.Scan(ctx, games, progressFn, completed)
	return summary, e.err
}

// fakeLibrary serves a fixed entry set.
type fakeLibrary struct {
	entries  []library.Entry
	selected []library.Entry
}

func (f *fakeLibrary) All(context.Context) ([]library.Entry, error) {
	return append([]library.Entry(nil), f.entries...), nil
}

func (f *fakeLibrary) Get(_ context.Context, id uuid.UUID) (*library.Entry, error) {
	for i := range f.entries {
		if f.entries[i].ID == id {
			e := f.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (f *fakeLibrary) Selected(context.Context) ([]library.Entry, error) {
	return append([]library.Entry(nil), f.selected...), nil
}

// fakeProvider is a scriptable provider: capability and per-game data are
// configurable, scans emit progress and completion per game in order.
type fakeProvider struct {
	name          string
	authenticated bool
	capable       func(library.Entry) (bool, error)
	data          func(library.Entry) *achievements.GameData

	// onCompleted runs after each game's completion callback; tests use it
	// to cancel mid-run.
	onCompleted func(i int)

	mu      sync.Mutex
	scanned []string
}

func newFakeProvider(name string) *fakeProvider {
	return &fakeProvider{
		name:          name,
		authenticated: true,
		capable:       func(library.Entry) (bool, error) { return true, nil },
		data: func(e library.Entry) *achievements.GameData {
			return &achievements.GameData{
				GameID:          e.ID,
				HasAchievements: true,
				Achievements:    []achievements.Detail{{ApiName: "ACH_1", DisplayName: "One"}},
			}
		},
	}
}

func (f *fakeProvider) Name() string          { return f.name }
func (f *fakeProvider) IsAuthenticated() bool { return f.authenticated }

func (f *fakeProvider) IsCapable(e library.Entry) (bool, error) { return f.capable(e) }

func (f *fakeProvider) scannedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.scanned...)
}

func (f *fakeProvider) Scan(ctx context.Context, games []library.Entry, progressFn provider.ProgressFunc, completed provider.CompletedFunc) (*provider.ScanSummary, error) {
	summary := &provider.ScanSummary{}
	for i, g := range games {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		f.mu.Lock()
		f.scanned = append(f.scanned, g.Name)
		f.mu.Unlock()

		if progressFn != nil {
			progressFn(provider.Progress{Current: i + 1, Total: len(games), GameName: g.Name})
		}
		if completed != nil {
			completed(g, f.data(g))
		}
		summary.Scanned++

		if f.onCompleted != nil {
			f.onCompleted(i)
		}
	}
	return summary, nil
}

func testManager(t *testing.T) *cache.Manager {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return cache.NewManager(s, 64)
}

func fastSettings() Settings {
	return Settings{
		QuickRefreshGameCount: 10,
		ProgressInterval:      time.Nanosecond,
		NotifyInterval:        time.Nanosecond,
	}
}

func gameEntry(name string, playtime int64, last *time.Time) library.Entry {
	return library.Entry{
		ID:              uuid.New(),
		Name:            name,
		SourceName:      "Steam",
		PlaytimeSeconds: playtime,
		LastActivity:    last,
	}
}

func timePtr(t time.Time) *time.Time { return &t }
