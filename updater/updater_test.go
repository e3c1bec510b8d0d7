package updater

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trophyroom/scan"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []scan.Options
	err   error
	block bool
}

func (f *fakeRefresher) Refresh(ctx context.Context, opts scan.Options) error {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeValidator struct{ valid bool }

func (f *fakeValidator) IsValid(context.Context, time.Duration) bool { return f.valid }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStartupTickTriggersQuickRefresh(t *testing.T) {
	r := &fakeRefresher{}
	u := New(r, &fakeValidator{valid: false}, true, 1)

	u.Start()
	defer u.Stop()

	waitFor(t, func() bool { return r.callCount() == 1 })

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, scan.ModeQuick, r.calls[0].Mode)
}

func TestDisabledUpdaterDoesNothing(t *testing.T) {
	r := &fakeRefresher{}
	u := New(r, &fakeValidator{valid: false}, false, 1)

	u.Start()
	time.Sleep(30 * time.Millisecond)
	u.Stop()

	assert.Equal(t, 0, r.callCount())
}

func TestFreshCacheSkipsRefresh(t *testing.T) {
	r := &fakeRefresher{}
	u := New(r, &fakeValidator{valid: true}, true, 1)

	u.Start()
	time.Sleep(30 * time.Millisecond)
	u.Stop()

	assert.Equal(t, 0, r.callCount())
}

func TestTickFailureDoesNotKillLoop(t *testing.T) {
	r := &fakeRefresher{err: assert.AnError}
	u := New(r, &fakeValidator{valid: false}, true, 1)

	// Drive ticks directly; the loop must survive failures.
	ctx := context.Background()
	u.tick(ctx)
	u.tick(ctx)

	assert.Equal(t, 2, r.callCount())
}

func TestStopCancelsInFlightRefresh(t *testing.T) {
	r := &fakeRefresher{block: true}
	u := New(r, &fakeValidator{valid: false}, true, 1)

	u.Start()
	waitFor(t, func() bool { return r.callCount() == 1 })

	done := make(chan struct{})
	go func() {
		u.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the in-flight refresh")
	}
}

func TestStartIdempotent(t *testing.T) {
	r := &fakeRefresher{}
	u := New(r, &fakeValidator{valid: false}, true, 1)

	u.Start()
	u.Start()
	defer u.Stop()

	waitFor(t, func() bool { return r.callCount() >= 1 })
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, r.callCount(), "double Start must not double the loop")
}

func TestIntervalClampedToOneHour(t *testing.T) {
	u := New(&fakeRefresher{}, &fakeValidator{}, true, 0)
	assert.Equal(t, time.Hour, u.interval)
}
