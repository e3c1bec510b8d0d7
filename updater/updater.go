// Package updater triggers periodic quick refreshes when the achievement
// cache has gone stale.
package updater

import (
	"context"
	"errors"
	"sync"
	"time"

	"trophyroom/logging"
	"trophyroom/scan"
)

// Refresher is the slice of the orchestrator the updater drives.
type Refresher interface {
	Refresh(ctx context.Context, opts scan.Options) error
}

// Validator answers whether the cache is fresh enough to skip a tick.
type Validator interface {
	IsValid(ctx context.Context, maxAge time.Duration) bool
}

// Updater runs one repeating loop: an immediate tick at startup, then one
// per interval. A tick triggers a quick refresh only when periodic updates
// are enabled and the cache is judged stale; tick failures are logged and
// the loop keeps going until Stop.
type Updater struct {
	refresher Refresher
	validator Validator

	enabled  bool
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an updater ticking every intervalHours (minimum one hour).
func New(r Refresher, v Validator, enabled bool, intervalHours int) *Updater {
	if intervalHours < 1 {
		intervalHours = 1
	}
	return &Updater{
		refresher: r,
		validator: v,
		enabled:   enabled,
		interval:  time.Duration(intervalHours) * time.Hour,
	}
}

// Start launches the loop. Calling Start on a running updater is a no-op.
func (u *Updater) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.done = make(chan struct{})

	go u.loop(ctx, u.done)
}

// Stop cancels the loop and any in-flight refresh, then waits for the loop
// goroutine to exit.
func (u *Updater) Stop() {
	u.mu.Lock()
	cancel := u.cancel
	done := u.done
	u.cancel = nil
	u.done = nil
	u.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (u *Updater) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.tick(ctx)
		}
	}
}

// tick runs one guard-checked refresh attempt. Any failure is contained to
// this tick.
func (u *Updater) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !u.enabled {
		return
	}
	if u.validator.IsValid(ctx, u.interval) {
		logging.Debug("achievement cache still fresh, skipping periodic refresh")
		return
	}

	err := u.refresher.Refresh(ctx, scan.Options{Mode: scan.ModeQuick})
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, scan.ErrAlreadyRunning):
		logging.Debug("periodic refresh skipped, a run is already active")
	default:
		logging.Error("periodic refresh failed", "error", err)
	}
}
