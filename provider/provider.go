// Package provider defines the contract every achievement platform
// integration satisfies. Concrete clients own their own HTTP and auth; the
// orchestrator only sees this interface.
package provider

import (
	"context"

	"trophyroom/achievements"
	"trophyroom/library"
)

// Progress is one progress event from a scanning provider. Current is
// 1-based within the subset of games the provider was handed.
type Progress struct {
	Current  int
	Total    int
	GameName string

	// AuthRequired signals the provider needs interactive re-auth. It is
	// not a scan failure and must not abort the run.
	AuthRequired bool
}

// ProgressFunc receives incremental progress during a scan.
type ProgressFunc func(Progress)

// CompletedFunc receives one game's data as soon as it is ready, not batched
// at scan end. A nil record means the provider found no data for the game.
type CompletedFunc func(game library.Entry, data *achievements.GameData)

// ScanSummary aggregates the outcome of one provider scan.
type ScanSummary struct {
	Scanned int // games for which data was produced
	NoData  int // games the provider recognised but had nothing for
	Failed  int // games that errored and were skipped
}

// Add folds another summary into this one.
func (s *ScanSummary) Add(other ScanSummary) {
	s.Scanned += other.Scanned
	s.NoData += other.NoData
	s.Failed += other.Failed
}

// Provider is one external achievement platform integration.
type Provider interface {
	// Name returns the provider name (e.g. "steam").
	Name() string

	// IsAuthenticated reports whether the provider can make authorised
	// calls right now. No side effects.
	IsAuthenticated() bool

	// IsCapable reports whether the provider can fetch achievement data
	// for this specific game. It is cheap but may fail; callers treat an
	// error as "not capable" for this provider and keep going.
	IsCapable(game library.Entry) (bool, error)

	// Scan fetches achievement data for the given games, invoking
	// completed once per game as each result is ready and progress as the
	// scan advances. A non-nil error aborts the whole run.
	Scan(ctx context.Context, games []library.Entry, progress ProgressFunc, completed CompletedFunc) (*ScanSummary, error)
}
