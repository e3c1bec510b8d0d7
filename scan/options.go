// Package scan orchestrates achievement refresh runs: it resolves which
// games need scanning, fans work out across providers, and persists each
// result through the cache as it arrives.
package scan

import "github.com/google/uuid"

// Mode selects the scan scope of a refresh run.
type Mode string

const (
	// ModeFull scans every eligible game in the library.
	ModeFull Mode = "full"
	// ModeQuick scans the most recently active games, capped at the
	// configured count.
	ModeQuick Mode = "quick"
	// ModeMissing scans only games without a cached record.
	ModeMissing Mode = "missing"
	// ModeInstalled scans installed games.
	ModeInstalled Mode = "installed"
	// ModeFavorites scans favorited games.
	ModeFavorites Mode = "favorites"
	// ModeSelected scans the games currently selected in the host UI.
	ModeSelected Mode = "selected"
	// ModeGames scans an explicit list of game ids.
	ModeGames Mode = "games"
)

// Options describes what one refresh run covers. Either GameIDs is set and
// names the games explicitly, or the list is derived from the library and
// the mode's filters. Explicit ids bypass the unplayed filter but still go
// through provider-capability resolution.
type Options struct {
	Mode    Mode
	GameIDs []uuid.UUID

	// RecentCount caps a quick run. Zero falls back to the configured
	// default.
	RecentCount int
}

// normalized returns the options with an explicit mode. A non-empty id list
// forces ModeGames.
func (o Options) normalized() Options {
	if len(o.GameIDs) > 0 {
		o.Mode = ModeGames
	}
	if o.Mode == "" {
		o.Mode = ModeFull
	}
	return o
}
