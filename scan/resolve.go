package scan

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"trophyroom/library"
	"trophyroom/logging"
	"trophyroom/provider"
)

// target pairs a game with the provider that will scan it.
type target struct {
	entry    library.Entry
	provider provider.Provider
}

// resolveTargets turns scope options into an ordered, de-duplicated list of
// (game, provider) pairs.
func (o *Orchestrator) resolveTargets(ctx context.Context, opts Options) ([]target, error) {
	var entries []library.Entry
	var err error

	switch opts.Mode {
	case ModeGames:
		entries, err = o.entriesByID(ctx, opts.GameIDs)
	case ModeSelected:
		entries, err = o.lib.Selected(ctx)
	default:
		entries, err = o.lib.All(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate scan candidates: %w", err)
	}

	// Explicit ids bypass the unplayed filter; derived scopes honour it.
	if opts.Mode != ModeGames && !o.settings.IncludeUnplayed {
		entries = library.FilterPlayed(entries)
	}

	switch opts.Mode {
	case ModeInstalled:
		entries = filterEntries(entries, func(e library.Entry) bool { return e.Installed })
	case ModeFavorites:
		entries = filterEntries(entries, func(e library.Entry) bool { return e.Favorite })
	case ModeMissing:
		entries, err = o.filterMissing(ctx, entries)
		if err != nil {
			return nil, err
		}
	}

	targets := o.resolveProviders(ctx, entries)

	if opts.Mode == ModeQuick {
		count := opts.RecentCount
		if count <= 0 {
			count = o.settings.QuickRefreshGameCount
		}
		sortTargetsByActivity(targets)
		if len(targets) > count {
			targets = targets[:count]
		}
	}

	return targets, nil
}

// entriesByID resolves explicit game ids in order, dropping duplicates and
// ids the host no longer knows.
func (o *Orchestrator) entriesByID(ctx context.Context, ids []uuid.UUID) ([]library.Entry, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	entries := make([]library.Entry, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		entry, err := o.lib.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			logging.Debug("skipping unknown game id", "id", id)
			continue
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// filterMissing keeps entries with no cached achievement record.
func (o *Orchestrator) filterMissing(ctx context.Context, entries []library.Entry) ([]library.Entry, error) {
	cached, err := o.cache.CachedGameIDs(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[uuid.UUID]struct{}, len(cached))
	for _, id := range cached {
		have[id] = struct{}{}
	}
	return filterEntries(entries, func(e library.Entry) bool {
		_, ok := have[e.ID]
		return !ok
	}), nil
}

// resolveProviders picks one provider per game: the first enabled,
// authenticated provider in list order whose capability check passes. A
// failing capability check counts as "not capable" for that provider and the
// search moves on; it never aborts resolution. Games are de-duplicated by id.
func (o *Orchestrator) resolveProviders(ctx context.Context, entries []library.Entry) []target {
	active := o.activeProviders()
	seen := make(map[uuid.UUID]struct{}, len(entries))
	targets := make([]target, 0, len(entries))

	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}

		if ctx.Err() != nil {
			return targets
		}

		for _, p := range active {
			capable, err := p.IsCapable(entry)
			if err != nil {
				logging.Debug("capability check failed, treating as not capable",
					"provider", p.Name(), "game", entry.Name, "error", err)
				continue
			}
			if capable {
				targets = append(targets, target{entry: entry, provider: p})
				break
			}
		}
	}

	return targets
}

// activeProviders returns the enabled and authenticated providers in their
// configured order.
func (o *Orchestrator) activeProviders() []provider.Provider {
	active := make([]provider.Provider, 0, len(o.providers))
	for _, p := range o.providers {
		if o.settings.providerEnabled(p.Name()) && p.IsAuthenticated() {
			active = append(active, p)
		}
	}
	return active
}

func filterEntries(entries []library.Entry, keep func(library.Entry) bool) []library.Entry {
	out := make([]library.Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// sortTargetsByActivity orders targets most-recently-active first, keeping
// relative order for ties and activity-less entries last.
func sortTargetsByActivity(targets []target) {
	entries := make([]library.Entry, len(targets))
	byID := make(map[uuid.UUID]target, len(targets))
	for i, t := range targets {
		entries[i] = t.entry
		byID[t.entry.ID] = t
	}
	library.SortByLastActivity(entries)
	for i, e := range entries {
		targets[i] = byID[e.ID]
	}
}
