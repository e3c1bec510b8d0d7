// Package library defines the contract to the host application's game
// database. The host owns the entries; trophyroom only reads them.
package library

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Entry is one game record owned by the host, reduced to the attributes the
// refresh scheduler filters on.
type Entry struct {
	ID         uuid.UUID
	Name       string
	SourceName string
	Platform   string

	Installed       bool
	Favorite        bool
	Hidden          bool
	PlaytimeSeconds int64
	LastActivity    *time.Time
}

// Played reports whether the entry has any recorded play time.
func (e *Entry) Played() bool {
	return e.PlaytimeSeconds > 0
}

// Source enumerates and resolves host library entries.
type Source interface {
	// All returns every entry in the host library.
	All(ctx context.Context) ([]Entry, error)
	// Get returns the entry with the given id, or nil if unknown.
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	// Selected returns the entries currently selected in the host UI.
	Selected(ctx context.Context) ([]Entry, error)
}

// FilterPlayed returns the entries with play time, preserving order.
func FilterPlayed(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Played() {
			out = append(out, e)
		}
	}
	return out
}

// SortByLastActivity orders entries most-recently-active first. Entries with
// no recorded activity sort last; ties keep their relative order.
func SortByLastActivity(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].LastActivity, entries[j].LastActivity
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
