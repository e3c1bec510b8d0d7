package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// manifestEntry is the on-disk shape of one game in a library manifest.
type manifestEntry struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	SourceName      string     `json:"sourceName"`
	Platform        string     `json:"platform,omitempty"`
	Installed       bool       `json:"installed,omitempty"`
	Favorite        bool       `json:"favorite,omitempty"`
	Hidden          bool       `json:"hidden,omitempty"`
	PlaytimeSeconds int64      `json:"playtimeSeconds,omitempty"`
	LastActivity    *time.Time `json:"lastActivity,omitempty"`
}

// FileSource is a Source backed by a JSON manifest exported from the host
// library. The manifest is read once at load time; Selected is always empty
// since no UI selection exists outside the host.
type FileSource struct {
	entries []Entry
	byID    map[uuid.UUID]Entry
}

// LoadManifest reads a library manifest from path. Entries with a malformed
// id are rejected rather than skipped: a manifest is authored once and a bad
// id means the export is broken.
func LoadManifest(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var raw []manifestEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest %s: %w", path, err)
	}

	src := &FileSource{byID: make(map[uuid.UUID]Entry, len(raw))}
	for i, m := range raw {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, fmt.Errorf("library manifest entry %d (%q): bad id: %w", i, m.Name, err)
		}
		e := Entry{
			ID:              id,
			Name:            m.Name,
			SourceName:      m.SourceName,
			Platform:        m.Platform,
			Installed:       m.Installed,
			Favorite:        m.Favorite,
			Hidden:          m.Hidden,
			PlaytimeSeconds: m.PlaytimeSeconds,
			LastActivity:    m.LastActivity,
		}
		src.entries = append(src.entries, e)
		src.byID[id] = e
	}
	return src, nil
}

// All returns every manifest entry.
func (s *FileSource) All(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Get returns the entry with the given id, or nil if the manifest lacks it.
func (s *FileSource) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Selected returns no entries: manifests carry no UI selection.
func (s *FileSource) Selected(ctx context.Context) ([]Entry, error) {
	return nil, nil
}

// Len returns the number of entries in the manifest.
func (s *FileSource) Len() int {
	return len(s.entries)
}
