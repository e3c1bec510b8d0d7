package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"trophyroom/achievements"
	"trophyroom/logging"
)

// ImportLegacyDir migrates file-per-game JSON artifacts from an older cache
// layout into the row store. Each *.json file holds one record and is named
// by its cache key. Rows already present win; a file that fails to parse is
// logged and skipped. Returns the number of records imported.
func (s *Store) ImportLegacyDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read legacy cache dir: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		exists, err := s.Has(ctx, key)
		if err != nil {
			return imported, err
		}
		if exists {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			logging.Warn("skipping unreadable legacy cache file", "path", path, "error", err)
			continue
		}

		var data achievements.GameData
		if err := json.Unmarshal(raw, &data); err != nil {
			logging.Warn("skipping malformed legacy cache file", "path", path, "error", err)
			continue
		}

		// Legacy records were keyed by provider app id and may predate
		// the game id field; recover it from the file name when possible.
		if data.GameID == uuid.Nil {
			if id, err := uuid.Parse(key); err == nil {
				data.GameID = id
			}
		}

		if err := s.Save(ctx, key, &data); err != nil {
			return imported, fmt.Errorf("failed to import %q: %w", path, err)
		}
		imported++
	}

	return imported, nil
}
