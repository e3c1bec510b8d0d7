package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trophyroom/achievements"
)

// Save writes a full achievement record under the given cache key, replacing
// any previous row. The write is a single statement, so a record is never
// half-written.
func (s *Store) Save(ctx context.Context, key string, data *achievements.GameData) error {
	if data == nil {
		return fmt.Errorf("nil record for key %q", key)
	}

	record := data.Clone()
	record.Normalize()

	payload, err := json.Marshal(record.Achievements)
	if err != nil {
		return fmt.Errorf("failed to encode achievements for %q: %w", key, err)
	}

	gameID := ""
	if record.GameID != uuid.Nil {
		gameID = record.GameID.String()
	}

	query := `
		INSERT INTO game_achievements (cache_key, game_id, provider, source, has_achievements, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			game_id = excluded.game_id,
			provider = excluded.provider,
			source = excluded.source,
			has_achievements = excluded.has_achievements,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	_, err = s.conn.ExecContext(ctx, query,
		key, gameID, record.ProviderName, record.LibrarySource,
		boolToInt(record.HasAchievements), string(payload),
		record.LastUpdatedUtc.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save achievement record %q: %w", key, err)
	}
	return nil
}

// Load reads the record stored under key, or nil when absent. Timestamps come
// back as UTC and a missing game id is recovered from the cache key when the
// key parses as one (legacy rows keyed by provider app id stay id-less).
func (s *Store) Load(ctx context.Context, key string) (*achievements.GameData, error) {
	query := `
		SELECT game_id, provider, source, has_achievements, payload, updated_at
		FROM game_achievements WHERE cache_key = ?
	`
	row := s.conn.QueryRowContext(ctx, query, key)

	var (
		gameID, providerName, source, payload string
		hasAchievements                       int
		updatedAt                             int64
	)
	if err := row.Scan(&gameID, &providerName, &source, &hasAchievements, &payload, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load achievement record %q: %w", key, err)
	}

	data := &achievements.GameData{
		ProviderName:    providerName,
		LibrarySource:   source,
		HasAchievements: hasAchievements != 0,
		LastUpdatedUtc:  time.Unix(updatedAt, 0).UTC(),
	}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &data.Achievements); err != nil {
			return nil, fmt.Errorf("failed to decode achievements for %q: %w", key, err)
		}
	}

	if gameID != "" {
		if id, err := uuid.Parse(gameID); err == nil {
			data.GameID = id
		}
	}
	if data.GameID == uuid.Nil {
		if id, err := uuid.Parse(key); err == nil {
			data.GameID = id
		}
	}

	data.Normalize()
	return data, nil
}

// Remove deletes the row for the given game id, matching either the cache
// key or the stored game id column.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM game_achievements WHERE cache_key = ? OR game_id = ?",
		id.String(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to remove achievement record %s: %w", id, err)
	}
	return nil
}

// Has reports whether a row exists for the given cache key.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx,
		"SELECT 1 FROM game_achievements WHERE cache_key = ?", key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for record %q: %w", key, err)
	}
	return true, nil
}

// Keys returns every cache key, ordered for stable enumeration.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT cache_key FROM game_achievements ORDER BY cache_key")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GameIDs returns the library ids of all cached games, skipping legacy rows
// whose key never resolved to an id.
func (s *Store) GameIDs(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		if id, err := uuid.Parse(k); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// LastUpdated returns the most recent record timestamp, or the zero time
// when the store is empty.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var newest sql.NullInt64
	err := s.conn.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM game_achievements").Scan(&newest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read newest record time: %w", err)
	}
	if !newest.Valid {
		return time.Time{}, nil
	}
	return time.Unix(newest.Int64, 0).UTC(), nil
}

// Count returns the number of cached records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_achievements").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
