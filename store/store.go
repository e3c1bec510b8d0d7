// Package store persists achievement records to a local SQLite database.
// It is the durable layer behind the in-process cache manager.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding cached achievement data.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the achievement database at the given path.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs database migrations up to the current schema version.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	err := s.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return err
		}
	}
	if version < 2 {
		if err := s.migrateV2(ctx); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the achievement cache table.
func (s *Store) migrateV1(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS game_achievements (
			cache_key TEXT PRIMARY KEY,
			game_id TEXT,
			provider TEXT,
			source TEXT,
			has_achievements INTEGER NOT NULL DEFAULT 0,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_game_achievements_game_id ON game_achievements(game_id);
		CREATE INDEX IF NOT EXISTS idx_game_achievements_provider ON game_achievements(provider);

		INSERT INTO schema_version (version) VALUES (1);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute v1 migration: %w", err)
	}

	return nil
}

// migrateV2 adds the provider account table backing scope-token computation.
func (s *Store) migrateV2(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS provider_accounts (
			provider TEXT PRIMARY KEY,
			identity TEXT NOT NULL
		);

		INSERT INTO schema_version (version) VALUES (2);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute v2 migration: %w", err)
	}

	return nil
}

// Clear wipes all cached achievement rows and provider accounts.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM game_achievements"); err != nil {
		return fmt.Errorf("failed to clear achievement rows: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM provider_accounts"); err != nil {
		return fmt.Errorf("failed to clear provider accounts: %w", err)
	}
	return nil
}
