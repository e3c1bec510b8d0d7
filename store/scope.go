package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// SetAccount records the identity a provider is currently authenticated as.
// Providers call this after a successful login; a changed identity changes
// the scope token and invalidates in-memory cache state upstream.
func (s *Store) SetAccount(ctx context.Context, provider, identity string) error {
	query := `
		INSERT INTO provider_accounts (provider, identity) VALUES (?, ?)
		ON CONFLICT(provider) DO UPDATE SET identity = excluded.identity
	`
	if _, err := s.conn.ExecContext(ctx, query, provider, identity); err != nil {
		return fmt.Errorf("failed to record account for %q: %w", provider, err)
	}
	return nil
}

// ScopeToken computes an opaque token identifying whose data the store
// currently holds. It is a digest over the recorded provider identities, so
// any account change on any provider yields a new token.
func (s *Store) ScopeToken(ctx context.Context) (string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT provider, identity FROM provider_accounts")
	if err != nil {
		return "", fmt.Errorf("failed to read provider accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pairs []string
	for rows.Next() {
		var provider, identity string
		if err := rows.Scan(&provider, &identity); err != nil {
			return "", err
		}
		pairs = append(pairs, provider+"="+identity)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	sort.Strings(pairs)
	sum := sha1.Sum([]byte(strings.Join(pairs, ";")))
	return hex.EncodeToString(sum[:]), nil
}
