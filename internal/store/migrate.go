package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rate_limits (
		limiter_group TEXT PRIMARY KEY,
		total_calls INTEGER NOT NULL DEFAULT 0,
		peak_call_rate REAL NOT NULL DEFAULT 0,
		max_requests INTEGER NOT NULL,
		window_seconds REAL NOT NULL,
		rate_limited INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}
	return nil
}
