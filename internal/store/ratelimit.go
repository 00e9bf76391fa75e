package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RateLimitRecord is the persisted usage ledger for one limiter group
// (get, post, stream). Counters accumulate across invocations; the peak rate
// keeps the highest value ever observed.
type RateLimitRecord struct {
	Group         string    `json:"group"`
	TotalCalls    uint64    `json:"total_calls"`
	PeakCallRate  float64   `json:"peak_call_rate"`
	MaxRequests   int       `json:"max_requests"`
	WindowSeconds float64   `json:"window_seconds"`
	RateLimited   uint64    `json:"rate_limited"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RateLimitQuery selects rate limit rows for list/reset operations.
type RateLimitQuery struct {
	All    bool
	Group  string
	Prefix string
}

func (q RateLimitQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Group) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --group, or --prefix")
}

func (q RateLimitQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if group := strings.TrimSpace(q.Group); group != "" {
		return "WHERE limiter_group = ?", []any{group}, nil
	}
	return "WHERE limiter_group LIKE ?", []any{strings.TrimSpace(q.Prefix) + "%"}, nil
}

// GetRateLimit returns the stored record for a limiter group, or nil when
// none exists yet.
func (s *Store) GetRateLimit(ctx context.Context, group string) (*RateLimitRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	group = strings.TrimSpace(group)
	if group == "" {
		return nil, errors.New("limiter group is required")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT limiter_group, total_calls, peak_call_rate, max_requests, window_seconds, rate_limited, updated_at
		FROM rate_limits
		WHERE limiter_group = ?
	`, group)

	record, err := scanRateLimit(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch rate limit: %w", err)
	}
	return record, nil
}

// RecordUsage folds one invocation's limiter metrics into the persisted
// ledger: counters add, the peak rate keeps its maximum.
func (s *Store) RecordUsage(ctx context.Context, record RateLimitRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	group := strings.TrimSpace(record.Group)
	if group == "" {
		return errors.New("limiter group is required")
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO rate_limits (limiter_group, total_calls, peak_call_rate, max_requests, window_seconds, rate_limited, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(limiter_group) DO UPDATE SET
			total_calls = total_calls + excluded.total_calls,
			peak_call_rate = MAX(peak_call_rate, excluded.peak_call_rate),
			max_requests = excluded.max_requests,
			window_seconds = excluded.window_seconds,
			rate_limited = rate_limited + excluded.rate_limited,
			updated_at = excluded.updated_at
	`, group, record.TotalCalls, record.PeakCallRate, record.MaxRequests,
		record.WindowSeconds, record.RateLimited, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("record rate limit usage: %w", err)
	}
	return nil
}

// ListRateLimits returns stored records matching the query.
func (s *Store) ListRateLimits(ctx context.Context, q RateLimitQuery) ([]RateLimitRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT limiter_group, total_calls, peak_call_rate, max_requests, window_seconds, rate_limited, updated_at
		FROM rate_limits
		%s
		ORDER BY limiter_group
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	records := []RateLimitRecord{}
	for rows.Next() {
		record, err := scanRateLimit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan rate limits: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	return records, nil
}

// ResetRateLimits deletes matching records and returns the affected count.
func (s *Store) ResetRateLimits(ctx context.Context, q RateLimitQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM rate_limits
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset rate limits: %w", err)
	}
	return affected, nil
}

func scanRateLimit(scan func(dest ...any) error) (*RateLimitRecord, error) {
	var (
		record    RateLimitRecord
		updatedAt int64
	)
	if err := scan(&record.Group, &record.TotalCalls, &record.PeakCallRate,
		&record.MaxRequests, &record.WindowSeconds, &record.RateLimited, &updatedAt); err != nil {
		return nil, err
	}
	record.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &record, nil
}
