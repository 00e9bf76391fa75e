//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestRateLimitLedger(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	record := RateLimitRecord{
		Group:         "get",
		TotalCalls:    12,
		PeakCallRate:  7.5,
		MaxRequests:   8,
		WindowSeconds: 1,
		RateLimited:   2,
		UpdatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.RecordUsage(ctx, record))

	got, err := db.GetRateLimit(ctx, "get")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, uint64(12), got.TotalCalls)
	require.Equal(t, 7.5, got.PeakCallRate)

	// A later invocation accumulates counters and keeps the peak maximum.
	record.TotalCalls = 3
	record.PeakCallRate = 5.0
	record.RateLimited = 0
	require.NoError(t, db.RecordUsage(ctx, record))

	got, err = db.GetRateLimit(ctx, "get")
	require.NoError(t, err)
	require.Equal(t, uint64(15), got.TotalCalls)
	require.Equal(t, 7.5, got.PeakCallRate)
	require.Equal(t, uint64(2), got.RateLimited)
}

func TestListAndResetRateLimits(t *testing.T) {
	ctx := context.Background()
	db := openMemoryStore(t)

	for _, group := range []string{"get", "post", "stream"} {
		require.NoError(t, db.RecordUsage(ctx, RateLimitRecord{
			Group:         group,
			TotalCalls:    1,
			MaxRequests:   8,
			WindowSeconds: 1,
		}))
	}

	records, err := db.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "get", records[0].Group)

	records, err = db.ListRateLimits(ctx, RateLimitQuery{Prefix: "p"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "post", records[0].Group)

	affected, err := db.ResetRateLimits(ctx, RateLimitQuery{Group: "get"})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	records, err = db.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, records, 2)

	missing, err := db.GetRateLimit(ctx, "get")
	require.NoError(t, err)
	require.Nil(t, missing)
}
