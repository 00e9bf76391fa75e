package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/store"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("yaml")
	require.Error(t, err)
}

func TestFormatRateLimitsTable(t *testing.T) {
	records := []store.RateLimitRecord{{
		Group:         "get",
		TotalCalls:    42,
		PeakCallRate:  7.25,
		MaxRequests:   8,
		WindowSeconds: 1,
		RateLimited:   3,
		UpdatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}}

	rendered, err := FormatRateLimits(FormatTable, records)
	require.NoError(t, err)
	require.Contains(t, rendered, "get")
	require.Contains(t, rendered, "42")
	require.Contains(t, rendered, "7.25/s")
	require.Contains(t, rendered, "8 per 1s")
}

func TestFormatRateLimitsJSON(t *testing.T) {
	records := []store.RateLimitRecord{{Group: "stream", TotalCalls: 5}}

	rendered, err := FormatRateLimits(FormatJSON, records)
	require.NoError(t, err)
	require.Contains(t, rendered, `"group": "stream"`)
	require.Contains(t, rendered, `"total_calls": 5`)
}
