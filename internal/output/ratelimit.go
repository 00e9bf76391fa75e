package output

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/edgarlens/edgarlens/internal/store"
)

// FormatRateLimits renders persisted limiter records in the requested format.
func FormatRateLimits(format Format, records []store.RateLimitRecord) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Group", "Total Calls", "Peak Rate", "Limit", "429s", "Updated"})

	for _, record := range records {
		t.AppendRow(table.Row{
			record.Group,
			record.TotalCalls,
			fmt.Sprintf("%.2f/s", record.PeakCallRate),
			fmt.Sprintf("%d per %.0fs", record.MaxRequests, record.WindowSeconds),
			record.RateLimited,
			record.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return t.Render(), nil
}
