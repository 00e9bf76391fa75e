package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/store"
)

var (
	rateLimitResetAll    bool
	rateLimitResetGroup  string
	rateLimitResetPrefix string
)

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset persisted rate limit usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := store.RateLimitQuery{
			All:    rateLimitResetAll,
			Group:  strings.TrimSpace(rateLimitResetGroup),
			Prefix: strings.TrimSpace(rateLimitResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		affected, err := db.ResetRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}

		fmt.Printf("reset %d limiter group(s)\n", affected)
		return nil
	},
}

func init() {
	rateLimitResetCmd.Flags().BoolVar(&rateLimitResetAll, "all", false, "reset all limiter groups")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetGroup, "group", "", "limiter group to reset")
	rateLimitResetCmd.Flags().StringVar(&rateLimitResetPrefix, "prefix", "", "limiter group prefix to reset")
}
