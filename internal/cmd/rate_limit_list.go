package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/output"
	"github.com/edgarlens/edgarlens/internal/store"
)

var (
	rateLimitListOutput string
	rateLimitListAll    bool
	rateLimitListGroup  string
	rateLimitListPrefix string
)

var rateLimitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted rate limit usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(rateLimitListOutput)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.RateLimitQuery{
			All:    rateLimitListAll,
			Group:  strings.TrimSpace(rateLimitListGroup),
			Prefix: strings.TrimSpace(rateLimitListPrefix),
		}
		if !query.All && query.Group == "" && query.Prefix == "" {
			query.All = true
		}

		records, err := db.ListRateLimits(cmd.Context(), query)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("(no stored rate limit usage)")
			return nil
		}

		rendered, err := output.FormatRateLimits(format, records)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	},
}

func init() {
	rateLimitListCmd.Flags().StringVar(&rateLimitListOutput, "output", "table", "output format: table, json")
	rateLimitListCmd.Flags().BoolVar(&rateLimitListAll, "all", false, "list all limiter groups")
	rateLimitListCmd.Flags().StringVar(&rateLimitListGroup, "group", "", "limiter group to list")
	rateLimitListCmd.Flags().StringVar(&rateLimitListPrefix, "prefix", "", "limiter group prefix to list")
}
