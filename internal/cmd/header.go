package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgarlens/edgarlens/internal/fetch"
)

var headerTag string

var headerCmd = &cobra.Command{
	Use:   "header <url>",
	Short: "Extract a filing's SGML header",
	Long: `Stream a filing and print the text between <TAG> and </TAG> without
downloading the whole document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawURL := strings.TrimSpace(args[0])
		ctx := cmd.Context()

		client, throttler, err := buildClient(appConfig, logger)
		if err != nil {
			return err
		}
		defer func() {
			persistUsage(ctx, appConfig, logger, "stream", throttler, client.Stats())
		}()

		downloader := &fetch.Downloader{Client: client}
		header, err := downloader.TextBetweenTags(ctx, rawURL, headerTag)
		if err != nil {
			return err
		}

		fmt.Print(header)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headerCmd)
	headerCmd.Flags().StringVar(&headerTag, "tag", "SEC-HEADER", "tag delimiting the section to extract")
}
