package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edgarlens/edgarlens/internal/fetch"
)

var (
	fetchAsText   bool
	fetchAsBinary bool
	fetchAsJSON   bool
	fetchOut      string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download a file from EDGAR",
	Long: `Download a file through the rate-limited pipeline. Text or binary
handling defaults from the URL extension; gzip payloads are unwrapped.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchAsText, "text", false, "treat the payload as text")
	fetchCmd.Flags().BoolVar(&fetchAsBinary, "binary", false, "treat the payload as binary")
	fetchCmd.Flags().BoolVar(&fetchAsJSON, "json", false, "parse and pretty-print the payload as JSON")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "write the payload to a file instead of stdout")
	fetchCmd.MarkFlagsMutuallyExclusive("text", "binary", "json")
}

func runFetch(cmd *cobra.Command, args []string) error {
	rawURL := strings.TrimSpace(args[0])
	ctx := cmd.Context()

	client, throttler, err := buildClient(appConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		persistUsage(ctx, appConfig, logger, "get", throttler, client.Stats())
	}()

	downloader := &fetch.Downloader{Client: client}

	var payload []byte
	switch {
	case fetchAsJSON:
		var value any
		if err := downloader.JSON(ctx, rawURL, &value); err != nil {
			return err
		}
		payload, err = json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		payload = append(payload, '\n')
	case fetchAsText || (!fetchAsBinary && fetch.IsTextURL(rawURL)):
		text, err := downloader.Text(ctx, rawURL)
		if err != nil {
			return err
		}
		payload = []byte(text)
	default:
		payload, err = downloader.File(ctx, rawURL)
		if err != nil {
			return err
		}
	}

	logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("bytes", len(payload)))

	return writePayload(payload, fetchOut)
}

func writePayload(payload []byte, out string) error {
	out = strings.TrimSpace(out)
	if out == "" || out == "-" {
		_, err := os.Stdout.Write(payload)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(out, payload, 0o644)
}
