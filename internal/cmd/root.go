// Package cmd wires the EdgarLens CLI together.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/edgarlens/edgarlens/internal/config"
	"github.com/edgarlens/edgarlens/internal/observability"
)

var (
	cfgFile      string
	verbose      bool
	identityFlag string

	appConfig *config.Config
	logger    *zap.Logger

	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set version information.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "edgarlens",
	Short: "Retrieve SEC EDGAR filings and datasets",
	Long: `EdgarLens retrieves filings and datasets from SEC EDGAR through a
rate-limited, retrying HTTP pipeline that respects the SEC's fair access
policy. Set your identity (name and email) via --identity, the config file,
or the EDGAR_IDENTITY environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = observability.NewCLILogger(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if identityFlag != "" {
			cfg.Identity = identityFlag
		}
		appConfig = cfg
		return nil
	},
}

// Execute runs the root command. It is called once from main.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

// Fatal prints an error and exits. Used by main for failures that escape
// cobra's own error handling.
func Fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/edgarlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&identityFlag, "identity", "", "User-Agent identity for outbound requests")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("identity", rootCmd.PersistentFlags().Lookup("identity"))
}
