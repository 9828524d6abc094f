package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sdkdocs/internal/config"
	"sdkdocs/internal/logging"
)

// version is overridden at build time with -ldflags "-X sdkdocs/cmd.version=...".
var version = "dev"

var (
	flagConfig    string
	flagDataDir   string
	flagCacheDir  string
	flagLogLevel  string
	flagLogFormat string
)

// settings and logger are populated before any subcommand runs.
var (
	settings *config.Settings
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sdkdocs",
	Short:         "Index and search SDK source code, served over MCP",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadSettings()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("config") {
			s.ConfigFile = flagConfig
		}
		if flags.Changed("data-dir") {
			s.DataDir = flagDataDir
		}
		if flags.Changed("cache-dir") {
			s.CacheDir = flagCacheDir
		}
		if flags.Changed("log-level") {
			s.LogLevel = flagLogLevel
		}
		if flags.Changed("log-format") {
			s.LogFormat = flagLogFormat
		}

		l, err := logging.New(os.Stderr, s.LogLevel, s.LogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(l)
		settings, logger = s, l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "SDK registry file (default $SDKDOCS_CONFIG or sdks.yaml)")
	pf.StringVar(&flagDataDir, "data-dir", "", "directory holding fetched SDK sources (default $SDKDOCS_DATA_DIR or data)")
	pf.StringVar(&flagCacheDir, "cache-dir", "", "download cache directory (default $SDKDOCS_CACHE_DIR or sdk_cache)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: text or json")
}
