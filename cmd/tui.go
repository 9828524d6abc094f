package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sdkdocs/internal/fetch"
	"sdkdocs/internal/logging"
	"sdkdocs/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse and search SDKs interactively (default command)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func runTUI(cmd *cobra.Command) error {
	// The terminal belongs to the TUI, so logs go to a file in the data dir.
	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(settings.DataDir, "sdkdocs.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	fileLogger, err := logging.New(logFile, settings.LogLevel, settings.LogFormat)
	if err != nil {
		return err
	}

	a, err := newApp(settings, fileLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), tui.Config{
		Registry: a.registry,
		Engine:   a.engine,
		Cache:    a.cache,
		Catalog:  a.catalog,
		NewFetcher: func(onProgress func(fetch.Event)) *fetch.Fetcher {
			return a.fetcher(onProgress)
		},
	})
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
