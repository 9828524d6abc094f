package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sdkdocs/internal/config"
	"sdkdocs/internal/fetch"
)

var flagForce bool

var fetchCmd = &cobra.Command{
	Use:   "fetch [sdk-id...]",
	Short: "Download SDK sources into the data directory",
	Long: `Download the configured SDKs (all of them when no id is given) and
store their matching files under the data directory. A cached download
younger than SDKDOCS_CACHE_TTL is reused unless --force is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(settings, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		sdks, err := a.sdks(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		f := a.fetcher(func(ev fetch.Event) {
			logger.Debug("fetch progress", "sdk", ev.SDK, "stage", ev.Stage, "files", ev.Files)
		})
		return f.FetchAll(cmd.Context(), sdks, flagForce, func(sdk config.SDK, res *fetch.Result, err error) {
			if err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", sdk.ID, err)
				return
			}
			cached := ""
			if res.FromCache {
				cached = " (cached download)"
			}
			fmt.Fprintf(out, "✓ %s: %d files, %s from %s in %s%s\n",
				sdk.ID, res.Files, humanize.Bytes(uint64(res.Bytes)), res.SourceRef,
				res.Elapsed.Round(time.Millisecond), cached)
		})
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&flagForce, "force", false, "re-download even when a fresh cached copy exists")
	rootCmd.AddCommand(fetchCmd)
}
