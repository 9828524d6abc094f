package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sdkdocs/internal/tools"
)

var sdksCmd = &cobra.Command{
	Use:   "sdks",
	Short: "List configured SDKs and their fetch state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(settings, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprint(cmd.OutOrStdout(), tools.FormatSDKs(tools.Statuses(a.registry, a.catalog, a.cache)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sdksCmd)
}
