package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <sdk-id...>",
	Short: "Delete the stored source of SDKs and forget their snapshots",
	Args:  cobra.MinimumNArgs(1),
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
		f := a.fetcher(nil)
		var errs []error
		for _, sdk := range sdks {
			if err := f.Remove(sdk.ID); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", sdk.ID, err))
				continue
			}
			a.cache.Invalidate(sdk.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ removed %s\n", sdk.ID)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
