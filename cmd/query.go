package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sdkdocs/internal/search"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/tools"
)

var (
	flagRegex         bool
	flagCaseSensitive bool
	flagMaxResults    int
	flagContext       int
	flagExampleLimit  int
)

// queryCommand wraps a one-shot engine query that prints markdown.
func queryCommand(use, short string, args cobra.PositionalArgs, run func(cmd *cobra.Command, a *app, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(settings, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := run(cmd, a, args)
			if err != nil {
				return errors.New(tools.ErrorMessage(args[0], err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

var filesCmd = queryCommand("files <sdk-id>", "List the stored files of an SDK", cobra.ExactArgs(1),
	func(cmd *cobra.Command, a *app, args []string) (string, error) {
		paths, err := a.engine.ListFiles(cmd.Context(), args[0])
		if err != nil {
			return "", err
		}
		sdk, _ := a.registry.Lookup(args[0])
		return tools.FormatFiles(sdk.Name, paths), nil
	})

var sourceCmd = queryCommand("source <sdk-id> <path>", "Print a stored file", cobra.ExactArgs(2),
	func(cmd *cobra.Command, a *app, args []string) (string, error) {
		text, err := a.engine.GetSource(cmd.Context(), args[0], args[1])
		if err != nil {
			return "", err
		}
		return tools.FormatSource(args[1], text), nil
	})

var searchCmd = queryCommand("search <sdk-id> <query>", "Search an SDK's source text", cobra.ExactArgs(2),
	func(cmd *cobra.Command, a *app, args []string) (string, error) {
		opts := search.Options{
			CaseSensitive: flagCaseSensitive,
			MaxResults:    flagMaxResults,
			ContextLines:  flagContext,
		}
		if flagRegex {
			opts.Mode = search.ModeRegex
		}
		hits, err := a.engine.SearchCode(cmd.Context(), args[0], args[1], opts)
		if err != nil {
			return "", err
		}
		return tools.FormatHits(args[1], hits, flagMaxResults), nil
	})

var classCmd = queryCommand("class <sdk-id> <name>", "Print a class definition", cobra.ExactArgs(2),
	func(cmd *cobra.Command, a *app, args []string) (string, error) {
		m, err := a.engine.GetSymbol(cmd.Context(), args[0], args[1], symbols.KindClass)
		if err != nil {
			return "", err
		}
		return tools.FormatClass(m), nil
	})

var examplesCmd = queryCommand("examples <sdk-id> <topic>", "Show code that uses a topic", cobra.ExactArgs(2),
	func(cmd *cobra.Command, a *app, args []string) (string, error) {
		examples, err := a.engine.FindExamples(cmd.Context(), args[0], args[1], flagExampleLimit)
		if err != nil {
			return "", err
		}
		return tools.FormatExamples(args[1], examples), nil
	})

func init() {
	sf := searchCmd.Flags()
	sf.BoolVar(&flagRegex, "regex", false, "treat the query as a regular expression")
	sf.BoolVar(&flagCaseSensitive, "case-sensitive", false, "match case exactly")
	sf.IntVar(&flagMaxResults, "max-results", search.DefaultMaxResults, "maximum matches to print")
	sf.IntVar(&flagContext, "context", 1, "lines of context around each match")

	examplesCmd.Flags().IntVar(&flagExampleLimit, "max-results", search.DefaultExampleLimit, "maximum examples to print")

	rootCmd.AddCommand(filesCmd, sourceCmd, searchCmd, classCmd, examplesCmd)
}
