package tui

import (
	"context"
	"fmt"
	"strings"

	"sdkdocs/internal/search"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/tools"
)

const consoleHelp = `Commands:
  files [filter]       list stored files, optionally filtered by substring
  source <path>        show a file
  search <text>        case-insensitive literal search (also: bare text)
  regex <pattern>      regular expression search
  class <name>         show a class definition
  def <name>           show any definition, e.g. Agent.run
  examples <topic>     show code that uses topic
  all <text>           search every downloaded SDK
  compare <concept>    compare the concept across SDKs
  /back                choose another SDK
  /clear               clear the output
  /exit                quit`

const consoleMaxResults = 50

// runCommand executes one console line against sdkID and returns markdown.
func runCommand(ctx context.Context, engine *search.Engine, sdkID, line string) (string, error) {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	needArg := func() error {
		if arg == "" {
			return fmt.Errorf("usage: %s <argument>", verb)
		}
		return nil
	}

	switch verb {
	case "help", "/help":
		return consoleHelp, nil

	case "files", "ls":
		paths, err := engine.ListFiles(ctx, sdkID)
		if err != nil {
			return "", err
		}
		if arg != "" {
			kept := paths[:0]
			for _, p := range paths {
				if strings.Contains(strings.ToLower(p), strings.ToLower(arg)) {
					kept = append(kept, p)
				}
			}
			paths = kept
		}
		sdk, _ := engine.Registry().Lookup(sdkID)
		return tools.FormatFiles(sdk.Name, paths), nil

	case "source", "cat":
		if err := needArg(); err != nil {
			return "", err
		}
		text, err := engine.GetSource(ctx, sdkID, arg)
		if err != nil {
			return "", err
		}
		return tools.FormatSource(arg, text), nil

	case "search", "regex":
		if err := needArg(); err != nil {
			return "", err
		}
		opts := search.Options{MaxResults: consoleMaxResults, MaxPerFile: 10, ContextLines: 1}
		if verb == "regex" {
			opts.Mode = search.ModeRegex
		}
		hits, err := engine.SearchCode(ctx, sdkID, arg, opts)
		if err != nil {
			return "", err
		}
		return tools.FormatHits(arg, hits, opts.MaxResults), nil

	case "class", "def":
		if err := needArg(); err != nil {
			return "", err
		}
		kind := symbols.KindClass
		if verb == "def" {
			kind = ""
		}
		m, err := engine.GetSymbol(ctx, sdkID, arg, kind)
		if err != nil {
			return "", err
		}
		return tools.FormatClass(m), nil

	case "examples", "ex":
		if err := needArg(); err != nil {
			return "", err
		}
		examples, err := engine.FindExamples(ctx, sdkID, arg, 0)
		if err != nil {
			return "", err
		}
		return tools.FormatExamples(arg, examples), nil

	case "all":
		if err := needArg(); err != nil {
			return "", err
		}
		groups, err := engine.SearchAll(ctx, arg, search.Options{MaxResults: 20, MaxPerFile: 5})
		if err != nil {
			return "", err
		}
		return tools.FormatSearchAll(arg, groups), nil

	case "compare":
		if err := needArg(); err != nil {
			return "", err
		}
		comps, err := engine.Compare(ctx, arg, nil)
		if err != nil {
			return "", err
		}
		return tools.FormatComparison(arg, comps), nil
	}

	// Anything else is a literal search for the whole line.
	return runCommand(ctx, engine, sdkID, "search "+line)
}
