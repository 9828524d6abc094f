package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"sdkdocs/internal/config"
	"sdkdocs/internal/tools"
	"sdkdocs/internal/watch"
)

var (
	flagHTTPAddr     string
	flagEager        bool
	flagWatch        bool
	flagFetchMissing bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the SDK search tools",
	Long: `Start an MCP server with five tools per configured SDK plus
list_available_sdks, search_all_sdks and compare_implementations.
The server speaks stdio unless --http is given.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if flagFetchMissing {
		if err := fetchMissing(ctx, a); err != nil {
			logger.Warn("some SDKs could not be fetched", "err", err)
		}
	}
	if flagEager {
		if err := a.cache.Warm(ctx, a.registry.IDs()); err != nil {
			logger.Warn("some SDK indexes failed to build", "err", err)
		}
	}
	if flagWatch {
		w, err := watch.New(settings.DataDir, a.registry.IDs(), a.cache, watch.DefaultDebounce, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("storage watcher stopped", "err", err)
			}
		}()
	}

	s := mcpserver.NewMCPServer("sdkdocs", version, mcpserver.WithToolCapabilities(false))
	tools.NewDispatcher(a.engine, a.cache, a.catalog, logger).Register(s)

	logger.Info("serving MCP", "sdks", a.registry.Len(), "transport", transportName())

	if flagHTTPAddr == "" {
		return mcpserver.ServeStdio(s)
	}

	httpServer := mcpserver.NewStreamableHTTPServer(s)
	go func() {
		<-ctx.Done()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()
	if err := httpServer.Start(flagHTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// fetchMissing downloads every SDK that has no storage yet or whose file
// selection changed in the registry since it was fetched.
func fetchMissing(ctx context.Context, a *app) error {
	var missing []config.SDK
	for _, st := range tools.Statuses(a.registry, a.catalog, nil) {
		_, err := os.Stat(settings.StorageRoot(st.ID))
		if errors.Is(err, os.ErrNotExist) || st.Stale {
			sdk, _ := a.registry.Lookup(st.ID)
			missing = append(missing, sdk)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return a.fetcher(nil).FetchAll(ctx, missing, false, nil)
}

func transportName() string {
	if flagHTTPAddr == "" {
		return "stdio"
	}
	return "http " + flagHTTPAddr
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&flagHTTPAddr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	f.BoolVar(&flagEager, "eager", false, "build every SDK index before accepting requests")
	f.BoolVar(&flagWatch, "watch", true, "drop an SDK's index when its storage directory is replaced")
	f.BoolVar(&flagFetchMissing, "fetch-missing", false, "download SDKs that are missing or changed in the registry before serving")
	rootCmd.AddCommand(serveCmd)
}
