package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"sdkdocs/internal/config"
	"sdkdocs/internal/fetch"
	"sdkdocs/internal/index"
	"sdkdocs/internal/search"
	"sdkdocs/internal/store"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/symbols/languages"
)

// app wires the components shared by every command.
type app struct {
	settings *config.Settings
	registry *config.Registry
	catalog  *store.SQLiteStore
	cache    *index.Cache
	engine   *search.Engine
	logger   *slog.Logger
}

func newApp(s *config.Settings, logger *slog.Logger) (*app, error) {
	reg, err := config.LoadRegistry(s.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	catalog, err := store.Open(s.CatalogPath())
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	extractor := symbols.NewExtractor(languages.Default(), logger)
	cache := index.NewCache(func(ctx context.Context, sdkID string) (*index.Index, error) {
		return index.Build(ctx, sdkID, s.StorageRoot(sdkID), index.Options{
			Extractor: extractor,
			Catalog:   catalog,
			Logger:    logger,
		})
	}, logger)

	logger.Debug("loaded registry", "path", s.ConfigFile, "sdks", reg.Len())
	return &app{
		settings: s,
		registry: reg,
		catalog:  catalog,
		cache:    cache,
		engine:   search.NewEngine(reg, cache),
		logger:   logger,
	}, nil
}

func (a *app) fetcher(onProgress func(fetch.Event)) *fetch.Fetcher {
	return fetch.New(fetch.Config{
		DataDir:      a.settings.DataDir,
		CacheDir:     a.settings.CacheDir,
		CacheTTL:     a.settings.CacheTTL,
		GitHubAPIURL: a.settings.GitHubAPIURL,
		GitHubToken:  a.settings.GitHubToken,
		Catalog:      a.catalog,
		OnProgress:   onProgress,
		Logger:       a.logger,
	})
}

// sdks resolves ids against the registry; no ids means every SDK.
func (a *app) sdks(ids []string) ([]config.SDK, error) {
	if len(ids) == 0 {
		return a.registry.All(), nil
	}
	out := make([]config.SDK, 0, len(ids))
	for _, id := range ids {
		sdk, ok := a.registry.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", search.ErrSDKNotConfigured, id)
		}
		out = append(out, sdk)
	}
	return out, nil
}

func (a *app) Close() error {
	return a.catalog.Close()
}
