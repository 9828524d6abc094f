// Package search answers queries against the indexed source of configured
// SDKs: file listing, source retrieval, literal and regex search, symbol
// lookup, usage examples and cross-SDK comparison.
//
// Every operation resolves the SDK against the registry before touching
// storage, so an unknown id fails with ErrSDKNotConfigured even when nothing
// has been fetched.
package search

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"sdkdocs/internal/config"
	"sdkdocs/internal/index"
)

// IndexSource hands out the current index of an SDK. *index.Cache
// implements it.
type IndexSource interface {
	Get(ctx context.Context, sdkID string) (*index.Index, error)
}

// Engine runs queries over the indexes of the registry's SDKs.
type Engine struct {
	registry *config.Registry
	indexes  IndexSource
}

// NewEngine creates an engine over the given registry and index source.
func NewEngine(registry *config.Registry, indexes IndexSource) *Engine {
	return &Engine{registry: registry, indexes: indexes}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *config.Registry {
	return e.registry
}

func (e *Engine) sdk(sdkID string) (config.SDK, error) {
	sdk, ok := e.registry.Lookup(sdkID)
	if !ok {
		return config.SDK{}, fmt.Errorf("%w: %q", ErrSDKNotConfigured, sdkID)
	}
	return sdk, nil
}

func (e *Engine) index(ctx context.Context, sdkID string) (*index.Index, error) {
	if _, err := e.sdk(sdkID); err != nil {
		return nil, err
	}
	return e.indexes.Get(ctx, sdkID)
}

// ListFiles returns every stored path of sdkID in lexicographic order.
func (e *Engine) ListFiles(ctx context.Context, sdkID string) ([]string, error) {
	ix, err := e.index(ctx, sdkID)
	if err != nil {
		return nil, err
	}
	return ix.Paths(), nil
}

// GetSource returns the full text of the stored file at p.
func (e *Engine) GetSource(ctx context.Context, sdkID, p string) (string, error) {
	if _, err := e.sdk(sdkID); err != nil {
		return "", err
	}
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	ix, err := e.indexes.Get(ctx, sdkID)
	if err != nil {
		return "", err
	}
	f, ok := ix.File(clean)
	if !ok {
		return "", fmt.Errorf("%w: %s in %s", ErrFileNotFound, p, sdkID)
	}
	return f.Text, nil
}

// cleanPath normalises a caller-supplied relative path and rejects anything
// that would resolve outside the storage root.
func cleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFound)
	}
	if path.IsAbs(p) || filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathTraversal, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s escapes the storage root", ErrPathTraversal, p)
	}
	return clean, nil
}
