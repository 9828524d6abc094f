// Package fetch downloads SDK sources and stores the files selected by each
// SDK's patterns under the data directory.
//
// Layout:
//
//	<cache>/<key>/src/   unpacked archive, reused while younger than the TTL
//	<cache>/<key>/ref    what was downloaded (repo@branch or URL)
//	<data>/<sdk id>/     the stored snapshot served by the indexer
package fetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"sdkdocs/internal/config"
	"sdkdocs/internal/logging"
	"sdkdocs/internal/store"
	"sdkdocs/internal/walker"
)

// Stage names reported through Config.OnProgress.
const (
	StageDownload = "download"
	StageCached   = "cached"
	StageCopy     = "copy"
	StageDone     = "done"
)

// Event reports fetch progress.
type Event struct {
	SDK   string
	Stage string
	Files int
}

// Config holds the fetcher's dependencies.
type Config struct {
	DataDir  string
	CacheDir string
	// CacheTTL is how long an unpacked download is reused; zero disables
	// reuse.
	CacheTTL time.Duration

	GitHubAPIURL string
	GitHubToken  string
	HTTPClient   *http.Client

	// Catalog records each stored snapshot when set.
	Catalog store.Catalog
	// Providers overrides the providers keyed by source type.
	Providers  map[string]Provider
	OnProgress func(Event)
	Logger     *slog.Logger
}

// Fetcher populates SDK storage directories.
type Fetcher struct {
	cfg       Config
	providers map[string]Provider
	logger    *slog.Logger
}

// New creates a fetcher with the GitHub and URL providers.
func New(cfg Config) *Fetcher {
	logger := logging.OrDefault(cfg.Logger)
	providers := map[string]Provider{
		config.SourceGitHub: &GitHubProvider{
			BaseURL:    cfg.GitHubAPIURL,
			Token:      cfg.GitHubToken,
			HTTPClient: cfg.HTTPClient,
			Logger:     logger,
		},
		config.SourceURL: &URLProvider{HTTPClient: cfg.HTTPClient, Logger: logger},
	}
	for k, p := range cfg.Providers {
		providers[k] = p
	}
	return &Fetcher{cfg: cfg, providers: providers, logger: logger}
}

// Result summarises one stored snapshot.
type Result struct {
	SDK       string
	SourceRef string
	Files     int
	Bytes     int64
	FromCache bool
	Elapsed   time.Duration
}

// Fetch downloads sdk (unless a fresh cached copy exists and force is
// false), copies the matching files into a temporary directory and swaps it
// in place of the SDK's storage root. The previous storage is left intact
// on any failure.
func (f *Fetcher) Fetch(ctx context.Context, sdk config.SDK, force bool) (*Result, error) {
	start := time.Now()
	logger := f.logger.With("sdk", sdk.ID)

	p, ok := f.providers[sdk.Source.Type]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, sdk.Source.Type)
	}
	if err := walker.ValidatePatterns(sdk.FilePatterns); err != nil {
		return nil, fmt.Errorf("file_patterns: %w", err)
	}
	if err := walker.ValidatePatterns(sdk.ExcludePatterns); err != nil {
		return nil, fmt.Errorf("exclude_patterns: %w", err)
	}

	cacheDir := filepath.Join(f.cfg.CacheDir, p.CacheKey(sdk))
	ref, fromCache, err := f.download(ctx, p, sdk, cacheDir, force)
	if err != nil {
		return nil, err
	}

	srcRoot, err := resolveSourcePath(filepath.Join(cacheDir, "src"), sdk.Source.Path)
	if err != nil {
		return nil, err
	}

	f.progress(Event{SDK: sdk.ID, Stage: StageCopy})
	res, records, err := f.store(ctx, sdk, srcRoot)
	if err != nil {
		return nil, err
	}
	res.SourceRef = ref
	res.FromCache = fromCache

	if f.cfg.Catalog != nil {
		_, err := f.cfg.Catalog.RecordSnapshot(store.Snapshot{
			SDK:       sdk.ID,
			SourceRef: ref,
			FetchedAt: time.Now(),
			FileCount: res.Files,
			SizeBytes: res.Bytes,
		}, records)
		if err == nil {
			err = f.cfg.Catalog.SetMeta(store.SelectionKey(sdk.ID), sdk.Fingerprint())
		}
		if err != nil {
			logger.Warn("failed to record snapshot", "err", err)
		}
	}

	res.Elapsed = time.Since(start)
	f.progress(Event{SDK: sdk.ID, Stage: StageDone, Files: res.Files})
	logger.Info("sdk stored", "files", res.Files, "bytes", res.Bytes, "cached", fromCache, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// Remove deletes the stored snapshot of sdkID and forgets it in the
// catalog. Removing an SDK that was never fetched is not an error.
func (f *Fetcher) Remove(sdkID string) error {
	root := filepath.Join(f.cfg.DataDir, sdkID)
	if _, err := os.Stat(root); err == nil {
		// Rename first so a concurrent indexer sees the tree vanish at once.
		trash := filepath.Join(f.cfg.DataDir, fmt.Sprintf(".%s.old-%d", sdkID, time.Now().UnixNano()))
		if err := os.Rename(root, trash); err != nil {
			return fmt.Errorf("remove storage: %w", err)
		}
		if err := os.RemoveAll(trash); err != nil {
			return fmt.Errorf("remove storage: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if f.cfg.Catalog != nil {
		if err := f.cfg.Catalog.DeleteSnapshot(sdkID); err != nil {
			return fmt.Errorf("forget snapshot: %w", err)
		}
		if err := f.cfg.Catalog.SetMeta(store.SelectionKey(sdkID), ""); err != nil {
			return fmt.Errorf("forget snapshot: %w", err)
		}
	}
	f.logger.Info("sdk removed", "sdk", sdkID)
	return nil
}

// FetchAll fetches each SDK in turn. It keeps going after a failure and
// returns every failure joined.
func (f *Fetcher) FetchAll(ctx context.Context, sdks []config.SDK, force bool, onResult func(config.SDK, *Result, error)) error {
	var errs []error
	for _, sdk := range sdks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := f.Fetch(ctx, sdk, force)
		if onResult != nil {
			onResult(sdk, res, err)
		}
		if err != nil {
			f.logger.Error("fetch failed", "sdk", sdk.ID, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", sdk.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fetcher) download(ctx context.Context, p Provider, sdk config.SDK, cacheDir string, force bool) (ref string, fromCache bool, err error) {
	refPath := filepath.Join(cacheDir, "ref")
	if !force && f.cfg.CacheTTL > 0 {
		if info, err := os.Stat(refPath); err == nil && time.Since(info.ModTime()) < f.cfg.CacheTTL {
			if b, err := os.ReadFile(refPath); err == nil {
				f.progress(Event{SDK: sdk.ID, Stage: StageCached})
				return strings.TrimSpace(string(b)), true, nil
			}
		}
	}

	f.progress(Event{SDK: sdk.ID, Stage: StageDownload})
	if err := os.MkdirAll(f.cfg.CacheDir, 0o755); err != nil {
		return "", false, err
	}
	staging, err := os.MkdirTemp(f.cfg.CacheDir, ".download-*")
	if err != nil {
		return "", false, err
	}
	defer os.RemoveAll(staging)

	ref, err = p.Download(ctx, sdk, filepath.Join(staging, "src"))
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(staging, "ref"), []byte(ref+"\n"), 0o644); err != nil {
		return "", false, err
	}
	if err := os.RemoveAll(cacheDir); err != nil {
		return "", false, err
	}
	if err := os.Rename(staging, cacheDir); err != nil {
		return "", false, fmt.Errorf("install download cache: %w", err)
	}
	return ref, false, nil
}

// store copies the selected files of srcRoot into the SDK's storage root.
func (f *Fetcher) store(ctx context.Context, sdk config.SDK, srcRoot string) (*Result, []store.FileRecord, error) {
	if err := os.MkdirAll(f.cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	tmp, err := os.MkdirTemp(f.cfg.DataDir, "."+sdk.ID+".tmp-*")
	if err != nil {
		return nil, nil, err
	}
	defer os.RemoveAll(tmp) // no-op after a successful swap

	filter := walker.Filter{Include: sdk.FilePatterns, Exclude: sdk.ExcludePatterns}
	fileCh, errCh := walker.Walk(srcRoot, filter)

	res := &Result{SDK: sdk.ID}
	var records []store.FileRecord
	var copyErr error
	for fi := range fileCh {
		if copyErr != nil || ctx.Err() != nil {
			continue // drain
		}
		hash, err := copyFile(fi.Path, filepath.Join(tmp, filepath.FromSlash(fi.RelPath)))
		if err != nil {
			copyErr = fmt.Errorf("copy %s: %w", fi.RelPath, err)
			continue
		}
		records = append(records, store.FileRecord{Path: fi.RelPath, Hash: hash, SizeBytes: fi.Size})
		res.Files++
		res.Bytes += fi.Size
		if res.Files%200 == 0 {
			f.progress(Event{SDK: sdk.ID, Stage: StageCopy, Files: res.Files})
		}
	}
	if err := <-errCh; err != nil {
		return nil, nil, fmt.Errorf("walk source: %w", err)
	}
	if copyErr != nil {
		return nil, nil, copyErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if res.Files == 0 {
		return nil, nil, fmt.Errorf("no files matched file_patterns %v", sdk.FilePatterns)
	}

	if err := swapDir(tmp, filepath.Join(f.cfg.DataDir, sdk.ID)); err != nil {
		return nil, nil, err
	}
	return res, records, nil
}

// swapDir replaces dest with src using renames so readers never see a
// half-written tree.
func swapDir(src, dest string) error {
	old := ""
	if _, err := os.Stat(dest); err == nil {
		old = filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.old-%d", filepath.Base(dest), time.Now().UnixNano()))
		if err := os.Rename(dest, old); err != nil {
			return fmt.Errorf("move previous snapshot: %w", err)
		}
	}
	if err := os.Rename(src, dest); err != nil {
		if old != "" {
			_ = os.Rename(old, dest)
		}
		return fmt.Errorf("install snapshot: %w", err)
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

func copyFile(src, dest string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	h := blake3.New()
	if _, err := io.Copy(io.MultiWriter(out, h), in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (f *Fetcher) progress(ev Event) {
	if f.cfg.OnProgress != nil {
		f.cfg.OnProgress(ev)
	}
}
