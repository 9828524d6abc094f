// Package index builds the in-memory view of one SDK's stored source tree:
// every file's text plus the class and function definitions found in it.
// An Index is immutable once built; rebuilding produces a new value.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"sdkdocs/internal/logging"
	"sdkdocs/internal/store"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/walker"
)

// ErrStorageMissing is returned when an SDK has never been fetched.
var ErrStorageMissing = errors.New("sdk storage missing")

// DefaultMaxFileSize bounds the files read into an index. It matches the
// limit the fetcher stores files under.
const DefaultMaxFileSize = walker.DefaultMaxFileSize

// File is one stored source file.
type File struct {
	Path     string // slash-separated, relative to the storage root
	Text     string
	Size     int64
	Hash     string // blake3, hex
	Language string // tree-sitter grammar name, "" for the indentation scanner
	Snapshot time.Time
	Symbols  []symbols.Symbol
}

// SymbolText returns the exact source text of s.
func (f *File) SymbolText(s symbols.Symbol) string {
	return s.Text(f.Text)
}

// Innermost returns the deepest symbol containing byte offset off.
func (f *File) Innermost(off int) (symbols.Symbol, bool) {
	var best symbols.Symbol
	found := false
	for _, s := range f.Symbols {
		if s.Start > off {
			break
		}
		if s.Contains(off) {
			// Symbols are ordered by start, outer before inner.
			best, found = s, true
		}
	}
	return best, found
}

// Index is the searchable snapshot of one SDK.
type Index struct {
	SDK      string
	Root     string
	BuiltAt  time.Time
	Snapshot *store.Snapshot // nil when the catalog has no record

	files map[string]*File
	paths []string
}

// Paths returns the indexed paths in lexicographic order.
func (ix *Index) Paths() []string {
	out := make([]string, len(ix.paths))
	copy(out, ix.paths)
	return out
}

// File returns the file stored at path.
func (ix *Index) File(path string) (*File, bool) {
	f, ok := ix.files[path]
	return f, ok
}

// Files returns every file in path order.
func (ix *Index) Files() []*File {
	out := make([]*File, len(ix.paths))
	for i, p := range ix.paths {
		out[i] = ix.files[p]
	}
	return out
}

// Len returns the number of indexed files.
func (ix *Index) Len() int { return len(ix.paths) }

// SymbolCount returns the number of extracted definitions.
func (ix *Index) SymbolCount() int {
	n := 0
	for _, f := range ix.files {
		n += len(f.Symbols)
	}
	return n
}

// Options configures Build.
type Options struct {
	Extractor   *symbols.Extractor
	Catalog     store.Catalog // optional
	Workers     int
	MaxFileSize int64
	Logger      *slog.Logger
}

// Build reads every regular file under root and extracts its symbols.
func Build(ctx context.Context, sdkID, root string, opts Options) (*Index, error) {
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s has not been fetched (no %s)", ErrStorageMissing, sdkID, root)
	}
	if err != nil {
		return nil, fmt.Errorf("stat storage root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStorageMissing, root)
	}

	if opts.Extractor == nil {
		opts.Extractor = symbols.NewExtractor(nil, opts.Logger)
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	logger := logging.OrDefault(opts.Logger).With("sdk", sdkID)
	opts.Logger = logger

	var snap *store.Snapshot
	var recorded map[string]string
	if opts.Catalog != nil {
		snap, recorded, err = catalogState(opts.Catalog, sdkID)
		if err != nil {
			logger.Warn("snapshot catalog unavailable", "err", err)
		}
	}

	start := time.Now()
	files, err := runPipeline(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	ix := &Index{
		SDK:      sdkID,
		Root:     root,
		BuiltAt:  time.Now(),
		Snapshot: snap,
		files:    make(map[string]*File, len(files)),
		paths:    make([]string, 0, len(files)),
	}
	mismatched := 0
	for _, f := range files {
		if snap != nil {
			f.Snapshot = snap.FetchedAt
		}
		if want, ok := recorded[f.Path]; ok && want != f.Hash {
			mismatched++
			logger.Debug("file differs from catalog", "path", f.Path)
		}
		ix.files[f.Path] = f
		ix.paths = append(ix.paths, f.Path)
	}
	sort.Strings(ix.paths)

	if mismatched > 0 {
		logger.Warn("storage differs from recorded snapshot; re-fetch to repair", "files", mismatched)
	}
	logger.Info("index built", "files", ix.Len(), "symbols", ix.SymbolCount(), "elapsed", time.Since(start).Round(time.Millisecond))
	return ix, nil
}

func catalogState(c store.Catalog, sdkID string) (*store.Snapshot, map[string]string, error) {
	snap, err := c.LatestSnapshot(sdkID)
	if err != nil || snap == nil {
		return nil, nil, err
	}
	recs, err := c.ListFiles(sdkID)
	if err != nil {
		return snap, nil, err
	}
	hashes := make(map[string]string, len(recs))
	for _, r := range recs {
		hashes[r.Path] = r.Hash
	}
	return snap, hashes, nil
}
