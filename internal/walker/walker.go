package walker

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
	ModTime time.Time
}

// DefaultMaxFileSize is the largest file we'll consider (1 MB).
const DefaultMaxFileSize = 1 << 20

// defaultIgnores are directory names never descended into.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".idea",
	".vscode",
	".mypy_cache",
	".pytest_cache",
}

// Filter selects which files Walk emits. Patterns are doublestar globs
// matched against the slash-separated path relative to the walk root; a
// pattern without a slash also matches the base name.
type Filter struct {
	Include []string
	Exclude []string
	// MaxSize is the largest file emitted; zero means DefaultMaxFileSize.
	MaxSize int64
	// KeepEmpty emits zero-length files.
	KeepEmpty bool
	// OnSkip, when set, is called from the walk goroutine for each ignored
	// directory and each matching file over MaxSize.
	OnSkip func(relPath, reason string)
}

// Skip reasons passed to Filter.OnSkip.
const (
	SkipIgnoredDir = "ignored directory"
	SkipTooLarge   = "file too large"
)

func (f Filter) skipped(relPath, reason string) {
	if f.OnSkip != nil {
		f.OnSkip(relPath, reason)
	}
}

// Match reports whether relPath passes the include and exclude patterns.
// An empty include list matches everything.
func (f Filter) Match(relPath string) bool {
	if len(f.Include) > 0 && !matchAny(f.Include, relPath) {
		return false
	}
	return !matchAny(f.Exclude, relPath)
}

func matchAny(patterns []string, relPath string) bool {
	base := path.Base(relPath)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
		if !strings.Contains(p, "/") {
			if ok, _ := doublestar.Match(p, base); ok {
				return true
			}
		}
	}
	return false
}

// ValidatePatterns reports the first malformed glob in patterns.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return &PatternError{Pattern: p}
		}
	}
	return nil
}

// PatternError reports a malformed glob.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "malformed glob pattern " + `"` + e.Pattern + `"`
}

// Walk traverses the directory tree rooted at root and sends discovered
// files on the returned channel. It skips symlinks, ignored directories and
// files rejected by f.
func Walk(root string, f Filter) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	maxSize := f.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if p == absRoot {
					return err
				}
				return nil // skip errors, keep walking
			}

			if d.IsDir() {
				if p != absRoot && isIgnoredDir(d.Name()) {
					if rel, err := filepath.Rel(absRoot, p); err == nil {
						f.skipped(filepath.ToSlash(rel), SkipIgnoredDir)
					}
					return filepath.SkipDir
				}
				return nil
			}

			// Skip symlinks and other non-regular files.
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(absRoot, p)
			if err != nil {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if !f.Match(rel) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > maxSize {
				f.skipped(rel, SkipTooLarge)
				return nil
			}
			if info.Size() == 0 && !f.KeepEmpty {
				return nil
			}

			files <- FileInfo{
				Path:    p,
				RelPath: rel,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// Collect drains Walk into a slice.
func Collect(root string, f Filter) ([]FileInfo, error) {
	ch, errCh := Walk(root, f)
	var out []FileInfo
	for fi := range ch {
		out = append(out, fi)
	}
	if err := <-errCh; err != nil {
		return out, err
	}
	return out, nil
}

func isIgnoredDir(name string) bool {
	for _, p := range defaultIgnores {
		if name == p {
			return true
		}
	}
	return false
}
