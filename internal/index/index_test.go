package index

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdkdocs/internal/store"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/symbols/languages"
	"sdkdocs/internal/walker"
)

const demoSource = "class Foo:\n    def bar(self):\n        pass\n\ndef baz():\n    pass\n"

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testOptions() Options {
	return Options{Extractor: symbols.NewExtractor(languages.Default(), nil), Workers: 2}
}

func TestBuild_Demo(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": demoSource})

	ix, err := Build(context.Background(), "demo", root, testOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, ix.Paths())

	f, ok := ix.File("a.py")
	require.True(t, ok)
	assert.Equal(t, demoSource, f.Text)
	assert.Equal(t, "python", f.Language)
	assert.Equal(t, HashBytes([]byte(demoSource)), f.Hash)
	assert.False(t, f.Snapshot.IsZero())

	var names []string
	for _, s := range f.Symbols {
		names = append(names, s.QualifiedName())
	}
	assert.Equal(t, []string{"Foo", "Foo.bar", "baz"}, names)
	assert.Equal(t, "class Foo:\n    def bar(self):\n        pass", f.SymbolText(f.Symbols[0]))
}

func TestBuild_SortedNestedAndFiltered(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/z.py":          "x = 1\n",
		"pkg/sub/a.py":      "y = 2\n",
		"b.md":              "# readme\n",
		"empty.py":          "",
		"blob.bin":          "ab\x00cd",
		".git/config":       "[core]\n",
		"__pycache__/a.pyc": "junk",
	})

	ix, err := Build(context.Background(), "demo", root, testOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "empty.py", "pkg/sub/a.py", "pkg/z.py"}, ix.Paths())
	assert.Len(t, ix.Files(), 4)
}

func TestBuild_LogsFilesLeftOut(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":              "x = 1\n",
		"huge.py":           strings.Repeat("#", 64),
		"blob.bin":          "ab\x00cd",
		"__pycache__/a.pyc": "junk",
	})

	var buf bytes.Buffer
	opts := testOptions()
	opts.MaxFileSize = 32
	opts.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	ix, err := Build(context.Background(), "demo", root, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, ix.Paths())

	logs := buf.String()
	assert.Contains(t, logs, "path=huge.py")
	assert.Contains(t, logs, `reason="file too large"`)
	assert.Contains(t, logs, "path=blob.bin")
	assert.Contains(t, logs, "path=__pycache__")
	assert.NotContains(t, logs, "path=a.py")
}

func TestDefaultMaxFileSizeMatchesFetcher(t *testing.T) {
	assert.EqualValues(t, walker.DefaultMaxFileSize, DefaultMaxFileSize)
}

func TestBuild_StorageMissing(t *testing.T) {
	_, err := Build(context.Background(), "demo", filepath.Join(t.TempDir(), "nope"), testOptions())
	require.ErrorIs(t, err, ErrStorageMissing)
}

func TestBuild_UsesCatalogSnapshot(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": demoSource})
	cat, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = cat.RecordSnapshot(store.Snapshot{SDK: "demo", SourceRef: "o/r@main", FetchedAt: fetched, FileCount: 1},
		[]store.FileRecord{{Path: "a.py", Hash: "stale"}})
	require.NoError(t, err)

	opts := testOptions()
	opts.Catalog = cat
	ix, err := Build(context.Background(), "demo", root, opts)
	require.NoError(t, err)
	require.NotNil(t, ix.Snapshot)
	assert.Equal(t, "o/r@main", ix.Snapshot.SourceRef)

	f, _ := ix.File("a.py")
	assert.True(t, fetched.Equal(f.Snapshot))
}

func TestBuild_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": demoSource})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, "demo", root, testOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFile_Innermost(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": demoSource})
	ix, err := Build(context.Background(), "demo", root, testOptions())
	require.NoError(t, err)
	f, _ := ix.File("a.py")

	s, ok := f.Innermost(len("class Foo:\n    def bar(self):\n        pa"))
	require.True(t, ok)
	assert.Equal(t, "Foo.bar", s.QualifiedName())

	_, ok = f.Innermost(len(demoSource) - 2)
	assert.True(t, ok) // inside baz

	_, ok = f.Innermost(len("class Foo:\n    def bar(self):\n        pass\n"))
	assert.False(t, ok) // blank separator line
}
