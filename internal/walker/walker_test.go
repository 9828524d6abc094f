package walker

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func relPaths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.RelPath
	}
	sort.Strings(out)
	return out
}

func TestFilter_Match(t *testing.T) {
	f := Filter{
		Include: []string{"**/*.py"},
		Exclude: []string{"test_*.py", "**/fixtures/**"},
	}
	tests := []struct {
		path string
		want bool
	}{
		{"agent.py", true},
		{"models/openai.py", true},
		{"README.md", false},
		{"test_agent.py", false},
		{"models/test_openai.py", false},
		{"models/fixtures/data.py", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.Match(tt.path), tt.path)
	}

	assert.True(t, Filter{}.Match("anything/at/all.txt"))
}

func TestWalk_FiltersAndIgnores(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"agent.py":                 "class Agent: pass\n",
		"pkg/tool.py":              "def tool(): pass\n",
		"pkg/notes.txt":            "notes\n",
		"pkg/__pycache__/tool.pyc": "bytes",
		".git/config":              "[core]\n",
		"empty.py":                 "",
		"big.py":                   strings.Repeat("x", 200),
	})

	files, err := Collect(root, Filter{Include: []string{"**/*.py"}, MaxSize: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"agent.py", "pkg/tool.py"}, relPaths(files))

	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		assert.Positive(t, f.Size)
	}
}

func TestWalk_ReportsSkips(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"agent.py":                 "class Agent: pass\n",
		"big.py":                   strings.Repeat("x", 200),
		"big.txt":                  strings.Repeat("x", 200),
		"pkg/__pycache__/tool.pyc": "bytes",
	})

	skipped := make(map[string]string)
	files, err := Collect(root, Filter{
		Include: []string{"**/*.py"},
		MaxSize: 100,
		OnSkip:  func(rel, reason string) { skipped[rel] = reason },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"agent.py"}, relPaths(files))
	assert.Equal(t, map[string]string{
		"big.py":          SkipTooLarge,
		"pkg/__pycache__": SkipIgnoredDir,
	}, skipped)
}

func TestWalk_KeepEmpty(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"__init__.py": "", "a.py": "x = 1\n"})

	files, err := Collect(root, Filter{KeepEmpty: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"__init__.py", "a.py"}, relPaths(files))
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "nope"), Filter{})
	assert.Error(t, err)
}

func TestValidatePatterns(t *testing.T) {
	assert.NoError(t, ValidatePatterns([]string{"**/*.py", "src/{a,b}/*.ts"}))

	err := ValidatePatterns([]string{"**/*.py", "src/[a.py"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "src/[a.py")
}
