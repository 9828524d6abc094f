package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdkdocs/internal/config"
	"sdkdocs/internal/index"
	"sdkdocs/internal/symbols"
	"sdkdocs/internal/symbols/languages"
)

const demoSource = "class Foo:\n    def bar(self):\n        pass\n\nclass Baz:\n    pass\n"

// newEngine stores each SDK's files under a temp data dir and returns an
// engine over a cache that builds from it. SDKs listed in sdks but absent
// from trees are configured but never fetched.
func newEngine(t *testing.T, sdks []string, trees map[string]map[string]string) (*Engine, *index.Cache) {
	t.Helper()
	dataDir := t.TempDir()
	for id, files := range trees {
		for rel, content := range files {
			p := filepath.Join(dataDir, id, filepath.FromSlash(rel))
			require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		}
	}

	var cfgs []config.SDK
	for _, id := range sdks {
		cfgs = append(cfgs, config.SDK{
			ID:     id,
			Source: config.Source{Type: config.SourceGitHub, Repo: "example/" + id},
			Concepts: map[string][]string{
				"runner": {"Runner", "run_agent"},
			},
		})
	}
	reg, err := config.NewRegistry(cfgs...)
	require.NoError(t, err)

	ex := symbols.NewExtractor(languages.Default(), nil)
	cache := index.NewCache(func(ctx context.Context, id string) (*index.Index, error) {
		return index.Build(ctx, id, filepath.Join(dataDir, id), index.Options{Extractor: ex, Workers: 2})
	}, nil)
	return NewEngine(reg, cache), cache
}

func demoEngine(t *testing.T) *Engine {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {"a.py": demoSource}})
	return e
}

func TestDemoScenario(t *testing.T) {
	e := demoEngine(t)
	ctx := context.Background()

	files, err := e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files)

	cls, err := e.GetClass(ctx, "demo", "Foo")
	require.NoError(t, err)
	assert.Equal(t, "class Foo:\n    def bar(self):\n        pass", cls)
	assert.NotContains(t, cls, "Baz")

	hits, err := e.SearchCode(ctx, "demo", "pass", Options{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a.py", hits[0].Path)
	assert.Equal(t, 3, hits[0].Line)
	assert.Equal(t, 6, hits[1].Line)
	assert.Equal(t, "Foo.bar", hits[0].Symbol)
	assert.Equal(t, "Baz", hits[1].Symbol)
	assert.Equal(t, 9, hits[0].Column)
}

func TestSDKNotConfigured(t *testing.T) {
	e := demoEngine(t)
	ctx := context.Background()

	_, err := e.ListFiles(ctx, "nope")
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
	_, err = e.GetSource(ctx, "nope", "../../etc/passwd")
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
	_, err = e.SearchCode(ctx, "nope", "(", Options{Mode: ModeRegex})
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
	_, err = e.GetClass(ctx, "nope", "Foo")
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
	_, err = e.FindExamples(ctx, "nope", "Foo", 0)
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
	_, err = e.Compare(ctx, "runner", []string{"demo", "nope"})
	assert.ErrorIs(t, err, ErrSDKNotConfigured)
}

func TestStorageMissing(t *testing.T) {
	e, _ := newEngine(t, []string{"demo", "later"}, map[string]map[string]string{"demo": {"a.py": demoSource}})
	ctx := context.Background()

	_, err := e.ListFiles(ctx, "later")
	require.ErrorIs(t, err, ErrStorageMissing)

	// The failure leaves other SDKs usable.
	files, err := e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files)
}

func TestGetSource(t *testing.T) {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {
		"a.py":         demoSource,
		"pkg/tools.py": "def tool():\n    return 1\n",
	}})
	ctx := context.Background()

	files, err := e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	for _, p := range files {
		text, err := e.GetSource(ctx, "demo", p)
		require.NoError(t, err, p)
		assert.NotEmpty(t, text)
	}

	text, err := e.GetSource(ctx, "demo", "pkg/../pkg/tools.py")
	require.NoError(t, err)
	assert.Equal(t, "def tool():\n    return 1\n", text)

	_, err = e.GetSource(ctx, "demo", "missing.py")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetSource_PathTraversal(t *testing.T) {
	e := demoEngine(t)
	for _, p := range []string{"../../etc/passwd", "/etc/passwd", "pkg/../../a.py", `..\..\secret`, ".."} {
		_, err := e.GetSource(context.Background(), "demo", p)
		assert.ErrorIs(t, err, ErrPathTraversal, p)
	}
}

func TestSearchCode_Modes(t *testing.T) {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {
		"b.py": "from agents import Agent\nagent = Agent(name='x')\nprint(agent)\n",
		"a.py": demoSource,
	}})
	ctx := context.Background()

	hits, err := e.SearchCode(ctx, "demo", "AGENT", Options{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Equal(t, "b.py", h.Path)
	}

	hits, err = e.SearchCode(ctx, "demo", "Agent", Options{CaseSensitive: true})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = e.SearchCode(ctx, "demo", `^class \w+:$`, Options{Mode: ModeRegex})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []int{1, 5}, []int{hits[0].Line, hits[1].Line})

	hits, err = e.SearchCode(ctx, "demo", "pass|agent", Options{Mode: ModeRegex})
	require.NoError(t, err)
	require.Len(t, hits, 5)
	assert.Equal(t, "a.py", hits[0].Path, "ordered by path first")
	assert.Equal(t, "b.py", hits[4].Path)

	_, err = e.SearchCode(ctx, "demo", "(", Options{Mode: ModeRegex})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	// Literal mode treats metacharacters as text.
	hits, err = e.SearchCode(ctx, "demo", "(self)", Options{})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = e.SearchCode(ctx, "demo", "", Options{})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestSearchCode_Limits(t *testing.T) {
	var b strings.Builder
	for range 30 {
		b.WriteString("token\n")
	}
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {
		"a.txt": b.String(),
		"b.txt": b.String(),
	}})
	ctx := context.Background()

	hits, err := e.SearchCode(ctx, "demo", "token", Options{MaxResults: 7})
	require.NoError(t, err)
	assert.Len(t, hits, 7)

	hits, err = e.SearchCode(ctx, "demo", "token", Options{MaxPerFile: 2})
	require.NoError(t, err)
	require.Len(t, hits, 4)
	assert.Equal(t, "b.txt", hits[2].Path)

	hits, err = e.SearchCode(ctx, "demo", "token", Options{MaxResults: 5000})
	require.NoError(t, err)
	assert.Len(t, hits, 60)
}

func TestSearchCode_Context(t *testing.T) {
	e := demoEngine(t)
	hits, err := e.SearchCode(context.Background(), "demo", "def bar", Options{ContextLines: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, []string{"class Foo:"}, hits[0].Before)
	assert.Equal(t, []string{"        pass"}, hits[0].After)
}

func TestSearchCode_SubstringAlwaysFound(t *testing.T) {
	e := demoEngine(t)
	for _, q := range []string{"Foo", "f bar(se", "class Baz", "    pass"} {
		hits, err := e.SearchCode(context.Background(), "demo", q, Options{})
		require.NoError(t, err)
		require.NotEmpty(t, hits, q)
		assert.Equal(t, "a.py", hits[0].Path)
	}
}

func TestGetClass_Determinism(t *testing.T) {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {
		"z/agent.py":  "class Agent:\n    z = 1\n",
		"a/agent.py":  "class Agent:\n    a = 1\n",
		"m/other.py":  "class agent:\n    lower = 1\n",
		"b/helper.py": "def Agent():\n    pass\n",
	}})
	ctx := context.Background()

	first, err := e.GetClass(ctx, "demo", "Agent")
	require.NoError(t, err)
	assert.Equal(t, "class Agent:\n    a = 1", first)
	for range 5 {
		again, err := e.GetClass(ctx, "demo", "Agent")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Exact match wins over an earlier case-insensitive one.
	lower, err := e.GetClass(ctx, "demo", "agent")
	require.NoError(t, err)
	assert.Equal(t, "class agent:\n    lower = 1", lower)

	folded, err := e.GetClass(ctx, "demo", "AGENT")
	require.NoError(t, err)
	assert.Equal(t, first, folded)

	_, err = e.GetClass(ctx, "demo", "Missing")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestGetSymbol(t *testing.T) {
	e := demoEngine(t)
	ctx := context.Background()

	m, err := e.GetSymbol(ctx, "demo", "Foo.bar", symbols.KindFunction)
	require.NoError(t, err)
	assert.Equal(t, "a.py", m.Path)
	assert.Equal(t, "def bar(self):\n        pass", m.Text)
	assert.Equal(t, 2, m.Symbol.StartLine)

	m, err = e.GetSymbol(ctx, "demo", "bar", "")
	require.NoError(t, err)
	assert.Equal(t, "Foo", m.Symbol.Parent)

	_, err = e.GetSymbol(ctx, "demo", "Foo", symbols.KindFunction)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

const runnerSource = `class Runner:
    def run(self, agent):
        return agent.invoke()


def run_agent(agent):
    runner = Runner()
    return runner.run(agent)


result = run_agent(my_agent)
`

func TestFindExamples(t *testing.T) {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {"runner.py": runnerSource}})
	ctx := context.Background()

	examples, err := e.FindExamples(ctx, "demo", "run_agent", 0)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	ex := examples[0]
	assert.Equal(t, "runner.py", ex.Path)
	assert.Empty(t, ex.Symbol)
	assert.Contains(t, ex.Text, "result = run_agent(my_agent)")
	assert.Equal(t, 8, ex.StartLine)

	examples, err = e.FindExamples(ctx, "demo", "Runner()", 0)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "run_agent", examples[0].Symbol)
	assert.True(t, strings.HasPrefix(examples[0].Text, "def run_agent(agent):"))

	examples, err = e.FindExamples(ctx, "demo", "agent", 2)
	require.NoError(t, err)
	assert.Len(t, examples, 2)
	assert.LessOrEqual(t, examples[0].StartLine, examples[1].StartLine)

	_, err = e.FindExamples(ctx, "demo", "  ", 0)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestFindExamples_HeaderUsesTopic(t *testing.T) {
	e, _ := newEngine(t, []string{"demo"}, map[string]map[string]string{"demo": {"runner.py": runnerSource}})
	ctx := context.Background()

	// A parameter named after the topic is a use, not a declaration.
	examples, err := e.FindExamples(ctx, "demo", "agent", 0)
	require.NoError(t, err)
	require.NotEmpty(t, examples)
	assert.Equal(t, "Runner.run", examples[0].Symbol)
	assert.Equal(t, 2, examples[0].StartLine)
	assert.True(t, strings.HasPrefix(examples[0].Text, "def run(self, agent):"))

	// The header that declares the topic itself is still skipped.
	examples, err = e.FindExamples(ctx, "demo", "Runner", 0)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, "run_agent", examples[0].Symbol)
}

func TestDeclares(t *testing.T) {
	tests := []struct {
		line, needle string
		want         bool
	}{
		{"class Runner:", "runner", true},
		{"    def run(self, agent):", "run", true},
		{"    def run(self, agent):", "agent", false},
		{"func (r *Runner) Run(ctx context.Context) error {", "run", true},
		{"func (r *Runner) Run(ctx context.Context) error {", "runner", false},
		{"export default class Agent extends Base {", "agent", true},
		{"runner = Runner()", "runner", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, declares(tt.line, tt.needle), "%q / %q", tt.line, tt.needle)
	}
}

func TestSearchAll(t *testing.T) {
	e, _ := newEngine(t, []string{"one", "two", "unfetched"}, map[string]map[string]string{
		"one": {"a.py": demoSource},
		"two": {"b.py": runnerSource},
	})
	ctx := context.Background()

	groups, err := e.SearchAll(ctx, "class", Options{})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "one", groups[0].SDK)
	assert.Len(t, groups[0].Hits, 2)
	assert.Equal(t, "two", groups[1].SDK)

	groups, err = e.SearchAll(ctx, "Runner", Options{CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "two", groups[0].SDK)

	_, err = e.SearchAll(ctx, "(", Options{Mode: ModeRegex})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestCompare(t *testing.T) {
	e, _ := newEngine(t, []string{"one", "two", "unfetched"}, map[string]map[string]string{
		"one": {"a.py": demoSource},
		"two": {"b.py": runnerSource},
	})

	comps, err := e.Compare(context.Background(), "runner", nil)
	require.NoError(t, err)
	require.Len(t, comps, 3)

	assert.Equal(t, "one", comps[0].SDK)
	assert.True(t, comps[0].Empty())

	two := comps[1]
	assert.Equal(t, []string{"Runner", "run_agent"}, two.Variants)
	require.Len(t, two.Classes, 1)
	assert.Equal(t, "Runner", two.Classes[0].Symbol.Name)
	require.Len(t, two.Functions, 1)
	assert.Equal(t, "run_agent", two.Functions[0].Symbol.Name)
	assert.NotEmpty(t, two.Examples)
	assert.LessOrEqual(t, len(two.Examples), compareExamples)

	assert.True(t, comps[2].Missing)
}

func TestInvalidateAfterRefetch(t *testing.T) {
	dataDir := t.TempDir()
	root := filepath.Join(dataDir, "demo")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte(demoSource), 0o644))

	reg, err := config.NewRegistry(config.SDK{ID: "demo", Source: config.Source{Type: config.SourceURL, URL: "https://example.com/demo.zip"}})
	require.NoError(t, err)
	cache := index.NewCache(func(ctx context.Context, id string) (*index.Index, error) {
		return index.Build(ctx, id, filepath.Join(dataDir, id), index.Options{})
	}, nil)
	e := NewEngine(reg, cache)
	ctx := context.Background()

	files, err := e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("x = 1\n"), 0o644))
	files, err = e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py"}, files, "served from the cached index")

	cache.Invalidate("demo")
	files, err = e.ListFiles(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, files)
}
