package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdkdocs/internal/config"
	"sdkdocs/internal/store"
)

func githubServer(t *testing.T, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/repos/example/agents/tarball/main" {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func agentsSDK() config.SDK {
	return config.SDK{
		ID:              "agents",
		Source:          config.Source{Type: config.SourceGitHub, Repo: "example/agents", Branch: "main", Path: "src/agents"},
		FilePatterns:    []string{"**/*.py"},
		ExcludePatterns: []string{"**/test_*.py"},
	}
}

var agentsTarball = []entry{
	{name: "example-agents-1a2b3c/", dir: true},
	{name: "example-agents-1a2b3c/README.md", body: "# agents\n"},
	{name: "example-agents-1a2b3c/src/agents/__init__.py", body: "from .agent import Agent\n"},
	{name: "example-agents-1a2b3c/src/agents/agent.py", body: "class Agent:\n    pass\n"},
	{name: "example-agents-1a2b3c/src/agents/test_agent.py", body: "def test_x():\n    pass\n"},
	{name: "example-agents-1a2b3c/src/agents/tools/fn.py", body: "def tool():\n    pass\n"},
}

func newTestFetcher(t *testing.T, srvURL string, cat store.Catalog) (*Fetcher, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		DataDir:      filepath.Join(dir, "data"),
		CacheDir:     filepath.Join(dir, "cache"),
		CacheTTL:     time.Hour,
		GitHubAPIURL: srvURL,
		GitHubToken:  "secret",
		Catalog:      cat,
	}
	return New(cfg), cfg
}

func TestFetch_GitHub(t *testing.T) {
	srv, hits := githubServer(t, tarGz(t, agentsTarball))
	cat, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	var stages []string
	f, cfg := newTestFetcher(t, srv.URL, cat)
	f.cfg.OnProgress = func(ev Event) { stages = append(stages, ev.Stage) }

	res, err := f.Fetch(context.Background(), agentsSDK(), false)
	require.NoError(t, err)
	assert.Equal(t, "example/agents@main", res.SourceRef)
	assert.Equal(t, 3, res.Files)
	assert.False(t, res.FromCache)
	assert.EqualValues(t, 1, hits.Load())
	assert.Equal(t, []string{StageDownload, StageCopy, StageDone}, stages)

	assert.Equal(t, map[string]string{
		"__init__.py": "from .agent import Agent\n",
		"agent.py":    "class Agent:\n    pass\n",
		"tools/fn.py": "def tool():\n    pass\n",
	}, readTree(t, filepath.Join(cfg.DataDir, "agents")))

	snap, err := cat.LatestSnapshot("agents")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 3, snap.FileCount)
	records, err := cat.ListFiles("agents")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "__init__.py", records[0].Path)
	assert.Len(t, records[0].Hash, 64)

	// No temporary directories are left behind.
	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"agents"}, names)
}

func TestFetch_ReusesFreshCache(t *testing.T) {
	srv, hits := githubServer(t, tarGz(t, agentsTarball))
	f, _ := newTestFetcher(t, srv.URL, nil)
	ctx := context.Background()

	_, err := f.Fetch(ctx, agentsSDK(), false)
	require.NoError(t, err)
	res, err := f.Fetch(ctx, agentsSDK(), false)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, "example/agents@main", res.SourceRef)
	assert.EqualValues(t, 1, hits.Load())

	res, err = f.Fetch(ctx, agentsSDK(), true)
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetch_ReplacesPreviousSnapshot(t *testing.T) {
	srv, _ := githubServer(t, tarGz(t, agentsTarball))
	f, cfg := newTestFetcher(t, srv.URL, nil)

	stale := filepath.Join(cfg.DataDir, "agents", "removed_upstream.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old\n"), 0o644))

	_, err := f.Fetch(context.Background(), agentsSDK(), false)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(cfg.DataDir, "agents", "agent.py"))
}

func TestFetch_FailureKeepsStorage(t *testing.T) {
	srv, _ := githubServer(t, tarGz(t, agentsTarball))
	f, cfg := newTestFetcher(t, srv.URL, nil)

	existing := filepath.Join(cfg.DataDir, "agents", "agent.py")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.NoError(t, os.WriteFile(existing, []byte("kept\n"), 0o644))

	sdk := agentsSDK()
	sdk.Source.Repo = "example/missing"
	_, err := f.Fetch(context.Background(), sdk, false)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)

	b, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(b))
}

func TestFetch_NoMatchingFiles(t *testing.T) {
	srv, _ := githubServer(t, tarGz(t, agentsTarball))
	f, _ := newTestFetcher(t, srv.URL, nil)

	sdk := agentsSDK()
	sdk.FilePatterns = []string{"**/*.rs"}
	_, err := f.Fetch(context.Background(), sdk, false)
	assert.ErrorContains(t, err, "no files matched")
}

func TestFetch_URLZip(t *testing.T) {
	body := zipBytes(t, []entry{
		{name: "sdk-1.0/pkg/client.py", body: "class Client:\n    pass\n"},
		{name: "sdk-1.0/pkg/data.json", body: "{}"},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	f, cfg := newTestFetcher(t, "", nil)
	sdk := config.SDK{
		ID:           "zipped",
		Source:       config.Source{Type: config.SourceURL, URL: srv.URL + "/downloads/sdk-1.0.zip", Path: "pkg"},
		FilePatterns: []string{"*.py"},
	}
	res, err := f.Fetch(context.Background(), sdk, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, map[string]string{"client.py": "class Client:\n    pass\n"}, readTree(t, filepath.Join(cfg.DataDir, "zipped")))
}

func TestFetch_UnknownSource(t *testing.T) {
	f, _ := newTestFetcher(t, "", nil)
	_, err := f.Fetch(context.Background(), config.SDK{ID: "x", Source: config.Source{Type: "ftp"}}, false)
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestFetchAll_ContinuesAfterFailure(t *testing.T) {
	srv, _ := githubServer(t, tarGz(t, agentsTarball))
	f, cfg := newTestFetcher(t, srv.URL, nil)

	broken := agentsSDK()
	broken.ID = "broken"
	broken.Source.Repo = "example/missing"

	var seen []string
	err := f.FetchAll(context.Background(), []config.SDK{broken, agentsSDK()}, false, func(sdk config.SDK, _ *Result, _ error) {
		seen = append(seen, sdk.ID)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"broken", "agents"}, seen)
	assert.DirExists(t, filepath.Join(cfg.DataDir, "agents"))
}

func TestFetch_RecordsSelectionAndRemove(t *testing.T) {
	srv, _ := githubServer(t, tarGz(t, agentsTarball))
	cat, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()
	f, cfg := newTestFetcher(t, srv.URL, cat)
	sdk := agentsSDK()

	_, err = f.Fetch(context.Background(), sdk, false)
	require.NoError(t, err)
	fp, err := cat.GetMeta(store.SelectionKey("agents"))
	require.NoError(t, err)
	assert.Equal(t, sdk.Fingerprint(), fp)

	require.NoError(t, f.Remove("agents"))
	assert.NoDirExists(t, filepath.Join(cfg.DataDir, "agents"))
	snap, err := cat.LatestSnapshot("agents")
	require.NoError(t, err)
	assert.Nil(t, snap)
	records, err := cat.ListFiles("agents")
	require.NoError(t, err)
	assert.Empty(t, records)
	fp, err = cat.GetMeta(store.SelectionKey("agents"))
	require.NoError(t, err)
	assert.Empty(t, fp)

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Removing again is a no-op.
	require.NoError(t, f.Remove("agents"))
}
