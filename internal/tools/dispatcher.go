// Package tools exposes the search engine as MCP tools: five per configured
// SDK plus a few that span every SDK.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"sdkdocs/internal/config"
	"sdkdocs/internal/index"
	"sdkdocs/internal/logging"
	"sdkdocs/internal/search"
	"sdkdocs/internal/store"
	"sdkdocs/internal/symbols"
)

// Cross-SDK tool names.
const (
	ToolListSDKs  = "list_available_sdks"
	ToolSearchAll = "search_all_sdks"
	ToolCompare   = "compare_implementations"
)

const (
	defaultPerFile      = 10
	defaultContextLines = 1
	searchAllPerSDK     = 20
)

// route binds a tool name to an SDK and operation. Cross-SDK tools have an
// empty sdkID.
type route struct {
	sdkID string
	op    string
}

// Dispatcher routes tool calls to the search engine.
type Dispatcher struct {
	engine  *search.Engine
	cache   *index.Cache
	catalog store.Catalog
	logger  *slog.Logger
	routes  map[string]route
}

// NewDispatcher builds the route table from the engine's registry. The
// cache and catalog are used only for SDK status and may be nil.
func NewDispatcher(engine *search.Engine, cache *index.Cache, catalog store.Catalog, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		engine:  engine,
		cache:   cache,
		catalog: catalog,
		logger:  logging.OrDefault(logger),
		routes:  make(map[string]route),
	}
	for _, sdk := range engine.Registry().All() {
		for _, op := range config.Operations {
			d.routes[sdk.ToolName(op)] = route{sdkID: sdk.ID, op: op}
		}
	}
	for _, name := range []string{ToolListSDKs, ToolSearchAll, ToolCompare} {
		d.routes[name] = route{op: name}
	}
	return d
}

// Register adds every tool to s.
func (d *Dispatcher) Register(s *mcpserver.MCPServer) {
	s.AddTools(d.ServerTools()...)
}

// ServerTools returns the tool definitions, each bound to Handle.
func (d *Dispatcher) ServerTools() []mcpserver.ServerTool {
	var out []mcpserver.ServerTool
	for _, sdk := range d.engine.Registry().All() {
		for _, op := range config.Operations {
			out = append(out, mcpserver.ServerTool{Tool: sdkTool(sdk, op), Handler: d.Handle})
		}
	}
	for _, t := range []mcp.Tool{listSDKsTool(), searchAllTool(), compareTool()} {
		out = append(out, mcpserver.ServerTool{Tool: t, Handler: d.Handle})
	}
	return out
}

// Handle is the single tool handler. Failures are reported as tool error
// results, never as protocol errors.
func (d *Dispatcher) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	r, ok := d.routes[name]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool %q", name)), nil
	}

	start := time.Now()
	text, err := d.Dispatch(ctx, r.sdkID, r.op, req)
	logger := d.logger.With("tool", name, "elapsed", time.Since(start).Round(time.Microsecond))
	if err != nil {
		logger.Info("tool call failed", "err", err)
		return mcp.NewToolResultError(ErrorMessage(r.sdkID, err)), nil
	}
	logger.Debug("tool call")
	return mcp.NewToolResultText(text), nil
}

// Dispatch runs operation op for sdkID with the request's arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, sdkID, op string, req mcp.CallToolRequest) (string, error) {
	switch op {
	case config.OpListFiles:
		paths, err := d.engine.ListFiles(ctx, sdkID)
		if err != nil {
			return "", err
		}
		sdk, _ := d.engine.Registry().Lookup(sdkID)
		return FormatFiles(sdk.Name, paths), nil

	case config.OpGetSource:
		filename, err := req.RequireString("filename")
		if err != nil {
			return "", err
		}
		text, err := d.engine.GetSource(ctx, sdkID, filename)
		if err != nil {
			return "", err
		}
		return FormatSource(filename, text), nil

	case config.OpSearchCode:
		query, err := req.RequireString("query")
		if err != nil {
			return "", err
		}
		opts := searchOptions(req, search.DefaultMaxResults)
		hits, err := d.engine.SearchCode(ctx, sdkID, query, opts)
		if err != nil {
			return "", err
		}
		return FormatHits(query, hits, opts.MaxResults), nil

	case config.OpGetClass:
		name, err := req.RequireString("class_name")
		if err != nil {
			return "", err
		}
		m, err := d.engine.GetSymbol(ctx, sdkID, name, symbols.KindClass)
		if err != nil {
			return "", err
		}
		return FormatClass(m), nil

	case config.OpFindExamples:
		topic, err := req.RequireString("topic")
		if err != nil {
			return "", err
		}
		examples, err := d.engine.FindExamples(ctx, sdkID, topic, req.GetInt("max_results", search.DefaultExampleLimit))
		if err != nil {
			return "", err
		}
		return FormatExamples(topic, examples), nil

	case ToolListSDKs:
		return FormatSDKs(Statuses(d.engine.Registry(), d.catalog, d.cache)), nil

	case ToolSearchAll:
		query, err := req.RequireString("query")
		if err != nil {
			return "", err
		}
		opts := searchOptions(req, searchAllPerSDK)
		opts.ContextLines = 0
		groups, err := d.engine.SearchAll(ctx, query, opts)
		if err != nil {
			return "", err
		}
		return FormatSearchAll(query, groups), nil

	case ToolCompare:
		concept, err := req.RequireString("concept")
		if err != nil {
			return "", err
		}
		comps, err := d.engine.Compare(ctx, concept, req.GetStringSlice("sdk_ids", nil))
		if err != nil {
			return "", err
		}
		return FormatComparison(concept, comps), nil
	}
	return "", fmt.Errorf("unsupported operation %q", op)
}

func searchOptions(req mcp.CallToolRequest, defaultMax int) search.Options {
	opts := search.Options{
		CaseSensitive: req.GetBool("case_sensitive", false),
		MaxResults:    req.GetInt("max_results", defaultMax),
		MaxPerFile:    defaultPerFile,
		ContextLines:  req.GetInt("context_lines", defaultContextLines),
	}
	if req.GetBool("regex", false) {
		opts.Mode = search.ModeRegex
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMax
	}
	if opts.MaxResults > search.MaxResultsCap {
		opts.MaxResults = search.MaxResultsCap
	}
	return opts
}

// ErrorMessage turns an engine error into the text shown to the assistant.
func ErrorMessage(sdkID string, err error) string {
	if errors.Is(err, search.ErrStorageMissing) {
		return fmt.Sprintf("SDK %q has not been downloaded yet. Run `sdkdocs fetch %s` first.", sdkID, sdkID)
	}
	return err.Error()
}

// Statuses reports fetch and index state for every configured SDK.
func Statuses(reg *config.Registry, catalog store.Catalog, cache *index.Cache) []SDKStatus {
	out := make([]SDKStatus, 0, reg.Len())
	for _, sdk := range reg.All() {
		st := SDKStatus{
			ID:          sdk.ID,
			Name:        sdk.Name,
			Description: sdk.Description,
			Prefix:      sdk.Tools.Prefix,
		}
		if catalog != nil {
			if snap, err := catalog.LatestSnapshot(sdk.ID); err == nil && snap != nil {
				st.Fetched = true
				st.SourceRef = snap.SourceRef
				st.FetchedAt = snap.FetchedAt
				st.Files = snap.FileCount
				st.Bytes = snap.SizeBytes
				if fp, err := catalog.GetMeta(store.SelectionKey(sdk.ID)); err == nil && fp != "" {
					st.Stale = fp != sdk.Fingerprint()
				}
			}
		}
		if cache != nil {
			if ix := cache.Peek(sdk.ID); ix != nil {
				st.Indexed = true
				st.Symbols = ix.SymbolCount()
				if !st.Fetched {
					st.Fetched = true
					st.SourceRef = ix.Root
					st.FetchedAt = ix.BuiltAt
					st.Files = ix.Len()
				}
			}
		}
		out = append(out, st)
	}
	return out
}
