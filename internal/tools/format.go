package tools

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"sdkdocs/internal/search"
)

var fenceLanguages = map[string]string{
	".py":   "python",
	".pyi":  "python",
	".go":   "go",
	".js":   "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".rb":   "ruby",
	".rs":   "rust",
	".java": "java",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
}

// FenceLanguage returns the markdown code fence tag for a file path.
func FenceLanguage(p string) string {
	return fenceLanguages[strings.ToLower(path.Ext(p))]
}

func fence(lang, body string) string {
	ticks := "```"
	for strings.Contains(body, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + strings.TrimRight(body, "\n") + "\n" + ticks + "\n"
}

// FormatFiles renders a file listing.
func FormatFiles(sdkName string, paths []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s source files (%d)\n\n", sdkName, len(paths))
	for _, p := range paths {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	return sb.String()
}

// FormatSource renders a whole file.
func FormatSource(p, text string) string {
	return fmt.Sprintf("## `%s`\n\n%s", p, fence(FenceLanguage(p), text))
}

// FormatHits renders search results grouped by file.
func FormatHits(query string, hits []search.Hit, limit int) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No matches for %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Matches for %q (%d", query, len(hits))
	if limit > 0 && len(hits) >= limit {
		sb.WriteString(", limit reached")
	}
	sb.WriteString(")\n")

	current := ""
	for _, h := range hits {
		if h.Path != current {
			current = h.Path
			fmt.Fprintf(&sb, "\n### %s\n\n", h.Path)
		}
		where := ""
		if h.Symbol != "" {
			where = fmt.Sprintf(" in `%s`", h.Symbol)
		}
		if len(h.Before) == 0 && len(h.After) == 0 {
			fmt.Fprintf(&sb, "- Line %d%s: `%s`\n", h.Line, where, strings.TrimSpace(h.Text))
			continue
		}
		fmt.Fprintf(&sb, "Line %d%s:\n", h.Line, where)
		var block strings.Builder
		first := h.Line - len(h.Before)
		for i, l := range h.Before {
			fmt.Fprintf(&block, "%5d  %s\n", first+i, l)
		}
		fmt.Fprintf(&block, "%5d> %s\n", h.Line, h.Text)
		for i, l := range h.After {
			fmt.Fprintf(&block, "%5d  %s\n", h.Line+1+i, l)
		}
		sb.WriteString(fence(FenceLanguage(h.Path), block.String()))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatClass renders a symbol's source.
func FormatClass(m search.Match) string {
	return fmt.Sprintf("## %s `%s`\n\n%s, lines %d-%d\n\n%s",
		m.Symbol.Kind, m.Symbol.QualifiedName(), m.Path, m.Symbol.StartLine, m.Symbol.EndLine,
		fence(FenceLanguage(m.Path), m.Text))
}

// FormatExamples renders usage examples.
func FormatExamples(topic string, examples []search.Example) string {
	if len(examples) == 0 {
		return fmt.Sprintf("No examples found for %q.", topic)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Examples for %q (%d)\n", topic, len(examples))
	for _, ex := range examples {
		fmt.Fprintf(&sb, "\n### %s:%d-%d", ex.Path, ex.StartLine, ex.EndLine)
		if ex.Symbol != "" {
			fmt.Fprintf(&sb, " (`%s`)", ex.Symbol)
		}
		sb.WriteString("\n\n")
		sb.WriteString(fence(FenceLanguage(ex.Path), ex.Text))
	}
	return sb.String()
}

// FormatSearchAll renders per-SDK search results.
func FormatSearchAll(query string, groups []search.SDKHits) string {
	if len(groups) == 0 {
		return fmt.Sprintf("No matches for %q in any downloaded SDK.", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Matches for %q across SDKs\n", query)
	for _, g := range groups {
		fmt.Fprintf(&sb, "\n## %s (`%s`)\n\n", g.Name, g.SDK)
		if g.Err != nil {
			fmt.Fprintf(&sb, "Error: %s\n", ErrorMessage(g.SDK, g.Err))
			continue
		}
		current := ""
		for _, h := range g.Hits {
			if h.Path != current {
				current = h.Path
				fmt.Fprintf(&sb, "**%s**\n", h.Path)
			}
			fmt.Fprintf(&sb, "- Line %d: `%s`\n", h.Line, strings.TrimSpace(h.Text))
		}
	}
	return sb.String()
}

// FormatComparison renders how each SDK implements a concept.
func FormatComparison(concept string, comps []search.Comparison) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Implementations of %q\n", concept)
	for _, c := range comps {
		fmt.Fprintf(&sb, "\n## %s (`%s`)\n\n", c.Name, c.SDK)
		switch {
		case c.Missing:
			fmt.Fprintf(&sb, "Not downloaded. Run `sdkdocs fetch %s` first.\n", c.SDK)
			continue
		case c.Empty():
			fmt.Fprintf(&sb, "Nothing found for %s.\n", strings.Join(c.Variants, ", "))
			continue
		}
		for _, m := range c.Classes {
			fmt.Fprintf(&sb, "### class `%s` (%s:%d)\n\n%s\n", m.Symbol.QualifiedName(), m.Path, m.Symbol.StartLine, fence(FenceLanguage(m.Path), m.Text))
		}
		for _, m := range c.Functions {
			fmt.Fprintf(&sb, "### function `%s` (%s:%d)\n\n%s\n", m.Symbol.QualifiedName(), m.Path, m.Symbol.StartLine, fence(FenceLanguage(m.Path), m.Text))
		}
		if len(c.Examples) > 0 {
			sb.WriteString("### Examples\n\n")
			for _, ex := range c.Examples {
				fmt.Fprintf(&sb, "%s:%d-%d\n\n%s\n", ex.Path, ex.StartLine, ex.EndLine, fence(FenceLanguage(ex.Path), ex.Text))
			}
		}
	}
	return sb.String()
}

// SDKStatus describes one configured SDK for listings.
type SDKStatus struct {
	ID          string
	Name        string
	Description string
	Prefix      string
	SourceRef   string
	Fetched     bool
	FetchedAt   time.Time
	Files       int
	Bytes       int64
	Indexed     bool
	Symbols     int
	// Stale is set when the SDK's source or file patterns changed after
	// the stored snapshot was fetched.
	Stale bool
}

// FormatSDKs renders the list of configured SDKs.
func FormatSDKs(sdks []SDKStatus) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Available SDKs (%d)\n", len(sdks))
	for _, s := range sdks {
		fmt.Fprintf(&sb, "\n### %s (`%s`)\n\n", s.Name, s.ID)
		if s.Description != "" {
			fmt.Fprintf(&sb, "%s\n\n", s.Description)
		}
		fmt.Fprintf(&sb, "- Tools: `%s_list_files`, `%s_get_source`, `%s_search_code`, `%s_get_class`, `%s_find_examples`\n",
			s.Prefix, s.Prefix, s.Prefix, s.Prefix, s.Prefix)
		if !s.Fetched {
			fmt.Fprintf(&sb, "- Status: not downloaded (run `sdkdocs fetch %s`)\n", s.ID)
			continue
		}
		fmt.Fprintf(&sb, "- Source: %s\n", s.SourceRef)
		fmt.Fprintf(&sb, "- Files: %d (%s), fetched %s\n", s.Files, humanize.Bytes(uint64(s.Bytes)), humanize.Time(s.FetchedAt))
		if s.Stale {
			fmt.Fprintf(&sb, "- Status: sdks.yaml changed since this fetch (run `sdkdocs fetch %s`)\n", s.ID)
		}
		if s.Indexed {
			fmt.Fprintf(&sb, "- Index: loaded, %d symbols\n", s.Symbols)
		}
	}
	return sb.String()
}
