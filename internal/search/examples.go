package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"sdkdocs/internal/index"
)

const (
	DefaultExampleLimit = 10
	// exampleWindow is the number of lines kept on each side of a match
	// that lies outside every definition.
	exampleWindow = 3
	// maxExampleLines caps an enclosing definition returned whole; larger
	// ones fall back to the window.
	maxExampleLines = 80
)

// headerRe recognises the line that introduces a definition and captures
// the declared name. A Go method receiver is skipped over.
var headerRe = regexp.MustCompile(`^\s*(?:(?:export|default|public|private|protected|static|abstract|async|pub)\s+)*(?:class|def|function|func|fn|interface|struct|trait|module|type)\s+(?:\([^)]*\)\s*)?([A-Za-z_$][\w$]*)`)

// Example is a short block of code that uses a topic.
type Example struct {
	Path      string
	StartLine int
	EndLine   int
	Symbol    string // enclosing definition, "" for a line window
	Text      string
}

// FindExamples returns code blocks that mention topic outside of the
// headers that define it: the innermost enclosing definition when the use
// sits inside one, else a window of lines around it. Results are ordered
// by path and line and capped at limit (DefaultExampleLimit when <= 0).
func (e *Engine) FindExamples(ctx context.Context, sdkID, topic string, limit int) ([]Example, error) {
	if _, err := e.sdk(sdkID); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrInvalidPattern)
	}
	if limit <= 0 {
		limit = DefaultExampleLimit
	}
	ix, err := e.indexes.Get(ctx, sdkID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(topic)
	var out []Example
	for _, f := range ix.Files() {
		for _, ex := range fileExamples(f, needle) {
			out = append(out, ex)
			if len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func fileExamples(f *index.File, needle string) []Example {
	lines := splitLines(f.Text)
	seen := make(map[[2]int]bool)
	var out []Example
	for i, ln := range lines {
		col := strings.Index(strings.ToLower(ln.text), needle)
		if col < 0 || declares(ln.text, needle) {
			continue
		}

		var ex Example
		s, ok := f.Innermost(ln.start + col)
		if ok && s.EndLine-s.StartLine < maxExampleLines {
			ex = Example{
				Path:      f.Path,
				StartLine: s.StartLine,
				EndLine:   s.EndLine,
				Symbol:    s.QualifiedName(),
				Text:      f.SymbolText(s),
			}
		} else {
			from := max(0, i-exampleWindow)
			to := min(len(lines), i+exampleWindow+1)
			ex = Example{
				Path:      f.Path,
				StartLine: from + 1,
				EndLine:   to,
				Text:      strings.Join(lineTexts(lines[from:to]), "\n"),
			}
			if ok {
				ex.Symbol = s.QualifiedName()
			}
		}

		key := [2]int{ex.StartLine, ex.EndLine}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ex)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].StartLine < out[b].StartLine })
	return out
}

// declares reports whether line is the header of a definition named
// needle. Other headers that mention needle, e.g. as a parameter, are uses.
func declares(line, needle string) bool {
	m := headerRe.FindStringSubmatch(line)
	return m != nil && strings.ToLower(m[1]) == needle
}
