package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"sdkdocs/internal/index"
)

// Mode selects how a search query is interpreted.
type Mode int

const (
	// ModeLiteral matches the query as a plain substring.
	ModeLiteral Mode = iota
	// ModeRegex compiles the query as an RE2 expression.
	ModeRegex
)

func (m Mode) String() string {
	if m == ModeRegex {
		return "regex"
	}
	return "literal"
}

const (
	DefaultMaxResults = 100
	MaxResultsCap     = 1000
)

// Options tune SearchCode. The zero value is a case-insensitive literal
// search returning up to DefaultMaxResults hits without context.
type Options struct {
	Mode          Mode
	CaseSensitive bool
	// MaxResults bounds the total hits; zero means DefaultMaxResults and
	// values above MaxResultsCap are clamped.
	MaxResults int
	// MaxPerFile bounds the hits taken from one file; zero means no bound.
	MaxPerFile int
	// ContextLines is the number of lines kept before and after each hit.
	ContextLines int
}

func (o Options) limit() int {
	switch {
	case o.MaxResults <= 0:
		return DefaultMaxResults
	case o.MaxResults > MaxResultsCap:
		return MaxResultsCap
	}
	return o.MaxResults
}

// Hit is one matching line.
type Hit struct {
	Path   string
	Line   int // 1-based
	Column int // 1-based byte column of the first match
	Text   string
	Before []string
	After  []string
	// Symbol is the qualified name of the innermost enclosing definition.
	Symbol string
}

type matcher func(line string) int

func compileMatcher(query string, opts Options) (matcher, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidPattern)
	}
	if opts.Mode == ModeLiteral && opts.CaseSensitive {
		return func(line string) int { return strings.Index(line, query) }, nil
	}

	expr := query
	if opts.Mode == ModeLiteral {
		expr = regexp.QuoteMeta(query)
	}
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return func(line string) int {
		loc := re.FindStringIndex(line)
		if loc == nil {
			return -1
		}
		return loc[0]
	}, nil
}

// SearchCode scans every stored file of sdkID line by line and returns the
// matching lines ordered by path, then line.
func (e *Engine) SearchCode(ctx context.Context, sdkID, query string, opts Options) ([]Hit, error) {
	if _, err := e.sdk(sdkID); err != nil {
		return nil, err
	}
	match, err := compileMatcher(query, opts)
	if err != nil {
		return nil, err
	}
	ix, err := e.indexes.Get(ctx, sdkID)
	if err != nil {
		return nil, err
	}
	return scanIndex(ix, match, opts), nil
}

func scanIndex(ix *index.Index, match matcher, opts Options) []Hit {
	limit := opts.limit()
	var hits []Hit
	for _, f := range ix.Files() {
		lines := splitLines(f.Text)
		inFile := 0
		for i, ln := range lines {
			col := match(ln.text)
			if col < 0 {
				continue
			}
			h := Hit{
				Path:   f.Path,
				Line:   i + 1,
				Column: col + 1,
				Text:   ln.text,
			}
			if s, ok := f.Innermost(ln.start + col); ok {
				h.Symbol = s.QualifiedName()
			}
			if n := opts.ContextLines; n > 0 {
				h.Before = lineTexts(lines[max(0, i-n):i])
				h.After = lineTexts(lines[i+1 : min(len(lines), i+1+n)])
			}
			hits = append(hits, h)
			if len(hits) >= limit {
				return hits
			}
			inFile++
			if opts.MaxPerFile > 0 && inFile >= opts.MaxPerFile {
				break
			}
		}
	}
	return hits
}

// SDKHits groups the hits found in one SDK.
type SDKHits struct {
	SDK  string
	Name string
	Hits []Hit
	Err  error
}

// SearchAll runs SearchCode against every fetched SDK in registry order.
// SDKs without storage are skipped; other per-SDK failures are reported in
// the group's Err. Only groups with hits or errors are returned.
func (e *Engine) SearchAll(ctx context.Context, query string, opts Options) ([]SDKHits, error) {
	if _, err := compileMatcher(query, opts); err != nil {
		return nil, err
	}
	var out []SDKHits
	for _, sdk := range e.registry.All() {
		hits, err := e.SearchCode(ctx, sdk.ID, query, opts)
		switch {
		case errors.Is(err, ErrStorageMissing):
			continue
		case err != nil:
			out = append(out, SDKHits{SDK: sdk.ID, Name: sdk.Name, Err: err})
		case len(hits) > 0:
			out = append(out, SDKHits{SDK: sdk.ID, Name: sdk.Name, Hits: hits})
		}
	}
	return out, nil
}

type textLine struct {
	start int // byte offset in the file
	text  string
}

// splitLines breaks text on \n, dropping a trailing \r from each line.
func splitLines(text string) []textLine {
	var lines []textLine
	start := 0
	for start < len(text) {
		end := strings.IndexByte(text[start:], '\n')
		next := len(text)
		if end >= 0 {
			end += start
			next = end + 1
		} else {
			end = len(text)
		}
		lines = append(lines, textLine{start: start, text: strings.TrimSuffix(text[start:end], "\r")})
		start = next
	}
	return lines
}

func lineTexts(lines []textLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}
