package search

import (
	"context"
	"fmt"
	"strings"

	"sdkdocs/internal/index"
	"sdkdocs/internal/symbols"
)

// Match is a definition found by symbol lookup.
type Match struct {
	Path   string
	Symbol symbols.Symbol
	Text   string
}

// GetClass returns the exact source of the first class named name.
func (e *Engine) GetClass(ctx context.Context, sdkID, name string) (string, error) {
	m, err := e.GetSymbol(ctx, sdkID, name, symbols.KindClass)
	if err != nil {
		return "", err
	}
	return m.Text, nil
}

// GetSymbol finds the first definition named name of the given kind (any
// kind when kind is empty). Files are visited in path order and symbols in
// source order; an exact match anywhere beats a case-insensitive one. A
// dotted name such as "Foo.bar" matches the qualified name.
func (e *Engine) GetSymbol(ctx context.Context, sdkID, name string, kind symbols.Kind) (Match, error) {
	ix, err := e.index(ctx, sdkID)
	if err != nil {
		return Match{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Match{}, fmt.Errorf("%w: empty name", ErrSymbolNotFound)
	}

	if m, ok := findSymbol(ix, kind, func(s symbols.Symbol) bool {
		return s.Name == name || s.QualifiedName() == name
	}); ok {
		return m, nil
	}
	if m, ok := findSymbol(ix, kind, func(s symbols.Symbol) bool {
		return strings.EqualFold(s.Name, name) || strings.EqualFold(s.QualifiedName(), name)
	}); ok {
		return m, nil
	}

	what := "symbol"
	if kind != "" {
		what = string(kind)
	}
	return Match{}, fmt.Errorf("%w: no %s named %q in %s", ErrSymbolNotFound, what, name, sdkID)
}

func findSymbol(ix *index.Index, kind symbols.Kind, pred func(symbols.Symbol) bool) (Match, bool) {
	for _, f := range ix.Files() {
		for _, s := range f.Symbols {
			if kind != "" && s.Kind != kind {
				continue
			}
			if pred(s) {
				return Match{Path: f.Path, Symbol: s, Text: f.SymbolText(s)}, true
			}
		}
	}
	return Match{}, false
}
