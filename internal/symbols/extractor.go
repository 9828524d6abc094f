package symbols

import (
	"context"
	"log/slog"

	"sdkdocs/internal/logging"
)

// Extractor picks tree-sitter or the indentation scanner per file.
type Extractor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExtractor creates an extractor backed by the given registry. A nil
// registry means every file goes through the indentation scanner.
func NewExtractor(r *Registry, logger *slog.Logger) *Extractor {
	if r == nil {
		r = NewRegistry()
	}
	return &Extractor{registry: r, logger: logging.OrDefault(logger)}
}

// Language returns the grammar name used for path, or "" when the
// indentation scanner applies.
func (x *Extractor) Language(path string) string {
	return x.registry.LanguageName(path)
}

// Extract returns the definitions in src ordered by position, with parents
// assigned. It never fails; unparseable input yields no symbols.
func (x *Extractor) Extract(ctx context.Context, path string, src []byte) (syms []Symbol) {
	defer func() {
		if r := recover(); r != nil {
			x.logger.Warn("symbol extraction panicked", "path", path, "panic", r)
			syms = nil
		}
	}()

	spec, lang := x.registry.Lookup(path)
	if spec == nil {
		return ExtractHeuristic(string(src))
	}

	raw, err := parseTree(ctx, spec, src)
	if err != nil {
		x.logger.Debug("tree-sitter parse failed", "path", path, "language", lang, "err", err)
		return nil
	}
	return finalize(raw, len(src))
}
