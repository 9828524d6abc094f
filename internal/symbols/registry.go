package symbols

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec defines the tree-sitter grammar and query for a language.
type LanguageSpec struct {
	Language *sitter.Language
	// Query is a tree-sitter S-expression query that captures definitions.
	// It must use @symbol for the definition node and @name for its
	// identifier.
	Query string
	// Kinds maps a captured node type to the symbol kind it produces.
	// Node types missing from the map are ignored.
	Kinds map[string]Kind
	// Wrappers are node types that, when they wrap exactly one definition,
	// extend its span (decorators, export statements, type declarations).
	Wrappers   []string
	Extensions []string
}

func (s *LanguageSpec) isWrapper(nodeType string) bool {
	for _, w := range s.Wrappers {
		if w == nodeType {
			return true
		}
	}
	return false
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*LanguageSpec // extension (without dot) → spec
	names map[*LanguageSpec]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]*LanguageSpec),
		names: make(map[*LanguageSpec]string),
	}
}

// Register adds a language spec under the given name.
func (r *Registry) Register(name string, spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[spec] = name
	for _, ext := range spec.Extensions {
		r.specs[ext] = spec
	}
}

// Lookup returns the spec for a file path based on its extension, or nil.
func (r *Registry) Lookup(path string) (spec *LanguageSpec, lang string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[ext]
	if !ok {
		return nil, ""
	}
	return s, r.names[s]
}

// LanguageName returns the language name for a file path, or "".
func (r *Registry) LanguageName(path string) string {
	_, lang := r.Lookup(path)
	return lang
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.specs))
	for ext := range r.specs {
		exts[ext] = true
	}
	return exts
}
