package languages

import (
	"sdkdocs/internal/symbols"

	"github.com/smacker/go-tree-sitter/golang"
)

// RegisterGo treats struct and interface types as classes.
func RegisterGo(r *symbols.Registry) {
	r.Register("go", &symbols.LanguageSpec{
		Language: golang.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @symbol
			(method_declaration name: (field_identifier) @name) @symbol
			(type_spec name: (type_identifier) @name type: (struct_type)) @symbol
			(type_spec name: (type_identifier) @name type: (interface_type)) @symbol
		`,
		Kinds: map[string]symbols.Kind{
			"function_declaration": symbols.KindFunction,
			"method_declaration":   symbols.KindFunction,
			"type_spec":            symbols.KindClass,
		},
		Wrappers:   []string{"type_declaration"},
		Extensions: []string{"go"},
	})
}
