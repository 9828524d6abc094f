package languages

import (
	"sdkdocs/internal/symbols"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *symbols.Registry) {
	r.Register("javascript", &symbols.LanguageSpec{
		Language: javascript.GetLanguage(),
		Query: `
			(class_declaration name: (identifier) @name) @symbol
			(function_declaration name: (identifier) @name) @symbol
			(method_definition name: (property_identifier) @name) @symbol
		`,
		Kinds: map[string]symbols.Kind{
			"class_declaration":    symbols.KindClass,
			"function_declaration": symbols.KindFunction,
			"method_definition":    symbols.KindFunction,
		},
		Wrappers:   []string{"export_statement"},
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
	})
}
