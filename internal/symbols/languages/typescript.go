package languages

import (
	"sdkdocs/internal/symbols"

	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func RegisterTypeScript(r *symbols.Registry) {
	r.Register("typescript", &symbols.LanguageSpec{
		Language: typescript.GetLanguage(),
		Query: `
			(class_declaration name: (type_identifier) @name) @symbol
			(abstract_class_declaration name: (type_identifier) @name) @symbol
			(interface_declaration name: (type_identifier) @name) @symbol
			(function_declaration name: (identifier) @name) @symbol
			(method_definition name: (property_identifier) @name) @symbol
		`,
		Kinds: map[string]symbols.Kind{
			"class_declaration":          symbols.KindClass,
			"abstract_class_declaration": symbols.KindClass,
			"interface_declaration":      symbols.KindClass,
			"function_declaration":       symbols.KindFunction,
			"method_definition":          symbols.KindFunction,
		},
		Wrappers:   []string{"export_statement"},
		Extensions: []string{"ts", "tsx"},
	})
}
