package languages

import (
	"sdkdocs/internal/symbols"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *symbols.Registry) {
	r.Register("python", &symbols.LanguageSpec{
		Language: python.GetLanguage(),
		Query: `
			(class_definition name: (identifier) @name) @symbol
			(function_definition name: (identifier) @name) @symbol
		`,
		Kinds: map[string]symbols.Kind{
			"class_definition":    symbols.KindClass,
			"function_definition": symbols.KindFunction,
		},
		Wrappers:   []string{"decorated_definition"},
		Extensions: []string{"py", "pyi"},
	})
}
