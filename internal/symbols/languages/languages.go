// Package languages registers the tree-sitter grammars sdkdocs ships with.
package languages

import "sdkdocs/internal/symbols"

// Default returns a registry with every bundled grammar.
func Default() *symbols.Registry {
	reg := symbols.NewRegistry()
	RegisterPython(reg)
	RegisterGo(reg)
	RegisterJavaScript(reg)
	RegisterTypeScript(reg)
	return reg
}
