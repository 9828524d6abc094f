// Package symbols extracts class and function definitions from source text.
//
// Files whose extension has a registered tree-sitter grammar are parsed with
// that grammar's definition query. Everything else goes through a line and
// indentation scanner. Neither path fails: text that cannot be understood
// simply yields no symbols.
package symbols

import "sort"

// Kind classifies a symbol.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
)

// Symbol is a named definition found inside a file.
type Symbol struct {
	Kind Kind
	Name string

	// Start and End are byte offsets into the file text, End exclusive.
	// The span includes leading decorators.
	Start int
	End   int

	// StartLine and EndLine are 1-based and inclusive.
	StartLine int
	EndLine   int

	// Parent is the qualified name of the enclosing symbol, if any.
	Parent string
}

// QualifiedName returns Parent.Name, or Name for top-level symbols.
func (s Symbol) QualifiedName() string {
	if s.Parent == "" {
		return s.Name
	}
	return s.Parent + "." + s.Name
}

// Text slices the symbol's span out of the owning file's text.
func (s Symbol) Text(src string) string {
	return src[s.Start:s.End]
}

// Contains reports whether byte offset off falls inside the span.
func (s Symbol) Contains(off int) bool {
	return off >= s.Start && off < s.End
}

// finalize sorts syms by position, clamps spans to the text, drops
// duplicates and assigns parents by containment.
func finalize(syms []Symbol, textLen int) []Symbol {
	kept := syms[:0]
	for _, s := range syms {
		if s.Start < 0 || s.Start >= s.End || s.End > textLen || s.Name == "" {
			continue
		}
		kept = append(kept, s)
	}
	syms = kept

	sort.SliceStable(syms, func(i, j int) bool {
		if syms[i].Start != syms[j].Start {
			return syms[i].Start < syms[j].Start
		}
		return syms[i].End > syms[j].End
	})

	out := make([]Symbol, 0, len(syms))
	var stack []Symbol
	for i, s := range syms {
		if i > 0 && s.Start == syms[i-1].Start && s.End == syms[i-1].End && s.Name == syms[i-1].Name {
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].End <= s.Start {
			stack = stack[:len(stack)-1]
		}
		s.Parent = ""
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.Start <= s.Start && s.End <= top.End {
				s.Parent = top.QualifiedName()
			}
		}
		out = append(out, s)
		stack = append(stack, s)
	}
	return out
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// line returns the 1-based line holding byte offset off.
func (li lineIndex) line(off int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > off })
}
