package symbols

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// parseTree runs spec's definition query over src and returns the raw
// (unsorted, parentless) symbols.
func parseTree(ctx context.Context, spec *LanguageSpec, src []byte) ([]Symbol, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	lines := newLineIndex(string(src))
	var syms []Symbol
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var defNode *sitter.Node
		var name string
		for _, c := range m.Captures {
			switch q.CaptureNameForId(c.Index) {
			case "symbol":
				defNode = c.Node
			case "name":
				name = c.Node.Content(src)
			}
		}
		if defNode == nil || name == "" {
			continue
		}
		kind, ok := spec.Kinds[defNode.Type()]
		if !ok {
			continue
		}

		start := int(defNode.StartByte())
		end := int(defNode.EndByte())
		if w := wrapperOf(spec, defNode); w != nil {
			start = int(w.StartByte())
			if e := int(w.EndByte()); e > end {
				end = e
			}
		}

		for end > start && isSpace(src[end-1]) {
			end--
		}

		syms = append(syms, Symbol{
			Kind:      kind,
			Name:      name,
			Start:     start,
			End:       end,
			StartLine: lines.line(start),
			EndLine:   lines.line(end - 1),
		})
	}
	return syms, nil
}

// wrapperOf returns the node that wraps n when that wrapper holds n as its
// only definition of n's type, e.g. a decorated_definition around one class.
// Grouped declarations such as `type ( A struct{}; B struct{} )` are left
// alone so each member keeps its own span.
func wrapperOf(spec *LanguageSpec, n *sitter.Node) *sitter.Node {
	p := n.Parent()
	if p == nil || !spec.isWrapper(p.Type()) {
		return nil
	}
	same := 0
	for i := 0; i < int(p.NamedChildCount()); i++ {
		if c := p.NamedChild(i); c != nil && c.Type() == n.Type() {
			same++
		}
	}
	if same != 1 {
		return nil
	}
	return p
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
