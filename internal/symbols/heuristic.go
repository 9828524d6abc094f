package symbols

import (
	"regexp"
	"strings"
)

// introducer matches a definition header: optional modifiers, a keyword and
// the defined name.
var introducer = regexp.MustCompile(
	`^[ \t]*(?:(?:export|default|public|private|protected|internal|static|abstract|final|sealed|async|pub|open|data|partial)[ \t]+)*` +
		`(class|interface|struct|trait|module|def|function|func|fn)[ \t]+([A-Za-z_$][\w$]*)`)

var keywordKinds = map[string]Kind{
	"class":     KindClass,
	"interface": KindClass,
	"struct":    KindClass,
	"trait":     KindClass,
	"module":    KindClass,
	"def":       KindFunction,
	"function":  KindFunction,
	"func":      KindFunction,
	"fn":        KindFunction,
}

const tabWidth = 4

type srcLine struct {
	start   int    // byte offset of the line
	text    string // without the trailing newline
	indent  int    // indentation width, tabs expanded
	lead    int    // bytes of leading whitespace
	blank   bool
	inQuote bool // line begins inside a triple-quoted string
}

// ExtractHeuristic finds definitions by indentation alone. A definition's
// span runs from its first decorator line to the last non-blank line before
// the next line indented at or left of the header; a closing `}` or `end` at
// the header's indentation is included.
func ExtractHeuristic(text string) []Symbol {
	return finalize(scanHeuristic(text), len(text))
}

func scanHeuristic(text string) []Symbol {
	lines := splitLines(text)
	var syms []Symbol

	for i, ln := range lines {
		if ln.blank || ln.inQuote {
			continue
		}
		m := introducer.FindStringSubmatch(ln.text)
		if m == nil {
			continue
		}
		kind := keywordKinds[m[1]]
		name := m[2]

		first := i
		for j := i - 1; j >= 0; j-- {
			prev := lines[j]
			if prev.blank || prev.inQuote || prev.indent != ln.indent || !strings.HasPrefix(strings.TrimSpace(prev.text), "@") {
				break
			}
			first = j
		}

		last := i
	body:
		for k := i + 1; k < len(lines); k++ {
			next := lines[k]
			if next.inQuote {
				last = k
				continue
			}
			if next.blank {
				continue
			}
			if next.indent > ln.indent {
				last = k
				continue
			}
			trimmed := strings.TrimSpace(next.text)
			switch {
			case strings.HasPrefix(trimmed, ")") || strings.HasPrefix(trimmed, "]"):
				// Closing bracket of a multi-line header, e.g. `):` or `) -> X:`.
				last = k
				if strings.HasSuffix(trimmed, ":") || strings.HasSuffix(trimmed, "{") {
					continue
				}
				break body
			case strings.HasPrefix(trimmed, "}"), trimmed == "end", strings.HasPrefix(trimmed, "end "):
				last = k
				break body
			}
			break
		}

		syms = append(syms, Symbol{
			Kind:      kind,
			Name:      name,
			Start:     lines[first].start + lines[first].lead,
			End:       lines[last].start + len(strings.TrimRight(lines[last].text, " \t\r")),
			StartLine: first + 1,
			EndLine:   last + 1,
		})
	}
	return syms
}

func splitLines(text string) []srcLine {
	var out []srcLine
	inQuote := false
	off := 0
	for off <= len(text) {
		nl := strings.IndexByte(text[off:], '\n')
		var raw string
		if nl < 0 {
			raw = text[off:]
		} else {
			raw = text[off : off+nl]
		}
		if nl < 0 && raw == "" && off > 0 {
			break
		}

		ln := srcLine{start: off, text: raw, inQuote: inQuote}
		trimmed := strings.TrimSpace(raw)
		ln.blank = trimmed == ""
		ln.lead = len(raw) - len(strings.TrimLeft(raw, " \t"))
		for _, r := range raw[:ln.lead] {
			if r == '\t' {
				ln.indent += tabWidth
			} else {
				ln.indent++
			}
		}
		out = append(out, ln)

		if (strings.Count(raw, `"""`)+strings.Count(raw, `'''`))%2 == 1 {
			inQuote = !inQuote
		}

		if nl < 0 {
			break
		}
		off += nl + 1
	}
	return out
}
