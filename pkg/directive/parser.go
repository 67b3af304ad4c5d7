package directive

import "strings"

// DefaultMaxDepth bounds how deeply directive blocks may nest. Opening
// markers past the limit are stripped rather than parsed, which keeps both
// parse and render stack usage bounded for pathological templates.
const DefaultMaxDepth = 64

// Parse parses a template string into a Document AST. It never fails:
// markers that do not conform to the directive grammar (unknown #kinds,
// stray closing tags, malformed paths, unclosed blocks) become StripNodes
// while the surrounding literal text is kept.
func Parse(src string) *Document {
	return parseDepth(src, DefaultMaxDepth)
}

func parseDepth(src string, maxDepth int) *Document {
	p := &parser{l: newLexer([]byte(src)), maxDepth: maxDepth}
	nodes, _ := p.parseNodes("", 0)
	return &Document{Nodes: nodes}
}

type parser struct {
	l        *lexer
	maxDepth int
}

// parseNodes parses until the closing marker named by `until` (e.g. "/if")
// is encountered. With until == "" it parses to EOF. closed reports whether
// the expected closing marker was seen; false means the input ended first.
func (p *parser) parseNodes(until string, depth int) (nodes []Node, closed bool) {
	for {
		tok := p.l.nextTokenOutside()
		switch tok.kind {
		case tokEOF:
			return nodes, false
		case tokText:
			if tok.val != "" {
				nodes = append(nodes, &TextNode{Text: tok.val})
			}
		case tokOpen:
			content, ok := p.readMarker()
			if !ok {
				// Unterminated marker: everything from {{ on is literal text.
				nodes = append(nodes, &TextNode{Text: "{{" + content})
				return nodes, false
			}
			switch {
			case strings.HasPrefix(content, "/"):
				if until != "" && content == until {
					return nodes, true
				}
				// Stray closing tag.
				nodes = append(nodes, &StripNode{Raw: content})
			case strings.HasPrefix(content, "#"):
				kind, path, okTag := splitBlockTag(content)
				if !okTag || depth+1 > p.maxDepth {
					nodes = append(nodes, &StripNode{Raw: content})
					continue
				}
				body, bodyClosed := p.parseNodes("/"+string(kind), depth+1)
				if bodyClosed {
					nodes = append(nodes, &BlockNode{Kind: kind, Path: path, Body: body})
					continue
				}
				// Unclosed block: strip the opener, keep its body inline.
				nodes = append(nodes, &StripNode{Raw: content})
				nodes = append(nodes, body...)
				return nodes, false
			default:
				if validPath(content) {
					nodes = append(nodes, &VarNode{Path: content})
				} else {
					nodes = append(nodes, &StripNode{Raw: content})
				}
			}
		}
	}
}

// readMarker reads marker content up to the closing }}. ok is false when the
// marker is unterminated; the partial content is returned either way.
func (p *parser) readMarker() (string, bool) {
	var b strings.Builder
	for {
		t := p.l.nextTokenInside()
		switch t.kind {
		case tokContent:
			b.WriteString(t.val)
		case tokClose:
			return b.String(), true
		case tokEOF:
			return b.String(), false
		}
	}
}

// splitBlockTag splits "#kind path" into a recognized block kind and a valid
// path. The grammar is strict: whitespace between kind and path, nothing
// else inside the marker.
func splitBlockTag(content string) (BlockKind, string, bool) {
	rest := content[1:]
	i := strings.IndexAny(rest, " \t\r\n")
	if i < 0 {
		return "", "", false
	}
	kind := BlockKind(rest[:i])
	switch kind {
	case KindIf, KindUnless, KindEach:
	default:
		return "", "", false
	}
	path := strings.TrimLeft(rest[i:], " \t\r\n")
	if !validPath(path) {
		return "", "", false
	}
	return kind, path, true
}
