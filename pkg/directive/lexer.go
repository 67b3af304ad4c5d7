package directive

// The lexer scans template source and yields tokens for literal text and the
// single delimiter pair {{ }} used by all directive forms.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokOpen    // {{
	tokClose   // }}
	tokContent // content inside a marker (parser requests it)
)

type token struct {
	kind tokenKind
	val  string
	pos  int // byte offset in source
}

type lexer struct {
	src []byte
	i   int
	n   int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, n: len(src)}
}

// nextTokenOutside scans in normal text context and emits either a text token
// up to the next opening delimiter, or an opening delimiter token, or EOF.
func (l *lexer) nextTokenOutside() token {
	if l.i >= l.n {
		return token{kind: tokEOF, pos: l.i}
	}
	start := l.i
	for l.i < l.n {
		if l.i+2 <= l.n && l.src[l.i] == '{' && l.src[l.i+1] == '{' {
			if l.i > start {
				return token{kind: tokText, val: string(l.src[start:l.i]), pos: start}
			}
			l.i += 2
			return token{kind: tokOpen, pos: start}
		}
		l.i++
	}
	// Trailing text, then EOF on the next call.
	if start < l.n {
		return token{kind: tokText, val: string(l.src[start:l.n]), pos: start}
	}
	return token{kind: tokEOF, pos: l.i}
}

// nextTokenInside scans inside a marker, returning tokContent chunks or the
// closing token. An unterminated marker yields its remaining content then EOF.
func (l *lexer) nextTokenInside() token {
	if l.i >= l.n {
		return token{kind: tokEOF, pos: l.i}
	}
	start := l.i
	for l.i < l.n {
		if l.i+2 <= l.n && l.src[l.i] == '}' && l.src[l.i+1] == '}' {
			if l.i > start {
				return token{kind: tokContent, val: string(l.src[start:l.i]), pos: start}
			}
			l.i += 2
			return token{kind: tokClose, pos: start}
		}
		l.i++
	}
	if start < l.n {
		return token{kind: tokContent, val: string(l.src[start:l.n]), pos: start}
	}
	return token{kind: tokEOF, pos: l.i}
}
