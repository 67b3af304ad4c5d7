package directive

import "strings"

// validPath reports whether s matches the path grammar: one or more
// [A-Za-z0-9_]+ segments joined by '.'. No whitespace or other characters
// are permitted anywhere, including around the path.
func validPath(s string) bool {
	if s == "" {
		return false
	}
	seg := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			if seg == 0 {
				return false
			}
			seg = 0
		case isPathByte(c):
			seg++
		default:
			return false
		}
	}
	return seg > 0
}

func isPathByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// Resolve walks a dotted path through nested mappings. Resolution fails
// (ok=false) as soon as the current value is not a mapping containing the
// next segment. Failure is "absent", not an error: absent is distinct from
// an explicit null, but both render empty and both are falsy.
func Resolve(path string, ctx DictValue) (Value, bool) {
	var cur Value = ctx
	for len(path) > 0 {
		var seg string
		if i := strings.IndexByte(path, '.'); i >= 0 {
			seg, path = path[:i], path[i+1:]
		} else {
			seg, path = path, ""
		}
		d, ok := cur.(DictValue)
		if !ok {
			return nil, false
		}
		v, ok := d[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
