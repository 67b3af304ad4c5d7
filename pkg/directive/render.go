package directive

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// markerRe matches any leftover marker syntax for the cleanup pass.
var markerRe = regexp.MustCompile(`\{\{[^}]*\}\}`)

// StripMarkers removes every directive marker from text, keeping literal
// text untouched. It is the cleanup pass and the degraded render fallback.
func StripMarkers(text string) string {
	return markerRe.ReplaceAllString(text, "")
}

// Renderer expands directive markup against a context. A Renderer holds no
// per-render state and is safe for concurrent use. Construct with NewRenderer.
type Renderer struct {
	// MaxDepth bounds directive nesting; blocks nested deeper are stripped.
	MaxDepth int

	resolve func(path string, ctx DictValue) (Value, bool)
	log     zerolog.Logger
}

func NewRenderer() *Renderer {
	return &Renderer{
		MaxDepth: DefaultMaxDepth,
		resolve:  Resolve,
		log:      log.With().Str("component", "directive").Logger(),
	}
}

// Render expands template against ctx. It never panics and never returns an
// error: on an internal fault it logs and degrades to the original template
// with all marker syntax stripped, so the caller always receives markup.
func (r *Renderer) Render(template string, ctx DictValue) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().
				Int("template_size", len(template)).
				Str("error", fmt.Sprint(rec)).
				Msg("render failed, returning stripped template")
			out = StripMarkers(template)
		}
	}()
	doc := parseDepth(template, r.MaxDepth)
	var buf bytes.Buffer
	r.renderNodes(&buf, doc.Nodes, ctx)
	return StripMarkers(buf.String())
}

// Render expands template against plain JSON-like data.
func Render(template string, data map[string]any) string {
	return NewRenderer().Render(template, NewContext(data))
}

func (r *Renderer) renderNodes(buf *bytes.Buffer, nodes []Node, ctx DictValue) {
	for _, n := range nodes {
		switch t := n.(type) {
		case *TextNode:
			buf.WriteString(t.Text)
		case *StripNode:
			// Malformed marker, removed from output.
		case *VarNode:
			if v, ok := r.resolve(t.Path, ctx); ok {
				buf.WriteString(formatValue(v))
			}
		case *BlockNode:
			r.renderBlock(buf, t, ctx)
		}
	}
}

func (r *Renderer) renderBlock(buf *bytes.Buffer, b *BlockNode, ctx DictValue) {
	switch b.Kind {
	case KindIf, KindUnless:
		v, ok := r.resolve(b.Path, ctx)
		truthy := ok && v.Truth()
		if b.Kind == KindUnless {
			truthy = !truthy
		}
		if truthy {
			r.renderNodes(buf, b.Body, ctx)
		}
	case KindEach:
		v, ok := r.resolve(b.Path, ctx)
		if !ok {
			return
		}
		list, isList := v.(ListValue)
		if !isList || len(list) == 0 {
			return
		}
		for idx, item := range list {
			scope := ctx.Copy()
			scope["this"] = item
			scope["index"] = IntValue(idx)
			scope["first"] = BoolValue(idx == 0)
			scope["last"] = BoolValue(idx == len(list)-1)
			if d, ok := item.(DictValue); ok {
				for k, v := range d {
					scope[k] = v
				}
			}
			r.renderNodes(buf, b.Body, scope)
		}
	}
}

// formatValue converts a resolved value to its interpolated text form.
// Strings are HTML-escaped. Composite values use the fixed String forms from
// values.go (list elements joined by space, "{...}" for mappings), escaped.
func formatValue(v Value) string {
	switch t := v.(type) {
	case NoneValue:
		return ""
	case BoolValue:
		return t.String()
	case IntValue:
		return t.String()
	case FloatValue:
		return t.String()
	case StringValue:
		return escapeHTML(string(t))
	case ListValue:
		return escapeHTML(t.String())
	case DictValue:
		return escapeHTML(t.String())
	default:
		return escapeHTML(v.String())
	}
}

// escapeHTML escapes the four significant characters. Ampersand must go
// first: the later replacements introduce entities of their own.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
