package directive

import (
	"strings"
	"testing"
)

func TestPlainTextPassthrough(t *testing.T) {
	for _, tpl := range []string{"", "hello", "<div>a & b</div>", "single { brace }"} {
		if out := Render(tpl, map[string]any{"x": 1}); out != tpl {
			t.Fatalf("template %q: got %q", tpl, out)
		}
	}
}

func TestIf(t *testing.T) {
	tpl := "{{#if x}}A{{/if}}"
	if out := Render(tpl, map[string]any{"x": true}); out != "A" {
		t.Fatalf("x=true got %q", out)
	}
	if out := Render(tpl, map[string]any{"x": false}); out != "" {
		t.Fatalf("x=false got %q", out)
	}
	if out := Render(tpl, map[string]any{}); out != "" {
		t.Fatalf("x absent got %q", out)
	}
}

func TestUnless(t *testing.T) {
	tpl := "{{#unless x}}A{{/unless}}"
	if out := Render(tpl, map[string]any{"x": 0}); out != "A" {
		t.Fatalf("x=0 got %q", out)
	}
	if out := Render(tpl, map[string]any{"x": 1}); out != "" {
		t.Fatalf("x=1 got %q", out)
	}
	if out := Render(tpl, map[string]any{}); out != "A" {
		t.Fatalf("x absent got %q", out)
	}
}

func TestTruthiness(t *testing.T) {
	tpl := "{{#if x}}T{{/if}}"
	truthy := []any{true, 1, -1, 0.5, "a", []any{1}, map[string]any{"k": 1}}
	falsy := []any{false, 0, 0.0, "", []any{}, map[string]any{}, nil}
	for _, v := range truthy {
		if out := Render(tpl, map[string]any{"x": v}); out != "T" {
			t.Fatalf("%#v should be truthy, got %q", v, out)
		}
	}
	for _, v := range falsy {
		if out := Render(tpl, map[string]any{"x": v}); out != "" {
			t.Fatalf("%#v should be falsy, got %q", v, out)
		}
	}
}

func TestEach(t *testing.T) {
	tpl := "{{#each items}}{{this.name}},{{/each}}"
	data := map[string]any{"items": []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}}
	if out := Render(tpl, data); out != "a,b," {
		t.Fatalf("got %q", out)
	}
}

func TestEachScopeBindings(t *testing.T) {
	tpl := "{{#each items}}{{index}}:{{this}}:{{first}}:{{last}};{{/each}}"
	out := Render(tpl, map[string]any{"items": []any{"x", "y", "z"}})
	want := "0:x:true:false;1:y:false:false;2:z:false:true;"
	if out != want {
		t.Fatalf("want %q got %q", want, out)
	}
}

func TestEachFlattensItemKeys(t *testing.T) {
	// Inside the loop body both {{title}} and {{this.title}} are valid.
	tpl := "{{#each items}}[{{title}}={{this.title}}]{{/each}}"
	out := Render(tpl, map[string]any{"items": []any{map[string]any{"title": "A"}}})
	if out != "[A=A]" {
		t.Fatalf("got %q", out)
	}
}

func TestEachNonListOrEmpty(t *testing.T) {
	tpl := "a{{#each items}}X{{/each}}b"
	for _, v := range []any{nil, "str", 5, map[string]any{"k": 1}, []any{}} {
		if out := Render(tpl, map[string]any{"items": v}); out != "ab" {
			t.Fatalf("items=%#v got %q", v, out)
		}
	}
	if out := Render(tpl, map[string]any{}); out != "ab" {
		t.Fatalf("items absent got %q", out)
	}
}

func TestEachDoesNotMutateCaller(t *testing.T) {
	ctx := NewContext(map[string]any{"items": []any{map[string]any{"title": "A"}}, "title": "outer"})
	NewRenderer().Render("{{#each items}}{{title}}{{/each}}", ctx)
	if v, ok := ctx["title"]; !ok || v.String() != "outer" {
		t.Fatalf("caller context mutated: %#v", ctx["title"])
	}
	if _, ok := ctx["this"]; ok {
		t.Fatal("loop binding leaked into caller context")
	}
}

func TestDottedResolution(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": map[string]any{"c": "x"}}}
	if out := Render("{{a.b.c}}", data); out != "x" {
		t.Fatalf("got %q", out)
	}
	if out := Render("{{a.z.c}}", data); out != "" {
		t.Fatalf("missing intermediate got %q", out)
	}
	// A scalar in the middle of the path is absent, not an error.
	if out := Render("{{a.b.c.d}}", data); out != "" {
		t.Fatalf("scalar traversal got %q", out)
	}
}

func TestEscaping(t *testing.T) {
	out := Render("{{t}}", map[string]any{"t": `<a&"b>`})
	if out != "&lt;a&amp;&quot;b&gt;" {
		t.Fatalf("got %q", out)
	}
	// Escaping & first must not double-escape the later entities.
	if out := Render("{{t}}", map[string]any{"t": "&lt;"}); out != "&amp;lt;" {
		t.Fatalf("got %q", out)
	}
}

func TestScalarFormatting(t *testing.T) {
	cases := []struct {
		v    any
		want string
	}{
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{7.5, "7.5"},
		{8.0, "8"},
		{nil, ""},
	}
	for _, c := range cases {
		if out := Render("{{v}}", map[string]any{"v": c.v}); out != c.want {
			t.Fatalf("%#v: want %q got %q", c.v, c.want, out)
		}
	}
}

func TestCompositeInterpolation(t *testing.T) {
	// Fixed best-effort forms: lists join elements by space, mappings render
	// as an opaque placeholder.
	if out := Render("{{l}}", map[string]any{"l": []any{"a", 1}}); out != "a 1" {
		t.Fatalf("list got %q", out)
	}
	if out := Render("{{m}}", map[string]any{"m": map[string]any{"k": 1}}); out != "{...}" {
		t.Fatalf("map got %q", out)
	}
}

func TestUnknownMarkersStripped(t *testing.T) {
	if out := Render("{{#foreach x}}y{{/foreach}}", map[string]any{}); out != "y" {
		t.Fatalf("got %q", out)
	}
	if out := Render("a{{/if}}b", map[string]any{}); out != "ab" {
		t.Fatalf("stray close got %q", out)
	}
	if out := Render("a{{ spaced }}b", map[string]any{"spaced": "v"}); out != "ab" {
		t.Fatalf("whitespace path got %q", out)
	}
	if out := Render("a{{not a path!}}b", map[string]any{}); out != "ab" {
		t.Fatalf("bad path got %q", out)
	}
}

func TestUnclosedBlockDegrades(t *testing.T) {
	// The opener is stripped, its body text survives.
	if out := Render("{{#if x}}A", map[string]any{"x": false}); out != "A" {
		t.Fatalf("unclosed if got %q", out)
	}
	if out := Render("{{#each items}}y", map[string]any{}); out != "y" {
		t.Fatalf("unclosed each got %q", out)
	}
}

func TestUnterminatedMarkerIsLiteral(t *testing.T) {
	// Without a closing }} there is no marker to strip.
	if out := Render("a{{b", map[string]any{}); out != "a{{b" {
		t.Fatalf("got %q", out)
	}
}

func TestCrossKindNesting(t *testing.T) {
	tpl := "{{#if on}}{{#each items}}<{{this}}>{{/each}}{{/if}}"
	data := map[string]any{"on": true, "items": []any{"a", "b"}}
	if out := Render(tpl, data); out != "<a><b>" {
		t.Fatalf("got %q", out)
	}
	data["on"] = false
	if out := Render(tpl, data); out != "" {
		t.Fatalf("got %q", out)
	}
}

func TestSameKindNesting(t *testing.T) {
	// Depth-aware matching: the inner close pairs with the inner open.
	tpl := "{{#if a}}1{{#if b}}2{{/if}}3{{/if}}"
	out := Render(tpl, map[string]any{"a": true, "b": false})
	if out != "13" {
		t.Fatalf("got %q", out)
	}
	out = Render(tpl, map[string]any{"a": true, "b": true})
	if out != "123" {
		t.Fatalf("got %q", out)
	}
}

func TestDepthLimit(t *testing.T) {
	var sb strings.Builder
	const n = DefaultMaxDepth + 8
	for i := 0; i < n; i++ {
		sb.WriteString("{{#if x}}")
	}
	sb.WriteString("deep")
	for i := 0; i < n; i++ {
		sb.WriteString("{{/if}}")
	}
	// Must complete without exhausting the stack; markers past the limit
	// degrade to cleanup-only behavior.
	out := Render(sb.String(), map[string]any{"x": true})
	if !strings.Contains(out, "deep") || strings.Contains(out, "{{") {
		t.Fatalf("got %q", out)
	}
}

func TestRenderNeverPanics(t *testing.T) {
	r := NewRenderer()
	r.resolve = func(string, DictValue) (Value, bool) { panic("resolver fault") }
	defer func() {
		if rec := recover(); rec != nil {
			t.Fatalf("panic crossed the render boundary: %v", rec)
		}
	}()
	out := r.Render("a{{x}}b{{#if y}}c{{/if}}", DictValue{})
	// Fallback: the original template with marker syntax stripped.
	if out != "abc" {
		t.Fatalf("got %q", out)
	}
}

func TestDailyPosterScenario(t *testing.T) {
	tpl := `<div>{{#if has_animes}}<h1>{{date}}</h1>{{#each other_animes}}<p>{{this.title}} - {{this.score}}</p>{{/each}}{{/if}}{{#unless has_animes}}<p>No anime today</p>{{/unless}}</div>`
	data := map[string]any{
		"has_animes": true,
		"date":       "2024-01-01",
		"other_animes": []any{
			map[string]any{"title": "A", "score": "8.0"},
			map[string]any{"title": "B", "score": "7.5"},
		},
	}
	want := "<div><h1>2024-01-01</h1><p>A - 8.0</p><p>B - 7.5</p></div>"
	if out := Render(tpl, data); out != want {
		t.Fatalf("want %q got %q", want, out)
	}
	if out := Render(tpl, map[string]any{"has_animes": false}); out != "<div><p>No anime today</p></div>" {
		t.Fatalf("got %q", out)
	}
}

func TestStripMarkers(t *testing.T) {
	if out := StripMarkers("a{{anything here}}b{{}}c"); out != "abc" {
		t.Fatalf("got %q", out)
	}
	if out := StripMarkers("plain"); out != "plain" {
		t.Fatalf("got %q", out)
	}
}
