package directive

// Node is any AST node in a parsed template.
type Node interface {
	node()
}

// Document is the root node produced by Parse.
type Document struct {
	Nodes []Node
}

func (*Document) node() {}

// TextNode represents literal text between markers.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// VarNode represents an interpolation marker: {{path}}
type VarNode struct {
	Path string
}

func (*VarNode) node() {}

// BlockKind identifies the directive kind of a block.
type BlockKind string

const (
	KindIf     BlockKind = "if"
	KindUnless BlockKind = "unless"
	KindEach   BlockKind = "each"
)

// BlockNode represents a directive block: {{#kind path}}body{{/kind}}
type BlockNode struct {
	Kind BlockKind
	Path string
	Body []Node
}

func (*BlockNode) node() {}

// StripNode marks a marker that did not conform to the directive grammar:
// unknown #kinds, stray closing tags, malformed paths, unclosed blocks.
// It renders as nothing, so no raw marker syntax leaks into output.
type StripNode struct {
	Raw string
}

func (*StripNode) node() {}
