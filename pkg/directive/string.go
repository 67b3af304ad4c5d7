package directive

import (
	"bytes"
	"fmt"
)

// Pretty returns a line-oriented string representation of the AST.
func Pretty(doc *Document) string {
	var buf bytes.Buffer
	ppNode(&buf, 0, doc)
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	ind := func() {
		for i := 0; i < indent; i++ {
			buf.WriteByte(' ')
		}
	}
	switch t := n.(type) {
	case *Document:
		ind()
		buf.WriteString("Document\n")
		for _, c := range t.Nodes {
			ppNode(buf, indent+2, c)
		}
	case *TextNode:
		ind()
		fmt.Fprintf(buf, "Text(%q)\n", t.Text)
	case *VarNode:
		ind()
		fmt.Fprintf(buf, "Var(%q)\n", t.Path)
	case *BlockNode:
		ind()
		fmt.Fprintf(buf, "Block(%s %q)\n", t.Kind, t.Path)
		for _, c := range t.Body {
			ppNode(buf, indent+2, c)
		}
	case *StripNode:
		ind()
		fmt.Fprintf(buf, "Strip(%q)\n", t.Raw)
	}
}
