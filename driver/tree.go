package driver

import (
	"fmt"
	"io"
)

// Node is a node of a derivation tree. A terminal node has the matched text. A node of an anonymous
// terminal, which a grammar writes as a literal in an alternative, has the literal as its kind name.
type Node struct {
	KindName  string
	Text      string
	Row       int
	Col       int
	Children  []*Node
	Terminal  bool
	Anonymous bool
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	switch {
	case node.Anonymous:
		fmt.Fprintf(w, "%v%#v\n", ruledLine, node.Text)
	case node.Terminal:
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	default:
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
