package ir

import (
	"fmt"
	"io"
	"strings"
)

// Print writes an indented listing of the tree to w, one node per line.
func Print(w io.Writer, nodes []Node) error {
	return printNodes(w, nodes, 0)
}

func printNodes(w io.Writer, nodes []Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		loop, ok := node.(*Loop)
		if !ok {
			if _, err := fmt.Fprintf(w, "%s%s\n", indent, node); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%sloop {\n", indent); err != nil {
			return err
		}
		if err := printNodes(w, loop.Body, depth+1); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s}\n", indent); err != nil {
			return err
		}
	}
	return nil
}

// String returns the listing produced by Print.
func String(nodes []Node) string {
	var b strings.Builder
	_ = Print(&b, nodes)
	return b.String()
}
