package optimizer

import "github.com/deepnoodle-ai/brainmuck/ir"

// zeroIdiom rewrites a loop whose body only adds an odd delta to the current
// cell into SetCellZero. An odd delta generates every residue modulo 256, so
// such a loop always terminates with the cell at zero; [-] and [+] are the
// common cases.
func zeroIdiom(nodes []ir.Node) []ir.Node {
	for i, node := range nodes {
		loop, ok := node.(*ir.Loop)
		if !ok {
			continue
		}
		loop.Body = zeroIdiom(loop.Body)
		if isClearLoop(loop) {
			nodes[i] = &ir.SetCellZero{}
		}
	}
	return nodes
}

func isClearLoop(loop *ir.Loop) bool {
	if len(loop.Body) != 1 {
		return false
	}
	cell, ok := loop.Body[0].(*ir.AdjustCell)
	return ok && cell.Offset == 0 && cell.Delta%2 != 0
}
