package optimizer

import "github.com/deepnoodle-ai/brainmuck/ir"

// foldOffsets rewrites every loop-free run of nodes so that pointer moves
// become offsets on the cell and I/O nodes that follow them. A single
// pointer move is emitted where the run ends, so the pointer value on leaving
// the run is exactly what the literal translation computes. Runs end before
// every loop, because the loop test reads the cell at the real pointer, and
// wherever an offset would not fit in an immediate.
//
// Folding never removes or reorders a cell access, so a program that traps
// on an out-of-range access traps at the same access either way.
func foldOffsets(nodes []ir.Node) []ir.Node {
	out := make([]ir.Node, 0, len(nodes))
	pending := 0
	flush := func() {
		if pending != 0 {
			out = append(out, &ir.AdjustPointer{Delta: pending})
			pending = 0
		}
	}
	// at returns the folded offset for a node at the given offset, flushing
	// the pending move first if the folded offset would not fit.
	at := func(offset int) int {
		if abs(pending+offset) > ir.MaxImmediate {
			flush()
		}
		return pending + offset
	}
	for _, node := range nodes {
		switch n := node.(type) {
		case *ir.AdjustPointer:
			pending += n.Delta
		case *ir.AdjustCell:
			n.Offset = at(n.Offset)
			out = append(out, n)
		case *ir.SetCellZero:
			n.Offset = at(n.Offset)
			out = append(out, n)
		case *ir.Output:
			n.Offset = at(n.Offset)
			out = append(out, n)
		case *ir.Input:
			n.Offset = at(n.Offset)
			out = append(out, n)
		case *ir.Loop:
			flush()
			n.Body = foldOffsets(n.Body)
			out = append(out, n)
		}
	}
	flush()
	return out
}
