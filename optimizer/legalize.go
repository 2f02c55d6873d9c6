package optimizer

import "github.com/deepnoodle-ai/brainmuck/ir"

// legalize splits pointer moves wider than ir.MaxImmediate into several
// moves, moves the pointer around accesses whose offset does not fit, and
// normalizes cell deltas, so every node fits the code generator's
// instruction templates.
func legalize(nodes []ir.Node) []ir.Node {
	out := make([]ir.Node, 0, len(nodes))
	for _, node := range nodes {
		switch n := node.(type) {
		case *ir.AdjustPointer:
			out = appendMove(out, n.Delta)
			continue
		case *ir.AdjustCell:
			n.Delta = normalize(n.Delta)
		case *ir.Loop:
			n.Body = legalize(n.Body)
		}
		if off := offsetOf(node); off != nil && abs(*off) > ir.MaxImmediate {
			shift := *off
			*off = 0
			out = appendMove(out, shift)
			out = append(out, node)
			out = appendMove(out, -shift)
			continue
		}
		out = append(out, node)
	}
	return out
}

// appendMove appends pointer moves totalling delta, each within range.
func appendMove(out []ir.Node, delta int) []ir.Node {
	for abs(delta) > ir.MaxImmediate {
		step := ir.MaxImmediate
		if delta < 0 {
			step = -ir.MaxImmediate
		}
		out = append(out, &ir.AdjustPointer{Delta: step})
		delta -= step
	}
	if delta != 0 {
		out = append(out, &ir.AdjustPointer{Delta: delta})
	}
	return out
}

func offsetOf(node ir.Node) *int {
	switch n := node.(type) {
	case *ir.AdjustCell:
		return &n.Offset
	case *ir.SetCellZero:
		return &n.Offset
	case *ir.Output:
		return &n.Offset
	case *ir.Input:
		return &n.Offset
	}
	return nil
}
