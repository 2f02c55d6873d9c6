package optimizer

import "github.com/deepnoodle-ai/brainmuck/ir"

// coalesce merges consecutive pointer moves into one, and consecutive cell
// deltas on the same offset into one. Pointer moves that cancel out are
// dropped. Cell deltas that cancel out are kept with a zero delta, since the
// access itself must still be bounds checked.
func coalesce(nodes []ir.Node) []ir.Node {
	out := make([]ir.Node, 0, len(nodes))
	for _, node := range nodes {
		var last ir.Node
		if len(out) > 0 {
			last = out[len(out)-1]
		}
		switch n := node.(type) {
		case *ir.AdjustPointer:
			if prev, ok := last.(*ir.AdjustPointer); ok {
				prev.Delta += n.Delta
				if prev.Delta == 0 {
					out = out[:len(out)-1]
				}
				continue
			}
			if n.Delta == 0 {
				continue
			}
		case *ir.AdjustCell:
			if prev, ok := last.(*ir.AdjustCell); ok && prev.Offset == n.Offset {
				prev.Delta = normalize(prev.Delta + n.Delta)
				continue
			}
			n.Delta = normalize(n.Delta)
		case *ir.Loop:
			n.Body = coalesce(n.Body)
		}
		out = append(out, node)
	}
	return out
}
