// Package ir defines the intermediate representation between parsing and
// code generation, and the literal translation of an instruction sequence
// into it.
//
// Offsets are relative to the current tape pointer. Deltas on cells are
// residues modulo 256; the optimizer keeps them in [-128, 127]. Pointer
// deltas and cell offsets handed to the code generator never exceed
// MaxImmediate in magnitude.
package ir

import (
	"fmt"

	"github.com/deepnoodle-ai/brainmuck/token"
)

// MaxImmediate is the largest pointer delta or cell offset a single node may
// carry: the width of an AArch64 unsigned 12-bit immediate.
const MaxImmediate = 4095

// Node is one operation of the intermediate representation.
type Node interface {
	fmt.Stringer
	node()
}

// AdjustPointer moves the tape pointer by Delta cells.
type AdjustPointer struct {
	Delta int
}

// AdjustCell adds Delta to the cell at the pointer plus Offset, wrapping
// modulo 256. A zero Delta still touches the cell.
type AdjustCell struct {
	Delta  int
	Offset int
}

// SetCellZero stores zero in the cell at the pointer plus Offset.
type SetCellZero struct {
	Offset int
}

// Loop runs Body while the cell at the pointer is not zero.
type Loop struct {
	Body []Node
}

// Output writes the cell at the pointer plus Offset to the host.
type Output struct {
	Offset int
}

// Input reads one byte from the host into the cell at the pointer plus
// Offset.
type Input struct {
	Offset int
}

func (*AdjustPointer) node() {}
func (*AdjustCell) node()    {}
func (*SetCellZero) node()   {}
func (*Loop) node()          {}
func (*Output) node()        {}
func (*Input) node()         {}

func (n *AdjustPointer) String() string {
	return fmt.Sprintf("ptr %+d", n.Delta)
}

func (n *AdjustCell) String() string {
	return fmt.Sprintf("cell[%+d] %+d", n.Offset, n.Delta)
}

func (n *SetCellZero) String() string {
	return fmt.Sprintf("cell[%+d] = 0", n.Offset)
}

func (n *Loop) String() string {
	return fmt.Sprintf("loop (%d nodes)", len(n.Body))
}

func (n *Output) String() string {
	return fmt.Sprintf("output cell[%+d]", n.Offset)
}

func (n *Input) String() string {
	return fmt.Sprintf("input cell[%+d]", n.Offset)
}

// Build translates a validated instruction sequence into IR literally: one
// node per instruction, with deltas of one and offsets of zero. The
// instructions must come from the parser, so every loop bracket carries its
// partner's index.
func Build(instructions []token.Instruction) []Node {
	return build(instructions, 0, len(instructions))
}

func build(instructions []token.Instruction, start, end int) []Node {
	var nodes []Node
	for i := start; i < end; i++ {
		instr := instructions[i]
		switch instr.Kind {
		case token.MoveLeft:
			nodes = append(nodes, &AdjustPointer{Delta: -1})
		case token.MoveRight:
			nodes = append(nodes, &AdjustPointer{Delta: 1})
		case token.Increment:
			nodes = append(nodes, &AdjustCell{Delta: 1})
		case token.Decrement:
			nodes = append(nodes, &AdjustCell{Delta: -1})
		case token.Output:
			nodes = append(nodes, &Output{})
		case token.Input:
			nodes = append(nodes, &Input{})
		case token.LoopOpen:
			body := build(instructions, i+1, instr.Match)
			nodes = append(nodes, &Loop{Body: body})
			i = instr.Match
		}
	}
	return nodes
}

// Count returns the number of nodes in the tree, loops included.
func Count(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		n++
		if loop, ok := node.(*Loop); ok {
			n += Count(loop.Body)
		}
	}
	return n
}

// Depth returns the deepest loop nesting in the tree.
func Depth(nodes []Node) int {
	deepest := 0
	for _, node := range nodes {
		if loop, ok := node.(*Loop); ok {
			if d := 1 + Depth(loop.Body); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}

// Equal compares two trees structurally.
func Equal(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch x := a[i].(type) {
		case *Loop:
			y, ok := b[i].(*Loop)
			if !ok || !Equal(x.Body, y.Body) {
				return false
			}
		case *AdjustPointer:
			y, ok := b[i].(*AdjustPointer)
			if !ok || *x != *y {
				return false
			}
		case *AdjustCell:
			y, ok := b[i].(*AdjustCell)
			if !ok || *x != *y {
				return false
			}
		case *SetCellZero:
			y, ok := b[i].(*SetCellZero)
			if !ok || *x != *y {
				return false
			}
		case *Output:
			y, ok := b[i].(*Output)
			if !ok || *x != *y {
				return false
			}
		case *Input:
			y, ok := b[i].(*Input)
			if !ok || *x != *y {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree.
func Clone(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, node := range nodes {
		switch n := node.(type) {
		case *AdjustPointer:
			c := *n
			out[i] = &c
		case *AdjustCell:
			c := *n
			out[i] = &c
		case *SetCellZero:
			c := *n
			out[i] = &c
		case *Output:
			c := *n
			out[i] = &c
		case *Input:
			c := *n
			out[i] = &c
		case *Loop:
			out[i] = &Loop{Body: Clone(n.Body)}
		}
	}
	return out
}
