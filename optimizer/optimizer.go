// Package optimizer rewrites IR into an equivalent, cheaper IR.
//
// Passes run in a fixed order: Coalesce, ZeroIdiom, OffsetFold. Each can be
// disabled on its own; running the result of any combination produces the
// same tape and output as the literal translation. A final legalization step
// always runs and cannot be disabled: it splits pointer deltas wider than
// ir.MaxImmediate and normalizes cell deltas into [-128, 127].
package optimizer

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/brainmuck/ir"
)

// Pass is a set of optimization passes.
type Pass uint8

const (
	// Coalesce merges runs of pointer moves and runs of cell deltas.
	Coalesce Pass = 1 << iota
	// ZeroIdiom rewrites clearing loops such as [-] to SetCellZero.
	ZeroIdiom
	// OffsetFold turns pointer moves inside straight-line runs into cell
	// offsets.
	OffsetFold
)

const (
	None Pass = 0
	All       = Coalesce | ZeroIdiom | OffsetFold
)

var passNames = []struct {
	pass Pass
	name string
}{
	{Coalesce, "coalesce"},
	{ZeroIdiom, "zero-idiom"},
	{OffsetFold, "offset-fold"},
}

// Names returns the names of all passes in the order they run.
func Names() []string {
	names := make([]string, 0, len(passNames))
	for _, p := range passNames {
		names = append(names, p.name)
	}
	return names
}

// ParsePass returns the pass with the given name.
func ParsePass(name string) (Pass, error) {
	for _, p := range passNames {
		if p.name == strings.ToLower(strings.TrimSpace(name)) {
			return p.pass, nil
		}
	}
	return None, fmt.Errorf("unknown optimization pass %q (expected one of %s)",
		name, strings.Join(Names(), ", "))
}

func (p Pass) String() string {
	if p == None {
		return "none"
	}
	var names []string
	for _, entry := range passNames {
		if p&entry.pass != 0 {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, "+")
}

// Has returns true if every pass in q is enabled in p.
func (p Pass) Has(q Pass) bool {
	return p&q == q
}

// Optimize returns an optimized copy of nodes. The input is not modified.
func Optimize(nodes []ir.Node, passes Pass) []ir.Node {
	out := ir.Clone(nodes)
	if passes.Has(Coalesce) {
		out = coalesce(out)
	}
	if passes.Has(ZeroIdiom) {
		out = zeroIdiom(out)
	}
	if passes.Has(OffsetFold) {
		out = foldOffsets(out)
	}
	return legalize(out)
}

// normalize reduces a cell delta modulo 256 into [-128, 127].
func normalize(delta int) int {
	r := ((delta % 256) + 256) % 256
	if r > 127 {
		r -= 256
	}
	return r
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
