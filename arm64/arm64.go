// Package arm64 assembles AArch64 machine code.
//
// Instructions are appended to an Assembler as 32-bit words. Branches name
// a Label instead of a displacement; labels may be bound before or after the
// branches that use them, and Finish patches every branch once all
// positions are known. Each word carries a mnemonic for listings.
package arm64

import (
	"encoding/binary"
	"fmt"

	"github.com/deepnoodle-ai/brainmuck/errors"
)

// Label names a position in the instruction stream.
type Label int

func (l Label) String() string {
	return fmt.Sprintf("L%d", int(l))
}

type branchKind uint8

const (
	branchB branchKind = iota
	branchCBZ
	branchCond
	branchTBNZ
)

// bits is the width of the signed word displacement field.
func (k branchKind) bits() uint {
	switch k {
	case branchB:
		return 26
	case branchTBNZ:
		return 14
	}
	return 19
}

func (k branchKind) shift() uint {
	if k == branchB {
		return 0
	}
	return 5
}

type fixup struct {
	index int
	label Label
	kind  branchKind
}

// Line is one assembled instruction.
type Line struct {
	Offset int
	Word   uint32
	Text   string
	Labels []Label // labels bound at this offset
}

// Assembler accumulates instructions and resolves branch labels.
type Assembler struct {
	words  []uint32
	text   []string
	labels []int
	fixups []fixup
	err    error
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{}
}

func (a *Assembler) failf(format string, args ...any) {
	if a.err == nil {
		a.err = errors.Internalf("arm64", format, args...)
	}
}

// Err returns the first error recorded while emitting.
func (a *Assembler) Err() error {
	return a.err
}

// Len returns the size of the code emitted so far in bytes.
func (a *Assembler) Len() int {
	return 4 * len(a.words)
}

// Emit appends a raw instruction word.
func (a *Assembler) Emit(word uint32, text string) {
	a.words = append(a.words, word)
	a.text = append(a.text, text)
}

// NewLabel returns a new, unbound label.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Bind fixes the label to the position of the next emitted instruction.
func (a *Assembler) Bind(l Label) {
	if int(l) < 0 || int(l) >= len(a.labels) {
		a.failf("bind of unknown label %s", l)
		return
	}
	if a.labels[l] >= 0 {
		a.failf("label %s is bound twice", l)
		return
	}
	a.labels[l] = len(a.words)
}

func (a *Assembler) branch(kind branchKind, l Label, word uint32, text string) {
	if int(l) < 0 || int(l) >= len(a.labels) {
		a.failf("branch to unknown label %s", l)
		return
	}
	a.fixups = append(a.fixups, fixup{index: len(a.words), label: l, kind: kind})
	a.Emit(word, text)
}

// B branches unconditionally to l.
func (a *Assembler) B(l Label) {
	a.branch(branchB, l, 0x14000000, "b "+l.String())
}

// CBZ branches to l if the low 32 bits of rt are zero.
func (a *Assembler) CBZ(rt Reg, l Label) {
	a.branch(branchCBZ, l, 0x34000000|uint32(rt), fmt.Sprintf("cbz %s, %s", wz(rt), l))
}

// CBNZ branches to l if the low 32 bits of rt are not zero.
func (a *Assembler) CBNZ(rt Reg, l Label) {
	a.branch(branchCBZ, l, 0x35000000|uint32(rt), fmt.Sprintf("cbnz %s, %s", wz(rt), l))
}

// BCond branches to l if cond holds.
func (a *Assembler) BCond(cond Cond, l Label) {
	a.branch(branchCond, l, 0x54000000|uint32(cond), fmt.Sprintf("b.%s %s", cond, l))
}

// TBNZ branches to l if the given bit of the 32-bit register rt is set.
func (a *Assembler) TBNZ(rt Reg, bit uint, l Label) {
	if bit > 31 {
		a.failf("tbnz bit %d out of range", bit)
		return
	}
	word := 0x37000000 | uint32(bit)<<19 | uint32(rt)
	a.branch(branchTBNZ, l, word, fmt.Sprintf("tbnz %s, #%d, %s", wz(rt), bit, l))
}

// Finish resolves every branch and returns the code as little-endian bytes.
func (a *Assembler) Finish() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	for _, f := range a.fixups {
		target := a.labels[f.label]
		if target < 0 {
			return nil, errors.Internalf("arm64", "label %s is never bound", f.label)
		}
		disp := target - f.index
		bits := f.kind.bits()
		limit := 1 << (bits - 1)
		if disp < -limit || disp >= limit {
			return nil, errors.Internalf("arm64",
				"branch at offset %d to %s is out of range (%d words)", 4*f.index, f.label, disp)
		}
		mask := uint32(1)<<bits - 1
		a.words[f.index] |= (uint32(disp) & mask) << f.kind.shift()
	}
	out := make([]byte, 0, a.Len())
	for _, w := range a.words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}
	return out, nil
}

// Listing returns the instructions emitted so far. Branch words are only
// final after Finish.
func (a *Assembler) Listing() []Line {
	bound := map[int][]Label{}
	for l, index := range a.labels {
		if index >= 0 {
			bound[index] = append(bound[index], Label(l))
		}
	}
	lines := make([]Line, len(a.words))
	for i, w := range a.words {
		lines[i] = Line{Offset: 4 * i, Word: w, Text: a.text[i], Labels: bound[i]}
	}
	return lines
}
