// Package tape implements the byte-addressable memory a program operates on.
package tape

import "fmt"

// DefaultSize is the number of cells in a tape created with New(0).
const DefaultSize = 30000

// Tape is a fixed array of byte cells and a pointer into it. The pointer may
// move outside the tape; only accesses at such a position are invalid.
type Tape struct {
	cells   []byte
	pointer int
}

// New returns a zeroed tape with size cells, or DefaultSize cells when size
// is zero or negative.
func New(size int) *Tape {
	if size <= 0 {
		size = DefaultSize
	}
	return &Tape{cells: make([]byte, size)}
}

// Cells returns the tape's backing array. The caller may modify it.
func (t *Tape) Cells() []byte {
	return t.cells
}

// Len returns the number of cells.
func (t *Tape) Len() int {
	return len(t.cells)
}

// Pointer returns the current pointer position.
func (t *Tape) Pointer() int {
	return t.pointer
}

// SetPointer moves the pointer to the given position.
func (t *Tape) SetPointer(p int) {
	t.pointer = p
}

// Contains returns true if the given cell index lies on the tape.
func (t *Tape) Contains(addr int64) bool {
	return addr >= 0 && addr < int64(len(t.cells))
}

// Reset zeroes every cell and moves the pointer back to zero.
func (t *Tape) Reset() {
	clear(t.cells)
	t.pointer = 0
}

// Snapshot returns a copy of the cells.
func (t *Tape) Snapshot() []byte {
	out := make([]byte, len(t.cells))
	copy(out, t.cells)
	return out
}

func (t *Tape) String() string {
	return fmt.Sprintf("tape(%d cells, pointer %d)", len(t.cells), t.pointer)
}
