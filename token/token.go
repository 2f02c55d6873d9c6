// Package token defines the eight instructions of the language and the
// Instruction value produced when lexing source code.
package token

import "fmt"

// Kind identifies one of the eight instructions.
type Kind uint8

// Instruction kinds
const (
	Invalid Kind = iota
	MoveLeft
	MoveRight
	Increment
	Decrement
	LoopOpen
	LoopClose
	Output
	Input
)

var kindBytes = [...]byte{
	Invalid:   0,
	MoveLeft:  '<',
	MoveRight: '>',
	Increment: '+',
	Decrement: '-',
	LoopOpen:  '[',
	LoopClose: ']',
	Output:    '.',
	Input:     ',',
}

var kindNames = [...]string{
	Invalid:   "INVALID",
	MoveLeft:  "MOVE_LEFT",
	MoveRight: "MOVE_RIGHT",
	Increment: "INCREMENT",
	Decrement: "DECREMENT",
	LoopOpen:  "LOOP_OPEN",
	LoopClose: "LOOP_CLOSE",
	Output:    "OUTPUT",
	Input:     "INPUT",
}

// Lookup returns the Kind for the given source byte. Bytes that are not one
// of the eight instruction characters map to Invalid, which the lexer treats
// as a comment.
func Lookup(b byte) Kind {
	switch b {
	case '<':
		return MoveLeft
	case '>':
		return MoveRight
	case '+':
		return Increment
	case '-':
		return Decrement
	case '[':
		return LoopOpen
	case ']':
		return LoopClose
	case '.':
		return Output
	case ',':
		return Input
	}
	return Invalid
}

// Byte returns the source character for this kind.
func (k Kind) Byte() byte {
	if int(k) < len(kindBytes) {
		return kindBytes[k]
	}
	return 0
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsLoop returns true for LoopOpen and LoopClose.
func (k Kind) IsLoop() bool {
	return k == LoopOpen || k == LoopClose
}

// NoMatch is the Match value of instructions that are not loop brackets.
const NoMatch = -1

// Instruction is one instruction lexed from the source.
type Instruction struct {
	Kind Kind

	// Offset is the byte offset of the instruction character in the source.
	Offset int

	// Match is the index of the partner bracket in the instruction sequence
	// for LoopOpen and LoopClose, and NoMatch otherwise.
	Match int
}

func (i Instruction) String() string {
	if i.Kind.IsLoop() {
		return fmt.Sprintf("%c@%d->%d", i.Kind.Byte(), i.Offset, i.Match)
	}
	return fmt.Sprintf("%c@%d", i.Kind.Byte(), i.Offset)
}

// Position points to a particular location in the source.
type Position struct {
	Offset int
	Line   int // 0-based
	Column int // 0-based
	File   string
}

// LineNumber returns the 1-indexed line number for this position.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.LineNumber(), p.ColumnNumber())
	}
	return fmt.Sprintf("%d:%d", p.LineNumber(), p.ColumnNumber())
}
