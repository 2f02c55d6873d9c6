// Package parser lexes program source into a flat sequence of instructions
// and matches loop brackets.
//
// Every byte that is not one of the eight instruction characters is a
// comment and is skipped. Brackets are matched in a single left-to-right
// scan with an explicit stack of pending LoopOpen indexes; on LoopClose the
// stack is popped and the two instructions are linked to each other. A
// LoopClose with an empty stack, or a non-empty stack at the end of input,
// fails the whole parse. There is no error recovery.
package parser

import (
	"bytes"
	"sort"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/token"
)

// Option is a configuration function for the parser.
type Option func(*parser)

// WithFilename sets the file name used in error positions.
func WithFilename(filename string) Option {
	return func(p *parser) {
		p.filename = filename
	}
}

type parser struct {
	filename string
}

// Program is the immutable result of a successful parse: the original
// source and the validated instruction sequence.
type Program struct {
	filename     string
	source       []byte
	instructions []token.Instruction
	lineStarts   []int
}

// Parse the provided source and return the validated program. The returned
// error is an *errors.ParseError naming the offending bracket.
func Parse(source []byte, options ...Option) (*Program, error) {
	var p parser
	for _, opt := range options {
		opt(&p)
	}
	prog := &Program{
		filename:   p.filename,
		source:     bytes.Clone(source),
		lineStarts: lineStarts(source),
	}
	instructions := make([]token.Instruction, 0, len(source))
	var pending []int
	for offset, b := range prog.source {
		kind := token.Lookup(b)
		if kind == token.Invalid {
			continue
		}
		index := len(instructions)
		instr := token.Instruction{Kind: kind, Offset: offset, Match: token.NoMatch}
		switch kind {
		case token.LoopOpen:
			pending = append(pending, index)
		case token.LoopClose:
			if len(pending) == 0 {
				return nil, prog.bracketError(kind, offset)
			}
			open := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			instr.Match = open
			instructions[open].Match = index
		}
		instructions = append(instructions, instr)
	}
	if len(pending) > 0 {
		open := instructions[pending[len(pending)-1]]
		return nil, prog.bracketError(open.Kind, open.Offset)
	}
	prog.instructions = instructions
	return prog, nil
}

func (p *Program) bracketError(kind token.Kind, offset int) error {
	pos := p.Position(offset)
	return errors.NewParseError(kind, pos, p.SourceLine(pos.Line))
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Filename returns the file name given with WithFilename, if any.
func (p *Program) Filename() string {
	return p.filename
}

// Source returns the original source bytes. The caller must not modify them.
func (p *Program) Source() []byte {
	return p.source
}

// Instructions returns the validated instruction sequence. The caller must
// not modify it.
func (p *Program) Instructions() []token.Instruction {
	return p.instructions
}

// Len returns the number of instructions in the program.
func (p *Program) Len() int {
	return len(p.instructions)
}

// Position converts a byte offset in the source into a line and column.
func (p *Program) Position(offset int) token.Position {
	line := sort.SearchInts(p.lineStarts, offset+1) - 1
	if line < 0 {
		line = 0
	}
	return token.Position{
		Offset: offset,
		Line:   line,
		Column: offset - p.lineStarts[line],
		File:   p.filename,
	}
}

// SourceLine returns the text of the given 0-based line without its
// trailing newline.
func (p *Program) SourceLine(line int) string {
	if line < 0 || line >= len(p.lineStarts) {
		return ""
	}
	start := p.lineStarts[line]
	end := len(p.source)
	if line+1 < len(p.lineStarts) {
		end = p.lineStarts[line+1] - 1
	}
	return string(bytes.TrimRight(p.source[start:end], "\r"))
}
