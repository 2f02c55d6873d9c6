// Package hostio implements the host side of a program's byte I/O: writing
// one byte to an output stream, and reading one byte from an input stream
// with a configurable end-of-stream policy. Both execution engines use the
// same Port so their observable behavior is identical.
package hostio

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// EOFBehavior selects what an Input instruction does at end of stream.
type EOFBehavior int

const (
	// EOFZero stores 0 in the cell.
	EOFZero EOFBehavior = iota
	// EOFUnchanged leaves the cell as it was.
	EOFUnchanged
	// EOFMax stores 255 in the cell.
	EOFMax
)

func (b EOFBehavior) String() string {
	switch b {
	case EOFZero:
		return "zero"
	case EOFUnchanged:
		return "unchanged"
	case EOFMax:
		return "max"
	}
	return fmt.Sprintf("EOFBehavior(%d)", int(b))
}

// ParseEOF returns the EOFBehavior with the given name.
func ParseEOF(name string) (EOFBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zero", "0":
		return EOFZero, nil
	case "unchanged", "keep":
		return EOFUnchanged, nil
	case "max", "255", "-1":
		return EOFMax, nil
	}
	return EOFZero, fmt.Errorf("unknown eof behavior %q (expected zero, unchanged or max)", name)
}

// Port connects a running program to the host's streams. It is not safe for
// concurrent use.
type Port struct {
	in  *bufio.Reader
	out *bufio.Writer
	eof EOFBehavior
	err error

	written int64
	read    int64
}

// NewPort returns a Port reading from r and writing to w. A nil reader
// behaves as an empty stream and a nil writer discards output.
func NewPort(r io.Reader, w io.Writer, eof EOFBehavior) *Port {
	if r == nil {
		r = strings.NewReader("")
	}
	if w == nil {
		w = io.Discard
	}
	return &Port{
		in:  bufio.NewReader(r),
		out: bufio.NewWriter(w),
		eof: eof,
	}
}

// Put writes one byte. After the first write error, further output is
// dropped and the error is reported by Flush.
func (p *Port) Put(b byte) {
	if p.err != nil {
		return
	}
	if err := p.out.WriteByte(b); err != nil {
		p.err = err
		return
	}
	p.written++
}

// Get reads one byte. The returned flag is false when the cell must be left
// unchanged. Pending output is flushed before blocking on input, so prompts
// appear before the program waits. A read error other than io.EOF is
// recorded and then treated as end of stream.
func (p *Port) Get() (byte, bool) {
	if p.err == nil {
		if err := p.out.Flush(); err != nil {
			p.err = err
		}
	}
	b, err := p.in.ReadByte()
	if err == nil {
		p.read++
		return b, true
	}
	if !stderrors.Is(err, io.EOF) && p.err == nil {
		p.err = err
	}
	switch p.eof {
	case EOFUnchanged:
		return 0, false
	case EOFMax:
		return 255, true
	}
	return 0, true
}

// Flush writes any buffered output and returns the first I/O error seen.
func (p *Port) Flush() error {
	if p.err == nil {
		p.err = p.out.Flush()
	}
	return p.err
}

// Written returns the number of bytes accepted by Put.
func (p *Port) Written() int64 {
	return p.written
}

// Read returns the number of bytes returned by Get, end of stream excluded.
func (p *Port) Read() int64 {
	return p.read
}
