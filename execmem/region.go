// Package execmem manages memory for generated machine code.
//
// A region is never writable and executable at the same time. It starts
// writable, receives code through Write, and is then sealed, which makes it
// read-only and executable and hands out a new ExecutableRegion. The
// WritableRegion is spent after sealing. Either handle releases the region;
// release unmaps the memory exactly once and makes every later operation on
// either handle fail with ErrReleased.
package execmem

import (
	stderrors "errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	// ErrSealed is returned when writing to or sealing a region that has
	// already been sealed.
	ErrSealed = stderrors.New("execmem: region is sealed")

	// ErrReleased is returned by any operation on a released region.
	ErrReleased = stderrors.New("execmem: region is released")

	// ErrNoSpace is returned when a write does not fit in the region.
	ErrNoSpace = stderrors.New("execmem: code does not fit in region")
)

// Protection is the access state of a region.
type Protection int

const (
	Released Protection = iota
	ReadWrite
	ReadExec
)

func (p Protection) String() string {
	switch p {
	case Released:
		return "released"
	case ReadWrite:
		return "rw-"
	case ReadExec:
		return "r-x"
	}
	return fmt.Sprintf("Protection(%d)", int(p))
}

type mapping struct {
	mu   sync.Mutex
	mem  []byte
	used int
	prot Protection
}

func (m *mapping) release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prot == Released {
		return nil
	}
	mem := m.mem
	m.mem = nil
	m.prot = Released
	return unmap(mem)
}

func (m *mapping) protection() Protection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prot
}

// WritableRegion is a mapped region that accepts code.
type WritableRegion struct {
	m *mapping
}

// Allocate maps a zeroed, writable region of at least size bytes, rounded
// up to a whole number of pages.
func Allocate(size int) (*WritableRegion, error) {
	if size < 0 {
		return nil, fmt.Errorf("execmem: negative size %d", size)
	}
	mem, err := mapRegion(roundUp(size, pageSize()))
	if err != nil {
		return nil, err
	}
	return &WritableRegion{m: &mapping{mem: mem, prot: ReadWrite}}, nil
}

func roundUp(size, page int) int {
	if size == 0 {
		return page
	}
	return (size + page - 1) &^ (page - 1)
}

// Write appends code to the region.
func (w *WritableRegion) Write(code []byte) error {
	m := w.m
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.prot {
	case Released:
		return ErrReleased
	case ReadExec:
		return ErrSealed
	}
	if len(code) > len(m.mem)-m.used {
		return ErrNoSpace
	}
	m.used += copy(m.mem[m.used:], code)
	return nil
}

// Seal makes the region read-only and executable and returns the handle
// used to run it.
func (w *WritableRegion) Seal() (*ExecutableRegion, error) {
	m := w.m
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.prot {
	case Released:
		return nil, ErrReleased
	case ReadExec:
		return nil, ErrSealed
	}
	if err := protectExec(m.mem); err != nil {
		return nil, err
	}
	m.prot = ReadExec
	flushInstructionCache(m.mem[:m.used])
	return &ExecutableRegion{m: m}, nil
}

// Release unmaps the region. Releasing more than once is a no-op.
func (w *WritableRegion) Release() error {
	return w.m.release()
}

// Protection returns the current state of the region.
func (w *WritableRegion) Protection() Protection {
	return w.m.protection()
}

// Size returns the mapped size in bytes.
func (w *WritableRegion) Size() int {
	w.m.mu.Lock()
	defer w.m.mu.Unlock()
	return len(w.m.mem)
}

// ExecutableRegion is a sealed region holding runnable code.
type ExecutableRegion struct {
	m *mapping
}

// Addr returns the address of the first instruction.
func (e *ExecutableRegion) Addr() (uintptr, error) {
	m := e.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prot == Released {
		return 0, ErrReleased
	}
	return uintptr(unsafe.Pointer(&m.mem[0])), nil
}

// Len returns the number of code bytes written before sealing.
func (e *ExecutableRegion) Len() int {
	e.m.mu.Lock()
	defer e.m.mu.Unlock()
	return e.m.used
}

// Release unmaps the region. Releasing more than once is a no-op.
func (e *ExecutableRegion) Release() error {
	return e.m.release()
}

// Protection returns the current state of the region.
func (e *ExecutableRegion) Protection() Protection {
	return e.m.protection()
}
