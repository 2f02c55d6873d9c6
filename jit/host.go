package jit

import (
	"sync"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/hashicorp/go-multierror"
)

// eofUnchanged is returned by the get routine when the cell must be left
// as it is. The generated code tests bit 31.
const eofUnchanged = ^uintptr(0)

// session is the host state of one run. The generated code only holds its
// handle.
type session struct {
	port     *hostio.Port
	tapeSize int
	trap     *errors.RuntimeTrap
}

// finish returns the outcome of the run given the error from flushing its
// output. A trap and a flush failure are reported together.
func (s *session) finish(flushErr error) error {
	if s.trap == nil {
		return flushErr
	}
	if flushErr != nil {
		return multierror.Append(s.trap, flushErr)
	}
	return s.trap
}

var (
	sessionsMu sync.Mutex
	sessions   = map[uintptr]*session{}
	nextHandle uintptr
)

func register(s *session) uintptr {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	nextHandle++
	sessions[nextHandle] = s
	return nextHandle
}

func unregister(handle uintptr) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	delete(sessions, handle)
}

func lookup(handle uintptr) *session {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	return sessions[handle]
}

func hostPut(handle, b uintptr) uintptr {
	if s := lookup(handle); s != nil {
		s.port.Put(byte(b))
	}
	return 0
}

func hostGet(handle uintptr) uintptr {
	s := lookup(handle)
	if s == nil {
		return eofUnchanged
	}
	b, store := s.port.Get()
	if !store {
		return eofUnchanged
	}
	return uintptr(b)
}

func hostTrap(handle, index uintptr) uintptr {
	if s := lookup(handle); s != nil && s.trap == nil {
		s.trap = &errors.RuntimeTrap{Address: int64(index), TapeSize: s.tapeSize}
	}
	return 0
}
