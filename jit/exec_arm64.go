//go:build linux || darwin

package jit

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const supported = true

// Host routines are process-wide and created once; purego cannot free
// callbacks.
var (
	callbacksOnce              sync.Once
	putAddr, getAddr, trapAddr uintptr
)

func callbacks() (put, get, trap uintptr) {
	callbacksOnce.Do(func() {
		putAddr = purego.NewCallback(hostPut)
		getAddr = purego.NewCallback(hostGet)
		trapAddr = purego.NewCallback(hostTrap)
	})
	return putAddr, getAddr, trapAddr
}

// execute calls the generated entry point and returns the final pointer
// relative to the start of the tape.
func execute(entry uintptr, cells []byte, pointer int, handle uintptr) int {
	put, get, trap := callbacks()
	base := uintptr(unsafe.Pointer(&cells[0]))
	start := base + uintptr(pointer)
	final, _, _ := purego.SyscallN(entry,
		base, uintptr(len(cells)), handle, put, get, trap, start)
	return int(int64(final - base))
}
