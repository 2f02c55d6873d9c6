//go:build !((linux || darwin) && arm64)

package jit

const supported = false

func execute(uintptr, []byte, int, uintptr) int {
	panic("jit: native execution is not supported on this platform")
}
