//go:build !darwin

package execmem

// flushInstructionCache is a no-op: Linux synchronizes the instruction cache
// when a fresh anonymous page is first mapped executable.
func flushInstructionCache([]byte) {}
