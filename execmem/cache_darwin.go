package execmem

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	cacheOnce           sync.Once
	sysIcacheInvalidate func(start unsafe.Pointer, length uintptr)
)

// flushInstructionCache invalidates stale instructions for mem. Darwin does
// not do this on mprotect, so it calls sys_icache_invalidate from libSystem.
func flushInstructionCache(mem []byte) {
	if len(mem) == 0 {
		return
	}
	cacheOnce.Do(func() {
		lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return
		}
		purego.RegisterLibFunc(&sysIcacheInvalidate, lib, "sys_icache_invalidate")
	})
	if sysIcacheInvalidate != nil {
		sysIcacheInvalidate(unsafe.Pointer(&mem[0]), uintptr(len(mem)))
	}
}
