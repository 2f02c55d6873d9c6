package execmem

import "golang.org/x/sys/unix"

// MAP_JIT lets hardened-runtime processes make the mapping executable later.
const mapFlags = unix.MAP_PRIVATE | unix.MAP_ANON | unix.MAP_JIT
