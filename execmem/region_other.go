//go:build !(linux || darwin)

package execmem

import (
	"os"

	"github.com/deepnoodle-ai/brainmuck/errors"
)

var munmap = func([]byte) error { return nil }

func pageSize() int {
	return os.Getpagesize()
}

func mapRegion(int) ([]byte, error) {
	return nil, errors.NewEnvironmentError("mmap", errors.ErrUnsupportedPlatform)
}

func protectExec([]byte) error {
	return errors.NewEnvironmentError("mprotect", errors.ErrUnsupportedPlatform)
}

func unmap(mem []byte) error {
	return munmap(mem)
}
