//go:build linux || darwin

package execmem

import (
	"github.com/deepnoodle-ai/brainmuck/errors"
	"golang.org/x/sys/unix"
)

// Replaced in tests to count unmaps.
var munmap = unix.Munmap

func pageSize() int {
	return unix.Getpagesize()
}

func mapRegion(size int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, mapFlags)
	if err != nil {
		return nil, errors.NewEnvironmentError("mmap", err)
	}
	return mem, nil
}

func protectExec(mem []byte) error {
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return errors.NewEnvironmentError("mprotect", err)
	}
	return nil
}

func unmap(mem []byte) error {
	if err := munmap(mem); err != nil {
		return errors.NewEnvironmentError("munmap", err)
	}
	return nil
}
