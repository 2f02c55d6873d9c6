//go:build linux || darwin

package execmem

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateRoundsToPages(t *testing.T) {
	page := pageSize()
	for _, size := range []int{0, 1, page, page + 1} {
		w, err := Allocate(size)
		require.Nil(t, err)
		require.Zero(t, w.Size()%page)
		require.GreaterOrEqual(t, w.Size(), size)
		require.Nil(t, w.Release())
	}
	_, err := Allocate(-1)
	require.NotNil(t, err)
}

func TestStateMachine(t *testing.T) {
	w, err := Allocate(64)
	require.Nil(t, err)
	require.Equal(t, ReadWrite, w.Protection())

	require.Nil(t, w.Write([]byte{0xC0, 0x03, 0x5F, 0xD6}))
	require.Nil(t, w.Write([]byte{0x1F, 0x20, 0x03, 0xD5}))

	x, err := w.Seal()
	require.Nil(t, err)
	require.Equal(t, ReadExec, x.Protection())
	require.Equal(t, ReadExec, w.Protection())
	require.Equal(t, 8, x.Len())

	// the writable handle is spent
	require.True(t, stderrors.Is(w.Write([]byte{0}), ErrSealed))
	_, err = w.Seal()
	require.True(t, stderrors.Is(err, ErrSealed))

	addr, err := x.Addr()
	require.Nil(t, err)
	require.NotZero(t, addr)

	require.Nil(t, x.Release())
	require.Equal(t, Released, x.Protection())
	require.Equal(t, Released, w.Protection())
	_, err = x.Addr()
	require.True(t, stderrors.Is(err, ErrReleased))
	require.True(t, stderrors.Is(w.Write([]byte{0}), ErrReleased))
	_, err = w.Seal()
	require.True(t, stderrors.Is(err, ErrReleased))
}

func TestWriteOverflow(t *testing.T) {
	w, err := Allocate(1)
	require.Nil(t, err)
	defer w.Release()
	require.True(t, stderrors.Is(w.Write(make([]byte, w.Size()+1)), ErrNoSpace))
	require.Nil(t, w.Write(make([]byte, w.Size())))
	require.True(t, stderrors.Is(w.Write([]byte{0}), ErrNoSpace))
}

func TestReleaseUnmapsOnce(t *testing.T) {
	real := munmap
	calls := 0
	munmap = func(mem []byte) error {
		calls++
		return real(mem)
	}
	defer func() { munmap = real }()

	// released through both handles, several times
	w, err := Allocate(16)
	require.Nil(t, err)
	x, err := w.Seal()
	require.Nil(t, err)
	require.Nil(t, x.Release())
	require.Nil(t, x.Release())
	require.Nil(t, w.Release())
	require.Equal(t, 1, calls)

	// released before sealing
	w, err = Allocate(16)
	require.Nil(t, err)
	require.Nil(t, w.Release())
	require.Nil(t, w.Release())
	require.Equal(t, 2, calls)
}

func TestProtectionString(t *testing.T) {
	require.Equal(t, "rw-", ReadWrite.String())
	require.Equal(t, "r-x", ReadExec.String())
	require.Equal(t, "released", Released.String())
}
