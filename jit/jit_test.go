package jit

import (
	"bytes"
	"context"
	stderrors "errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/hostio"
	"github.com/deepnoodle-ai/brainmuck/interp"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/deepnoodle-ai/brainmuck/parser"
	"github.com/deepnoodle-ai/brainmuck/tape"
	"github.com/stretchr/testify/require"
)

const helloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

func nodes(t *testing.T, src string, passes optimizer.Pass) []ir.Node {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.Nil(t, err)
	return optimizer.Optimize(ir.Build(prog.Instructions()), passes)
}

type result struct {
	cells   []byte
	pointer int
	output  string
	err     error
}

func runNative(t *testing.T, src, input string, size int, passes optimizer.Pass, eof hostio.EOFBehavior) result {
	t.Helper()
	prog, err := Compile(nodes(t, src, passes), Options{BoundsCheck: true})
	require.Nil(t, err)
	var out bytes.Buffer
	tp := tape.New(size)
	err = prog.Run(tp, hostio.NewPort(strings.NewReader(input), &out, eof))
	return result{cells: tp.Cells(), pointer: tp.Pointer(), output: out.String(), err: err}
}

func requireNative(t *testing.T) {
	if !Supported() {
		t.Skip("native execution requires linux or darwin on arm64")
	}
}

func TestUnsupportedPlatform(t *testing.T) {
	if Supported() {
		t.Skip("native execution is supported here")
	}
	prog, err := Compile(nodes(t, "+.", optimizer.All), Options{BoundsCheck: true})
	require.Nil(t, err)
	require.NotEmpty(t, prog.Code().Bytes)
	err = prog.Run(tape.New(4), hostio.NewPort(nil, nil, hostio.EOFZero))
	require.True(t, stderrors.Is(err, errors.ErrUnsupportedPlatform))
	require.Equal(t, errors.CategoryEnvironment, errors.CategoryOf(err))
}

func TestRunOnce(t *testing.T) {
	prog, err := Compile(nodes(t, "+", optimizer.All), Options{})
	require.Nil(t, err)
	port := hostio.NewPort(nil, nil, hostio.EOFZero)
	prog.Run(tape.New(4), port)
	require.True(t, stderrors.Is(prog.Run(tape.New(4), port), ErrConsumed))
	require.Nil(t, prog.Close())

	prog, err = Compile(nodes(t, "+", optimizer.All), Options{})
	require.Nil(t, err)
	require.Nil(t, prog.Close())
	require.Nil(t, prog.Close())
	require.True(t, stderrors.Is(prog.Run(tape.New(4), port), ErrConsumed))
}

func TestEchoUntilEOF(t *testing.T) {
	requireNative(t)
	r := runNative(t, ",[.,]", "AB", 0, optimizer.All, hostio.EOFZero)
	require.Nil(t, r.err)
	require.Equal(t, "AB", r.output)
}

func TestMultiplyAndCopy(t *testing.T) {
	requireNative(t)
	for p := optimizer.None; p <= optimizer.All; p++ {
		r := runNative(t, "++++[>++++<-]>[<+>-]", "", 0, p, hostio.EOFZero)
		require.Nil(t, r.err)
		require.Equal(t, byte(16), r.cells[0], "passes %s", p)
		require.Equal(t, byte(0), r.cells[1])
		require.Equal(t, 1, r.pointer)
	}
}

func TestHelloWorld(t *testing.T) {
	requireNative(t)
	r := runNative(t, helloWorld, "", 0, optimizer.All, hostio.EOFZero)
	require.Nil(t, r.err)
	require.Equal(t, "Hello World!\n", r.output)
}

func TestEOFBehavior(t *testing.T) {
	requireNative(t)
	for eof, expected := range map[hostio.EOFBehavior]byte{
		hostio.EOFZero:      0,
		hostio.EOFUnchanged: 7,
		hostio.EOFMax:       255,
	} {
		r := runNative(t, "+++++++>,<,", "x", 4, optimizer.All, eof)
		require.Nil(t, r.err)
		require.Equal(t, byte('x'), r.cells[1])
		require.Equal(t, expected, r.cells[0], "eof %s", eof)
	}
}

func TestTraps(t *testing.T) {
	requireNative(t)
	tests := []struct {
		src     string
		address int64
	}{
		{"<+", -1},
		{">>>>.", 4},
		{">>>>>[]", 5},
		{"<<,", -2},
		{"+[>+]", 4},
		{"+[<+]", -1},
		{"+[-" + strings.Repeat("<", 5000) + "+]", -5000},
	}
	for _, tt := range tests {
		for _, p := range []optimizer.Pass{optimizer.None, optimizer.All} {
			r := runNative(t, tt.src, "", 4, p, hostio.EOFZero)
			var trap *errors.RuntimeTrap
			require.True(t, stderrors.As(r.err, &trap), "%s: got %v", tt.src, r.err)
			require.Equal(t, tt.address, trap.Address, tt.src)
			require.Equal(t, 4, trap.TapeSize)
		}
	}
}

func TestStartsAtTapePointer(t *testing.T) {
	requireNative(t)
	prog, err := Compile(nodes(t, "+>++", optimizer.All), Options{BoundsCheck: true})
	require.Nil(t, err)
	tp := tape.New(8)
	tp.SetPointer(3)
	require.Nil(t, prog.Run(tp, hostio.NewPort(nil, nil, hostio.EOFZero)))
	require.Equal(t, []byte{0, 0, 0, 1, 2, 0, 0, 0}, tp.Cells())
	require.Equal(t, 4, tp.Pointer())
}

func TestUncheckedInBounds(t *testing.T) {
	requireNative(t)
	prog, err := Compile(nodes(t, helloWorld, optimizer.All), Options{})
	require.Nil(t, err)
	var out bytes.Buffer
	require.Nil(t, prog.Run(tape.New(0), hostio.NewPort(nil, &out, hostio.EOFZero)))
	require.Equal(t, "Hello World!\n", out.String())
}

func randomProgram(rng *rand.Rand, size int) string {
	const alphabet = "++++---->>><<<.,"
	var b strings.Builder
	depth := 0
	for i := 0; i < size; i++ {
		switch r := rng.Intn(20); {
		case r < 16:
			b.WriteByte(alphabet[r])
		case r < 18:
			b.WriteByte('[')
			depth++
		default:
			if depth > 0 {
				b.WriteString("-]")
				depth--
			}
		}
	}
	for ; depth > 0; depth-- {
		b.WriteString("-]")
	}
	return b.String()
}

// Native code must agree with the interpreter on output, cells and traps.
func TestMatchesInterpreter(t *testing.T) {
	requireNative(t)
	rng := rand.New(rand.NewSource(7))
	const input = "native"
	for i := 0; i < 300; i++ {
		src := randomProgram(rng, 10+rng.Intn(60))
		for _, p := range []optimizer.Pass{optimizer.None, optimizer.All} {
			program := nodes(t, src, p)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			var out bytes.Buffer
			tp := tape.New(16)
			_, expectedErr := interp.Run(ctx, program, tp,
				hostio.NewPort(strings.NewReader(input), &out, hostio.EOFZero), interp.Options{})
			cancel()
			var expectedTrap *errors.RuntimeTrap
			stderrors.As(expectedErr, &expectedTrap)
			if expectedErr != nil && expectedTrap == nil {
				break // did not terminate in time
			}

			got := runNative(t, src, input, 16, p, hostio.EOFZero)
			require.Equal(t, out.String(), got.output, src)
			require.Equal(t, tp.Cells(), got.cells, src)
			require.Equal(t, tp.Pointer(), got.pointer, src)
			if expectedTrap == nil {
				require.Nil(t, got.err, src)
				continue
			}
			var trap *errors.RuntimeTrap
			require.True(t, stderrors.As(got.err, &trap), "%s: got %v", src, got.err)
			require.Equal(t, expectedTrap.Address, trap.Address, src)
		}
	}
}
