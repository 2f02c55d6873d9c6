package codegen

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/ir"
	"github.com/deepnoodle-ai/brainmuck/optimizer"
	"github.com/deepnoodle-ai/brainmuck/parser"
	"github.com/stretchr/testify/require"
)

var prologue = []string{
	"stp x29, x30, [sp, #-80]!",
	"mov x29, sp",
	"stp x19, x20, [sp, #16]",
	"stp x21, x22, [sp, #32]",
	"stp x23, x24, [sp, #48]",
	"stp x25, x26, [sp, #64]",
	"mov x20, x0",
	"mov x21, x1",
	"mov x22, x2",
	"mov x23, x3",
	"mov x24, x4",
	"mov x25, x5",
	"mov x19, x6",
}

var epilogue = []string{
	"mov x0, x19",
	"ldp x25, x26, [sp, #64]",
	"ldp x23, x24, [sp, #48]",
	"ldp x21, x22, [sp, #32]",
	"ldp x19, x20, [sp, #16]",
	"ldp x29, x30, [sp], #80",
	"ret",
}

var trapStub = []string{
	"mov x0, x22",
	"mov x1, x10",
	"blr x25",
	"b L0",
}

func generate(t *testing.T, src string, passes optimizer.Pass, opts Options) *Code {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.Nil(t, err)
	code, err := Generate(optimizer.Optimize(ir.Build(prog.Instructions()), passes), opts)
	require.Nil(t, err)
	require.Equal(t, 4*len(code.Listing), len(code.Bytes))
	return code
}

func texts(code *Code) []string {
	out := make([]string, len(code.Listing))
	for i, line := range code.Listing {
		out[i] = line.Text
	}
	return out
}

func concat(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestEmptyProgram(t *testing.T) {
	code := generate(t, "", optimizer.All, Options{BoundsCheck: true})
	require.Equal(t, concat(prologue, epilogue), texts(code))
	require.Zero(t, code.Checks)
}

func TestIncrementWithCheck(t *testing.T) {
	code := generate(t, "+", optimizer.All, Options{BoundsCheck: true})
	body := []string{
		"sub x10, x19, x20",
		"cmp x10, x21",
		"b.hs L1",
		"ldrb w0, [x19]",
		"add w0, w0, #1",
		"strb w0, [x19]",
	}
	require.Equal(t, concat(prologue, body, epilogue, trapStub), texts(code))
	require.Equal(t, 1, code.Checks)
}

func TestOffsetsWithoutCheck(t *testing.T) {
	code := generate(t, ">>--<.", optimizer.All, Options{})
	body := []string{
		"ldrb w0, [x19, #2]",
		"sub w0, w0, #2",
		"strb w0, [x19, #2]",
		"ldrb w1, [x19, #1]",
		"mov x0, x22",
		"blr x23",
		"add x19, x19, #1",
	}
	require.Equal(t, concat(prologue, body, epilogue), texts(code))
}

func TestNegativeOffset(t *testing.T) {
	code := generate(t, "<[-]>", optimizer.Coalesce|optimizer.ZeroIdiom|optimizer.OffsetFold, Options{})
	body := []string{
		"sub x9, x19, #1",
		"strb wzr, [x9]",
	}
	require.Equal(t, concat(prologue, body, epilogue), texts(code))
}

func TestLoopShape(t *testing.T) {
	code := generate(t, "[>]", optimizer.All, Options{})
	body := []string{
		"ldrb w0, [x19]",
		"cbz w0, L3",
		"add x19, x19, #1",
		"b L2",
	}
	require.Equal(t, concat(prologue, body, epilogue), texts(code))
	// the loop end label lands on the first epilogue instruction
	require.Len(t, code.Listing[len(prologue)+len(body)].Labels, 2)
}

func TestInputShape(t *testing.T) {
	code := generate(t, ">,", optimizer.All, Options{BoundsCheck: true})
	body := []string{
		"add x9, x19, #1",
		"sub x10, x9, x20",
		"cmp x10, x21",
		"b.hs L1",
		"mov x0, x22",
		"blr x24",
		"tbnz w0, #31, L2",
		"add x9, x19, #1",
		"strb w0, [x9]",
		"add x19, x19, #1",
	}
	require.Equal(t, concat(prologue, body, epilogue, trapStub), texts(code))
}

func TestFarBranches(t *testing.T) {
	code := generate(t, "[-.]", optimizer.All, Options{BoundsCheck: true, FarBranches: true})
	listing := strings.Join(texts(code), "\n")
	require.Contains(t, listing, "cbnz w0, L5")
	require.Contains(t, listing, "b.lo")
	require.NotContains(t, listing, "b.hs")
	require.NotContains(t, listing, "cbz ")
}

func TestZeroDeltaIsOnlyChecked(t *testing.T) {
	code := generate(t, "+-", optimizer.All, Options{BoundsCheck: true})
	require.Equal(t, 1, code.Checks)
	require.NotContains(t, strings.Join(texts(code), "\n"), "ldrb")
}

func TestUnlegalizedImmediate(t *testing.T) {
	_, err := Generate([]ir.Node{&ir.AdjustPointer{Delta: 5000}}, Options{})
	require.True(t, errors.IsInternal(err), "got %v", err)

	_, err = Generate([]ir.Node{&ir.Output{Offset: -5000}}, Options{BoundsCheck: true})
	require.True(t, errors.IsInternal(err), "got %v", err)
}

func TestEveryPassCombinationGenerates(t *testing.T) {
	src := "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
	for p := optimizer.None; p <= optimizer.All; p++ {
		for _, check := range []bool{true, false} {
			code := generate(t, src, p, Options{BoundsCheck: check})
			require.NotEmpty(t, code.Bytes)
			if !check {
				require.Zero(t, code.Checks)
			}
		}
	}
}
