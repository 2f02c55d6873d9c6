package arm64

import (
	"encoding/binary"
	"testing"

	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/stretchr/testify/require"
)

func words(t *testing.T, code []byte) []uint32 {
	t.Helper()
	require.Zero(t, len(code)%4)
	out := make([]uint32, len(code)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(code[4*i:])
	}
	return out
}

func TestEncodings(t *testing.T) {
	tests := []struct {
		text string
		word uint32
		emit func(a *Assembler)
	}{
		{"add x9, x19, #3", 0x91000E69, func(a *Assembler) { a.AddImm(X9, X19, 3) }},
		{"sub x19, x19, #1", 0xD1000673, func(a *Assembler) { a.SubImm(X19, X19, 1) }},
		{"add w0, w0, #1", 0x11000400, func(a *Assembler) { a.AddImmW(X0, X0, 1) }},
		{"sub w0, w0, #1", 0x51000400, func(a *Assembler) { a.SubImmW(X0, X0, 1) }},
		{"mov x19, x0", 0xAA0003F3, func(a *Assembler) { a.Mov(X19, X0) }},
		{"mov x29, sp", 0x910003FD, func(a *Assembler) { a.MovSP(FP) }},
		{"ldrb w0, [x19]", 0x39400260, func(a *Assembler) { a.Ldrb(X0, X19, 0) }},
		{"ldrb w1, [x9]", 0x39400121, func(a *Assembler) { a.Ldrb(X1, X9, 0) }},
		{"strb wzr, [x9]", 0x3900013F, func(a *Assembler) { a.Strb(XZR, X9, 0) }},
		{"cmp x10, x21", 0xEB15015F, func(a *Assembler) { a.CmpReg(X10, X21) }},
		{"sub x10, x9, x20", 0xCB14012A, func(a *Assembler) { a.SubReg(X10, X9, X20) }},
		{"blr x23", 0xD63F02E0, func(a *Assembler) { a.Blr(X23) }},
		{"ret", 0xD65F03C0, func(a *Assembler) { a.Ret() }},
		{"nop", 0xD503201F, func(a *Assembler) { a.Nop() }},
		{"stp x29, x30, [sp, #-16]!", 0xA9BF7BFD, func(a *Assembler) { a.StpPre(FP, LR, SP, -16) }},
		{"ldp x29, x30, [sp], #16", 0xA8C17BFD, func(a *Assembler) { a.LdpPost(FP, LR, SP, 16) }},
		{"stp x19, x20, [sp, #16]", 0xA90153F3, func(a *Assembler) { a.Stp(X19, X20, SP, 16) }},
		{"ldp x19, x20, [sp, #16]", 0xA94153F3, func(a *Assembler) { a.Ldp(X19, X20, SP, 16) }},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			a := New()
			tt.emit(a)
			code, err := a.Finish()
			require.Nil(t, err)
			require.Equal(t, []uint32{tt.word}, words(t, code))
			require.Equal(t, tt.text, a.Listing()[0].Text)
		})
	}
}

func TestForwardAndBackwardBranches(t *testing.T) {
	a := New()
	head := a.NewLabel()
	end := a.NewLabel()
	a.Bind(head)
	a.CBZ(X0, end) // 0
	a.Nop()        // 1
	a.BCond(HS, end)
	a.B(head) // 3
	a.Bind(end)
	a.Ret() // 4
	code, err := a.Finish()
	require.Nil(t, err)
	require.Equal(t, []uint32{
		0x34000000 | 4<<5,
		0xD503201F,
		0x54000000 | 2<<5 | uint32(HS),
		0x17FFFFFD,
		0xD65F03C0,
	}, words(t, code))

	lines := a.Listing()
	require.Equal(t, []Label{head}, lines[0].Labels)
	require.Equal(t, []Label{end}, lines[4].Labels)
	require.Equal(t, "cbz w0, L1", lines[0].Text)
	require.Equal(t, "b.hs L1", lines[2].Text)
	require.Equal(t, "b L0", lines[3].Text)
	require.Equal(t, 12, lines[3].Offset)
}

func TestTBNZ(t *testing.T) {
	a := New()
	skip := a.NewLabel()
	a.TBNZ(X0, 31, skip)
	a.Nop()
	a.Bind(skip)
	a.Nop()
	code, err := a.Finish()
	require.Nil(t, err)
	require.Equal(t, uint32(0x37F80040), words(t, code)[0])
	require.Equal(t, "tbnz w0, #31, L0", a.Listing()[0].Text)
}

func TestUnboundLabel(t *testing.T) {
	a := New()
	a.B(a.NewLabel())
	_, err := a.Finish()
	require.True(t, errors.IsInternal(err))
	require.Contains(t, err.Error(), "label L0 is never bound")
}

func TestLabelBoundTwice(t *testing.T) {
	a := New()
	l := a.NewLabel()
	a.Bind(l)
	a.Nop()
	a.Bind(l)
	_, err := a.Finish()
	require.True(t, errors.IsInternal(err))
}

func TestImmediateOutOfRange(t *testing.T) {
	for _, emit := range []func(a *Assembler){
		func(a *Assembler) { a.AddImm(X9, X19, 4096) },
		func(a *Assembler) { a.SubImm(X9, X19, -1) },
		func(a *Assembler) { a.Ldrb(X0, X9, 5000) },
		func(a *Assembler) { a.Stp(X19, X20, SP, 12) },
		func(a *Assembler) { a.TBNZ(X0, 40, a.NewLabel()) },
	} {
		a := New()
		emit(a)
		_, err := a.Finish()
		require.True(t, errors.IsInternal(err), "got %v", err)
	}
}

func TestBranchOutOfRange(t *testing.T) {
	a := New()
	far := a.NewLabel()
	a.TBNZ(X0, 31, far)
	for i := 0; i < 1<<13; i++ {
		a.Nop()
	}
	a.Bind(far)
	a.Ret()
	_, err := a.Finish()
	require.True(t, errors.IsInternal(err))
	require.Contains(t, err.Error(), "out of range")
}

func TestLen(t *testing.T) {
	a := New()
	require.Equal(t, 0, a.Len())
	a.Nop()
	a.Ret()
	require.Equal(t, 8, a.Len())
	require.Nil(t, a.Err())
}

func TestCondString(t *testing.T) {
	require.Equal(t, "hs", HS.String())
	require.Equal(t, "cond(15)", Cond(15).String())
}
