// Package codegen translates optimized IR into AArch64 machine code.
//
// The generated function follows the AAPCS64 calling convention:
//
//	entry(base, len, ctx, put, get, trap, start) -> final pointer address
//
// base and len describe the tape, start is the address of the initial
// pointer, ctx is an opaque value handed back to the host routines, and put,
// get and trap are the addresses of the host routines:
//
//	put(ctx, byte)      writes one byte
//	get(ctx) -> value   reads one byte; a value with bit 31 set leaves the cell unchanged
//	trap(ctx, index)    reports an access to a cell outside the tape
//
// Arguments are moved into callee-saved registers on entry, so they survive
// the calls to the host routines.
package codegen

import (
	"github.com/deepnoodle-ai/brainmuck/arm64"
	"github.com/deepnoodle-ai/brainmuck/errors"
	"github.com/deepnoodle-ai/brainmuck/ir"
)

// Register assignment
const (
	regPtr   = arm64.X19 // current cell address
	regBase  = arm64.X20
	regLen   = arm64.X21
	regCtx   = arm64.X22
	regPut   = arm64.X23
	regGet   = arm64.X24
	regTrap  = arm64.X25
	regAddr  = arm64.X9  // cell address when the offset is not zero
	regIndex = arm64.X10 // cell index relative to base, for bounds checks
	regValue = arm64.X0
)

const frameSize = 80

// maxNodeWords bounds the number of instructions a single node expands to.
// It decides whether conditional branches can reach every target.
const maxNodeWords = 12

// nearWords is the reach of a conditional branch in instructions.
const nearWords = 1 << 18

// Options configures code generation.
type Options struct {
	// BoundsCheck emits a check before every cell access that calls the
	// trap routine when the access falls outside the tape.
	BoundsCheck bool

	// FarBranches emits conditional branches as a short branch around an
	// unconditional one. It is selected automatically when the program is
	// too large for conditional branches to reach their targets.
	FarBranches bool
}

// Code is the output of the code generator.
type Code struct {
	Bytes   []byte
	Listing []arm64.Line

	// Checks is the number of bounds checks emitted.
	Checks int
}

type generator struct {
	asm    *arm64.Assembler
	opts   Options
	exit   arm64.Label
	trap   arm64.Label
	checks int
}

// Generate returns the machine code for nodes. Every pointer delta and cell
// offset must fit in an unsigned 12-bit immediate, as guaranteed by the
// optimizer; anything else is an *errors.InternalError.
func Generate(nodes []ir.Node, opts Options) (*Code, error) {
	if !opts.FarBranches && ir.Count(nodes)*maxNodeWords+64 >= nearWords {
		opts.FarBranches = true
	}
	g := &generator{asm: arm64.New(), opts: opts}
	g.exit = g.asm.NewLabel()
	g.trap = g.asm.NewLabel()

	g.prologue()
	if err := g.block(nodes); err != nil {
		return nil, err
	}
	g.epilogue()
	g.trapStub()

	code, err := g.asm.Finish()
	if err != nil {
		return nil, err
	}
	return &Code{Bytes: code, Listing: g.asm.Listing(), Checks: g.checks}, nil
}

func (g *generator) prologue() {
	a := g.asm
	a.StpPre(arm64.FP, arm64.LR, arm64.SP, -frameSize)
	a.MovSP(arm64.FP)
	a.Stp(arm64.X19, arm64.X20, arm64.SP, 16)
	a.Stp(arm64.X21, arm64.X22, arm64.SP, 32)
	a.Stp(arm64.X23, arm64.X24, arm64.SP, 48)
	a.Stp(arm64.X25, arm64.X26, arm64.SP, 64)
	a.Mov(regBase, arm64.X0)
	a.Mov(regLen, arm64.X1)
	a.Mov(regCtx, arm64.X2)
	a.Mov(regPut, arm64.X3)
	a.Mov(regGet, arm64.X4)
	a.Mov(regTrap, arm64.X5)
	a.Mov(regPtr, arm64.X6)
}

func (g *generator) epilogue() {
	a := g.asm
	a.Bind(g.exit)
	a.Mov(arm64.X0, regPtr)
	a.Ldp(arm64.X25, arm64.X26, arm64.SP, 64)
	a.Ldp(arm64.X23, arm64.X24, arm64.SP, 48)
	a.Ldp(arm64.X21, arm64.X22, arm64.SP, 32)
	a.Ldp(arm64.X19, arm64.X20, arm64.SP, 16)
	a.LdpPost(arm64.FP, arm64.LR, arm64.SP, frameSize)
	a.Ret()
}

// trapStub reports the failing index, left in regIndex by the check, and
// leaves through the epilogue.
func (g *generator) trapStub() {
	if g.checks == 0 {
		return
	}
	a := g.asm
	a.Bind(g.trap)
	a.Mov(arm64.X0, regCtx)
	a.Mov(arm64.X1, regIndex)
	a.Blr(regTrap)
	a.B(g.exit)
}

func (g *generator) block(nodes []ir.Node) error {
	for _, node := range nodes {
		if err := g.node(node); err != nil {
			return err
		}
	}
	return g.asm.Err()
}

func (g *generator) node(node ir.Node) error {
	a := g.asm
	switch n := node.(type) {
	case *ir.AdjustPointer:
		if n.Delta > 0 {
			a.AddImm(regPtr, regPtr, n.Delta)
		} else if n.Delta < 0 {
			a.SubImm(regPtr, regPtr, -n.Delta)
		}
	case *ir.AdjustCell:
		reg, disp := g.cell(n.Offset)
		if n.Delta == 0 {
			return nil
		}
		a.Ldrb(regValue, reg, disp)
		if n.Delta > 0 {
			a.AddImmW(regValue, regValue, n.Delta)
		} else {
			a.SubImmW(regValue, regValue, -n.Delta)
		}
		a.Strb(regValue, reg, disp)
	case *ir.SetCellZero:
		reg, disp := g.cell(n.Offset)
		a.Strb(arm64.XZR, reg, disp)
	case *ir.Output:
		reg, disp := g.cell(n.Offset)
		a.Ldrb(arm64.X1, reg, disp)
		a.Mov(arm64.X0, regCtx)
		a.Blr(regPut)
	case *ir.Input:
		g.cell(n.Offset)
		a.Mov(arm64.X0, regCtx)
		a.Blr(regGet)
		skip := a.NewLabel()
		a.TBNZ(regValue, 31, skip)
		// the call clobbered the scratch address register
		reg, disp := g.address(n.Offset)
		a.Strb(regValue, reg, disp)
		a.Bind(skip)
	case *ir.Loop:
		return g.loop(n)
	default:
		return errors.Internalf("codegen", "unknown node type %T", node)
	}
	return nil
}

func (g *generator) loop(n *ir.Loop) error {
	a := g.asm
	head := a.NewLabel()
	end := a.NewLabel()
	a.Bind(head)
	reg, disp := g.cell(0)
	a.Ldrb(regValue, reg, disp)
	if g.opts.FarBranches {
		body := a.NewLabel()
		a.CBNZ(regValue, body)
		a.B(end)
		a.Bind(body)
	} else {
		a.CBZ(regValue, end)
	}
	if err := g.block(n.Body); err != nil {
		return err
	}
	a.B(head)
	a.Bind(end)
	return nil
}

// address returns a base register and displacement addressing the cell at
// the given offset from the pointer.
func (g *generator) address(offset int) (arm64.Reg, int) {
	switch {
	case offset == 0:
		return regPtr, 0
	case offset > 0 && !g.opts.BoundsCheck:
		return regPtr, offset
	case offset > 0:
		g.asm.AddImm(regAddr, regPtr, offset)
	default:
		g.asm.SubImm(regAddr, regPtr, -offset)
	}
	return regAddr, 0
}

// cell is address plus the bounds check, when enabled.
func (g *generator) cell(offset int) (arm64.Reg, int) {
	reg, disp := g.address(offset)
	if g.opts.BoundsCheck {
		g.check(reg)
	}
	return reg, disp
}

// check branches to the trap stub unless reg - base is below the tape
// length. The comparison is unsigned, so addresses below the base fail too.
func (g *generator) check(reg arm64.Reg) {
	a := g.asm
	g.checks++
	a.SubReg(regIndex, reg, regBase)
	a.CmpReg(regIndex, regLen)
	if g.opts.FarBranches {
		ok := a.NewLabel()
		a.BCond(arm64.LO, ok)
		a.B(g.trap)
		a.Bind(ok)
		return
	}
	a.BCond(arm64.HS, g.trap)
}
