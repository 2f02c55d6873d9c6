package arm64

import "fmt"

// MaxImm12 is the largest unsigned 12-bit immediate.
const MaxImm12 = 4095

func (a *Assembler) imm12(op string, imm int) uint32 {
	if imm < 0 || imm > MaxImm12 {
		a.failf("%s immediate %d does not fit in 12 bits", op, imm)
		return 0
	}
	return uint32(imm) << 10
}

func (a *Assembler) addSubImm(base uint32, op string, rd, rn Reg, imm int, text string) {
	a.Emit(base|a.imm12(op, imm)|uint32(rn)<<5|uint32(rd), text)
}

// AddImm emits add xd, xn, #imm.
func (a *Assembler) AddImm(rd, rn Reg, imm int) {
	a.addSubImm(0x91000000, "add", rd, rn, imm, fmt.Sprintf("add %s, %s, #%d", x(rd), x(rn), imm))
}

// SubImm emits sub xd, xn, #imm.
func (a *Assembler) SubImm(rd, rn Reg, imm int) {
	a.addSubImm(0xD1000000, "sub", rd, rn, imm, fmt.Sprintf("sub %s, %s, #%d", x(rd), x(rn), imm))
}

// AddImmW emits add wd, wn, #imm.
func (a *Assembler) AddImmW(rd, rn Reg, imm int) {
	a.addSubImm(0x11000000, "add", rd, rn, imm, fmt.Sprintf("add %s, %s, #%d", wz(rd), wz(rn), imm))
}

// SubImmW emits sub wd, wn, #imm.
func (a *Assembler) SubImmW(rd, rn Reg, imm int) {
	a.addSubImm(0x51000000, "sub", rd, rn, imm, fmt.Sprintf("sub %s, %s, #%d", wz(rd), wz(rn), imm))
}

// MovSP emits mov xd, sp.
func (a *Assembler) MovSP(rd Reg) {
	a.Emit(0x91000000|uint32(SP)<<5|uint32(rd), fmt.Sprintf("mov %s, sp", x(rd)))
}

// Mov emits mov xd, xm.
func (a *Assembler) Mov(rd, rm Reg) {
	a.Emit(0xAA0003E0|uint32(rm)<<16|uint32(rd), fmt.Sprintf("mov %s, %s", xz(rd), xz(rm)))
}

// SubReg emits sub xd, xn, xm.
func (a *Assembler) SubReg(rd, rn, rm Reg) {
	a.Emit(0xCB000000|uint32(rm)<<16|uint32(rn)<<5|uint32(rd),
		fmt.Sprintf("sub %s, %s, %s", xz(rd), xz(rn), xz(rm)))
}

// CmpReg emits cmp xn, xm.
func (a *Assembler) CmpReg(rn, rm Reg) {
	a.Emit(0xEB000000|uint32(rm)<<16|uint32(rn)<<5|uint32(XZR),
		fmt.Sprintf("cmp %s, %s", xz(rn), xz(rm)))
}

func memOperand(rn Reg, imm int) string {
	if imm == 0 {
		return fmt.Sprintf("[%s]", x(rn))
	}
	return fmt.Sprintf("[%s, #%d]", x(rn), imm)
}

// Ldrb emits ldrb wt, [xn, #imm].
func (a *Assembler) Ldrb(rt, rn Reg, imm int) {
	a.Emit(0x39400000|a.imm12("ldrb", imm)|uint32(rn)<<5|uint32(rt),
		fmt.Sprintf("ldrb %s, %s", wz(rt), memOperand(rn, imm)))
}

// Strb emits strb wt, [xn, #imm].
func (a *Assembler) Strb(rt, rn Reg, imm int) {
	a.Emit(0x39000000|a.imm12("strb", imm)|uint32(rn)<<5|uint32(rt),
		fmt.Sprintf("strb %s, %s", wz(rt), memOperand(rn, imm)))
}

type pairMode uint8

const (
	pairOffset pairMode = iota
	pairPreIndex
	pairPostIndex
)

func (a *Assembler) pair(load bool, mode pairMode, rt, rt2, rn Reg, offset int) {
	if offset%8 != 0 || offset < -512 || offset > 504 {
		a.failf("pair offset %d is not a multiple of 8 in [-512, 504]", offset)
		return
	}
	var word uint32
	switch mode {
	case pairOffset:
		word = 0xA9000000
	case pairPreIndex:
		word = 0xA9800000
	case pairPostIndex:
		word = 0xA8800000
	}
	name := "stp"
	if load {
		word |= 1 << 22
		name = "ldp"
	}
	imm7 := uint32(offset/8) & 0x7f
	word |= imm7<<15 | uint32(rt2)<<10 | uint32(rn)<<5 | uint32(rt)
	var operand string
	switch mode {
	case pairOffset:
		operand = memOperand(rn, offset)
	case pairPreIndex:
		operand = fmt.Sprintf("[%s, #%d]!", x(rn), offset)
	case pairPostIndex:
		operand = fmt.Sprintf("[%s], #%d", x(rn), offset)
	}
	a.Emit(word, fmt.Sprintf("%s %s, %s, %s", name, xz(rt), xz(rt2), operand))
}

// Stp emits stp xt, xt2, [xn, #offset].
func (a *Assembler) Stp(rt, rt2, rn Reg, offset int) {
	a.pair(false, pairOffset, rt, rt2, rn, offset)
}

// StpPre emits stp xt, xt2, [xn, #offset]!.
func (a *Assembler) StpPre(rt, rt2, rn Reg, offset int) {
	a.pair(false, pairPreIndex, rt, rt2, rn, offset)
}

// Ldp emits ldp xt, xt2, [xn, #offset].
func (a *Assembler) Ldp(rt, rt2, rn Reg, offset int) {
	a.pair(true, pairOffset, rt, rt2, rn, offset)
}

// LdpPost emits ldp xt, xt2, [xn], #offset.
func (a *Assembler) LdpPost(rt, rt2, rn Reg, offset int) {
	a.pair(true, pairPostIndex, rt, rt2, rn, offset)
}

// Blr emits blr xn.
func (a *Assembler) Blr(rn Reg) {
	a.Emit(0xD63F0000|uint32(rn)<<5, "blr "+xz(rn))
}

// Ret emits ret.
func (a *Assembler) Ret() {
	a.Emit(0xD65F03C0, "ret")
}

// Nop emits nop.
func (a *Assembler) Nop() {
	a.Emit(0xD503201F, "nop")
}
