package arm64

import "fmt"

// Reg is a general purpose register number. Register 31 is the stack
// pointer or the zero register depending on the instruction.
type Reg uint8

const (
	X0  Reg = 0
	X1  Reg = 1
	X2  Reg = 2
	X3  Reg = 3
	X4  Reg = 4
	X5  Reg = 5
	X6  Reg = 6
	X9  Reg = 9
	X10 Reg = 10
	X19 Reg = 19
	X20 Reg = 20
	X21 Reg = 21
	X22 Reg = 22
	X23 Reg = 23
	X24 Reg = 24
	X25 Reg = 25
	X26 Reg = 26
	FP  Reg = 29 // frame pointer
	LR  Reg = 30 // link register
	SP  Reg = 31
	XZR Reg = 31
)

// Cond is a condition code for B.cond.
type Cond uint8

const (
	EQ Cond = 0x0
	NE Cond = 0x1
	HS Cond = 0x2 // unsigned >=
	LO Cond = 0x3 // unsigned <
	MI Cond = 0x4
	PL Cond = 0x5
	HI Cond = 0x8
	LS Cond = 0x9
	GE Cond = 0xa
	LT Cond = 0xb
	GT Cond = 0xc
	LE Cond = 0xd
	AL Cond = 0xe
)

var condNames = map[Cond]string{
	EQ: "eq", NE: "ne", HS: "hs", LO: "lo", MI: "mi", PL: "pl",
	HI: "hi", LS: "ls", GE: "ge", LT: "lt", GT: "gt", LE: "le", AL: "al",
}

func (c Cond) String() string {
	if name, ok := condNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cond(%d)", uint8(c))
}

// x names r as a 64-bit register where 31 means sp.
func x(r Reg) string {
	if r == SP {
		return "sp"
	}
	return fmt.Sprintf("x%d", r)
}

// xz names r as a 64-bit register where 31 means xzr.
func xz(r Reg) string {
	if r == XZR {
		return "xzr"
	}
	return fmt.Sprintf("x%d", r)
}

// wz names r as a 32-bit register where 31 means wzr.
func wz(r Reg) string {
	if r == XZR {
		return "wzr"
	}
	return fmt.Sprintf("w%d", r)
}
