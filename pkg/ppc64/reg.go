package ppc64

import "fmt"

// Reg is a 64-bit PowerPC general purpose register number.
type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30
	R31
)

// ABI register roles shared by ELFv1 and ELFv2
const (
	SP  = R1  // stack pointer
	TOC = R2  // table of contents / global data pointer
	Ret = R3  // first argument and return value
	Fn  = R12 // callee entry address under ELFv2
)

// NumGPR is the number of general purpose registers.
const NumGPR = 32

// FirstNonVolatile is the lowest callee-saved register; r14..r31 survive calls.
const FirstNonVolatile = R14

// NonVolatile reports whether the register must be preserved across calls.
func (r Reg) NonVolatile() bool {
	return r >= FirstNonVolatile && r <= R31
}

func (r Reg) String() string {
	if r >= NumGPR {
		return fmt.Sprintf("r?%d", uint8(r))
	}
	return fmt.Sprintf("r%d", uint8(r))
}
