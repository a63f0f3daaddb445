package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// Bytecode register to PowerPC register mapping
//
//	BPF R0     -> r10  return value, moved to r3 on exit
//	BPF R1..R5 -> r3..r7  argument registers, clobbered by helper calls
//	BPF R6     -> r30
//	BPF R7     -> r29
//	BPF R8     -> r28
//	BPF R9     -> r26
//	BPF FP     -> r31  points at the top of the 512-byte stack
//	TMP1, TMP2 -> r8, r9  scratch for multi-instruction sequences
//
// R6..R9 and FP live in non-volatile registers so they survive helper calls; the prologue
// saves only the ones a program touches.
const (
	TMP1 = bpf.NumRegs
	TMP2 = bpf.NumRegs + 1

	numMappedRegs = bpf.NumRegs + 2
)

var regMap = [numMappedRegs]ppc64.Reg{
	bpf.R0: ppc64.R10,
	bpf.R1: ppc64.R3,
	bpf.R2: ppc64.R4,
	bpf.R3: ppc64.R5,
	bpf.R4: ppc64.R6,
	bpf.R5: ppc64.R7,
	bpf.R6: ppc64.R30,
	bpf.R7: ppc64.R29,
	bpf.R8: ppc64.R28,
	bpf.R9: ppc64.R26,
	bpf.FP: ppc64.R31,
	TMP1:   ppc64.R8,
	TMP2:   ppc64.R9,
}

// Scratch registers, named for the codegen
var (
	tmp1 = regMap[TMP1]
	tmp2 = regMap[TMP2]
	rR0  = regMap[bpf.R0]
	rFP  = regMap[bpf.FP]
)

// Physical returns the PowerPC register holding bytecode register r (or TMP1/TMP2).
// It panics for r outside the map; callers validate instruction fields first.
func Physical(r uint8) ppc64.Reg {
	return regMap[r]
}

// calleeSaved lists the bytecode registers kept in non-volatile registers, in save order.
var calleeSaved = [...]uint8{bpf.R6, bpf.R7, bpf.R8, bpf.R9, bpf.FP}
