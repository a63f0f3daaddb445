package jit

import (
	"bpfjit/pkg/ppc64"
)

// seenSet records what a program uses. Bit 31-r is set for each non-volatile register r
// the program touches; the flag bits sit well above the register bits.
type seenSet uint32

const (
	seenFunc  seenSet = 0x1000 // calls a helper
	seenStack seenSet = 0x2000 // uses the frame pointer

	firstTrackedReg = ppc64.R26
)

func (s *seenSet) markReg(r ppc64.Reg) {
	if r >= firstTrackedReg && r <= ppc64.R31 {
		*s |= 1 << (31 - uint(r))
	}
}

func (s seenSet) reg(r ppc64.Reg) bool {
	return r >= firstTrackedReg && r <= ppc64.R31 && s&(1<<(31-uint(r))) != 0
}

func (s seenSet) has(flag seenSet) bool {
	return s&flag != 0
}

// needsFrame reports whether the program must build a stack frame: it calls helpers (which
// need the link register saved and a proper back chain) or addresses the bytecode stack.
func (s seenSet) needsFrame() bool {
	return s.has(seenFunc) || s.has(seenStack)
}

// scanResult is what the sizing pass learns about a program.
type scanResult struct {
	seen      seenSet
	bodyWords int
	addrs     addressTable
}

// scan runs the instruction selector over the whole program against a counting assembler.
// It computes the usage set and body length and surfaces every translation error before
// any memory is allocated.
func scan(g *codegen) (scanResult, error) {
	g.asm = ppc64.NewCounter()
	g.seen = 0
	if err := g.buildBody(); err != nil {
		return scanResult{}, err
	}
	return scanResult{seen: g.seen, bodyWords: g.asm.Len(), addrs: g.addrs.clone()}, nil
}
