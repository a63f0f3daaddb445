package jit

import (
	"fmt"
	"slices"
)

// addressTable maps each bytecode slot to the word index where its code starts. It has
// one extra entry for the epilogue, so a jump past the last instruction lands on the exit.
type addressTable []uint32

func newAddressTable(n int) addressTable {
	return make(addressTable, n+1)
}

func (t addressTable) clone() addressTable {
	return slices.Clone(t)
}

// firstMismatch returns the first slot where t and u differ, or -1.
func (t addressTable) firstMismatch(u addressTable) int {
	if len(t) != len(u) {
		return min(len(t), len(u))
	}
	for i := range t {
		if t[i] != u[i] {
			return i
		}
	}
	return -1
}

// Offsets converts word indices to byte offsets from the start of the code.
func (t addressTable) Offsets() []uint32 {
	out := make([]uint32, len(t))
	for i, w := range t {
		out[i] = w * 4
	}
	return out
}

// generate runs one full pass: prologue, body and epilogue into the current assembler.
func (g *codegen) generate() error {
	g.emitPrologue()
	if err := g.buildBody(); err != nil {
		return err
	}
	g.emitEpilogue()
	return nil
}

// runPasses performs the two generation passes. The first pass fixes every instruction's
// position (lengths never depend on branch distances); the second resolves all branches
// against those positions. The result is accepted only if the second pass reproduced the
// first pass's table and the length computed while sizing.
func (g *codegen) runPasses(wantWords int, pass func(n int, words int)) error {
	var prev addressTable
	for n := 1; n <= 2; n++ {
		g.asm.Reset()
		if err := g.generate(); err != nil {
			return err
		}
		if pass != nil {
			pass(n, g.asm.Len())
		}
		if g.asm.Overflowed() {
			return fmt.Errorf("pass %d: wrote %d words into a %d word buffer", n, g.asm.Len(), wantWords)
		}
		if n == 2 {
			if i := g.addrs.firstMismatch(prev); i >= 0 {
				return fmt.Errorf("pass 2: insn %d moved from word %d to %d", i, prev[i], g.addrs[i])
			}
		}
		prev = g.addrs.clone()
	}
	if g.asm.Len() != wantWords {
		return fmt.Errorf("generated %d words, sized %d", g.asm.Len(), wantWords)
	}
	return nil
}
