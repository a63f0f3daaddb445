package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// emitCall calls helper ins.Imm. Arguments are already in r3..r7 (R1..R5); the result
// comes back in r3 and is moved to R0.
func (g *codegen) emitCall(i int, ins bpf.Instruction) error {
	g.seen |= seenFunc

	if g.helpers == nil {
		return helperError(ErrHelperUnresolved, i, ins.Imm)
	}
	h, ok := g.helpers.Resolve(ins.Imm)
	if !ok {
		return helperError(ErrHelperUnresolved, i, ins.Imm)
	}
	if !h.JITCompatible {
		return helperError(ErrHelperNotJITCompatible, i, ins.Imm)
	}

	a := g.asm
	addr := int64(h.Addr)
	if g.target.FunctionDescriptors() {
		// Addr is a descriptor: load the entry point and the callee's TOC from it.
		a.LoadImm64(tmp2, addr)
		a.Ld(tmp1, tmp2, 0)
		a.Ld(ppc64.TOC, tmp2, 8)
		a.Mtlr(tmp1)
	} else {
		// ELFv2 callees expect their own address in r12 to set up the TOC.
		a.LoadImm64(ppc64.Fn, addr)
		a.Mtlr(ppc64.Fn)
	}
	a.Blrl()
	a.Mr(rR0, ppc64.Ret)
	return nil
}
