package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// emitShift handles LSH, RSH and ARSH. Immediate shifts of zero are dropped for 64-bit
// operands; the 32-bit immediate forms are rotate-and-mask instructions that also clear
// the upper word, so they are emitted even for zero.
//
// Register counts are reduced modulo the operand width first: the hardware shifts read one
// more count bit than that and would shift everything out.
func (g *codegen) emitShift(op bpf.ALUOp, is64, useReg bool, imm int32, dst, src ppc64.Reg) {
	a := g.asm
	if useReg {
		if is64 {
			a.Rldicl(tmp1, src, 0, 58)
		} else {
			a.Rlwinm(tmp1, src, 0, 27, 31)
		}
		src = tmp1
		switch {
		case op == bpf.OpLSH && is64:
			a.Sld(dst, dst, src)
		case op == bpf.OpLSH:
			a.Slw(dst, dst, src)
		case op == bpf.OpRSH && is64:
			a.Srd(dst, dst, src)
		case op == bpf.OpRSH:
			a.Srw(dst, dst, src)
		case op == bpf.OpARSH && is64:
			a.Srad(dst, dst, src)
		default:
			a.Sraw(dst, dst, src)
		}
		return
	}

	if is64 {
		n := uint8(imm) & 63
		if n == 0 {
			return
		}
		switch op {
		case bpf.OpLSH:
			a.Sldi(dst, dst, n)
		case bpf.OpRSH:
			a.Srdi(dst, dst, n)
		default:
			a.Sradi(dst, dst, n)
		}
		return
	}

	n := uint8(imm) & 31
	switch op {
	case bpf.OpLSH:
		a.Slwi(dst, dst, n)
	case bpf.OpRSH:
		a.Srwi(dst, dst, n)
	default:
		a.Srawi(dst, dst, n)
	}
}
