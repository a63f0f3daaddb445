package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// emitEndian converts dst to the byte order named by the instruction. When that is the
// target's own order only truncation is needed.
func (g *codegen) emitEndian(i int, ins bpf.Instruction, dst ppc64.Reg) error {
	a := g.asm
	wantBE := ins.Code.Source() == bpf.ToBE
	if wantBE == g.target.IsBigEndian() {
		switch ins.Imm {
		case 16:
			a.Clrldi(dst, dst, 48)
		case 32:
			a.Clrldi(dst, dst, 32)
		case 64:
		default:
			return insnError(ErrUnsupportedOpcode, i, ins)
		}
		return nil
	}

	switch ins.Imm {
	case 16:
		// Rotate the low halfword left by 8 into bits 16..23, then insert the other byte.
		a.Rlwinm(tmp1, dst, 8, 16, 23)
		a.Rlwimi(tmp1, dst, 24, 24, 31)
		a.Mr(dst, tmp1)
	case 32:
		// Rotate left by 8 puts bytes 1 and 3 in place; two inserts fix bytes 0 and 2.
		a.Rlwinm(tmp1, dst, 8, 0, 31)
		a.Rlwimi(tmp1, dst, 24, 0, 7)
		a.Rlwimi(tmp1, dst, 24, 16, 23)
		a.Mr(dst, tmp1)
	case 64:
		// No 64-bit register byte reverse on the base ISA; bounce through memory.
		off := g.frame.localOffset()
		a.Std(dst, ppc64.SP, off)
		a.Addi(tmp1, ppc64.SP, off)
		a.Ldbrx(dst, 0, tmp1)
	default:
		return insnError(ErrUnsupportedOpcode, i, ins)
	}
	return nil
}
