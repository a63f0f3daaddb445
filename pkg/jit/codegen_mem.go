package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// ld and std are DS-form: offsets must be multiples of four. Other offsets go through
// the indexed forms with the offset in a scratch register.
func dsAligned(off int16) bool {
	return off%4 == 0
}

// emitLoad: dst = *(size *)(src + off)
func (g *codegen) emitLoad(ins bpf.Instruction, dst, src ppc64.Reg) {
	a := g.asm
	off := ins.Off
	switch ins.Code.Size() {
	case bpf.SizeB:
		a.Lbz(dst, src, off)
	case bpf.SizeH:
		a.Lhz(dst, src, off)
	case bpf.SizeW:
		a.Lwz(dst, src, off)
	case bpf.SizeDW:
		if dsAligned(off) {
			a.Ld(dst, src, off)
		} else {
			a.Li(tmp1, off)
			a.Ldx(dst, src, tmp1)
		}
	}
}

// emitStore: *(size *)(dst + off) = src
func (g *codegen) emitStore(ins bpf.Instruction, dst, src ppc64.Reg) {
	g.store(ins.Code.Size(), src, dst, ins.Off, tmp1)
}

// emitStoreImm: *(size *)(dst + off) = imm
func (g *codegen) emitStoreImm(ins bpf.Instruction, dst ppc64.Reg) {
	size := ins.Code.Size()
	if size == bpf.SizeB || size == bpf.SizeH {
		// Only the low halfword is stored, which li always gets right.
		g.asm.Li(tmp1, int16(ins.Imm))
	} else {
		g.loadImm32(tmp1, ins.Imm)
	}
	g.store(size, tmp1, dst, ins.Off, tmp2)
}

// store writes val to base+off. scratch holds the offset for misaligned doubleword stores
// and must differ from val.
func (g *codegen) store(size bpf.Size, val, base ppc64.Reg, off int16, scratch ppc64.Reg) {
	a := g.asm
	switch size {
	case bpf.SizeB:
		a.Stb(val, base, off)
	case bpf.SizeH:
		a.Sth(val, base, off)
	case bpf.SizeW:
		a.Stw(val, base, off)
	case bpf.SizeDW:
		if dsAligned(off) {
			a.Std(val, base, off)
		} else {
			a.Li(scratch, off)
			a.Stdx(val, base, scratch)
		}
	}
}

// emitAtomicAdd: *(size *)(dst + off) += src, as a load-reserve/store-conditional loop.
// A misaligned address ends the program with R0 = 0.
func (g *codegen) emitAtomicAdd(ins bpf.Instruction, dst, src ppc64.Reg) {
	a := g.asm
	wide := ins.Code.Size() == bpf.SizeDW
	mask := uint16(3)
	if wide {
		mask = 7
	}
	a.Addi(tmp1, dst, ins.Off)
	a.Andi(tmp2, tmp1, mask)
	g.exitWithZeroUnless(ppc64.CondEQ)

	retry := a.Len()
	if wide {
		a.Ldarx(tmp2, 0, tmp1)
		a.Add(tmp2, tmp2, src)
		a.Stdcx(tmp2, 0, tmp1)
	} else {
		a.Lwarx(tmp2, 0, tmp1)
		a.Add(tmp2, tmp2, src)
		a.Stwcx(tmp2, 0, tmp1)
	}
	// stwcx./stdcx. set cr0.eq only when the reservation held.
	a.Bc(ppc64.CondNE, retry)
}
