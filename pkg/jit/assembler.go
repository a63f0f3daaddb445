package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// Assembler is the instruction encoder the selector emits through: one method per native
// instruction form, branch targets given as word indices. *ppc64.Assembler implements it,
// both writing into a buffer and in counting mode for the scan pass.
type Assembler interface {
	Len() int
	Reset()
	Overflowed() bool

	// arithmetic
	Add(d, x, y ppc64.Reg)
	Addi(d, s ppc64.Reg, si int16)
	Sub(d, x, y ppc64.Reg)
	Neg(d, s ppc64.Reg)
	Mulli(d, s ppc64.Reg, si int16)
	Mullw(d, x, y ppc64.Reg)
	Mulld(d, x, y ppc64.Reg)
	Divwu(d, x, y ppc64.Reg)
	Divdu(d, x, y ppc64.Reg)

	// logical
	And(d, x, y ppc64.Reg)
	AndDot(d, x, y ppc64.Reg)
	Andi(d, s ppc64.Reg, ui uint16)
	Or(d, x, y ppc64.Reg)
	Ori(d, s ppc64.Reg, ui uint16)
	Oris(d, s ppc64.Reg, ui uint16)
	Xor(d, x, y ppc64.Reg)
	Xori(d, s ppc64.Reg, ui uint16)
	Xoris(d, s ppc64.Reg, ui uint16)
	Mr(d, s ppc64.Reg)
	Li(d ppc64.Reg, si int16)
	LoadImm32(d ppc64.Reg, v int32)
	LoadImm64(d ppc64.Reg, v int64)

	// shifts and rotates
	Slw(d, x, y ppc64.Reg)
	Sld(d, x, y ppc64.Reg)
	Srw(d, x, y ppc64.Reg)
	Srd(d, x, y ppc64.Reg)
	Sraw(d, x, y ppc64.Reg)
	Srad(d, x, y ppc64.Reg)
	Slwi(d, s ppc64.Reg, n uint8)
	Sldi(d, s ppc64.Reg, n uint8)
	Srwi(d, s ppc64.Reg, n uint8)
	Srdi(d, s ppc64.Reg, n uint8)
	Srawi(d, s ppc64.Reg, sh uint8)
	Sradi(d, s ppc64.Reg, sh uint8)
	Rlwinm(d, s ppc64.Reg, sh, mb, me uint8)
	Rlwimi(d, s ppc64.Reg, sh, mb, me uint8)
	Rldicl(d, s ppc64.Reg, sh, mb uint8)
	Clrldi(d, s ppc64.Reg, n uint8)
	Clrlwi32(d, s ppc64.Reg)

	// compares and branches
	Cmpwi(x ppc64.Reg, si int16)
	Cmpdi(x ppc64.Reg, si int16)
	Cmpldi(x ppc64.Reg, ui uint16)
	Cmpd(x, y ppc64.Reg)
	Cmpld(x, y ppc64.Reg)
	Bc(cond ppc64.Cond, target int)
	BranchCond(cond ppc64.Cond, target int)
	Jump(target int)
	Blr()
	Blrl()
	Mflr(d ppc64.Reg)
	Mtlr(s ppc64.Reg)

	// loads and stores
	Lbz(d, base ppc64.Reg, off int16)
	Lhz(d, base ppc64.Reg, off int16)
	Lwz(d, base ppc64.Reg, off int16)
	Ld(d, base ppc64.Reg, off int16)
	Ldx(d, base, idx ppc64.Reg)
	Ldbrx(d, base, idx ppc64.Reg)
	Lwarx(d, base, idx ppc64.Reg)
	Ldarx(d, base, idx ppc64.Reg)
	Stb(s, base ppc64.Reg, off int16)
	Sth(s, base ppc64.Reg, off int16)
	Stw(s, base ppc64.Reg, off int16)
	Std(s, base ppc64.Reg, off int16)
	Stdu(s, base ppc64.Reg, off int16)
	Stdx(s, base, idx ppc64.Reg)
	Stwcx(s, base, idx ppc64.Reg)
	Stdcx(s, base, idx ppc64.Reg)
}

var _ Assembler = (*ppc64.Assembler)(nil)

// Sequences shared by several instruction classes. Every sequence has a length that depends
// only on the instruction itself, never on where branch targets end up, which is what lets
// two generation passes reach a fixed point.

// clear32 zero-extends the low word of d, as every 32-bit ALU result requires.
func (g *codegen) clear32(d ppc64.Reg) {
	g.asm.Clrlwi32(d, d)
}

// loadImm32 loads a sign-extended 32-bit immediate.
func (g *codegen) loadImm32(d ppc64.Reg, imm int32) {
	g.asm.LoadImm32(d, imm)
}

// jumpToInsn branches unconditionally to the code for bytecode slot idx.
func (g *codegen) jumpToInsn(idx int) {
	g.asm.Jump(int(g.addrs[idx]))
}

// condJumpToInsn branches to the code for bytecode slot idx when cond holds on cr0.
func (g *codegen) condJumpToInsn(cond ppc64.Cond, idx int) {
	g.asm.BranchCond(cond, int(g.addrs[idx]))
}

// exitWithZeroUnless ends the program with R0 = 0 unless cond holds on cr0, in which
// case it falls through. Three words.
func (g *codegen) exitWithZeroUnless(cond ppc64.Cond) {
	a := g.asm
	a.Bc(cond, a.Len()+3)
	a.Li(rR0, 0)
	a.Jump(g.exit)
}

// branchTarget validates a relative jump at slot i and returns the slot it lands on.
func (g *codegen) branchTarget(i int, ins bpf.Instruction) (int, error) {
	t := i + 1 + int(ins.Off)
	if t < 0 || t > len(g.prog) {
		return 0, insnError(ErrJumpOutOfRange, i, ins)
	}
	return t, nil
}
