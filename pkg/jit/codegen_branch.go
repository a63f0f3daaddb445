package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// Branch and jump code generation

type jumpCond struct {
	cond   ppc64.Cond
	signed bool
	test   bool // JSET: and. instead of a compare
}

var jumpConds = map[bpf.JumpOp]jumpCond{
	bpf.OpJEQ:  {cond: ppc64.CondEQ},
	bpf.OpJNE:  {cond: ppc64.CondNE},
	bpf.OpJGT:  {cond: ppc64.CondGT},
	bpf.OpJGE:  {cond: ppc64.CondGE},
	bpf.OpJLT:  {cond: ppc64.CondLT},
	bpf.OpJLE:  {cond: ppc64.CondLE},
	bpf.OpJSGT: {cond: ppc64.CondGT, signed: true},
	bpf.OpJSGE: {cond: ppc64.CondGE, signed: true},
	bpf.OpJSLT: {cond: ppc64.CondLT, signed: true},
	bpf.OpJSLE: {cond: ppc64.CondLE, signed: true},
	bpf.OpJSET: {cond: ppc64.CondNE, test: true},
}

// emitJump: pc += off
func (g *codegen) emitJump(i int, ins bpf.Instruction) error {
	t, err := g.branchTarget(i, ins)
	if err != nil {
		return err
	}
	g.jumpToInsn(t)
	return nil
}

// emitCondJump sets cr0 from a compare (or a test for JSET) and branches on it.
func (g *codegen) emitCondJump(i int, ins bpf.Instruction, dst, src ppc64.Reg) error {
	t, err := g.branchTarget(i, ins)
	if err != nil {
		return err
	}
	jc, ok := jumpConds[ins.Code.JumpOp()]
	if !ok {
		return insnError(ErrUnsupportedOpcode, i, ins)
	}
	if ins.Code.Source() == bpf.SrcX {
		g.compareReg(jc, dst, src)
	} else {
		g.compareImm(jc, dst, ins.Imm)
	}
	g.condJumpToInsn(jc.cond, t)
	return nil
}

func (g *codegen) compareReg(jc jumpCond, dst, src ppc64.Reg) {
	switch {
	case jc.test:
		g.asm.AndDot(tmp1, dst, src)
	case jc.signed:
		g.asm.Cmpd(dst, src)
	default:
		g.asm.Cmpld(dst, src)
	}
}

// compareImm compares against the sign-extended immediate, using the immediate instruction
// forms when the value fits their 16-bit field.
func (g *codegen) compareImm(jc jumpCond, dst ppc64.Reg, imm int32) {
	a := g.asm
	v := int64(imm)
	switch {
	case jc.test && ppc64.IsSigned16(v) && v >= 0:
		a.Andi(tmp1, dst, uint16(imm))
	case jc.test:
		g.loadImm32(tmp1, imm)
		a.AndDot(tmp1, dst, tmp1)
	case jc.signed && ppc64.IsSigned16(v):
		a.Cmpdi(dst, int16(imm))
	case jc.signed:
		g.loadImm32(tmp1, imm)
		a.Cmpd(dst, tmp1)
	case ppc64.IsSigned16(v) && v >= 0:
		a.Cmpldi(dst, uint16(imm))
	default:
		g.loadImm32(tmp1, imm)
		a.Cmpld(dst, tmp1)
	}
}
