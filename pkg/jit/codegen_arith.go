package jit

import (
	"math"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// emitALU translates ALU and ALU64 instructions. 32-bit forms compute on the full register
// and clear the upper word afterwards.
func (g *codegen) emitALU(i int, ins bpf.Instruction, dst, src ppc64.Reg) error {
	is64 := ins.Code.Is64()
	useReg := ins.Code.Source() == bpf.SrcX
	imm := ins.Imm
	a := g.asm

	switch op := ins.Code.ALUOp(); op {
	case bpf.OpADD:
		switch {
		case useReg:
			a.Add(dst, dst, src)
		case imm == 0:
		case ppc64.IsSigned16(int64(imm)):
			a.Addi(dst, dst, int16(imm))
		default:
			g.loadImm32(tmp1, imm)
			a.Add(dst, dst, tmp1)
		}

	case bpf.OpSUB:
		switch {
		case useReg:
			a.Sub(dst, dst, src)
		case imm == 0:
		case imm != math.MinInt32 && ppc64.IsSigned16(-int64(imm)):
			a.Addi(dst, dst, int16(-imm))
		default:
			g.loadImm32(tmp1, imm)
			a.Sub(dst, dst, tmp1)
		}

	case bpf.OpMUL:
		if !useReg && ppc64.IsSigned16(int64(imm)) {
			a.Mulli(dst, dst, int16(imm))
			break
		}
		if !useReg {
			g.loadImm32(tmp1, imm)
			src = tmp1
		}
		if is64 {
			a.Mulld(dst, dst, src)
		} else {
			a.Mullw(dst, dst, src)
		}

	case bpf.OpDIV, bpf.OpMOD:
		if err := g.emitDivMod(i, ins, op, dst, src); err != nil {
			return err
		}

	case bpf.OpNEG:
		a.Neg(dst, dst)

	case bpf.OpAND:
		switch {
		case useReg:
			a.And(dst, dst, src)
		case ppc64.IsUnsigned16(int64(imm)):
			a.Andi(dst, dst, uint16(imm))
		default:
			g.loadImm32(tmp1, imm)
			a.And(dst, dst, tmp1)
		}

	case bpf.OpOR, bpf.OpXOR:
		g.emitOrXor(op, is64, useReg, imm, dst, src)

	case bpf.OpLSH, bpf.OpRSH, bpf.OpARSH:
		g.emitShift(op, is64, useReg, imm, dst, src)

	case bpf.OpMOV:
		if useReg {
			a.Mr(dst, src)
		} else {
			g.loadImm32(dst, imm)
		}

	default:
		return insnError(ErrUnsupportedOpcode, i, ins)
	}

	if !is64 {
		g.clear32(dst)
	}
	return nil
}

// emitDivMod emits unsigned division or remainder. A zero divisor register ends the program
// with R0 = 0; a zero divisor constant is rejected at compile time.
func (g *codegen) emitDivMod(i int, ins bpf.Instruction, op bpf.ALUOp, dst, src ppc64.Reg) error {
	a := g.asm
	is64 := ins.Code.Is64()
	if ins.Code.Source() == bpf.SrcX {
		if is64 {
			a.Cmpdi(src, 0)
		} else {
			a.Cmpwi(src, 0)
		}
		g.exitWithZeroUnless(ppc64.CondNE)
	} else {
		switch ins.Imm {
		case 0:
			return insnError(ErrDivideByZero, i, ins)
		case 1:
			if op == bpf.OpMOD {
				a.Li(dst, 0)
			}
			return nil
		}
		g.loadImm32(tmp1, ins.Imm)
		src = tmp1
	}

	div, mul := a.Divwu, a.Mullw
	if is64 {
		div, mul = a.Divdu, a.Mulld
	}
	if op == bpf.OpDIV {
		div(dst, dst, src)
		return nil
	}
	// dst - (dst / src) * src; the quotient goes to TMP2 because TMP1 may hold the divisor.
	div(tmp2, dst, src)
	mul(tmp2, src, tmp2)
	a.Sub(dst, dst, tmp2)
	return nil
}

func (g *codegen) emitOrXor(op bpf.ALUOp, is64, useReg bool, imm int32, dst, src ppc64.Reg) {
	a := g.asm
	reg, lo, hi := a.Or, a.Ori, a.Oris
	if op == bpf.OpXOR {
		reg, lo, hi = a.Xor, a.Xori, a.Xoris
	}
	switch {
	case useReg:
		reg(dst, dst, src)
	case imm < 0 && is64:
		// The immediate is sign-extended, so the upper word needs ones too.
		g.loadImm32(tmp1, imm)
		reg(dst, dst, tmp1)
	default:
		if l := uint16(imm); l != 0 {
			lo(dst, dst, l)
		}
		if h := uint16(uint32(imm) >> 16); h != 0 {
			hi(dst, dst, h)
		}
	}
}
