package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/ppc64"
)

// codegen holds the state of one compilation: the program, the assembler for the current
// pass, the address table and the usage set.
type codegen struct {
	prog    bpf.Program
	target  ppc64.Target
	helpers helpers.Resolver

	asm   Assembler
	addrs addressTable
	seen  seenSet
	frame frameLayout
	exit  int // word index of the epilogue, from the previous pass
}

func newCodegen(prog bpf.Program, target ppc64.Target, h helpers.Resolver) *codegen {
	return &codegen{
		prog:    prog,
		target:  target,
		helpers: h,
		addrs:   newAddressTable(len(prog)),
	}
}

// insnKind is the first dispatch level: which family of sequences an instruction needs.
type insnKind int

const (
	kindUnsupported insnKind = iota
	kindALU
	kindEndian
	kindLoad
	kindStore
	kindStoreImm
	kindAtomicAdd
	kindLoadImm64
	kindJump
	kindCondJump
	kindCall
	kindExit
)

func classify(ins bpf.Instruction) insnKind {
	c := ins.Code
	switch c.Class() {
	case bpf.ClassALU, bpf.ClassALU64:
		switch c.ALUOp() {
		case bpf.OpEND:
			if c.Class() == bpf.ClassALU {
				return kindEndian
			}
		case bpf.OpADD, bpf.OpSUB, bpf.OpMUL, bpf.OpDIV, bpf.OpMOD, bpf.OpOR, bpf.OpAND,
			bpf.OpXOR, bpf.OpLSH, bpf.OpRSH, bpf.OpARSH, bpf.OpNEG, bpf.OpMOV:
			return kindALU
		}
	case bpf.ClassLDX:
		if c.Mode() == bpf.ModeMEM {
			return kindLoad
		}
	case bpf.ClassSTX:
		switch {
		case c.Mode() == bpf.ModeMEM:
			return kindStore
		case c.Mode() == bpf.ModeXADD && (c.Size() == bpf.SizeW || c.Size() == bpf.SizeDW):
			return kindAtomicAdd
		}
	case bpf.ClassST:
		if c.Mode() == bpf.ModeMEM {
			return kindStoreImm
		}
	case bpf.ClassLD:
		if ins.IsLoadImm64() {
			return kindLoadImm64
		}
	case bpf.ClassJMP:
		switch c.JumpOp() {
		case bpf.OpJA:
			if c.Source() == bpf.SrcK {
				return kindJump
			}
		case bpf.OpCALL:
			if c.Source() == bpf.SrcK {
				return kindCall
			}
		case bpf.OpEXIT:
			if c.Source() == bpf.SrcK {
				return kindExit
			}
		case bpf.OpJEQ, bpf.OpJNE, bpf.OpJGT, bpf.OpJGE, bpf.OpJLT, bpf.OpJLE, bpf.OpJSET,
			bpf.OpJSGT, bpf.OpJSGE, bpf.OpJSLT, bpf.OpJSLE:
			return kindCondJump
		}
	}
	return kindUnsupported
}

// buildBody emits the code for every instruction and records where each one starts.
// addrs[len] is set to the epilogue position; g.exit still holds the previous pass's value
// while the body is generated.
func (g *codegen) buildBody() error {
	g.exit = int(g.addrs[len(g.prog)])
	for i := 0; i < len(g.prog); i++ {
		g.addrs[i] = uint32(g.asm.Len())
		ins := g.prog[i]
		if ins.Dst >= bpf.NumRegs || ins.Src >= bpf.NumRegs {
			return insnError(ErrInvalidRegister, i, ins)
		}
		dst, src := Physical(ins.Dst), Physical(ins.Src)
		g.seen.markReg(dst)
		g.seen.markReg(src)
		if ins.Dst == bpf.FP || ins.Src == bpf.FP {
			g.seen |= seenStack
		}

		next, err := g.emitInsn(i, ins, dst, src)
		if err != nil {
			return err
		}
		i = next
	}
	g.addrs[len(g.prog)] = uint32(g.asm.Len())
	return nil
}

// emitInsn translates slot i and returns the index of the last slot it consumed.
func (g *codegen) emitInsn(i int, ins bpf.Instruction, dst, src ppc64.Reg) (int, error) {
	var err error
	switch classify(ins) {
	case kindALU:
		err = g.emitALU(i, ins, dst, src)
	case kindEndian:
		err = g.emitEndian(i, ins, dst)
	case kindLoad:
		g.emitLoad(ins, dst, src)
	case kindStore:
		g.emitStore(ins, dst, src)
	case kindStoreImm:
		g.emitStoreImm(ins, dst)
	case kindAtomicAdd:
		g.emitAtomicAdd(ins, dst, src)
	case kindLoadImm64:
		if i+1 >= len(g.prog) {
			return i, insnError(ErrUnsupportedOpcode, i, ins)
		}
		v := uint64(uint32(ins.Imm)) | uint64(uint32(g.prog[i+1].Imm))<<32
		i++
		g.addrs[i] = uint32(g.asm.Len())
		g.asm.LoadImm64(dst, int64(v))
	case kindJump:
		err = g.emitJump(i, ins)
	case kindCondJump:
		err = g.emitCondJump(i, ins, dst, src)
	case kindCall:
		err = g.emitCall(i, ins)
	case kindExit:
		// The epilogue follows the last instruction directly.
		if i != len(g.prog)-1 {
			g.asm.Jump(g.exit)
		}
	default:
		err = insnError(ErrUnsupportedOpcode, i, ins)
	}
	return i, err
}
