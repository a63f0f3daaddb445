package bpf

import (
	"errors"
	"fmt"
	"math/bits"

	"bpfjit/pkg/vmem"
)

// DefaultStackBase is where Run maps the stack when the interpreter has none configured.
const DefaultStackBase uint64 = 0x7fff_0000_0000

var (
	ErrUnsupported   = errors.New("unsupported instruction")
	ErrUnknownHelper = errors.New("unknown helper")
	ErrStepLimit     = errors.New("step limit exceeded")
	ErrBadJump       = errors.New("jump out of program")
)

// HelperCaller runs helper functions for the interpreter.
type HelperCaller interface {
	Call(id int32, args [5]uint64) (uint64, bool)
}

// RuntimeError locates an execution failure.
type RuntimeError struct {
	PC  int
	Ins Instruction
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("pc %d (%s): %v", e.PC, e.Ins, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Interpreter executes programs one instruction at a time. It is the reference the JIT is
// checked against and the fallback when a program cannot be compiled.
//
// Division by a zero register and atomic adds on misaligned addresses end the program
// with R0 = 0, exactly like compiled code.
type Interpreter struct {
	Mem       *vmem.Memory
	Helpers   HelperCaller
	StackBase uint64
	MaxSteps  int

	Regs  [NumRegs]uint64
	Steps int
}

// NewInterpreter creates an interpreter over mem.
func NewInterpreter(mem *vmem.Memory, helpers HelperCaller) *Interpreter {
	return &Interpreter{Mem: mem, Helpers: helpers, MaxSteps: 1_000_000}
}

func (in *Interpreter) ensureStack() error {
	if in.StackBase == 0 {
		in.StackBase = DefaultStackBase
	}
	if r, ok := in.Mem.Lookup(in.StackBase); ok && r.End() >= in.StackBase+StackSize {
		return nil
	}
	_, err := in.Mem.Alloc("bpf-stack", in.StackBase, StackSize)
	return err
}

// Run executes prog with R1..R5 set from args and returns R0.
func (in *Interpreter) Run(prog Program, args ...uint64) (uint64, error) {
	if len(args) > 5 {
		return 0, fmt.Errorf("run: %d arguments, at most 5", len(args))
	}
	if err := in.ensureStack(); err != nil {
		return 0, fmt.Errorf("run: stack: %w", err)
	}
	in.Regs = [NumRegs]uint64{}
	copy(in.Regs[R1:], args)
	in.Regs[FP] = in.StackBase + StackSize
	in.Steps = 0

	for pc := 0; ; {
		if pc < 0 || pc >= len(prog) {
			return 0, &RuntimeError{PC: pc, Err: ErrBadJump}
		}
		if in.MaxSteps > 0 && in.Steps >= in.MaxSteps {
			return 0, &RuntimeError{PC: pc, Ins: prog[pc], Err: ErrStepLimit}
		}
		in.Steps++
		ins := prog[pc]
		next, done, err := in.step(prog, pc, ins)
		if err != nil {
			return 0, &RuntimeError{PC: pc, Ins: ins, Err: err}
		}
		if done {
			return in.Regs[R0], nil
		}
		pc = next
	}
}

// step executes one instruction and returns the next pc. done is set when the program
// has finished, with the result in R0.
func (in *Interpreter) step(prog Program, pc int, ins Instruction) (next int, done bool, err error) {
	r := &in.Regs
	if ins.Dst >= NumRegs || ins.Src >= NumRegs {
		return 0, false, fmt.Errorf("bad register")
	}
	c := ins.Code
	switch c.Class() {
	case ClassALU, ClassALU64:
		exit, err := in.alu(ins)
		return pc + 1, exit, err

	case ClassJMP, ClassJMP32:
		switch c.JumpOp() {
		case OpEXIT:
			if c.Class() == ClassJMP32 {
				return 0, false, ErrUnsupported
			}
			return 0, true, nil
		case OpCALL:
			if c.Class() == ClassJMP32 || in.Helpers == nil {
				return 0, false, ErrUnknownHelper
			}
			ret, ok := in.Helpers.Call(ins.Imm, [5]uint64{r[R1], r[R2], r[R3], r[R4], r[R5]})
			if !ok {
				return 0, false, fmt.Errorf("%w %d", ErrUnknownHelper, ins.Imm)
			}
			r[R0] = ret
			return pc + 1, false, nil
		}
		taken, ok := in.condition(ins)
		if !ok {
			return 0, false, ErrUnsupported
		}
		if taken {
			return pc + 1 + int(ins.Off), false, nil
		}
		return pc + 1, false, nil

	case ClassLD:
		if !ins.IsLoadImm64() || pc+1 >= len(prog) {
			return 0, false, ErrUnsupported
		}
		r[ins.Dst] = uint64(uint32(ins.Imm)) | uint64(uint32(prog[pc+1].Imm))<<32
		return pc + 2, false, nil

	case ClassLDX:
		if c.Mode() != ModeMEM {
			return 0, false, ErrUnsupported
		}
		v, err := in.Mem.Load(r[ins.Src]+uint64(int64(ins.Off)), c.Size().Bytes())
		if err != nil {
			return 0, false, err
		}
		r[ins.Dst] = v
		return pc + 1, false, nil

	case ClassST:
		if c.Mode() != ModeMEM {
			return 0, false, ErrUnsupported
		}
		addr := r[ins.Dst] + uint64(int64(ins.Off))
		return pc + 1, false, in.Mem.Store(addr, c.Size().Bytes(), uint64(int64(ins.Imm)))

	case ClassSTX:
		addr := r[ins.Dst] + uint64(int64(ins.Off))
		switch c.Mode() {
		case ModeMEM:
			return pc + 1, false, in.Mem.Store(addr, c.Size().Bytes(), r[ins.Src])
		case ModeXADD:
			size := c.Size()
			if size != SizeW && size != SizeDW {
				return 0, false, ErrUnsupported
			}
			n := size.Bytes()
			if addr%uint64(n) != 0 {
				r[R0] = 0
				return 0, true, nil
			}
			v, err := in.Mem.Load(addr, n)
			if err != nil {
				return 0, false, err
			}
			return pc + 1, false, in.Mem.Store(addr, n, v+r[ins.Src])
		}
	}
	return 0, false, ErrUnsupported
}

// alu executes an ALU instruction. It reports true when the program must stop (division by
// a zero register).
func (in *Interpreter) alu(ins Instruction) (exit bool, err error) {
	r := &in.Regs
	is64 := ins.Code.Is64()
	dst := r[ins.Dst]
	var src uint64
	if ins.Code.Source() == SrcX {
		src = r[ins.Src]
	} else {
		src = uint64(int64(ins.Imm))
	}
	if !is64 {
		dst, src = uint64(uint32(dst)), uint64(uint32(src))
	}
	shiftMask := uint64(63)
	if !is64 {
		shiftMask = 31
	}

	var res uint64
	switch ins.Code.ALUOp() {
	case OpADD:
		res = dst + src
	case OpSUB:
		res = dst - src
	case OpMUL:
		res = dst * src
	case OpDIV, OpMOD:
		if src == 0 {
			r[R0] = 0
			return true, nil
		}
		if ins.Code.ALUOp() == OpDIV {
			res = dst / src
		} else {
			res = dst % src
		}
	case OpOR:
		res = dst | src
	case OpAND:
		res = dst & src
	case OpXOR:
		res = dst ^ src
	case OpLSH:
		res = dst << (src & shiftMask)
	case OpRSH:
		res = dst >> (src & shiftMask)
	case OpARSH:
		if is64 {
			res = uint64(int64(dst) >> (src & shiftMask))
		} else {
			res = uint64(uint32(int32(uint32(dst)) >> (src & shiftMask)))
		}
	case OpNEG:
		res = -dst
	case OpMOV:
		res = src
	case OpEND:
		res = in.byteSwap(r[ins.Dst], ins)
		r[ins.Dst] = res
		return false, nil
	default:
		return false, ErrUnsupported
	}
	if !is64 {
		res = uint64(uint32(res))
	}
	r[ins.Dst] = res
	return false, nil
}

func (in *Interpreter) byteSwap(v uint64, ins Instruction) uint64 {
	nativeBE := in.Mem.Order().Uint16([]byte{0, 1}) == 1
	wantBE := ins.Code.Source() == ToBE
	swap := nativeBE != wantBE
	switch ins.Imm {
	case 16:
		if swap {
			return uint64(bits.ReverseBytes16(uint16(v)))
		}
		return uint64(uint16(v))
	case 32:
		if swap {
			return uint64(bits.ReverseBytes32(uint32(v)))
		}
		return uint64(uint32(v))
	default:
		if swap {
			return bits.ReverseBytes64(v)
		}
		return v
	}
}

func (in *Interpreter) condition(ins Instruction) (taken, ok bool) {
	r := &in.Regs
	dst := r[ins.Dst]
	var src uint64
	if ins.Code.Source() == SrcX {
		src = r[ins.Src]
	} else {
		src = uint64(int64(ins.Imm))
	}
	sdst, ssrc := int64(dst), int64(src)
	if ins.Code.Class() == ClassJMP32 {
		dst, src = uint64(uint32(dst)), uint64(uint32(src))
		sdst, ssrc = int64(int32(dst)), int64(int32(src))
	}
	switch ins.Code.JumpOp() {
	case OpJA:
		return true, ins.Code.Class() == ClassJMP
	case OpJEQ:
		return dst == src, true
	case OpJNE:
		return dst != src, true
	case OpJGT:
		return dst > src, true
	case OpJGE:
		return dst >= src, true
	case OpJLT:
		return dst < src, true
	case OpJLE:
		return dst <= src, true
	case OpJSET:
		return dst&src != 0, true
	case OpJSGT:
		return sdst > ssrc, true
	case OpJSGE:
		return sdst >= ssrc, true
	case OpJSLT:
		return sdst < ssrc, true
	case OpJSLE:
		return sdst <= ssrc, true
	}
	return false, false
}
