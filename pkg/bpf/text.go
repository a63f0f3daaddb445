package bpf

import (
	"fmt"
	"strings"
)

var aluNames = map[ALUOp]string{
	OpADD: "add", OpSUB: "sub", OpMUL: "mul", OpDIV: "div", OpOR: "or", OpAND: "and",
	OpLSH: "lsh", OpRSH: "rsh", OpNEG: "neg", OpMOD: "mod", OpXOR: "xor", OpMOV: "mov",
	OpARSH: "arsh",
}

var jumpNames = map[JumpOp]string{
	OpJA: "ja", OpJEQ: "jeq", OpJGT: "jgt", OpJGE: "jge", OpJSET: "jset", OpJNE: "jne",
	OpJSGT: "jsgt", OpJSGE: "jsge", OpJLT: "jlt", OpJLE: "jle", OpJSLT: "jslt", OpJSLE: "jsle",
	OpCALL: "call", OpEXIT: "exit",
}

var sizeSuffix = map[Size]string{SizeB: "b", SizeH: "h", SizeW: "w", SizeDW: "dw"}

func reg(r uint8) string { return fmt.Sprintf("r%d", r) }

func memRef(r uint8, off int16) string {
	if off < 0 {
		return fmt.Sprintf("[r%d-%d]", r, -int32(off))
	}
	return fmt.Sprintf("[r%d+%d]", r, off)
}

func jumpOff(off int16) string {
	if off < 0 {
		return fmt.Sprintf("%d", off)
	}
	return fmt.Sprintf("+%d", off)
}

// String renders the instruction in the text syntax accepted by Assemble. The second slot
// of a 64-bit constant load renders on its own as a raw slot.
func (i Instruction) String() string {
	c := i.Code
	switch c.Class() {
	case ClassALU, ClassALU64:
		bits := "64"
		if c.Class() == ClassALU {
			bits = "32"
		}
		op := c.ALUOp()
		if op == OpEND {
			order := "le"
			if c.Source() == ToBE {
				order = "be"
			}
			return fmt.Sprintf("%s%d %s", order, i.Imm, reg(i.Dst))
		}
		name, ok := aluNames[op]
		if !ok {
			break
		}
		if op == OpNEG {
			return fmt.Sprintf("%s%s %s", name, bits, reg(i.Dst))
		}
		if c.Source() == SrcX {
			return fmt.Sprintf("%s%s %s, %s", name, bits, reg(i.Dst), reg(i.Src))
		}
		return fmt.Sprintf("%s%s %s, %d", name, bits, reg(i.Dst), i.Imm)

	case ClassJMP, ClassJMP32:
		suffix := ""
		if c.Class() == ClassJMP32 {
			suffix = "32"
		}
		op := c.JumpOp()
		name, ok := jumpNames[op]
		if !ok {
			break
		}
		switch op {
		case OpJA:
			return fmt.Sprintf("ja %s", jumpOff(i.Off))
		case OpCALL:
			return fmt.Sprintf("call %d", i.Imm)
		case OpEXIT:
			return "exit"
		}
		if c.Source() == SrcX {
			return fmt.Sprintf("%s%s %s, %s, %s", name, suffix, reg(i.Dst), reg(i.Src), jumpOff(i.Off))
		}
		return fmt.Sprintf("%s%s %s, %d, %s", name, suffix, reg(i.Dst), i.Imm, jumpOff(i.Off))

	case ClassLD:
		switch c.Mode() {
		case ModeIMM:
			if c.Size() == SizeDW {
				return fmt.Sprintf("lddw %s, %d", reg(i.Dst), uint32(i.Imm))
			}
		case ModeABS:
			return fmt.Sprintf("ldabs%s %d", sizeSuffix[c.Size()], i.Imm)
		case ModeIND:
			return fmt.Sprintf("ldind%s %s, %d", sizeSuffix[c.Size()], reg(i.Src), i.Imm)
		}
		if c == 0 {
			return fmt.Sprintf(".imm %d", i.Imm)
		}

	case ClassLDX:
		if c.Mode() == ModeMEM {
			return fmt.Sprintf("ldx%s %s, %s", sizeSuffix[c.Size()], reg(i.Dst), memRef(i.Src, i.Off))
		}

	case ClassST:
		if c.Mode() == ModeMEM {
			return fmt.Sprintf("st%s %s, %d", sizeSuffix[c.Size()], memRef(i.Dst, i.Off), i.Imm)
		}

	case ClassSTX:
		switch c.Mode() {
		case ModeMEM:
			return fmt.Sprintf("stx%s %s, %s", sizeSuffix[c.Size()], memRef(i.Dst, i.Off), reg(i.Src))
		case ModeXADD:
			return fmt.Sprintf("xadd%s %s, %s", sizeSuffix[c.Size()], memRef(i.Dst, i.Off), reg(i.Src))
		}
	}
	return fmt.Sprintf(".raw 0x%02x, %d, %d, %d, %d", uint8(c), i.Dst, i.Src, i.Off, i.Imm)
}

// String renders the program one slot per line, joining 64-bit constant loads.
func (p Program) String() string {
	var sb strings.Builder
	for n := 0; n < len(p); n++ {
		ins := p[n]
		if ins.IsLoadImm64() && n+1 < len(p) {
			v := uint64(uint32(ins.Imm)) | uint64(uint32(p[n+1].Imm))<<32
			fmt.Fprintf(&sb, "%4d: lddw %s, %#x\n", n, reg(ins.Dst), v)
			n++
			continue
		}
		fmt.Fprintf(&sb, "%4d: %s\n", n, ins)
	}
	return sb.String()
}
