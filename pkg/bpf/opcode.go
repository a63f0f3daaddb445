// Package bpf models eBPF bytecode: opcodes, instructions, their wire and text forms, and a
// reference interpreter.
package bpf

// Opcode is the first byte of an instruction.
//
// For ALU and JMP classes it is op(4 bits) | source(1 bit) | class(3 bits).
// For load and store classes it is mode(3 bits) | size(2 bits) | class(3 bits).
type Opcode uint8

// Class is the low three bits of an opcode.
type Class uint8

const (
	ClassLD    Class = 0x00
	ClassLDX   Class = 0x01
	ClassST    Class = 0x02
	ClassSTX   Class = 0x03
	ClassALU   Class = 0x04
	ClassJMP   Class = 0x05
	ClassJMP32 Class = 0x06
	ClassALU64 Class = 0x07
)

// Size is the access width of a load or store.
type Size uint8

const (
	SizeW  Size = 0x00
	SizeH  Size = 0x08
	SizeB  Size = 0x10
	SizeDW Size = 0x18
)

// Bytes returns the width in bytes.
func (s Size) Bytes() int {
	switch s {
	case SizeB:
		return 1
	case SizeH:
		return 2
	case SizeW:
		return 4
	default:
		return 8
	}
}

// Mode is the addressing mode of a load or store.
type Mode uint8

const (
	ModeIMM  Mode = 0x00
	ModeABS  Mode = 0x20
	ModeIND  Mode = 0x40
	ModeMEM  Mode = 0x60
	ModeXADD Mode = 0xc0
)

// Source selects the second operand of ALU and JMP instructions.
type Source uint8

const (
	SrcK Source = 0x00 // 32-bit immediate
	SrcX Source = 0x08 // source register
)

// Endianness for the END operation lives in the source bit.
const (
	ToLE Source = 0x00
	ToBE Source = 0x08
)

// ALUOp is the operation of an ALU or ALU64 instruction.
type ALUOp uint8

const (
	OpADD  ALUOp = 0x00
	OpSUB  ALUOp = 0x10
	OpMUL  ALUOp = 0x20
	OpDIV  ALUOp = 0x30
	OpOR   ALUOp = 0x40
	OpAND  ALUOp = 0x50
	OpLSH  ALUOp = 0x60
	OpRSH  ALUOp = 0x70
	OpNEG  ALUOp = 0x80
	OpMOD  ALUOp = 0x90
	OpXOR  ALUOp = 0xa0
	OpMOV  ALUOp = 0xb0
	OpARSH ALUOp = 0xc0
	OpEND  ALUOp = 0xd0
)

// JumpOp is the operation of a JMP instruction.
type JumpOp uint8

const (
	OpJA   JumpOp = 0x00
	OpJEQ  JumpOp = 0x10
	OpJGT  JumpOp = 0x20
	OpJGE  JumpOp = 0x30
	OpJSET JumpOp = 0x40
	OpJNE  JumpOp = 0x50
	OpJSGT JumpOp = 0x60
	OpJSGE JumpOp = 0x70
	OpCALL JumpOp = 0x80
	OpEXIT JumpOp = 0x90
	OpJLT  JumpOp = 0xa0
	OpJLE  JumpOp = 0xb0
	OpJSLT JumpOp = 0xc0
	OpJSLE JumpOp = 0xd0
)

// Class returns the instruction class.
func (o Opcode) Class() Class { return Class(o & 0x07) }

// Source returns the K/X bit.
func (o Opcode) Source() Source { return Source(o & 0x08) }

// ALUOp returns the ALU operation bits.
func (o Opcode) ALUOp() ALUOp { return ALUOp(o & 0xf0) }

// JumpOp returns the jump operation bits.
func (o Opcode) JumpOp() JumpOp { return JumpOp(o & 0xf0) }

// Size returns the access width bits.
func (o Opcode) Size() Size { return Size(o & 0x18) }

// Mode returns the addressing mode bits.
func (o Opcode) Mode() Mode { return Mode(o & 0xe0) }

// IsALU reports whether the opcode is in the ALU or ALU64 class.
func (o Opcode) IsALU() bool {
	c := o.Class()
	return c == ClassALU || c == ClassALU64
}

// Is64 reports whether an ALU operation works on full 64-bit registers.
func (o Opcode) Is64() bool {
	return o.Class() == ClassALU64
}

// ALUOpcode builds an ALU or ALU64 opcode.
func ALUOpcode(c Class, op ALUOp, src Source) Opcode {
	return Opcode(uint8(op) | uint8(src) | uint8(c))
}

// JumpOpcode builds a JMP-class opcode.
func JumpOpcode(op JumpOp, src Source) Opcode {
	return Opcode(uint8(op) | uint8(src) | uint8(ClassJMP))
}

// MemOpcode builds a load or store opcode.
func MemOpcode(c Class, mode Mode, size Size) Opcode {
	return Opcode(uint8(mode) | uint8(size) | uint8(c))
}

// Frequently used complete opcodes.
const (
	OpcodeLdImm64 = Opcode(uint8(ClassLD) | uint8(ModeIMM) | uint8(SizeDW))
	OpcodeCall    = Opcode(uint8(ClassJMP) | uint8(OpCALL))
	OpcodeExit    = Opcode(uint8(ClassJMP) | uint8(OpEXIT))
	OpcodeJA      = Opcode(uint8(ClassJMP) | uint8(OpJA))
)

// Register numbers.
const (
	R0 uint8 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10

	FP = R10

	// NumRegs is the number of architectural registers.
	NumRegs = 11
)

// StackSize is the size of the stack frame addressed downward from FP.
const StackSize = 512
