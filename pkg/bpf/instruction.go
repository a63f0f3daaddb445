package bpf

import (
	"encoding/binary"
	"fmt"
)

// InstructionSize is the encoded size of one instruction slot.
const InstructionSize = 8

// Instruction is one 8-byte bytecode slot.
type Instruction struct {
	Code Opcode
	Dst  uint8
	Src  uint8
	Off  int16
	Imm  int32
}

// IsLoadImm64 reports whether the instruction is the first slot of a 16-byte constant load.
func (i Instruction) IsLoadImm64() bool {
	return i.Code == OpcodeLdImm64
}

// Marshal appends the wire encoding of i to b.
func (i Instruction) Marshal(b []byte) []byte {
	var w [InstructionSize]byte
	w[0] = byte(i.Code)
	w[1] = i.Src<<4 | i.Dst&0x0f
	binary.LittleEndian.PutUint16(w[2:], uint16(i.Off))
	binary.LittleEndian.PutUint32(w[4:], uint32(i.Imm))
	return append(b, w[:]...)
}

// Unmarshal decodes one instruction from the first 8 bytes of b.
func Unmarshal(b []byte) (Instruction, error) {
	if len(b) < InstructionSize {
		return Instruction{}, fmt.Errorf("instruction: need %d bytes, have %d", InstructionSize, len(b))
	}
	return Instruction{
		Code: Opcode(b[0]),
		Dst:  b[1] & 0x0f,
		Src:  b[1] >> 4,
		Off:  int16(binary.LittleEndian.Uint16(b[2:])),
		Imm:  int32(binary.LittleEndian.Uint32(b[4:])),
	}, nil
}

// Program is a sequence of instruction slots.
type Program []Instruction

// Marshal returns the wire encoding of the program.
func (p Program) Marshal() []byte {
	b := make([]byte, 0, len(p)*InstructionSize)
	for _, i := range p {
		b = i.Marshal(b)
	}
	return b
}

// UnmarshalProgram decodes a whole program.
func UnmarshalProgram(b []byte) (Program, error) {
	if len(b)%InstructionSize != 0 {
		return nil, fmt.Errorf("program: length %d is not a multiple of %d", len(b), InstructionSize)
	}
	p := make(Program, 0, len(b)/InstructionSize)
	for off := 0; off < len(b); off += InstructionSize {
		i, err := Unmarshal(b[off:])
		if err != nil {
			return nil, err
		}
		p = append(p, i)
	}
	return p, nil
}

// Builders for single instructions

func ALU64Imm(op ALUOp, dst uint8, imm int32) Instruction {
	return Instruction{Code: ALUOpcode(ClassALU64, op, SrcK), Dst: dst, Imm: imm}
}

func ALU64Reg(op ALUOp, dst, src uint8) Instruction {
	return Instruction{Code: ALUOpcode(ClassALU64, op, SrcX), Dst: dst, Src: src}
}

func ALU32Imm(op ALUOp, dst uint8, imm int32) Instruction {
	return Instruction{Code: ALUOpcode(ClassALU, op, SrcK), Dst: dst, Imm: imm}
}

func ALU32Reg(op ALUOp, dst, src uint8) Instruction {
	return Instruction{Code: ALUOpcode(ClassALU, op, SrcX), Dst: dst, Src: src}
}

func Mov64Imm(dst uint8, imm int32) Instruction { return ALU64Imm(OpMOV, dst, imm) }
func Mov64Reg(dst, src uint8) Instruction       { return ALU64Reg(OpMOV, dst, src) }
func Mov32Imm(dst uint8, imm int32) Instruction { return ALU32Imm(OpMOV, dst, imm) }
func Mov32Reg(dst, src uint8) Instruction       { return ALU32Reg(OpMOV, dst, src) }

// Endian converts dst to the given byte order; bits is 16, 32 or 64.
func Endian(order Source, dst uint8, bits int32) Instruction {
	return Instruction{Code: ALUOpcode(ClassALU, OpEND, order), Dst: dst, Imm: bits}
}

// LoadImm64 returns the two slots loading a 64-bit constant.
func LoadImm64(dst uint8, v uint64) [2]Instruction {
	return [2]Instruction{
		{Code: OpcodeLdImm64, Dst: dst, Imm: int32(uint32(v))},
		{Imm: int32(uint32(v >> 32))},
	}
}

// LoadMem is dst = *(size *)(src + off).
func LoadMem(size Size, dst, src uint8, off int16) Instruction {
	return Instruction{Code: MemOpcode(ClassLDX, ModeMEM, size), Dst: dst, Src: src, Off: off}
}

// StoreMem is *(size *)(dst + off) = src.
func StoreMem(size Size, dst, src uint8, off int16) Instruction {
	return Instruction{Code: MemOpcode(ClassSTX, ModeMEM, size), Dst: dst, Src: src, Off: off}
}

// StoreImm is *(size *)(dst + off) = imm.
func StoreImm(size Size, dst uint8, off int16, imm int32) Instruction {
	return Instruction{Code: MemOpcode(ClassST, ModeMEM, size), Dst: dst, Off: off, Imm: imm}
}

// AtomicAdd is *(size *)(dst + off) += src; size is W or DW.
func AtomicAdd(size Size, dst, src uint8, off int16) Instruction {
	return Instruction{Code: MemOpcode(ClassSTX, ModeXADD, size), Dst: dst, Src: src, Off: off}
}

func JumpImm(op JumpOp, dst uint8, imm int32, off int16) Instruction {
	return Instruction{Code: JumpOpcode(op, SrcK), Dst: dst, Imm: imm, Off: off}
}

func JumpReg(op JumpOp, dst, src uint8, off int16) Instruction {
	return Instruction{Code: JumpOpcode(op, SrcX), Dst: dst, Src: src, Off: off}
}

func Ja(off int16) Instruction { return Instruction{Code: OpcodeJA, Off: off} }

func Call(helper int32) Instruction { return Instruction{Code: OpcodeCall, Imm: helper} }

func Exit() Instruction { return Instruction{Code: OpcodeExit} }
