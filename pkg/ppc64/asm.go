package ppc64

import "encoding/binary"

// InstrSize is the size of every PowerPC instruction word in bytes.
const InstrSize = 4

// Assembler emits PowerPC 64-bit machine code into a fixed-size buffer.
//
// An Assembler created without a buffer only counts words. The JIT uses that mode for its
// scan pass, where lengths must be known before any memory is allocated.
type Assembler struct {
	buf      []byte
	order    binary.ByteOrder
	idx      int
	overflow bool
}

// NewAssembler creates an assembler writing words in the given byte order.
// buf may be nil to count instructions without storing them.
func NewAssembler(buf []byte, order binary.ByteOrder) *Assembler {
	return &Assembler{buf: buf, order: order}
}

// NewCounter creates an assembler that only counts words.
func NewCounter() *Assembler {
	return &Assembler{order: binary.BigEndian}
}

// Len returns the number of words emitted since the last Reset.
func (a *Assembler) Len() int {
	return a.idx
}

// Reset rewinds the write position to the start of the buffer.
func (a *Assembler) Reset() {
	a.idx = 0
	a.overflow = false
}

// Overflowed reports whether an emit ran past the end of the buffer.
func (a *Assembler) Overflowed() bool {
	return a.overflow
}

// Bytes returns the assembled code.
func (a *Assembler) Bytes() []byte {
	n := a.idx * InstrSize
	if n > len(a.buf) {
		n = len(a.buf)
	}
	return a.buf[:n]
}

// Word returns the instruction word at index i, or 0 when nothing was stored there.
func (a *Assembler) Word(i int) uint32 {
	off := i * InstrSize
	if a.buf == nil || off < 0 || off+InstrSize > len(a.buf) {
		return 0
	}
	return a.order.Uint32(a.buf[off:])
}

// Emit appends a raw instruction word.
func (a *Assembler) Emit(inst uint32) {
	if a.buf != nil {
		off := a.idx * InstrSize
		if off+InstrSize > len(a.buf) {
			a.overflow = true
		} else {
			a.order.PutUint32(a.buf[off:], inst)
		}
	}
	a.idx++
}

// Instruction field placement
func rt(r Reg) uint32 { return uint32(r&31) << 21 }
func rs(r Reg) uint32 { return uint32(r&31) << 21 }
func ra(r Reg) uint32 { return uint32(r&31) << 16 }
func rb(r Reg) uint32 { return uint32(r&31) << 11 }

func imm16(i int16) uint32 { return uint32(uint16(i)) }

// sh64 splits a 6-bit shift amount into the MD/XS-form sh fields.
func sh64(sh uint8) uint32 {
	return uint32(sh&0x1f)<<11 | uint32(sh&0x20)>>4
}

// mb64 splits a 6-bit mask boundary into the MD-form mb/me field.
func mb64(mb uint8) uint32 {
	return uint32(mb&0x1f)<<6 | uint32(mb&0x20)
}
