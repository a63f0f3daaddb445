package ppc64

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// Line is one decoded instruction word.
type Line struct {
	Offset int
	Word   uint32
	Text   string
}

// Disassemble decodes code word by word in GNU syntax. pc is the address of code[0] and is
// used to print absolute branch targets. Words that do not decode are shown as .long.
func Disassemble(code []byte, order binary.ByteOrder, pc uint64) []Line {
	lines := make([]Line, 0, len(code)/InstrSize)
	for off := 0; off+InstrSize <= len(code); off += InstrSize {
		w := order.Uint32(code[off:])
		text := fmt.Sprintf(".long 0x%08x", w)
		if inst, err := ppc64asm.Decode(code[off:off+InstrSize], order); err == nil {
			text = ppc64asm.GNUSyntax(inst, pc+uint64(off))
		}
		lines = append(lines, Line{Offset: off, Word: w, Text: text})
	}
	return lines
}

// DecodeWord decodes a single instruction word and returns its GNU syntax.
func DecodeWord(w uint32, pc uint64) (string, error) {
	var b [InstrSize]byte
	binary.BigEndian.PutUint32(b[:], w)
	inst, err := ppc64asm.Decode(b[:], binary.BigEndian)
	if err != nil {
		return "", fmt.Errorf("decode 0x%08x: %w", w, err)
	}
	return ppc64asm.GNUSyntax(inst, pc), nil
}

// WriteListing writes a disassembly listing, one instruction per line.
func WriteListing(w io.Writer, code []byte, order binary.ByteOrder, pc uint64) error {
	for _, l := range Disassemble(code, order, pc) {
		if _, err := fmt.Fprintf(w, "%6x:\t%08x\t%s\n", l.Offset, l.Word, l.Text); err != nil {
			return err
		}
	}
	return nil
}
