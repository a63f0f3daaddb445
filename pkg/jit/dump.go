package jit

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

var (
	dumpHeaderColor = color.New(color.FgYellow, color.Bold)
	dumpInsnColor   = color.New(color.FgCyan)
)

// Dump writes a listing of p: a summary line, the descriptor header if there is one, and
// each bytecode instruction followed by the native code generated for it. colored enables
// ANSI highlighting of the bytecode lines.
func Dump(w io.Writer, prog bpf.Program, p *CompiledProgram, colored bool) error {
	header := fmt.Sprintf("flen=%d proglen=%d image=0x%x target=%s id=%s",
		len(prog), p.Words*ppc64.InstrSize, p.CodeAddr(), p.Target, p.ID)
	insnf := fmt.Sprintf
	if colored {
		header = dumpHeaderColor.Sprint(header)
		insnf = dumpInsnColor.Sprintf
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if p.HeaderSize > 0 {
		order := p.Target.Order
		if _, err := fmt.Fprintf(w, "descriptor: entry=0x%x toc=0x%x env=0x%x\n",
			order.Uint64(p.Image[0:]), order.Uint64(p.Image[8:]), order.Uint64(p.Image[16:])); err != nil {
			return err
		}
	}

	lines := ppc64.Disassemble(p.Code(), p.Target.Order, p.CodeAddr())
	emit := func(from, to int) error {
		for _, l := range lines[from:to] {
			if _, err := fmt.Fprintf(w, "  %6x:\t%08x\t%s\n", l.Offset, l.Word, l.Text); err != nil {
				return err
			}
		}
		return nil
	}

	start := int(p.Addrs[0] / ppc64.InstrSize)
	if _, err := fmt.Fprintln(w, "prologue:"); err != nil {
		return err
	}
	if err := emit(0, start); err != nil {
		return err
	}
	for i := 0; i < len(prog); i++ {
		n := i
		from := int(p.Addrs[i] / ppc64.InstrSize)
		text := prog[i].String()
		if prog[i].IsLoadImm64() && i+1 < len(prog) {
			v := uint64(uint32(prog[i].Imm)) | uint64(uint32(prog[i+1].Imm))<<32
			text = fmt.Sprintf("lddw r%d, 0x%x", prog[i].Dst, v)
			i++
		}
		to := int(p.Addrs[i+1] / ppc64.InstrSize)
		if _, err := fmt.Fprint(w, insnf("%4d: %s\n", n, text)); err != nil {
			return err
		}
		if err := emit(from, to); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "epilogue:"); err != nil {
		return err
	}
	return emit(int(p.Addrs[len(prog)]/ppc64.InstrSize), len(lines))
}
