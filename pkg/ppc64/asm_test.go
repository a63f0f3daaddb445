package ppc64

import (
	"encoding/binary"
	"testing"

	"golang.org/x/arch/ppc64/ppc64asm"
)

func emitOne(f func(a *Assembler)) uint32 {
	buf := make([]byte, 64)
	a := NewAssembler(buf, binary.BigEndian)
	f(a)
	return a.Word(0)
}

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(a *Assembler)
		want uint32
	}{
		{"li r3,1", func(a *Assembler) { a.Li(R3, 1) }, 0x38600001},
		{"addi r1,r1,144", func(a *Assembler) { a.Addi(R1, R1, 144) }, 0x38210090},
		{"mr r3,r10", func(a *Assembler) { a.Mr(R3, R10) }, 0x7d435378},
		{"blr", func(a *Assembler) { a.Blr() }, 0x4e800020},
		{"blrl", func(a *Assembler) { a.Blrl() }, 0x4e800021},
		{"mflr r0", func(a *Assembler) { a.Mflr(R0) }, 0x7c0802a6},
		{"mtlr r0", func(a *Assembler) { a.Mtlr(R0) }, 0x7c0803a6},
		{"std r0,16(r1)", func(a *Assembler) { a.Std(R0, R1, 16) }, 0xf8010010},
		{"ld r0,16(r1)", func(a *Assembler) { a.Ld(R0, R1, 16) }, 0xe8010010},
		{"stdu r1,-144(r1)", func(a *Assembler) { a.Stdu(R1, R1, -144) }, 0xf821ff71},
		{"nop", func(a *Assembler) { a.Nop() }, 0x60000000},
		{"rlwinm r3,r3,0,0,31", func(a *Assembler) { a.Clrlwi32(R3, R3) }, 0x5463003e},
		{"sldi r3,r3,32", func(a *Assembler) { a.Sldi(R3, R3, 32) }, 0x786307c6},
		{"b +8", func(a *Assembler) { a.B(2) }, 0x48000008},
		{"beq +8", func(a *Assembler) { a.Bc(CondEQ, 2) }, 0x41820008},
		{"bne +8", func(a *Assembler) { a.Bc(CondNE, 2) }, 0x40820008},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emitOne(tt.emit); got != tt.want {
				t.Errorf("%s = 0x%08x, want 0x%08x", tt.name, got, tt.want)
			}
		})
	}
}

func TestEncodingsDecode(t *testing.T) {
	tests := []struct {
		emit func(a *Assembler)
		op   string
	}{
		{func(a *Assembler) { a.Addi(R3, R4, -1) }, "addi"},
		{func(a *Assembler) { a.Add(R3, R4, R5) }, "add"},
		{func(a *Assembler) { a.Subf(R3, R4, R5) }, "subf"},
		{func(a *Assembler) { a.Mulld(R3, R4, R5) }, "mulld"},
		{func(a *Assembler) { a.Divdu(R3, R4, R5) }, "divdu"},
		{func(a *Assembler) { a.Divwu(R3, R4, R5) }, "divwu"},
		{func(a *Assembler) { a.Neg(R3, R4) }, "neg"},
		{func(a *Assembler) { a.And(R3, R4, R5) }, "and"},
		{func(a *Assembler) { a.AndDot(R3, R4, R5) }, "and."},
		{func(a *Assembler) { a.Andi(R3, R4, 0xff) }, "andi."},
		{func(a *Assembler) { a.Xor(R3, R4, R5) }, "xor"},
		{func(a *Assembler) { a.Oris(R3, R4, 1) }, "oris"},
		{func(a *Assembler) { a.Xoris(R3, R4, 1) }, "xoris"},
		{func(a *Assembler) { a.Sld(R3, R4, R5) }, "sld"},
		{func(a *Assembler) { a.Srd(R3, R4, R5) }, "srd"},
		{func(a *Assembler) { a.Srad(R3, R4, R5) }, "srad"},
		{func(a *Assembler) { a.Sradi(R3, R4, 40) }, "sradi"},
		{func(a *Assembler) { a.Srawi(R3, R4, 3) }, "srawi"},
		{func(a *Assembler) { a.Rlwimi(R3, R4, 8, 16, 23) }, "rlwimi"},
		{func(a *Assembler) { a.Rldicl(R3, R4, 0, 32) }, "rldicl"},
		{func(a *Assembler) { a.Lwz(R3, R4, 8) }, "lwz"},
		{func(a *Assembler) { a.Lhz(R3, R4, 8) }, "lhz"},
		{func(a *Assembler) { a.Lbz(R3, R4, 8) }, "lbz"},
		{func(a *Assembler) { a.Stw(R3, R4, 8) }, "stw"},
		{func(a *Assembler) { a.Sth(R3, R4, 8) }, "sth"},
		{func(a *Assembler) { a.Stb(R3, R4, 8) }, "stb"},
		{func(a *Assembler) { a.Ldx(R3, R4, R5) }, "ldx"},
		{func(a *Assembler) { a.Stdx(R3, R4, R5) }, "stdx"},
		{func(a *Assembler) { a.Lwarx(R3, R4, R5) }, "lwarx"},
		{func(a *Assembler) { a.Ldarx(R3, R4, R5) }, "ldarx"},
		{func(a *Assembler) { a.Stwcx(R3, R4, R5) }, "stwcx."},
		{func(a *Assembler) { a.Stdcx(R3, R4, R5) }, "stdcx."},
		{func(a *Assembler) { a.Ldbrx(R3, R4, R5) }, "ldbrx"},
		{func(a *Assembler) { a.Cmpld(R3, R4) }, "cmpld"},
		{func(a *Assembler) { a.Cmpd(R3, R4) }, "cmpd"},
		{func(a *Assembler) { a.Cmpldi(R3, 7) }, "cmpldi"},
		{func(a *Assembler) { a.Cmpdi(R3, -7) }, "cmpdi"},
	}
	for _, tt := range tests {
		w := emitOne(tt.emit)
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], w)
		inst, err := ppc64asm.Decode(b[:], binary.BigEndian)
		if err != nil {
			t.Errorf("0x%08x: decode: %v", w, err)
			continue
		}
		if got := inst.Op.String(); got != tt.op {
			t.Errorf("0x%08x decoded as %q, want %q", w, got, tt.op)
		}
	}
}

func TestLoadImm32Length(t *testing.T) {
	tests := []struct {
		v     int32
		words int
	}{
		{0, 1},
		{-1, 1},
		{32767, 1},
		{-32768, 1},
		{32768, 2},
		{0x10000, 1},
		{0x12345678, 2},
		{-0x80000000, 1},
	}
	for _, tt := range tests {
		a := NewCounter()
		a.LoadImm32(R3, tt.v)
		if a.Len() != tt.words {
			t.Errorf("LoadImm32(%#x) = %d words, want %d", tt.v, a.Len(), tt.words)
		}
	}
}

func TestLoadImm64Length(t *testing.T) {
	tests := []struct {
		v     uint64
		words int
	}{
		{0, 1},
		{0xffffffffffffffff, 1},
		{0x100000000, 2},
		{0x0000123400000000, 2},
		{0x0000123456789abc, 4},
		{0x123456789abcdef0, 5},
		{0xffff000000000000, 2},
	}
	for _, tt := range tests {
		a := NewCounter()
		a.LoadImm64(R3, int64(tt.v))
		if a.Len() != tt.words {
			t.Errorf("LoadImm64(%#x) = %d words, want %d", tt.v, a.Len(), tt.words)
		}
		if a.Len() > 5 {
			t.Errorf("LoadImm64(%#x) used %d words", tt.v, a.Len())
		}
	}
}

func TestBranchCondAlwaysTwoWords(t *testing.T) {
	for _, target := range []int{0, 2, 100, 8000, 9000, 1 << 20} {
		buf := make([]byte, 16)
		a := NewAssembler(buf, binary.BigEndian)
		a.BranchCond(CondGT, target)
		if a.Len() != 2 {
			t.Fatalf("BranchCond(%d) emitted %d words", target, a.Len())
		}
		far := !IsNearBranch(int32(target * InstrSize))
		second := a.Word(1)
		if far && second&0xfc000000 != InstB {
			t.Errorf("far branch to %d: second word 0x%08x is not b", target, second)
		}
		if !far && second != InstNop {
			t.Errorf("near branch to %d: second word 0x%08x is not nop", target, second)
		}
	}
}

func TestCondInvert(t *testing.T) {
	pairs := [][2]Cond{{CondEQ, CondNE}, {CondGT, CondLE}, {CondLT, CondGE}}
	for _, p := range pairs {
		if p[0].Invert() != p[1] || p[1].Invert() != p[0] {
			t.Errorf("%v and %v are not inverses", p[0], p[1])
		}
	}
}

func TestCounterStoresNothing(t *testing.T) {
	a := NewCounter()
	a.LoadImm64(R3, 0x123456789abcdef0)
	if a.Bytes() != nil && len(a.Bytes()) != 0 {
		t.Errorf("counter stored %d bytes", len(a.Bytes()))
	}
	if a.Word(0) != 0 {
		t.Errorf("counter Word(0) = 0x%x", a.Word(0))
	}
}

func TestOverflow(t *testing.T) {
	a := NewAssembler(make([]byte, 4), binary.LittleEndian)
	a.Nop()
	if a.Overflowed() {
		t.Fatal("overflow after one word")
	}
	a.Nop()
	if !a.Overflowed() {
		t.Fatal("no overflow after writing past the end")
	}
}
