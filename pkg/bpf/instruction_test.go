package bpf

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWireFormat(t *testing.T) {
	ins := Instruction{Code: MemOpcode(ClassSTX, ModeMEM, SizeDW), Dst: R10, Src: R1, Off: -8, Imm: 0x11223344}
	got := ins.Marshal(nil)
	want := []byte{0x7b, 0x1a, 0xf8, 0xff, 0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(got, want) {
		t.Fatalf("Marshal = % x, want % x", got, want)
	}
	back, err := Unmarshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if back != ins {
		t.Errorf("Unmarshal = %+v, want %+v", back, ins)
	}
}

func TestUnmarshalProgramLength(t *testing.T) {
	if _, err := UnmarshalProgram(make([]byte, 12)); err == nil {
		t.Error("odd-length program accepted")
	}
	p, err := UnmarshalProgram(Program{Mov64Imm(R0, 1), Exit()}.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 2 || p[1].Code != OpcodeExit {
		t.Errorf("decoded %v", p)
	}
}

func TestOpcodeFields(t *testing.T) {
	c := ALUOpcode(ClassALU64, OpMOD, SrcX)
	if c != 0x9f {
		t.Errorf("mod64 x = 0x%02x, want 0x9f", uint8(c))
	}
	if c.Class() != ClassALU64 || c.ALUOp() != OpMOD || c.Source() != SrcX || !c.Is64() {
		t.Errorf("fields of 0x%02x decoded wrongly", uint8(c))
	}
	m := MemOpcode(ClassSTX, ModeXADD, SizeW)
	if m != 0xc3 {
		t.Errorf("xaddw = 0x%02x, want 0xc3", uint8(m))
	}
	if OpcodeLdImm64 != 0x18 || OpcodeCall != 0x85 || OpcodeExit != 0x95 {
		t.Errorf("fixed opcodes: lddw 0x%02x call 0x%02x exit 0x%02x", uint8(OpcodeLdImm64), uint8(OpcodeCall), uint8(OpcodeExit))
	}
}

const sample = `
; sum the first n words of a buffer
	mov64 r0, 0
	mov64 r3, 0
loop:
	jge r3, r2, done
	ldxw r4, [r1+0]
	add64 r0, r4
	add64 r1, 4
	add64 r3, 1
	ja loop
done:
	stxdw [r10-8], r0
	lddw r5, 0x123456789a
	xadddw [r10-8], r5
	ldxdw r0, [r10-8]
	be16 r0
	jset r0, 0x10, +1
	neg32 r0
	exit
`

func TestAssemble(t *testing.T) {
	p, err := Assemble(sample)
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 17 {
		t.Fatalf("len = %d, want 17", len(p))
	}
	if p[2].Off != 5 {
		t.Errorf("forward label offset = %d, want 5", p[2].Off)
	}
	if p[7].Off != -6 {
		t.Errorf("backward label offset = %d, want -6", p[7].Off)
	}
	if !p[9].IsLoadImm64() || uint32(p[10].Imm) != 0x12 || uint32(p[9].Imm) != 0x3456789a {
		t.Errorf("lddw slots = %v %v", p[9], p[10])
	}

	// Rendering and reassembling must give back the same program.
	again, err := Assemble(p.String())
	if err != nil {
		t.Fatalf("reassemble: %v\n%s", err, p)
	}
	if diff := cmp.Diff(p, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []string{
		"mov64 r11, 1",
		"mov64 r1, 0x100000000",
		"ldxq r0, [r1+0]",
		"ja nowhere",
		"jeq r1, 1",
		"frob r1",
		"ldxw r0, [r1+40000]",
		"a:\na:\nexit",
	}
	for _, src := range tests {
		if _, err := Assemble(src); err == nil {
			t.Errorf("Assemble(%q) succeeded", src)
		}
	}
}

func TestStringUnknown(t *testing.T) {
	ins := Instruction{Code: 0xe7, Dst: 1, Imm: 3}
	p, err := Assemble(ins.String())
	if err != nil {
		t.Fatalf("reassemble %q: %v", ins.String(), err)
	}
	if p[0] != ins {
		t.Errorf("raw round trip = %+v, want %+v", p[0], ins)
	}
}
