package bpf

import (
	"encoding/binary"
	"errors"
	"testing"

	"bpfjit/pkg/vmem"
)

type helperFunc map[int32]func([5]uint64) uint64

func (h helperFunc) Call(id int32, args [5]uint64) (uint64, bool) {
	fn, ok := h[id]
	if !ok {
		return 0, false
	}
	return fn(args), true
}

func run(t *testing.T, order binary.ByteOrder, src string, args ...uint64) uint64 {
	t.Helper()
	p, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	in := NewInterpreter(vmem.New(order), helperFunc{1: func(a [5]uint64) uint64 { return a[0] + a[1] }})
	got, err := in.Run(p, args...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return got
}

func TestInterpreterALU(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint64
	}{
		{"alu32 truncates", "mov64 r0, -1\nadd32 r0, 2\nexit", 1},
		{"mov32 zero extends", "mov32 r0, -1\nexit", 0xffffffff},
		{"mov64 sign extends", "mov64 r0, -1\nexit", 0xffffffffffffffff},
		{"unsigned div", "mov64 r0, -2\nmov64 r1, 2\ndiv64 r0, r1\nexit", 0x7fffffffffffffff},
		{"mod", "mov64 r0, 17\nmod64 r0, 5\nexit", 2},
		{"div by zero register exits", "mov64 r0, 9\nmov64 r1, 0\ndiv64 r0, r1\nmov64 r0, 7\nexit", 0},
		{"mod by zero register exits", "mov64 r0, 9\nmov32 r1, 0\nmod32 r0, r1\nmov64 r0, 7\nexit", 0},
		{"arsh64", "mov64 r0, -16\narsh64 r0, 2\nexit", 0xfffffffffffffffc},
		{"arsh32", "mov32 r0, -16\narsh32 r0, 2\nexit", 0xfffffffc},
		{"lsh32", "mov64 r0, 0x40000001\nlsh32 r0, 2\nexit", 4},
		{"neg", "mov64 r0, 5\nneg64 r0\nexit", 0xfffffffffffffffb},
		{"lddw", "lddw r0, 0x1122334455667788\nexit", 0x1122334455667788},
		{"signed jump", "mov64 r1, -1\nmov64 r0, 0\njsgt r1, 0, +1\nmov64 r0, 1\nexit", 1},
		{"unsigned jump", "mov64 r1, -1\nmov64 r0, 0\njgt r1, 0, +1\nmov64 r0, 1\nexit", 0},
		{"jmp32", "lddw r1, 0x100000005\nmov64 r0, 0\njeq32 r1, 5, +1\nexit\nmov64 r0, 1\nexit", 1},
		{"call", "mov64 r1, 40\nmov64 r2, 2\ncall 1\nexit", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := run(t, binary.LittleEndian, tt.src); got != tt.want {
				t.Errorf("got 0x%x, want 0x%x", got, tt.want)
			}
		})
	}
}

func TestInterpreterEndian(t *testing.T) {
	src := "lddw r0, 0x1122334455667788\nbe16 r0\nexit"
	if got := run(t, binary.LittleEndian, src); got != 0x8877 {
		t.Errorf("be16 on little-endian = 0x%x, want 0x8877", got)
	}
	if got := run(t, binary.BigEndian, src); got != 0x7788 {
		t.Errorf("be16 on big-endian = 0x%x, want 0x7788", got)
	}
	src = "lddw r0, 0x1122334455667788\nle64 r0\nexit"
	if got := run(t, binary.BigEndian, src); got != 0x8877665544332211 {
		t.Errorf("le64 on big-endian = 0x%x", got)
	}
}

func TestInterpreterStackAndAtomics(t *testing.T) {
	src := `
	mov64 r1, 5
	stxdw [r10-8], r1
	mov64 r2, 37
	xadddw [r10-8], r2
	stw [r10-12], 100
	ldxw r3, [r10-12]
	ldxdw r0, [r10-8]
	add64 r0, r3
	exit`
	if got := run(t, binary.BigEndian, src); got != 142 {
		t.Errorf("got %d, want 142", got)
	}
	misaligned := "mov64 r0, 9\nmov64 r1, 1\nxaddw [r10-6], r1\nmov64 r0, 7\nexit"
	if got := run(t, binary.LittleEndian, misaligned); got != 0 {
		t.Errorf("misaligned xadd = %d, want 0", got)
	}
}

func TestInterpreterErrors(t *testing.T) {
	in := NewInterpreter(vmem.New(binary.LittleEndian), nil)
	p, _ := Assemble("ldabsw 4\nexit")
	if _, err := in.Run(p); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ldabs: err = %v, want unsupported", err)
	}
	p, _ = Assemble("call 99\nexit")
	if _, err := in.Run(p); !errors.Is(err, ErrUnknownHelper) {
		t.Errorf("call: err = %v, want unknown helper", err)
	}
	p, _ = Assemble("ja -1")
	in.MaxSteps = 50
	if _, err := in.Run(p); !errors.Is(err, ErrStepLimit) {
		t.Errorf("loop: err = %v, want step limit", err)
	}
	p, _ = Assemble("mov64 r0, 1")
	var re *RuntimeError
	if _, err := in.Run(p); !errors.As(err, &re) || !errors.Is(err, ErrBadJump) {
		t.Errorf("fall off end: err = %v", err)
	}
	p, _ = Assemble("ldxw r0, [r1+0]\nexit")
	if _, err := in.Run(p, 0x1000); !vmem.IsFault(err) {
		t.Errorf("wild load: err = %v, want fault", err)
	}
}
