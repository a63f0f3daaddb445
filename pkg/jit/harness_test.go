package jit

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/execmem"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/ppc64"
	"bpfjit/pkg/ppc64/sim"
	"bpfjit/pkg/vmem"
)

// Simulated address space shared by the compiled code and the interpreter.
const (
	helperBase = 0x0100_0000
	dataBase   = 0x2000_0000
	stackBase  = 0x7ff0_0000
	stackSize  = 0x1_0000
	testTOC    = 0x0bad_c0de_0000

	helperSum = 100
)

var targets = []ppc64.Target{ppc64.BigEndian, ppc64.LittleEndian}

// testHelpers returns a deterministic helper table. Each call starts from the same state, so
// a compiled run and an interpreted run see the same helper results.
func testHelpers() *helpers.Table {
	fixed := time.Unix(1_700_000_000, 0)
	tbl := helpers.Defaults(helpers.Env{
		Now:  func() time.Time { return fixed },
		Rand: rand.New(rand.NewPCG(1, 2)),
		CPU:  3,
		PID:  100,
		TGID: 200,
	})
	if err := tbl.Register(helpers.Helper{
		ID: helperSum, Name: "sum", JITCompatible: true,
		Fn: func(a [5]uint64) uint64 { return a[0] + a[1] + a[2] + a[3] + a[4] },
	}); err != nil {
		panic(err)
	}
	return tbl
}

func testOptions(target ppc64.Target) Options {
	return Options{Enabled: true, Target: target, TOC: testTOC, Jobs: 2}
}

// rig is a simulated machine with helpers installed and a data region mapped.
type rig struct {
	target  ppc64.Target
	mem     *vmem.Memory
	heap    *execmem.Heap
	helpers *helpers.Table
	machine *sim.Machine
}

func newRig(t *testing.T, target ppc64.Target, data []byte) *rig {
	t.Helper()
	mem := vmem.New(target.Order)
	placed, img := testHelpers().Install(target, helperBase, testTOC)
	if _, err := mem.Map("helpers", img.Base, img.Data, false); err != nil {
		t.Fatalf("map helpers: %v", err)
	}
	if len(data) > 0 {
		if _, err := mem.Map("data", dataBase, append([]byte(nil), data...), true); err != nil {
			t.Fatalf("map data: %v", err)
		}
	}
	if _, err := mem.Alloc("stack", stackBase, stackSize); err != nil {
		t.Fatalf("map stack: %v", err)
	}
	m := sim.New(mem)
	for entry, fn := range img.Entries {
		m.RegisterNative(entry, sim.Native(fn))
	}
	return &rig{
		target:  target,
		mem:     mem,
		heap:    execmem.NewHeap(execmem.DefaultHeapBase, 0),
		helpers: placed,
		machine: m,
	}
}

func (r *rig) compile(t *testing.T, prog bpf.Program) *CompiledProgram {
	t.Helper()
	p, err := Compile(prog, r.helpers, r.heap, testOptions(r.target))
	if err != nil {
		t.Fatalf("%s: compile: %v\n%s", r.target, err, prog)
	}
	return p
}

// run maps p's image and calls it the way the target ABI does.
func (r *rig) run(t *testing.T, p *CompiledProgram, args ...uint64) (uint64, error) {
	t.Helper()
	if _, ok := r.mem.Lookup(p.Buffer.Addr()); !ok {
		if _, err := r.mem.Map("code", p.Buffer.Addr(), p.Image, false); err != nil {
			t.Fatalf("map code: %v", err)
		}
	}
	r.machine.SetStack(stackBase + stackSize - 256)
	if r.target.FunctionDescriptors() {
		return r.machine.CallDescriptor(p.Entry, args...)
	}
	return r.machine.Call(p.Entry, args...)
}

func (r *rig) data(t *testing.T, n int) []byte {
	t.Helper()
	if n == 0 {
		return nil
	}
	b, err := r.mem.Read(dataBase, n)
	if err != nil {
		t.Fatalf("read data: %v", err)
	}
	return b
}

// outcome is what a program leaves behind: its result and the data region.
type outcome struct {
	Ret  uint64
	Data []byte
}

func runCompiled(t *testing.T, target ppc64.Target, prog bpf.Program, data []byte, args ...uint64) outcome {
	t.Helper()
	r := newRig(t, target, data)
	p := r.compile(t, prog)
	ret, err := r.run(t, p, args...)
	if err != nil {
		t.Fatalf("%s: run: %v\n%s", target, err, prog)
	}
	return outcome{Ret: ret, Data: r.data(t, len(data))}
}

func runInterpreted(t *testing.T, target ppc64.Target, prog bpf.Program, data []byte, args ...uint64) outcome {
	t.Helper()
	mem := vmem.New(target.Order)
	if len(data) > 0 {
		if _, err := mem.Map("data", dataBase, append([]byte(nil), data...), true); err != nil {
			t.Fatalf("map data: %v", err)
		}
	}
	in := bpf.NewInterpreter(mem, testHelpers())
	ret, err := in.Run(prog, args...)
	if err != nil {
		t.Fatalf("%s: interpret: %v\n%s", target, err, prog)
	}
	out := outcome{Ret: ret}
	if len(data) > 0 {
		b, err := mem.Read(dataBase, len(data))
		if err != nil {
			t.Fatalf("read data: %v", err)
		}
		out.Data = b
	}
	return out
}

func mustAssemble(t *testing.T, src string) bpf.Program {
	t.Helper()
	p, err := bpf.Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return p
}

func compileErr(t *testing.T, prog bpf.Program, h helpers.Resolver) *CompileError {
	t.Helper()
	_, err := Compile(prog, h, execmem.NewHeap(0, 0), testOptions(ppc64.LittleEndian))
	if err == nil {
		t.Fatalf("compiled %v without error", prog)
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error %v (%T) is not a *CompileError", err, err)
	}
	return ce
}
