package main

import (
	"fmt"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/config"
	"bpfjit/pkg/execmem"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/jit"
	"bpfjit/pkg/jitcache"
	"bpfjit/pkg/ppc64/sim"
	"bpfjit/pkg/vmem"
)

// Simulated address space layout.
const (
	helperBase = 0x0100_0000
	dataBase   = 0x2000_0000
	stackBase  = 0x7ff0_0000
	stackSize  = 0x1_0000
)

// session is one simulated process: helpers placed in memory, a code heap, a stack and a
// machine to run compiled code on.
type session struct {
	cfg     config.Config
	opts    jit.Options
	mem     *vmem.Memory
	heap    *execmem.Heap
	raw     *helpers.Table
	placed  *helpers.Table
	machine *sim.Machine
	cache   *jitcache.Cache
}

func newSession(cfg config.Config, opts jit.Options) (*session, error) {
	target := opts.Target
	mem := vmem.New(target.Order)
	raw := helpers.Defaults(helpers.Env{CPU: cfg.Run.CPU})
	placed, img := raw.Install(target, helperBase, opts.TOC)
	if _, err := mem.Map("helpers", img.Base, img.Data, false); err != nil {
		return nil, err
	}
	if _, err := mem.Alloc("stack", stackBase, stackSize); err != nil {
		return nil, err
	}
	m := sim.New(mem)
	m.MaxSteps = cfg.Run.MaxSteps
	for entry, fn := range img.Entries {
		m.RegisterNative(entry, sim.Native(fn))
	}
	s := &session{
		cfg:     cfg,
		opts:    opts,
		mem:     mem,
		heap:    execmem.NewHeap(execmem.DefaultHeapBase, 0),
		raw:     raw,
		placed:  placed,
		machine: m,
	}
	if cfg.Cache.Dir != "" {
		c, err := jitcache.Open(cfg.Cache.Dir)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

func (s *session) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// compile translates prog against the placed helpers, through the cache when one is open.
func (s *session) compile(prog bpf.Program) (p *jit.CompiledProgram, cached bool, err error) {
	if s.cache != nil {
		return s.cache.Compile(prog, s.placed, s.heap, s.opts)
	}
	p, err = jit.Compile(prog, s.placed, s.heap, s.opts)
	return p, false, err
}

// install places a previously exported image.
func (s *session) install(img jit.Image) (*jit.CompiledProgram, error) {
	if img.Target != s.opts.Target.Name {
		return nil, fmt.Errorf("image is for %s, session targets %s", img.Target, s.opts.Target)
	}
	return jit.Install(img, s.heap, s.opts)
}

func (s *session) mapData(data []byte) error {
	_, err := s.mem.Map("data", dataBase, data, true)
	return err
}

// call runs p on the simulator with R1..R5 taken from args.
func (s *session) call(p *jit.CompiledProgram, args []uint64) (uint64, error) {
	if _, ok := s.mem.Lookup(p.Buffer.Addr()); !ok {
		if _, err := s.mem.Map("code", p.Buffer.Addr(), p.Image, false); err != nil {
			return 0, err
		}
	}
	s.machine.SetStack(stackBase + stackSize - 256)
	if p.Target.FunctionDescriptors() {
		return s.machine.CallDescriptor(p.Entry, args...)
	}
	return s.machine.Call(p.Entry, args...)
}

// interpret runs prog on the reference interpreter over the same memory.
func (s *session) interpret(prog bpf.Program, args []uint64) (uint64, error) {
	in := bpf.NewInterpreter(s.mem, s.raw)
	if s.cfg.Run.MaxSteps > 0 {
		in.MaxSteps = s.cfg.Run.MaxSteps
	}
	return in.Run(prog, args...)
}
