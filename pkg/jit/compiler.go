package jit

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/google/uuid"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/execmem"
	"bpfjit/pkg/helpers"
	"bpfjit/pkg/ppc64"
)

// State is a step of a compilation.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateSizing
	StateAllocated
	StateAllocFailed
	StatePass1
	StatePass2
	StateInstalled
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateScanning:    "scanning",
	StateSizing:      "sizing",
	StateAllocated:   "allocated",
	StateAllocFailed: "alloc-failed",
	StatePass1:       "pass1",
	StatePass2:       "pass2",
	StateInstalled:   "installed",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options controls code generation.
type Options struct {
	// Enabled gates the compiler; when false Compile returns ErrDisabled and the caller
	// is expected to interpret the program.
	Enabled bool
	Target  ppc64.Target
	// TOC is written into the function descriptor on ELFv1 targets.
	TOC uint64
	// Logger receives pass summaries (Verbose >= 1) and disassembly (Verbose >= 2).
	Logger  *log.Logger
	Verbose int
	// Jobs bounds CompileAll's parallelism; zero means one per CPU.
	Jobs int
}

// DefaultOptions returns an enabled little-endian configuration.
func DefaultOptions() Options {
	return Options{Enabled: true, Target: ppc64.LittleEndian, Jobs: runtime.NumCPU()}
}

// CompiledProgram is an installed, executable translation of a program.
type CompiledProgram struct {
	ID     uuid.UUID
	Target ppc64.Target
	Buffer execmem.Buffer

	// Image is the whole buffer: HeaderSize bytes of function descriptor (ELFv1 only)
	// followed by Words instructions.
	Image      []byte
	HeaderSize int
	Words      int

	// Addrs holds the byte offset of each bytecode slot's code from the start of the
	// code, plus a final entry for the epilogue. The second slot of a 64-bit constant
	// load has no code of its own and repeats the first slot's offset.
	Addrs []uint32
	Seen  uint32
	// FrameSize is the stack frame the prologue builds, or zero.
	FrameSize int32
	// Entry is what a caller branches through: the descriptor address on ELFv1 and the
	// first instruction on ELFv2.
	Entry uint64
}

// Code returns the instructions without the descriptor header.
func (p *CompiledProgram) Code() []byte {
	return p.Image[p.HeaderSize:]
}

// CodeAddr returns the address of the first instruction.
func (p *CompiledProgram) CodeAddr() uint64 {
	return p.Buffer.Addr() + uint64(p.HeaderSize)
}

// Free releases the code buffer.
func (p *CompiledProgram) Free() error {
	return p.Buffer.Free()
}

// Compiler translates programs for one target. A Compiler runs one compilation at a time;
// use separate compilers (or CompileAll) for parallel work.
type Compiler struct {
	opts    Options
	helpers helpers.Resolver
	alloc   execmem.Allocator

	state   State
	history []State
}

// NewCompiler creates a compiler resolving helpers through h and placing code with alloc.
func NewCompiler(h helpers.Resolver, alloc execmem.Allocator, opts Options) *Compiler {
	if opts.Target.Order == nil {
		opts.Target = ppc64.LittleEndian
	}
	return &Compiler{opts: opts, helpers: h, alloc: alloc}
}

// Compile translates prog with a one-off Compiler.
func Compile(prog bpf.Program, h helpers.Resolver, alloc execmem.Allocator, opts Options) (*CompiledProgram, error) {
	return NewCompiler(h, alloc, opts).Compile(prog)
}

// State returns the state the last compilation ended in.
func (c *Compiler) State() State {
	return c.state
}

// History returns the states the last compilation went through.
func (c *Compiler) History() []State {
	return append([]State(nil), c.history...)
}

func (c *Compiler) setState(s State) {
	c.state = s
	c.history = append(c.history, s)
}

func (c *Compiler) logf(level int, format string, args ...any) {
	if c.opts.Logger != nil && c.opts.Verbose >= level {
		c.opts.Logger.Printf(format, args...)
	}
}

// fail records the failure and normalizes err into a *CompileError.
func (c *Compiler) fail(err error) error {
	c.setState(StateFailed)
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce
	}
	return &CompileError{Kind: ErrNotConverged, Index: -1, Err: err}
}

// Compile translates prog into native code.
//
// The program is scanned once to learn its length and register usage, the buffer is
// allocated, and then two full passes are generated into it. Any translation problem is
// reported before allocation; nothing is installed unless both passes agree.
func (c *Compiler) Compile(prog bpf.Program) (*CompiledProgram, error) {
	c.history = c.history[:0]
	c.setState(StateIdle)
	if !c.opts.Enabled {
		return nil, ErrDisabled
	}
	if len(prog) == 0 {
		return nil, c.fail(&CompileError{Kind: ErrEmptyProgram, Index: -1})
	}
	target := c.opts.Target
	id := uuid.New()
	g := newCodegen(prog, target, c.helpers)

	c.setState(StateScanning)
	sr, err := scan(g)
	if err != nil {
		c.logf(1, "bpf_jit %s: %v", id, err)
		return nil, c.fail(err)
	}

	c.setState(StateSizing)
	g.seen = sr.seen
	g.frame = newFrameLayout(target, sr.seen)
	proWords, epiWords := g.frameWords()
	words := proWords + sr.bodyWords + epiWords
	header := target.DescriptorSize()

	buf, err := c.alloc.Allocate(header + words*ppc64.InstrSize)
	if err != nil {
		c.setState(StateAllocFailed)
		return nil, &CompileError{Kind: ErrAllocationFailed, Index: -1, Err: err}
	}
	c.setState(StateAllocated)

	image := buf.Bytes()
	g.asm = ppc64.NewAssembler(image[header:], target.Order)
	c.setState(StatePass1)
	err = g.runPasses(words, func(n, got int) {
		c.logf(1, "bpf_jit %s: pass %d: shrink = %d, seen = 0x%x", id, n, (words-got)*ppc64.InstrSize, uint32(g.seen))
		if n == 1 {
			c.setState(StatePass2)
		}
	})
	if err != nil {
		_ = buf.Free()
		return nil, c.fail(err)
	}

	p := &CompiledProgram{
		ID:         id,
		Target:     target,
		Buffer:     buf,
		Image:      image,
		HeaderSize: header,
		Words:      words,
		Addrs:      g.addrs.Offsets(),
		Seen:       uint32(g.seen),
		Entry:      buf.Addr(),
	}
	if g.frame.hasFrame {
		p.FrameSize = g.frame.size
	}
	if err := c.install(p); err != nil {
		_ = buf.Free()
		c.setState(StateFailed)
		return nil, err
	}
	c.logf(1, "bpf_jit %s: flen=%d proglen=%d image=0x%x", id, len(prog), words*ppc64.InstrSize, p.CodeAddr())
	if c.opts.Verbose >= 2 && c.opts.Logger != nil {
		_ = Dump(c.opts.Logger.Writer(), prog, p, false)
	}
	return p, nil
}

// frameWords counts the prologue and epilogue for the current usage set.
func (g *codegen) frameWords() (prologue, epilogue int) {
	saved := g.asm
	defer func() { g.asm = saved }()
	g.asm = ppc64.NewCounter()
	g.emitPrologue()
	prologue = g.asm.Len()
	g.asm.Reset()
	g.emitEpilogue()
	return prologue, g.asm.Len()
}

// install writes the function descriptor (ELFv1) and makes the buffer executable.
func (c *Compiler) install(p *CompiledProgram) error {
	if p.Target.FunctionDescriptors() {
		writeDescriptor(p.Target, p.Image, p.CodeAddr(), c.opts.TOC)
	}
	if err := p.Buffer.Seal(); err != nil {
		return &CompileError{Kind: ErrAllocationFailed, Index: -1, Err: err}
	}
	c.setState(StateInstalled)
	return nil
}

// writeDescriptor fills the ELFv1 function descriptor {entry, toc, environment}.
func writeDescriptor(target ppc64.Target, image []byte, entry, toc uint64) {
	target.Order.PutUint64(image[0:], entry)
	target.Order.PutUint64(image[8:], toc)
	target.Order.PutUint64(image[16:], 0)
}
