// Package sim interprets 64-bit PowerPC machine code.
//
// It implements the user-mode integer subset the JIT emits (arithmetic, logical, rotate and
// shift, loads and stores, reservations, compares and branches) and runs generated code
// against a vmem.Memory, so compiled programs can be executed on any host.
package sim

import (
	"errors"
	"fmt"

	"bpfjit/pkg/ppc64"
	"bpfjit/pkg/vmem"
)

// Native is a Go function standing in for a native callee. It receives r3..r7 and its
// result is placed in r3.
type Native func(args [5]uint64) uint64

// ReturnAddr is loaded into LR by Call; branching to it ends the run.
const ReturnAddr uint64 = 0x0000_dead_0000_0000

// DefaultMaxSteps bounds a single Call.
const DefaultMaxSteps = 10_000_000

var (
	ErrStepLimit = errors.New("step limit exceeded")
)

// IllegalInstruction is returned for words the simulator cannot execute.
type IllegalInstruction struct {
	PC   uint64
	Word uint32
}

func (e *IllegalInstruction) Error() string {
	return fmt.Sprintf("illegal instruction 0x%08x at 0x%x", e.Word, e.PC)
}

// cr0 bits
const (
	crLT = 8
	crGT = 4
	crEQ = 2
)

const sprLR = 8

// Machine is the architectural state of one hardware thread.
type Machine struct {
	GPR [ppc64.NumGPR]uint64
	LR  uint64
	CR0 uint8
	PC  uint64

	Mem      *vmem.Memory
	MaxSteps int
	Steps    int

	natives  map[uint64]Native
	reserved bool
	resvAddr uint64
	clobber  uint64
	trace    func(pc uint64, word uint32)
}

// New creates a machine over mem. Instruction fetch uses mem's byte order.
func New(mem *vmem.Memory) *Machine {
	return &Machine{
		Mem:      mem,
		MaxSteps: DefaultMaxSteps,
		natives:  make(map[uint64]Native),
		clobber:  0x5a5a_5a5a_5a5a_5a5a,
	}
}

// RegisterNative makes a branch to entry call fn and return to LR.
func (m *Machine) RegisterNative(entry uint64, fn Native) {
	m.natives[entry] = fn
}

// SetTrace installs a callback invoked before every executed instruction.
func (m *Machine) SetTrace(fn func(pc uint64, word uint32)) {
	m.trace = fn
}

// SetStack points r1 at sp.
func (m *Machine) SetStack(sp uint64) {
	m.GPR[ppc64.SP] = sp
}

// Call runs code at entry with r3.. loaded from args and r12 set to entry, as an ELFv2
// caller would, until it returns. It yields r3.
func (m *Machine) Call(entry uint64, args ...uint64) (uint64, error) {
	if len(args) > 8 {
		return 0, fmt.Errorf("call 0x%x: %d arguments, at most 8 are passed in registers", entry, len(args))
	}
	for i, a := range args {
		m.GPR[int(ppc64.R3)+i] = a
	}
	m.GPR[ppc64.Fn] = entry
	m.LR = ReturnAddr
	m.PC = entry
	if err := m.Run(); err != nil {
		return 0, err
	}
	return m.GPR[ppc64.R3], nil
}

// CallDescriptor calls through the ELFv1 function descriptor at desc: it loads the entry
// point and r2 from the descriptor, then behaves like Call.
func (m *Machine) CallDescriptor(desc uint64, args ...uint64) (uint64, error) {
	entry, err := m.Mem.Load(desc, 8)
	if err != nil {
		return 0, fmt.Errorf("descriptor entry: %w", err)
	}
	toc, err := m.Mem.Load(desc+8, 8)
	if err != nil {
		return 0, fmt.Errorf("descriptor toc: %w", err)
	}
	m.GPR[ppc64.TOC] = toc
	return m.Call(entry, args...)
}

// Run executes from PC until control reaches ReturnAddr.
func (m *Machine) Run() error {
	m.Steps = 0
	for m.PC != ReturnAddr {
		if m.MaxSteps > 0 && m.Steps >= m.MaxSteps {
			return fmt.Errorf("at 0x%x: %w", m.PC, ErrStepLimit)
		}
		if fn, ok := m.natives[m.PC]; ok {
			m.callNative(fn)
			continue
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// callNative emulates a call to a native function: arguments in r3..r7, result in r3,
// volatile registers r0 and r4..r12 clobbered, return through LR.
func (m *Machine) callNative(fn Native) {
	var args [5]uint64
	copy(args[:], m.GPR[ppc64.R3:ppc64.R8])
	ret := fn(args)
	m.GPR[ppc64.R0] = m.clobber
	for r := ppc64.R4; r <= ppc64.R12; r++ {
		m.GPR[r] = m.clobber
	}
	m.GPR[ppc64.R3] = ret
	m.CR0 = 0
	m.PC = m.LR
	m.Steps++
}

// Step executes one instruction.
func (m *Machine) Step() error {
	w64, err := m.Mem.Load(m.PC, ppc64.InstrSize)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	w := uint32(w64)
	if m.trace != nil {
		m.trace(m.PC, w)
	}
	m.Steps++
	next, err := m.exec(w)
	if err != nil {
		return err
	}
	m.PC = next
	return nil
}

func (m *Machine) illegal(w uint32) error {
	return &IllegalInstruction{PC: m.PC, Word: w}
}

// crBit returns cr0 bit bi (0=lt, 1=gt, 2=eq, 3=so).
func (m *Machine) crBit(bi uint32) bool {
	if bi > 3 {
		return false
	}
	return m.CR0&(8>>bi) != 0
}

func (m *Machine) setCR0(v int64) {
	switch {
	case v < 0:
		m.CR0 = crLT
	case v > 0:
		m.CR0 = crGT
	default:
		m.CR0 = crEQ
	}
}

func (m *Machine) compareSigned(a, b int64) {
	m.setCR0Cmp(a < b, a > b)
}

func (m *Machine) compareUnsigned(a, b uint64) {
	m.setCR0Cmp(a < b, a > b)
}

func (m *Machine) setCR0Cmp(lt, gt bool) {
	switch {
	case lt:
		m.CR0 = crLT
	case gt:
		m.CR0 = crGT
	default:
		m.CR0 = crEQ
	}
}

// AlignmentFault is raised by reservation loads at misaligned addresses.
type AlignmentFault struct {
	PC   uint64
	Addr uint64
}

func (e *AlignmentFault) Error() string {
	return fmt.Sprintf("alignment fault at 0x%x: address 0x%x", e.PC, e.Addr)
}
