package jit

import (
	"bpfjit/pkg/bpf"
	"bpfjit/pkg/ppc64"
)

// Stack frame, from the new r1 upward:
//
//	[r1]                         ABI minimum frame (back chain, LR/TOC save slots)
//	[r1 + min]                   16 bytes of locals (64-bit byte swap)
//	[r1 + min + 16]              512-byte bytecode stack, FP points at its top
//	[r1 + size - 64]             save area for non-volatile registers
//	[r1 + size]                  caller's frame; LR is stored at 16 bytes above it
const (
	localsSize   = 16
	saveAreaSize = 8 * 8
	lrSaveOffset = 16

	// noFrameLocal is the scratch slot used below r1 when no frame is built, just under
	// the register save slots.
	noFrameLocal = -(saveAreaSize + 8)
)

type frameLayout struct {
	hasFrame bool
	calls    bool
	minSize  int32
	size     int32
}

func newFrameLayout(target ppc64.Target, seen seenSet) frameLayout {
	minFrame := target.StackFrameMinSize()
	return frameLayout{
		hasFrame: seen.needsFrame(),
		calls:    seen.has(seenFunc),
		minSize:  minFrame,
		size:     minFrame + localsSize + bpf.StackSize + saveAreaSize,
	}
}

// saveOffset is where non-volatile register r is kept, relative to r1 after the prologue.
func (f frameLayout) saveOffset(r ppc64.Reg) int16 {
	off := -8 * (32 - int32(r))
	if f.hasFrame {
		off += f.size
	}
	return int16(off)
}

// localOffset is the 8-byte scratch slot, relative to r1 after the prologue.
func (f frameLayout) localOffset() int16 {
	if f.hasFrame {
		return int16(f.minSize)
	}
	return noFrameLocal
}

// fpOffset is the value of FP relative to r1 after the prologue.
func (f frameLayout) fpOffset() int16 {
	return int16(f.size - saveAreaSize)
}

func (g *codegen) emitPrologue() {
	a := g.asm
	f := g.frame
	if f.hasFrame {
		if f.calls {
			a.Mflr(ppc64.R0)
			a.Std(ppc64.R0, ppc64.SP, lrSaveOffset)
		}
		a.Stdu(ppc64.SP, ppc64.SP, -int16(f.size))
	}
	for _, r := range calleeSaved {
		p := Physical(r)
		if g.seen.reg(p) {
			a.Std(p, ppc64.SP, f.saveOffset(p))
		}
	}
	if g.seen.has(seenStack) {
		a.Addi(rFP, ppc64.SP, f.fpOffset())
	}
}

func (g *codegen) emitEpilogue() {
	a := g.asm
	f := g.frame
	a.Mr(ppc64.Ret, rR0)
	for _, r := range calleeSaved {
		p := Physical(r)
		if g.seen.reg(p) {
			a.Ld(p, ppc64.SP, f.saveOffset(p))
		}
	}
	if f.hasFrame {
		a.Addi(ppc64.SP, ppc64.SP, int16(f.size))
		if f.calls {
			a.Ld(ppc64.R0, ppc64.SP, lrSaveOffset)
			a.Mtlr(ppc64.R0)
		}
	}
	a.Blr()
}
