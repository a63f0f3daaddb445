package jit

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"bpfjit/pkg/execmem"
	"bpfjit/pkg/ppc64"
)

// Image is the position-independent part of a compiled program: everything needed to
// install it again at another address. Branches are relative and helper addresses are
// absolute, so the code words are reusable as long as the helper layout is unchanged; only
// the ELFv1 descriptor has to be rewritten.
type Image struct {
	Target    string   `msgpack:"target"`
	Code      []byte   `msgpack:"code"`
	Addrs     []uint32 `msgpack:"addrs"`
	Seen      uint32   `msgpack:"seen"`
	FrameSize int32    `msgpack:"frame_size"`
}

// Export extracts the relocatable image of p.
func (p *CompiledProgram) Export() Image {
	return Image{
		Target:    p.Target.Name,
		Code:      slices.Clone(p.Code()),
		Addrs:     slices.Clone(p.Addrs),
		Seen:      p.Seen,
		FrameSize: p.FrameSize,
	}
}

// Install places img in a new buffer from alloc, writes the descriptor for opts.TOC and
// seals it.
func Install(img Image, alloc execmem.Allocator, opts Options) (*CompiledProgram, error) {
	target, err := ppc64.ParseTarget(img.Target)
	if err != nil {
		return nil, err
	}
	if len(img.Code) == 0 || len(img.Code)%ppc64.InstrSize != 0 {
		return nil, fmt.Errorf("image: code length %d is not a whole number of instructions", len(img.Code))
	}
	header := target.DescriptorSize()
	buf, err := alloc.Allocate(header + len(img.Code))
	if err != nil {
		return nil, &CompileError{Kind: ErrAllocationFailed, Index: -1, Err: err}
	}
	data := buf.Bytes()
	copy(data[header:], img.Code)

	p := &CompiledProgram{
		ID:         uuid.New(),
		Target:     target,
		Buffer:     buf,
		Image:      data,
		HeaderSize: header,
		Words:      len(img.Code) / ppc64.InstrSize,
		Addrs:      slices.Clone(img.Addrs),
		Seen:       img.Seen,
		FrameSize:  img.FrameSize,
		Entry:      buf.Addr(),
	}
	c := &Compiler{opts: opts}
	if err := c.install(p); err != nil {
		_ = buf.Free()
		return nil, err
	}
	return p, nil
}
