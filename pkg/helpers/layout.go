package helpers

import (
	"bpfjit/pkg/ppc64"
)

const (
	entryStride = 16
	trapWord    = 0x7fe00008 // tw 31,0,0
)

// Image is the memory a placed helper table occupies in a simulated address space.
type Image struct {
	Base    uint64
	Data    []byte
	Entries map[uint64]Func
}

// Install assigns every helper an address inside a block starting at base and returns the
// updated table together with the block's contents. Each helper gets a trapping entry stub;
// on ELFv1 targets a descriptor {entry, toc, 0} follows and becomes the helper's Addr.
func (t *Table) Install(target ppc64.Target, base, toc uint64) (*Table, *Image) {
	list := t.List()
	n := len(list)
	size := n * entryStride
	if target.FunctionDescriptors() {
		size += n * target.DescriptorSize()
	}
	if size == 0 {
		size = entryStride
	}
	img := &Image{Base: base, Data: make([]byte, size), Entries: make(map[uint64]Func, n)}
	for off := 0; off+ppc64.InstrSize <= n*entryStride; off += ppc64.InstrSize {
		target.Order.PutUint32(img.Data[off:], trapWord)
	}
	placed := NewTable()
	for i, h := range list {
		entry := base + uint64(i*entryStride)
		h.Addr = entry
		if target.FunctionDescriptors() {
			off := n*entryStride + i*target.DescriptorSize()
			target.Order.PutUint64(img.Data[off:], entry)
			target.Order.PutUint64(img.Data[off+8:], toc)
			h.Addr = base + uint64(off)
		}
		if h.Fn != nil {
			img.Entries[entry] = h.Fn
		}
		placed.byID[h.ID] = h
	}
	return placed, img
}
