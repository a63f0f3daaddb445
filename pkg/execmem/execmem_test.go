package execmem

import (
	"errors"
	"testing"
)

func TestHeapAddressesDoNotOverlap(t *testing.T) {
	h := NewHeap(0, 0)
	a, err := h.Allocate(20)
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Allocate(8)
	if err != nil {
		t.Fatal(err)
	}
	if a.Addr() != DefaultHeapBase {
		t.Errorf("first address = 0x%x, want 0x%x", a.Addr(), DefaultHeapBase)
	}
	if b.Addr() < a.Addr()+uint64(len(a.Bytes())) || b.Addr()%16 != 0 {
		t.Errorf("second address 0x%x overlaps or is misaligned", b.Addr())
	}
}

func TestHeapLimit(t *testing.T) {
	h := NewHeap(0x4000, 64)
	a, err := h.Allocate(48)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Allocate(32); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("over limit: err = %v, want out of memory", err)
	}
	if err := a.Free(); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(); !errors.Is(err, ErrFreed) {
		t.Errorf("double free: err = %v", err)
	}
	if _, err := h.Allocate(32); err != nil {
		t.Fatalf("after free: %v", err)
	}
	if h.Live() != 1 || h.Used() != 32 {
		t.Errorf("live = %d used = %d, want 1 and 32", h.Live(), h.Used())
	}
}

func TestHeapSeal(t *testing.T) {
	h := NewHeap(0, 0)
	b, _ := h.Allocate(4)
	if err := b.Seal(); err != nil {
		t.Fatal(err)
	}
	if err := b.Seal(); !errors.Is(err, ErrSealed) {
		t.Errorf("second seal: err = %v", err)
	}
	if _, err := h.Allocate(0); !errors.Is(err, ErrBadSize) {
		t.Errorf("zero size: err = %v", err)
	}
}
