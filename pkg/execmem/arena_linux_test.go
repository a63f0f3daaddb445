//go:build linux

package execmem

import (
	"errors"
	"testing"
)

func TestArena(t *testing.T) {
	a, err := NewArena(1 << 16)
	if err != nil {
		t.Skipf("mmap unavailable: %v", err)
	}
	defer a.Close()

	b, err := a.Allocate(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Bytes()) != 100 {
		t.Errorf("len = %d, want 100", len(b.Bytes()))
	}
	if uintptr(b.Addr()) != a.BaseAddress() {
		t.Errorf("addr = 0x%x, want arena base 0x%x", b.Addr(), a.BaseAddress())
	}
	copy(b.Bytes(), []byte{0x4e, 0x80, 0x00, 0x20})
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := b.Free(); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if a.Used() != 0 {
		t.Errorf("used = %d after freeing every buffer", a.Used())
	}
	if _, err := a.Allocate(1 << 20); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("oversized allocation: err = %v", err)
	}
}
