package vmem

import (
	"encoding/binary"
	"testing"
)

func TestLoadStoreOrder(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		m := New(order)
		r, err := m.Alloc("data", 0x1000, 64)
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		if err := m.Store(0x1008, 8, 0x0102030405060708); err != nil {
			t.Fatalf("Store: %v", err)
		}
		if got := order.Uint64(r.Data[8:]); got != 0x0102030405060708 {
			t.Errorf("%v: stored bytes decode to 0x%x", order, got)
		}
		for _, size := range []int{1, 2, 4, 8} {
			v, err := m.Load(0x1008, size)
			if err != nil {
				t.Fatalf("Load(%d): %v", size, err)
			}
			var want uint64
			switch size {
			case 1:
				want = uint64(r.Data[8])
			case 2:
				want = uint64(order.Uint16(r.Data[8:]))
			case 4:
				want = uint64(order.Uint32(r.Data[8:]))
			case 8:
				want = order.Uint64(r.Data[8:])
			}
			if v != want {
				t.Errorf("%v Load(%d) = 0x%x, want 0x%x", order, size, v, want)
			}
		}
	}
}

func TestFaults(t *testing.T) {
	m := New(binary.LittleEndian)
	if _, err := m.Map("ro", 0x2000, make([]byte, 16), false); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if _, err := m.Load(0x3000, 4); !IsFault(err) {
		t.Errorf("unmapped load: err = %v, want fault", err)
	}
	if err := m.Store(0x2000, 4, 1); !IsFault(err) {
		t.Errorf("read-only store: err = %v, want fault", err)
	}
	if _, err := m.Load(0x200e, 4); !IsFault(err) {
		t.Errorf("straddling load: err = %v, want fault", err)
	}
	if _, err := m.Load(0x200c, 4); err != nil {
		t.Errorf("in-bounds load: %v", err)
	}
}

func TestMapOverlap(t *testing.T) {
	m := New(binary.BigEndian)
	if _, err := m.Alloc("a", 0x1000, 0x100); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Alloc("b", 0x10f0, 0x100); err == nil {
		t.Fatal("overlapping map succeeded")
	}
	if _, err := m.Alloc("c", 0x1100, 0x100); err != nil {
		t.Fatalf("adjacent map: %v", err)
	}
	if !m.Unmap(0x1000) {
		t.Fatal("Unmap failed")
	}
	if _, ok := m.Lookup(0x1010); ok {
		t.Error("lookup after unmap succeeded")
	}
	if r, ok := m.Lookup(0x1180); !ok || r.Name != "c" {
		t.Errorf("Lookup(0x1180) = %v, %v", r, ok)
	}
}
