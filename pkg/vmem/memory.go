// Package vmem provides a sparse, byte-addressed 64-bit memory made of named regions.
//
// The bytecode interpreter and the PowerPC simulator share one Memory so that the same
// program can be run both ways against identical data.
package vmem

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Region is a contiguous mapped range.
type Region struct {
	Name     string
	Base     uint64
	Data     []byte
	Writable bool
}

// End returns the first address past the region.
func (r *Region) End() uint64 {
	return r.Base + uint64(len(r.Data))
}

func (r *Region) contains(addr uint64, n int) bool {
	return addr >= r.Base && addr+uint64(n) <= r.End() && addr+uint64(n) >= addr
}

// Memory is a set of non-overlapping regions accessed in one byte order.
type Memory struct {
	order   binary.ByteOrder
	regions []*Region
	last    *Region
}

// New creates an empty memory using the given byte order for multi-byte accesses.
func New(order binary.ByteOrder) *Memory {
	return &Memory{order: order}
}

// Order returns the byte order of multi-byte accesses.
func (m *Memory) Order() binary.ByteOrder {
	return m.order
}

// Map adds data at base. The slice is used directly, not copied.
func (m *Memory) Map(name string, base uint64, data []byte, writable bool) (*Region, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("map %s: empty region", name)
	}
	r := &Region{Name: name, Base: base, Data: data, Writable: writable}
	if r.End() < base {
		return nil, fmt.Errorf("map %s: region at 0x%x wraps the address space", name, base)
	}
	for _, o := range m.regions {
		if base < o.End() && o.Base < r.End() {
			return nil, fmt.Errorf("map %s: overlaps %s at 0x%x", name, o.Name, o.Base)
		}
	}
	m.regions = append(m.regions, r)
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].Base < m.regions[j].Base })
	return r, nil
}

// Alloc maps a zeroed writable region of size bytes at base.
func (m *Memory) Alloc(name string, base uint64, size int) (*Region, error) {
	return m.Map(name, base, make([]byte, size), true)
}

// Unmap removes the region starting at base.
func (m *Memory) Unmap(base uint64) bool {
	for i, r := range m.regions {
		if r.Base == base {
			m.regions = append(m.regions[:i], m.regions[i+1:]...)
			if m.last == r {
				m.last = nil
			}
			return true
		}
	}
	return false
}

// Regions returns the mapped regions in address order.
func (m *Memory) Regions() []*Region {
	return append([]*Region(nil), m.regions...)
}

// Lookup returns the region containing addr.
func (m *Memory) Lookup(addr uint64) (*Region, bool) {
	r, err := m.find(addr, 1, false)
	return r, err == nil
}

func (m *Memory) find(addr uint64, n int, write bool) (*Region, error) {
	r := m.last
	if r == nil || !r.contains(addr, n) {
		r = nil
		i := sort.Search(len(m.regions), func(i int) bool { return m.regions[i].End() > addr })
		if i < len(m.regions) && m.regions[i].contains(addr, n) {
			r = m.regions[i]
		}
	}
	if r == nil {
		return nil, &Fault{Addr: addr, Size: n, Write: write, Reason: "unmapped"}
	}
	if write && !r.Writable {
		return nil, &Fault{Addr: addr, Size: n, Write: write, Reason: "read-only region " + r.Name}
	}
	m.last = r
	return r, nil
}

// Slice returns the n bytes at addr without copying.
func (m *Memory) Slice(addr uint64, n int, write bool) ([]byte, error) {
	r, err := m.find(addr, n, write)
	if err != nil {
		return nil, err
	}
	off := addr - r.Base
	return r.Data[off : off+uint64(n)], nil
}

// Load reads a size-byte unsigned value (1, 2, 4 or 8) at addr.
func (m *Memory) Load(addr uint64, size int) (uint64, error) {
	b, err := m.Slice(addr, size, false)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(m.order.Uint16(b)), nil
	case 4:
		return uint64(m.order.Uint32(b)), nil
	case 8:
		return m.order.Uint64(b), nil
	}
	return 0, fmt.Errorf("load at 0x%x: invalid size %d", addr, size)
}

// Store writes the low size bytes of v at addr.
func (m *Memory) Store(addr uint64, size int, v uint64) error {
	b, err := m.Slice(addr, size, true)
	if err != nil {
		return err
	}
	switch size {
	case 1:
		b[0] = byte(v)
	case 2:
		m.order.PutUint16(b, uint16(v))
	case 4:
		m.order.PutUint32(b, uint32(v))
	case 8:
		m.order.PutUint64(b, v)
	default:
		return fmt.Errorf("store at 0x%x: invalid size %d", addr, size)
	}
	return nil
}

// Read copies n bytes starting at addr.
func (m *Memory) Read(addr uint64, n int) ([]byte, error) {
	b, err := m.Slice(addr, n, false)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Write copies data to addr.
func (m *Memory) Write(addr uint64, data []byte) error {
	b, err := m.Slice(addr, len(data), true)
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}
