package execmem

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// DefaultHeapBase is the first synthetic address a Heap hands out.
const DefaultHeapBase uint64 = 0x1000_0000

// Heap allocates buffers from Go memory and assigns them synthetic, non-overlapping
// addresses. Code produced into a Heap is meant to be inspected, cached or simulated rather
// than executed by the host.
type Heap struct {
	mu    sync.Mutex
	next  uint64
	limit int
	used  int
	live  map[uint64]*heapBuffer
}

// NewHeap creates a heap whose buffers start at base. limit caps the bytes live at once;
// zero means unlimited.
func NewHeap(base uint64, limit int) *Heap {
	if base == 0 {
		base = DefaultHeapBase
	}
	return &Heap{next: base, limit: limit, live: make(map[uint64]*heapBuffer)}
}

// Allocate returns a zeroed buffer of size bytes aligned to 16 bytes.
func (h *Heap) Allocate(size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, ErrBadSize)
	}
	n, err := safecast.Conv[uint64](size)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, ErrBadSize)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.limit > 0 && h.used+size > h.limit {
		return nil, fmt.Errorf("allocate %d bytes: need %d, have %d: %w", size, size, h.limit-h.used, ErrOutOfMemory)
	}
	b := &heapBuffer{heap: h, addr: h.next, data: make([]byte, size)}
	h.next += (n + 15) &^ 15
	h.used += size
	h.live[b.addr] = b
	return b, nil
}

// Used returns the number of bytes in live buffers.
func (h *Heap) Used() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.used
}

// Live returns the number of buffers not yet freed.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

func (h *Heap) release(b *heapBuffer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.live, b.addr)
	h.used -= len(b.data)
}

type heapBuffer struct {
	heap   *Heap
	addr   uint64
	data   []byte
	sealed bool
	freed  bool
}

func (b *heapBuffer) Bytes() []byte { return b.data }
func (b *heapBuffer) Addr() uint64  { return b.addr }

func (b *heapBuffer) Seal() error {
	if b.freed {
		return ErrFreed
	}
	if b.sealed {
		return ErrSealed
	}
	b.sealed = true
	return nil
}

// Sealed reports whether Seal has been called.
func (b *heapBuffer) Sealed() bool { return b.sealed }

func (b *heapBuffer) Free() error {
	if b.freed {
		return ErrFreed
	}
	b.freed = true
	b.heap.release(b)
	return nil
}
