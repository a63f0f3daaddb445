//go:build linux

package execmem

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultArenaSize is used when NewArena is given a non-positive size.
const DefaultArenaSize = 16 * 1024 * 1024

// Arena manages an mmap'd region from which executable buffers are carved. Buffers are
// page aligned so each can be switched from read-write to read-execute on its own.
type Arena struct {
	mu       sync.Mutex
	mem      []byte
	used     int
	pageSize int
	live     int
}

// NewArena maps size bytes of anonymous read-write memory.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		size = DefaultArenaSize
	}
	page := unix.Getpagesize()
	size = roundUp(size, page)
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap code arena: %w", err)
	}
	return &Arena{mem: mem, pageSize: page}, nil
}

func roundUp(n, to int) int {
	return (n + to - 1) / to * to
}

// Allocate reserves a page-aligned chunk of at least size bytes.
func (a *Arena) Allocate(size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("allocate %d bytes: %w", size, ErrBadSize)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return nil, fmt.Errorf("allocate %d bytes: arena closed: %w", size, ErrOutOfMemory)
	}
	n := roundUp(size, a.pageSize)
	if a.used+n > len(a.mem) {
		return nil, fmt.Errorf("allocate %d bytes: need %d, have %d: %w", size, n, len(a.mem)-a.used, ErrOutOfMemory)
	}
	chunk := a.mem[a.used : a.used+n : a.used+n]
	a.used += n
	a.live++
	return &arenaBuffer{arena: a, chunk: chunk, size: size}, nil
}

// BaseAddress returns the address of the mapping.
func (a *Arena) BaseAddress() uintptr {
	if len(a.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&a.mem[0]))
}

// Used returns the number of bytes handed out.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Capacity returns the size of the mapping.
func (a *Arena) Capacity() int {
	return len(a.mem)
}

// Close unmaps the arena. Buffers allocated from it must no longer be used.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mem == nil {
		return nil
	}
	err := unix.Munmap(a.mem)
	a.mem = nil
	a.used = 0
	a.live = 0
	return err
}

func (a *Arena) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live--
	// Space is reclaimed once every buffer has been freed.
	if a.live == 0 && a.mem != nil {
		a.used = 0
	}
}

type arenaBuffer struct {
	arena  *Arena
	chunk  []byte
	size   int
	sealed bool
	freed  bool
}

func (b *arenaBuffer) Bytes() []byte { return b.chunk[:b.size] }

func (b *arenaBuffer) Addr() uint64 {
	return uint64(uintptr(unsafe.Pointer(&b.chunk[0])))
}

func (b *arenaBuffer) Seal() error {
	if b.freed {
		return ErrFreed
	}
	if b.sealed {
		return ErrSealed
	}
	if err := unix.Mprotect(b.chunk, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("failed to mprotect code buffer: %w", err)
	}
	b.sealed = true
	return nil
}

func (b *arenaBuffer) Free() error {
	if b.freed {
		return ErrFreed
	}
	if b.sealed {
		if err := unix.Mprotect(b.chunk, unix.PROT_READ|unix.PROT_WRITE); err != nil {
			return fmt.Errorf("failed to mprotect code buffer: %w", err)
		}
		clear(b.chunk)
	}
	b.freed = true
	b.arena.release()
	return nil
}
