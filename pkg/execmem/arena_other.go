//go:build !linux

package execmem

import (
	"errors"
	"fmt"
	"runtime"
)

// DefaultArenaSize is used when NewArena is given a non-positive size.
const DefaultArenaSize = 16 * 1024 * 1024

// Arena is only available on Linux.
type Arena struct{}

// NewArena reports that executable memory is not supported on this platform.
func NewArena(size int) (*Arena, error) {
	return nil, fmt.Errorf("code arena on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}

func (a *Arena) Allocate(size int) (Buffer, error) {
	return nil, fmt.Errorf("allocate %d bytes: %w", size, errors.ErrUnsupported)
}

func (a *Arena) BaseAddress() uintptr { return 0 }
func (a *Arena) Used() int            { return 0 }
func (a *Arena) Capacity() int        { return 0 }
func (a *Arena) Close() error         { return nil }
