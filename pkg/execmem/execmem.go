// Package execmem provides the memory compiled programs are written into.
package execmem

import "errors"

// Buffer is a region handed out by an Allocator. It is writable until Seal is called.
type Buffer interface {
	// Bytes returns the writable contents.
	Bytes() []byte
	// Addr is the address the first byte will have when the code runs.
	Addr() uint64
	// Seal makes the buffer executable and read-only.
	Seal() error
	// Free returns the buffer to its allocator.
	Free() error
}

// Allocator hands out code buffers.
type Allocator interface {
	Allocate(size int) (Buffer, error)
}

var (
	ErrOutOfMemory = errors.New("out of code memory")
	ErrSealed      = errors.New("buffer already sealed")
	ErrFreed       = errors.New("buffer already freed")
	ErrBadSize     = errors.New("invalid allocation size")
)
