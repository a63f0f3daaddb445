package vmem

import (
	"errors"
	"fmt"
)

// Fault describes an access to unmapped or read-only memory.
type Fault struct {
	Addr   uint64
	Size   int
	Write  bool
	Reason string
}

func (f *Fault) Error() string {
	kind := "read"
	if f.Write {
		kind = "write"
	}
	return fmt.Sprintf("memory fault: %s of %d bytes at 0x%x: %s", kind, f.Size, f.Addr, f.Reason)
}

// IsFault reports whether err is or wraps a *Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
