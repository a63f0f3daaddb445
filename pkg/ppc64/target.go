package ppc64

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ABI selects the calling convention used for calls into and out of generated code.
type ABI int

const (
	// ELFv1 calls through function descriptors {entry, toc, env}.
	ELFv1 ABI = 1
	// ELFv2 calls entry points directly with the callee address in r12.
	ELFv2 ABI = 2
)

func (a ABI) String() string {
	switch a {
	case ELFv1:
		return "ELFv1"
	case ELFv2:
		return "ELFv2"
	default:
		return "unknown"
	}
}

// Target is a PowerPC 64-bit code generation target: byte order plus ABI.
type Target struct {
	Name  string
	Order binary.ByteOrder
	ABI   ABI
}

var (
	// BigEndian is the classic big-endian ppc64 target using function descriptors.
	BigEndian = Target{Name: "ppc64", Order: binary.BigEndian, ABI: ELFv1}
	// LittleEndian is the ppc64le target using direct entry points.
	LittleEndian = Target{Name: "ppc64le", Order: binary.LittleEndian, ABI: ELFv2}
)

// ParseTarget parses a target name such as "ppc64" or "ppc64le".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppc64", "ppc64be", "powerpc64", "elfv1":
		return BigEndian, nil
	case "ppc64le", "powerpc64le", "elfv2", "":
		return LittleEndian, nil
	default:
		return Target{}, fmt.Errorf("unsupported target: %s (supported: ppc64, ppc64le)", s)
	}
}

func (t Target) String() string {
	return t.Name
}

// IsBigEndian reports whether instruction words and data are stored most significant byte first.
func (t Target) IsBigEndian() bool {
	return t.Order == binary.BigEndian
}

// FunctionDescriptors reports whether callable symbols are descriptors rather than code addresses.
func (t Target) FunctionDescriptors() bool {
	return t.ABI == ELFv1
}

// StackFrameMinSize is the size of the fixed frame header every frame must carry.
func (t Target) StackFrameMinSize() int32 {
	if t.ABI == ELFv1 {
		return 112
	}
	return 32
}

// DescriptorSize is the size of the function descriptor that precedes generated code.
func (t Target) DescriptorSize() int {
	if t.ABI == ELFv1 {
		return 24
	}
	return 0
}
