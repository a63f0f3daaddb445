package jit

import (
	"errors"
	"fmt"

	"bpfjit/pkg/bpf"
)

// Failure kinds. A *CompileError carries one of these as its Kind and matches it with
// errors.Is.
var (
	ErrUnsupportedOpcode      = errors.New("unsupported opcode")
	ErrDivideByZero           = errors.New("division by constant zero")
	ErrHelperNotJITCompatible = errors.New("helper not JIT compatible")
	ErrHelperUnresolved       = errors.New("helper unresolved")
	ErrAllocationFailed       = errors.New("code allocation failed")
	ErrInvalidRegister        = errors.New("invalid register")
	ErrJumpOutOfRange         = errors.New("jump target outside program")

	ErrDisabled     = errors.New("jit disabled")
	ErrEmptyProgram = errors.New("empty program")
	ErrNotConverged = errors.New("code size did not converge")
)

// CompileError reports why a program was not compiled. Index is the instruction slot the
// failure belongs to, or -1.
type CompileError struct {
	Kind     error
	Index    int
	Opcode   bpf.Opcode
	HelperID int32
	Err      error
}

func (e *CompileError) Error() string {
	msg := e.Kind.Error()
	switch {
	case errors.Is(e.Kind, ErrHelperNotJITCompatible), errors.Is(e.Kind, ErrHelperUnresolved):
		msg = fmt.Sprintf("%s: helper %d at insn %d", msg, e.HelperID, e.Index)
	case e.Index >= 0:
		msg = fmt.Sprintf("%s: insn %d (opcode 0x%02x)", msg, e.Index, uint8(e.Opcode))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *CompileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func insnError(kind error, index int, ins bpf.Instruction) *CompileError {
	return &CompileError{Kind: kind, Index: index, Opcode: ins.Code}
}

func helperError(kind error, index int, id int32) *CompileError {
	return &CompileError{Kind: kind, Index: index, Opcode: bpf.OpcodeCall, HelperID: id}
}

// IsCompileError checks if an error is a compile error
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
