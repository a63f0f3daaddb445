// Package helpers describes the native functions compiled programs may call.
package helpers

import (
	"fmt"
	"sort"
)

// Well-known helper IDs.
const (
	KtimeGetNS        int32 = 5
	GetPrandomU32     int32 = 7
	GetSMPProcessorID int32 = 8
	SKBStoreBytes     int32 = 9
	L3CsumReplace     int32 = 10
	GetCurrentPIDTGID int32 = 14
)

// Func is the Go implementation of a helper. It receives R1..R5 and returns R0.
type Func func(args [5]uint64) uint64

// Helper is one entry of the helper table.
//
// Addr is the value generated code loads to reach the helper: the function descriptor
// address on ELFv1 targets and the entry point on ELFv2 targets. JITCompatible is false for
// helpers that inspect the caller's frame and therefore only work from the interpreter.
type Helper struct {
	ID            int32
	Name          string
	Addr          uint64
	JITCompatible bool
	Fn            Func
}

// Resolver looks helpers up by ID.
type Resolver interface {
	Resolve(id int32) (Helper, bool)
}

// Table is a Resolver backed by a map. It is safe for concurrent readers once built.
type Table struct {
	byID map[int32]Helper
}

// NewTable builds a table from helpers. Later duplicates replace earlier ones.
func NewTable(hs ...Helper) *Table {
	t := &Table{byID: make(map[int32]Helper, len(hs))}
	for _, h := range hs {
		t.byID[h.ID] = h
	}
	return t
}

// Register adds h, failing if the ID is taken.
func (t *Table) Register(h Helper) error {
	if old, ok := t.byID[h.ID]; ok {
		return fmt.Errorf("helper %d already registered as %s", h.ID, old.Name)
	}
	t.byID[h.ID] = h
	return nil
}

// Resolve returns the helper registered under id.
func (t *Table) Resolve(id int32) (Helper, bool) {
	if t == nil {
		return Helper{}, false
	}
	h, ok := t.byID[id]
	return h, ok
}

// Call runs the Go implementation of helper id. ok is false when the helper is unknown or
// has no implementation.
func (t *Table) Call(id int32, args [5]uint64) (ret uint64, ok bool) {
	h, found := t.Resolve(id)
	if !found || h.Fn == nil {
		return 0, false
	}
	return h.Fn(args), true
}

// List returns all helpers ordered by ID.
func (t *Table) List() []Helper {
	if t == nil {
		return nil
	}
	out := make([]Helper, 0, len(t.byID))
	for _, h := range t.byID {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered helpers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}
