package validate

import (
	"fmt"
	"strings"

	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/shaderbin"
)

// ErrorBits is a set of validation failures for one slot.
type ErrorBits uint32

// Validation failures.
const (
	// ErrorNotBound: the shader reads the slot but no set call covered it.
	ErrorNotBound ErrorBits = 1 << iota

	// ErrorNotMapped: the descriptor's memory range is not mapped.
	ErrorNotMapped

	// ErrorProtectionMismatch: the mapping lacks the access the category
	// needs.
	ErrorProtectionMismatch

	// ErrorInvalidStride: the buffer stride is illegal for the category.
	ErrorInvalidStride

	// ErrorInvalidElementCount: the record count is zero or too large.
	ErrorInvalidElementCount

	// ErrorWrongMemoryType: read-only memory bound for writing.
	ErrorWrongMemoryType

	// ErrorNotInitialized: the descriptor is all zero.
	ErrorNotInitialized

	// ErrorInvalidFormat: the data format is unknown or missing.
	ErrorInvalidFormat

	// ErrorInvalidType: the descriptor kind cannot be bound to the
	// category.
	ErrorInvalidType
)

var errorNames = []struct {
	bit  ErrorBits
	name string
}{
	{ErrorNotBound, "notbound"},
	{ErrorNotMapped, "notmapped"},
	{ErrorProtectionMismatch, "protection"},
	{ErrorInvalidStride, "stride"},
	{ErrorInvalidElementCount, "elementcount"},
	{ErrorWrongMemoryType, "memorytype"},
	{ErrorNotInitialized, "uninitialized"},
	{ErrorInvalidFormat, "format"},
	{ErrorInvalidType, "type"},
}

// Has reports whether every bit of b2 is set in b.
func (b ErrorBits) Has(b2 ErrorBits) bool { return b&b2 == b2 }

// String lists the set bits separated by '|'.
func (b ErrorBits) String() string {
	if b == 0 {
		return "ok"
	}
	var parts []string
	for _, e := range errorNames {
		if b&e.bit != 0 {
			parts = append(parts, e.name)
			b &^= e.bit
		}
	}
	if b != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(b)))
	}
	return strings.Join(parts, "|")
}

// Error is the panic value of a Layer without a callback.
type Error struct {
	Stage    shaderbin.Stage
	Category offsets.Category
	Slot     int
	Bits     ErrorBits
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate: %v %v slot %d: %v", e.Stage, e.Category, e.Slot, e.Bits)
}
