package validate

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
)

// Memory map errors.
var (
	// ErrOverlap is returned when a new mapping overlaps an existing one.
	ErrOverlap = errors.New("validate: mapping overlaps existing range")

	// ErrNotMapped is returned by Unmap for an unknown address.
	ErrNotMapped = errors.New("validate: address not mapped")

	// ErrEmptyRange is returned for a zero-sized mapping.
	ErrEmptyRange = errors.New("validate: empty range")
)

// Protection is the access a mapping grants the GPU.
type Protection uint8

// Access rights.
const (
	ProtRead Protection = 1 << iota
	ProtWrite

	ProtReadWrite = ProtRead | ProtWrite
)

func (p Protection) String() string {
	switch p {
	case 0:
		return "none"
	case ProtRead:
		return "r"
	case ProtWrite:
		return "w"
	default:
		return "rw"
	}
}

// ProtectionFromUsage derives GPU access from buffer usage flags.
func ProtectionFromUsage(usage gputypes.BufferUsage) Protection {
	var p Protection
	if usage.Contains(gputypes.BufferUsageUniform) ||
		usage.Contains(gputypes.BufferUsageVertex) ||
		usage.Contains(gputypes.BufferUsageStorage) ||
		usage.Contains(gputypes.BufferUsageCopySrc) {
		p |= ProtRead
	}
	if usage.Contains(gputypes.BufferUsageStorage) {
		p |= ProtWrite
	}
	return p
}

type mapping struct {
	addr, end uint64 // [addr, end)
	prot      Protection
}

// MemoryMap records which address ranges are mapped and with which
// access. It is safe for concurrent use.
type MemoryMap struct {
	mu     sync.RWMutex
	ranges []mapping // sorted by addr, disjoint
}

// NewMemoryMap returns an empty map.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{}
}

// Map adds [addr, addr+size) with protection prot.
func (m *MemoryMap) Map(addr, size uint64, prot Protection) error {
	if size == 0 {
		return fmt.Errorf("%w: at %#x", ErrEmptyRange, addr)
	}
	r := mapping{addr: addr, end: addr + size, prot: prot}

	m.mu.Lock()
	defer m.mu.Unlock()

	i, _ := slices.BinarySearchFunc(m.ranges, addr, func(x mapping, a uint64) int {
		switch {
		case x.addr < a:
			return -1
		case x.addr > a:
			return 1
		}
		return 0
	})
	if i > 0 && m.ranges[i-1].end > r.addr {
		return fmt.Errorf("%w: [%#x, %#x)", ErrOverlap, r.addr, r.end)
	}
	if i < len(m.ranges) && m.ranges[i].addr < r.end {
		return fmt.Errorf("%w: [%#x, %#x)", ErrOverlap, r.addr, r.end)
	}
	m.ranges = slices.Insert(m.ranges, i, r)
	return nil
}

// MapBuffer maps a buffer with the protection its usage implies.
func (m *MemoryMap) MapBuffer(addr, size uint64, usage gputypes.BufferUsage) error {
	return m.Map(addr, size, ProtectionFromUsage(usage))
}

// Unmap removes the mapping starting at addr.
func (m *MemoryMap) Unmap(addr uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.ranges, func(r mapping) bool { return r.addr == addr })
	if i < 0 {
		return fmt.Errorf("%w: %#x", ErrNotMapped, addr)
	}
	m.ranges = slices.Delete(m.ranges, i, i+1)
	return nil
}

// Check returns the protection of the mapping containing the whole of
// [addr, addr+size). ok is false if no single mapping does.
func (m *MemoryMap) Check(addr, size uint64) (prot Protection, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// First mapping starting after addr; the candidate is the one before.
	i, _ := slices.BinarySearchFunc(m.ranges, addr+1, func(x mapping, a uint64) int {
		if x.addr < a {
			return -1
		}
		return 1
	})
	if i == 0 {
		return 0, false
	}
	r := m.ranges[i-1]
	if addr < r.addr || addr+size > r.end {
		return 0, false
	}
	return r.prot, true
}

// Len returns the number of mappings.
func (m *MemoryMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ranges)
}
