package ring

import (
	"errors"
	"fmt"

	"github.com/gogpu/resbind"
)

// MaxRegions is the largest number of regions an Allocator cycles through.
const MaxRegions = 4

// Allocator errors.
var (
	// ErrRegionCount is returned by New for fewer than 1 or more than
	// MaxRegions regions.
	ErrRegionCount = errors.New("ring: region count out of range")

	// ErrOutOfMemory is returned by Reserve when neither the current
	// region nor the buffer source can satisfy a request.
	ErrOutOfMemory = errors.New("ring: out of memory")
)

// Region is a block of graphics-visible memory: its GPU address and a CPU
// view of its words.
type Region struct {
	Addr uint64
	Mem  []uint32
}

// SizeInWords returns the region size.
func (r Region) SizeInWords() int { return len(r.Mem) }

// Allocation is a reserved sub-range of a region.
type Allocation struct {
	Addr uint64   // GPU address of Mem[0]
	Mem  []uint32 // CPU view, len equals the reserved size
}

// Config describes the regions an Allocator owns.
type Config struct {
	// Regions are cycled through by Swap. 1 to MaxRegions entries.
	Regions []Region

	// GlobalTableAddr is the address of the global internal resource
	// table. It is reported, never written.
	GlobalTableAddr uint64
}

// Allocator is the resource buffer ring.
//
// Allocator is not safe for concurrent use; each binding engine owns one.
type Allocator struct {
	regions     []Region
	current     int
	active      Region // bounds Reserve allocates from
	cursor      int    // words used in active
	overflowed  bool
	src         BufferSource
	overflows   uint64
	globalTable uint64
}

// New creates an allocator over cfg.Regions with region 0 current. src is
// consulted on overflow and may be nil.
func New(cfg Config, src BufferSource) (*Allocator, error) {
	n := len(cfg.Regions)
	if n < 1 || n > MaxRegions {
		return nil, fmt.Errorf("%w: %d, want 1..%d", ErrRegionCount, n, MaxRegions)
	}

	regions := make([]Region, n)
	copy(regions, cfg.Regions)

	resbind.Logger().Info("ring: allocator created",
		"regions", n,
		"regionWords", len(regions[0].Mem),
		"overflowSource", src != nil)

	return &Allocator{
		regions:     regions,
		active:      regions[0],
		src:         src,
		globalTable: cfg.GlobalTableAddr,
	}, nil
}

// Reserve returns words words of the current region and advances the
// cursor. If the region is exhausted, the buffer source is asked for a
// region of at least words words, which becomes current until the next
// Swap.
func (a *Allocator) Reserve(words int) (Allocation, error) {
	if words < 0 {
		panic(fmt.Sprintf("ring: negative reservation %d", words))
	}

	if a.cursor+words <= len(a.active.Mem) {
		return a.take(words), nil
	}

	if a.src == nil {
		return Allocation{}, fmt.Errorf("%w: %d words requested, %d free, no buffer source",
			ErrOutOfMemory, words, a.Remaining())
	}

	a.overflows++
	resbind.Logger().Warn("ring: region exhausted, acquiring overflow",
		"requested", words,
		"free", a.Remaining(),
		"overflows", a.overflows)

	r, err := a.src.Acquire(words)
	if err != nil {
		return Allocation{}, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	if len(r.Mem) < words {
		return Allocation{}, fmt.Errorf("%w: source granted %d of %d words",
			ErrOutOfMemory, len(r.Mem), words)
	}

	a.active = r
	a.cursor = 0
	a.overflowed = true
	return a.take(words), nil
}

func (a *Allocator) take(words int) Allocation {
	start := a.cursor
	a.cursor += words
	return Allocation{
		Addr: a.active.Addr + uint64(start)*4,
		Mem:  a.active.Mem[start:a.cursor:a.cursor],
	}
}

// Swap makes the next region current and resets its cursor. Overflow
// regions from the finished cycle are dropped and, if the source
// implements Recycler, handed back to it.
func (a *Allocator) Swap() {
	a.current = (a.current + 1) % len(a.regions)
	a.active = a.regions[a.current]
	a.cursor = 0

	if rc, ok := a.src.(Recycler); ok {
		rc.Recycle()
	}
	if a.overflowed {
		resbind.Logger().Debug("ring: overflow region released", "region", a.current)
		a.overflowed = false
	}
}

// Current returns the index of the current configured region.
func (a *Allocator) Current() int { return a.current }

// RegionCount returns the number of configured regions.
func (a *Allocator) RegionCount() int { return len(a.regions) }

// Used returns the words reserved from the active region this cycle.
func (a *Allocator) Used() int { return a.cursor }

// Remaining returns the words left in the active region.
func (a *Allocator) Remaining() int { return len(a.active.Mem) - a.cursor }

// Overflowing reports whether Reserve is allocating from a region granted
// by the buffer source.
func (a *Allocator) Overflowing() bool { return a.overflowed }

// OverflowCount returns how many times the buffer source was consulted.
func (a *Allocator) OverflowCount() uint64 { return a.overflows }

// GlobalTableAddr returns the configured global internal table address.
func (a *Allocator) GlobalTableAddr() uint64 { return a.globalTable }
