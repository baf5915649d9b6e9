package ring

// BufferSource supplies replacement memory when the current region is
// exhausted. Acquire must return a region of at least words words or an
// error.
type BufferSource interface {
	Acquire(words int) (Region, error)
}

// BufferSourceFunc adapts a function to BufferSource.
type BufferSourceFunc func(words int) (Region, error)

// Acquire calls f(words).
func (f BufferSourceFunc) Acquire(words int) (Region, error) { return f(words) }

// Recycler is implemented by sources that want to know when the
// allocator has moved on to a new cycle.
type Recycler interface {
	Recycle()
}

// HeapSource returns a BufferSource that grants CPU memory at synthetic
// addresses starting at base. Each grant is at least minWords words.
// It is meant for tests and simulation.
func HeapSource(base uint64, minWords int) BufferSource {
	next := base
	return BufferSourceFunc(func(words int) (Region, error) {
		n := max(words, minWords)
		r := Region{Addr: next, Mem: make([]uint32, n)}
		next += alignUp(uint64(n)*4, regionAlignment)
		return r, nil
	})
}

// NewRegions returns n zeroed regions of words words each, at consecutive
// synthetic addresses starting at base.
func NewRegions(n, words int, base uint64) []Region {
	regions := make([]Region, n)
	stride := alignUp(uint64(words)*4, regionAlignment)
	for i := range regions {
		regions[i] = Region{Addr: base + uint64(i)*stride, Mem: make([]uint32, words)}
	}
	return regions
}
