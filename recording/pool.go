package recording

// WordsRef references a run of words in a WordPool.
// The zero value is an empty run.
type WordsRef struct {
	Offset uint32
	Len    uint32
}

// IsEmpty reports whether the run holds no words.
func (r WordsRef) IsEmpty() bool {
	return r.Len == 0
}

// WordPool stores user-data payloads referenced by recording commands.
// All runs share one backing slice; Add copies so the caller may reuse its
// slice.
//
// WordPool is not safe for concurrent use.
type WordPool struct {
	words []uint32
}

// NewWordPool creates an empty pool with pre-allocated capacity.
func NewWordPool() *WordPool {
	return &WordPool{words: make([]uint32, 0, 256)}
}

// Add copies words into the pool and returns their reference.
func (p *WordPool) Add(words []uint32) WordsRef {
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	ref := WordsRef{Offset: uint32(len(p.words)), Len: uint32(len(words))}
	p.words = append(p.words, words...)
	return ref
}

// Get returns the words for ref, or nil if ref is outside the pool.
// The returned slice aliases the pool and must not be modified.
func (p *WordPool) Get(ref WordsRef) []uint32 {
	end := uint64(ref.Offset) + uint64(ref.Len)
	if end > uint64(len(p.words)) {
		return nil
	}
	return p.words[ref.Offset:end:end]
}

// Len returns the total number of pooled words.
func (p *WordPool) Len() int {
	return len(p.words)
}

// Clone returns an independent copy of the pool.
func (p *WordPool) Clone() *WordPool {
	c := &WordPool{words: make([]uint32, len(p.words))}
	copy(c.words, p.words)
	return c
}

// Clear empties the pool, keeping its capacity.
func (p *WordPool) Clear() {
	p.words = p.words[:0]
}
