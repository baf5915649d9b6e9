package bind

import (
	"fmt"

	"github.com/gogpu/resbind/ring"
)

// PipelineIdle proves that the GPU has drained the work of one engine.
// Only Engine.WaitIdle creates valid tokens, and a token goes stale as
// soon as that engine submits more work.
type PipelineIdle struct {
	e      *Engine
	submit uint64
}

// Valid reports whether the token still holds.
func (p PipelineIdle) Valid() bool {
	return p.e != nil && p.e.submits == p.submit
}

// GlobalTable is the global internal resource table shared by every
// stage. In-flight GPU work may read it, so writes require a PipelineIdle.
type GlobalTable struct {
	r ring.Region
}

// NewGlobalTable wraps r as the global table.
func NewGlobalTable(r ring.Region) *GlobalTable {
	return &GlobalTable{r: r}
}

// Addr returns the GPU address of the table.
func (g *GlobalTable) Addr() uint64 { return g.r.Addr }

// SizeInWords returns the table size.
func (g *GlobalTable) SizeInWords() int { return len(g.r.Mem) }

// Write copies words to the table starting at word index. It panics if
// idle is not valid or the range does not fit.
func (g *GlobalTable) Write(idle PipelineIdle, index int, words []uint32) {
	if !idle.Valid() {
		panic("bind: GlobalTable.Write without a valid PipelineIdle")
	}
	if index < 0 || index+len(words) > len(g.r.Mem) {
		panic(fmt.Sprintf("bind: GlobalTable.Write [%d, %d) out of range %d",
			index, index+len(words), len(g.r.Mem)))
	}
	copy(g.r.Mem[index:], words)
}

// Read returns a copy of n words starting at index.
func (g *GlobalTable) Read(index, n int) []uint32 {
	out := make([]uint32, n)
	copy(out, g.r.Mem[index:index+n])
	return out
}
