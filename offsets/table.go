package offsets

import (
	"fmt"
	"strings"

	"github.com/gogpu/resbind/shaderbin"
)

// Table is the input resource offset table of one shader.
// A Table is immutable once built.
type Table struct {
	stage        shaderbin.Stage
	hash         uint32
	scratchWords int
	eudWords     int
	pointers     [NumPointers]PointerRegister
	locs         [NumCategories][]Location
	sizes        [NumCategories][]uint8
}

// Stage returns the stage the table was built for.
func (t *Table) Stage() shaderbin.Stage { return t.stage }

// Hash returns the shader hash of the binary the table was built from.
func (t *Table) Hash() uint32 { return t.hash }

// RequiredScratchSizeInWords returns the number of scratch words the
// shader's memory-resident values occupy.
func (t *Table) RequiredScratchSizeInWords() int { return t.scratchWords }

// ExtendedUserDataSizeInWords returns the size of the extended user data
// prefix at the front of the scratch block.
func (t *Table) ExtendedUserDataSizeInWords() int { return t.eudWords }

// SlotCount returns the number of API slots the shader declares for c:
// one past the highest declared slot.
func (t *Table) SlotCount(c Category) int { return len(t.locs[c]) }

// Location returns the location of an API slot. Slots past SlotCount are
// Unused.
func (t *Table) Location(c Category, slot int) Location {
	if slot < 0 || slot >= len(t.locs[c]) {
		return Unused
	}
	return t.locs[c][slot]
}

// SlotSizeInDW returns the number of dwords the shader reserves for an
// API slot: the declared size for register slots, the category element
// size for table slots, 0 for unused slots.
func (t *Table) SlotSizeInDW(c Category, slot int) int {
	if slot < 0 || slot >= len(t.sizes[c]) {
		return 0
	}
	return int(t.sizes[c][slot])
}

// Codes returns the wire codes of every declared slot of c.
func (t *Table) Codes(c Category) []uint16 {
	codes := make([]uint16, len(t.locs[c]))
	for i, l := range t.locs[c] {
		codes[i] = l.Code()
	}
	return codes
}

// Pointer returns the placement of a pointer slot.
func (t *Table) Pointer(p Pointer) PointerRegister { return t.pointers[p] }

// String renders the table for diagnostics.
func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "offsets.Table{stage=%v hash=%#08x scratch=%dw eud=%dw}\n",
		t.stage, t.hash, t.scratchWords, t.eudWords)
	for p := range Pointer(NumPointers) {
		pr := t.pointers[p]
		if !pr.Used() {
			continue
		}
		fmt.Fprintf(&sb, "  %-20s %-8v %ddw", p, pr.Loc, pr.SizeInDW)
		if p.IsTable() || p == PointerExtendedUserData {
			fmt.Fprintf(&sb, " table=+%d", pr.TableOffset)
		}
		sb.WriteByte('\n')
	}
	for c := range Category(NumCategories) {
		if len(t.locs[c]) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %-20s", c)
		for i, l := range t.locs[c] {
			if l.Kind != LocationUnused {
				fmt.Fprintf(&sb, " %d:%v", i, l)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
