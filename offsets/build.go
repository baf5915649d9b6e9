package offsets

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/gogpu/resbind"
	"github.com/gogpu/resbind/shaderbin"
)

// Build errors. Each indicates a binary produced by a compiler this
// package does not match.
var (
	// ErrStageMismatch is returned when the binary was compiled for
	// another stage than requested.
	ErrStageMismatch = errors.New("offsets: shader stage mismatch")

	// ErrUnknownUsage is returned for a usage slot kind this package does
	// not understand.
	ErrUnknownUsage = errors.New("offsets: unknown usage slot kind")

	// ErrSlotOutOfRange is returned when an API slot is at or beyond the
	// category's maximum.
	ErrSlotOutOfRange = errors.New("offsets: api slot out of range")

	// ErrDuplicateSlot is returned when two usage slots claim the same API
	// slot or pointer.
	ErrDuplicateSlot = errors.New("offsets: api slot declared twice")

	// ErrRegisterRange is returned when a usage slot runs past the last
	// user-data register.
	ErrRegisterRange = errors.New("offsets: register range out of bounds")

	// ErrMissingExtendedUserData is returned when values live past the
	// fast registers but the shader declares no extended user data pointer.
	ErrMissingExtendedUserData = errors.New("offsets: extended user data pointer missing")

	// ErrScratchOverflow is returned when the scratch block exceeds
	// MaxScratchSizeInWords.
	ErrScratchOverflow = errors.New("offsets: scratch size exceeds maximum")
)

// SemanticRemap redirects the vertex buffer slot a semantic is fetched
// from.
type SemanticRemap struct {
	Semantic uint8
	Slot     uint8
}

// immediateCategory maps immediate descriptor kinds to their category.
var immediateCategory = map[shaderbin.UsageKind]Category{
	shaderbin.ImmediateResource:       CategoryResource,
	shaderbin.ImmediateRWResource:     CategoryRWResource,
	shaderbin.ImmediateSampler:        CategorySampler,
	shaderbin.ImmediateConstantBuffer: CategoryConstantBuffer,
	shaderbin.ImmediateVertexBuffer:   CategoryVertexBuffer,
}

// tableCategory maps table pointer kinds to their category.
var tableCategory = map[shaderbin.UsageKind]Category{
	shaderbin.PointerResourceTable:       CategoryResource,
	shaderbin.PointerRWResourceTable:     CategoryRWResource,
	shaderbin.PointerSamplerTable:        CategorySampler,
	shaderbin.PointerConstantBufferTable: CategoryConstantBuffer,
	shaderbin.PointerVertexBufferTable:   CategoryVertexBuffer,
	shaderbin.PointerStreamOutTable:      CategoryStreamOut,
}

// scalarPointers maps the remaining kinds to their pointer slot.
var scalarPointers = map[shaderbin.UsageKind]Pointer{
	shaderbin.PointerExtendedUserData:            PointerExtendedUserData,
	shaderbin.PointerInternalGlobalTable:         PointerGlobalInternalTable,
	shaderbin.PointerFetchShader:                 PointerFetchShader,
	shaderbin.ImmediateAppendConsumeCounterRange: PointerAppendConsumeCounter,
	shaderbin.ImmediateGDSRange:                  PointerGDSRange,
	shaderbin.ImmediateShaderResourceTable:       PointerUserResourceTable,
}

// Build derives the offset table of bin, which must have been compiled
// for stage.
func Build(stage shaderbin.Stage, bin *shaderbin.Binary) (*Table, error) {
	return BuildWithRemap(stage, bin, nil)
}

// BuildWithRemap is Build with a vertex semantic remap. Semantics without
// a remap entry keep their own index as slot.
func BuildWithRemap(stage shaderbin.Stage, bin *shaderbin.Binary, remap []SemanticRemap) (*Table, error) {
	if bin.Stage() != stage {
		return nil, fmt.Errorf("%w: binary is %v, want %v", ErrStageMismatch, bin.Stage(), stage)
	}

	b := builder{
		t:     &Table{stage: stage, hash: bin.Hash()},
		bin:   bin,
		remap: remap,
	}
	if err := b.placeImmediates(); err != nil {
		return nil, err
	}
	if err := b.placeTables(); err != nil {
		return nil, err
	}

	resbind.Logger().Debug("offsets: table built",
		"stage", stage,
		"hash", b.t.hash,
		"scratchWords", b.t.scratchWords,
		"eudWords", b.t.eudWords)
	return b.t, nil
}

// MustBuild is like Build but panics on error. Use it where a mismatch
// between binder and compiler is a build-time fault.
func MustBuild(stage shaderbin.Stage, bin *shaderbin.Binary) *Table {
	t, err := Build(stage, bin)
	if err != nil {
		panic(err)
	}
	return t
}

type builder struct {
	t      *Table
	bin    *shaderbin.Binary
	remap  []SemanticRemap
	cursor int // scratch byte cursor for tables
}

// placeImmediates runs the first pass: every usage slot that is not a
// table pointer. It sizes the extended user data prefix.
func (b *builder) placeImmediates() error {
	hasEUD := false
	for i, u := range b.bin.UsageSlots() {
		if !u.Kind.Known() {
			return fmt.Errorf("%w: %v in usage slot %d", ErrUnknownUsage, u.Kind, i)
		}
		if _, ok := tableCategory[u.Kind]; ok {
			if err := b.checkRegisters(u); err != nil {
				return err
			}
			continue
		}

		loc, err := b.registerLocation(u)
		if err != nil {
			return err
		}

		if c, ok := immediateCategory[u.Kind]; ok {
			if err := b.setSlot(c, int(u.APISlot), loc, u.SizeInDW()); err != nil {
				return err
			}
			continue
		}

		p := scalarPointers[u.Kind]
		if b.t.pointers[p].Used() {
			return fmt.Errorf("%w: pointer %v", ErrDuplicateSlot, p)
		}
		b.t.pointers[p] = PointerRegister{Loc: loc, SizeInDW: uint8(u.SizeInDW())}
		if p == PointerExtendedUserData {
			hasEUD = true
		}
	}

	// Table pointers may themselves live in extended user data.
	for _, u := range b.bin.UsageSlots() {
		if _, ok := tableCategory[u.Kind]; ok && u.StartRegister >= NumUserDataRegisters {
			b.growEUD(u)
		}
	}

	if b.t.eudWords > 0 && !hasEUD {
		return fmt.Errorf("%w: %d words past register %d",
			ErrMissingExtendedUserData, b.t.eudWords, NumUserDataRegisters)
	}
	b.cursor = b.t.eudWords * 4
	return nil
}

func (b *builder) checkRegisters(u shaderbin.UsageSlot) error {
	if int(u.StartRegister)+u.SizeInDW() > MaxUserDataRegisters {
		return fmt.Errorf("%w: %v at r%d+%d", ErrRegisterRange, u.Kind, u.StartRegister, u.SizeInDW())
	}
	return nil
}

// registerLocation places a value that starts at u.StartRegister.
func (b *builder) registerLocation(u shaderbin.UsageSlot) (Location, error) {
	if err := b.checkRegisters(u); err != nil {
		return Unused, err
	}
	if u.StartRegister < NumUserDataRegisters {
		return InRegister(u.StartRegister, u.Raw), nil
	}
	b.growEUD(u)
	return InScratch(uint16(int(u.StartRegister)-NumUserDataRegisters) * 4), nil
}

func (b *builder) growEUD(u shaderbin.UsageSlot) {
	end := int(u.StartRegister) - NumUserDataRegisters + u.SizeInDW()
	b.t.eudWords = max(b.t.eudWords, end)
}

func (b *builder) setSlot(c Category, slot int, loc Location, sizeDW int) error {
	if slot >= c.MaxSlots() {
		return fmt.Errorf("%w: %v slot %d, max %d", ErrSlotOutOfRange, c, slot, c.MaxSlots())
	}
	locs := b.t.locs[c]
	if slot < len(locs) && locs[slot].Kind != LocationUnused {
		return fmt.Errorf("%w: %v slot %d", ErrDuplicateSlot, c, slot)
	}
	sizes := b.t.sizes[c]
	for len(locs) <= slot {
		locs = append(locs, Unused)
		sizes = append(sizes, 0)
	}
	locs[slot] = loc
	sizes[slot] = uint8(sizeDW)
	b.t.locs[c] = locs
	b.t.sizes[c] = sizes
	return nil
}

// placeTables runs the second pass: table pointers in usage slot order,
// each table laid out at the running cursor.
func (b *builder) placeTables() error {
	for i, u := range b.bin.UsageSlots() {
		c, ok := tableCategory[u.Kind]
		if !ok {
			continue
		}

		var slots []int
		var err error
		if c == CategoryVertexBuffer {
			slots, err = b.vertexSlots()
		} else {
			slots, err = maskSlots(c, b.bin.ChunkWords(i))
		}
		if err != nil {
			return err
		}

		p := c.TablePointer()
		if b.t.pointers[p].Used() {
			return fmt.Errorf("%w: pointer %v", ErrDuplicateSlot, p)
		}

		var loc Location
		if u.StartRegister < NumUserDataRegisters {
			loc = InRegister(u.StartRegister, false)
		} else {
			loc = InScratch(uint16(int(u.StartRegister)-NumUserDataRegisters) * 4)
		}
		b.t.pointers[p] = PointerRegister{
			Loc:         loc,
			SizeInDW:    uint8(u.SizeInDW()),
			TableOffset: uint16(b.cursor),
		}

		if err := b.layoutTable(c, slots); err != nil {
			return err
		}
	}

	b.t.scratchWords = b.cursor / 4
	if b.t.scratchWords > MaxScratchSizeInWords {
		return fmt.Errorf("%w: %d words", ErrScratchOverflow, b.t.scratchWords)
	}
	return nil
}

// layoutTable assigns cursor + slot*elem to every used slot and moves the
// cursor past the highest one. slots must be sorted.
func (b *builder) layoutTable(c Category, slots []int) error {
	if len(slots) == 0 {
		return nil
	}
	elemBytes := c.ElementSizeInDW() * 4
	for _, s := range slots {
		off := b.cursor + s*elemBytes
		if off > codeOffsetMask {
			return fmt.Errorf("%w: %v slot %d at byte %d", ErrScratchOverflow, c, s, off)
		}
		if err := b.setSlot(c, s, InScratch(uint16(off)), c.ElementSizeInDW()); err != nil {
			return err
		}
	}
	b.cursor += (slots[len(slots)-1] + 1) * elemBytes
	return nil
}

// maskSlots decodes chunk mask words into a sorted slot list.
func maskSlots(c Category, words [4]uint32) ([]int, error) {
	var slots []int
	for chunk, w := range words {
		for w != 0 {
			bit := bits.TrailingZeros32(w)
			w &= w - 1
			s := chunk*32 + bit
			if s >= c.MaxSlots() {
				return nil, fmt.Errorf("%w: %v table mask selects slot %d, max %d",
					ErrSlotOutOfRange, c, s, c.MaxSlots())
			}
			slots = append(slots, s)
		}
	}
	return slots, nil
}

// vertexSlots derives the vertex buffer slot set from the semantic list,
// applying the remap, and returns it sorted and deduplicated.
func (b *builder) vertexSlots() ([]int, error) {
	var mask uint32
	for _, sem := range b.bin.Semantics() {
		slot := sem.Index
		for _, r := range b.remap {
			if r.Semantic == sem.Index {
				slot = r.Slot
				break
			}
		}
		if int(slot) >= CategoryVertexBuffer.MaxSlots() {
			return nil, fmt.Errorf("%w: semantic %d maps to vertex buffer slot %d",
				ErrSlotOutOfRange, sem.Index, slot)
		}
		mask |= 1 << slot
	}
	return maskSlots(CategoryVertexBuffer, [4]uint32{mask})
}
