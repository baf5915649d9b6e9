package shaderbin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
)

// Parse errors.
var (
	// ErrTruncated is returned when the blob is shorter than the footer.
	ErrTruncated = errors.New("shaderbin: binary truncated")

	// ErrBadSignature is returned when the masked footer magic does not match.
	ErrBadSignature = errors.New("shaderbin: footer signature mismatch")

	// ErrUnsupportedVersion is returned for an unknown footer version.
	ErrUnsupportedVersion = errors.New("shaderbin: unsupported footer version")

	// ErrInvalidStage is returned for a stage outside the defined set.
	ErrInvalidStage = errors.New("shaderbin: invalid shader stage")

	// ErrLayout is returned when a footer offset points outside the blob.
	ErrLayout = errors.New("shaderbin: metadata layout out of bounds")
)

// Binary is a parsed shader binary. It references, but does not copy, the
// blob it was parsed from.
type Binary struct {
	data      []byte
	digest    uint64
	footer    Footer
	slots     []UsageSlot
	semantics []Semantic

	// masks holds every chunk mask word in pool order; chunkStart[i] is
	// the index of the first word belonging to usage slot i.
	masks      []uint32
	chunkStart []int
}

// Parse decodes the metadata block at the end of data.
func Parse(data []byte) (*Binary, error) {
	if len(data) < FooterSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	footerStart := len(data) - FooterSize
	b := &Binary{
		data:   data,
		footer: decodeFooter(data[footerStart:]),
	}
	f := &b.footer

	if !f.HasMagic() {
		return nil, fmt.Errorf("%w: %#016x", ErrBadSignature, f.Signature&MagicMask)
	}
	if f.Version() != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version())
	}
	if !f.Stage.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStage, f.Stage)
	}

	lowest := footerStart

	if err := b.parseUsageSlots(footerStart, &lowest); err != nil {
		return nil, err
	}
	if err := b.parseChunkMasks(footerStart, &lowest); err != nil {
		return nil, err
	}
	if err := b.parseSemantics(footerStart, &lowest); err != nil {
		return nil, err
	}

	if int(f.CodeLength) > lowest {
		return nil, fmt.Errorf("%w: code length %d overlaps metadata at %d",
			ErrLayout, f.CodeLength, lowest)
	}

	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	b.digest = h.Sum64()

	return b, nil
}

// section returns the start of a block of size bytes that begins offDW
// dwords before the footer, and lowers *lowest to it.
func section(footerStart int, offDW uint16, size int, lowest *int) (int, error) {
	start := footerStart - int(offDW)*4
	if start < 0 || start+size > footerStart {
		return 0, fmt.Errorf("%w: block of %d bytes at -%d dwords", ErrLayout, size, offDW)
	}
	if size > 0 && start < *lowest {
		*lowest = start
	}
	return start, nil
}

func (b *Binary) parseUsageSlots(footerStart int, lowest *int) error {
	n := int(b.footer.NumInputUsageSlots)
	start, err := section(footerStart, b.footer.UsageSlotsOffsetInDW, n*UsageSlotSize, lowest)
	if err != nil {
		return fmt.Errorf("usage slots: %w", err)
	}

	b.slots = make([]UsageSlot, n)
	for i := range n {
		pos := start + i*UsageSlotSize
		b.slots[i] = decodeUsageSlot(b.data[pos : pos+UsageSlotSize])
	}
	return nil
}

func (b *Binary) parseChunkMasks(footerStart int, lowest *int) error {
	b.chunkStart = make([]int, len(b.slots))
	total := 0
	for i, s := range b.slots {
		b.chunkStart[i] = total
		total += s.ChunkCount()
	}
	if total == 0 {
		return nil
	}

	start, err := section(footerStart, b.footer.ChunkUsageBaseOffsetInDW, total*4, lowest)
	if err != nil {
		return fmt.Errorf("chunk masks: %w", err)
	}

	b.masks = make([]uint32, total)
	for i := range b.masks {
		b.masks[i] = binary.LittleEndian.Uint32(b.data[start+i*4:])
	}
	return nil
}

func (b *Binary) parseSemantics(footerStart int, lowest *int) error {
	n := int(b.footer.NumInputSemantics)
	if n == 0 {
		return nil
	}
	start, err := section(footerStart, b.footer.SemanticsOffsetInDW, n*SemanticSize, lowest)
	if err != nil {
		return fmt.Errorf("semantics: %w", err)
	}

	b.semantics = make([]Semantic, n)
	for i := range n {
		pos := start + i*SemanticSize
		b.semantics[i] = decodeSemantic(b.data[pos : pos+SemanticSize])
	}
	return nil
}

// Footer returns a copy of the decoded footer.
func (b *Binary) Footer() Footer { return b.footer }

// Stage returns the stage the binary was compiled for.
func (b *Binary) Stage() Stage { return b.footer.Stage }

// Hash returns the shader hash recorded in the footer.
func (b *Binary) Hash() uint32 { return b.footer.ShaderHash }

// Digest returns the FNV-1a hash of the whole blob, code and metadata.
// Unlike Hash it tells apart binaries that share code but declare
// different slots or semantics.
func (b *Binary) Digest() uint64 { return b.digest }

// IsSRT reports whether the shader reads a user shader resource table.
func (b *Binary) IsSRT() bool { return b.footer.Flags&FlagSRT != 0 }

// Code returns the code section.
func (b *Binary) Code() []byte { return b.data[:b.footer.CodeLength] }

// Size returns the size of the whole blob in bytes.
func (b *Binary) Size() int { return len(b.data) }

// UsageSlots returns the decoded usage slots in binary order.
// The returned slice must not be modified.
func (b *Binary) UsageSlots() []UsageSlot { return b.slots }

// Semantics returns the vertex semantics in binary order.
// The returned slice must not be modified.
func (b *Binary) Semantics() []Semantic { return b.semantics }

// ChunkWords returns the mask words that belong to usage slot i, expanded
// to one word per chunk bit position 0..3. Chunks absent from the slot's
// mask are zero.
func (b *Binary) ChunkWords(i int) [4]uint32 {
	var words [4]uint32
	next := b.chunkStart[i]
	mask := b.slots[i].ChunkMask
	for bit := range 4 {
		if mask&(1<<bit) != 0 {
			words[bit] = b.masks[next]
			next++
		}
	}
	return words
}
