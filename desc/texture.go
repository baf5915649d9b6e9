package desc

// TextureSizeInWords is the size of a texture descriptor.
const TextureSizeInWords = 8

// Texture is an eight-dword texture descriptor.
type Texture [TextureSizeInWords]uint32

// TextureDesc describes a texture for NewTexture.
type TextureDesc struct {
	Addr       uint64 // 48-bit GPU address, 256-byte aligned
	Type       Type
	Format     Format
	MemoryType MemoryType
	Width      uint32 // 1..16384
	Height     uint32 // 1..16384
	Depth      uint32 // 1..8192; array layers for arrays and cubes
	Pitch      uint32 // row pitch in elements; Width when 0
	MipLevels  uint32 // 1..16; 1 when 0
}

// NewTexture packs d into a descriptor.
func NewTexture(d TextureDesc) Texture {
	pitch := d.Pitch
	if pitch == 0 {
		pitch = d.Width
	}
	mips := max(d.MipLevels, 1)
	return Texture{
		uint32(d.Addr >> 8),
		uint32(d.Addr>>40)&0xFF | uint32(d.Format)<<8 | uint32(d.MemoryType&3)<<16,
		minus1(d.Width)&0x3FFF | (minus1(d.Height)&0x3FFF)<<14,
		minus1(d.Depth)&0x1FFF | uint32(d.Type&0xF)<<28,
		minus1(pitch)&0x3FFF | (minus1(mips)&0xF)<<14,
	}
}

func minus1(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	return v - 1
}

// Addr returns the base address.
func (t *Texture) Addr() uint64 {
	return uint64(t[0])<<8 | uint64(field(t[1], 0, 8))<<40
}

// Format returns the element format.
func (t *Texture) Format() Format { return Format(field(t[1], 8, 8)) }

// MemoryType returns the cache policy.
func (t *Texture) MemoryType() MemoryType { return MemoryType(field(t[1], 16, 2)) }

// Width returns the width in texels.
func (t *Texture) Width() uint32 { return field(t[2], 0, 14) + 1 }

// Height returns the height in texels.
func (t *Texture) Height() uint32 { return field(t[2], 14, 14) + 1 }

// Depth returns the depth or array layer count.
func (t *Texture) Depth() uint32 { return field(t[3], 0, 13) + 1 }

// Pitch returns the row pitch in elements.
func (t *Texture) Pitch() uint32 { return field(t[4], 0, 14) + 1 }

// MipLevels returns the mip level count.
func (t *Texture) MipLevels() uint32 { return field(t[4], 14, 4) + 1 }

// Type returns the resource type.
func (t *Texture) Type() Type { return Type(field(t[3], 28, 4)) }

// SizeInBytes returns the extent of the base mip level.
func (t *Texture) SizeInBytes() uint64 {
	return uint64(t.Pitch()) * uint64(t.Height()) * uint64(t.Depth()) *
		uint64(t.Format().BytesPerElement())
}

// Words returns the descriptor dwords.
func (t *Texture) Words() []uint32 { return t[:] }

// IsZero reports whether the descriptor was never initialized.
func (t *Texture) IsZero() bool { return isZero(t[:]) }
