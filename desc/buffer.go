package desc

// BufferSizeInWords is the size of a buffer descriptor.
const BufferSizeInWords = 4

// MaxStride is the largest stride a buffer descriptor can encode.
const MaxStride = 1<<14 - 1

// Buffer is a four-dword buffer descriptor.
type Buffer [BufferSizeInWords]uint32

// BufferDesc describes a buffer for NewBuffer.
type BufferDesc struct {
	Addr       uint64 // 48-bit GPU address
	Stride     uint32 // bytes per record; 0 for a raw byte buffer
	NumRecords uint32 // records, or bytes when Stride is 0
	Format     Format
	MemoryType MemoryType
}

// NewBuffer packs d into a descriptor. Fields wider than their encoding
// are truncated.
func NewBuffer(d BufferDesc) Buffer {
	return Buffer{
		uint32(d.Addr),
		uint32(d.Addr>>32)&0xFFFF | (d.Stride&MaxStride)<<16,
		d.NumRecords,
		uint32(d.Format) | uint32(d.MemoryType&3)<<8 | uint32(TypeBuffer)<<28,
	}
}

// Addr returns the base address.
func (b *Buffer) Addr() uint64 {
	return uint64(b[0]) | uint64(field(b[1], 0, 16))<<32
}

// Stride returns the record stride in bytes.
func (b *Buffer) Stride() uint32 { return field(b[1], 16, 14) }

// NumRecords returns the record count.
func (b *Buffer) NumRecords() uint32 { return b[2] }

// Format returns the element format.
func (b *Buffer) Format() Format { return Format(field(b[3], 0, 8)) }

// MemoryType returns the cache policy.
func (b *Buffer) MemoryType() MemoryType { return MemoryType(field(b[3], 8, 2)) }

// Type returns the resource type; TypeBuffer for a packed buffer.
func (b *Buffer) Type() Type { return Type(field(b[3], 28, 4)) }

// SizeInBytes returns the extent of the memory range the descriptor covers.
func (b *Buffer) SizeInBytes() uint64 {
	if s := b.Stride(); s != 0 {
		return uint64(s) * uint64(b.NumRecords())
	}
	return uint64(b.NumRecords())
}

// Words returns the descriptor dwords.
func (b *Buffer) Words() []uint32 { return b[:] }

// IsZero reports whether the descriptor was never initialized.
func (b *Buffer) IsZero() bool { return isZero(b[:]) }
