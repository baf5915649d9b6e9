package validate

import (
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/offsets"
)

// maxConstantBufferBytes is the largest constant buffer a shader can
// address.
const maxConstantBufferBytes = 64 * 1024

// requiredProtection returns the access a category needs.
func requiredProtection(c offsets.Category) Protection {
	switch c {
	case offsets.CategoryRWResource, offsets.CategoryStreamOut:
		return ProtReadWrite
	default:
		return ProtRead
	}
}

func writes(c offsets.Category) bool {
	return requiredProtection(c)&ProtWrite != 0
}

// memoryRange is implemented by descriptors that address memory.
type memoryRange interface {
	Addr() uint64
	SizeInBytes() uint64
}

// check runs every descriptor check for d bound to c.
func (l *Layer) check(c offsets.Category, d desc.Descriptor) ErrorBits {
	if d.IsZero() {
		return ErrorNotInitialized
	}

	var bits ErrorBits
	switch d := d.(type) {
	case *desc.Sampler:
		if c != offsets.CategorySampler {
			return ErrorInvalidType
		}
		if !d.Initialized() {
			bits |= ErrorNotInitialized
		}
		return bits
	case *desc.Buffer:
		bits |= checkBuffer(c, d)
	case *desc.Texture:
		bits |= checkTexture(c, d)
	default:
		return ErrorInvalidType
	}
	if bits.Has(ErrorInvalidType) {
		return bits
	}

	if mr, ok := d.(memoryRange); ok && l.cfg.Memory != nil {
		prot, mapped := l.cfg.Memory.Check(mr.Addr(), mr.SizeInBytes())
		switch {
		case !mapped:
			bits |= ErrorNotMapped
		case prot&requiredProtection(c) != requiredProtection(c):
			bits |= ErrorProtectionMismatch
		}
	}
	return bits
}

func checkBuffer(c offsets.Category, b *desc.Buffer) ErrorBits {
	var bits ErrorBits
	if b.Type() != desc.TypeBuffer {
		return ErrorInvalidType
	}
	if c == offsets.CategorySampler {
		return ErrorInvalidType
	}
	if b.NumRecords() == 0 {
		bits |= ErrorInvalidElementCount
	}
	if f := b.Format(); f != desc.FormatInvalid && !f.Valid() {
		bits |= ErrorInvalidFormat
	}
	if writes(c) && b.MemoryType() == desc.MemoryTypeReadOnly {
		bits |= ErrorWrongMemoryType
	}

	switch c {
	case offsets.CategoryConstantBuffer:
		if s := b.Stride(); s != 0 && s%16 != 0 {
			bits |= ErrorInvalidStride
		}
		if b.SizeInBytes() > maxConstantBufferBytes {
			bits |= ErrorInvalidElementCount
		}
	case offsets.CategoryVertexBuffer:
		if b.Stride() == 0 {
			bits |= ErrorInvalidStride
		}
		if b.Format() == desc.FormatInvalid {
			bits |= ErrorInvalidFormat
		}
	case offsets.CategoryStreamOut:
		if s := b.Stride(); s == 0 || s%4 != 0 {
			bits |= ErrorInvalidStride
		}
	}
	return bits
}

func checkTexture(c offsets.Category, t *desc.Texture) ErrorBits {
	if c != offsets.CategoryResource && c != offsets.CategoryRWResource {
		return ErrorInvalidType
	}
	if !t.Type().IsTexture() {
		return ErrorInvalidType
	}

	var bits ErrorBits
	if !t.Format().Valid() {
		bits |= ErrorInvalidFormat
	}
	if t.Pitch() < t.Width() {
		bits |= ErrorInvalidStride
	}
	if writes(c) && t.MemoryType() == desc.MemoryTypeReadOnly {
		bits |= ErrorWrongMemoryType
	}
	return bits
}
