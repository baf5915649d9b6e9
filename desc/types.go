package desc

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Type is the resource type stored in the top bits of a buffer or
// texture descriptor.
type Type uint8

// Resource types.
const (
	TypeInvalid Type = iota
	TypeBuffer
	TypeTexture1D
	TypeTexture2D
	TypeTexture3D
	TypeTextureCube
	TypeTexture2DArray
	TypeSampler
)

var typeNames = [...]string{
	TypeInvalid:        "invalid",
	TypeBuffer:         "buffer",
	TypeTexture1D:      "texture1d",
	TypeTexture2D:      "texture2d",
	TypeTexture3D:      "texture3d",
	TypeTextureCube:    "texturecube",
	TypeTexture2DArray: "texture2darray",
	TypeSampler:        "sampler",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// IsTexture reports whether t is one of the texture types.
func (t Type) IsTexture() bool {
	return t >= TypeTexture1D && t <= TypeTexture2DArray
}

// MemoryType selects the cache policy the GPU applies to the resource.
type MemoryType uint8

// Memory types.
const (
	// MemoryTypeGPUCoherent is cached and coherent across GPU clients.
	MemoryTypeGPUCoherent MemoryType = iota

	// MemoryTypeReadOnly is cached read-only; writes through it are lost.
	MemoryTypeReadOnly

	// MemoryTypeUncached bypasses the GPU caches.
	MemoryTypeUncached

	// MemoryTypeSystemCoherent is coherent with CPU writes.
	MemoryTypeSystemCoherent
)

func (m MemoryType) String() string {
	switch m {
	case MemoryTypeGPUCoherent:
		return "gc"
	case MemoryTypeReadOnly:
		return "ro"
	case MemoryTypeUncached:
		return "uc"
	case MemoryTypeSystemCoherent:
		return "sc"
	}
	return fmt.Sprintf("MemoryType(%d)", uint8(m))
}

// Format is the element data format of a typed buffer or texture.
type Format uint8

// Data formats.
const (
	FormatInvalid Format = iota
	FormatR8Unorm
	FormatR16Float
	FormatR32Float
	FormatRG32Float
	FormatRGBA8Unorm
	FormatBGRA8Unorm
	FormatRGBA16Float
	FormatRGBA32Float

	numFormats
)

var formatInfo = [numFormats]struct {
	name  string
	bytes int
	gpu   gputypes.TextureFormat
}{
	FormatInvalid:     {"invalid", 0, gputypes.TextureFormatUndefined},
	FormatR8Unorm:     {"r8unorm", 1, gputypes.TextureFormatR8Unorm},
	FormatR16Float:    {"r16float", 2, gputypes.TextureFormatR16Float},
	FormatR32Float:    {"r32float", 4, gputypes.TextureFormatR32Float},
	FormatRG32Float:   {"rg32float", 8, gputypes.TextureFormatRG32Float},
	FormatRGBA8Unorm:  {"rgba8unorm", 4, gputypes.TextureFormatRGBA8Unorm},
	FormatBGRA8Unorm:  {"bgra8unorm", 4, gputypes.TextureFormatBGRA8Unorm},
	FormatRGBA16Float: {"rgba16float", 8, gputypes.TextureFormatRGBA16Float},
	FormatRGBA32Float: {"rgba32float", 16, gputypes.TextureFormatRGBA32Float},
}

func (f Format) String() string {
	if f < numFormats {
		return formatInfo[f].name
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Valid reports whether f is a defined, non-invalid format.
func (f Format) Valid() bool {
	return f > FormatInvalid && f < numFormats
}

// BytesPerElement returns the element size, or 0 for invalid formats.
func (f Format) BytesPerElement() int {
	if f < numFormats {
		return formatInfo[f].bytes
	}
	return 0
}

// GPUFormat returns the matching WebGPU texture format.
func (f Format) GPUFormat() gputypes.TextureFormat {
	if f < numFormats {
		return formatInfo[f].gpu
	}
	return gputypes.TextureFormatUndefined
}

// Descriptor is implemented by Buffer, Texture and Sampler.
type Descriptor interface {
	// Words returns the descriptor dwords. The slice aliases the value.
	Words() []uint32

	// Type returns the resource type encoded in the descriptor.
	Type() Type

	// IsZero reports whether every word is zero.
	IsZero() bool
}

func isZero(words []uint32) bool {
	for _, w := range words {
		if w != 0 {
			return false
		}
	}
	return true
}

func field(w uint32, shift, width uint) uint32 {
	return w >> shift & (1<<width - 1)
}
