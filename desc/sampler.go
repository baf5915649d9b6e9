package desc

// SamplerSizeInWords is the size of a sampler descriptor.
const SamplerSizeInWords = 4

// Sampler is a four-dword sampler descriptor.
type Sampler [SamplerSizeInWords]uint32

// ClampMode is the texture coordinate wrap mode.
type ClampMode uint8

// Clamp modes.
const (
	ClampWrap ClampMode = iota
	ClampMirror
	ClampEdge
	ClampBorder
)

// Filter is a texel filter.
type Filter uint8

// Filters.
const (
	FilterPoint Filter = iota
	FilterLinear
)

// SamplerDesc describes a sampler for NewSampler.
type SamplerDesc struct {
	ClampX, ClampY, ClampZ ClampMode
	MinLOD, MaxLOD         float32 // clamped to [0, 15.996]
	Mag, Min, Mip          Filter
	BorderColor            uint16 // border color table index
}

const samplerInitialized = 1 << 31

// NewSampler packs d into a descriptor.
func NewSampler(d SamplerDesc) Sampler {
	return Sampler{
		uint32(d.ClampX&7) | uint32(d.ClampY&7)<<3 | uint32(d.ClampZ&7)<<6,
		lod(d.MinLOD) | lod(d.MaxLOD)<<12,
		uint32(d.Mag&3) | uint32(d.Min&3)<<2 | uint32(d.Mip&3)<<4,
		uint32(d.BorderColor&0xFFF) | samplerInitialized,
	}
}

// lod converts to unsigned 4.8 fixed point.
func lod(v float32) uint32 {
	if v <= 0 {
		return 0
	}
	f := uint32(v * 256)
	return min(f, 0xFFF)
}

// ClampX returns the X clamp mode.
func (s *Sampler) ClampX() ClampMode { return ClampMode(field(s[0], 0, 3)) }

// MinLOD returns the minimum LOD.
func (s *Sampler) MinLOD() float32 { return float32(field(s[1], 0, 12)) / 256 }

// MaxLOD returns the maximum LOD.
func (s *Sampler) MaxLOD() float32 { return float32(field(s[1], 12, 12)) / 256 }

// MagFilter returns the magnification filter.
func (s *Sampler) MagFilter() Filter { return Filter(field(s[2], 0, 2)) }

// Initialized reports whether the descriptor was built by NewSampler.
func (s *Sampler) Initialized() bool { return s[3]&samplerInitialized != 0 }

// Type returns TypeSampler for an initialized sampler.
func (s *Sampler) Type() Type {
	if s.Initialized() {
		return TypeSampler
	}
	return TypeInvalid
}

// Words returns the descriptor dwords.
func (s *Sampler) Words() []uint32 { return s[:] }

// IsZero reports whether the descriptor was never initialized.
func (s *Sampler) IsZero() bool { return isZero(s[:]) }
