package desc

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestBufferFields(t *testing.T) {
	b := NewBuffer(BufferDesc{
		Addr:       0x1234_5678_9ABC,
		Stride:     16,
		NumRecords: 100,
		Format:     FormatRGBA32Float,
		MemoryType: MemoryTypeReadOnly,
	})

	if got := b.Addr(); got != 0x1234_5678_9ABC {
		t.Errorf("Addr() = %#x, want %#x", got, uint64(0x1234_5678_9ABC))
	}
	if got := b.Stride(); got != 16 {
		t.Errorf("Stride() = %d, want 16", got)
	}
	if got := b.NumRecords(); got != 100 {
		t.Errorf("NumRecords() = %d, want 100", got)
	}
	if got := b.Format(); got != FormatRGBA32Float {
		t.Errorf("Format() = %v, want %v", got, FormatRGBA32Float)
	}
	if got := b.MemoryType(); got != MemoryTypeReadOnly {
		t.Errorf("MemoryType() = %v, want %v", got, MemoryTypeReadOnly)
	}
	if got := b.Type(); got != TypeBuffer {
		t.Errorf("Type() = %v, want %v", got, TypeBuffer)
	}
	if got := b.SizeInBytes(); got != 1600 {
		t.Errorf("SizeInBytes() = %d, want 1600", got)
	}
	if b.IsZero() {
		t.Error("IsZero() = true for a packed buffer")
	}
}

func TestBufferRawSize(t *testing.T) {
	b := NewBuffer(BufferDesc{Addr: 0x1000, NumRecords: 256})
	if got := b.SizeInBytes(); got != 256 {
		t.Errorf("SizeInBytes() = %d, want 256", got)
	}
}

func TestTextureFields(t *testing.T) {
	tex := NewTexture(TextureDesc{
		Addr:      0xAB_CDEF_0100,
		Type:      TypeTexture2D,
		Format:    FormatRGBA8Unorm,
		Width:     640,
		Height:    480,
		Depth:     1,
		MipLevels: 3,
	})

	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"Addr", tex.Addr(), 0xAB_CDEF_0100},
		{"Width", uint64(tex.Width()), 640},
		{"Height", uint64(tex.Height()), 480},
		{"Depth", uint64(tex.Depth()), 1},
		{"Pitch", uint64(tex.Pitch()), 640},
		{"MipLevels", uint64(tex.MipLevels()), 3},
		{"SizeInBytes", tex.SizeInBytes(), 640 * 480 * 4},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if tex.Type() != TypeTexture2D || !tex.Type().IsTexture() {
		t.Errorf("Type() = %v, want %v", tex.Type(), TypeTexture2D)
	}
	if tex.Format() != FormatRGBA8Unorm {
		t.Errorf("Format() = %v, want %v", tex.Format(), FormatRGBA8Unorm)
	}
}

func TestSamplerFields(t *testing.T) {
	s := NewSampler(SamplerDesc{
		ClampX: ClampEdge,
		MinLOD: 0.5,
		MaxLOD: 100,
		Mag:    FilterLinear,
	})

	if !s.Initialized() || s.Type() != TypeSampler {
		t.Errorf("Type() = %v, want %v", s.Type(), TypeSampler)
	}
	if s.ClampX() != ClampEdge {
		t.Errorf("ClampX() = %v, want %v", s.ClampX(), ClampEdge)
	}
	if s.MinLOD() != 0.5 {
		t.Errorf("MinLOD() = %v, want 0.5", s.MinLOD())
	}
	if s.MaxLOD() != float32(0xFFF)/256 {
		t.Errorf("MaxLOD() = %v, want clamped %v", s.MaxLOD(), float32(0xFFF)/256)
	}
	if s.MagFilter() != FilterLinear {
		t.Errorf("MagFilter() = %v, want %v", s.MagFilter(), FilterLinear)
	}

	var zero Sampler
	if zero.Type() != TypeInvalid || !zero.IsZero() {
		t.Error("zero sampler should be invalid")
	}
}

func TestDescriptorInterface(t *testing.T) {
	b := NewBuffer(BufferDesc{Addr: 0x100, NumRecords: 4})
	tex := NewTexture(TextureDesc{Type: TypeTextureCube, Width: 1, Height: 1, Depth: 6})
	s := NewSampler(SamplerDesc{})

	descs := []Descriptor{&b, &tex, &s}
	wantLen := []int{BufferSizeInWords, TextureSizeInWords, SamplerSizeInWords}
	for i, d := range descs {
		if got := len(d.Words()); got != wantLen[i] {
			t.Errorf("%v: len(Words()) = %d, want %d", d.Type(), got, wantLen[i])
		}
	}

	b.Words()[2] = 9
	if b.NumRecords() != 9 {
		t.Error("Words() should alias the descriptor")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		f     Format
		bytes int
		gpu   gputypes.TextureFormat
	}{
		{FormatInvalid, 0, gputypes.TextureFormatUndefined},
		{FormatR8Unorm, 1, gputypes.TextureFormatR8Unorm},
		{FormatRGBA8Unorm, 4, gputypes.TextureFormatRGBA8Unorm},
		{FormatBGRA8Unorm, 4, gputypes.TextureFormatBGRA8Unorm},
		{FormatRGBA32Float, 16, gputypes.TextureFormatRGBA32Float},
		{Format(200), 0, gputypes.TextureFormatUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.f.String(), func(t *testing.T) {
			if got := tt.f.BytesPerElement(); got != tt.bytes {
				t.Errorf("BytesPerElement() = %d, want %d", got, tt.bytes)
			}
			if got := tt.f.GPUFormat(); got != tt.gpu {
				t.Errorf("GPUFormat() = %v, want %v", got, tt.gpu)
			}
		})
	}
	if FormatInvalid.Valid() || !FormatR32Float.Valid() {
		t.Error("Valid() mismatch")
	}
}
