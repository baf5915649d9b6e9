package validate

import (
	"errors"
	"testing"

	"github.com/gogpu/resbind/bind"
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/ring"
	"github.com/gogpu/resbind/shaderbin"
)

type nopSink struct{}

func (nopSink) SetShader(shaderbin.Stage, uint64)           {}
func (nopSink) PrefetchCode(uint64, int)                    {}
func (nopSink) SetUserData(shaderbin.Stage, int, []uint32) {}
func (nopSink) Dispatch(x, y, z uint32)                     {}
func (nopSink) Draw(vc, ic uint32)                          {}
func (nopSink) WaitIdle()                                   {}

type report struct {
	slot int
	cat  offsets.Category
	bits ErrorBits
}

type collector struct {
	reports []report
	user    any
}

func (c *collector) callback(_ *bind.Engine, userData any, slot int, cat offsets.Category, bits ErrorBits) {
	c.user = userData
	c.reports = append(c.reports, report{slot, cat, bits})
}

// newEngine binds a compute shader reading textures 0-2 from a table and
// constant buffer 0 from r4.
func newEngine(t *testing.T, l *Layer) *bind.Engine {
	t.Helper()
	data, err := shaderbin.NewWriter(shaderbin.StageCompute).
		AddTable(shaderbin.PointerResourceTable, 0, 0, 1, 2).
		AddImmediate(shaderbin.ImmediateConstantBuffer, 0, 4).
		Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	bin, err := shaderbin.Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	alloc, err := ring.New(ring.Config{Regions: ring.NewRegions(1, 1024, 0x1000)}, nil)
	if err != nil {
		t.Fatalf("ring.New() error = %v", err)
	}
	e := bind.New(bind.DefaultConfig(shaderbin.StageCompute), alloc, nopSink{}, bind.WithValidator(l))
	e.Bind(&bind.Shader{Binary: bin}, offsets.MustBuild(shaderbin.StageCompute, bin))
	return e
}

func texture(addr uint64) desc.Texture {
	return desc.NewTexture(desc.TextureDesc{
		Addr: addr, Type: desc.TypeTexture2D, Format: desc.FormatRGBA8Unorm,
		Width: 16, Height: 16, Depth: 1,
	})
}

func TestCompleteness(t *testing.T) {
	c := &collector{}
	l := New(Config{Callback: c.callback, UserData: "ctx"})
	e := newEngine(t, l)

	e.SetConstantBuffers(0, []desc.Buffer{desc.NewBuffer(desc.BufferDesc{Addr: 0x100, NumRecords: 64})})
	e.SetTextures(0, []desc.Texture{texture(0x1000), texture(0x2000)})
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := []report{{2, offsets.CategoryResource, ErrorNotBound}}
	if len(c.reports) != 1 || c.reports[0] != want[0] {
		t.Fatalf("reports = %+v, want %+v", c.reports, want)
	}
	if c.user != "ctx" {
		t.Errorf("userData = %v, want ctx", c.user)
	}
	for _, slot := range []int{0, 1} {
		if !l.Bound(offsets.CategoryResource, slot) {
			t.Errorf("Bound(resource, %d) = false, want true", slot)
		}
	}

	// A slot that stays unbound is reported on every later flush.
	e.Reset()
	if err := e.Dispatch(1, 1, 1); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(c.reports) != 2 || c.reports[1] != want[0] {
		t.Errorf("reports after next cycle = %+v, want slot 2 twice", c.reports)
	}

	// Binding it stops the reports.
	e.SetTextures(2, []desc.Texture{texture(0x3000)})
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(c.reports) != 2 {
		t.Errorf("reports after binding slot 2 = %d, want 2", len(c.reports))
	}

	// Binding again resets the table.
	e.Bind(e.Shader(), e.Table())
	e.SetTextures(0, make([]desc.Texture, 0))
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := len(c.reports); got != 6 {
		t.Errorf("reports after rebind = %d, want 6", got)
	}
}

func TestAllBoundReportsNothing(t *testing.T) {
	c := &collector{}
	e := newEngine(t, New(Config{Callback: c.callback}))
	e.SetConstantBuffers(0, []desc.Buffer{desc.NewBuffer(desc.BufferDesc{Addr: 0x100, NumRecords: 64})})
	e.SetTextures(0, []desc.Texture{texture(0x1000), texture(0x2000), texture(0x3000)})
	if err := e.Dispatch(1, 1, 1); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(c.reports) != 0 {
		t.Errorf("reports = %+v, want none", c.reports)
	}
}

func TestPanicWithoutCallback(t *testing.T) {
	e := newEngine(t, New(Config{}))
	e.SetConstantBuffers(0, []desc.Buffer{desc.NewBuffer(desc.BufferDesc{Addr: 0x100, NumRecords: 64})})

	defer func() {
		r := recover()
		err, ok := r.(error)
		var verr *Error
		if !ok || !errors.As(err, &verr) {
			t.Fatalf("panic = %v, want *Error", r)
		}
		if verr.Slot != 0 || verr.Category != offsets.CategoryResource || verr.Bits != ErrorNotBound {
			t.Errorf("Error = %+v, want resource slot 0 notbound", verr)
		}
	}()
	_ = e.Flush()
}

func TestDescriptorChecks(t *testing.T) {
	mem := NewMemoryMap()
	if err := mem.Map(0x10000, 0x10000, ProtRead); err != nil {
		t.Fatal(err)
	}
	if err := mem.Map(0x40000, 0x10000, ProtReadWrite); err != nil {
		t.Fatal(err)
	}
	l := New(Config{CheckDescriptors: true, Memory: mem})

	buf := func(d desc.BufferDesc) desc.Descriptor { b := desc.NewBuffer(d); return &b }
	tex := func(d desc.TextureDesc) desc.Descriptor { x := desc.NewTexture(d); return &x }
	smp := desc.NewSampler(desc.SamplerDesc{MaxLOD: 2})

	tests := []struct {
		name string
		cat  offsets.Category
		d    desc.Descriptor
		want ErrorBits
	}{
		{"valid constant buffer", offsets.CategoryConstantBuffer,
			buf(desc.BufferDesc{Addr: 0x10000, Stride: 16, NumRecords: 4}), 0},
		{"zero descriptor", offsets.CategoryResource, &desc.Buffer{}, ErrorNotInitialized},
		{"unmapped", offsets.CategoryConstantBuffer,
			buf(desc.BufferDesc{Addr: 0x90000, NumRecords: 64}), ErrorNotMapped},
		{"range past mapping", offsets.CategoryConstantBuffer,
			buf(desc.BufferDesc{Addr: 0x1FFF0, NumRecords: 64}), ErrorNotMapped},
		{"read-only bound for write", offsets.CategoryRWResource,
			buf(desc.BufferDesc{Addr: 0x10000, Stride: 4, NumRecords: 4}), ErrorProtectionMismatch},
		{"read-only memory type for write", offsets.CategoryRWResource,
			buf(desc.BufferDesc{Addr: 0x40000, Stride: 4, NumRecords: 4, MemoryType: desc.MemoryTypeReadOnly}),
			ErrorWrongMemoryType},
		{"multiple problems", offsets.CategoryVertexBuffer,
			buf(desc.BufferDesc{Addr: 0x90000, MemoryType: desc.MemoryTypeUncached}),
			ErrorInvalidStride | ErrorInvalidElementCount | ErrorInvalidFormat | ErrorNotMapped},
		{"valid vertex buffer", offsets.CategoryVertexBuffer,
			buf(desc.BufferDesc{Addr: 0x10000, Stride: 12, NumRecords: 3, Format: desc.FormatR32Float}), 0},
		{"odd constant stride", offsets.CategoryConstantBuffer,
			buf(desc.BufferDesc{Addr: 0x10000, Stride: 12, NumRecords: 2}), ErrorInvalidStride},
		{"oversized constant buffer", offsets.CategoryConstantBuffer,
			buf(desc.BufferDesc{Addr: 0x10000, NumRecords: 128 * 1024}), ErrorInvalidElementCount | ErrorNotMapped},
		{"stream-out stride", offsets.CategoryStreamOut,
			buf(desc.BufferDesc{Addr: 0x40000, Stride: 6, NumRecords: 2}), ErrorInvalidStride},
		{"texture as constant buffer", offsets.CategoryConstantBuffer,
			tex(desc.TextureDesc{Addr: 0x10000, Type: desc.TypeTexture2D, Format: desc.FormatR8Unorm, Width: 4, Height: 4}),
			ErrorInvalidType},
		{"texture without format", offsets.CategoryResource,
			tex(desc.TextureDesc{Addr: 0x10000, Type: desc.TypeTexture2D, Width: 4, Height: 4}), ErrorInvalidFormat},
		{"valid texture", offsets.CategoryResource,
			tex(desc.TextureDesc{Addr: 0x10000, Type: desc.TypeTexture2D, Format: desc.FormatR8Unorm, Width: 4, Height: 4}), 0},
		{"sampler", offsets.CategorySampler, &smp, 0},
		{"sampler as resource", offsets.CategoryResource, &smp, ErrorInvalidType},
		{"buffer as sampler", offsets.CategorySampler,
			buf(desc.BufferDesc{Addr: 0x10000, NumRecords: 4}), ErrorInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.check(tt.cat, tt.d); got != tt.want {
				t.Errorf("check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParallelChecksReportInOrder(t *testing.T) {
	c := &collector{}
	l := New(Config{Callback: c.callback, CheckDescriptors: true, Workers: 4})
	defer l.Close()

	e := newEngine(t, l)
	texs := make([]desc.Texture, 3)
	texs[0] = texture(0x1000)
	// texs[1] stays zero.
	texs[2] = desc.NewTexture(desc.TextureDesc{Addr: 0x3000, Type: desc.TypeTexture2D, Width: 8, Height: 8})
	e.SetTextures(0, texs)

	want := []report{
		{1, offsets.CategoryResource, ErrorNotInitialized},
		{2, offsets.CategoryResource, ErrorInvalidFormat},
	}
	if len(c.reports) != len(want) {
		t.Fatalf("reports = %+v, want %+v", c.reports, want)
	}
	for i := range want {
		if c.reports[i] != want[i] {
			t.Errorf("reports[%d] = %+v, want %+v", i, c.reports[i], want[i])
		}
	}
	if l.Checked() != 3 || l.Reported() != 2 {
		t.Errorf("Checked/Reported = %d/%d, want 3/2", l.Checked(), l.Reported())
	}
}

func TestErrorBitsString(t *testing.T) {
	tests := []struct {
		bits ErrorBits
		want string
	}{
		{0, "ok"},
		{ErrorNotBound, "notbound"},
		{ErrorNotMapped | ErrorInvalidStride, "notmapped|stride"},
		{ErrorInvalidType | 1<<20, "type|0x100000"},
	}
	for _, tt := range tests {
		if got := tt.bits.String(); got != tt.want {
			t.Errorf("ErrorBits(%#x).String() = %q, want %q", uint32(tt.bits), got, tt.want)
		}
	}

	err := &Error{Stage: shaderbin.StageFragment, Category: offsets.CategorySampler, Slot: 3, Bits: ErrorNotBound}
	if got, want := err.Error(), "validate: fragment sampler slot 3: notbound"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
