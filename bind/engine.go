package bind

import (
	"fmt"

	"github.com/gogpu/resbind"
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/ring"
	"github.com/gogpu/resbind/shaderbin"
)

// Shader is a compiled shader resident in GPU memory. Engines compare
// shaders by pointer.
type Shader struct {
	Binary *shaderbin.Binary
	Addr   uint64 // GPU address of the code
}

// CodeSize returns the code size in bytes.
func (s *Shader) CodeSize() int {
	if s.Binary == nil {
		return 0
	}
	return len(s.Binary.Code())
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator attaches v to the engine.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithGlobalTable makes the global internal table pointer resolve to g
// instead of the allocator's configured address.
func WithGlobalTable(g *GlobalTable) Option {
	return func(e *Engine) { e.global = g }
}

// WithUploader uploads every flushed reservation through u.
func WithUploader(u Uploader) Option {
	return func(e *Engine) { e.uploader = u }
}

// Engine binds resources for one shader stage.
type Engine struct {
	cfg       Config
	alloc     *ring.Allocator
	sink      Sink
	validator Validator
	global    *GlobalTable
	uploader  Uploader

	shader  *Shader
	table   *offsets.Table
	scratch []uint32
	state   Dirty

	last    ring.Allocation
	flushes uint64
	submits uint64
}

// New creates an engine that reserves from alloc and emits to sink.
func New(cfg Config, alloc *ring.Allocator, sink Sink, opts ...Option) *Engine {
	if alloc == nil {
		panic("bind: New with nil allocator")
	}
	if sink == nil {
		panic("bind: New with nil sink")
	}
	if !cfg.Stage.Valid() {
		panic(fmt.Sprintf("bind: New with invalid stage %v", cfg.Stage))
	}
	cfg.setDefaults()

	e := &Engine{
		cfg:     cfg,
		alloc:   alloc,
		sink:    sink,
		scratch: make([]uint32, cfg.ScratchSizeInWords),
	}
	for _, opt := range opts {
		opt(e)
	}

	resbind.Logger().Info("bind: engine created",
		"stage", cfg.Stage,
		"scratchWords", cfg.ScratchSizeInWords,
		"validator", e.validator != nil)
	return e
}

// Bind makes sh and its table current. t must target the engine's stage,
// fit the scratch area and stay within the configured slot maximums.
// Rebinding the current shader does not mark ShaderChanged.
func (e *Engine) Bind(sh *Shader, t *offsets.Table) {
	if sh == nil || t == nil {
		panic("bind: Bind with nil shader or table")
	}
	if t.Stage() != e.cfg.Stage {
		panic(fmt.Sprintf("bind: %v table bound to %v engine", t.Stage(), e.cfg.Stage))
	}
	if need := t.RequiredScratchSizeInWords(); need > len(e.scratch) {
		panic(fmt.Sprintf("bind: table needs %d scratch words, engine has %d", need, len(e.scratch)))
	}
	for c := range offsets.Category(offsets.NumCategories) {
		if n := t.SlotCount(c); n > e.cfg.MaxSlots[c] {
			panic(fmt.Sprintf("bind: table declares %d %v slots, engine allows %d", n, c, e.cfg.MaxSlots[c]))
		}
	}

	switch {
	case sh != e.shader:
		e.state = e.state.mark(evShaderBound)
	case t != e.table:
		e.state = e.state.mark(evTableBound)
	}
	e.shader = sh
	e.table = t

	if e.validator != nil {
		e.validator.OnBind(e, t)
	}
}

// SetTextures binds texture descriptors to resource slots
// [start, start+len(texs)).
func (e *Engine) SetTextures(start int, texs []desc.Texture) {
	setDescriptors(e, offsets.CategoryResource, start, texs)
}

// SetBuffers binds read-only buffer descriptors to resource slots.
func (e *Engine) SetBuffers(start int, bufs []desc.Buffer) {
	setDescriptors(e, offsets.CategoryResource, start, bufs)
}

// SetRWTextures binds texture descriptors to read/write resource slots.
func (e *Engine) SetRWTextures(start int, texs []desc.Texture) {
	setDescriptors(e, offsets.CategoryRWResource, start, texs)
}

// SetRWBuffers binds buffer descriptors to read/write resource slots.
func (e *Engine) SetRWBuffers(start int, bufs []desc.Buffer) {
	setDescriptors(e, offsets.CategoryRWResource, start, bufs)
}

// SetSamplers binds sampler descriptors.
func (e *Engine) SetSamplers(start int, samplers []desc.Sampler) {
	setDescriptors(e, offsets.CategorySampler, start, samplers)
}

// SetConstantBuffers binds constant buffer descriptors.
func (e *Engine) SetConstantBuffers(start int, bufs []desc.Buffer) {
	setDescriptors(e, offsets.CategoryConstantBuffer, start, bufs)
}

// SetVertexBuffers binds vertex buffer descriptors.
func (e *Engine) SetVertexBuffers(start int, bufs []desc.Buffer) {
	setDescriptors(e, offsets.CategoryVertexBuffer, start, bufs)
}

// SetStreamOutBuffers binds stream-out buffer descriptors.
func (e *Engine) SetStreamOutBuffers(start int, bufs []desc.Buffer) {
	setDescriptors(e, offsets.CategoryStreamOut, start, bufs)
}

func setDescriptors[T any, P interface {
	*T
	desc.Descriptor
}](e *Engine, cat offsets.Category, start int, ds []T) {
	e.mustBeBound()
	if start < 0 || start+len(ds) > e.cfg.MaxSlots[cat] {
		panic(fmt.Sprintf("bind: %v slots [%d, %d) exceed maximum %d",
			cat, start, start+len(ds), e.cfg.MaxSlots[cat]))
	}

	for i := range ds {
		slot := start + i
		loc := e.table.Location(cat, slot)
		words := P(&ds[i]).Words()
		if loc.Kind != offsets.LocationUnused && len(words) > e.table.SlotSizeInDW(cat, slot) {
			panic(fmt.Sprintf("bind: %d-word descriptor for %v slot %d, shader declares %d",
				len(words), cat, slot, e.table.SlotSizeInDW(cat, slot)))
		}
		e.write(loc, words)
	}
	e.state = e.state.mark(evResourceSet)

	if e.validator != nil {
		vs := make([]desc.Descriptor, len(ds))
		for i := range ds {
			vs[i] = P(&ds[i])
		}
		e.validator.OnSet(e, cat, start, vs)
	}
}

// write puts words at loc. Register writes go out immediately.
func (e *Engine) write(loc offsets.Location, words []uint32) {
	switch loc.Kind {
	case offsets.LocationRegister:
		e.sink.SetUserData(e.cfg.Stage, int(loc.Reg), words)
	case offsets.LocationScratch:
		copy(e.scratch[loc.Offset/4:], words)
	}
}

// SetAppendConsumeRange sets the append/consume counter range.
func (e *Engine) SetAppendConsumeRange(base, size uint32) {
	e.setPointer(offsets.PointerAppendConsumeCounter, []uint32{base<<16 | size&0xFFFF})
}

// SetGDSRange sets the global data share range.
func (e *Engine) SetGDSRange(base, size uint32) {
	e.setPointer(offsets.PointerGDSRange, []uint32{base<<16 | size&0xFFFF})
}

// SetFetchShader sets the fetch shader address.
func (e *Engine) SetFetchShader(addr uint64) {
	e.setPointer(offsets.PointerFetchShader, []uint32{uint32(addr), uint32(addr >> 32)})
}

// SetUserResourceTable sets the user resource table words. words must
// not be longer than the shader's declared table.
func (e *Engine) SetUserResourceTable(words []uint32) {
	e.setPointer(offsets.PointerUserResourceTable, words)
}

func (e *Engine) setPointer(p offsets.Pointer, words []uint32) {
	e.mustBeBound()
	pr := e.table.Pointer(p)
	if pr.Used() && len(words) > int(pr.SizeInDW) {
		panic(fmt.Sprintf("bind: %d words for %v, shader declares %d", len(words), p, pr.SizeInDW))
	}
	e.write(pr.Loc, words)
	e.state = e.state.mark(evResourceSet)

	if e.validator != nil {
		e.validator.OnImmediate(e, p)
	}
}

func (e *Engine) mustBeBound() {
	if e.table == nil {
		panic("bind: no table bound")
	}
}

// Flush commits pending state. A changed shader is sent to the sink. If
// anything changed, the scratch area is copied into a fresh ring
// reservation and the table pointers are written. Flush on a clean
// engine does nothing.
//
// On allocator exhaustion Flush returns an error wrapping
// ring.ErrOutOfMemory and the engine stays dirty.
func (e *Engine) Flush() error {
	e.mustBeBound()
	if e.state == Clean {
		return nil
	}
	if e.validator != nil {
		e.validator.BeforeFlush(e)
	}

	words := e.table.RequiredScratchSizeInWords()
	var a ring.Allocation
	if words > 0 {
		var err error
		a, err = e.alloc.Reserve(words)
		if err != nil {
			return fmt.Errorf("bind: flush %v: %w", e.cfg.Stage, err)
		}
	}

	if e.state.has(ShaderChanged) {
		e.sink.SetShader(e.cfg.Stage, e.shader.Addr)
		if e.cfg.Prefetch {
			e.sink.PrefetchCode(e.shader.Addr, e.shader.CodeSize())
		}
	}

	if words > 0 {
		e.patchPointers(a.Addr, offsets.LocationScratch)
		copy(a.Mem, e.scratch[:words])
		if e.uploader != nil {
			if err := e.uploader.Upload(a); err != nil {
				return fmt.Errorf("bind: upload %v: %w", e.cfg.Stage, err)
			}
		}
	}
	e.patchPointers(a.Addr, offsets.LocationRegister)

	resbind.Logger().Debug("bind: flushed",
		"stage", e.cfg.Stage,
		"state", e.state,
		"words", words,
		"addr", a.Addr)

	e.last = a
	e.flushes++
	e.state = e.state.mark(evFlushed)
	return nil
}

// patchPointers writes the address pointers whose location has kind.
// Table pointers and the extended user data pointer resolve into the
// reservation at base; the global table pointer resolves to the global
// table.
func (e *Engine) patchPointers(base uint64, kind offsets.LocationKind) {
	for p := range offsets.Pointer(offsets.NumPointers) {
		pr := e.table.Pointer(p)
		if pr.Loc.Kind != kind {
			continue
		}

		var addr uint64
		switch {
		case p == offsets.PointerGlobalInternalTable:
			addr = e.GlobalTableAddr()
		case p == offsets.PointerExtendedUserData || p.IsTable():
			addr = base + uint64(pr.TableOffset)
		default:
			continue
		}
		e.write(pr.Loc, []uint32{uint32(addr), uint32(addr >> 32)})
	}
}

// GlobalTableAddr returns the address the global internal table pointer
// resolves to.
func (e *Engine) GlobalTableAddr() uint64 {
	if e.global != nil {
		return e.global.Addr()
	}
	return e.alloc.GlobalTableAddr()
}

// Dispatch flushes and submits a compute grid. It panics on a non-compute
// engine.
func (e *Engine) Dispatch(x, y, z uint32) error {
	if e.cfg.Stage != shaderbin.StageCompute {
		panic(fmt.Sprintf("bind: Dispatch on %v engine", e.cfg.Stage))
	}
	if err := e.Flush(); err != nil {
		return err
	}
	e.sink.Dispatch(x, y, z)
	e.submits++
	return nil
}

// Draw flushes and submits a draw. It panics on a compute engine.
func (e *Engine) Draw(vertexCount, instanceCount uint32) error {
	if e.cfg.Stage == shaderbin.StageCompute {
		panic("bind: Draw on compute engine")
	}
	if err := e.Flush(); err != nil {
		return err
	}
	e.sink.Draw(vertexCount, instanceCount)
	e.submits++
	return nil
}

// Reset starts a new submission cycle: the ring advances to its next
// region and the bound state is marked dirty so the next flush writes it
// into the new region.
func (e *Engine) Reset() {
	e.alloc.Swap()
	e.last = ring.Allocation{}
	if e.table != nil {
		e.state = e.state.mark(evReset)
	}
}

// WaitIdle drains the pipeline through the sink and returns a token
// permitting GlobalTable writes until the next submission.
func (e *Engine) WaitIdle() PipelineIdle {
	e.sink.WaitIdle()
	return PipelineIdle{e: e, submit: e.submits}
}

// Stage returns the engine stage.
func (e *Engine) Stage() shaderbin.Stage { return e.cfg.Stage }

// Config returns the engine configuration with defaults applied.
func (e *Engine) Config() Config { return e.cfg }

// State returns what changed since the last flush.
func (e *Engine) State() Dirty { return e.state }

// Shader returns the bound shader, or nil.
func (e *Engine) Shader() *Shader { return e.shader }

// Table returns the bound table, or nil.
func (e *Engine) Table() *offsets.Table { return e.table }

// Allocator returns the engine's ring allocator.
func (e *Engine) Allocator() *ring.Allocator { return e.alloc }

// LastAllocation returns the reservation of the most recent flush in the
// current cycle.
func (e *Engine) LastAllocation() ring.Allocation { return e.last }

// Flushes returns the number of flushes that did work.
func (e *Engine) Flushes() uint64 { return e.flushes }

// ScratchUsedBytes returns the scratch bytes the bound table occupies.
func (e *Engine) ScratchUsedBytes() int {
	if e.table == nil {
		return 0
	}
	return e.table.RequiredScratchSizeInWords() * 4
}

// ScratchRemainingBytes returns the scratch bytes the bound table leaves
// free.
func (e *Engine) ScratchRemainingBytes() int {
	return len(e.scratch)*4 - e.ScratchUsedBytes()
}

// ResourceBufferUsedBytes returns the bytes reserved from the ring this
// cycle.
func (e *Engine) ResourceBufferUsedBytes() int { return e.alloc.Used() * 4 }

// ResourceBufferRemainingBytes returns the bytes left in the active ring
// region.
func (e *Engine) ResourceBufferRemainingBytes() int { return e.alloc.Remaining() * 4 }
