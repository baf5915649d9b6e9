package bind

import (
	"github.com/gogpu/resbind/desc"
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/ring"
	"github.com/gogpu/resbind/shaderbin"
)

// Sink receives the commands an Engine emits. It is the command buffer of
// the surrounding renderer.
//
// Slices passed to a Sink are only valid for the duration of the call.
type Sink interface {
	// SetShader binds the shader code at addr to stage.
	SetShader(stage shaderbin.Stage, addr uint64)

	// PrefetchCode warms the instruction cache for a code range.
	PrefetchCode(addr uint64, sizeBytes int)

	// SetUserData writes words to consecutive user-data registers.
	SetUserData(stage shaderbin.Stage, startReg int, words []uint32)

	// Dispatch submits a compute grid.
	Dispatch(x, y, z uint32)

	// Draw submits a non-indexed draw.
	Draw(vertexCount, instanceCount uint32)

	// WaitIdle blocks until the pipeline has drained.
	WaitIdle()
}

// Uploader makes reserved ring memory visible to the GPU. It is needed
// when ring regions are CPU shadows, as with ring.HALSource.
type Uploader interface {
	Upload(a ring.Allocation) error
}

// Validator observes an Engine. See package validate for the standard
// implementation.
type Validator interface {
	// OnBind is called after a table is bound.
	OnBind(e *Engine, t *offsets.Table)

	// OnSet is called after descriptors were written to slots
	// [start, start+len(descs)) of cat.
	OnSet(e *Engine, cat offsets.Category, start int, descs []desc.Descriptor)

	// OnImmediate is called after a pointer value was set.
	OnImmediate(e *Engine, p offsets.Pointer)

	// BeforeFlush is called before a dirty engine flushes.
	BeforeFlush(e *Engine)
}
