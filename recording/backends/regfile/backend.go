// Package regfile provides a register-file backend for the recording
// system. It simulates what the hardware would see after a playback: the
// user-data registers and shader address of every stage, plus the last
// submission.
//
// Tests use it to assert the final register state without caring about the
// exact command sequence that produced it.
//
// # Example
//
//	import _ "github.com/gogpu/resbind/recording/backends/regfile"
//
//	b := regfile.NewBackend()
//	if err := rec.Playback(b); err != nil {
//		return err
//	}
//	ptr := b.Registers(shaderbin.StageCompute)[0]
package regfile

import (
	"errors"
	"fmt"

	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/recording"
	"github.com/gogpu/resbind/shaderbin"
)

func init() {
	recording.Register("regfile", func() recording.Backend {
		return NewBackend()
	})
}

var (
	// ErrRegisterRange is returned from End when a command wrote past the
	// user-data register file.
	ErrRegisterRange = errors.New("regfile: user-data register out of range")

	// ErrInvalidStage is returned from End when a command named an
	// undefined stage.
	ErrInvalidStage = errors.New("regfile: invalid stage")
)

// Submit is a recorded dispatch or draw.
type Submit struct {
	Compute bool
	Grid    [3]uint32 // Dispatch
	Counts  [2]uint32 // Draw: vertices, instances

	// Shader is the address bound to the submitting stage.
	Shader uint64
}

type stageState struct {
	regs    [offsets.NumUserDataRegisters]uint32
	written [offsets.NumUserDataRegisters]bool
	shader  uint64
}

// Backend simulates a per-stage user-data register file.
type Backend struct {
	stages     [shaderbin.NumStages]stageState
	last       Submit
	submits    int
	waits      int
	prefetched int // bytes
	errs       []error
}

var _ recording.Backend = (*Backend)(nil)

// NewBackend creates a backend with all registers zeroed.
func NewBackend() *Backend {
	return &Backend{}
}

// Begin implements recording.Backend. All state is cleared.
func (b *Backend) Begin() error {
	*b = Backend{}
	return nil
}

// End implements recording.Backend. It returns every range or stage
// violation seen during playback.
func (b *Backend) End() error {
	return errors.Join(b.errs...)
}

// SetShader implements bind.Sink.
func (b *Backend) SetShader(stage shaderbin.Stage, addr uint64) {
	if s := b.stage(stage); s != nil {
		s.shader = addr
	}
}

// PrefetchCode implements bind.Sink.
func (b *Backend) PrefetchCode(_ uint64, sizeBytes int) {
	b.prefetched += sizeBytes
}

// SetUserData implements bind.Sink.
func (b *Backend) SetUserData(stage shaderbin.Stage, startReg int, words []uint32) {
	s := b.stage(stage)
	if s == nil {
		return
	}
	if startReg < 0 || startReg+len(words) > offsets.NumUserDataRegisters {
		b.errs = append(b.errs, fmt.Errorf("%w: %v r%d+%d", ErrRegisterRange, stage, startReg, len(words)))
		return
	}
	copy(s.regs[startReg:], words)
	for i := range words {
		s.written[startReg+i] = true
	}
}

// Dispatch implements bind.Sink.
func (b *Backend) Dispatch(x, y, z uint32) {
	b.last = Submit{
		Compute: true,
		Grid:    [3]uint32{x, y, z},
		Shader:  b.stages[shaderbin.StageCompute].shader,
	}
	b.submits++
}

// Draw implements bind.Sink.
func (b *Backend) Draw(vertexCount, instanceCount uint32) {
	b.last = Submit{
		Counts: [2]uint32{vertexCount, instanceCount},
		Shader: b.stages[shaderbin.StageVertex].shader,
	}
	b.submits++
}

// WaitIdle implements bind.Sink.
func (b *Backend) WaitIdle() {
	b.waits++
}

// Registers returns a copy of the user-data registers of stage.
func (b *Backend) Registers(stage shaderbin.Stage) []uint32 {
	if !stage.Valid() {
		return nil
	}
	regs := b.stages[stage].regs
	return regs[:]
}

// Written reports whether register reg of stage was written since Begin.
func (b *Backend) Written(stage shaderbin.Stage, reg int) bool {
	if !stage.Valid() || reg < 0 || reg >= offsets.NumUserDataRegisters {
		return false
	}
	return b.stages[stage].written[reg]
}

// Shader returns the code address bound to stage, or 0.
func (b *Backend) Shader(stage shaderbin.Stage) uint64 {
	if !stage.Valid() {
		return 0
	}
	return b.stages[stage].shader
}

// Last returns the most recent submission.
func (b *Backend) Last() Submit { return b.last }

// Submits returns the number of dispatches and draws.
func (b *Backend) Submits() int { return b.submits }

// Waits returns the number of WaitIdle commands.
func (b *Backend) Waits() int { return b.waits }

// PrefetchedBytes returns the total size of prefetched code.
func (b *Backend) PrefetchedBytes() int { return b.prefetched }

func (b *Backend) stage(stage shaderbin.Stage) *stageState {
	if !stage.Valid() {
		b.errs = append(b.errs, fmt.Errorf("%w: %v", ErrInvalidStage, stage))
		return nil
	}
	return &b.stages[stage]
}
