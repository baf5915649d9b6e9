package recording

import (
	"github.com/gogpu/resbind/bind"
	"github.com/gogpu/resbind/shaderbin"
)

// Recorder captures engine commands.
// It implements bind.Sink but generates commands instead of touching
// hardware. Use FinishRecording to obtain an immutable Recording that can
// be replayed to different backends.
//
// Example:
//
//	rec := recording.NewRecorder()
//	e := bind.New(bind.DefaultConfig(shaderbin.StageCompute), alloc, rec)
//	// bind, set, dispatch ...
//	r := rec.FinishRecording()
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	commands []Command
	words    *WordPool
}

var _ bind.Sink = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		commands: make([]Command, 0, 256),
		words:    NewWordPool(),
	}
}

// FinishRecording returns an immutable Recording containing all recorded
// commands. The Recorder is reset and may be reused for a new recording.
func (r *Recorder) FinishRecording() *Recording {
	rec := &Recording{
		commands: r.commands,
		words:    r.words,
	}
	r.commands = make([]Command, 0, cap(r.commands))
	r.words = NewWordPool()
	return rec
}

// Len returns the number of commands recorded so far.
func (r *Recorder) Len() int {
	return len(r.commands)
}

// SetShader implements bind.Sink.
func (r *Recorder) SetShader(stage shaderbin.Stage, addr uint64) {
	r.commands = append(r.commands, SetShaderCommand{Stage: stage, Addr: addr})
}

// PrefetchCode implements bind.Sink.
func (r *Recorder) PrefetchCode(addr uint64, sizeBytes int) {
	r.commands = append(r.commands, PrefetchCodeCommand{Addr: addr, SizeBytes: sizeBytes})
}

// SetUserData implements bind.Sink. The words are copied.
func (r *Recorder) SetUserData(stage shaderbin.Stage, startReg int, words []uint32) {
	r.commands = append(r.commands, SetUserDataCommand{
		Stage:    stage,
		StartReg: startReg,
		Words:    r.words.Add(words),
	})
}

// Dispatch implements bind.Sink.
func (r *Recorder) Dispatch(x, y, z uint32) {
	r.commands = append(r.commands, DispatchCommand{X: x, Y: y, Z: z})
}

// Draw implements bind.Sink.
func (r *Recorder) Draw(vertexCount, instanceCount uint32) {
	r.commands = append(r.commands, DrawCommand{VertexCount: vertexCount, InstanceCount: instanceCount})
}

// WaitIdle implements bind.Sink.
func (r *Recorder) WaitIdle() {
	r.commands = append(r.commands, WaitIdleCommand{})
}

// Recording is an immutable container for recorded engine commands.
// It can be replayed to any Backend implementation.
type Recording struct {
	commands []Command
	words    *WordPool
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Words returns the payload pool.
func (r *Recording) Words() *WordPool {
	return r.words
}

// Len returns the number of recorded commands.
func (r *Recording) Len() int {
	return len(r.commands)
}

// Count returns how many commands of type t were recorded.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Submits returns the number of dispatches and draws.
func (r *Recording) Submits() int {
	return r.Count(CmdDispatch) + r.Count(CmdDraw)
}

// UserData returns the payload of a SetUserData command.
func (r *Recording) UserData(c SetUserDataCommand) []uint32 {
	return r.words.Get(c.Words)
}

// Playback replays the recording to the given backend.
func (r *Recording) Playback(backend Backend) error {
	if err := backend.Begin(); err != nil {
		return err
	}

	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case SetShaderCommand:
			backend.SetShader(c.Stage, c.Addr)
		case PrefetchCodeCommand:
			backend.PrefetchCode(c.Addr, c.SizeBytes)
		case SetUserDataCommand:
			backend.SetUserData(c.Stage, c.StartReg, r.words.Get(c.Words))
		case DispatchCommand:
			backend.Dispatch(c.X, c.Y, c.Z)
		case DrawCommand:
			backend.Draw(c.VertexCount, c.InstanceCount)
		case WaitIdleCommand:
			backend.WaitIdle()
		}
	}

	return backend.End()
}
