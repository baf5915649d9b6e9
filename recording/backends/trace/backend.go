// Package trace provides a text backend for the recording system.
// Each command becomes one line, which makes recordings easy to diff in
// tests and to read in the resbind command.
//
// # Format
//
//	set_shader compute 0x0000000000100000
//	prefetch 0x0000000000100000 64
//	user_data compute r0 00200000 00000000
//	dispatch 8 8 1
//	draw 3 1
//	wait_idle
//
// # Example
//
//	// Import to register the backend
//	import _ "github.com/gogpu/resbind/recording/backends/trace"
//
//	// Create via registry (buffers output)
//	backend, _ := recording.NewBackend("trace")
//
//	// Or write straight to a stream
//	backend := trace.NewWriterBackend(os.Stdout)
package trace

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/resbind"
	"github.com/gogpu/resbind/recording"
	"github.com/gogpu/resbind/shaderbin"
)

func init() {
	recording.Register("trace", func() recording.Backend {
		return NewBackend()
	})
}

// Backend writes one text line per command.
// The first write error is kept and returned from End; later lines are
// dropped.
type Backend struct {
	w     io.Writer
	buf   *bytes.Buffer // non-nil when the backend owns its output
	lines int
	err   error
}

var _ recording.Backend = (*Backend)(nil)

// NewBackend creates a backend that buffers its output. Read it back with
// String or WriteTo.
func NewBackend() *Backend {
	buf := &bytes.Buffer{}
	return &Backend{w: buf, buf: buf}
}

// NewWriterBackend creates a backend that writes to w.
func NewWriterBackend(w io.Writer) *Backend {
	return &Backend{w: w}
}

// Begin implements recording.Backend. A buffering backend starts over.
func (b *Backend) Begin() error {
	if b.buf != nil {
		b.buf.Reset()
	}
	b.lines = 0
	b.err = nil
	return nil
}

// End implements recording.Backend.
func (b *Backend) End() error {
	resbind.Logger().Debug("trace: playback finished", "lines", b.lines)
	return b.err
}

// SetShader implements bind.Sink.
func (b *Backend) SetShader(stage shaderbin.Stage, addr uint64) {
	b.printf("set_shader %v %#016x", stage, addr)
}

// PrefetchCode implements bind.Sink.
func (b *Backend) PrefetchCode(addr uint64, sizeBytes int) {
	b.printf("prefetch %#016x %d", addr, sizeBytes)
}

// SetUserData implements bind.Sink.
func (b *Backend) SetUserData(stage shaderbin.Stage, startReg int, words []uint32) {
	var sb strings.Builder
	for _, w := range words {
		fmt.Fprintf(&sb, " %08x", w)
	}
	b.printf("user_data %v r%d%s", stage, startReg, sb.String())
}

// Dispatch implements bind.Sink.
func (b *Backend) Dispatch(x, y, z uint32) {
	b.printf("dispatch %d %d %d", x, y, z)
}

// Draw implements bind.Sink.
func (b *Backend) Draw(vertexCount, instanceCount uint32) {
	b.printf("draw %d %d", vertexCount, instanceCount)
}

// WaitIdle implements bind.Sink.
func (b *Backend) WaitIdle() {
	b.printf("wait_idle")
}

// Lines returns the number of lines written since Begin.
func (b *Backend) Lines() int {
	return b.lines
}

// String returns the buffered output. It is empty for a writer backend.
func (b *Backend) String() string {
	if b.buf == nil {
		return ""
	}
	return b.buf.String()
}

// WriteTo writes the buffered output to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	if b.buf == nil {
		return 0, nil
	}
	return b.buf.WriteTo(w)
}

func (b *Backend) printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	if _, err := fmt.Fprintf(b.w, format+"\n", args...); err != nil {
		b.err = fmt.Errorf("trace: line %d: %w", b.lines+1, err)
		return
	}
	b.lines++
}
