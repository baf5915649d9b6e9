package recording

import (
	"fmt"

	"github.com/gogpu/resbind/shaderbin"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Shader commands
	CmdSetShader    CommandType = iota // Bind shader code to a stage
	CmdPrefetchCode                    // Warm the instruction cache

	// User-data commands
	CmdSetUserData // Write consecutive user-data registers

	// Submission commands
	CmdDispatch // Submit a compute grid
	CmdDraw     // Submit a non-indexed draw
	CmdWaitIdle // Drain the pipeline
)

var commandTypeNames = [...]string{
	CmdSetShader:    "SetShader",
	CmdPrefetchCode: "PrefetchCode",
	CmdSetUserData:  "SetUserData",
	CmdDispatch:     "Dispatch",
	CmdDraw:         "Draw",
	CmdWaitIdle:     "WaitIdle",
}

// String returns the name of the command type.
func (t CommandType) String() string {
	if int(t) < len(commandTypeNames) {
		return commandTypeNames[t]
	}
	return fmt.Sprintf("CommandType(%d)", uint8(t))
}

// IsSubmit reports whether the command hands work to the GPU.
func (t CommandType) IsSubmit() bool {
	return t == CmdDispatch || t == CmdDraw
}

// Command is a recorded engine command.
type Command interface {
	Type() CommandType
}

// SetShaderCommand binds shader code at Addr to Stage.
type SetShaderCommand struct {
	Stage shaderbin.Stage
	Addr  uint64
}

// Type implements Command.
func (SetShaderCommand) Type() CommandType { return CmdSetShader }

// PrefetchCodeCommand warms the instruction cache for a code range.
type PrefetchCodeCommand struct {
	Addr      uint64
	SizeBytes int
}

// Type implements Command.
func (PrefetchCodeCommand) Type() CommandType { return CmdPrefetchCode }

// SetUserDataCommand writes the pooled words to registers starting at
// StartReg.
type SetUserDataCommand struct {
	Stage    shaderbin.Stage
	StartReg int
	Words    WordsRef
}

// Type implements Command.
func (SetUserDataCommand) Type() CommandType { return CmdSetUserData }

// DispatchCommand submits an X*Y*Z compute grid.
type DispatchCommand struct {
	X, Y, Z uint32
}

// Type implements Command.
func (DispatchCommand) Type() CommandType { return CmdDispatch }

// DrawCommand submits a non-indexed draw.
type DrawCommand struct {
	VertexCount   uint32
	InstanceCount uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// WaitIdleCommand drains the pipeline.
type WaitIdleCommand struct{}

// Type implements Command.
func (WaitIdleCommand) Type() CommandType { return CmdWaitIdle }

// Compile-time checks.
var (
	_ Command = SetShaderCommand{}
	_ Command = PrefetchCodeCommand{}
	_ Command = SetUserDataCommand{}
	_ Command = DispatchCommand{}
	_ Command = DrawCommand{}
	_ Command = WaitIdleCommand{}
)
