package shaderbin

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Stage is the pipeline stage a shader binary was compiled for.
// Stages are mutually exclusive: a binary belongs to exactly one.
type Stage uint8

// Shader stages, in footer encoding order.
const (
	StageCompute Stage = iota
	StageVertex
	StageFragment
	StageGeometry
	StageHull
	StageDomain

	numStages
)

// NumStages is the number of defined stages.
const NumStages = int(numStages)

var stageNames = [numStages]string{
	StageCompute:  "compute",
	StageVertex:   "vertex",
	StageFragment: "fragment",
	StageGeometry: "geometry",
	StageHull:     "hull",
	StageDomain:   "domain",
}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Valid reports whether s is a defined stage.
func (s Stage) Valid() bool {
	return s < numStages
}

// GPUStage maps the stage to its WebGPU visibility flag.
// Geometry, hull and domain stages have no WebGPU counterpart and map to 0.
func (s Stage) GPUStage() gputypes.ShaderStage {
	switch s {
	case StageCompute:
		return gputypes.ShaderStageCompute
	case StageVertex:
		return gputypes.ShaderStageVertex
	case StageFragment:
		return gputypes.ShaderStageFragment
	default:
		return 0
	}
}

// ParseStage returns the stage with the given name.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStage, name)
}
