package shaderbin

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// ErrEntryPointNotFound is returned by FromWGSL when the named entry point
// does not exist in the module.
var ErrEntryPointNotFound = errors.New("shaderbin: entry point not found")

// wgslKind is the resource class of a WGSL global.
type wgslKind uint8

const (
	wgslConstantBuffer wgslKind = iota
	wgslResource
	wgslRWResource
	wgslSampler
	numWGSLKinds
)

// tableKinds maps resource classes to their table pointer kinds.
var tableKinds = [numWGSLKinds]UsageKind{
	wgslConstantBuffer: PointerConstantBufferTable,
	wgslResource:       PointerResourceTable,
	wgslRWResource:     PointerRWResourceTable,
	wgslSampler:        PointerSamplerTable,
}

// FromWGSL compiles WGSL source with naga and returns a shader binary for
// the named entry point. The code section holds the SPIR-V module
// generated from the lowered IR.
//
// Resource globals are numbered per class in (group, binding) order:
//   - uniform buffers become constant buffers
//   - storage buffers become raw read/write resources
//   - sampled and depth textures become resources
//   - storage textures become read/write resources
//   - samplers become samplers
//
// A class with a single binding whose descriptor fits the remaining user
// data registers is placed there immediately; every other class is read
// through a table pointer. Vertex entry points with location inputs also
// get a vertex buffer table and one semantic per location.
func FromWGSL(source, entry string) ([]byte, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("shaderbin: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("shaderbin: %w", err)
	}

	ep, err := findEntryPoint(module, entry)
	if err != nil {
		return nil, err
	}
	stage, err := stageFromIR(ep.Stage)
	if err != nil {
		return nil, err
	}

	w := NewWriter(stage)

	reg := uint8(0)
	if stage == StageVertex {
		sems := vertexSemantics(module, ep)
		if len(sems) > 0 {
			slots := make([]int, len(sems))
			for i, s := range sems {
				w.AddSemantic(s)
				slots[i] = int(s.Index)
			}
			w.AddTable(PointerVertexBufferTable, reg, slots...)
			reg += 2
		}
	}

	classes := classifyGlobals(module)

	// Tables first so every pointer is guaranteed a register; immediates
	// take what is left.
	var immediate [numWGSLKinds]bool
	budget := 16 - int(reg)
	for _, c := range classes {
		if len(c) > 0 {
			budget -= 2
		}
	}
	for k, c := range classes {
		if len(c) != 1 {
			continue
		}
		size := immediateSize(wgslKind(k), c[0])
		// The reserved pointer is given back when the class goes immediate.
		if size-2 <= budget {
			immediate[k] = true
			budget -= size - 2
		}
	}

	for k, c := range classes {
		if len(c) == 0 || immediate[k] {
			continue
		}
		slots := make([]int, len(c))
		for i := range c {
			slots[i] = i
		}
		w.AddTable(tableKinds[k], reg, slots...)
		reg += 2
	}
	for k, c := range classes {
		if !immediate[k] {
			continue
		}
		u := immediateSlot(wgslKind(k), c[0])
		u.StartRegister = reg
		w.AddUsage(u)
		reg += uint8(u.SizeInDW())
	}

	code, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, fmt.Errorf("shaderbin: %w", err)
	}
	return w.SetCode(code).Bytes()
}

func findEntryPoint(module *ir.Module, name string) (*ir.EntryPoint, error) {
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Name == name {
			return &module.EntryPoints[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, name)
}

func stageFromIR(s ir.ShaderStage) (Stage, error) {
	switch s {
	case ir.StageVertex:
		return StageVertex, nil
	case ir.StageFragment:
		return StageFragment, nil
	case ir.StageCompute:
		return StageCompute, nil
	default:
		return 0, fmt.Errorf("%w: naga stage %d", ErrInvalidStage, s)
	}
}

// wgslGlobal is a bound resource global.
type wgslGlobal struct {
	group, binding uint32
	image          bool
	raw            bool
}

// classifyGlobals buckets the bound globals per resource class, each
// bucket sorted by (group, binding).
func classifyGlobals(module *ir.Module) [numWGSLKinds][]wgslGlobal {
	var out [numWGSLKinds][]wgslGlobal
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil || int(gv.Type) >= len(module.Types) {
			continue
		}
		g := wgslGlobal{group: gv.Binding.Group, binding: gv.Binding.Binding}

		switch gv.Space {
		case ir.SpaceUniform:
			out[wgslConstantBuffer] = append(out[wgslConstantBuffer], g)
		case ir.SpaceStorage:
			g.raw = true
			out[wgslRWResource] = append(out[wgslRWResource], g)
		case ir.SpaceHandle:
			switch t := module.Types[gv.Type].Inner.(type) {
			case ir.ImageType:
				g.image = true
				if t.Class == ir.ImageClassStorage {
					out[wgslRWResource] = append(out[wgslRWResource], g)
				} else {
					out[wgslResource] = append(out[wgslResource], g)
				}
			case ir.SamplerType:
				out[wgslSampler] = append(out[wgslSampler], g)
			}
		}
	}

	for k := range out {
		sort.Slice(out[k], func(i, j int) bool {
			a, b := out[k][i], out[k][j]
			if a.group != b.group {
				return a.group < b.group
			}
			return a.binding < b.binding
		})
	}
	return out
}

func immediateSlot(k wgslKind, g wgslGlobal) UsageSlot {
	switch k {
	case wgslConstantBuffer:
		return UsageSlot{Kind: ImmediateConstantBuffer}
	case wgslResource:
		return UsageSlot{Kind: ImmediateResource, Wide: g.image}
	case wgslRWResource:
		return UsageSlot{Kind: ImmediateRWResource, Wide: g.image, Raw: g.raw}
	default:
		return UsageSlot{Kind: ImmediateSampler}
	}
}

func immediateSize(k wgslKind, g wgslGlobal) int {
	return immediateSlot(k, g).SizeInDW()
}

// vertexSemantics returns one semantic per location input of the entry
// point, ordered by location. Struct arguments are flattened.
func vertexSemantics(module *ir.Module, ep *ir.EntryPoint) []Semantic {
	fn := &ep.Function

	var sems []Semantic
	add := func(b *ir.Binding, th ir.TypeHandle) {
		if b == nil {
			return
		}
		loc, ok := (*b).(ir.LocationBinding)
		if !ok || loc.Location > 31 {
			return
		}
		sems = append(sems, Semantic{
			Index:          uint8(loc.Location),
			SizeInElements: elementCount(module, th),
		})
	}

	for _, arg := range fn.Arguments {
		if arg.Binding != nil {
			add(arg.Binding, arg.Type)
			continue
		}
		if int(arg.Type) >= len(module.Types) {
			continue
		}
		if st, ok := module.Types[arg.Type].Inner.(ir.StructType); ok {
			for _, m := range st.Members {
				add(m.Binding, m.Type)
			}
		}
	}

	sort.Slice(sems, func(i, j int) bool { return sems[i].Index < sems[j].Index })
	vgpr := uint8(0)
	for i := range sems {
		sems[i].VGPR = vgpr
		vgpr += sems[i].SizeInElements
	}
	return sems
}

func elementCount(module *ir.Module, th ir.TypeHandle) uint8 {
	if int(th) >= len(module.Types) {
		return 1
	}
	if v, ok := module.Types[th].Inner.(ir.VectorType); ok {
		return uint8(v.Size)
	}
	return 1
}
