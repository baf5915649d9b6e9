// Package resbind is a shader resource-binding accelerator.
//
// # Overview
//
// Given a compiled shader binary, resbind precomputes a compact offset
// table describing where every shader input (buffers, textures, samplers,
// constant buffers, vertex and stream-out buffers) must be written: either
// directly into one of the 16 fast user-data registers, or at a byte offset
// inside a scratch block that is flushed into graphics-visible memory before
// each dispatch or draw.
//
// At submission time a binding engine copies caller-supplied descriptors
// into those locations, copies the scratch block into a ring of resource
// buffers and patches the table pointer registers the shader reads.
//
// # Packages
//
//   - shaderbin: shader binary metadata (footer, usage slots, semantics)
//   - desc: buffer, texture and sampler descriptors
//   - offsets: the offset table builder
//   - ring: the resource buffer ring allocator and its HAL-backed source
//   - bind: the per-stage binding engine
//   - validate: the optional validation layer
//   - cache: a sharded cache of offset tables keyed by shader hash
//   - recording: a command sink that records engine output for playback
//
// # Quick Start
//
//	data, _ := shaderbin.FromWGSL(src, "main")
//	bin, _ := shaderbin.Parse(data)
//	table := offsets.MustBuild(shaderbin.StageCompute, bin)
//
//	alloc, _ := ring.New(ring.Config{Regions: regions}, nil)
//	rec := recording.NewRecorder()
//	eng := bind.New(bind.DefaultConfig(shaderbin.StageCompute), alloc, rec)
//
//	eng.Bind(&bind.Shader{Binary: bin, Addr: codeAddr}, table)
//	eng.SetConstantBuffers(0, []desc.Buffer{cb})
//	eng.SetTextures(0, []desc.Texture{texA, texB})
//	if err := eng.Dispatch(8, 8, 1); err != nil {
//	    // ring.ErrOutOfMemory: the dispatch was not submitted
//	}
//
// # Logging
//
// resbind is silent by default. Call [SetLogger] to route diagnostics to
// any slog handler.
package resbind
