// Package recording captures the command stream of a bind.Engine.
//
// A Recorder implements bind.Sink. Instead of talking to hardware it stores
// each command as a typed struct, so a flush can be inspected, compared in
// tests, or replayed later to any Backend.
//
// # Architecture
//
// Commands cover everything the engine emits:
//   - Shader commands (SetShader, PrefetchCode)
//   - User-data commands (SetUserData)
//   - Submission commands (Dispatch, Draw, WaitIdle)
//
// User-data payloads are copied into a WordPool and referenced by WordsRef,
// because the engine only guarantees a slice for the duration of the call.
//
// # Backends
//
// Backends register themselves by name, following the database/sql driver
// pattern:
//
//	import _ "github.com/gogpu/resbind/recording/backends/trace"
//
//	b, err := recording.NewBackend("trace")
//
// Two backends ship with the module:
//   - trace: one text line per command
//   - regfile: a simulated user-data register file
//
// # Example
//
//	rec := recording.NewRecorder()
//	e := bind.New(cfg, alloc, rec)
//	e.Bind(shader, table)
//	e.SetTextures(0, textures...)
//	e.Dispatch(8, 8, 1)
//
//	r := rec.FinishRecording()
//	if err := r.Playback(recording.MustBackend("trace")); err != nil {
//		log.Fatal(err)
//	}
package recording
