// Package bind implements the binding engine: a per-stage object that maps
// resource descriptors onto the locations a compiled shader expects.
//
// An Engine is bound to a shader and its offsets.Table. Set calls then
// write each descriptor either straight to a user-data register through
// the Sink or into the engine's scratch area. Flush reserves memory from
// the ring allocator, copies the scratch area into it and writes the
// table pointers into their registers.
//
// Dispatch and Draw always flush first, so submitted work never sees
// stale resources.
//
// # State
//
// The engine tracks what changed since the last flush as a Dirty value.
// Binding a different shader marks ShaderChanged; any setter marks
// ResourcesChanged. Flush on a Clean engine does nothing.
//
// # Contract violations
//
// Stage mismatches, slots past the configured maximum and set calls with
// no bound table are programmer errors and panic. Allocator exhaustion is
// returned as an error wrapping ring.ErrOutOfMemory; the work is not
// submitted.
//
// An Engine is not safe for concurrent use. Engines with disjoint
// allocators may run on different goroutines.
package bind
