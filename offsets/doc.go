// Package offsets builds the input resource offset table of a shader.
//
// The table maps every logical API slot of every resource category to the
// place its descriptor must be written before the shader runs: one of the
// 16 fast user-data registers, or a byte offset inside the scratch block
// the binding engine flushes into the resource ring. It also records the
// pointer registers (table pointers, extended user data, fetch shader,
// global table and the immediate counter ranges) and the tight scratch
// size the shader needs.
//
// Tables are built once per shader, are immutable afterwards and are safe
// to share between goroutines.
package offsets
