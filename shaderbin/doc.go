// Package shaderbin models the metadata block a shader compiler appends to
// every compiled shader binary.
//
// The block sits at the end of the blob and is read backward from a fixed
// 32-byte footer:
//
//	[ code ][ semantics ][ chunk mask words ][ usage slots ][ footer ]
//
// The footer carries a 56-bit magic signature with a version byte, the
// shader stage, the number of input usage slots and the dword offsets
// (counted back from the footer) of the usage slot array, the chunk mask
// pool and the vertex semantic list. Each usage slot names one resource
// the shader reads: its kind, its logical API slot, its first user-data
// register and a chunk mask selecting which 32-slot mask words follow it
// in the pool.
//
// Parse decodes a binary. Writer produces one, and FromWGSL builds a
// binary from WGSL source through naga.
package shaderbin
