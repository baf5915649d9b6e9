// Package ring implements the resource buffer allocator: a bump allocator
// over a small ring of graphics-visible regions.
//
// An Allocator is handed 1 to 4 regions at construction. Reserve carves
// monotonically increasing sub-allocations out of the current region;
// Swap advances to the next region once per submission cycle and resets
// its cursor. There is no free: space comes back only on Swap.
//
// When the current region cannot satisfy a request, the allocator asks
// its BufferSource for a replacement region. Without a source, or when
// the source fails or grants less than requested, Reserve returns
// ErrOutOfMemory and the caller must not submit the work.
//
// HALSource is a BufferSource that backs every region with a buffer on a
// github.com/gogpu/wgpu/hal device.
//
// The allocator does not synchronize with the GPU. Callers must not Swap
// back onto a region the GPU may still be reading.
package ring
