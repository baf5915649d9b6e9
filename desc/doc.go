// Package desc defines the fixed-size hardware descriptors the binding
// engine copies into registers and scratch memory.
//
// A Buffer and a Sampler are four dwords, a Texture is eight. The word
// layouts are:
//
//	Buffer   w0 base[31:0]
//	         w1 base[47:32] | stride<<16 (14 bits)
//	         w2 num records
//	         w3 format | memtype<<8 | type<<28
//
//	Texture  w0 base[39:8]
//	         w1 base[47:40] | format<<8 | memtype<<16
//	         w2 (width-1) | (height-1)<<14
//	         w3 (depth-1) | type<<28
//	         w4 (pitch-1) | (mips-1)<<14
//	         w5..w7 reserved
//
//	Sampler  w0 clampX | clampY<<3 | clampZ<<6
//	         w1 minLOD | maxLOD<<12 (4.8 fixed point)
//	         w2 mag | min<<2 | mip<<4
//	         w3 border | 1<<31 (initialized)
//
// An all-zero descriptor is never valid: buffers and textures carry a
// non-zero type and samplers carry the initialized bit.
package desc
