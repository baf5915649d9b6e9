package shaderbin

import (
	"fmt"
	"math/bits"
)

// UsageKind identifies what a usage slot declares. The values are part of
// the binary format.
type UsageKind uint8

// Immediate kinds place a value directly at the slot's start register.
const (
	ImmediateResource                  UsageKind = 0x00
	ImmediateSampler                   UsageKind = 0x01
	ImmediateConstantBuffer            UsageKind = 0x02
	ImmediateVertexBuffer              UsageKind = 0x03
	ImmediateRWResource                UsageKind = 0x04
	ImmediateAppendConsumeCounterRange UsageKind = 0x05
	ImmediateGDSRange                  UsageKind = 0x06
	ImmediateShaderResourceTable       UsageKind = 0x08
)

// Pointer kinds place a 64-bit address at the slot's start register.
// Table pointers are followed by chunk mask words in the mask pool.
const (
	PointerResourceTable       UsageKind = 0x10
	PointerRWResourceTable     UsageKind = 0x11
	PointerSamplerTable        UsageKind = 0x12
	PointerConstantBufferTable UsageKind = 0x13
	PointerVertexBufferTable   UsageKind = 0x14
	PointerStreamOutTable      UsageKind = 0x15
	PointerExtendedUserData    UsageKind = 0x16
	PointerInternalGlobalTable UsageKind = 0x17
	PointerFetchShader         UsageKind = 0x18
)

var usageNames = map[UsageKind]string{
	ImmediateResource:                  "ImmediateResource",
	ImmediateSampler:                   "ImmediateSampler",
	ImmediateConstantBuffer:            "ImmediateConstantBuffer",
	ImmediateVertexBuffer:              "ImmediateVertexBuffer",
	ImmediateRWResource:                "ImmediateRWResource",
	ImmediateAppendConsumeCounterRange: "ImmediateAppendConsumeCounterRange",
	ImmediateGDSRange:                  "ImmediateGDSRange",
	ImmediateShaderResourceTable:       "ImmediateShaderResourceTable",
	PointerResourceTable:               "PointerResourceTable",
	PointerRWResourceTable:             "PointerRWResourceTable",
	PointerSamplerTable:                "PointerSamplerTable",
	PointerConstantBufferTable:         "PointerConstantBufferTable",
	PointerVertexBufferTable:           "PointerVertexBufferTable",
	PointerStreamOutTable:              "PointerStreamOutTable",
	PointerExtendedUserData:            "PointerExtendedUserData",
	PointerInternalGlobalTable:         "PointerInternalGlobalTable",
	PointerFetchShader:                 "PointerFetchShader",
}

// String returns the kind name.
func (k UsageKind) String() string {
	if n, ok := usageNames[k]; ok {
		return n
	}
	return fmt.Sprintf("UsageKind(%#02x)", uint8(k))
}

// Known reports whether k is a kind this package understands.
func (k UsageKind) Known() bool {
	_, ok := usageNames[k]
	return ok
}

// IsPointer reports whether k places a 64-bit address.
func (k UsageKind) IsPointer() bool {
	return k >= PointerResourceTable && k <= PointerFetchShader
}

// UsageSlotSize is the encoded size of one usage slot in bytes.
const UsageSlotSize = 4

// Bits of the fourth usage slot byte.
const (
	chunkMaskBits = 0x0F
	flagWide      = 1 << 4
	flagRaw       = 1 << 5
)

// UsageSlot is one input usage entry.
//
// For table pointers APISlot holds the highest slot index the shader may
// touch through the table. For an immediate shader resource table it holds
// the table size in dwords minus one.
type UsageSlot struct {
	Kind          UsageKind
	APISlot       uint8
	StartRegister uint8
	ChunkMask     uint8 // low 4 bits; one mask word per set bit
	Wide          bool  // 8-dword descriptor
	Raw           bool  // raw buffer, not typed
}

// SizeInDW returns the number of dwords the slot occupies at its start
// register.
func (u UsageSlot) SizeInDW() int {
	switch u.Kind {
	case ImmediateResource, ImmediateRWResource:
		if u.Wide {
			return 8
		}
		return 4
	case ImmediateSampler, ImmediateConstantBuffer, ImmediateVertexBuffer:
		return 4
	case ImmediateAppendConsumeCounterRange, ImmediateGDSRange:
		return 1
	case ImmediateShaderResourceTable:
		return int(u.APISlot) + 1
	default:
		if u.Kind.IsPointer() {
			return 2
		}
		return 0
	}
}

// ChunkCount returns the number of mask words that follow the slot.
func (u UsageSlot) ChunkCount() int {
	return bits.OnesCount8(u.ChunkMask & chunkMaskBits)
}

func (u UsageSlot) encode(b []byte) {
	b[0] = byte(u.Kind)
	b[1] = u.APISlot
	b[2] = u.StartRegister
	b[3] = u.ChunkMask & chunkMaskBits
	if u.Wide {
		b[3] |= flagWide
	}
	if u.Raw {
		b[3] |= flagRaw
	}
}

func decodeUsageSlot(b []byte) UsageSlot {
	return UsageSlot{
		Kind:          UsageKind(b[0]),
		APISlot:       b[1],
		StartRegister: b[2],
		ChunkMask:     b[3] & chunkMaskBits,
		Wide:          b[3]&flagWide != 0,
		Raw:           b[3]&flagRaw != 0,
	}
}

// Semantic is one vertex input the shader fetches.
type Semantic struct {
	Index          uint8 // semantic index, the default vertex buffer slot
	VGPR           uint8 // destination vector register
	SizeInElements uint8
}

// SemanticSize is the encoded size of one semantic entry in bytes.
const SemanticSize = 4

func (s Semantic) encode(b []byte) {
	b[0] = s.Index
	b[1] = s.VGPR
	b[2] = s.SizeInElements
	b[3] = 0
}

func decodeSemantic(b []byte) Semantic {
	return Semantic{Index: b[0], VGPR: b[1], SizeInElements: b[2]}
}
