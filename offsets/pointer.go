package offsets

import "fmt"

// Pointer names one of the fixed pointer-register slots of a table.
type Pointer uint8

// Pointer slots.
const (
	PointerFetchShader Pointer = iota
	PointerVertexBufferTable
	PointerConstantBufferTable
	PointerResourceTable
	PointerRWResourceTable
	PointerSamplerTable
	PointerStreamOutTable
	PointerExtendedUserData
	PointerGlobalInternalTable
	PointerAppendConsumeCounter
	PointerGDSRange
	PointerUserResourceTable

	NumPointers = 12
)

var pointerNames = [NumPointers]string{
	PointerFetchShader:          "fetchshader",
	PointerVertexBufferTable:    "vertexbuffertable",
	PointerConstantBufferTable:  "constantbuffertable",
	PointerResourceTable:        "resourcetable",
	PointerRWResourceTable:      "rwresourcetable",
	PointerSamplerTable:         "samplertable",
	PointerStreamOutTable:       "streamouttable",
	PointerExtendedUserData:     "extendeduserdata",
	PointerGlobalInternalTable:  "globalinternaltable",
	PointerAppendConsumeCounter: "appendconsumecounter",
	PointerGDSRange:             "gdsrange",
	PointerUserResourceTable:    "userresourcetable",
}

func (p Pointer) String() string {
	if p < NumPointers {
		return pointerNames[p]
	}
	return fmt.Sprintf("Pointer(%d)", uint8(p))
}

// tablePointers maps each category to the pointer addressing its table.
var tablePointers = [NumCategories]Pointer{
	CategoryResource:       PointerResourceTable,
	CategoryRWResource:     PointerRWResourceTable,
	CategorySampler:        PointerSamplerTable,
	CategoryConstantBuffer: PointerConstantBufferTable,
	CategoryVertexBuffer:   PointerVertexBufferTable,
	CategoryStreamOut:      PointerStreamOutTable,
}

// TablePointer returns the pointer slot addressing the category's table.
func (c Category) TablePointer() Pointer { return tablePointers[c] }

// IsTable reports whether p addresses a per-category table.
func (p Pointer) IsTable() bool {
	return p >= PointerVertexBufferTable && p <= PointerStreamOutTable
}

// PointerRegister is the placement of a pointer or immediate range.
//
// For table pointers and the extended user data pointer, the value
// written at Loc is the flushed block's base address plus TableOffset.
type PointerRegister struct {
	Loc         Location
	SizeInDW    uint8
	TableOffset uint16 // byte offset of the table inside the flushed block
}

// Used reports whether the shader declares the pointer.
func (p PointerRegister) Used() bool { return p.Loc.Kind != LocationUnused }
