package offsets

import "fmt"

// Category is a logical resource category.
type Category uint8

// Resource categories.
const (
	CategoryResource Category = iota
	CategoryRWResource
	CategorySampler
	CategoryConstantBuffer
	CategoryVertexBuffer
	CategoryStreamOut

	NumCategories = 6
)

var categoryInfo = [NumCategories]struct {
	name     string
	maxSlots int
	elemDW   int
}{
	CategoryResource:       {"resource", 128, 8},
	CategoryRWResource:     {"rwresource", 16, 8},
	CategorySampler:        {"sampler", 16, 4},
	CategoryConstantBuffer: {"constantbuffer", 20, 4},
	CategoryVertexBuffer:   {"vertexbuffer", 32, 4},
	CategoryStreamOut:      {"streamout", 4, 4},
}

func (c Category) String() string {
	if c < NumCategories {
		return categoryInfo[c].name
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// MaxSlots returns the largest number of API slots the category supports.
func (c Category) MaxSlots() int { return categoryInfo[c].maxSlots }

// ElementSizeInDW returns the table element size of the category.
func (c Category) ElementSizeInDW() int { return categoryInfo[c].elemDW }

// Register file limits.
const (
	// NumUserDataRegisters is the number of fast user-data registers.
	NumUserDataRegisters = 16

	// MaxUserDataRegisters bounds start register + size of any usage slot.
	// Registers past NumUserDataRegisters are extended user data and live
	// at the front of the scratch block.
	MaxUserDataRegisters = 64

	// MaxExtendedUserDataInDW is the largest extended user data prefix.
	MaxExtendedUserDataInDW = MaxUserDataRegisters - NumUserDataRegisters
)

// MaxScratchSizeInWords is the scratch size of a shader that fills every
// slot of every category plus the whole extended user data range.
const MaxScratchSizeInWords = MaxExtendedUserDataInDW +
	128*8 + // resources
	16*8 + // read/write resources
	16*4 + // samplers
	20*4 + // constant buffers
	32*4 + // vertex buffers
	4*4 // stream-out buffers
