package shaderbin

import "encoding/binary"

// FooterSize is the size of the trailing metadata footer in bytes.
const FooterSize = 32

// Signature constants. The low 56 bits of the first footer qword hold the
// magic; the top byte holds the format version.
const (
	Magic     uint64 = 0x0052_4E49_4253_4552
	MagicMask uint64 = 1<<56 - 1
	Version   uint8  = 1
)

// Footer flag bits.
const (
	// FlagSRT marks a shader that reads its resources through a
	// user-supplied shader resource table.
	FlagSRT uint8 = 1 << iota

	// FlagSRTUsedInfoValid marks the SRT usage information as trustworthy.
	FlagSRTUsedInfoValid

	// FlagExtendedUserData marks a shader with registers past the first 16.
	FlagExtendedUserData
)

// Footer is the fixed 32-byte record at the end of a shader binary.
// All offsets count dwords backward from the first footer byte.
type Footer struct {
	Signature                uint64
	Stage                    Stage
	Flags                    uint8
	NumInputUsageSlots       uint8
	NumInputSemantics        uint8
	UsageSlotsOffsetInDW     uint16
	ChunkUsageBaseOffsetInDW uint16
	CodeLength               uint32
	SemanticsOffsetInDW      uint16
	ShaderHash               uint32
}

// Version returns the format version byte of the signature.
func (f *Footer) Version() uint8 {
	return uint8(f.Signature >> 56)
}

// HasMagic reports whether the masked signature matches Magic.
func (f *Footer) HasMagic() bool {
	return f.Signature&MagicMask == Magic
}

func (f *Footer) encode(b []byte) {
	binary.LittleEndian.PutUint64(b[0x00:], f.Signature)
	b[0x08] = byte(f.Stage)
	b[0x09] = f.Flags
	b[0x0A] = f.NumInputUsageSlots
	b[0x0B] = f.NumInputSemantics
	binary.LittleEndian.PutUint16(b[0x0C:], f.UsageSlotsOffsetInDW)
	binary.LittleEndian.PutUint16(b[0x0E:], f.ChunkUsageBaseOffsetInDW)
	binary.LittleEndian.PutUint32(b[0x10:], f.CodeLength)
	binary.LittleEndian.PutUint16(b[0x14:], f.SemanticsOffsetInDW)
	binary.LittleEndian.PutUint16(b[0x16:], 0)
	binary.LittleEndian.PutUint32(b[0x18:], f.ShaderHash)
	binary.LittleEndian.PutUint32(b[0x1C:], 0)
}

func decodeFooter(b []byte) Footer {
	return Footer{
		Signature:                binary.LittleEndian.Uint64(b[0x00:]),
		Stage:                    Stage(b[0x08]),
		Flags:                    b[0x09],
		NumInputUsageSlots:       b[0x0A],
		NumInputSemantics:        b[0x0B],
		UsageSlotsOffsetInDW:     binary.LittleEndian.Uint16(b[0x0C:]),
		ChunkUsageBaseOffsetInDW: binary.LittleEndian.Uint16(b[0x0E:]),
		CodeLength:               binary.LittleEndian.Uint32(b[0x10:]),
		SemanticsOffsetInDW:      binary.LittleEndian.Uint16(b[0x14:]),
		ShaderHash:               binary.LittleEndian.Uint32(b[0x18:]),
	}
}
