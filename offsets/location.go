package offsets

import "fmt"

// LocationKind tells where a slot's value lives.
type LocationKind uint8

// Location kinds.
const (
	LocationUnused LocationKind = iota
	LocationRegister
	LocationScratch
)

// Wire code bits of a location.
const (
	codeRegister   = 0x8000
	codeRaw        = 0x4000
	codeOffsetMask = 0x3FFF

	// CodeUnused is the wire code of an unused slot.
	CodeUnused = 0xFFFF
)

// Location is the decoded position of a slot: a user-data register, a
// byte offset in the flushed scratch block, or nothing.
type Location struct {
	Kind   LocationKind
	Reg    uint8  // first register, for LocationRegister
	Raw    bool   // raw buffer descriptor, for LocationRegister
	Offset uint16 // byte offset, for LocationScratch
}

// Unused is the location of a slot the shader does not read.
var Unused = Location{}

// InRegister returns a register location.
func InRegister(reg uint8, raw bool) Location {
	return Location{Kind: LocationRegister, Reg: reg, Raw: raw}
}

// InScratch returns a scratch location at the given byte offset.
func InScratch(offset uint16) Location {
	return Location{Kind: LocationScratch, Offset: offset}
}

// Code returns the 16-bit wire code: 0x8000|reg (plus 0x4000 when raw)
// for a register, the byte offset for scratch, CodeUnused otherwise.
func (l Location) Code() uint16 {
	switch l.Kind {
	case LocationRegister:
		c := uint16(codeRegister) | uint16(l.Reg)
		if l.Raw {
			c |= codeRaw
		}
		return c
	case LocationScratch:
		return l.Offset & codeOffsetMask
	default:
		return CodeUnused
	}
}

// DecodeLocation is the inverse of Location.Code.
func DecodeLocation(code uint16) Location {
	switch {
	case code == CodeUnused:
		return Unused
	case code&codeRegister != 0:
		return InRegister(uint8(code&0xFF), code&codeRaw != 0)
	default:
		return InScratch(code & codeOffsetMask)
	}
}

func (l Location) String() string {
	switch l.Kind {
	case LocationRegister:
		if l.Raw {
			return fmt.Sprintf("r%d(raw)", l.Reg)
		}
		return fmt.Sprintf("r%d", l.Reg)
	case LocationScratch:
		return fmt.Sprintf("+%d", l.Offset)
	default:
		return "-"
	}
}
