package cpu

import "p1emu/primitive"

// Flags is the 4-bit status register, addressable both as named predicates
// and as a single nibble via IdentF.
type Flags primitive.U4

const (
	FlagC Flags = 0x1 // carry
	FlagZ Flags = 0x2 // zero
	FlagD Flags = 0x4 // BCD-decimal mode
	FlagI Flags = 0x8 // interrupt enable
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) Set(bit Flags) Flags   { return f | bit }
func (f Flags) Clear(bit Flags) Flags { return f &^ bit }

// With returns f with bit set according to v.
func (f Flags) With(bit Flags, v bool) Flags {
	if v {
		return f.Set(bit)
	}
	return f.Clear(bit)
}

func (f Flags) Nibble() primitive.U4 { return primitive.U4(f) }
