package cpu

import "p1emu/primitive"

// RegisterID names an architectural register for the change log, decoupled
// from the Ident*/RQ types used by fetch/set so a Change can be replayed
// without re-deriving which width it belongs to.
type RegisterID int

const (
	RegPCS RegisterID = iota
	RegPCP
	RegPCB
	RegNPP
	RegNBP
	RegSP
	RegX
	RegY
	RegRP
	RegA
	RegB
)

// RegisterChange records a write to one architectural register. Only the
// field matching the register's declared width is meaningful.
type RegisterChange struct {
	Reg RegisterID
	U4  primitive.U4
	U8  uint8
	U12 primitive.U12
}

// MemoryChange records a single-nibble write.
type MemoryChange struct {
	Addr  int
	Value primitive.U4
}

// FlagsChange records a full overwrite of the flags register.
type FlagsChange struct {
	Value Flags
}

// A Change is exactly one of Register, Memory, or Flags.
type Change struct {
	Register *RegisterChange
	Memory   *MemoryChange
	Flags    *FlagsChange
}

// Changes accumulates the edits a single instruction makes to CPU state.
// Instructions build a Changes value instead of mutating State directly;
// Step folds it in afterward. This gives the debugger an exact diff to
// highlight and gives tests a precise trace to assert against.
type Changes []Change

func (c *Changes) Register(reg RegisterID, u4 primitive.U4, u8 uint8, u12 primitive.U12) {
	*c = append(*c, Change{Register: &RegisterChange{Reg: reg, U4: u4, U8: u8, U12: u12}})
}

func (c *Changes) RegU4(reg RegisterID, v primitive.U4)   { c.Register(reg, v, 0, 0) }
func (c *Changes) RegU8(reg RegisterID, v uint8)          { c.Register(reg, 0, v, 0) }
func (c *Changes) RegU12(reg RegisterID, v primitive.U12) { c.Register(reg, 0, 0, v) }

func (c *Changes) Mem(addr int, v primitive.U4) {
	*c = append(*c, Change{Memory: &MemoryChange{Addr: addr, Value: v}})
}

func (c *Changes) SetFlags(v Flags) {
	*c = append(*c, Change{Flags: &FlagsChange{Value: v}})
}
