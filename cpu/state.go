package cpu

import (
	"p1emu/memory"
	"p1emu/primitive"
)

// State owns every piece of mutable CPU state: the register file, flags,
// memory, input port, the pending change log, and the running cycle/tick
// counters. fetch/set are total over every identifier defined in ident.go.
type State struct {
	Registers Registers
	Flags     Flags
	Memory    *memory.Memory
	Input     Input

	Changes Changes

	CycleCounter uint64
	Tick         uint64

	// Halted is set by HALT and cleared when a dispatched interrupt wakes
	// the CPU back up; Step keeps ticking the timers while halted but
	// stops fetching.
	Halted bool
}

// NewState returns a State with every register zeroed, flags clear, and a
// fresh Memory.
func NewState() *State {
	return &State{
		Memory: memory.New(),
		Input:  NewInput(),
	}
}

// PC returns the effective 13-bit program address.
func (s *State) PC() int { return s.Registers.PC() }

// FetchU1 reads a 1-bit register.
func (s *State) FetchU1(id IdentU1) primitive.U1 {
	switch id {
	case IdentPCB:
		return s.Registers.PCB
	case IdentNBP:
		return s.Registers.NBP
	}
	panic("unreachable IdentU1 value")
}

// FetchU4 reads a 4-bit value by identifier.
func (s *State) FetchU4(id IdentU4) primitive.U4 {
	switch id.Kind {
	case IdentA:
		return s.Registers.A
	case IdentBReg:
		return s.Registers.B
	case IdentMX:
		return s.Memory.Get(int(s.Registers.X))
	case IdentMY:
		return s.Memory.Get(int(s.Registers.Y))
	case IdentMn:
		return s.Memory.Get(int(id.N))
	case IdentMSP:
		return s.Memory.Get(int(s.Registers.SP))
	case IdentXP:
		return primitive.Nibble(uint16(s.Registers.X), 2)
	case IdentXH:
		return primitive.Nibble(uint16(s.Registers.X), 1)
	case IdentXL:
		return primitive.Nibble(uint16(s.Registers.X), 0)
	case IdentYP:
		return primitive.Nibble(uint16(s.Registers.Y), 2)
	case IdentYH:
		return primitive.Nibble(uint16(s.Registers.Y), 1)
	case IdentYL:
		return primitive.Nibble(uint16(s.Registers.Y), 0)
	case IdentF:
		return s.Flags.Nibble()
	case IdentPCP:
		return s.Registers.PCP
	case IdentNPP:
		return s.Registers.NPP
	case IdentImm4:
		return id.N
	}
	panic("unreachable IdentU4 kind")
}

// FetchU8 reads an 8-bit value by identifier.
func (s *State) FetchU8(id IdentU8) uint8 {
	switch id.Kind {
	case IdentPCS:
		return s.Registers.PCS
	case IdentSP:
		return s.Registers.SP
	case IdentXHL:
		return uint8(s.Registers.X) & 0xFF
	case IdentYHL:
		return uint8(s.Registers.Y) & 0xFF
	case IdentImm8:
		return id.N
	}
	panic("unreachable IdentU8 kind")
}

// FetchU12 reads a 12-bit value by identifier.
func (s *State) FetchU12(id IdentU12) primitive.U12 {
	switch id.Kind {
	case IdentX:
		return s.Registers.X
	case IdentY:
		return s.Registers.Y
	}
	panic("unreachable IdentU12 kind")
}

// SetU1 writes a 1-bit register directly, outside the change log.
func (s *State) SetU1(id IdentU1, v primitive.U1) {
	switch id {
	case IdentPCB:
		s.Registers.PCB = v
	case IdentNBP:
		s.Registers.NBP = v
	}
}

// SetU4 writes a 4-bit value directly. Returns ReadOnlyIdentifier for
// Imm4.
func (s *State) SetU4(id IdentU4, v primitive.U4) error {
	switch id.Kind {
	case IdentA:
		s.Registers.A = v
	case IdentBReg:
		s.Registers.B = v
	case IdentMX:
		s.Memory.Set(int(s.Registers.X), v)
	case IdentMY:
		s.Memory.Set(int(s.Registers.Y), v)
	case IdentMn:
		s.Memory.Set(int(id.N), v)
	case IdentMSP:
		s.Memory.Set(int(s.Registers.SP), v)
	case IdentXP:
		s.Registers.X = primitive.WithNibble(s.Registers.X, 2, v)
	case IdentXH:
		s.Registers.X = primitive.WithNibble(s.Registers.X, 1, v)
	case IdentXL:
		s.Registers.X = primitive.WithNibble(s.Registers.X, 0, v)
	case IdentYP:
		s.Registers.Y = primitive.WithNibble(s.Registers.Y, 2, v)
	case IdentYH:
		s.Registers.Y = primitive.WithNibble(s.Registers.Y, 1, v)
	case IdentYL:
		s.Registers.Y = primitive.WithNibble(s.Registers.Y, 0, v)
	case IdentF:
		s.Flags = Flags(v)
	case IdentPCP:
		s.Registers.PCP = v
	case IdentNPP:
		s.Registers.NPP = v
	case IdentImm4:
		return ReadOnlyIdentifier{Ident: id}
	}
	return nil
}

// SetU8 writes an 8-bit value directly. Returns ReadOnlyIdentifier for
// Imm8.
func (s *State) SetU8(id IdentU8, v uint8) error {
	switch id.Kind {
	case IdentPCS:
		s.Registers.PCS = v
	case IdentSP:
		s.Registers.SP = v
	case IdentXHL:
		s.Registers.X = primitive.WithNibble(primitive.WithNibble(s.Registers.X, 0, primitive.U4(v&0xF)), 1, primitive.U4((v>>4)&0xF))
	case IdentYHL:
		s.Registers.Y = primitive.WithNibble(primitive.WithNibble(s.Registers.Y, 0, primitive.U4(v&0xF)), 1, primitive.U4((v>>4)&0xF))
	case IdentImm8:
		return ReadOnlyIdentifier{Ident: stringerFunc(func() string { return "Imm" })}
	}
	return nil
}

// SetU12 writes a 12-bit value directly.
func (s *State) SetU12(id IdentU12, v primitive.U12) {
	switch id.Kind {
	case IdentX:
		s.Registers.X = v
	case IdentY:
		s.Registers.Y = v
	}
}

type stringerFunc func() string

func (f stringerFunc) String() string { return f() }

// Apply replays a change log onto the state: the actual point of mutation
// for every instruction. Instructions compute Changes without touching
// State directly; Step calls Apply once execution has produced the log.
func (s *State) Apply(changes Changes) {
	for _, c := range changes {
		switch {
		case c.Register != nil:
			s.applyRegister(*c.Register)
		case c.Memory != nil:
			s.Memory.Set(c.Memory.Addr, c.Memory.Value)
		case c.Flags != nil:
			s.Flags = c.Flags.Value
		}
	}
}

func (s *State) applyRegister(rc RegisterChange) {
	switch rc.Reg {
	case RegPCS:
		s.Registers.PCS = rc.U8
	case RegPCP:
		s.Registers.PCP = rc.U4
	case RegPCB:
		s.Registers.PCB = primitive.U1(rc.U4)
	case RegNPP:
		s.Registers.NPP = rc.U4
	case RegNBP:
		s.Registers.NBP = primitive.U1(rc.U4)
	case RegSP:
		s.Registers.SP = rc.U8
	case RegX:
		s.Registers.X = rc.U12
	case RegY:
		s.Registers.Y = rc.U12
	case RegRP:
		s.Registers.RP = rc.U4
	case RegA:
		s.Registers.A = rc.U4
	case RegB:
		s.Registers.B = rc.U4
	}
}
