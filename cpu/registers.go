package cpu

import "p1emu/primitive"

// Registers is the E0C6S46 architectural register file. The program counter
// is split across three fields (PCS/PCP/PCB); NPP/NBP are the prefix latch
// PSET writes, copied into PCP/PCB by the next branching instruction.
type Registers struct {
	PCS uint8
	PCP primitive.U4
	PCB primitive.U1

	NPP primitive.U4
	NBP primitive.U1

	SP uint8

	X primitive.U12
	Y primitive.U12

	RP primitive.U4
	A  primitive.U4
	B  primitive.U4
}

// PC returns the effective 13-bit program address.
func (r Registers) PC() int {
	return (int(r.PCB) << 12) | (int(r.PCP) << 8) | int(r.PCS)
}
