package cpu

import "p1emu/primitive"

// exec decodes to a Changes log without touching State directly; Step
// applies the log afterward. Returns Unimplemented for opcode kinds with
// no exec path yet, UnknownOpcode for OpUnknown.
func exec(s *State, op Opcode) (Changes, error) {
	var c Changes

	switch op.Kind {
	case OpUnknown:
		return nil, UnknownOpcode{Word: op.Word}

	case OpPSET:
		c.RegU4(RegNBP, op.P)
		c.RegU4(RegNPP, op.Q)

	case OpJP:
		if !condTaken(s, op.Cond) {
			break
		}
		c.RegU8(RegPCS, op.S)
		c.RegU4(RegPCP, s.Registers.NPP)
		c.RegU4(RegPCB, primitive.U4(s.Registers.NBP))

	case OpJPBA:
		c.RegU8(RegPCS, uint8(s.Registers.A)<<4|uint8(s.Registers.B))
		c.RegU4(RegPCP, s.Registers.NPP)
		c.RegU4(RegPCB, primitive.U4(s.Registers.NBP))

	case OpCALL:
		pushReturnAddress(s, &c)
		c.RegU8(RegPCS, op.S)
		c.RegU4(RegPCP, s.Registers.NPP)

	case OpCALZ:
		pushReturnAddress(s, &c)
		c.RegU8(RegPCS, op.S)
		c.RegU4(RegPCP, 0)

	case OpRET:
		popReturnAddress(s, &c)

	case OpRETS:
		pcs := popReturnAddress(s, &c)
		c.RegU8(RegPCS, pcs+1)

	case OpRETD:
		popReturnAddress(s, &c)
		x := s.Registers.X
		c.Mem(int(x), primitive.Nibble(uint16(op.L), 0))
		c.Mem(int(x)+1, primitive.Nibble(uint16(op.L), 1))
		c.RegU12(RegX, addU12(x, 2))

	case OpNOP5, OpNOP7, OpHALT:
		// no register or memory effect; HALT's CPU-stop behavior lives in
		// the interpreter loop.

	case OpLDRQRQ:
		setRQ(s, &c, op.RQd, fetchRQ(s, op.RQs))

	case OpLDRQImm:
		setRQ(s, &c, op.RQd, op.Imm4)

	case OpLDNamedFromA:
		switch op.Named {
		case NamedSPH:
			c.RegU8(RegSP, primitive.WithNibble(s.FetchU8(IdentU8{Kind: IdentSP}), 1, s.Registers.A))
		case NamedSPL:
			c.RegU8(RegSP, primitive.WithNibble(s.FetchU8(IdentU8{Kind: IdentSP}), 0, s.Registers.A))
		default:
			setIdentU4(s, &c, op.Named.ident(), s.Registers.A)
		}

	case OpLDAFromNamed:
		switch op.Named {
		case NamedSPH:
			c.RegU4(RegA, primitive.Nibble(s.FetchU8(IdentU8{Kind: IdentSP}), 1))
		case NamedSPL:
			c.RegU4(RegA, primitive.Nibble(s.FetchU8(IdentU8{Kind: IdentSP}), 0))
		default:
			c.RegU4(RegA, s.FetchU4(op.Named.ident()))
		}

	case OpLDXImm8:
		c.RegU12(RegX, withLowByte(s.Registers.X, op.L))

	case OpLDYImm8:
		c.RegU12(RegY, withLowByte(s.Registers.Y, op.L))

	case OpLDPXImm:
		c.Mem(int(s.Registers.X), op.Imm4)
		c.RegU12(RegX, addU12(s.Registers.X, 1))

	case OpLDPXRQ:
		setRQ(s, &c, op.RQd, fetchRQ(s, op.RQs))
		c.RegU12(RegX, addU12(s.Registers.X, 1))

	case OpLDPYImm:
		c.Mem(int(s.Registers.Y), op.Imm4)
		c.RegU12(RegY, addU12(s.Registers.Y, 1))

	case OpLDPYRQ:
		setRQ(s, &c, op.RQd, fetchRQ(s, op.RQs))
		c.RegU12(RegY, addU12(s.Registers.Y, 1))

	case OpLBPX:
		x := s.Registers.X
		c.Mem(int(x), primitive.Nibble(uint16(op.L), 0))
		c.Mem(int(x)+1, primitive.Nibble(uint16(op.L), 1))
		c.RegU12(RegX, addU12(x, 2))

	case OpADD, OpADC, OpSUB, OpSBC:
		execArith(s, &c, op)

	case OpAND:
		execLogic(s, &c, op, func(a, b primitive.U4) primitive.U4 { return a.And(b) })
	case OpOR:
		execLogic(s, &c, op, func(a, b primitive.U4) primitive.U4 { return a.Or(b) })
	case OpXOR:
		execLogic(s, &c, op, func(a, b primitive.U4) primitive.U4 { return a.Xor(b) })

	case OpCP:
		a, b := fetchRQ(s, op.RQd), fetchRQ(s, op.RQs)
		c.SetFlags(s.Flags.With(FlagC, a < b).With(FlagZ, a == b))

	case OpNOT:
		v := fetchRQ(s, op.RQs).Not()
		setRQ(s, &c, op.RQs, v)
		c.SetFlags(s.Flags.With(FlagZ, v == 0))

	case OpFAN:
		v := s.Registers.A.And(fetchRQ(s, op.RQs))
		c.SetFlags(s.Flags.With(FlagZ, v == 0))

	case OpINC:
		execIncDec(s, &c, op.IncDec, 1)
	case OpDEC:
		execIncDec(s, &c, op.IncDec, -1)

	case OpINCMn:
		execIncDecMn(s, &c, op.Mn, 1)
	case OpDECMn:
		execIncDecMn(s, &c, op.Mn, -1)

	case OpACPX:
		execACP(s, &c, op.RQs, IdentU4{Kind: IdentMX}, RegX, true)
	case OpACPY:
		execACP(s, &c, op.RQs, IdentU4{Kind: IdentMY}, RegY, true)
	case OpSCPX:
		execACP(s, &c, op.RQs, IdentU4{Kind: IdentMX}, RegX, false)
	case OpSCPY:
		execACP(s, &c, op.RQs, IdentU4{Kind: IdentMY}, RegY, false)

	case OpRLC:
		v := fetchRQ(s, op.RQs)
		carryIn := primitive.U4(0)
		if s.Flags.Has(FlagC) {
			carryIn = 1
		}
		out := v.Shl(1).Or(carryIn)
		setRQ(s, &c, op.RQs, out)
		c.SetFlags(s.Flags.With(FlagC, v&0x8 != 0).With(FlagZ, out == 0))

	case OpRRC:
		v := fetchRQ(s, op.RQs)
		carryIn := primitive.U4(0)
		if s.Flags.Has(FlagC) {
			carryIn = 0x8
		}
		out := v.Shr(1).Or(carryIn)
		setRQ(s, &c, op.RQs, out)
		c.SetFlags(s.Flags.With(FlagC, v&0x1 != 0).With(FlagZ, out == 0))

	case OpSETF:
		c.SetFlags(s.Flags | op.FlagMask)
	case OpRSTF:
		c.SetFlags(s.Flags &^ op.FlagMask)
	case OpSCF:
		c.SetFlags(s.Flags.Set(FlagC))
	case OpRCF:
		c.SetFlags(s.Flags.Clear(FlagC))
	case OpSZF:
		c.SetFlags(s.Flags.Set(FlagZ))
	case OpRZF:
		c.SetFlags(s.Flags.Clear(FlagZ))
	case OpSDF:
		c.SetFlags(s.Flags.Set(FlagD))
	case OpRDF:
		c.SetFlags(s.Flags.Clear(FlagD))
	case OpEI:
		c.SetFlags(s.Flags.Set(FlagI))
	case OpDI:
		c.SetFlags(s.Flags.Clear(FlagI))

	case OpPUSH:
		sp := s.Registers.SP - 1
		c.Mem(int(sp), s.FetchU4(pushIdent(op.Push)))
		c.RegU8(RegSP, sp)

	case OpPOP:
		sp := s.Registers.SP
		v := s.Memory.Get(int(sp))
		setIdentU4(s, &c, pushIdent(op.Push), v)
		c.RegU8(RegSP, sp+1)

	default:
		return nil, Unimplemented{Mnemonic: op.String()}
	}

	return c, nil
}

func condTaken(s *State, cond JPCond) bool {
	switch cond {
	case JPAlways:
		return true
	case JPCarry:
		return s.Flags.Has(FlagC)
	case JPNoCarry:
		return !s.Flags.Has(FlagC)
	case JPZero:
		return s.Flags.Has(FlagZ)
	case JPNotZero:
		return !s.Flags.Has(FlagZ)
	}
	return false
}

// pushReturnAddress writes the current (already step-incremented) PCS/PCP
// onto the RAM stack ahead of a CALL/CALZ and decrements SP by 3: PCP lands
// at SP-1, the high nibble of PCS at SP-2, the low nibble at SP-3.
func pushReturnAddress(s *State, c *Changes) {
	sp := s.Registers.SP
	c.Mem(int(sp)-1, s.Registers.PCP)
	c.Mem(int(sp)-2, primitive.Nibble(uint16(s.Registers.PCS), 1))
	c.Mem(int(sp)-3, primitive.Nibble(uint16(s.Registers.PCS), 0))
	c.RegU8(RegSP, sp-3)
}

// popReturnAddress restores PCS/PCP from the RAM stack for RET/RETS/RETD
// and returns the restored PCS so RETS can adjust it further.
func popReturnAddress(s *State, c *Changes) uint8 {
	sp := s.Registers.SP
	lo := s.Memory.Get(int(sp))
	hi := s.Memory.Get(int(sp) + 1)
	pcp := s.Memory.Get(int(sp) + 2)
	pcs := uint8(lo) | uint8(hi)<<4
	c.RegU8(RegSP, sp+3)
	c.RegU8(RegPCS, pcs)
	c.RegU4(RegPCP, pcp)
	return pcs
}

func fetchRQ(s *State, r RQ) primitive.U4 { return s.FetchU4(r.Ident()) }

func setRQ(s *State, c *Changes, r RQ, v primitive.U4) {
	setIdentU4(s, c, r.Ident(), v)
}

// setIdentU4 mirrors State.SetU4's dispatch but builds a Changes entry
// instead of mutating State directly, so instructions stay pure functions
// of (State, Opcode) -> Changes. Address-register nibble writes (XP/XH/XL,
// YP/YH/YL) fold into a full 12-bit RegX/RegY change via WithNibble, since
// Changes has no notion of a sub-register write.
func setIdentU4(s *State, c *Changes, id IdentU4, v primitive.U4) {
	switch id.Kind {
	case IdentA:
		c.RegU4(RegA, v)
	case IdentBReg:
		c.RegU4(RegB, v)
	case IdentMX:
		c.Mem(int(s.Registers.X), v)
	case IdentMY:
		c.Mem(int(s.Registers.Y), v)
	case IdentMn:
		c.Mem(int(id.N), v)
	case IdentMSP:
		c.Mem(int(s.Registers.SP), v)
	case IdentXP:
		c.RegU12(RegX, primitive.WithNibble(s.Registers.X, 2, v))
	case IdentXH:
		c.RegU12(RegX, primitive.WithNibble(s.Registers.X, 1, v))
	case IdentXL:
		c.RegU12(RegX, primitive.WithNibble(s.Registers.X, 0, v))
	case IdentYP:
		c.RegU12(RegY, primitive.WithNibble(s.Registers.Y, 2, v))
	case IdentYH:
		c.RegU12(RegY, primitive.WithNibble(s.Registers.Y, 1, v))
	case IdentYL:
		c.RegU12(RegY, primitive.WithNibble(s.Registers.Y, 0, v))
	case IdentF:
		c.SetFlags(Flags(v))
	case IdentPCP:
		c.RegU4(RegPCP, v)
	case IdentNPP:
		c.RegU4(RegNPP, v)
	default:
		panic("setIdentU4: unsupported ident kind")
	}
}

func pushIdent(t PushTarget) IdentU4 {
	switch t {
	case PushA:
		return IdentU4{Kind: IdentA}
	case PushB:
		return IdentU4{Kind: IdentBReg}
	case PushXP:
		return IdentU4{Kind: IdentXP}
	case PushXH:
		return IdentU4{Kind: IdentXH}
	case PushXL:
		return IdentU4{Kind: IdentXL}
	case PushYP:
		return IdentU4{Kind: IdentYP}
	case PushYH:
		return IdentU4{Kind: IdentYH}
	case PushYL:
		return IdentU4{Kind: IdentYL}
	case PushF:
		return IdentU4{Kind: IdentF}
	}
	panic("unreachable PushTarget")
}

// execArith folds the ADD/ADC/SUB/SBC family. BCD adjustment only applies
// to ADD/ADC whose destination is the accumulator A or the general
// register B; SUB/SBC never BCD-adjust per the invariant that decimal mode
// is an ADD/ADC-only behavior.
func execArith(s *State, c *Changes, op Opcode) {
	a := fetchRQ(s, op.RQd)
	var b primitive.U4
	if op.IsRI {
		b = op.Imm4
	} else {
		b = fetchRQ(s, op.RQs)
	}

	carryIn := 0
	isAdd := op.Kind == OpADD || op.Kind == OpADC
	if (op.Kind == OpADC || op.Kind == OpSBC) && s.Flags.Has(FlagC) {
		carryIn = 1
	}

	var value primitive.U4
	var carryOut bool

	if isAdd {
		sum := int(a) + int(b) + carryIn
		if s.Flags.Has(FlagD) && op.RQd.isAccumulator() {
			if sum >= 10 {
				carryOut, value = true, primitive.U4(sum-10)
			} else {
				carryOut, value = false, primitive.U4(sum)
			}
		} else {
			carryOut = sum > 0xF
			value = primitive.U4(sum & 0xF)
		}
	} else {
		diff := int(a) - int(b) - carryIn
		carryOut = diff < 0
		value = primitive.U4(diff & 0xF)
	}

	setRQ(s, c, op.RQd, value)
	c.SetFlags(s.Flags.With(FlagC, carryOut).With(FlagZ, value == 0))
}

func execLogic(s *State, c *Changes, op Opcode, f func(a, b primitive.U4) primitive.U4) {
	v := f(fetchRQ(s, op.RQd), fetchRQ(s, op.RQs))
	setRQ(s, c, op.RQd, v)
	c.SetFlags(s.Flags.With(FlagZ, v == 0))
}

func execIncDec(s *State, c *Changes, t IncDecTarget, delta int) {
	switch t {
	case IncDecA:
		v, carry := incDecU4(s.Registers.A, delta)
		c.RegU4(RegA, v)
		c.SetFlags(s.Flags.With(FlagC, carry).With(FlagZ, v == 0))
	case IncDecB:
		v, carry := incDecU4(s.Registers.B, delta)
		c.RegU4(RegB, v)
		c.SetFlags(s.Flags.With(FlagC, carry).With(FlagZ, v == 0))
	case IncDecX:
		c.RegU12(RegX, addU12(s.Registers.X, delta))
	case IncDecY:
		c.RegU12(RegY, addU12(s.Registers.Y, delta))
	case IncDecSP:
		c.RegU8(RegSP, uint8(int(s.Registers.SP)+delta))
	}
}

func execIncDecMn(s *State, c *Changes, n primitive.U4, delta int) {
	v, carry := incDecU4(s.Memory.Get(int(n)), delta)
	c.Mem(int(n), v)
	c.SetFlags(s.Flags.With(FlagC, carry).With(FlagZ, v == 0))
}

func incDecU4(v primitive.U4, delta int) (primitive.U4, bool) {
	raw := int(v) + delta
	return primitive.U4(raw & 0xF), raw > 0xF || raw < 0
}

// addU12 advances a 12-bit index register by a signed delta, wrapping mod
// 4096. primitive.U12.Add only takes another U12, so negative deltas are
// folded into the two's-complement residue before calling it.
func addU12(v primitive.U12, delta int) primitive.U12 {
	return v.Add(primitive.U12(uint16(delta) & primitive.MaxU12))
}

// withLowByte replaces the low 8 bits (the two low nibbles) of a 12-bit
// index register with l, leaving its page nibble (XP/YP) untouched — the
// effect of LD X,l / LD Y,l.
func withLowByte(v primitive.U12, l uint8) primitive.U12 {
	v = primitive.WithNibble(v, 0, primitive.U4(l&0xF))
	v = primitive.WithNibble(v, 1, primitive.U4((l>>4)&0xF))
	return v
}

// execACP folds the ACPX/ACPY/SCPX/SCPY family: add (or subtract) the
// register operand into the memory cell addressed by X/Y, write the result
// back to that same cell, then advance the index register by one. isAdd
// selects ACP (add-and-advance) versus SCP (subtract-and-advance); both
// always step the index forward by 1 regardless of arithmetic direction.
func execACP(s *State, c *Changes, r RQ, memIdent IdentU4, idxReg RegisterID, isAdd bool) {
	a := s.FetchU4(memIdent)
	b := fetchRQ(s, r)
	carry := s.Flags.Has(FlagC)
	carryIn := 0
	if carry {
		carryIn = 1
	}

	var value primitive.U4
	var carryOut bool
	if isAdd {
		sum := int(a) + int(b) + carryIn
		carryOut = sum > 0xF
		value = primitive.U4(sum & 0xF)
	} else {
		diff := int(a) - int(b) - carryIn
		carryOut = diff < 0
		value = primitive.U4(diff & 0xF)
	}

	var addr int
	switch memIdent.Kind {
	case IdentMX:
		addr = int(s.Registers.X)
	case IdentMY:
		addr = int(s.Registers.Y)
	}
	c.Mem(addr, value)

	switch idxReg {
	case RegX:
		c.RegU12(RegX, addU12(s.Registers.X, 1))
	case RegY:
		c.RegU12(RegY, addU12(s.Registers.Y, 1))
	}

	c.SetFlags(s.Flags.With(FlagC, carryOut).With(FlagZ, value == 0))
}
