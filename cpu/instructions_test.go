package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"p1emu/primitive"
)

func TestExecPSETLatchesNBPAndNPP(t *testing.T) {
	s := NewState()
	changes, err := exec(s, Opcode{Kind: OpPSET, P: 1, Q: 0xA})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U1(1), s.Registers.NBP)
	assert.Equal(t, primitive.U4(0xA), s.Registers.NPP)
}

func TestExecADDBCDWraps(t *testing.T) {
	s := NewState()
	s.Registers.A = 7
	s.Flags = s.Flags.Set(FlagD)
	changes, err := exec(s, Opcode{Kind: OpADD, IsRI: true, RQd: RQA, Imm4: 5})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(2), s.Registers.A)
	assert.True(t, s.Flags.Has(FlagC))
	assert.False(t, s.Flags.Has(FlagZ))
}

func TestExecADDNonBCDOverflow(t *testing.T) {
	s := NewState()
	s.Registers.A = 0x8
	changes, err := exec(s, Opcode{Kind: OpADD, IsRI: true, RQd: RQA, Imm4: 0x9})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(1), s.Registers.A)
	assert.True(t, s.Flags.Has(FlagC))
	assert.False(t, s.Flags.Has(FlagZ))
}

func TestExecADCHonorsIncomingCarry(t *testing.T) {
	s := NewState()
	s.Registers.A = 1
	s.Flags = s.Flags.Set(FlagC)
	changes, err := exec(s, Opcode{Kind: OpADC, IsRI: true, RQd: RQA, Imm4: 1})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(3), s.Registers.A) // 1 + 1 + carry(1)
}

func TestExecSUBNeverBCDAdjusts(t *testing.T) {
	s := NewState()
	s.Registers.A = 2
	s.Flags = s.Flags.Set(FlagD)
	changes, err := exec(s, Opcode{Kind: OpSUB, IsRI: true, RQd: RQA, Imm4: 5})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(0xD), s.Registers.A) // (2-5)&0xF, binary wrap
	assert.True(t, s.Flags.Has(FlagC))
}

func TestExecCPDoesNotWriteBack(t *testing.T) {
	s := NewState()
	s.Registers.A = 3
	s.Registers.B = 5
	changes, err := exec(s, Opcode{Kind: OpCP, RQd: RQA, RQs: RQB})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(3), s.Registers.A)
	assert.True(t, s.Flags.Has(FlagC)) // a < b
	assert.False(t, s.Flags.Has(FlagZ))
}

func TestExecLDPXImmWritesAndAdvancesX(t *testing.T) {
	s := NewState()
	s.Registers.X = 0x100
	changes, err := exec(s, Opcode{Kind: OpLDPXImm, Imm4: 7})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(7), s.Memory.Get(0x100))
	assert.Equal(t, primitive.U12(0x101), s.Registers.X)
}

func TestExecLDPYImmWritesAndAdvancesY(t *testing.T) {
	s := NewState()
	s.Registers.Y = 0x200
	changes, err := exec(s, Opcode{Kind: OpLDPYImm, Imm4: 9})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(9), s.Memory.Get(0x200))
	assert.Equal(t, primitive.U12(0x201), s.Registers.Y)
}

func TestExecLDPYRQMovesAndAdvancesY(t *testing.T) {
	s := NewState()
	s.Registers.Y = 0x200
	s.Registers.B = 5
	changes, err := exec(s, Opcode{Kind: OpLDPYRQ, RQd: RQA, RQs: RQB})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(5), s.Registers.A)
	assert.Equal(t, primitive.U12(0x201), s.Registers.Y)
}

func TestExecLDXImm8SetsLowByteOnly(t *testing.T) {
	s := NewState()
	s.Registers.X = 0xA00
	changes, err := exec(s, Opcode{Kind: OpLDXImm8, L: 0x42})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U12(0xA42), s.Registers.X)
}

func TestExecLDYImm8SetsLowByteOnly(t *testing.T) {
	s := NewState()
	s.Registers.Y = 0xB00
	changes, err := exec(s, Opcode{Kind: OpLDYImm8, L: 0x07})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U12(0xB07), s.Registers.Y)
}

func TestExecCALLPushesThenRETRestores(t *testing.T) {
	s := NewState()
	s.Registers.SP = 0x10
	s.Registers.PCS = 0x05 // already step-incremented by the time exec runs
	s.Registers.PCP = 0x3
	s.Registers.NPP = 0x7

	changes, err := exec(s, Opcode{Kind: OpCALL, S: 0x42})
	assert.NoError(t, err)
	s.Apply(changes)

	assert.Equal(t, uint8(0x0D), s.Registers.SP)
	assert.Equal(t, uint8(0x42), s.Registers.PCS)
	assert.Equal(t, primitive.U4(0x7), s.Registers.PCP)
	assert.Equal(t, primitive.U4(0x3), s.Memory.Get(0x0F)) // PCP at SP-1
	assert.Equal(t, primitive.U4(0x0), s.Memory.Get(0x0E)) // PCS high nibble
	assert.Equal(t, primitive.U4(0x5), s.Memory.Get(0x0D)) // PCS low nibble

	retChanges, err := exec(s, Opcode{Kind: OpRET})
	assert.NoError(t, err)
	s.Apply(retChanges)
	assert.Equal(t, uint8(0x10), s.Registers.SP)
	assert.Equal(t, uint8(0x05), s.Registers.PCS)
	assert.Equal(t, primitive.U4(0x3), s.Registers.PCP)
}

func TestExecRETSSkipsOneWordPastRET(t *testing.T) {
	s := NewState()
	s.Registers.SP = 0x10
	s.Registers.PCS = 0x05
	s.Registers.PCP = 0x3
	callChanges, _ := exec(s, Opcode{Kind: OpCALL, S: 0x42})
	s.Apply(callChanges)

	retsChanges, err := exec(s, Opcode{Kind: OpRETS})
	assert.NoError(t, err)
	s.Apply(retsChanges)
	assert.Equal(t, uint8(0x06), s.Registers.PCS) // 0x05 restored, then +1
}

func TestExecPushPopRoundTrip(t *testing.T) {
	s := NewState()
	s.Registers.SP = 0x20
	s.Registers.A = 0x9

	push, err := exec(s, Opcode{Kind: OpPUSH, Push: PushA})
	assert.NoError(t, err)
	s.Apply(push)
	assert.Equal(t, uint8(0x1F), s.Registers.SP)
	assert.Equal(t, primitive.U4(0x9), s.Memory.Get(0x1F))

	s.Registers.A = 0
	pop, err := exec(s, Opcode{Kind: OpPOP, Push: PushA})
	assert.NoError(t, err)
	s.Apply(pop)
	assert.Equal(t, uint8(0x20), s.Registers.SP)
	assert.Equal(t, primitive.U4(0x9), s.Registers.A)
}

func TestExecINCMnSetsCarryOnWrap(t *testing.T) {
	s := NewState()
	s.Memory.Set(0x05, 0xF)
	changes, err := exec(s, Opcode{Kind: OpINCMn, Mn: 0x5})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(0), s.Memory.Get(0x05))
	assert.True(t, s.Flags.Has(FlagC))
	assert.True(t, s.Flags.Has(FlagZ))
}

func TestExecRLCRotatesThroughCarry(t *testing.T) {
	s := NewState()
	s.Registers.A = 0b1001
	changes, err := exec(s, Opcode{Kind: OpRLC, RQs: RQA})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(0b0010), s.Registers.A)
	assert.True(t, s.Flags.Has(FlagC))
}

func TestExecACPXAddsAndAdvancesIndex(t *testing.T) {
	s := NewState()
	s.Registers.X = 0x50
	s.Memory.Set(0x50, 3)
	s.Registers.B = 4
	changes, err := exec(s, Opcode{Kind: OpACPX, RQs: RQB})
	assert.NoError(t, err)
	s.Apply(changes)
	assert.Equal(t, primitive.U4(7), s.Memory.Get(0x50))
	assert.Equal(t, primitive.U12(0x51), s.Registers.X)
}

func TestExecUnknownOpcodeErrors(t *testing.T) {
	s := NewState()
	_, err := exec(s, Opcode{Kind: OpUnknown, Word: 0xFFFF})
	assert.ErrorAs(t, err, &UnknownOpcode{})
}
