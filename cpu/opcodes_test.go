package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"p1emu/primitive"
)

func TestDecodePSET(t *testing.T) {
	op := decode(0xE42F)
	assert.Equal(t, OpPSET, op.Kind)
	assert.Equal(t, primitive.U4(0), op.P)
	assert.Equal(t, primitive.U4(4), op.Q)
}

func TestDecodeJPUnconditional(t *testing.T) {
	op := decode(0x003C)
	assert.Equal(t, OpJP, op.Kind)
	assert.Equal(t, JPAlways, op.Cond)
	assert.Equal(t, uint8(0x3C), op.S)
}

func TestDecodeJPConditional(t *testing.T) {
	cases := map[uint16]JPCond{
		0x0255: JPCarry,
		0x0355: JPNoCarry,
		0x0655: JPZero,
		0x0755: JPNotZero,
	}
	for word, want := range cases {
		op := decode(word)
		assert.Equal(t, OpJP, op.Kind, "word %04X", word)
		assert.Equal(t, want, op.Cond, "word %04X", word)
		assert.Equal(t, uint8(0x55), op.S)
	}
}

func TestDecodeCallAndCalz(t *testing.T) {
	call := decode(0x0410)
	assert.Equal(t, OpCALL, call.Kind)
	assert.Equal(t, uint8(0x10), call.S)

	calz := decode(0x0520)
	assert.Equal(t, OpCALZ, calz.Kind)
	assert.Equal(t, uint8(0x20), calz.S)
}

func TestDecodeRetFamily(t *testing.T) {
	assert.Equal(t, OpRET, decode(0x0FDF).Kind)
	assert.Equal(t, OpRETS, decode(0x0FDE).Kind)
	assert.Equal(t, OpJPBA, decode(0x0FE8).Kind)

	retd := decode(0x0199)
	assert.Equal(t, OpRETD, retd.Kind)
	assert.Equal(t, uint8(0x99), retd.L)
}

func TestDecodeADDRegisterImmediateAndRegisterRegister(t *testing.T) {
	ri := decode(0x0C07) // n2=0xC, top2=00 (ADD), rqd bits=0b00 (A), imm=7
	assert.Equal(t, OpADD, ri.Kind)
	assert.True(t, ri.IsRI)
	assert.Equal(t, RQA, ri.RQd)
	assert.Equal(t, primitive.U4(7), ri.Imm4)

	rr := decode(0x0A80) // n2=0xA, n3 top2=10 (arith family), rq=00 (ADD), n4=0 -> rqd=A, rqs=A
	assert.Equal(t, OpADD, rr.Kind)
	assert.False(t, rr.IsRI)
}

func TestDecodeUnknownFallsThroughToOpUnknown(t *testing.T) {
	// n2 = 0x9, n3 > 3 matches no LDRQImm pattern and falls off the end.
	op := decode(0x09F0)
	assert.Equal(t, OpUnknown, op.Kind)
}

func TestDecodeLDXYImm8(t *testing.T) {
	x := decode(0x1042)
	assert.Equal(t, OpLDXImm8, x.Kind)
	assert.Equal(t, uint8(0x42), x.L)

	y := decode(0x2042)
	assert.Equal(t, OpLDYImm8, y.Kind)
	assert.Equal(t, uint8(0x42), y.L)
}

func TestDecodeLDPYImmAndRQ(t *testing.T) {
	imm := decode(0x0E73)
	assert.Equal(t, OpLDPYImm, imm.Kind)
	assert.Equal(t, primitive.U4(3), imm.Imm4)

	rq := decode(0x0EF0)
	assert.Equal(t, OpLDPYRQ, rq.Kind)
	assert.Equal(t, RQA, rq.RQd)
	assert.Equal(t, RQA, rq.RQs)
}

func TestDecodeACPYAndSCPYShareNibbleWithACPXSCPX(t *testing.T) {
	acpx := decode(0x0F28)
	assert.Equal(t, OpACPX, acpx.Kind)
	scpx := decode(0x0F38)
	assert.Equal(t, OpSCPX, scpx.Kind)

	acpy := decode(0x0F2C)
	assert.Equal(t, OpACPY, acpy.Kind)
	scpy := decode(0x0F3C)
	assert.Equal(t, OpSCPY, scpy.Kind)
}

func TestInterruptibleExcludesOnlyPSET(t *testing.T) {
	assert.False(t, decode(0xE42F).interruptible())
	assert.True(t, decode(0x003C).interruptible())
	assert.True(t, decode(0x0FDF).interruptible())
}

func TestCyclesMatchesDocumentedCosts(t *testing.T) {
	assert.Equal(t, uint32(5), decode(0xE42F).cycles())  // PSET
	assert.Equal(t, uint32(5), decode(0x003C).cycles())  // JP
	assert.Equal(t, uint32(7), decode(0x0410).cycles())  // CALL
	assert.Equal(t, uint32(12), decode(0x0FDE).cycles()) // RETS
	assert.Equal(t, uint32(12), decode(0x0199).cycles()) // RETD
}

func TestStringRendersArithmeticFormsDistinctly(t *testing.T) {
	ri := decode(0x0C07)
	assert.Contains(t, ri.String(), "ADD")
	assert.Contains(t, ri.String(), "0x7")

	rr := decode(0x0A80)
	assert.NotContains(t, rr.String(), "0x")
}
