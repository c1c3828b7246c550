package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"p1emu/primitive"
)

func TestGetSetRAM(t *testing.T) {
	m := New()
	m.Set(0x100, primitive.U4(0x7))
	assert.Equal(t, primitive.U4(0x7), m.Get(0x100))
	assert.NoError(t, m.Err())
}

func TestSlice(t *testing.T) {
	m := New()
	m.Set(0x10, primitive.U4(0x1))
	m.Set(0x11, primitive.U4(0x2))
	m.Set(0x12, primitive.U4(0x3))
	got := m.Slice(0x10, 0x13)
	assert.Equal(t, []primitive.U4{0x1, 0x2, 0x3}, got)
}

func TestClearOnReadFactorFlags(t *testing.T) {
	m := New()
	m.SetFactor(RegClockIntFactor, primitive.U4(0b1000))
	assert.Equal(t, primitive.U4(0b1000), m.Get(RegClockIntFactor))
	// a second read observes the flag cleared by the first
	assert.Equal(t, primitive.U4(0), m.Get(RegClockIntFactor))
}

func TestEIRegistersAssertExpectedConstant(t *testing.T) {
	m := New()
	m.Strict = false

	m.Set(RegEIT, primitive.U4(0x8))
	assert.NoError(t, m.Err())

	m.Set(RegEIT, primitive.U4(0x1))
	assert.Error(t, m.Err())

	m.Set(RegEIPT, primitive.U4(0x1))
	assert.NoError(t, m.Err())
}

func TestLCDContrastMustEqual8(t *testing.T) {
	m := New()
	m.Strict = false

	m.Set(RegLCDContrast, primitive.U4(0x8))
	assert.NoError(t, m.Err())

	m.Set(RegLCDContrast, primitive.U4(0x3))
	assert.Error(t, m.Err())
}

func TestSVDBit3ForcedOffOnRead(t *testing.T) {
	m := New()
	m.Set(RegSVD, primitive.U4(0b1111))
	assert.Equal(t, primitive.U4(0b0111), m.Get(RegSVD))
}

func TestUnmappedIO(t *testing.T) {
	m := New()
	m.Strict = false
	m.Set(0xF90, primitive.U4(0x1))
	assert.Error(t, m.Err())

	_ = m.Get(0xF90)
	assert.Error(t, m.Err())
}

func TestClockWatchdogResetClearsTicks(t *testing.T) {
	m := New()
	m.ClockTimerTicks = 12345
	m.Set(RegClockWatchdogReset, primitive.U4(0b0010))
	assert.Equal(t, uint32(0), m.ClockTimerTicks)
}

func TestClockWatchdogResetIgnoresOtherBits(t *testing.T) {
	m := New()
	m.ClockTimerTicks = 42
	m.Set(RegClockWatchdogReset, primitive.U4(0b0001))
	assert.Equal(t, uint32(42), m.ClockTimerTicks)
}

func TestProgTimerReloadAndRun(t *testing.T) {
	m := New()
	m.Set(RegProgTimerReloadLo, primitive.U4(0x5))
	m.Set(RegProgTimerReloadHi, primitive.U4(0x1))

	m.ProgTimerTicks = 99
	m.Set(RegProgTimerDataLo, primitive.U4(0x0))
	m.Set(RegProgTimerDataHi, primitive.U4(0x0))

	m.Set(RegProgTimerResetRun, primitive.U4(0b0010)) // reload bit
	assert.Equal(t, uint32(0), m.ProgTimerTicks)
	assert.Equal(t, uint8(0x15), m.ProgTimerData())

	assert.False(t, m.ProgTimerEnabled())
	m.Set(RegProgTimerResetRun, primitive.U4(0b0001)) // run bit
	assert.True(t, m.ProgTimerEnabled())
}

func TestClockTimerIntEnabled(t *testing.T) {
	m := New()
	assert.False(t, m.ClockTimerIntEnabled())
	m.Set(RegEIT, primitive.U4(0x8))
	assert.True(t, m.ClockTimerIntEnabled())
}

func TestProgTimerIntEnabled(t *testing.T) {
	m := New()
	assert.False(t, m.ProgTimerIntEnabled())
	m.Set(RegEIPT, primitive.U4(0x1))
	assert.True(t, m.ProgTimerIntEnabled())
}

func TestProgTimerDataRoundTrip(t *testing.T) {
	m := New()
	m.SetProgTimerData(0xAB)
	assert.Equal(t, uint8(0xAB), m.ProgTimerData())
}

func TestWriteLCD(t *testing.T) {
	m := New()
	m.Set(0xE00, primitive.U4(0b0011))
	assert.True(t, m.LCD[0][0])
	assert.True(t, m.LCD[0][1])
}

func TestInputPortResetState(t *testing.T) {
	m := New()
	assert.Equal(t, primitive.U4(0b0111), m.Get(RegInputK00K03))
}
