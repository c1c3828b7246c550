package cpu

import "p1emu/primitive"

// Button is one of the three P1 face buttons, mapped onto the K00-K03 input
// port.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonC
)

// bit returns the active-low bit this button pulls low when held.
func (b Button) bit() primitive.U4 {
	switch b {
	case ButtonA:
		return 0b0100
	case ButtonB:
		return 0b0010
	case ButtonC:
		return 0b0001
	}
	panic("unreachable Button value")
}

// Input is the 4-bit K00-K03 port. Bit 3 is unused by the three-button P1
// and stays clear; a held button clears its bit (active-low).
type Input struct {
	State primitive.U4
}

func NewInput() Input { return Input{State: 0b0111} }

// Press clears the button's bit (the wire is pulled low).
func (in *Input) Press(b Button) { in.State = in.State.And(b.bit().Not()) }

// Release sets the button's bit back.
func (in *Input) Release(b Button) { in.State = in.State.Or(b.bit()) }
