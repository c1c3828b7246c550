package cpu

import (
	"fmt"
	"log"

	"p1emu/memory"
)

// clockTimerPeriod and progTimerPeriod are the cycle counts between ticks
// of the 1 Hz clock timer and 256 Hz programmable timer respectively, on a
// 32768 Hz system clock.
const (
	clockTimerPeriod = 32768
	progTimerPeriod  = 128
)

// interruptSource is one row of the priority-ordered interrupt table: a
// factor-flag address, an enabled predicate reading the matching mask
// register, and the 13-bit vector address (as PCP:PCS, PCB always 0) the
// CPU jumps to when the source fires.
type interruptSource struct {
	factorAddr int
	enabled    func(*memory.Memory) bool
	vector     uint16
}

func alwaysDisabled(*memory.Memory) bool { return false }

// interruptSources lists every vector in descending priority. Stopwatch,
// K00-K03, K10-K13, and serial are wired into the table for completeness
// but can never actually fire: their enable-mask registers are asserted to
// the constant 0 on every write (memory.go's setIO), so ROM code can never
// turn them on without tripping that assertion first.
var interruptSources = []interruptSource{
	{memory.RegClockIntFactor, (*memory.Memory).ClockTimerIntEnabled, 0x102},
	{memory.RegStopwatchIntFactor, alwaysDisabled, 0x104},
	{memory.RegK00K03IntFactor, alwaysDisabled, 0x106},
	{memory.RegK10K13IntFactor, alwaysDisabled, 0x108},
	{memory.RegSerialIntFactor, alwaysDisabled, 0x10A},
	{memory.RegProgTimerIntFactor, (*memory.Memory).ProgTimerIntEnabled, 0x10C},
}

// PCOutOfRange is returned when Step would fetch past the end of the loaded
// ROM image.
type PCOutOfRange struct{ PC int }

func (e PCOutOfRange) Error() string {
	return fmt.Sprintf("program counter out of range: %d", e.PC)
}

// Interpreter runs a 16-bit ROM image against a State: fetch, decode,
// execute, apply, tick the timers, and dispatch a pending interrupt.
type Interpreter struct {
	State *State
	ROM   []uint16
}

// NewInterpreter returns an Interpreter over rom with a fresh State.
func NewInterpreter(rom []uint16) *Interpreter {
	return &Interpreter{State: NewState(), ROM: rom}
}

// Step runs exactly one instruction: fetch at PC, advance PCS, decode,
// execute into a Changes log, apply it, account cycles, tick the hardware
// timers, and — for any opcode other than PSET — reset the NPP/NBP prefix
// latch from PCP/PCB and check for a pending interrupt. The step's change
// log is left in State.Changes.
func (ip *Interpreter) Step() error {
	s := ip.State
	s.Changes = nil

	if s.Halted {
		const haltCycles = 7
		s.CycleCounter += haltCycles
		s.Tick++
		ip.tick(haltCycles)
		ip.dispatchInterrupt()
		return nil
	}

	pc := s.PC()
	if pc < 0 || pc >= len(ip.ROM) {
		return PCOutOfRange{PC: pc}
	}
	word := ip.ROM[pc]

	s.Registers.PCS++

	op := decode(word)
	changes, err := exec(s, op)
	if err != nil {
		return err
	}
	s.Changes = changes
	s.Apply(changes)

	if op.Kind == OpHALT {
		s.Halted = true
		log.Printf("cpu: HALT at PC %#03X", s.PC())
	}

	cycles := op.cycles()
	s.CycleCounter += uint64(cycles)
	s.Tick++

	ip.tick(cycles)

	if op.interruptible() {
		s.Registers.NPP = s.Registers.PCP
		s.Registers.NBP = s.Registers.PCB
		ip.dispatchInterrupt()
	}

	return nil
}

// tick advances the clock timer and (when running) the programmable timer
// by cycles system-clock ticks, firing their factor flags and reloading the
// programmable timer's down-counter on underflow.
func (ip *Interpreter) tick(cycles uint32) {
	m := ip.State.Memory

	m.ClockTimerTicks += cycles
	for m.ClockTimerTicks >= clockTimerPeriod {
		m.ClockTimerTicks -= clockTimerPeriod
		m.SetFactor(memory.RegClockIntFactor, 0b1000)
	}

	if !m.ProgTimerEnabled() {
		return
	}
	m.ProgTimerTicks += cycles
	for m.ProgTimerTicks >= progTimerPeriod {
		m.ProgTimerTicks -= progTimerPeriod
		if m.ProgTimerData() == 0 {
			reload := uint8(m.Get(memory.RegProgTimerReloadLo)) | uint8(m.Get(memory.RegProgTimerReloadHi))<<4
			m.SetProgTimerData(reload)
			m.SetFactor(memory.RegProgTimerIntFactor, 0b0001)
		} else {
			m.SetProgTimerData(m.ProgTimerData() - 1)
		}
	}
}

// dispatchInterrupt checks every source in priority order and, for the
// first one that is globally enabled (FlagI), source-enabled, and has its
// factor bit set, pushes the return address (the same three-nibble layout
// CALL uses), clears FlagI, and jumps to the vector.
func (ip *Interpreter) dispatchInterrupt() {
	s := ip.State
	if !s.Flags.Has(FlagI) {
		return
	}
	for _, src := range interruptSources {
		if !src.enabled(s.Memory) {
			continue
		}
		if s.Memory.Get(src.factorAddr) == 0 {
			continue
		}

		var c Changes
		pushReturnAddress(s, &c)
		c.RegU4(RegNPP, 1)
		c.RegU4(RegPCB, 0)
		c.RegU4(RegPCP, 1)
		c.RegU8(RegPCS, uint8(src.vector&0xFF))
		c.SetFlags(s.Flags.Clear(FlagI))
		s.Apply(c)

		s.CycleCounter += 12
		if s.Halted {
			s.Halted = false
			log.Printf("cpu: woke from HALT, vector %#04X", src.vector)
		}
		return
	}
}
