// Command p1dbg single-steps an E0C6S46 ROM image through the debug TUI.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"p1emu/cpu"
	"p1emu/primitive"
)

func main() {
	romPath := flag.String("rom", "", "path to a ROM image (16-bit big-endian words)")
	pc := flag.Uint("pc", 0, "initial program counter (13-bit word address)")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "p1dbg: -rom is required")
		os.Exit(2)
	}

	rom, err := loadROM(*romPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "p1dbg:", err)
		os.Exit(1)
	}

	ip := cpu.NewInterpreter(rom)
	ip.State.Registers.PCB = primitive.U1(*pc >> 12 & 1)
	ip.State.Registers.PCP = primitive.U4(*pc >> 8 & 0xF)
	ip.State.Registers.PCS = uint8(*pc)

	cpu.Debug(ip)
}

// loadROM reads a raw big-endian 16-bit-word ROM image. An odd-length file
// is an error since every instruction word is exactly two bytes.
func loadROM(path string) ([]uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("ROM image %s has an odd length (%d bytes)", path, len(raw))
	}

	words := make([]uint16, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[i*2:])
	}
	return words, nil
}
