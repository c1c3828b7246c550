package cpu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
)

type model struct {
	ip *Interpreter

	prevPC int
	err    error
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (m model) Init() tea.Cmd { return nil }

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case " ", "j":
			m.prevPC = m.ip.State.PC()
			if err := m.ip.Step(); err != nil {
				m.err = err
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// renderROM renders a 16-word window of ROM around pc, one instruction per
// line, with the current PC bracketed.
func (m model) renderROM() string {
	pc := m.ip.State.PC()
	lo := pc - 4
	if lo < 0 {
		lo = 0
	}
	hi := lo + 16
	if hi > len(m.ip.ROM) {
		hi = len(m.ip.ROM)
	}

	var b strings.Builder
	for addr := lo; addr < hi; addr++ {
		op := decode(m.ip.ROM[addr])
		if addr == pc {
			fmt.Fprintf(&b, "[%04X] %s\n", addr, op)
		} else {
			fmt.Fprintf(&b, " %04X  %s\n", addr, op)
		}
	}
	return b.String()
}

func (m model) registers() string {
	r := m.ip.State.Registers
	f := m.ip.State.Flags
	flagChar := func(on bool, ch string) string {
		if on {
			return ch
		}
		return "_"
	}
	return fmt.Sprintf(`
PC:  %03X (prev %03X)
PCS: %02X PCP: %X PCB: %X
NPP: %X NBP: %X
SP:  %02X
X:   %03X Y: %03X
A:   %X B: %X
I D Z C
%s %s %s %s
cycles: %d  tick: %d
`,
		m.ip.State.PC(), m.prevPC,
		r.PCS, r.PCP, r.PCB,
		r.NPP, r.NBP,
		r.SP,
		r.X, r.Y,
		r.A, r.B,
		flagChar(f.Has(FlagI), "I"), flagChar(f.Has(FlagD), "D"),
		flagChar(f.Has(FlagZ), "Z"), flagChar(f.Has(FlagC), "C"),
		m.ip.State.CycleCounter, m.ip.State.Tick,
	)
}

// lcd renders the 32x16 bitmap as block characters.
func (m model) lcd() string {
	lcd := m.ip.State.Memory.LCD
	var b strings.Builder
	for row := range lcd {
		for col := range lcd[row] {
			if lcd[row][col] {
				b.WriteString("#")
			} else {
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (m model) View() string {
	top := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderROM(),
		m.registers(),
	)
	bottom := m.lcd()
	if m.err != nil {
		bottom += "\nerror: " + m.err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, "", bottom, "", spew.Sdump(decode(m.ip.ROM[m.ip.State.PC()])))
}

// Debug starts an interactive single-step TUI over ip: space/j advances one
// instruction, q quits.
func Debug(ip *Interpreter) {
	result, err := tea.NewProgram(model{ip: ip}).Run()
	if err != nil {
		panic(err)
	}
	if x, ok := result.(model); ok && x.err != nil {
		fmt.Println("Error:", x.err)
	}
}
