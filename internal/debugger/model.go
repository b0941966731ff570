// Package debugger implements the synchronous step/continue/breakpoint
// REPL that drives pic.Execute, rendered as a bubbletea TUI in the style of
// the single-page instruction viewer it was generalized from.
package debugger

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"github.com/kobolt/pic16sim/internal/pic"
)

// inputMode tracks what a pending single-char command is waiting on.
type inputMode int

const (
	modeNormal inputMode = iota
	modeBreakpoint
	modePortA
	modePortB
	modePortC
	modePortD
	modePortE
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
var faultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

// Model is the bubbletea model for the debugger REPL. It drives a single
// *pic.CPU by calling pic.Execute in response to step/continue commands.
type Model struct {
	CPU   *pic.CPU
	Break *atomic.Bool // polled between instructions; SIGINT sets it

	breakpoint int32 // -1 when unset
	mode       inputMode
	entry      string

	output string
	fault  error
}

// NewModel returns a Model ready to debug cpu. brk is the flag a SIGINT
// handler (or anything else outside the REPL) sets to interrupt a running
// "continue"; the Model never replaces it, only stores into it. breakOnStart
// mirrors the original's `-d` flag: the REPL is entered before the first
// instruction executes.
func NewModel(cpu *pic.CPU, brk *atomic.Bool, breakOnStart bool) Model {
	m := Model{
		CPU:        cpu,
		Break:      brk,
		breakpoint: -1,
	}
	m.Break.Store(breakOnStart)
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	key := keyMsg.String()

	if m.mode != modeNormal {
		return m.updateEntry(key)
	}

	switch key {
	case "q":
		return m, tea.Quit

	case "h", "?":
		m.output = helpText()

	case "c":
		m.runUntilBreak()

	case "s":
		m.stepOnce()

	case "b":
		m.mode = modeBreakpoint
		m.entry = ""
		m.output = "breakpoint (hex, empty clears): "

	case "t":
		var b strings.Builder
		m.CPU.Trace.Dump(&b)
		m.output = b.String()

	case "r":
		var b strings.Builder
		m.CPU.DumpRegisters(&b)
		m.output = b.String()

	case "p":
		var b strings.Builder
		m.CPU.DumpPorts(&b)
		m.output = b.String()

	case "e":
		var b strings.Builder
		fmt.Fprintf(&b, "%s", spew.Sdump(m.CPU.Mem.EEPROM))
		m.output = b.String()

	case "A":
		m.mode = modePortA
		m.entry = ""
		m.output = "port A input (hex): "
	case "B":
		m.mode = modePortB
		m.entry = ""
		m.output = "port B input (hex): "
	case "C":
		m.mode = modePortC
		m.entry = ""
		m.output = "port C input (hex): "
	case "D":
		m.mode = modePortD
		m.entry = ""
		m.output = "port D input (hex): "
	case "E":
		m.mode = modePortE
		m.entry = ""
		m.output = "port E input (hex): "
	}

	return m, nil
}

// updateEntry collects hex digits for a pending breakpoint or port-input
// command, applying it on Enter.
func (m Model) updateEntry(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		m.applyEntry()
		m.mode = modeNormal
	case "esc":
		m.mode = modeNormal
		m.entry = ""
	case "backspace":
		if len(m.entry) > 0 {
			m.entry = m.entry[:len(m.entry)-1]
		}
	default:
		if len(key) == 1 {
			m.entry += key
		}
	}
	return m, nil
}

func (m *Model) applyEntry() {
	switch m.mode {
	case modeBreakpoint:
		if m.entry == "" {
			m.breakpoint = -1
			m.output = "breakpoint cleared"
			return
		}
		v, err := strconv.ParseUint(m.entry, 16, 16)
		if err != nil {
			m.output = "invalid breakpoint"
			return
		}
		m.breakpoint = int32(v & 0x1FFF)
		m.output = fmt.Sprintf("breakpoint set: 0x%04x", m.breakpoint)

	case modePortA, modePortB, modePortC, modePortD, modePortE:
		v, err := strconv.ParseUint(m.entry, 16, 8)
		if err != nil {
			m.output = "invalid port value"
			return
		}
		switch m.mode {
		case modePortA:
			m.CPU.InPortA = byte(v)
		case modePortB:
			m.CPU.InPortB = byte(v)
		case modePortC:
			m.CPU.InPortC = byte(v)
		case modePortD:
			m.CPU.InPortD = byte(v)
		case modePortE:
			m.CPU.InPortE = byte(v)
		}
		m.output = fmt.Sprintf("port input set to 0x%02x", byte(v))
	}
}

// stepOnce executes exactly one instruction.
func (m *Model) stepOnce() {
	if err := pic.Execute(m.CPU); err != nil {
		m.fault = err
		m.Break.Store(true)
		return
	}
	if int32(m.CPU.PC) == m.breakpoint {
		m.Break.Store(true)
	}
}

// runUntilBreak executes instructions until a fault, a breakpoint hit, or
// the pending-break flag (SIGINT) is observed.
func (m *Model) runUntilBreak() {
	m.Break.Store(false)
	for {
		if err := pic.Execute(m.CPU); err != nil {
			m.fault = err
			m.Break.Store(true)
			return
		}
		if int32(m.CPU.PC) == m.breakpoint {
			m.Break.Store(true)
			return
		}
		if m.Break.Load() {
			return
		}
	}
}

func (m Model) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%08x:%04x> ", m.CPU.Cycle, m.CPU.PC)
	if m.mode != modeNormal {
		fmt.Fprintf(&b, "%s%s", m.output, m.entry)
		return b.String()
	}
	if m.fault != nil {
		b.WriteString(faultStyle.Render(m.fault.Error()))
		b.WriteString("\n")
	}
	b.WriteString(headerStyle.Render("pic16sim debugger"))
	b.WriteString("\n")
	b.WriteString(m.output)
	return b.String()
}

func helpText() string {
	return strings.Join([]string{
		"q        - Quit",
		"h, ?     - Help",
		"c        - Continue",
		"s        - Step",
		"b <hex>  - Breakpoint",
		"t        - Dump trace",
		"r        - Dump registers",
		"p        - Dump ports",
		"e        - Dump EEPROM",
		"A-E <hex>- Set input on port A-E",
	}, "\n")
}
