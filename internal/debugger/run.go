package debugger

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kobolt/pic16sim/internal/pic"
)

// Run starts the interactive debugger TUI against cpu and blocks until the
// user quits. brk is shared with the caller's SIGINT handler so Ctrl-C still
// interrupts a "continue" once the REPL owns the CPU. A fault encountered
// while stepping or continuing is displayed in the TUI rather than returned
// here; only a failure of the terminal program itself is propagated.
func Run(cpu *pic.CPU, brk *atomic.Bool, breakOnStart bool) error {
	m := NewModel(cpu, brk, breakOnStart)
	_, err := tea.NewProgram(m).Run()
	return err
}
