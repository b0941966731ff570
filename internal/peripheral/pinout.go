// Package peripheral implements the CPU's two pluggable register-access
// observers: a chip pinout renderer and an AE-GraphicLCD/I2C/UART trace.
package peripheral

import (
	"fmt"
	"strings"

	"github.com/kobolt/pic16sim/internal/pic"
)

// PinoutObserver renders the chip's port pins, one line per bit per port,
// with a direction arrow and current effective level. Render refreshes on
// every write to a PORTx or TRISx register.
type PinoutObserver struct {
	view string
}

// NewPinoutObserver returns an observer with an empty initial view.
func NewPinoutObserver() *PinoutObserver {
	return &PinoutObserver{}
}

func (p *PinoutObserver) OnRead(cpu *pic.CPU, addr uint16) {}

func (p *PinoutObserver) OnWrite(cpu *pic.CPU, addr uint16) {
	switch addr {
	case pic.RegPORTA, pic.RegPORTB, pic.RegPORTC, pic.RegPORTD, pic.RegPORTE,
		pic.RegTRISA, pic.RegTRISB, pic.RegTRISC, pic.RegTRISD, pic.RegTRISE:
		p.view = render(cpu)
	}
}

// View returns the most recently rendered pinout.
func (p *PinoutObserver) View() string {
	return p.view
}

var pinoutPorts = []struct {
	label string
	port  uint16
	tris  uint16
}{
	{"A", pic.RegPORTA, pic.RegTRISA},
	{"B", pic.RegPORTB, pic.RegTRISB},
	{"C", pic.RegPORTC, pic.RegTRISC},
	{"D", pic.RegPORTD, pic.RegTRISD},
	{"E", pic.RegPORTE, pic.RegTRISE},
}

func render(cpu *pic.CPU) string {
	var b strings.Builder
	for _, p := range pinoutPorts {
		tris := cpu.R[p.tris]
		level := cpu.PortRead(p.port)
		fmt.Fprintf(&b, "+------------------+\n")
		for bit := 7; bit >= 0; bit-- {
			dir := "-->"
			if (tris>>uint(bit))&1 == 1 {
				dir = "<--"
			}
			fmt.Fprintf(&b, "| R%s%d %s %d          |\n", p.label, bit, dir, (level>>uint(bit))&1)
		}
		fmt.Fprintf(&b, "+------------------+\n")
	}
	return b.String()
}
