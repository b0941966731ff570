package pic

import (
	"fmt"
	"io"
)

// DumpRegisters writes the full register file as a 16-column hex grid, one
// row per 16 consecutive addresses, each row labelled by address/16.
func (c *CPU) DumpRegisters(w io.Writer) error {
	bw := &errWriter{w: w}
	fmt.Fprint(bw, "    ")
	for i := 0; i < 16; i++ {
		fmt.Fprintf(bw, " %x ", i)
	}
	fmt.Fprint(bw, "\n")
	for i := 0; i < registerFileSize; i++ {
		if i%16 == 0 {
			fmt.Fprintf(bw, "%02x: ", i/16)
		}
		fmt.Fprintf(bw, "%02x ", c.R[i])
		if i%16 == 15 {
			fmt.Fprint(bw, "\n")
		}
	}
	return bw.err
}

// DumpPorts writes, for each of PORTA..PORTE, a summary line followed by
// eight per-bit lines showing direction and effective level.
func (c *CPU) DumpPorts(w io.Writer) error {
	bw := &errWriter{w: w}
	ports := []struct {
		name      string
		port      uint16
		tris      uint16
		inputPort byte
	}{
		{"PORTA", RegPORTA, RegTRISA, c.InPortA},
		{"PORTB", RegPORTB, RegTRISB, c.InPortB},
		{"PORTC", RegPORTC, RegTRISC, c.InPortC},
		{"PORTD", RegPORTD, RegTRISD, c.InPortD},
		{"PORTE", RegPORTE, RegTRISE, c.InPortE},
	}
	for _, p := range ports {
		port := c.R[p.port]
		tris := c.R[p.tris]
		fmt.Fprintf(bw, "%s = 0x%02x, TRIS%s = 0x%02x, Input = %02x\n",
			p.name, port, p.name[4:], tris, p.inputPort)
		effective := portEffective(port, tris, p.inputPort)
		for bit := 0; bit < 8; bit++ {
			dir := (tris >> bit) & 1
			arrow := " -->"
			if dir == 1 {
				arrow = "<-- "
			}
			fmt.Fprintf(bw, "  %d %s %d\n", bit, arrow, (effective>>bit)&1)
		}
	}
	return bw.err
}

// errWriter wraps an io.Writer and latches the first error encountered,
// letting a dump's many small writes be issued without per-call checks.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
