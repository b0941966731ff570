package peripheral

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/kobolt/pic16sim/internal/pic"
)

// uartDelayThreshold is the number of PIR1 polls the simulated UART waits
// before it consumes one byte from the console source.
const uartDelayThreshold = 100

// LCDObserver reconstructs a simulated graphical LCD's control lines from
// PORTA/B/C writes, traces I2C SCL/SDA edges from TRISC writes, drives
// simulated UART reception from Console on PIR1 reads, and traces UART
// transmission on TXREG writes.
type LCDObserver struct {
	Out     io.Writer
	Console io.Reader

	tracePortA byte
	tracePortB byte
	tracePortC byte
	traceTRISC byte
	uartDelay  int

	reader *bufio.Reader
}

// NewLCDObserver returns an observer writing to stdout and reading
// simulated UART input from stdin.
func NewLCDObserver() *LCDObserver {
	return &LCDObserver{Out: os.Stdout, Console: os.Stdin}
}

func (l *LCDObserver) OnWrite(cpu *pic.CPU, addr uint16) {
	switch addr {
	case pic.RegTXREG:
		fmt.Fprintf(l.Out, "TXREG | 0x%02x\n", cpu.R[pic.RegTXREG])

	case pic.RegPORTA:
		v := cpu.R[pic.RegPORTA] & 0x28
		if v != l.tracePortA {
			l.tracePortA = v
			l.traceLCD(cpu.Cycle)
		}

	case pic.RegPORTB:
		v := cpu.R[pic.RegPORTB]
		if v != l.tracePortB {
			l.tracePortB = v
			l.traceLCD(cpu.Cycle)
		}

	case pic.RegPORTC:
		v := cpu.R[pic.RegPORTC] & 0x27
		if v != l.tracePortC {
			l.tracePortC = v
			l.traceLCD(cpu.Cycle)
		}

	case pic.RegTRISC:
		l.traceI2C(cpu.R[pic.RegTRISC], cpu.Cycle)
	}
}

// OnRead drives simulated UART reception. Every PIR1 read ticks a delay
// counter; once it overflows, one byte is consumed from Console, mapped
// (newline to carriage return, '.' to ESC) and injected into RCREG with
// PIR1.RCIF set.
func (l *LCDObserver) OnRead(cpu *pic.CPU, addr uint16) {
	if addr != pic.RegPIR1 {
		return
	}
	l.uartDelay++
	if l.uartDelay <= uartDelayThreshold {
		return
	}
	l.uartDelay = 0

	if l.reader == nil {
		l.reader = bufio.NewReader(l.Console)
	}
	b, err := l.reader.ReadByte()
	if err != nil {
		// EOF on the console source ends the session, matching the original
		// AE-GraphicLCD shim exiting cleanly on stdin EOF.
		log.Info("console source closed, exiting")
		os.Exit(0)
	}
	switch b {
	case '\n':
		b = '\r'
	case '.':
		b = 0x1B
	}
	cpu.R[pic.RegRCREG] = b
	cpu.R[pic.RegPIR1] |= 0x20
}

func (l *LCDObserver) traceLCD(cycle uint32) {
	cs1 := l.tracePortA&0x08 != 0
	cs2 := l.tracePortA&0x20 != 0
	rw := l.tracePortC&0x01 != 0
	dataType := l.tracePortC&0x02 != 0
	reset := l.tracePortC&0x04 != 0
	enable := l.tracePortC&0x20 != 0

	fmt.Fprintf(l.Out, "LCD | %08x %s %s %s %s %s %s %02x\n",
		cycle,
		pinLabel(cs1, "-  ", "CS1"),
		pinLabel(cs2, "-  ", "CS2"),
		pinLabel(reset, "Rst", "-  "),
		pinLabel(enable, "En", "- "),
		pinLabel(rw, "Read ", "Write"),
		pinLabel(dataType, "Data", "Cmd "),
		l.tracePortB)
}

func (l *LCDObserver) traceI2C(value byte, cycle uint32) {
	value &= 0x18
	if value == l.traceTRISC {
		return
	}
	l.traceTRISC = value
	scl := value&0x08 != 0
	sda := value&0x10 != 0
	fmt.Fprintf(l.Out, "I2C | %08x %s %s\n", cycle, pinLabel(scl, "SCL", "-  "), pinLabel(sda, "SDA", "-  "))
}

func pinLabel(set bool, whenSet, whenClear string) string {
	if set {
		return whenSet
	}
	return whenClear
}
