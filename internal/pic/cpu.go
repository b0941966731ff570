// Package pic implements the PIC16 CPU core: the banked register file, the
// working register, program counter, hardware call stack, cycle counter,
// port input latches, and the instruction decoder/executor.
package pic

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/kobolt/pic16sim/internal/bitfield"
	"github.com/kobolt/pic16sim/internal/memory"
	"github.com/kobolt/pic16sim/internal/trace"
)

const (
	registerFileSize = 0x200
	stackSize        = 8
	pcMask           = 0x1FFF // 13 bits
)

// FaultError reports a condition the PIC16 hardware cannot recover from on
// its own: an unrecognized opcode, a stack over/underflow, or an
// EEPROM access targeting program memory (EEPGD=1, unimplemented). The
// driver is expected to break into the debugger on receiving one.
type FaultError struct {
	Message string
}

func (e *FaultError) Error() string { return e.Message }

func fault(format string, args ...any) *FaultError {
	msg := fmt.Sprintf(format, args...)
	log.Warn("pic fault", "message", msg)
	return &FaultError{Message: msg}
}

// CPU holds the full architectural state of one PIC16 core.
type CPU struct {
	PC    uint16 // 13-bit program counter, addresses words
	W     uint8  // working register
	R     [registerFileSize]byte
	Stack [stackSize]uint16
	SP    uint8

	Cycle uint32

	InPortA, InPortB, InPortC, InPortD, InPortE byte

	Mem   *memory.Image
	Trace *trace.Ring

	hooks Hooks
}

// New returns a CPU wired to mem, with all state zeroed and hooks set to a
// no-op default.
func New(mem *memory.Image) *CPU {
	return &CPU{
		Mem:   mem,
		Trace: trace.New(),
		hooks: NopHooks{},
	}
}

// Reset zeroes all CPU state fields. Mem and Trace are left attached.
func (c *CPU) Reset() {
	c.PC = 0
	c.W = 0
	c.R = [registerFileSize]byte{}
	c.Stack = [stackSize]uint16{}
	c.SP = 0
	c.Cycle = 0
	c.InPortA, c.InPortB, c.InPortC, c.InPortD, c.InPortE = 0, 0, 0, 0, 0
}

// SetHooks installs the single active peripheral observer. Passing nil
// restores the no-op default.
func (c *CPU) SetHooks(h Hooks) {
	if h == nil {
		h = NopHooks{}
	}
	c.hooks = h
}

func (c *CPU) status() byte { return c.R[RegSTATUS] }

func (c *CPU) statusBit(pos int) bool { return bitfield.IsSet(c.R[RegSTATUS], bitfield.Pos(pos)) }

func (c *CPU) setStatusBit(pos int, v bool) {
	c.R[RegSTATUS] = bitfield.Put(c.R[RegSTATUS], bitfield.Pos(pos), v)
}

// FlagC reports the STATUS carry bit.
func (c *CPU) FlagC() bool { return c.statusBit(statusC) }

// FlagZ reports the STATUS zero bit.
func (c *CPU) FlagZ() bool { return c.statusBit(statusZ) }

// Bank reports the currently selected register bank (0-3), from RP1:RP0.
func (c *CPU) Bank() byte {
	return bitfield.Range(c.status(), bitfield.Pos(statusRP0), bitfield.Pos(statusRP1))
}

// portEffective computes the read-back value of a port given its TRIS
// register and external input latch: output-configured bits reflect the
// last value written to the port, input-configured bits reflect the
// latched external level.
func portEffective(port, tris, input byte) byte {
	return (port &^ tris) | (input & tris)
}

// PortRead returns the effective value of PORTA..PORTE, applying the
// TRIS-driven input/output mux. reg must be one of RegPORTA..RegPORTE.
func (c *CPU) PortRead(reg uint16) byte {
	switch reg {
	case RegPORTA:
		return portEffective(c.R[RegPORTA], c.R[RegTRISA], c.InPortA)
	case RegPORTB:
		return portEffective(c.R[RegPORTB], c.R[RegTRISB], c.InPortB)
	case RegPORTC:
		return portEffective(c.R[RegPORTC], c.R[RegTRISC], c.InPortC)
	case RegPORTD:
		return portEffective(c.R[RegPORTD], c.R[RegTRISD], c.InPortD)
	case RegPORTE:
		return portEffective(c.R[RegPORTE], c.R[RegTRISE], c.InPortE)
	default:
		return 0
	}
}

// RegRead performs a banked register read through the 7-bit direct-address
// opcode field f, applying mirroring, indirection and the documented
// register side effects, then invokes the active read hook.
func (c *CPU) RegRead(f byte) byte {
	addr := effectiveAddr(c.status(), f)
	return c.regReadAddr(addr)
}

func (c *CPU) regReadAddr(addr uint16) byte {
	res := canonicalize(c.status(), addr)
	switch {
	case res.indirect:
		// INDF resolves to a raw storage slot, not back through the
		// special-case register switch: a read via FSR pointed at, say,
		// PORTB sees the raw latch, not the TRIS-masked effective value.
		addr = indirectAddr(c.status(), c.R[RegFSR])
		v := c.R[addr]
		c.hooks.OnRead(c, addr)
		return v
	case res.isPCL:
		return byte(c.PC & 0xFF)
	default:
		return c.regReadResolved(res.addr)
	}
}

func (c *CPU) regReadResolved(addr uint16) byte {
	switch addr {
	case RegRCREG:
		c.R[RegPIR1] &^= 0x20 // reading RCREG clears RCIF
	case RegPIR1:
		c.R[RegPIR1] |= 0x10 // TXIF always reads set
	case RegTXSTA:
		c.R[RegTXSTA] |= 0x02 // TRMT always reads set
	case RegPORTA, RegPORTB, RegPORTC, RegPORTD, RegPORTE:
		v := c.PortRead(addr)
		c.hooks.OnRead(c, addr)
		return v
	}
	v := c.R[addr]
	c.hooks.OnRead(c, addr)
	return v
}

// RegWrite performs a banked register write through the 7-bit direct-address
// opcode field f, applying mirroring, indirection and the documented
// register side effects, then invokes the active write hook. Returns a
// fault if the write is an EEPROM access targeting program memory.
func (c *CPU) RegWrite(f byte, value byte) error {
	addr := effectiveAddr(c.status(), f)
	return c.regWriteAddr(addr, value)
}

func (c *CPU) regWriteAddr(addr uint16, value byte) error {
	res := canonicalize(c.status(), addr)
	switch {
	case res.indirect:
		// As in regReadAddr: INDF bypasses RCSTA/EECON1/PORTx side effects
		// and writes the raw storage slot directly.
		addr = indirectAddr(c.status(), c.R[RegFSR])
		c.R[addr] = value
		c.hooks.OnWrite(c, addr)
		return nil
	case res.isPCL:
		c.PC = (c.PC & 0xFF00) | uint16(value)
		return nil
	default:
		return c.regWriteResolved(res.addr, value)
	}
}

func (c *CPU) regWriteResolved(addr uint16, value byte) error {
	switch addr {
	case RegRCSTA:
		if value&0x10 == 0 {
			value &^= 0x02 // clearing CREN also clears OERR
		}
	case RegEECON1:
		if value&0x01 != 0 {
			if value&0x80 != 0 {
				return fault("EEPROM read targeting program memory not implemented")
			}
			c.R[RegEEDATA] = c.Mem.EEPROMRead(c.R[RegEEADR])
		} else if value&0x02 != 0 {
			if value&0x80 != 0 {
				return fault("EEPROM write targeting program memory not implemented")
			}
			c.Mem.EEPROMWrite(c.R[RegEEADR], c.R[RegEEDATA])
			value &^= 0x02 // WR auto-clears once the write completes
		}
	}
	c.R[addr] = value
	c.hooks.OnWrite(c, addr)
	return nil
}
