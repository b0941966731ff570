package pic

import (
	"fmt"

	"github.com/kobolt/pic16sim/internal/bitfield"
)

// instrFunc implements one opcode's full semantics: decode its operands,
// mutate CPU state (including flags), and advance pc/cycle by the amount
// appropriate to whichever path was taken (e.g. a skip instruction advances
// by 1 or 2 depending on whether the skip fires). It returns the mnemonic
// and decoded operands for the trace line, or a fault if the chip cannot
// proceed.
type instrFunc func(c *CPU, opcode uint16) (string, error)

type opcodeEntry struct {
	Name  string
	Mask  uint16
	Value uint16
	Exec  instrFunc
}

// opcodeTable is matched in order; the first entry whose mask/value pair
// matches the fetched opcode decides the instruction. Order and patterns
// mirror the instruction set table exactly.
var opcodeTable = []opcodeEntry{
	{"NOP", 0xFF9F, 0x0000, execNOP},
	{"RETURN", 0xFFFF, 0x0008, execRETURN},
	{"TRIS", 0xFFFC, 0x0064, execTRIS},
	{"MOVWF", 0xFF80, 0x0080, execMOVWF},
	{"CLRW", 0xFF80, 0x0100, execCLRW},
	{"CLRF", 0xFF80, 0x0180, execCLRF},
	{"SUBWF", 0xFF00, 0x0200, execSUBWF},
	{"DECF", 0xFF00, 0x0300, execDECF},
	{"IORWF", 0xFF00, 0x0400, execIORWF},
	{"ANDWF", 0xFF00, 0x0500, execANDWF},
	{"XORWF", 0xFF00, 0x0600, execXORWF},
	{"ADDWF", 0xFF00, 0x0700, execADDWF},
	{"MOVF", 0xFF00, 0x0800, execMOVF},
	{"COMF", 0xFF00, 0x0900, execCOMF},
	{"INCF", 0xFF00, 0x0A00, execINCF},
	{"DECFSZ", 0xFF00, 0x0B00, execDECFSZ},
	{"RRF", 0xFF00, 0x0C00, execRRF},
	{"RLF", 0xFF00, 0x0D00, execRLF},
	{"SWAPF", 0xFF00, 0x0E00, execSWAPF},
	{"INCFSZ", 0xFF00, 0x0F00, execINCFSZ},
	{"BCF", 0xFC00, 0x1000, execBCF},
	{"BSF", 0xFC00, 0x1400, execBSF},
	{"BTFSC", 0xFC00, 0x1800, execBTFSC},
	{"BTFSS", 0xFC00, 0x1C00, execBTFSS},
	{"CALL", 0xF800, 0x2000, execCALL},
	{"GOTO", 0xF800, 0x2800, execGOTO},
	{"MOVLW", 0xFC00, 0x3000, execMOVLW},
	{"RETLW", 0xFC00, 0x3400, execRETLW},
	{"IORLW", 0xFF00, 0x3800, execIORLW},
	{"ANDLW", 0xFF00, 0x3900, execANDLW},
	{"XORLW", 0xFF00, 0x3A00, execXORLW},
	{"SUBLW", 0xFE00, 0x3C00, execSUBLW},
	{"ADDLW", 0xFE00, 0x3E00, execADDLW},
}

func decodeFD(opcode uint16) (f byte, d bool) {
	lo := byte(opcode)
	return bitfield.Last(lo, 7), bitfield.IsSet(lo, bitfield.Bit7)
}

func decodeFB(opcode uint16) (f byte, b byte) {
	f = bitfield.Last(byte(opcode), 7)
	b = bitfield.Range(byte(opcode>>7), bitfield.Bit0, bitfield.Bit2)
	return f, b
}

func decodeK8(opcode uint16) byte {
	return byte(opcode & 0xFF)
}

func decodeK11(opcode uint16) uint16 {
	return opcode & 0x7FF
}

// branchTarget combines an 11-bit literal with PCLATH<4:3> the way GOTO and
// CALL assemble their destination.
func (c *CPU) branchTarget(k uint16) uint16 {
	return (k | (uint16(c.R[RegPCLATH]&0x18) << 8)) & pcMask
}

// storeResult writes result to W or to register f depending on d.
func (c *CPU) storeResult(f byte, d bool, result byte) error {
	if !d {
		c.W = result
		return nil
	}
	return c.RegWrite(f, result)
}

// zSource returns the value the Z flag should be computed from after
// storeResult has run: a fresh read of f when the result was written back
// (since f may be a port whose read-back differs from the raw value just
// stored, per the TRIS mux), or the value itself when it went to W.
func (c *CPU) zSource(f byte, d bool, result byte) byte {
	if d {
		return c.RegRead(f)
	}
	return result
}

func execNOP(c *CPU, opcode uint16) (string, error) {
	c.PC++
	c.Cycle++
	return "NOP", nil
}

func execRETURN(c *CPU, opcode uint16) (string, error) {
	if c.SP == 0 {
		return "", fault("call stack underflow on RETURN")
	}
	c.SP--
	c.PC = c.Stack[c.SP]
	c.Cycle += 2
	return "RETURN", nil
}

func execTRIS(c *CPU, opcode uint16) (string, error) {
	f := bitfield.Range(byte(opcode), bitfield.Bit0, bitfield.Bit1)
	switch f {
	case 1:
		c.R[RegTRISA] = c.W
	case 2:
		c.R[RegTRISB] = c.W
	case 3:
		c.R[RegTRISC] = c.W
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("TRIS %d", f), nil
}

func execMOVWF(c *CPU, opcode uint16) (string, error) {
	f, _ := decodeFD(opcode)
	if err := c.RegWrite(f, c.W); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("MOVWF 0x%02x", f), nil
}

func execCLRW(c *CPU, opcode uint16) (string, error) {
	c.W = 0
	c.setZ(0)
	c.PC++
	c.Cycle++
	return "CLRW", nil
}

func execCLRF(c *CPU, opcode uint16) (string, error) {
	f, _ := decodeFD(opcode)
	if err := c.RegWrite(f, 0); err != nil {
		return "", err
	}
	c.setZ(0)
	c.PC++
	c.Cycle++
	return fmt.Sprintf("CLRF 0x%02x", f), nil
}

func execSUBWF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	fv := c.RegRead(f)
	result := fv - c.W
	c.setCarrySub(fv, c.W)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("SUBWF 0x%02x, %d", f, boolToD(d)), nil
}

func execDECF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) - 1
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("DECF 0x%02x, %d", f, boolToD(d)), nil
}

func execIORWF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) | c.W
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("IORWF 0x%02x, %d", f, boolToD(d)), nil
}

func execANDWF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) & c.W
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("ANDWF 0x%02x, %d", f, boolToD(d)), nil
}

func execXORWF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) ^ c.W
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("XORWF 0x%02x, %d", f, boolToD(d)), nil
}

func execADDWF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	fv := c.RegRead(f)
	result := fv + c.W
	c.setCarryAdd(fv, c.W)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("ADDWF 0x%02x, %d", f, boolToD(d)), nil
}

func execMOVF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("MOVF 0x%02x, %d", f, boolToD(d)), nil
}

func execCOMF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := ^c.RegRead(f)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("COMF 0x%02x, %d", f, boolToD(d)), nil
}

func execINCF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) + 1
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.setZ(c.zSource(f, d, result))
	c.PC++
	c.Cycle++
	return fmt.Sprintf("INCF 0x%02x, %d", f, boolToD(d)), nil
}

func execDECFSZ(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) - 1
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	if result == 0 {
		c.PC += 2
		c.Cycle += 2
	} else {
		c.PC++
		c.Cycle++
	}
	return fmt.Sprintf("DECFSZ 0x%02x, %d", f, boolToD(d)), nil
}

func execRRF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	fv := c.RegRead(f)
	oldC := c.FlagC()
	newC := fv&0x01 != 0
	result := fv >> 1
	if oldC {
		result |= 0x80
	}
	c.setStatusBit(statusC, newC)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("RRF 0x%02x, %d", f, boolToD(d)), nil
}

func execRLF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	fv := c.RegRead(f)
	oldC := c.FlagC()
	newC := fv&0x80 != 0
	result := fv << 1
	if oldC {
		result |= 0x01
	}
	c.setStatusBit(statusC, newC)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("RLF 0x%02x, %d", f, boolToD(d)), nil
}

func execSWAPF(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	fv := c.RegRead(f)
	result := (fv << 4) | (fv >> 4)
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("SWAPF 0x%02x, %d", f, boolToD(d)), nil
}

func execINCFSZ(c *CPU, opcode uint16) (string, error) {
	f, d := decodeFD(opcode)
	result := c.RegRead(f) + 1
	if err := c.storeResult(f, d, result); err != nil {
		return "", err
	}
	if result == 0 {
		c.PC += 2
		c.Cycle += 2
	} else {
		c.PC++
		c.Cycle++
	}
	return fmt.Sprintf("INCFSZ 0x%02x, %d", f, boolToD(d)), nil
}

func execBCF(c *CPU, opcode uint16) (string, error) {
	f, b := decodeFB(opcode)
	result := bitfield.Clear(c.RegRead(f), bitfield.Pos(b))
	if err := c.RegWrite(f, result); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("BCF 0x%02x, %d", f, b), nil
}

func execBSF(c *CPU, opcode uint16) (string, error) {
	f, b := decodeFB(opcode)
	result := bitfield.Set(c.RegRead(f), bitfield.Pos(b))
	if err := c.RegWrite(f, result); err != nil {
		return "", err
	}
	c.PC++
	c.Cycle++
	return fmt.Sprintf("BSF 0x%02x, %d", f, b), nil
}

func execBTFSC(c *CPU, opcode uint16) (string, error) {
	f, b := decodeFB(opcode)
	if !bitfield.IsSet(c.RegRead(f), bitfield.Pos(b)) {
		c.PC += 2
		c.Cycle += 2
	} else {
		c.PC++
		c.Cycle++
	}
	return fmt.Sprintf("BTFSC 0x%02x, %d", f, b), nil
}

func execBTFSS(c *CPU, opcode uint16) (string, error) {
	f, b := decodeFB(opcode)
	if bitfield.IsSet(c.RegRead(f), bitfield.Pos(b)) {
		c.PC += 2
		c.Cycle += 2
	} else {
		c.PC++
		c.Cycle++
	}
	return fmt.Sprintf("BTFSS 0x%02x, %d", f, b), nil
}

func execCALL(c *CPU, opcode uint16) (string, error) {
	k := decodeK11(opcode)
	if c.SP >= stackSize {
		return "", fault("call stack overflow on CALL 0x%03x", k)
	}
	c.Stack[c.SP] = c.PC + 1
	c.SP++
	c.PC = c.branchTarget(k)
	c.Cycle += 2
	return fmt.Sprintf("CALL 0x%03x", k), nil
}

func execGOTO(c *CPU, opcode uint16) (string, error) {
	k := decodeK11(opcode)
	c.PC = c.branchTarget(k)
	c.Cycle += 2
	return fmt.Sprintf("GOTO 0x%03x", k), nil
}

func execMOVLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	c.W = k
	c.PC++
	c.Cycle++
	return fmt.Sprintf("MOVLW 0x%02x", k), nil
}

func execRETLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	if c.SP == 0 {
		return "", fault("call stack underflow on RETLW 0x%02x", k)
	}
	c.SP--
	c.PC = c.Stack[c.SP]
	c.W = k
	c.Cycle += 2
	return fmt.Sprintf("RETLW 0x%02x", k), nil
}

func execIORLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	c.W |= k
	c.setZ(c.W)
	c.PC++
	c.Cycle++
	return fmt.Sprintf("IORLW 0x%02x", k), nil
}

func execANDLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	c.W &= k
	c.setZ(c.W)
	c.PC++
	c.Cycle++
	return fmt.Sprintf("ANDLW 0x%02x", k), nil
}

func execXORLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	c.W ^= k
	c.setZ(c.W)
	c.PC++
	c.Cycle++
	return fmt.Sprintf("XORLW 0x%02x", k), nil
}

func execSUBLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	result := k - c.W
	c.setCarrySub(k, c.W)
	c.setZ(result)
	c.W = result
	c.PC++
	c.Cycle++
	return fmt.Sprintf("SUBLW 0x%02x", k), nil
}

func execADDLW(c *CPU, opcode uint16) (string, error) {
	k := decodeK8(opcode)
	result := k + c.W
	c.setCarryAdd(k, c.W)
	c.setZ(result)
	c.W = result
	c.PC++
	c.Cycle++
	return fmt.Sprintf("ADDLW 0x%02x", k), nil
}

func boolToD(d bool) int {
	if d {
		return 1
	}
	return 0
}
