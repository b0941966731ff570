package pic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobolt/pic16sim/internal/memory"
)

func newTestCPU(program ...uint16) *CPU {
	mem := memory.New()
	for i, word := range program {
		mem.Program[i] = word
	}
	return New(mem)
}

func TestMovlwThenMovwf(t *testing.T) {
	c := newTestCPU(0x3042, 0x0085) // MOVLW 0x42 ; MOVWF PORTA (0x05)
	require.NoError(t, Execute(c))
	require.NoError(t, Execute(c))
	assert.Equal(t, byte(0x42), c.W)
	assert.Equal(t, byte(0x42), c.R[RegPORTA])
	assert.Equal(t, uint16(2), c.PC)
	assert.Equal(t, uint32(2), c.Cycle)
}

func TestAddlwWrapSetsZAndC(t *testing.T) {
	c := newTestCPU(0x3001, 0x3EFF) // MOVLW 0x01 ; ADDLW 0xFF
	require.NoError(t, Execute(c))
	require.NoError(t, Execute(c))
	assert.Equal(t, byte(0x00), c.W)
	assert.True(t, c.FlagZ())
	assert.True(t, c.FlagC())
	assert.Equal(t, uint16(2), c.PC)
	assert.Equal(t, uint32(2), c.Cycle)
}

func TestSublwBorrow(t *testing.T) {
	c := newTestCPU(0x3005, 0x3C03) // MOVLW 5 ; SUBLW 3
	require.NoError(t, Execute(c))
	require.NoError(t, Execute(c))
	assert.Equal(t, byte(0xFE), c.W)
	assert.False(t, c.FlagZ())
	assert.False(t, c.FlagC())
}

func TestCallReturnCycleAccounting(t *testing.T) {
	c := newTestCPU(0x2003, 0, 0, 0x0008) // pc0: CALL 3 ; pc3: RETURN
	require.NoError(t, Execute(c))
	assert.Equal(t, uint16(3), c.PC)
	assert.Equal(t, uint8(1), c.SP)
	assert.Equal(t, uint16(1), c.Stack[0])
	assert.Equal(t, uint32(2), c.Cycle)

	require.NoError(t, Execute(c))
	assert.Equal(t, uint16(1), c.PC)
	assert.Equal(t, uint8(0), c.SP)
	assert.Equal(t, uint32(4), c.Cycle)
}

func TestBtfscSkipTaken(t *testing.T) {
	c := newTestCPU(0x1803, 0x3042, 0x3099) // BTFSC STATUS,0 ; MOVLW 0x42 ; MOVLW 0x99
	require.NoError(t, Execute(c))
	assert.Equal(t, uint16(2), c.PC)
	assert.Equal(t, uint32(2), c.Cycle)

	require.NoError(t, Execute(c))
	assert.Equal(t, byte(0x99), c.W)
}

func TestBtfscSkipNotTaken(t *testing.T) {
	c := newTestCPU(0x1803, 0x3042, 0x3099)
	c.setStatusBit(statusC, true) // bit 0 of STATUS set, skip should not fire
	require.NoError(t, Execute(c))
	assert.Equal(t, uint16(1), c.PC)
	assert.Equal(t, uint32(1), c.Cycle)

	require.NoError(t, Execute(c))
	assert.Equal(t, byte(0x42), c.W)
}

func TestEepromWriteViaEecon1(t *testing.T) {
	c := newTestCPU()
	c.R[RegEEADR] = 0x10
	c.R[RegEEDATA] = 0xAB
	require.NoError(t, c.regWriteAddr(RegEECON1, 0x02))
	assert.Equal(t, byte(0xAB), c.Mem.EEPROM[0x10])
	assert.Equal(t, byte(0x00), c.R[RegEECON1])
}

func TestEepromReadViaEecon1(t *testing.T) {
	c := newTestCPU()
	c.Mem.EEPROM[0x20] = 0x7E
	c.R[RegEEADR] = 0x20
	require.NoError(t, c.regWriteAddr(RegEECON1, 0x01))
	assert.Equal(t, byte(0x7E), c.R[RegEEDATA])
}

func TestEepromEepgdSetIsFault(t *testing.T) {
	c := newTestCPU()
	err := c.regWriteAddr(RegEECON1, 0x81)
	require.Error(t, err)
	var fe *FaultError
	require.ErrorAs(t, err, &fe)
}

func TestUnrecognizedOpcodeIsFault(t *testing.T) {
	c := newTestCPU(0x0001) // falls in class 0 between NOP's four values and RETURN's exact 0x0008
	err := Execute(c)
	require.Error(t, err)
}

func TestMirroredRegistersRoundTripAcrossBanks(t *testing.T) {
	c := newTestCPU()
	c.setStatusBit(statusRP0, true) // bank 1
	require.NoError(t, c.RegWrite(0x0A, 0x77))
	c.setStatusBit(statusRP0, false) // bank 0
	assert.Equal(t, byte(0x77), c.RegRead(0x0A))
}

func TestIndirectAddressingThroughFsr(t *testing.T) {
	c := newTestCPU()
	c.R[RegFSR] = 0x20
	require.NoError(t, c.RegWrite(0x20, 0x55)) // direct write to 0x20
	assert.Equal(t, byte(0x55), c.RegRead(0x00))
}

func TestPortReadFormula(t *testing.T) {
	c := newTestCPU()
	c.R[RegPORTB] = 0xF0
	c.R[RegTRISB] = 0x0F // low nibble input, high nibble output
	c.InPortB = 0x0A
	assert.Equal(t, byte(0xFA), c.PortRead(RegPORTB))
}

func TestRlfRrfInvolutionPreservesValueAndCarry(t *testing.T) {
	c := newTestCPU()
	require.NoError(t, c.RegWrite(0x20, 0x81))
	c.setStatusBit(statusC, false)

	_, err := execRLF(c, 0x0D00|0x20|0x80) // RLF 0x20, d=1
	require.NoError(t, err)
	assert.True(t, c.FlagC()) // bit 7 shifted out

	_, err = execRRF(c, 0x0C00|0x20|0x80) // RRF 0x20, d=1
	require.NoError(t, err)
	assert.Equal(t, byte(0x81), c.RegRead(0x20))
	assert.False(t, c.FlagC()) // carry back to its original state
}

func TestStackOverflowAndUnderflowAreFaults(t *testing.T) {
	c := newTestCPU()
	for i := 0; i < stackSize; i++ {
		_, err := execCALL(c, 0x2000)
		require.NoError(t, err)
	}
	_, err := execCALL(c, 0x2000)
	require.Error(t, err)

	for i := 0; i < stackSize; i++ {
		_, err := execRETURN(c, 0x0008)
		require.NoError(t, err)
	}
	_, err = execRETURN(c, 0x0008)
	require.Error(t, err)
}

func TestRcstaClearingCrenClearsOerr(t *testing.T) {
	c := newTestCPU()
	c.R[RegRCSTA] = 0x12 // CREN set, OERR set
	require.NoError(t, c.regWriteAddr(RegRCSTA, 0x02))
	assert.Equal(t, byte(0x00), c.R[RegRCSTA])
}

func TestReadingRcregClearsRcif(t *testing.T) {
	c := newTestCPU()
	c.R[RegPIR1] = 0x20
	c.regReadAddr(RegRCREG)
	assert.Equal(t, byte(0x00), c.R[RegPIR1]&0x20)
}

func TestPir1ReadForcesTxifSet(t *testing.T) {
	c := newTestCPU()
	v := c.regReadAddr(RegPIR1)
	assert.Equal(t, byte(0x10), v&0x10)
}

func TestTxstaReadForcesTrmtSet(t *testing.T) {
	c := newTestCPU()
	v := c.regReadAddr(RegTXSTA)
	assert.Equal(t, byte(0x02), v&0x02)
}

func TestTraceLineFormat(t *testing.T) {
	c := newTestCPU(0x3042)
	require.NoError(t, Execute(c))
	lines := c.Trace.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "MOVLW 0x42")
	assert.Contains(t, lines[0], "W=42")
	assert.Contains(t, lines[0], "RP=0")
	assert.True(t, lines[0][len(lines[0])-1] == '\n')
}

func TestIndirectAccessToPortBypassesEffectiveMask(t *testing.T) {
	c := newTestCPU()
	c.R[RegTRISB] = 0x0F
	c.InPortB = 0xFF
	c.R[RegFSR] = byte(RegPORTB)
	c.R[RegPORTB] = 0x30

	// A direct read applies the TRIS/input mux...
	assert.Equal(t, byte(0x3F), c.PortRead(RegPORTB))
	// ...but an indirect read through INDF sees the raw latch.
	assert.Equal(t, byte(0x30), c.RegRead(0x00))

	require.NoError(t, c.RegWrite(0x00, 0x99))
	assert.Equal(t, byte(0x99), c.R[RegPORTB])
}

func TestIndirectAccessToEecon1DoesNotTriggerEepromWrite(t *testing.T) {
	c := newTestCPU()
	c.regWriteAddr(RegEEADR, 0x10)
	c.regWriteAddr(RegEEDATA, 0xAB)
	c.R[RegFSR] = byte(RegEECON1 & 0xFF) // low 8 bits of 0x18C
	c.setStatusBit(statusIRP, true)      // IRP supplies bit 8, completing the 0x18C address

	require.NoError(t, c.RegWrite(0x00, 0x02)) // would be WR if routed through the special case

	assert.Equal(t, byte(0x00), c.Mem.EEPROMRead(0x10))
	assert.Equal(t, byte(0x02), c.R[RegEECON1])
}

func TestHooksInvokedOnReadAndWrite(t *testing.T) {
	c := newTestCPU()
	spy := &spyHooks{}
	c.SetHooks(spy)
	require.NoError(t, c.RegWrite(0x20, 0x01))
	c.RegRead(0x20)
	assert.Equal(t, 1, spy.writes)
	assert.Equal(t, 1, spy.reads)
}

type spyHooks struct {
	reads, writes int
}

func (s *spyHooks) OnRead(*CPU, uint16)  { s.reads++ }
func (s *spyHooks) OnWrite(*CPU, uint16) { s.writes++ }
