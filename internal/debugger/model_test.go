package debugger

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobolt/pic16sim/internal/memory"
	"github.com/kobolt/pic16sim/internal/pic"
)

func newTestModel(program ...uint16) Model {
	mem := memory.New()
	for i, word := range program {
		mem.Program[i] = word
	}
	return NewModel(pic.New(mem), &atomic.Bool{}, false)
}

func TestStepOnceAdvancesPC(t *testing.T) {
	m := newTestModel(0x3042)
	m.stepOnce()
	assert.Equal(t, uint16(1), m.CPU.PC)
	assert.Nil(t, m.fault)
}

func TestStepOnceCapturesFault(t *testing.T) {
	m := newTestModel(0x0001) // unrecognized opcode
	m.stepOnce()
	require.NotNil(t, m.fault)
	assert.True(t, m.Break.Load())
}

func TestBreakpointEntryStopsRun(t *testing.T) {
	m := newTestModel(0x3042, 0x3099, 0x30AA)
	m.mode = modeBreakpoint
	m.entry = "2"
	m.applyEntry()
	assert.Equal(t, int32(2), m.breakpoint)

	m.runUntilBreak()
	assert.Equal(t, uint16(2), m.CPU.PC)
	assert.True(t, m.Break.Load())
}

func TestPortInjectionEntry(t *testing.T) {
	m := newTestModel()
	m.mode = modePortB
	m.entry = "ff"
	m.applyEntry()
	assert.Equal(t, byte(0xFF), m.CPU.InPortB)
}

func TestClearingBreakpointEntry(t *testing.T) {
	m := newTestModel()
	m.breakpoint = 5
	m.mode = modeBreakpoint
	m.entry = ""
	m.applyEntry()
	assert.Equal(t, int32(-1), m.breakpoint)
}
