package peripheral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobolt/pic16sim/internal/memory"
	"github.com/kobolt/pic16sim/internal/pic"
)

func TestPinoutObserverRendersOnPortWrite(t *testing.T) {
	obs := NewPinoutObserver()
	cpu := pic.New(memory.New())
	cpu.SetHooks(obs)

	assert.Empty(t, obs.View())
	require.NoError(t, cpu.RegWrite(byte(pic.RegPORTB&0x7F), 0xFF))
	assert.Contains(t, obs.View(), "RB7")
}
