package memory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHex(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.hex")
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestLoadProgramWords(t *testing.T) {
	// one data record: 4 bytes (2 words, low byte first) at byte address 0x0000
	path := writeHex(t, ":040000004230850000")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, uint16(0x3042), im.ProgramRead(0))
	assert.Equal(t, uint16(0x0085), im.ProgramRead(1))
}

func TestLoadEEPROMWindow(t *testing.T) {
	// byte address 0x2100 -> EEPROM offset 0
	path := writeHex(t, ":022100001122AA")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, byte(0x11), im.EEPROMRead(0))
}

func TestLoadSkipsNonDataRecords(t *testing.T) {
	path := writeHex(t, ":00000001FF", ":040000004230850000")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, uint16(0x3042), im.ProgramRead(0))
}

func TestLoadSkipsOversizeRecord(t *testing.T) {
	path := writeHex(t, ":1100000000000000000000000000000000000000AA")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, uint16(0), im.ProgramRead(0))
}

func TestLoadSkipsMalformedLine(t *testing.T) {
	path := writeHex(t, "not a hex line", ":040000004230850000")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, uint16(0x3042), im.ProgramRead(0))
}

func TestLoadOddByteCountDiscardsTrailingHalfWord(t *testing.T) {
	// 3 bytes: one full word (42 30) then a trailing half-word (01), which
	// must be discarded rather than misread as a second word.
	path := writeHex(t, ":030000004230015C")
	im := New()
	require.NoError(t, im.Load(path))
	assert.Equal(t, uint16(0x3042), im.ProgramRead(0))
	assert.Equal(t, uint16(0), im.ProgramRead(1))
}

func TestRoundTrip(t *testing.T) {
	src := New()
	src.Program[0] = 0x3042
	src.Program[1] = 0x0085
	src.Program[ProgramWords-1] = 0x1FFF
	src.EEPROM[0] = 0xAB
	src.EEPROM[EEPROMBytes-1] = 0xCD

	var buf bytes.Buffer
	require.NoError(t, src.Dump(&buf))

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.hex")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	dst := New()
	require.NoError(t, dst.Load(path))

	assert.Equal(t, src.Program, dst.Program)
	assert.Equal(t, src.EEPROM, dst.EEPROM)
}
