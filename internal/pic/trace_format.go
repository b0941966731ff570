package pic

import (
	"fmt"
	"strings"
)

// traceColumn is where the status summary begins, measured in bytes from
// the start of the line; the mnemonic field is padded out to it.
const traceColumn = 46

// formatTraceLine renders one executed-instruction trace entry. pc, opcode
// and sp are sampled before the instruction mutated them, matching the
// original hardware trace's "observe at entry" convention. mnemonic is the
// instruction name and its decoded operands, e.g. "ADDLW 0x42".
func formatTraceLine(cycle uint32, pc uint16, opcode uint16, sp uint8, mnemonic string, w uint8, rp byte, z, dc, carry bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%08x  %04x  %04x  ", cycle, pc, opcode)
	for i := uint8(0); i < sp; i++ {
		b.WriteByte('_')
	}
	b.WriteString(mnemonic)
	for b.Len() < traceColumn {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "W=%02x RP=%d ", w, rp)
	b.WriteByte(flagChar(z, 'Z'))
	b.WriteByte(flagChar(dc, 'D'))
	b.WriteByte(flagChar(carry, 'C'))
	b.WriteByte('\n')
	return b.String()
}

func flagChar(set bool, c byte) byte {
	if set {
		return c
	}
	return '.'
}
