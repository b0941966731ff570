package pic

import "github.com/kobolt/pic16sim/internal/bitfield"

// Canonical (bank-0) offsets of the mirrored registers, and the absolute
// 9-bit addresses of everything else actually used by the instruction set.
// Offsets below 0x80 are bank 0; adding 0x80/0x100/0x180 reaches the mirror
// of the same register in banks 1, 2 and 3.
const (
	RegINDF   uint16 = 0x000
	RegPCL    uint16 = 0x002
	RegSTATUS uint16 = 0x003
	RegFSR    uint16 = 0x004
	RegPORTA  uint16 = 0x005
	RegPORTB  uint16 = 0x006
	RegPORTC  uint16 = 0x007
	RegPORTD  uint16 = 0x008
	RegPORTE  uint16 = 0x009
	RegPCLATH uint16 = 0x00A
	RegPIR1   uint16 = 0x00C
	RegRCSTA  uint16 = 0x018
	RegTXREG  uint16 = 0x019
	RegRCREG  uint16 = 0x01A

	RegTRISA uint16 = 0x085
	RegTRISB uint16 = 0x086
	RegTRISC uint16 = 0x087
	RegTRISD uint16 = 0x088
	RegTRISE uint16 = 0x089
	RegTXSTA uint16 = 0x098

	RegEEDATA uint16 = 0x10C
	RegEEADR  uint16 = 0x10D

	RegEECON1 uint16 = 0x18C
)

// STATUS bit positions.
const (
	statusC   = 0
	statusDC  = 1
	statusZ   = 2
	statusRP0 = 5
	statusRP1 = 6
	statusIRP = 7
)

// mirrorAliases maps every bank-1/2/3 offset that mirrors a bank-0 register
// onto its canonical bank-0 address. INDF, PCL and STATUS/FSR/PCLATH all
// participate; INDF is handled separately because it is not storage.
var mirrorAliases = map[uint16]uint16{
	0x082: RegPCL, 0x102: RegPCL, 0x182: RegPCL,
	0x083: RegSTATUS, 0x103: RegSTATUS, 0x183: RegSTATUS,
	0x084: RegFSR, 0x104: RegFSR, 0x184: RegFSR,
	0x08A: RegPCLATH, 0x10A: RegPCLATH, 0x18A: RegPCLATH,
}

var indfAliases = map[uint16]bool{
	RegINDF: true, 0x080: true, 0x100: true, 0x180: true,
}

// effectiveAddr applies RP0:RP1 bank selection to a 7-bit direct-address
// opcode field, producing the 9-bit address reg access should start from.
func effectiveAddr(status byte, f byte) uint16 {
	addr := uint16(bitfield.Last(f, 7))
	if bitfield.IsSet(status, bitfield.Pos(statusRP0)) {
		addr |= 1 << 7
	}
	if bitfield.IsSet(status, bitfield.Pos(statusRP1)) {
		addr |= 1 << 8
	}
	return addr
}

// canonicalize resolves a raw effective address to the storage slot that
// should actually be touched, following the mirroring and indirection rules
// of the register file. The indf/pcl results are tags interpreted by the
// caller; everything else is a plain storage address.
type resolved struct {
	indirect bool   // route through FSR|IRP instead
	isPCL    bool   // access targets pc's low byte, not storage
	addr     uint16 // storage address otherwise
}

func canonicalize(status byte, addr uint16) resolved {
	if indfAliases[addr] {
		return resolved{indirect: true}
	}
	if addr == RegPCL {
		return resolved{isPCL: true}
	}
	if mirror, ok := mirrorAliases[addr]; ok {
		if mirror == RegPCL {
			return resolved{isPCL: true}
		}
		return resolved{addr: mirror}
	}
	return resolved{addr: addr}
}

func indirectAddr(status byte, fsr byte) uint16 {
	addr := uint16(fsr)
	if bitfield.IsSet(status, bitfield.Pos(statusIRP)) {
		addr |= 1 << 8
	}
	return addr
}
