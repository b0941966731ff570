package pic

// setZ sets the Z status bit iff result is zero.
func (c *CPU) setZ(result byte) {
	c.setStatusBit(statusZ, result == 0)
}

// setCarryAdd sets C iff operandA + operandB overflows a byte.
func (c *CPU) setCarryAdd(a, b byte) {
	c.setStatusBit(statusC, int(a)+int(b) > 0xFF)
}

// setCarrySub sets C unless minuend - subtrahend borrows (goes negative).
// C is cleared on borrow, set otherwise.
func (c *CPU) setCarrySub(minuend, subtrahend byte) {
	c.setStatusBit(statusC, int(minuend)-int(subtrahend) >= 0)
}
