package pic

// Execute fetches the word at pc, decodes it against opcodeTable in order,
// and executes exactly one instruction: state mutation, one trace entry,
// pc/cycle advance, and an optional hook invocation happen as a unit. An
// opcode matching no table entry is fatal.
func Execute(c *CPU) error {
	opcode := c.Mem.ProgramRead(c.PC & pcMask)

	entry := lookup(opcode)
	if entry == nil {
		return fault("unrecognized opcode 0x%04x at pc 0x%04x", opcode, c.PC)
	}

	pcBefore := c.PC
	spBefore := c.SP

	mnemonic, err := entry.Exec(c, opcode)
	if err != nil {
		return err
	}

	line := formatTraceLine(c.Cycle, pcBefore, opcode, spBefore, mnemonic, c.W, c.Bank(), c.FlagZ(), false, c.FlagC())
	c.Trace.Append(line)

	return nil
}

func lookup(opcode uint16) *opcodeEntry {
	for i := range opcodeTable {
		e := &opcodeTable[i]
		if opcode&e.Mask == e.Value {
			return e
		}
	}
	return nil
}
