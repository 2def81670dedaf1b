package engine

// decodeIOReg decodes the register byte used by IN/OUT: the low 3 bits
// name the register (destination for IN, source for OUT); the remaining
// bits are unused by this instruction.
func (c *CPU) decodeIOReg() (RegisterId, fault) {
	b := byte(c.fetchSized(Byte))
	r := RegisterId(b & 0b111)
	if !r.Valid() {
		return r, vectorFault(VectorInvalidInstruction)
	}
	return r, noFault
}

func init() {
	registerOpcode(opIN, func(c *CPU) fault {
		dst, f := c.decodeIOReg()
		if f != noFault {
			return f
		}
		port := uint16(c.fetchSized(Word))
		c.setRegister(dst, c.ports.Read(port))
		return noFault
	})

	registerOpcode(opOUT, func(c *CPU) fault {
		src, f := c.decodeIOReg()
		if f != noFault {
			return f
		}
		port := uint16(c.fetchSized(Word))
		c.ports.Write(port, c.Register(src))
		return noFault
	})
}
