package engine

func init() {
	registerOpcode(opMOV, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		c.setRegisterSized(op.dst, rhs, op.sz)
		return noFault
	})

	// LDR/STR use the dst/size fields of an RM byte to pick the register
	// and width, then an effective-address byte+displacement for the
	// memory side; the RM byte's source field is unused.
	registerOpcode(opLDR, func(c *CPU) fault {
		dst, sz, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		ea := c.decodeEA()
		buf := make([]byte, sz)
		c.bus.Read(buf, ea)
		c.setRegisterSized(dst, decodeLE(buf), sz)
		return noFault
	})

	registerOpcode(opSTR, func(c *CPU) fault {
		src, sz, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		ea := c.decodeEA()
		c.bus.Write(encodeLE(c.Register(src)&sz.Mask(), sz), ea)
		return noFault
	})

	registerOpcode(opLEA, func(c *CPU) fault {
		dst, _, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		c.setRegister(dst, c.decodeEA())
		return noFault
	})

	registerOpcode(opPUSH, func(c *CPU) fault {
		src, _, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		c.pushQword(c.Register(src))
		return noFault
	})

	registerOpcode(opPOP, func(c *CPU) fault {
		dst, _, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		c.setRegister(dst, c.popQword())
		return noFault
	})

	registerOpcode(opPUSHF, func(c *CPU) fault {
		c.pushFlags()
		return noFault
	})

	registerOpcode(opPOPF, func(c *CPU) fault {
		c.popFlags()
		return noFault
	})
}
