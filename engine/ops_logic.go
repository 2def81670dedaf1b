package engine

func init() {
	registerOpcode(opAND, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		result := c.Register(op.dst) & rhs
		c.setFlagsLogical(result, op.sz)
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})

	registerOpcode(opOR, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		result := c.Register(op.dst) | rhs
		c.setFlagsLogical(result, op.sz)
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})

	registerOpcode(opXOR, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		result := c.Register(op.dst) ^ rhs
		c.setFlagsLogical(result, op.sz)
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})

	// NOT and NEG are unary: the RM byte's source field is unused, only
	// dst and size matter.
	registerOpcode(opNOT, func(c *CPU) fault {
		dst, sz, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		result := ^c.Register(dst)
		c.setFlagsLogical(result, sz)
		c.setRegisterSized(dst, result, sz)
		return noFault
	})

	registerOpcode(opNEG, func(c *CPU) fault {
		dst, sz, f := c.decodeRMUnary()
		if f != noFault {
			return f
		}
		result := -c.Register(dst)
		c.setFlagsLogical(result, sz)
		c.setRegisterSized(dst, result, sz)
		return noFault
	})
}
