package engine

import "math/bits"

func init() {
	registerOpcode(opADD, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		lhs := c.Register(op.dst)
		result := lhs + rhs
		c.setFlagsAdd(lhs, rhs, result, op.sz)
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})

	registerOpcode(opSUB, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		lhs := c.Register(op.dst)
		result := lhs - rhs
		c.setFlagsSub(lhs, rhs, result, op.sz)
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})

	registerOpcode(opCMP, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		lhs := c.Register(op.dst)
		result := lhs - rhs
		c.setFlagsSub(lhs, rhs, result, op.sz)
		return noFault
	})

	registerOpcode(opMUL, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		lhs := c.Register(op.dst)
		mask := op.sz.Mask()
		hi, lo := bits.Mul64(lhs&mask, rhs&mask)
		c.setFlagsMul(lhs, rhs, hi, lo, op.sz)
		c.setRegisterSized(op.dst, lo, op.sz)
		return noFault
	})

	registerOpcode(opDIV, func(c *CPU) fault {
		op, rhs, f := c.decodeRM()
		if f != noFault {
			return f
		}
		if rhs&op.sz.Mask() == 0 {
			return vectorFault(VectorDivideByZero)
		}
		lhs := c.Register(op.dst) & op.sz.Mask()
		result := lhs / (rhs & op.sz.Mask())
		// Unsigned division never truncates, so Carry/Overflow never set.
		c.setFlagsLogical(result, op.sz)
		c.flags &^= flagCarry | flagOverflow
		c.setRegisterSized(op.dst, result, op.sz)
		return noFault
	})
}
