package engine

func init() {
	for op, cond := range jumpConditions {
		cond := cond
		registerOpcode(op, func(c *CPU) fault {
			ea := c.decodeEA()
			if c.evalCondition(cond) {
				c.setRegister(IP, ea)
			}
			return noFault
		})
	}

	registerOpcode(opCALL, func(c *CPU) fault {
		ea := c.decodeEA()
		c.pushQword(c.Register(IP))
		c.setRegister(IP, ea)
		return noFault
	})

	registerOpcode(opRET, func(c *CPU) fault {
		c.setRegister(IP, c.popQword())
		return noFault
	})
}
