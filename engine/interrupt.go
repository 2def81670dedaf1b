package engine

import "encoding/binary"

// idtEntrySize is the width of one IDT slot: a little-endian handler
// address.
const idtEntrySize = 8

// raiseInterrupt dispatches vector. If maskable is true and
// InterruptEnable is clear, the request is dropped. Otherwise it looks
// up the handler at idt + 8*vector; a missing IDT or a zero handler slot
// triggers the documented fail-stop full reset. Otherwise it pushes
// flags, pushes the return IP, and jumps to the handler.
func (c *CPU) raiseInterrupt(vector byte, maskable bool) {
	if maskable && !c.flagSet(flagInterruptEnable) {
		return
	}

	if c.idt == 0 {
		c.Reset()
		return
	}

	slot := c.idt + idtEntrySize*uint64(vector)
	var buf [idtEntrySize]byte
	c.bus.Read(buf[:], slot)
	handler := binary.LittleEndian.Uint64(buf[:])
	if handler == 0 {
		c.Reset()
		return
	}

	c.pushFlags()
	c.pushQword(c.Register(IP))
	c.setRegister(IP, handler)
}

func init() {
	registerOpcode(opINT, func(c *CPU) fault {
		vector := byte(c.fetchSized(Byte))
		c.raiseInterrupt(vector, true)
		return noFault
	})

	registerOpcode(opRETI, func(c *CPU) fault {
		ip := c.popQword()
		c.popFlags()
		c.setRegister(IP, ip)
		return noFault
	})

	registerOpcode(opCLI, func(c *CPU) fault {
		c.flags &^= flagInterruptEnable
		return noFault
	})

	registerOpcode(opSTI, func(c *CPU) fault {
		c.flags |= flagInterruptEnable
		return noFault
	})

	registerOpcode(opLIDT, func(c *CPU) fault {
		c.idt = c.decodeEA()
		return noFault
	})

	registerOpcode(opHLT, func(c *CPU) fault {
		c.halted = true
		return noFault
	})

	registerOpcode(opNOP, func(c *CPU) fault {
		return noFault
	})
}
