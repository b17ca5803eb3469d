package cpu

// The functions below resolve an instruction's effective address (the
// indexed ones also report whether it crossed a page boundary), per spec §4.2
// "Addressing modes". Modes that never address memory (accumulator,
// implied, relative) are handled directly by the instructions that use
// them.

func (c *CPU) immediate() uint16 {
	addr := c.PC
	c.PC++
	return addr
}

// zp reads the next byte as a zero-page address.
func (c *CPU) zp() uint16 {
	addr := uint16(c.Read8(c.PC))
	c.PC++
	return addr
}

func (c *CPU) zpX() uint16 {
	base := c.zp()
	c.Read8(base) // dummy read of the unindexed address
	return (base + uint16(c.X)) & 0xFF
}

func (c *CPU) zpY() uint16 {
	base := c.zp()
	c.Read8(base)
	return (base + uint16(c.Y)) & 0xFF
}

func (c *CPU) abs() uint16 {
	return c.Read16Adv()
}

// Read16Adv reads a little-endian 16-bit operand at PC and advances PC by 2.
func (c *CPU) Read16Adv() uint16 {
	lo := c.Read8(c.PC)
	c.PC++
	hi := c.Read8(c.PC)
	c.PC++
	return uint16(hi)<<8 | uint16(lo)
}

// absIndexed resolves absolute,X / absolute,Y. The documented dummy read
// of the unfixed address happens whenever the add crosses a page, or
// always for write/RMW instructions via forceDummy (spec §4.2).
func (c *CPU) absIndexed(index uint8, forceDummy bool) (addr uint16, crossed bool) {
	base := c.abs()
	addr = base + uint16(index)
	crossed = (base & 0xFF00) != (addr & 0xFF00)
	if crossed || forceDummy {
		wrong := (base & 0xFF00) | (addr & 0xFF)
		c.Read8(wrong)
	}
	return addr, crossed
}

// indirectX resolves ($nn,X).
func (c *CPU) indirectX() uint16 {
	base := c.zp()
	c.Read8(base)
	ptr := (base + uint16(c.X)) & 0xFF
	lo := c.Read8(ptr)
	hi := c.Read8((ptr + 1) & 0xFF)
	return uint16(hi)<<8 | uint16(lo)
}

// indirectY resolves ($nn),Y, with the documented dummy read on a page
// cross or for write/RMW forms.
func (c *CPU) indirectY(forceDummy bool) (addr uint16, crossed bool) {
	ptr := c.zp()
	lo := c.Read8(ptr)
	hi := c.Read8((ptr + 1) & 0xFF)
	base := uint16(hi)<<8 | uint16(lo)
	addr = base + uint16(c.Y)
	crossed = (base & 0xFF00) != (addr & 0xFF00)
	if crossed || forceDummy {
		wrong := (base & 0xFF00) | (addr & 0xFF)
		c.Read8(wrong)
	}
	return addr, crossed
}

// indirectJMP resolves JMP (ind), reproducing the documented page-wrap
// bug: if the pointer's low byte is $FF, the high byte is fetched from
// the start of the same page rather than the next page (spec §4.2).
func (c *CPU) indirectJMP() uint16 {
	ptr := c.abs()
	lo := c.Read8(ptr)
	hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
	hi := c.Read8(hiAddr)
	return uint16(hi)<<8 | uint16(lo)
}
