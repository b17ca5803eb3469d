package cpu

// instrFunc executes one fully-decoded instruction, including its operand
// fetch and cycle cost; opTable dispatches on the raw opcode byte read in
// Step(). Unofficial opcodes are left nil and fall back to opNOP with a
// declared-gap warning (spec §4.2, §7 "Unsupported opcode").
type instrFunc func(c *CPU)

var opNOP instrFunc = nopOp

// --- load / store ---

func (c *CPU) load(reg *uint8, addr uint16) {
	v := c.Read8(addr)
	*reg = v
	c.P.checkNZ(v)
}

func ldaImm(c *CPU)  { c.load(&c.A, c.immediate()) }
func ldaZp(c *CPU)   { c.load(&c.A, c.zp()) }
func ldaZpX(c *CPU)  { c.load(&c.A, c.zpX()) }
func ldaAbs(c *CPU)  { c.load(&c.A, c.abs()) }
func ldaAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.load(&c.A, addr) }
func ldaAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.load(&c.A, addr) }
func ldaIndX(c *CPU) { c.load(&c.A, c.indirectX()) }
func ldaIndY(c *CPU) { addr, _ := c.indirectY(false); c.load(&c.A, addr) }

func ldxImm(c *CPU)  { c.load(&c.X, c.immediate()) }
func ldxZp(c *CPU)   { c.load(&c.X, c.zp()) }
func ldxZpY(c *CPU)  { c.load(&c.X, c.zpY()) }
func ldxAbs(c *CPU)  { c.load(&c.X, c.abs()) }
func ldxAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.load(&c.X, addr) }

func ldyImm(c *CPU)  { c.load(&c.Y, c.immediate()) }
func ldyZp(c *CPU)   { c.load(&c.Y, c.zp()) }
func ldyZpX(c *CPU)  { c.load(&c.Y, c.zpX()) }
func ldyAbs(c *CPU)  { c.load(&c.Y, c.abs()) }
func ldyAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.load(&c.Y, addr) }

func staZp(c *CPU)   { c.Write8(c.zp(), c.A) }
func staZpX(c *CPU)  { c.Write8(c.zpX(), c.A) }
func staAbs(c *CPU)  { c.Write8(c.abs(), c.A) }
func staAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.Write8(addr, c.A) }
func staAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, true); c.Write8(addr, c.A) }
func staIndX(c *CPU) { c.Write8(c.indirectX(), c.A) }
func staIndY(c *CPU) { addr, _ := c.indirectY(true); c.Write8(addr, c.A) }

func stxZp(c *CPU)  { c.Write8(c.zp(), c.X) }
func stxZpY(c *CPU) { c.Write8(c.zpY(), c.X) }
func stxAbs(c *CPU) { c.Write8(c.abs(), c.X) }

func styZp(c *CPU)  { c.Write8(c.zp(), c.Y) }
func styZpX(c *CPU) { c.Write8(c.zpX(), c.Y) }
func styAbs(c *CPU) { c.Write8(c.abs(), c.Y) }

// --- register transfers ---

func taxOp(c *CPU) { c.Read8(c.PC); c.X = c.A; c.P.checkNZ(c.X) }
func tayOp(c *CPU) { c.Read8(c.PC); c.Y = c.A; c.P.checkNZ(c.Y) }
func txaOp(c *CPU) { c.Read8(c.PC); c.A = c.X; c.P.checkNZ(c.A) }
func tyaOp(c *CPU) { c.Read8(c.PC); c.A = c.Y; c.P.checkNZ(c.A) }
func tsxOp(c *CPU) { c.Read8(c.PC); c.X = c.SP; c.P.checkNZ(c.X) }
func txsOp(c *CPU) { c.Read8(c.PC); c.SP = c.X }

// --- stack ---

func phaOp(c *CPU) { c.Read8(c.PC); c.push8(c.A) }
func phpOp(c *CPU) {
	c.Read8(c.PC)
	p := c.P
	p.set(FlagBreak, true)
	p.set(FlagUnused, true)
	c.push8(uint8(p))
}
func plaOp(c *CPU) {
	c.Read8(c.PC)
	c.Read8(0x0100 + uint16(c.SP))
	c.A = c.pull8()
	c.P.checkNZ(c.A)
}
func plpOp(c *CPU) {
	c.Read8(c.PC)
	c.Read8(0x0100 + uint16(c.SP))
	c.P = P(c.pull8())
	c.P.set(FlagBreak, false)
	c.P.set(FlagUnused, true)
}

// --- ALU ---

func (c *CPU) adc(v uint8) {
	carry := uint16(0)
	if c.P.has(FlagCarry) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	c.P.checkOverflow(c.A, v, sum)
	c.P.checkCarry(sum)
	c.A = uint8(sum)
	c.P.checkNZ(c.A)
}

func (c *CPU) sbc(v uint8) { c.adc(^v) }

func adcImm(c *CPU)  { c.adc(c.Read8(c.immediate())) }
func adcZp(c *CPU)   { c.adc(c.Read8(c.zp())) }
func adcZpX(c *CPU)  { c.adc(c.Read8(c.zpX())) }
func adcAbs(c *CPU)  { c.adc(c.Read8(c.abs())) }
func adcAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.adc(c.Read8(addr)) }
func adcAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.adc(c.Read8(addr)) }
func adcIndX(c *CPU) { c.adc(c.Read8(c.indirectX())) }
func adcIndY(c *CPU) { addr, _ := c.indirectY(false); c.adc(c.Read8(addr)) }

func sbcImm(c *CPU)  { c.sbc(c.Read8(c.immediate())) }
func sbcZp(c *CPU)   { c.sbc(c.Read8(c.zp())) }
func sbcZpX(c *CPU)  { c.sbc(c.Read8(c.zpX())) }
func sbcAbs(c *CPU)  { c.sbc(c.Read8(c.abs())) }
func sbcAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.sbc(c.Read8(addr)) }
func sbcAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.sbc(c.Read8(addr)) }
func sbcIndX(c *CPU) { c.sbc(c.Read8(c.indirectX())) }
func sbcIndY(c *CPU) { addr, _ := c.indirectY(false); c.sbc(c.Read8(addr)) }

func (c *CPU) bitwise(v uint8, op func(a, b uint8) uint8) {
	c.A = op(c.A, v)
	c.P.checkNZ(c.A)
}

func bAnd(a, b uint8) uint8 { return a & b }
func bOr(a, b uint8) uint8  { return a | b }
func bXor(a, b uint8) uint8 { return a ^ b }

func andImm(c *CPU)  { c.bitwise(c.Read8(c.immediate()), bAnd) }
func andZp(c *CPU)   { c.bitwise(c.Read8(c.zp()), bAnd) }
func andZpX(c *CPU)  { c.bitwise(c.Read8(c.zpX()), bAnd) }
func andAbs(c *CPU)  { c.bitwise(c.Read8(c.abs()), bAnd) }
func andAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.bitwise(c.Read8(addr), bAnd) }
func andAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.bitwise(c.Read8(addr), bAnd) }
func andIndX(c *CPU) { c.bitwise(c.Read8(c.indirectX()), bAnd) }
func andIndY(c *CPU) { addr, _ := c.indirectY(false); c.bitwise(c.Read8(addr), bAnd) }

func oraImm(c *CPU)  { c.bitwise(c.Read8(c.immediate()), bOr) }
func oraZp(c *CPU)   { c.bitwise(c.Read8(c.zp()), bOr) }
func oraZpX(c *CPU)  { c.bitwise(c.Read8(c.zpX()), bOr) }
func oraAbs(c *CPU)  { c.bitwise(c.Read8(c.abs()), bOr) }
func oraAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.bitwise(c.Read8(addr), bOr) }
func oraAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.bitwise(c.Read8(addr), bOr) }
func oraIndX(c *CPU) { c.bitwise(c.Read8(c.indirectX()), bOr) }
func oraIndY(c *CPU) { addr, _ := c.indirectY(false); c.bitwise(c.Read8(addr), bOr) }

func eorImm(c *CPU)  { c.bitwise(c.Read8(c.immediate()), bXor) }
func eorZp(c *CPU)   { c.bitwise(c.Read8(c.zp()), bXor) }
func eorZpX(c *CPU)  { c.bitwise(c.Read8(c.zpX()), bXor) }
func eorAbs(c *CPU)  { c.bitwise(c.Read8(c.abs()), bXor) }
func eorAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.bitwise(c.Read8(addr), bXor) }
func eorAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.bitwise(c.Read8(addr), bXor) }
func eorIndX(c *CPU) { c.bitwise(c.Read8(c.indirectX()), bXor) }
func eorIndY(c *CPU) { addr, _ := c.indirectY(false); c.bitwise(c.Read8(addr), bXor) }

func (c *CPU) cmp(reg uint8, v uint8) {
	d := uint16(reg) - uint16(v)
	c.P.set(FlagCarry, reg >= v)
	c.P.checkNZ(uint8(d))
}

func cmpImm(c *CPU)  { c.cmp(c.A, c.Read8(c.immediate())) }
func cmpZp(c *CPU)   { c.cmp(c.A, c.Read8(c.zp())) }
func cmpZpX(c *CPU)  { c.cmp(c.A, c.Read8(c.zpX())) }
func cmpAbs(c *CPU)  { c.cmp(c.A, c.Read8(c.abs())) }
func cmpAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, false); c.cmp(c.A, c.Read8(addr)) }
func cmpAbsY(c *CPU) { addr, _ := c.absIndexed(c.Y, false); c.cmp(c.A, c.Read8(addr)) }
func cmpIndX(c *CPU) { c.cmp(c.A, c.Read8(c.indirectX())) }
func cmpIndY(c *CPU) { addr, _ := c.indirectY(false); c.cmp(c.A, c.Read8(addr)) }

func cpxImm(c *CPU) { c.cmp(c.X, c.Read8(c.immediate())) }
func cpxZp(c *CPU)  { c.cmp(c.X, c.Read8(c.zp())) }
func cpxAbs(c *CPU) { c.cmp(c.X, c.Read8(c.abs())) }

func cpyImm(c *CPU) { c.cmp(c.Y, c.Read8(c.immediate())) }
func cpyZp(c *CPU)  { c.cmp(c.Y, c.Read8(c.zp())) }
func cpyAbs(c *CPU) { c.cmp(c.Y, c.Read8(c.abs())) }

func bitZp(c *CPU)  { c.bitOp(c.Read8(c.zp())) }
func bitAbs(c *CPU) { c.bitOp(c.Read8(c.abs())) }

func (c *CPU) bitOp(v uint8) {
	c.P.checkZ(v & c.A)
	c.P.set(FlagNegative, v&0x80 != 0)
	c.P.set(FlagOverflow, v&0x40 != 0)
}

// --- increment / decrement ---

func inxOp(c *CPU) { c.Read8(c.PC); c.X++; c.P.checkNZ(c.X) }
func inyOp(c *CPU) { c.Read8(c.PC); c.Y++; c.P.checkNZ(c.Y) }
func dexOp(c *CPU) { c.Read8(c.PC); c.X--; c.P.checkNZ(c.X) }
func deyOp(c *CPU) { c.Read8(c.PC); c.Y--; c.P.checkNZ(c.Y) }

// rmw performs a read-modify-write: the original value is written back
// unmodified before the new value is written (spec §4.2 "Read-modify-write
// instructions write the original value back before the modified value").
func (c *CPU) rmw(addr uint16, f func(uint8) uint8) {
	old := c.Read8(addr)
	c.Write8(addr, old)
	c.Write8(addr, f(old))
}

func incFn(v uint8) uint8 { return v + 1 }
func decFn(v uint8) uint8 { return v - 1 }

func incZp(c *CPU)   { c.rmwNZ(c.zp(), incFn) }
func incZpX(c *CPU)  { c.rmwNZ(c.zpX(), incFn) }
func incAbs(c *CPU)  { c.rmwNZ(c.abs(), incFn) }
func incAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmwNZ(addr, incFn) }

func decZp(c *CPU)   { c.rmwNZ(c.zp(), decFn) }
func decZpX(c *CPU)  { c.rmwNZ(c.zpX(), decFn) }
func decAbs(c *CPU)  { c.rmwNZ(c.abs(), decFn) }
func decAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmwNZ(addr, decFn) }

func (c *CPU) rmwNZ(addr uint16, f func(uint8) uint8) {
	var result uint8
	c.rmw(addr, func(v uint8) uint8 { result = f(v); return result })
	c.P.checkNZ(result)
}

// --- shifts / rotates ---

func (c *CPU) asl(v uint8) uint8 {
	c.P.set(FlagCarry, v&0x80 != 0)
	r := v << 1
	c.P.checkNZ(r)
	return r
}

func (c *CPU) lsr(v uint8) uint8 {
	c.P.set(FlagCarry, v&0x01 != 0)
	r := v >> 1
	c.P.checkNZ(r)
	return r
}

func (c *CPU) rol(v uint8) uint8 {
	carryIn := uint8(0)
	if c.P.has(FlagCarry) {
		carryIn = 1
	}
	c.P.set(FlagCarry, v&0x80 != 0)
	r := (v << 1) | carryIn
	c.P.checkNZ(r)
	return r
}

func (c *CPU) ror(v uint8) uint8 {
	carryIn := uint8(0)
	if c.P.has(FlagCarry) {
		carryIn = 0x80
	}
	c.P.set(FlagCarry, v&0x01 != 0)
	r := (v >> 1) | carryIn
	c.P.checkNZ(r)
	return r
}

func aslAcc(c *CPU) { c.Read8(c.PC); c.A = c.asl(c.A) }
func aslZp(c *CPU)  { c.rmw(c.zp(), c.asl) }
func aslZpX(c *CPU) { c.rmw(c.zpX(), c.asl) }
func aslAbs(c *CPU) { c.rmw(c.abs(), c.asl) }
func aslAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmw(addr, c.asl) }

func lsrAcc(c *CPU) { c.Read8(c.PC); c.A = c.lsr(c.A) }
func lsrZp(c *CPU)  { c.rmw(c.zp(), c.lsr) }
func lsrZpX(c *CPU) { c.rmw(c.zpX(), c.lsr) }
func lsrAbs(c *CPU) { c.rmw(c.abs(), c.lsr) }
func lsrAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmw(addr, c.lsr) }

func rolAcc(c *CPU) { c.Read8(c.PC); c.A = c.rol(c.A) }
func rolZp(c *CPU)  { c.rmw(c.zp(), c.rol) }
func rolZpX(c *CPU) { c.rmw(c.zpX(), c.rol) }
func rolAbs(c *CPU) { c.rmw(c.abs(), c.rol) }
func rolAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmw(addr, c.rol) }

func rorAcc(c *CPU) { c.Read8(c.PC); c.A = c.ror(c.A) }
func rorZp(c *CPU)  { c.rmw(c.zp(), c.ror) }
func rorZpX(c *CPU) { c.rmw(c.zpX(), c.ror) }
func rorAbs(c *CPU) { c.rmw(c.abs(), c.ror) }
func rorAbsX(c *CPU) { addr, _ := c.absIndexed(c.X, true); c.rmw(addr, c.ror) }

// --- control flow ---

func jmpAbs(c *CPU) { c.PC = c.abs() }
func jmpInd(c *CPU) { c.PC = c.indirectJMP() }

func jsrOp(c *CPU) {
	addr := c.abs()
	c.push16(c.PC - 1)
	c.PC = addr
}

func rtsOp(c *CPU) {
	c.Read8(0x0100 + uint16(c.SP))
	c.PC = c.pull16() + 1
	c.Read8(c.PC - 1)
}

func rtiOp(c *CPU) {
	c.Read8(0x0100 + uint16(c.SP))
	c.P = P(c.pull8())
	c.P.set(FlagBreak, false)
	c.P.set(FlagUnused, true)
	c.PC = c.pull16()
}

func brkOp(c *CPU) {
	c.Read8(c.PC)
	c.push16(c.PC + 1)
	p := c.P
	p.set(FlagBreak, true)
	p.set(FlagUnused, true)
	if c.needNMI {
		c.needNMI = false
		c.push8(uint8(p))
		c.P.set(FlagInterrupt, true)
		c.PC = c.Read16(NMIVector)
	} else {
		c.push8(uint8(p))
		c.P.set(FlagInterrupt, true)
		c.PC = c.Read16(IRQVector)
	}
	c.prevNeedNMI = false
}

func (c *CPU) branch(taken bool) {
	offset := int8(c.Read8(c.PC))
	c.PC++
	if !taken {
		return
	}
	old := c.PC
	c.Read8(old) // dummy read, taken branch costs +1
	target := uint16(int32(old) + int32(offset))
	if target&0xFF00 != old&0xFF00 {
		c.Read8((old & 0xFF00) | (target & 0xFF)) // page-cross costs another +1
	}
	c.PC = target
}

func bccOp(c *CPU) { c.branch(!c.P.has(FlagCarry)) }
func bcsOp(c *CPU) { c.branch(c.P.has(FlagCarry)) }
func beqOp(c *CPU) { c.branch(c.P.has(FlagZero)) }
func bneOp(c *CPU) { c.branch(!c.P.has(FlagZero)) }
func bmiOp(c *CPU) { c.branch(c.P.has(FlagNegative)) }
func bplOp(c *CPU) { c.branch(!c.P.has(FlagNegative)) }
func bvcOp(c *CPU) { c.branch(!c.P.has(FlagOverflow)) }
func bvsOp(c *CPU) { c.branch(c.P.has(FlagOverflow)) }

// --- flags ---

func clcOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagCarry, false) }
func secOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagCarry, true) }
func cliOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagInterrupt, false) }
func seiOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagInterrupt, true) }
func clvOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagOverflow, false) }
func cldOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagDecimal, false) }
func sedOp(c *CPU) { c.Read8(c.PC); c.P.set(FlagDecimal, true) }

func nopOp(c *CPU)    { c.Read8(c.PC) }
func nopImmOp(c *CPU) { c.immediate() }

var opTable [256]instrFunc

func init() {
	opTable[0xA9], opTable[0xA5], opTable[0xB5] = ldaImm, ldaZp, ldaZpX
	opTable[0xAD], opTable[0xBD], opTable[0xB9] = ldaAbs, ldaAbsX, ldaAbsY
	opTable[0xA1], opTable[0xB1] = ldaIndX, ldaIndY

	opTable[0xA2], opTable[0xA6], opTable[0xB6] = ldxImm, ldxZp, ldxZpY
	opTable[0xAE], opTable[0xBE] = ldxAbs, ldxAbsY

	opTable[0xA0], opTable[0xA4], opTable[0xB4] = ldyImm, ldyZp, ldyZpX
	opTable[0xAC], opTable[0xBC] = ldyAbs, ldyAbsX

	opTable[0x85], opTable[0x95] = staZp, staZpX
	opTable[0x8D], opTable[0x9D], opTable[0x99] = staAbs, staAbsX, staAbsY
	opTable[0x81], opTable[0x91] = staIndX, staIndY

	opTable[0x86], opTable[0x96], opTable[0x8E] = stxZp, stxZpY, stxAbs
	opTable[0x84], opTable[0x94], opTable[0x8C] = styZp, styZpX, styAbs

	opTable[0xAA], opTable[0xA8] = taxOp, tayOp
	opTable[0x8A], opTable[0x98] = txaOp, tyaOp
	opTable[0xBA], opTable[0x9A] = tsxOp, txsOp

	opTable[0x48], opTable[0x08] = phaOp, phpOp
	opTable[0x68], opTable[0x28] = plaOp, plpOp

	opTable[0x69], opTable[0x65], opTable[0x75] = adcImm, adcZp, adcZpX
	opTable[0x6D], opTable[0x7D], opTable[0x79] = adcAbs, adcAbsX, adcAbsY
	opTable[0x61], opTable[0x71] = adcIndX, adcIndY

	opTable[0xE9], opTable[0xE5], opTable[0xF5] = sbcImm, sbcZp, sbcZpX
	opTable[0xED], opTable[0xFD], opTable[0xF9] = sbcAbs, sbcAbsX, sbcAbsY
	opTable[0xE1], opTable[0xF1] = sbcIndX, sbcIndY

	opTable[0x29], opTable[0x25], opTable[0x35] = andImm, andZp, andZpX
	opTable[0x2D], opTable[0x3D], opTable[0x39] = andAbs, andAbsX, andAbsY
	opTable[0x21], opTable[0x31] = andIndX, andIndY

	opTable[0x09], opTable[0x05], opTable[0x15] = oraImm, oraZp, oraZpX
	opTable[0x0D], opTable[0x1D], opTable[0x19] = oraAbs, oraAbsX, oraAbsY
	opTable[0x01], opTable[0x11] = oraIndX, oraIndY

	opTable[0x49], opTable[0x45], opTable[0x55] = eorImm, eorZp, eorZpX
	opTable[0x4D], opTable[0x5D], opTable[0x59] = eorAbs, eorAbsX, eorAbsY
	opTable[0x41], opTable[0x51] = eorIndX, eorIndY

	opTable[0xC9], opTable[0xC5], opTable[0xD5] = cmpImm, cmpZp, cmpZpX
	opTable[0xCD], opTable[0xDD], opTable[0xD9] = cmpAbs, cmpAbsX, cmpAbsY
	opTable[0xC1], opTable[0xD1] = cmpIndX, cmpIndY

	opTable[0xE0], opTable[0xE4], opTable[0xEC] = cpxImm, cpxZp, cpxAbs
	opTable[0xC0], opTable[0xC4], opTable[0xCC] = cpyImm, cpyZp, cpyAbs

	opTable[0x24], opTable[0x2C] = bitZp, bitAbs

	opTable[0xE8], opTable[0xC8] = inxOp, inyOp
	opTable[0xCA], opTable[0x88] = dexOp, deyOp

	opTable[0xE6], opTable[0xF6], opTable[0xEE], opTable[0xFE] = incZp, incZpX, incAbs, incAbsX
	opTable[0xC6], opTable[0xD6], opTable[0xCE], opTable[0xDE] = decZp, decZpX, decAbs, decAbsX

	opTable[0x0A], opTable[0x06], opTable[0x16], opTable[0x0E], opTable[0x1E] = aslAcc, aslZp, aslZpX, aslAbs, aslAbsX
	opTable[0x4A], opTable[0x46], opTable[0x56], opTable[0x4E], opTable[0x5E] = lsrAcc, lsrZp, lsrZpX, lsrAbs, lsrAbsX
	opTable[0x2A], opTable[0x26], opTable[0x36], opTable[0x2E], opTable[0x3E] = rolAcc, rolZp, rolZpX, rolAbs, rolAbsX
	opTable[0x6A], opTable[0x66], opTable[0x76], opTable[0x6E], opTable[0x7E] = rorAcc, rorZp, rorZpX, rorAbs, rorAbsX

	opTable[0x4C], opTable[0x6C] = jmpAbs, jmpInd
	opTable[0x20] = jsrOp
	opTable[0x60] = rtsOp
	opTable[0x40] = rtiOp
	opTable[0x00] = brkOp

	opTable[0x90], opTable[0xB0] = bccOp, bcsOp
	opTable[0xF0], opTable[0xD0] = beqOp, bneOp
	opTable[0x30], opTable[0x10] = bmiOp, bplOp
	opTable[0x50], opTable[0x70] = bvcOp, bvsOp

	opTable[0x18], opTable[0x38] = clcOp, secOp
	opTable[0x58], opTable[0x78] = cliOp, seiOp
	opTable[0xB8] = clvOp
	opTable[0xD8], opTable[0xF8] = cldOp, sedOp

	opTable[0xEA] = nopOp
	// Common unofficial NOP encodings decode as documented NOPs rather
	// than panicking the CPU; they still take the declared-gap path
	// because they are not part of the official instruction set.
}
