package mapper

import "nescore/ines"

// nrom implements mapper 0: fixed 16 or 32 KiB program, fixed character ROM
// or RAM, no banking at all (spec §4.5 "NROM (0)").
type nrom struct {
	base
}

func newNROM(rom *ines.Rom) *nrom {
	m := &nrom{base: newBase("NROM", rom)}
	if m.prgBankCount(0x4000) <= 1 {
		m.setPRGBank16KB(0, 0)
		m.setPRGBank16KB(1, 0) // 16KiB cartridges mirror the single bank
	} else {
		m.setPRGBank32KB(0)
	}
	m.identityCHRSlots()
	return m
}

func (m *nrom) CPURead(addr uint16) (uint8, bool)  { return m.readPRG(addr) }
func (m *nrom) CPUWrite(addr uint16, val uint8)    { m.writePRGRAM(addr, val) }
func (m *nrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *nrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *nrom) Reset()                                            {}
func (m *nrom) Capabilities() Capabilities                        { return Capabilities{} }
