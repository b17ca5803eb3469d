package mapper

import "nescore/ines"

// uxrom implements mapper 2: a single switchable 16 KiB program bank at
// $8000, with $C000 fixed to the last bank (spec §4.5 "UxROM (2)"). CHR is
// always RAM or a fixed 8 KiB ROM; no character banking.
type uxrom struct {
	base
	busConflicts bool
}

func newUxROM(rom *ines.Rom) *uxrom {
	m := &uxrom{base: newBase("UxROM", rom), busConflicts: rom.SubMapper() == 2}
	m.setPRGBank16KB(0, 0)
	m.setPRGBank16KB(1, -1)
	m.identityCHRSlots()
	return m
}

func (m *uxrom) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *uxrom) CPUWrite(addr uint16, val uint8) {
	if m.writePRGRAM(addr, val) || addr < 0x8000 {
		return
	}
	if m.busConflicts {
		if rom, ok := m.readPRG(addr); ok {
			val &= rom
		}
	}
	m.setPRGBank16KB(0, int(val&0x0F))
}

func (m *uxrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *uxrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *uxrom) Reset()                                            {}
func (m *uxrom) Capabilities() Capabilities                        { return Capabilities{} }
