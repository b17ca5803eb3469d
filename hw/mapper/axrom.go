package mapper

import "nescore/ines"

// axrom implements mapper 7: a single switchable 32 KiB program bank plus
// switchable single-screen mirroring selected by the same register write
// (spec §4.5 "AxROM (7)").
type axrom struct {
	base
	busConflicts bool
}

func newAxROM(rom *ines.Rom) *axrom {
	m := &axrom{base: newBase("AxROM", rom), busConflicts: rom.SubMapper() == 2}
	m.setPRGBank32KB(0)
	m.identityCHRSlots()
	m.SetMirroring(ines.OnlyAScreen)
	return m
}

func (m *axrom) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *axrom) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	if m.busConflicts {
		if rom, ok := m.readPRG(addr); ok {
			val &= rom
		}
	}
	m.setPRGBank32KB(int(val & 0x07))
	if val&0x10 != 0 {
		m.SetMirroring(ines.OnlyBScreen)
	} else {
		m.SetMirroring(ines.OnlyAScreen)
	}
}

func (m *axrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *axrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *axrom) Reset()                                            {}
func (m *axrom) Capabilities() Capabilities                        { return Capabilities{} }
