package mapper

import "nescore/ines"

// cnrom implements mapper 3: fixed program, switchable 8 KiB character
// bank, with hardware bus-conflict semantics on the program-space write
// that selects it (spec §4.5 "CNROM (3)"). The conflict applies
// unconditionally, as on real CNROM boards; the NES 2.0 submapper is not
// consulted.
type cnrom struct {
	base
}

func newCNROM(rom *ines.Rom) *cnrom {
	m := &cnrom{base: newBase("CNROM", rom)}
	if m.prgBankCount(0x4000) <= 1 {
		m.setPRGBank16KB(0, 0)
		m.setPRGBank16KB(1, 0)
	} else {
		m.setPRGBank32KB(0)
	}
	m.setCHRBank8KB(0)
	return m
}

func (m *cnrom) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *cnrom) CPUWrite(addr uint16, val uint8) {
	if m.writePRGRAM(addr, val) || addr < 0x8000 {
		return
	}
	if rom, ok := m.readPRG(addr); ok {
		val &= rom
	}
	m.setCHRBank8KB(int(val & 0x03))
}

func (m *cnrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *cnrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *cnrom) Reset()                                            {}
func (m *cnrom) Capabilities() Capabilities                        { return Capabilities{} }
