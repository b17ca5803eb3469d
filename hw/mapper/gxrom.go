package mapper

import "nescore/ines"

// gxrom implements mapper 66: one register selecting both a 32 KiB program
// bank and an 8 KiB character bank (spec §4.5 "GxROM (66)").
type gxrom struct{ base }

func newGxROM(rom *ines.Rom) *gxrom {
	m := &gxrom{base: newBase("GxROM", rom)}
	m.setPRGBank32KB(0)
	m.setCHRBank8KB(0)
	return m
}

func (m *gxrom) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *gxrom) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	m.setCHRBank8KB(int(val & 0x03))
	m.setPRGBank32KB(int((val >> 4) & 0x03))
}

func (m *gxrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *gxrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *gxrom) Reset()                                            {}
func (m *gxrom) Capabilities() Capabilities                        { return Capabilities{} }

// bnrom implements mapper 34 sub-variant BNROM: one register selecting a
// 32 KiB program bank; character is always fixed 8 KiB RAM (spec §4.5
// "BNROM/NINA-001 (34)").
type bnrom struct{ base }

func newBNROM(rom *ines.Rom) *bnrom {
	m := &bnrom{base: newBase("BNROM", rom)}
	m.setPRGBank32KB(0)
	m.identityCHRSlots()
	return m
}

func (m *bnrom) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *bnrom) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	m.setPRGBank32KB(int(val & 0x03))
}

func (m *bnrom) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *bnrom) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *bnrom) Reset()                                            {}
func (m *bnrom) Capabilities() Capabilities                        { return Capabilities{} }

// colorDreams implements mapper 11: fixed writes select a 32 KiB program
// bank in the low nibble and an 8 KiB character bank in the high nibble of
// a single register (spec §4.5 "Color Dreams (11)").
type colorDreams struct{ base }

func newColorDreams(rom *ines.Rom) *colorDreams {
	m := &colorDreams{base: newBase("ColorDreams", rom)}
	m.setPRGBank32KB(0)
	m.setCHRBank8KB(0)
	return m
}

func (m *colorDreams) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *colorDreams) CPUWrite(addr uint16, val uint8) {
	if addr < 0x8000 {
		return
	}
	m.setPRGBank32KB(int(val & 0x03))
	m.setCHRBank8KB(int((val >> 4) & 0x0F))
}

func (m *colorDreams) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *colorDreams) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *colorDreams) Reset()                                            {}
func (m *colorDreams) Capabilities() Capabilities                        { return Capabilities{} }

// nina0306 implements mapper 79 (NINA-03/06): a single CPU $4100-$5FFF
// register selecting both program and character banks, commonly found on
// Nina-03/06 multicarts (spec §4.5 "NINA-03/06 (79)").
type nina0306 struct{ base }

func newNINA0306(rom *ines.Rom) *nina0306 {
	m := &nina0306{base: newBase("NINA-03/06", rom)}
	m.setPRGBank32KB(0)
	m.setCHRBank8KB(0)
	return m
}

func (m *nina0306) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *nina0306) CPUWrite(addr uint16, val uint8) {
	if addr < 0x4100 || addr > 0x5FFF {
		m.writePRGRAM(addr, val)
		return
	}
	m.setPRGBank32KB(int((val >> 3) & 0x01))
	m.setCHRBank8KB(int(val & 0x07))
}

func (m *nina0306) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *nina0306) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *nina0306) Reset()                                            {}
func (m *nina0306) Capabilities() Capabilities                        { return Capabilities{} }
