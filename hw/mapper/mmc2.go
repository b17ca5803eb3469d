package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// mmc2x implements mappers 9 (MMC2) and 10 (MMC4): two independent 4 KiB
// character latches, each toggled between its $FD and $FE bank selection
// by specific pattern-fetch addresses passing through documented windows
// (spec §4.5 "MMC2/MMC4 (9/10)"). MMC2 switches an 8 KiB program window;
// MMC4 switches 16 KiB, mirroring UxROM's program layout.
type mmc2x struct {
	base

	prgBank   uint8
	chrBank0FD, chrBank0FE uint8
	chrBank1FD, chrBank1FE uint8
	latch0, latch1 uint8 // 0 = $FD selected, 1 = $FE selected

	is4 bool // true selects MMC4's 16KiB program banking
}

func newMMC2(rom *ines.Rom) *mmc2x {
	m := &mmc2x{base: newBase("MMC2", rom)}
	m.setPRGBank8KB(3, -1)
	return m
}

func newMMC4(rom *ines.Rom) *mmc2x {
	m := &mmc2x{base: newBase("MMC4", rom), is4: true}
	m.setPRGBank16KB(1, -1)
	return m
}

func (m *mmc2x) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *mmc2x) CPUWrite(addr uint16, val uint8) {
	if m.writePRGRAM(addr, val) {
		return
	}
	switch {
	case addr >= 0xA000 && addr < 0xB000:
		m.prgBank = val & 0x0F
		if m.is4 {
			m.setPRGBank16KB(0, int(m.prgBank))
		} else {
			m.setPRGBank8KB(0, int(m.prgBank))
		}
	case addr >= 0xB000 && addr < 0xC000:
		m.chrBank0FD = val & 0x1F
		if m.latch0 == 0 {
			m.setCHRBank4KB(0, int(m.chrBank0FD))
		}
	case addr >= 0xC000 && addr < 0xD000:
		m.chrBank0FE = val & 0x1F
		if m.latch0 == 1 {
			m.setCHRBank4KB(0, int(m.chrBank0FE))
		}
	case addr >= 0xD000 && addr < 0xE000:
		m.chrBank1FD = val & 0x1F
		if m.latch1 == 0 {
			m.setCHRBank4KB(1, int(m.chrBank1FD))
		}
	case addr >= 0xE000 && addr < 0xF000:
		m.chrBank1FE = val & 0x1F
		if m.latch1 == 1 {
			m.setCHRBank4KB(1, int(m.chrBank1FE))
		}
	case addr >= 0xF000:
		switch val & 0x01 {
		case 0:
			m.SetMirroring(ines.VertMirroring)
		case 1:
			m.SetMirroring(ines.HorzMirroring)
		}
	}
}

// PPURead watches the pattern-fetch address for the documented MMC2/MMC4
// latch windows before returning the fetched byte, so the *next* fetch
// observes any latch transition this one caused (spec §4.5, HasCHRLatch).
func (m *mmc2x) PPURead(addr uint16, _ FetchContext) (uint8, bool) {
	val, ok := m.readCHR(addr)
	switch {
	case addr >= 0x0FD8 && addr <= 0x0FDF:
		m.latch0 = 0
		m.setCHRBank4KB(0, int(m.chrBank0FD))
	case addr >= 0x0FE8 && addr <= 0x0FEF:
		m.latch0 = 1
		m.setCHRBank4KB(0, int(m.chrBank0FE))
	case addr >= 0x1FD8 && addr <= 0x1FDF:
		m.latch1 = 0
		m.setCHRBank4KB(1, int(m.chrBank1FD))
	case addr >= 0x1FE8 && addr <= 0x1FEF:
		m.latch1 = 1
		m.setCHRBank4KB(1, int(m.chrBank1FE))
	}
	return val, ok
}

func (m *mmc2x) PPUWrite(addr uint16, val uint8) bool { return m.writeCHR(addr, val) }
func (m *mmc2x) Reset()                               {}
func (m *mmc2x) Capabilities() Capabilities           { return Capabilities{HasCHRLatch: true} }

func (m *mmc2x) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.base.serializeFields(e)
	e.FieldStart("prgBank")
	e.Int(int(m.prgBank))
	e.FieldStart("chrBank0FD")
	e.Int(int(m.chrBank0FD))
	e.FieldStart("chrBank0FE")
	e.Int(int(m.chrBank0FE))
	e.FieldStart("chrBank1FD")
	e.Int(int(m.chrBank1FD))
	e.FieldStart("chrBank1FE")
	e.Int(int(m.chrBank1FE))
	e.FieldStart("latch0")
	e.Int(int(m.latch0))
	e.FieldStart("latch1")
	e.Int(int(m.latch1))
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *mmc2x) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.base.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "prgBank":
			v, err := d.Int()
			if err != nil {
				return err
			}
			if m.is4 {
				m.setPRGBank16KB(0, int(uint8(v)))
			} else {
				m.setPRGBank8KB(0, int(uint8(v)))
			}
			m.prgBank = uint8(v)
		case "chrBank0FD":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrBank0FD = uint8(v)
		case "chrBank0FE":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrBank0FE = uint8(v)
		case "chrBank1FD":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrBank1FD = uint8(v)
		case "chrBank1FE":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrBank1FE = uint8(v)
		case "latch0":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.latch0 = uint8(v)
		case "latch1":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.latch1 = uint8(v)
		default:
			return d.Skip()
		}
		return nil
	})
}
