package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// mmc3 implements mapper 4 (and, with dxromSubset set, mapper 206 DxROM,
// which shares every register except mirroring control and the IRQ
// counter). Eight registers select program/character banks in two
// swappable program modes and two character-inversion modes; an A12-edge
// counter drives a scanline interrupt (spec §4.5 "MMC3 (4)"). Grounded on
// the bank-modulo addressing style of
// _examples/other_examples/meadori-vibemulator__mmc3.go and the A12-edge
// counter/reload/enable fields of spec §3 "Mapper state".
type mmc3 struct {
	base

	bankSelect uint8
	regs       [8]uint8

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool

	prgRAMWritable bool
	prgRAMEnabled  bool

	dxromSubset bool
}

func newMMC3(rom *ines.Rom, name string, dxromSubset bool) *mmc3 {
	m := &mmc3{base: newBase(name, rom), dxromSubset: dxromSubset, prgRAMEnabled: true, prgRAMWritable: true}
	m.setPRGBank16KB(1, -1)
	m.remap()
	return m
}

func (m *mmc3) CPURead(addr uint16) (uint8, bool) {
	if addr >= 0x6000 && addr < 0x8000 {
		if !m.prgRAMEnabled {
			return 0, false
		}
		return m.readPRG(addr)
	}
	return m.readPRG(addr)
}

func (m *mmc3) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.prgRAMEnabled && m.prgRAMWritable {
			m.writePRGRAM(addr, val)
		}
	case addr >= 0x8000 && addr < 0xA000:
		if addr&1 == 0 {
			m.bankSelect = val
		} else {
			m.regs[m.bankSelect&0x07] = val
		}
		m.remap()
	case addr >= 0xA000 && addr < 0xC000:
		if addr&1 == 0 {
			if !m.dxromSubset {
				if val&1 != 0 {
					m.SetMirroring(ines.HorzMirroring)
				} else {
					m.SetMirroring(ines.VertMirroring)
				}
			}
		} else {
			m.prgRAMEnabled = val&0x80 != 0
			m.prgRAMWritable = val&0x40 == 0
		}
	case addr >= 0xC000 && addr < 0xE000:
		if !m.dxromSubset {
			if addr&1 == 0 {
				m.irqLatch = val
			} else {
				m.irqReload = true
			}
		}
	case addr >= 0xE000:
		if !m.dxromSubset {
			if addr&1 == 0 {
				m.irqEnabled = false
				m.irqPending = false
			} else {
				m.irqEnabled = true
			}
		}
	}
}

func (m *mmc3) remap() {
	chrInversion := m.bankSelect&0x80 != 0
	prgMode := m.bankSelect&0x40 != 0

	r := m.regs
	if !chrInversion {
		m.setCHRBank2KB(0, int(r[0]>>1))
		m.setCHRBank2KB(1, int(r[1]>>1))
		m.setCHRBank1KB(4, int(r[2]))
		m.setCHRBank1KB(5, int(r[3]))
		m.setCHRBank1KB(6, int(r[4]))
		m.setCHRBank1KB(7, int(r[5]))
	} else {
		m.setCHRBank1KB(0, int(r[2]))
		m.setCHRBank1KB(1, int(r[3]))
		m.setCHRBank1KB(2, int(r[4]))
		m.setCHRBank1KB(3, int(r[5]))
		m.setCHRBank2KB(2, int(r[0]>>1))
		m.setCHRBank2KB(3, int(r[1]>>1))
	}

	if !prgMode {
		m.setPRGBank8KB(0, int(r[6]))
		m.setPRGBank8KB(1, int(r[7]))
		m.setPRGBank8KB(2, -2)
		m.setPRGBank8KB(3, -1)
	} else {
		m.setPRGBank8KB(0, -2)
		m.setPRGBank8KB(1, int(r[7]))
		m.setPRGBank8KB(2, int(r[6]))
		m.setPRGBank8KB(3, -1)
	}
}

// ClockScanline implements ScanlineIRQer, invoked by the PPU on every
// filtered A12 rising edge (spec §4.5, §4.3 "A12 edge detection").
func (m *mmc3) ClockScanline() {
	if m.dxromSubset {
		return
	}
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

func (m *mmc3) IRQPending() bool { return m.irqPending }
func (m *mmc3) AckIRQ()          { m.irqPending = false }

func (m *mmc3) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *mmc3) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *mmc3) Reset()                                            {}
func (m *mmc3) Capabilities() Capabilities {
	if m.dxromSubset {
		return Capabilities{}
	}
	return Capabilities{HasScanlineIRQ: true}
}

// serializeFields lets mmc6 (which embeds mmc3) fold these in alongside its
// own extra registers without duplicating the field list.
func (m *mmc3) serializeFields(e *jx.Encoder) {
	m.base.serializeFields(e)
	e.FieldStart("bankSelect")
	e.Int(int(m.bankSelect))
	e.FieldStart("regs")
	e.ArrStart()
	for _, r := range m.regs {
		e.Int(int(r))
	}
	e.ArrEnd()
	e.FieldStart("irqLatch")
	e.Int(int(m.irqLatch))
	e.FieldStart("irqCounter")
	e.Int(int(m.irqCounter))
	e.FieldStart("irqReload")
	e.Bool(m.irqReload)
	e.FieldStart("irqEnabled")
	e.Bool(m.irqEnabled)
	e.FieldStart("irqPending")
	e.Bool(m.irqPending)
	e.FieldStart("prgRAMWritable")
	e.Bool(m.prgRAMWritable)
	e.FieldStart("prgRAMEnabled")
	e.Bool(m.prgRAMEnabled)
}

func (m *mmc3) deserializeField(d *jx.Decoder, key string) (bool, error) {
	if ok, err := m.base.deserializeField(d, key); ok {
		return true, err
	}
	switch key {
	case "bankSelect":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		m.bankSelect = uint8(v)
	case "regs":
		i := 0
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int()
			if err != nil {
				return err
			}
			if i < len(m.regs) {
				m.regs[i] = uint8(v)
			}
			i++
			return nil
		})
		if err != nil {
			return true, err
		}
	case "irqLatch":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		m.irqLatch = uint8(v)
	case "irqCounter":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		m.irqCounter = uint8(v)
	case "irqReload":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		m.irqReload = v
	case "irqEnabled":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		m.irqEnabled = v
	case "irqPending":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		m.irqPending = v
	case "prgRAMWritable":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		m.prgRAMWritable = v
	case "prgRAMEnabled":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		m.prgRAMEnabled = v
	default:
		return false, nil
	}
	return true, nil
}

func (m *mmc3) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.serializeFields(e)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *mmc3) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		_, err := m.deserializeField(d, key)
		return err
	})
	if err != nil {
		return err
	}
	m.remap()
	return nil
}
