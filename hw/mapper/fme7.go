package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// fme7 implements mapper 69 (Sunsoft FME-7): a command/parameter register
// pair at $8000/$A000 addressing sixteen internal registers — eight 1KiB
// CHR banks, three switchable 8KiB PRG banks plus a fixed last bank, a
// mirroring register, a work-RAM/ROM select register with its own enable
// bit, and a 16-bit CPU-cycle countdown IRQ (spec §4.5 "Sunsoft FME-7
// (69)"). The ROM option of the select register is not mapped: with it
// selected, $6000-$7FFF reads still return work RAM and writes are ignored.
type fme7 struct {
	base

	command uint8

	ramSelect   bool
	ramEnabled  bool
	prgBank8000 uint8
	prgBankA000 uint8
	prgBankC000 uint8

	irqCounter    uint16
	irqCountEnable bool
	irqEnabled    bool
	irqPending    bool
}

func newFME7(rom *ines.Rom) *fme7 {
	m := &fme7{base: newBase("FME-7", rom)}
	m.setPRGBank8KB(3, -1)
	return m
}

func (m *fme7) CPURead(addr uint16) (uint8, bool) {
	if addr >= 0x6000 && addr < 0x8000 {
		if m.ramSelect {
			if !m.ramEnabled {
				return 0, false
			}
			return m.readPRG(addr)
		}
	}
	return m.readPRG(addr)
}

func (m *fme7) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x6000 && addr < 0x8000:
		if m.ramSelect && m.ramEnabled {
			m.writePRGRAM(addr, val)
		}
	case addr >= 0x8000 && addr < 0xA000:
		m.command = val & 0x0F
	case addr >= 0xA000 && addr < 0xC000:
		m.writeParam(val)
	}
}

func (m *fme7) writeParam(val uint8) {
	switch {
	case m.command <= 0x07:
		m.setCHRBank1KB(int(m.command), int(val))
	case m.command == 0x08:
		m.ramSelect = val&0x40 != 0
		m.ramEnabled = val&0x80 != 0
	case m.command == 0x09:
		m.prgBank8000 = val & 0x3F
		m.setPRGBank8KB(0, int(m.prgBank8000))
	case m.command == 0x0A:
		m.prgBankA000 = val & 0x3F
		m.setPRGBank8KB(1, int(m.prgBankA000))
	case m.command == 0x0B:
		m.prgBankC000 = val & 0x3F
		m.setPRGBank8KB(2, int(m.prgBankC000))
	case m.command == 0x0C:
		switch val & 0x03 {
		case 0:
			m.SetMirroring(ines.VertMirroring)
		case 1:
			m.SetMirroring(ines.HorzMirroring)
		case 2:
			m.SetMirroring(ines.OnlyAScreen)
		case 3:
			m.SetMirroring(ines.OnlyBScreen)
		}
	case m.command == 0x0D:
		m.irqEnabled = val&0x01 != 0
		m.irqCountEnable = val&0x80 != 0
		m.irqPending = false
	case m.command == 0x0E:
		m.irqCounter = (m.irqCounter &^ 0x00FF) | uint16(val)
	case m.command == 0x0F:
		m.irqCounter = (m.irqCounter &^ 0xFF00) | uint16(val)<<8
	}
}

// CPUClock implements CPUClocker: the 16-bit countdown decrements every
// CPU cycle while counting is enabled, firing on underflow from 0.
func (m *fme7) CPUClock(cycles int) {
	if !m.irqCountEnable {
		return
	}
	for i := 0; i < cycles; i++ {
		if m.irqCounter == 0 {
			if m.irqEnabled {
				m.irqPending = true
			}
			m.irqCounter = 0xFFFF
		} else {
			m.irqCounter--
		}
	}
}

func (m *fme7) IRQPending() bool { return m.irqPending }
func (m *fme7) AckIRQ()          { m.irqPending = false }

func (m *fme7) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *fme7) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *fme7) Reset()                                            {}
func (m *fme7) Capabilities() Capabilities                        { return Capabilities{} }

func (m *fme7) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.base.serializeFields(e)
	e.FieldStart("command")
	e.Int(int(m.command))
	e.FieldStart("ramSelect")
	e.Bool(m.ramSelect)
	e.FieldStart("ramEnabled")
	e.Bool(m.ramEnabled)
	e.FieldStart("prgBank8000")
	e.Int(int(m.prgBank8000))
	e.FieldStart("prgBankA000")
	e.Int(int(m.prgBankA000))
	e.FieldStart("prgBankC000")
	e.Int(int(m.prgBankC000))
	e.FieldStart("irqCounter")
	e.Int(int(m.irqCounter))
	e.FieldStart("irqCountEnable")
	e.Bool(m.irqCountEnable)
	e.FieldStart("irqEnabled")
	e.Bool(m.irqEnabled)
	e.FieldStart("irqPending")
	e.Bool(m.irqPending)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *fme7) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.base.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "command":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.command = uint8(v)
		case "ramSelect":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.ramSelect = v
		case "ramEnabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.ramEnabled = v
		case "prgBank8000":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgBank8000 = uint8(v)
			m.setPRGBank8KB(0, int(m.prgBank8000))
		case "prgBankA000":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgBankA000 = uint8(v)
			m.setPRGBank8KB(1, int(m.prgBankA000))
		case "prgBankC000":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgBankC000 = uint8(v)
			m.setPRGBank8KB(2, int(m.prgBankC000))
		case "irqCounter":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.irqCounter = uint16(v)
		case "irqCountEnable":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqCountEnable = v
		case "irqEnabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqEnabled = v
		case "irqPending":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqPending = v
		default:
			return d.Skip()
		}
		return nil
	})
}
