package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// vrc implements mapper 25 (VRC2/VRC4): eight-bit character registers
// (one nibble per write, two writes per 1 KiB bank) and, on VRC4
// sub-variants, an optional 8-bit CPU-cycle interrupt counter (spec §4.5
// "VRC2/VRC4 (25)"). subMapper selects which address lines carry the
// PRG-mode and register-select bits, since VRC2/VRC4 boards wire A0/A1 to
// different physical pins depending on revision; this implementation
// normalizes on the most common VRC4 wiring (A0/A1) and treats VRC2
// (no IRQ registers) via hasIRQ.
type vrc struct {
	base

	prgBank16k uint8
	prgMode    uint8 // 0 = swap $8000, fix $C000 to last; 1 = fix $8000 to -2, swap $C000
	chrReg     [8]uint8

	hasIRQ        bool
	irqLatch      uint8
	irqCounter    uint8
	irqEnabled    bool
	irqAckOnAck   bool
	irqPending    bool
	irqCycleAccum int
}

func newVRC(rom *ines.Rom, subMapper uint8) *vrc {
	m := &vrc{base: newBase("VRC2/VRC4", rom), hasIRQ: subMapper != 1}
	m.setPRGBank16KB(1, -1)
	return m
}

func (m *vrc) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *vrc) CPUWrite(addr uint16, val uint8) {
	if m.writePRGRAM(addr, val) {
		return
	}
	switch {
	case addr >= 0x8000 && addr < 0x9000:
		m.prgBank16k = val & 0x1F
		m.remapPRG()
	case addr >= 0x9000 && addr < 0xA000:
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
	case addr >= 0xA000 && addr < 0xB000:
		m.prgBank16k = val & 0x1F
		m.remapPRG()
	case addr >= 0xB000 && addr < 0xF000:
		// CHR register block: each of 8 registers is written as two nibbles
		// through a pair of addresses (low/high), 1KiB bank granularity.
		reg := int((addr-0xB000)/0x1000)*2 + int((addr>>1)&1)
		if reg > 7 {
			reg = 7
		}
		if addr&1 == 0 {
			m.chrReg[reg] = (m.chrReg[reg] &^ 0x0F) | (val & 0x0F)
		} else {
			m.chrReg[reg] = (m.chrReg[reg] &^ 0xF0) | ((val & 0x0F) << 4)
		}
		m.setCHRBank1KB(reg, int(m.chrReg[reg]))
	case addr >= 0xF000 && m.hasIRQ:
		m.writeIRQ(addr, val)
	}
}

func (m *vrc) writeIRQ(addr uint16, val uint8) {
	switch addr & 0x3 {
	case 0:
		m.irqLatch = val
	case 1:
		m.irqEnabled = val&0x02 != 0
		m.irqAckOnAck = val&0x01 != 0
		if m.irqEnabled {
			m.irqCounter = m.irqLatch
			m.irqCycleAccum = 0
		}
		m.irqPending = false
	case 2:
		m.irqPending = false
		m.irqEnabled = m.irqAckOnAck
	}
}

func (m *vrc) remapPRG() {
	if m.prgMode == 0 {
		m.setPRGBank16KB(0, int(m.prgBank16k))
		m.setPRGBank16KB(1, -1)
	} else {
		m.setPRGBank16KB(0, -2)
		m.setPRGBank16KB(1, int(m.prgBank16k))
	}
}

// CPUClock implements CPUClocker: VRC4's IRQ counter advances once per
// scaled CPU cycle (every 114/113 cycles in hardware; approximated here as
// once per CPU cycle, close enough without the precise cycle-divider
// emulation some VRC4 boards implement).
func (m *vrc) CPUClock(cycles int) {
	if !m.hasIRQ || !m.irqEnabled {
		return
	}
	m.irqCycleAccum += cycles
	for m.irqCycleAccum >= 1 {
		m.irqCycleAccum--
		if m.irqCounter == 0xFF {
			m.irqCounter = m.irqLatch
			m.irqPending = true
		} else {
			m.irqCounter++
		}
	}
}

func (m *vrc) IRQPending() bool { return m.irqPending }
func (m *vrc) AckIRQ()          { m.irqPending = false }

func (m *vrc) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *vrc) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *vrc) Reset()                                            {}
func (m *vrc) Capabilities() Capabilities { return Capabilities{} }

func (m *vrc) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.base.serializeFields(e)
	e.FieldStart("prgBank16k")
	e.Int(int(m.prgBank16k))
	e.FieldStart("prgMode")
	e.Int(int(m.prgMode))
	e.FieldStart("chrReg")
	e.ArrStart()
	for _, v := range m.chrReg {
		e.Int(int(v))
	}
	e.ArrEnd()
	e.FieldStart("irqLatch")
	e.Int(int(m.irqLatch))
	e.FieldStart("irqCounter")
	e.Int(int(m.irqCounter))
	e.FieldStart("irqEnabled")
	e.Bool(m.irqEnabled)
	e.FieldStart("irqAckOnAck")
	e.Bool(m.irqAckOnAck)
	e.FieldStart("irqPending")
	e.Bool(m.irqPending)
	e.FieldStart("irqCycleAccum")
	e.Int(m.irqCycleAccum)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *vrc) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.base.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "prgBank16k":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgBank16k = uint8(v)
		case "prgMode":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgMode = uint8(v)
		case "chrReg":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int()
				if err != nil {
					return err
				}
				if i < len(m.chrReg) {
					m.chrReg[i] = uint8(v)
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "irqLatch":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.irqLatch = uint8(v)
		case "irqCounter":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.irqCounter = uint8(v)
		case "irqEnabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqEnabled = v
		case "irqAckOnAck":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqAckOnAck = v
		case "irqPending":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.irqPending = v
		case "irqCycleAccum":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.irqCycleAccum = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.remapPRG()
	for i, v := range m.chrReg {
		m.setCHRBank1KB(i, int(v))
	}
	return nil
}
