package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// mmc6 implements mapper 6: an MMC3 variant with a small (1 KiB) internal
// work RAM split into two 512-byte blocks ($7000-$71FF, $7200-$73FF), each independently
// write-protected through $A001 (spec §4.5 "MMC6 (6)").
type mmc6 struct {
	mmc3

	workRAM       [1024]byte
	block0Enabled bool
	block0Write   bool
	block1Enabled bool
	block1Write   bool
}

func newMMC6(rom *ines.Rom) *mmc6 {
	m := &mmc6{mmc3: *newMMC3(rom, "MMC6", false)}
	m.prgRAM = m.workRAM[:]
	return m
}

func (m *mmc6) CPURead(addr uint16) (uint8, bool) {
	if addr >= 0x7000 && addr < 0x7200 {
		if !m.block0Enabled {
			return 0, false
		}
		return m.workRAM[addr-0x7000], true
	}
	if addr >= 0x7200 && addr < 0x7400 {
		if !m.block1Enabled {
			return 0, false
		}
		return m.workRAM[addr-0x7000], true
	}
	return m.mmc3.CPURead(addr)
}

func (m *mmc6) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr >= 0x7000 && addr < 0x7200:
		if m.block0Enabled && m.block0Write {
			m.workRAM[addr-0x7000] = val
		}
	case addr >= 0x7200 && addr < 0x7400:
		if m.block1Enabled && m.block1Write {
			m.workRAM[addr-0x7000] = val
		}
	case addr == 0xA001:
		m.block0Enabled = val&0x10 != 0
		m.block0Write = val&0x20 != 0
		m.block1Enabled = val&0x40 != 0
		m.block1Write = val&0x80 != 0
	default:
		m.mmc3.CPUWrite(addr, val)
	}
}

// Serialize/Deserialize don't need a separate workRAM entry: workRAM is
// aliased into base.prgRAM at construction, so mmc3.serializeFields's
// prgRAM handling already covers it.
func (m *mmc6) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.mmc3.serializeFields(e)
	e.FieldStart("block0Enabled")
	e.Bool(m.block0Enabled)
	e.FieldStart("block0Write")
	e.Bool(m.block0Write)
	e.FieldStart("block1Enabled")
	e.Bool(m.block1Enabled)
	e.FieldStart("block1Write")
	e.Bool(m.block1Write)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *mmc6) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.mmc3.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "block0Enabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.block0Enabled = v
		case "block0Write":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.block0Write = v
		case "block1Enabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.block1Enabled = v
		case "block1Write":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.block1Write = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.remap()
	return nil
}
