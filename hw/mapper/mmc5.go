package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// mmc5 implements mapper 5: the richest variant in the set (spec §4.5
// "MMC5 (5)"). It declares HasNametableOverride (ReadNametable answers
// CPU-side nametable reads from ExRAM in mode 1) and HasPerTileAttributes
// (ExtendedAttribute supplies each tile's 2-bit palette from the top two
// bits of its ExRAM byte, in place of the attribute-table bits).
//
// Not implemented: the vertical split screen, the two-pulse-plus-PCM
// expansion audio and the CPU-cycle timer. Writes to their registers
// ($5000-$5015, $5200-$5202, $5209-$520A) are ignored, and the console
// registers no expansion source for this mapper.
type mmc5 struct {
	base

	prgMode uint8 // 0..3
	chrMode uint8 // 0..3

	prgRAMProtect1, prgRAMProtect2 uint8 // "2,1" write-protect pattern

	prgBank [5]uint8 // $5113-$5117: $6000/$8000/$A000/$C000/$E000 (mode-dependent, 8/16/32KB mixes)
	prgIsRAM [5]bool

	chrBankBG    [8]uint16
	chrBankSpr   [8]uint16
	spriteSize8x16 bool
	lastFetchWasSprite bool

	exramMode uint8 // 0 nametable, 1 extended attribute, 2 CPU RAM, 3 read-only
	exram     [1024]byte

	fillTile uint8
	fillAttr uint8

	irqScanline  uint8
	irqEnabled   bool
	irqPending   bool
	currentLine  int

	multiplicand, multiplier uint8
}

func newMMC5(rom *ines.Rom) *mmc5 {
	m := &mmc5{base: newBase("MMC5", rom)}
	m.setPRGBank8KB(3, -1)
	return m
}

func (m *mmc5) CPURead(addr uint16) (uint8, bool) {
	switch {
	case addr == 0x5204:
		val := uint8(0)
		if m.irqPending {
			val |= 0x80
		}
		return val, true
	case addr == 0x5205:
		return uint8(uint16(m.multiplicand) * uint16(m.multiplier)), true
	case addr == 0x5206:
		return uint8((uint16(m.multiplicand) * uint16(m.multiplier)) >> 8), true
	case addr >= 0x5C00 && addr < 0x6000:
		if m.exramMode == 0 || m.exramMode == 1 {
			return 0, false
		}
		return m.exram[addr-0x5C00], true
	case addr >= 0x6000 && addr < 0x8000:
		slot := int((addr - 0x6000) / 0x2000)
		if m.prgIsRAM[slot] {
			return m.readPRG(addr)
		}
	}
	return m.readPRG(addr)
}

func (m *mmc5) CPUWrite(addr uint16, val uint8) {
	switch {
	case addr == 0x5100:
		m.prgMode = val & 0x03
	case addr == 0x5101:
		m.chrMode = val & 0x03
	case addr == 0x5102:
		m.prgRAMProtect1 = val & 0x03
	case addr == 0x5103:
		m.prgRAMProtect2 = val & 0x03
	case addr == 0x5104:
		m.exramMode = val & 0x03
	case addr == 0x5105:
		m.setMirroringFromNT(val)
	case addr == 0x5106:
		m.fillTile = val
	case addr == 0x5107:
		m.fillAttr = val & 0x03
	case addr >= 0x5113 && addr <= 0x5117:
		slot := int(addr - 0x5113)
		m.prgBank[slot] = val & 0x7F
		m.prgIsRAM[slot] = slot != 4 && val&0x80 == 0
		m.remapPRG()
	case addr >= 0x5120 && addr <= 0x5127:
		m.chrBankSpr[addr-0x5120] = uint16(val)
	case addr >= 0x5128 && addr <= 0x512B:
		m.chrBankBG[addr-0x5128] = uint16(val)
	case addr == 0x5203:
		m.irqScanline = val
	case addr == 0x5204:
		m.irqEnabled = val&0x80 != 0
	case addr == 0x5205:
		m.multiplicand = val
	case addr == 0x5206:
		m.multiplier = val
	case addr >= 0x5C00 && addr < 0x6000:
		if m.exramMode != 3 {
			m.exram[addr-0x5C00] = val
		}
	case addr >= 0x6000 && addr < 0x8000:
		slot := int((addr - 0x6000) / 0x2000)
		writable := m.prgRAMProtect1 == 0x02 && m.prgRAMProtect2 == 0x01
		if m.prgIsRAM[slot] && writable {
			m.writePRGRAM(addr, val)
		}
	}
}

func (m *mmc5) setMirroringFromNT(val uint8) {
	// Each of the four 2-bit fields selects nametable A, B, ExRAM, or fill
	// for one quadrant; approximated here to the nearest of the PPU's five
	// base modes since the console's PPU does not model four independently
	// steered quadrants outside of ExRAM/fill (handled via
	// ReadNametable/WriteNametable instead).
	switch val & 0x03 {
	case 0, 1:
		m.SetMirroring(ines.VertMirroring)
	default:
		m.SetMirroring(ines.HorzMirroring)
	}
}

func (m *mmc5) remapPRG() {
	switch m.prgMode {
	case 0:
		m.setPRGBank32KB(int(m.prgBank[4] >> 2))
	case 1:
		m.setPRGBank16KB(0, int(m.prgBank[2]>>1))
		m.setPRGBank16KB(1, int(m.prgBank[4]>>1))
	case 2:
		m.setPRGBank16KB(0, int(m.prgBank[2]>>1))
		m.setPRGBank8KB(2, int(m.prgBank[3]))
		m.setPRGBank8KB(3, int(m.prgBank[4]))
	case 3:
		m.setPRGBank8KB(0, int(m.prgBank[1]))
		m.setPRGBank8KB(1, int(m.prgBank[2]))
		m.setPRGBank8KB(2, int(m.prgBank[3]))
		m.setPRGBank8KB(3, int(m.prgBank[4]))
	}
}

// OnPPURegisterWrite implements RegisterWriteObserver: watches CTRL's
// sprite-size bit to select which of the two independent CHR bank sets
// (background vs. sprite) the next fetches should use: in 8x8 mode every
// fetch uses the $5120-$5127 set, in 8x16 mode background fetches use the
// $5128-$512B set.
func (m *mmc5) OnPPURegisterWrite(addr uint16, val uint8) {
	if addr&0x7 == 0 { // PPUCTRL
		m.spriteSize8x16 = val&0x20 != 0
	}
}

// OnEndScanline implements EndScanliner: the scanline-compare interrupt is
// evaluated at dot 4 of every rendered scanline (spec §4.5).
func (m *mmc5) OnEndScanline(line int) {
	m.currentLine = line
	if uint8(line) == m.irqScanline && line != 0 {
		m.irqPending = true
	}
}

func (m *mmc5) IRQPending() bool { return m.irqPending }
func (m *mmc5) AckIRQ()          { m.irqPending = false }

func (m *mmc5) PPURead(addr uint16, ctx FetchContext) (uint8, bool) {
	m.lastFetchWasSprite = ctx == FetchSprite
	set := m.chrBankBG
	if m.lastFetchWasSprite || !m.spriteSize8x16 {
		set = m.chrBankSpr
	}
	slot := addr / 0x400
	if int(slot) >= len(set) {
		return m.readCHR(addr)
	}
	bank := int(set[slot])
	data := m.chrData()
	if len(data) == 0 {
		return 0, false
	}
	idx := clampBank(bank, m.chrBankCount(0x400))*0x400 + int(addr%0x400)
	if idx < 0 || idx >= len(data) {
		return 0, false
	}
	return data[idx], true
}

func (m *mmc5) PPUWrite(addr uint16, val uint8) bool { return m.writeCHR(addr, val) }
func (m *mmc5) Reset()                               {}
func (m *mmc5) Capabilities() Capabilities {
	return Capabilities{HasNametableOverride: true, HasPerTileAttributes: true}
}

// ReadNametable implements NametableOverrider. Only CPU-side reads in ExRAM
// mode 1 are answered, straight from ExRAM; PPU fetches fall through to the
// PPU's own nametable RAM in every mode. ExRAM is not used as a nametable
// in mode 0, and fill mode is not applied (fillTile/fillAttr are only
// stored).
func (m *mmc5) ReadNametable(addr uint16, ctx NTContext) (uint8, bool) {
	switch m.exramMode {
	case 1:
		if ctx == NTCPU {
			return m.exram[(addr-0x2000)%1024], true
		}
		return 0, false // fill-like: caller falls back to ExtendedAttribute/base nametable
	case 0:
		return 0, false // base PPU nametable RAM handles it
	default:
		return 0, false
	}
}

func (m *mmc5) WriteNametable(addr uint16, val uint8) bool {
	if m.exramMode == 0 {
		return false
	}
	return false
}

// ExtendedAttribute implements PerTileAttributer for ExRAM mode 1.
func (m *mmc5) ExtendedAttribute(coarseX, coarseY int) uint8 {
	idx := coarseY*32 + coarseX
	if idx < 0 || idx >= len(m.exram) {
		return 0
	}
	return (m.exram[idx] >> 6) & 0x03
}

func (m *mmc5) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.base.serializeFields(e)
	e.FieldStart("prgMode")
	e.Int(int(m.prgMode))
	e.FieldStart("chrMode")
	e.Int(int(m.chrMode))
	e.FieldStart("prgRAMProtect1")
	e.Int(int(m.prgRAMProtect1))
	e.FieldStart("prgRAMProtect2")
	e.Int(int(m.prgRAMProtect2))
	e.FieldStart("prgBank")
	e.ArrStart()
	for _, v := range m.prgBank {
		e.Int(int(v))
	}
	e.ArrEnd()
	e.FieldStart("prgIsRAM")
	e.ArrStart()
	for _, v := range m.prgIsRAM {
		e.Bool(v)
	}
	e.ArrEnd()
	e.FieldStart("chrBankBG")
	e.ArrStart()
	for _, v := range m.chrBankBG {
		e.Int(int(v))
	}
	e.ArrEnd()
	e.FieldStart("chrBankSpr")
	e.ArrStart()
	for _, v := range m.chrBankSpr {
		e.Int(int(v))
	}
	e.ArrEnd()
	e.FieldStart("spriteSize8x16")
	e.Bool(m.spriteSize8x16)
	e.FieldStart("exramMode")
	e.Int(int(m.exramMode))
	e.FieldStart("exram")
	e.Base64(m.exram[:])
	e.FieldStart("fillTile")
	e.Int(int(m.fillTile))
	e.FieldStart("fillAttr")
	e.Int(int(m.fillAttr))
	e.FieldStart("irqScanline")
	e.Int(int(m.irqScanline))
	e.FieldStart("irqEnabled")
	e.Bool(m.irqEnabled)
	e.FieldStart("irqPending")
	e.Bool(m.irqPending)
	e.FieldStart("multiplicand")
	e.Int(int(m.multiplicand))
	e.FieldStart("multiplier")
	e.Int(int(m.multiplier))
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *mmc5) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.base.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "prgMode":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgMode = uint8(v)
		case "chrMode":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrMode = uint8(v)
		case "prgRAMProtect1":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgRAMProtect1 = uint8(v)
		case "prgRAMProtect2":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgRAMProtect2 = uint8(v)
		case "prgBank":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int()
				if err != nil {
					return err
				}
				if i < len(m.prgBank) {
					m.prgBank[i] = uint8(v)
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "prgIsRAM":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Bool()
				if err != nil {
					return err
				}
				if i < len(m.prgIsRAM) {
					m.prgIsRAM[i] = v
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "chrBankBG":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int()
				if err != nil {
					return err
				}
				if i < len(m.chrBankBG) {
					m.chrBankBG[i] = uint16(v)
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "chrBankSpr":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Int()
				if err != nil {
					return err
				}
				if i < len(m.chrBankSpr) {
					m.chrBankSpr[i] = uint16(v)
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "spriteSize8x16":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			m.spriteSize8x16 = v
		case "exramMode":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.exramMode = uint8(v)
		case "exram":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(m.exram) {
				copy(m.exram[:], v)
			}
		case "fillTile":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.fillTile = uint8(v)
		case "fillAttr":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.fillAttr = uint8(v)
		case "irqScanline":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.irqScanline = uint8(v)
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
		case "multiplicand":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.multiplicand = uint8(v)
		case "multiplier":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.multiplier = uint8(v)
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}
