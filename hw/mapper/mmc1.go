package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// mmc1 implements mapper 1: a 5-bit serial shift register loaded across
// five consecutive writes to any address in $8000-$FFFF selects one of
// four internal registers (CTRL/CHR0/CHR1/PRG), per spec §4.5 "Serial
// register, four 5-bit internal registers (1)". Grounded on
// a conventional MMC1 implementation shift-register and register-decode
// shape; the "ignore the second write of the same instruction" rule is
// re-expressed with an explicit same-instruction flag the CPU toggles
// (spec scenario 4) instead of a CPU-cycle-delta heuristic,
// since cycle deltas can't distinguish same-instruction RMW writes from a
// a genuinely fast back-to-back write on every addressing mode.
type mmc1 struct {
	base

	shift   uint8
	count   uint8
	wroteThisInstr bool

	ctrl     uint8
	chrmode  uint8 // 0 = 8KB, 1 = dual 4KB
	prgmode  uint8 // 0,1 = 32KB; 2 = fix first; 3 = fix last
	chrbank0 uint8
	chrbank1 uint8
	prgbank  uint8

	prgBankSelectBit uint8 // bit 4 of CHR0, selects 256KiB PRG block on >=512KiB carts
	large            bool
}

func newMMC1(rom *ines.Rom) *mmc1 {
	m := &mmc1{base: newBase("MMC1", rom), large: len(rom.PRGROM) >= 512*1024}
	m.writeCTRL(0x0C)
	m.remap()
	return m
}

// BeginInstruction must be called by the CPU before dispatching the first
// write of a new instruction, clearing the same-instruction guard.
func (m *mmc1) BeginInstruction() { m.wroteThisInstr = false }

func (m *mmc1) CPURead(addr uint16) (uint8, bool) { return m.readPRG(addr) }

func (m *mmc1) CPUWrite(addr uint16, val uint8) {
	if m.writePRGRAM(addr, val) {
		return
	}
	if addr < 0x8000 {
		return
	}
	if m.wroteThisInstr {
		// Second write within the same read-modify-write instruction is
		// ignored outright (spec scenario 4).
		return
	}
	m.wroteThisInstr = true

	if val&0x80 != 0 {
		m.shift = 0
		m.count = 0
		m.prgmode = 0b11
		m.remap()
		return
	}

	m.shift = (m.shift >> 1) | ((val & 1) << 4)
	m.count++
	if m.count == 5 {
		m.writeReg(addr, m.shift)
		m.shift = 0
		m.count = 0
		m.remap()
	}
}

func (m *mmc1) writeReg(addr uint16, val uint8) {
	switch (addr >> 13) & 0x3 {
	case 0:
		m.writeCTRL(val)
	case 1:
		m.chrbank0 = val & 0x1F
	case 2:
		m.chrbank1 = val & 0x1F
	case 3:
		m.prgbank = val & 0x0F
	}
}

func (m *mmc1) writeCTRL(val uint8) {
	m.ctrl = val
	m.chrmode = (val >> 4) & 1
	m.prgmode = (val >> 2) & 3
	switch val & 3 {
	case 0:
		m.SetMirroring(ines.OnlyAScreen)
	case 1:
		m.SetMirroring(ines.OnlyBScreen)
	case 2:
		m.SetMirroring(ines.VertMirroring)
	case 3:
		m.SetMirroring(ines.HorzMirroring)
	}
}

func (m *mmc1) remap() {
	prgBlock := 0
	if m.large {
		// Bit 4 of whichever CHR register is live selects the 256KiB PRG
		// block (spec §4.5 "On >=512KiB program, character register bit 4
		// selects a 256KiB program block").
		if m.chrmode == 0 {
			prgBlock = int(m.chrbank0>>4) & 1
		} else {
			prgBlock = int(m.chrbank1>>4) & 1
		}
	}
	blockBanks16K := prgBlock * 16 // 256KiB = sixteen 16KiB banks

	switch m.prgmode {
	case 0, 1:
		m.setPRGBank32KB(blockBanks16K/2 + int(m.prgbank&0xFE)/2)
	case 2:
		m.setPRGBank16KB(0, blockBanks16K)
		m.setPRGBank16KB(1, blockBanks16K+int(m.prgbank))
	case 3:
		m.setPRGBank16KB(0, blockBanks16K+int(m.prgbank))
		m.setPRGBank16KB(1, blockBanks16K+15)
	}

	switch m.chrmode {
	case 0:
		m.setCHRBank8KB(int(m.chrbank0 >> 1))
	case 1:
		m.setCHRBank4KB(0, int(m.chrbank0))
		m.setCHRBank4KB(1, int(m.chrbank1))
	}
}

func (m *mmc1) PPURead(addr uint16, _ FetchContext) (uint8, bool) { return m.readCHR(addr) }
func (m *mmc1) PPUWrite(addr uint16, val uint8) bool              { return m.writeCHR(addr, val) }
func (m *mmc1) Reset()                                            {}
func (m *mmc1) Capabilities() Capabilities                        { return Capabilities{} }

func (m *mmc1) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	m.base.serializeFields(e)
	e.FieldStart("shift")
	e.Int(int(m.shift))
	e.FieldStart("count")
	e.Int(int(m.count))
	e.FieldStart("ctrl")
	e.Int(int(m.ctrl))
	e.FieldStart("chrbank0")
	e.Int(int(m.chrbank0))
	e.FieldStart("chrbank1")
	e.Int(int(m.chrbank1))
	e.FieldStart("prgbank")
	e.Int(int(m.prgbank))
	e.ObjEnd()
	return e.Bytes(), nil
}

func (m *mmc1) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := m.base.deserializeField(d, key); ok {
			return err
		}
		switch key {
		case "shift":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.shift = uint8(v)
		case "count":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.count = uint8(v)
		case "ctrl":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.writeCTRL(uint8(v))
		case "chrbank0":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrbank0 = uint8(v)
		case "chrbank1":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.chrbank1 = uint8(v)
		case "prgbank":
			v, err := d.Int()
			if err != nil {
				return err
			}
			m.prgbank = uint8(v)
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
