package mapper

import (
	"nescore/ines"

	"github.com/go-faster/jx"
)

// base holds the bank-routing state shared by every variant: four 8 KiB
// program slots over CPU $8000-$FFFF and eight 1 KiB character slots over
// PPU $0000-$1FFF, each expressed as a byte offset into the owning memory
// (spec §3 "Mapper state"). Concrete mappers embed base and call its
// set* helpers from their register-write handlers; newBase is grounded on a
// conventional mapper base implementation, generalized into one consistent
// helper API that every variant file uses.
type base struct {
	name string
	rom  *ines.Rom

	prg    []byte // PRG ROM, always present
	chr    []byte // CHR ROM; nil when the cartridge uses CHR RAM
	chrRAM []byte // CHR RAM backing store, used when chr == nil
	prgRAM []byte

	prgSlot [4]int // byte offset into prg for each 8KiB CPU slot ($8000,$A000,$C000,$E000)
	chrSlot [8]int // byte offset into chr/chrRAM for each 1KiB PPU slot

	mirroring ines.NTMirroring
}

func newBase(name string, rom *ines.Rom) base {
	b := base{name: name, rom: rom, prg: rom.PRGROM, mirroring: rom.Mirroring()}
	if rom.HasCHRRAM() {
		b.chrRAM = make([]byte, rom.CHRRAMSize())
	} else {
		b.chr = rom.CHRROM
	}
	if rom.PRGRAMSize() > 0 {
		b.prgRAM = make([]byte, rom.PRGRAMSize())
	}
	return b
}

func (b *base) Name() string                 { return b.name }
func (b *base) Mirroring() ines.NTMirroring   { return b.mirroring }
func (b *base) SetMirroring(m ines.NTMirroring) { b.mirroring = m }

func (b *base) prgBankCount(bankSize int) int {
	if bankSize == 0 {
		return 0
	}
	return len(b.prg) / bankSize
}

func (b *base) chrBankCount(bankSize int) int {
	data := b.chrData()
	if bankSize == 0 || len(data) == 0 {
		return 0
	}
	return len(data) / bankSize
}

func (b *base) chrData() []byte {
	if b.chrRAM != nil {
		return b.chrRAM
	}
	return b.chr
}

// setPRGBank32KB maps the entire $8000-$FFFF window to one 32 KiB bank.
func (b *base) setPRGBank32KB(bank int) {
	n := clampBank(bank, b.prgBankCount(0x8000))
	base := n * 0x8000
	for i := 0; i < 4; i++ {
		b.prgSlot[i] = base + i*0x2000
	}
}

// setPRGBank16KB maps logical half (0 = $8000-$BFFF, 1 = $C000-$FFFF) to a
// 16 KiB bank. bank == -1 means "last bank".
func (b *base) setPRGBank16KB(half int, bank int) {
	count := b.prgBankCount(0x4000)
	if bank < 0 {
		bank = count + bank
	}
	n := clampBank(bank, count)
	base := n * 0x4000
	b.prgSlot[half*2] = base
	b.prgSlot[half*2+1] = base + 0x2000
}

// setPRGBank8KB maps one 8 KiB slot (0-3).
func (b *base) setPRGBank8KB(slot int, bank int) {
	count := b.prgBankCount(0x2000)
	if bank < 0 {
		bank = count + bank
	}
	b.prgSlot[slot] = clampBank(bank, count) * 0x2000
}

// setCHRBank8KB maps the entire $0000-$1FFF window to one 8 KiB bank.
func (b *base) setCHRBank8KB(bank int) {
	n := clampBank(bank, b.chrBankCount(0x2000))
	base := n * 0x2000
	for i := 0; i < 8; i++ {
		b.chrSlot[i] = base + i*0x400
	}
}

// setCHRBank4KB maps logical half (0 = $0000-$0FFF, 1 = $1000-$1FFF).
func (b *base) setCHRBank4KB(half int, bank int) {
	n := clampBank(bank, b.chrBankCount(0x1000))
	base := n * 0x1000
	for i := 0; i < 4; i++ {
		b.chrSlot[half*4+i] = base + i*0x400
	}
}

// setCHRBank2KB maps one of four 2 KiB slot-pairs (0-3).
func (b *base) setCHRBank2KB(pair int, bank int) {
	n := clampBank(bank, b.chrBankCount(0x800))
	base := n * 0x800
	b.chrSlot[pair*2] = base
	b.chrSlot[pair*2+1] = base + 0x400
}

// setCHRBank1KB maps one 1 KiB slot (0-7) directly.
func (b *base) setCHRBank1KB(slot int, bank int) {
	b.chrSlot[slot] = clampBank(bank, b.chrBankCount(0x400)) * 0x400
}

func (b *base) readPRG(addr uint16) (uint8, bool) {
	if addr < 0x8000 {
		if b.prgRAM != nil && addr >= 0x6000 {
			return b.prgRAM[(addr-0x6000)%uint16(len(b.prgRAM))], true
		}
		return 0, false
	}
	slot := (addr - 0x8000) / 0x2000
	off := (addr - 0x8000) % 0x2000
	idx := b.prgSlot[slot] + int(off)
	if idx < 0 || idx >= len(b.prg) {
		return 0, false
	}
	return b.prg[idx], true
}

func (b *base) writePRGRAM(addr uint16, val uint8) bool {
	if b.prgRAM != nil && addr >= 0x6000 && addr < 0x8000 {
		b.prgRAM[(addr-0x6000)%uint16(len(b.prgRAM))] = val
		return true
	}
	return false
}

func (b *base) readCHR(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	data := b.chrData()
	if len(data) == 0 {
		return 0, false
	}
	slot := addr / 0x400
	off := addr % 0x400
	idx := b.chrSlot[slot] + int(off)
	if idx < 0 || idx >= len(data) {
		return 0, false
	}
	return data[idx], true
}

func (b *base) writeCHR(addr uint16, val uint8) bool {
	if b.chrRAM == nil || addr >= 0x2000 {
		return false
	}
	slot := addr / 0x400
	off := addr % 0x400
	idx := b.chrSlot[slot] + int(off)
	if idx < 0 || idx >= len(b.chrRAM) {
		return false
	}
	b.chrRAM[idx] = val
	return true
}

// identityCHRSlots sets up a straight 1:1 mapping, used by mappers that
// never bank CHR (NROM with 8KB CHR, e.g.).
func (b *base) identityCHRSlots() {
	for i := 0; i < 8; i++ {
		b.chrSlot[i] = i * 0x400
	}
}

func boolToU8(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// serializeFields writes base's bank-routing state and any writable RAM
// into an already-opened jx object, so variants with extra state can embed
// it alongside their own fields (spec §4.5 "serialize; deserialize"). ROM
// bytes (prg/chr) are never written, since a save state is only ever
// reloaded against the same cartridge image.
func (b *base) serializeFields(e *jx.Encoder) {
	e.FieldStart("mirroring")
	e.Int(int(b.mirroring))
	e.FieldStart("prgSlot")
	e.ArrStart()
	for _, s := range b.prgSlot {
		e.Int(s)
	}
	e.ArrEnd()
	e.FieldStart("chrSlot")
	e.ArrStart()
	for _, s := range b.chrSlot {
		e.Int(s)
	}
	e.ArrEnd()
	if b.prgRAM != nil {
		e.FieldStart("prgRAM")
		e.Base64(b.prgRAM)
	}
	if b.chrRAM != nil {
		e.FieldStart("chrRAM")
		e.Base64(b.chrRAM)
	}
}

// deserializeField restores one field written by serializeFields; it
// reports whether key belonged to base at all, so a variant's own Obj
// callback knows whether to fall through to its own switch.
func (b *base) deserializeField(d *jx.Decoder, key string) (bool, error) {
	switch key {
	case "mirroring":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		b.mirroring = ines.NTMirroring(v)
	case "prgSlot":
		i := 0
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int()
			if err != nil {
				return err
			}
			if i < len(b.prgSlot) {
				b.prgSlot[i] = v
			}
			i++
			return nil
		})
		if err != nil {
			return true, err
		}
	case "chrSlot":
		i := 0
		err := d.Arr(func(d *jx.Decoder) error {
			v, err := d.Int()
			if err != nil {
				return err
			}
			if i < len(b.chrSlot) {
				b.chrSlot[i] = v
			}
			i++
			return nil
		})
		if err != nil {
			return true, err
		}
	case "prgRAM":
		v, err := d.Base64()
		if err != nil {
			return true, err
		}
		if len(v) == len(b.prgRAM) {
			copy(b.prgRAM, v)
		}
	case "chrRAM":
		v, err := d.Base64()
		if err != nil {
			return true, err
		}
		if len(v) == len(b.chrRAM) {
			copy(b.chrRAM, v)
		}
	default:
		return false, nil
	}
	return true, nil
}

// Serialize and Deserialize give every variant with no state beyond base
// (nrom, cnrom, uxrom, axrom, gxrom, bnrom, colorDreams, nina0306) the
// Mapper interface's save-state methods for free, via embedding.
func (b *base) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	b.serializeFields(e)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (b *base) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		_, err := b.deserializeField(d, key)
		return err
	})
}
