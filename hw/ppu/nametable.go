package ppu

import (
	"nescore/hw/mapper"
	"nescore/ines"
)

// mirroring asks the mapper for its current nametable mode; most mappers
// own mirroring and may change it at runtime (AxROM, MMC1) (spec §4.5
// "most mappers are the single owner of the current nametable mode").
func (p *PPU) mirroring() ines.NTMirroring {
	if p.Mapper != nil {
		return p.Mapper.Mirroring()
	}
	return ines.HorzMirroring
}

// nametableIndex resolves a $2000-$2FFF (or mirrored $3000-$3EFF) address
// into an offset into the 2 KiB physical nametable RAM, folding the four
// logical 1 KiB tables down to the two physical ones per the mirroring
// mode (spec §4.3 "Nametable mirroring modes").
func (p *PPU) nametableIndex(addr uint16) int {
	addr &= 0x0FFF
	table := int(addr / 0x400)
	offset := int(addr % 0x400)

	var physical int
	switch p.mirroring() {
	case ines.VertMirroring:
		physical = table % 2
	case ines.OnlyAScreen:
		physical = 0
	case ines.OnlyBScreen:
		physical = 1
	case ines.FourScreen:
		// No mirroring: a true four-screen cartridge supplies the extra
		// 2 KiB itself via the nametable-override capability. Without
		// one, approximate with the horizontal fold below.
		physical = table / 2
	default: // HorzMirroring
		physical = table / 2
	}
	return physical*0x400 + offset
}

// ntContextFor reports whether addr (a PPU-internal nametable fetch, never
// a CPU-side access) is a tile or an attribute byte, by its offset within
// the 1 KiB logical table.
func ntContextFor(addr uint16) mapper.NTContext {
	if addr&0x3FF >= 0x3C0 {
		return mapper.NTAttribute
	}
	return mapper.NTTile
}

func (p *PPU) readVRAMInternal(addr uint16, ctx mapper.NTContext) uint8 {
	if ov, ok := p.nametableOverrider(); ok {
		if val, handled := ov.ReadNametable(addr, ctx); handled {
			return val
		}
	}
	if addr < 0x2000 {
		if p.Mapper != nil {
			if val, ok := p.Mapper.PPURead(addr, fetchContextFor(ctx)); ok {
				return val
			}
		}
		return 0
	}
	return p.nametables[p.nametableIndex(addr)]
}

func (p *PPU) writeVRAMInternal(addr uint16, val uint8) {
	if ov, ok := p.nametableOverrider(); ok {
		if ov.WriteNametable(addr, val) {
			return
		}
	}
	if addr < 0x2000 {
		if p.Mapper != nil {
			p.Mapper.PPUWrite(addr, val)
		}
		return
	}
	p.nametables[p.nametableIndex(addr)] = val
}

func (p *PPU) nametableOverrider() (mapper.NametableOverrider, bool) {
	if p.Mapper == nil {
		return nil, false
	}
	caps := p.Mapper.Capabilities()
	if !caps.HasNametableOverride {
		return nil, false
	}
	ov, ok := p.Mapper.(mapper.NametableOverrider)
	return ov, ok
}

// fetchContextFor is only reachable for a pattern-space address (<$2000),
// which never carries an NTContext of its own; background vs. sprite is
// tracked by the caller instead, so this always reports background — CPU
// register-window reads of $0000-$1FFF never occur on real hardware.
func fetchContextFor(mapper.NTContext) mapper.FetchContext { return mapper.FetchBackground }
