package ppu

import (
	"nescore/hw/mapper"
	"nescore/internal/log"
)

// ReadRegister implements the CPU-visible $2000-$2007 window (mirrored
// every 8 bytes by the caller). peek suppresses every side effect; the
// CPU bus, its only caller, always passes false.
func (p *PPU) ReadRegister(reg uint16, peek bool) uint8 {
	switch reg & 7 {
	case 2:
		return p.readStatus(peek)
	case 4:
		val := p.oam[p.oamAddr]
		if !peek {
			p.ioLatch = val
		}
		return val
	case 7:
		return p.readData(peek)
	default:
		// CTRL, MASK, OAMADDR, SCROLL, ADDR are write-only; reads return
		// the I/O bus latch (spec §4.3 "Write-only reads").
		return p.ioLatch
	}
}

func (p *PPU) readStatus(peek bool) uint8 {
	val := p.ioLatch & 0x1F
	val |= p.status & (statusOverflow | statusSprite0)
	if p.nmiOccurred {
		val |= statusVBlank
	}
	if peek {
		return val
	}

	suppressThisDot := p.scanline == 241 && p.dot == 1
	p.nmiOccurred = false
	p.w = false
	p.updateNMIOutput()
	if suppressThisDot {
		p.suppressNMIFrame = true
	}
	p.ioLatch = val
	return val
}

func (p *PPU) readData(peek bool) uint8 {
	addr := p.v & 0x3FFF
	var val uint8
	if addr >= 0x3F00 {
		val = p.readPalette(addr)
		if !peek {
			p.readBuffer = p.readVRAMInternal(addr&0x2FFF, mapper.NTCPU)
		}
	} else {
		val = p.readBuffer
		if !peek {
			p.readBuffer = p.readVRAMInternal(addr, mapper.NTCPU)
		}
	}
	if !peek {
		p.ioLatch = val
		p.incrementV()
	}
	return val
}

// WriteRegister implements the CPU-visible $2000-$2007 window.
func (p *PPU) WriteRegister(reg uint16, val uint8) {
	p.ioLatch = val
	switch reg & 7 {
	case 0:
		p.writeCtrl(val)
	case 1:
		if !p.warmingUp {
			p.mask = val
		}
	case 3:
		p.oamAddr = val
	case 4:
		p.oam[p.oamAddr] = val
		p.oamAddr++
	case 5:
		p.writeScroll(val)
	case 6:
		p.writeAddr(val)
	case 7:
		p.writeData(val)
	}
}

func (p *PPU) writeCtrl(val uint8) {
	if p.warmingUp {
		return
	}
	p.ctrl = val
	p.t = (p.t &^ (0b11 << 10)) | (uint16(val&ctrlNametable) << 10)
	p.updateNMIOutput()
}

func (p *PPU) writeScroll(val uint8) {
	if p.warmingUp {
		return
	}
	if !p.w {
		p.x = val & 0b111
		p.t = (p.t &^ 0x1F) | uint16(val>>3)
	} else {
		p.t = (p.t &^ 0x73E0) | (uint16(val&0b111) << 12) | (uint16(val&0b1111_1000) << 2)
	}
	p.w = !p.w
}

func (p *PPU) writeAddr(val uint8) {
	if p.warmingUp {
		return
	}
	if !p.w {
		p.t = (p.t &^ 0x7F00) | (uint16(val&0x3F) << 8)
	} else {
		p.t = (p.t &^ 0x00FF) | uint16(val)
		p.v = p.t
	}
	p.w = !p.w
}

func (p *PPU) writeData(val uint8) {
	addr := p.v & 0x3FFF
	if addr >= 0x3F00 {
		p.writePalette(addr, val)
	} else {
		p.writeVRAMInternal(addr, val)
	}
	p.incrementV()
}

func (p *PPU) incrementV() {
	if p.ctrl&ctrlVRAMIncr != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// clearWarmUp lifts the post-power write-ignore latch at dot 1 of the
// pre-render line of the first frame (spec §4.3 "Warm-up").
func (p *PPU) clearWarmUp() {
	if p.warmingUp {
		log.ModPPU.DebugZ("warm-up period elapsed").End()
	}
	p.warmingUp = false
}
