package ppu

import "nescore/hw/mapper"

// renderScanline drives one dot of a visible scanline (0-239), spec §4.3
// "Rendering pipeline".
func (p *PPU) renderScanline() {
	if p.dot == 0 {
		return
	}

	if p.dot <= 256 {
		p.emitPixel()
	}

	switch {
	case p.dot >= 1 && p.dot <= 256:
		p.backgroundFetchCycle()
		if p.dot == 256 {
			p.incrementY()
		}
	case p.dot == 257:
		p.copyHorizontalBits()
		p.evaluateSprites()
		p.fetchAllSpritePatterns()
	case p.dot >= 321 && p.dot <= 336:
		p.backgroundFetchCycle()
	case p.dot == 337 || p.dot == 339:
		p.dummyNametableFetch()
	}

	if p.dot == 4 {
		if es, ok := p.Mapper.(mapper.EndScanliner); ok {
			es.OnEndScanline(p.scanline)
		}
	}
}

// preRenderScanline drives scanline 261, the pre-render line.
func (p *PPU) preRenderScanline() {
	if p.dot == 1 {
		p.status &^= statusOverflow | statusSprite0
		p.clearWarmUp()
	}

	if p.dot == 0 {
		return
	}

	if p.dot <= 256 {
		p.backgroundFetchCycle()
		if p.dot == 256 {
			p.incrementY()
		}
	} else if p.dot == 257 {
		p.copyHorizontalBits()
	} else if p.dot >= 280 && p.dot <= 304 {
		if p.renderingEnabled() {
			p.copyVerticalBits()
		}
	} else if p.dot >= 321 && p.dot <= 336 {
		p.backgroundFetchCycle()
	} else if p.dot == 337 || p.dot == 339 {
		p.dummyNametableFetch()
	}
}

// backgroundFetchCycle performs the documented every-8-dots NT/AT/pattern
// fetch sequence and the dot-256 coarse-X/shift-register bookkeeping (spec
// §4.3 "Dots 1-256 and 321-336").
func (p *PPU) backgroundFetchCycle() {
	if !p.renderingEnabled() {
		return
	}
	switch p.dot % 8 {
	case 1:
		p.loadShiftRegisters()
		p.fetchNametableByte()
	case 3:
		p.fetchAttributeByte()
	case 5:
		p.fetchPatternLowByte()
	case 7:
		p.fetchPatternHighByte()
	case 0:
		p.incrementCoarseX()
	}
}

func (p *PPU) fetchNametableByte() {
	addr := 0x2000 | (p.v & 0x0FFF)
	p.ntByte = p.readVRAMInternal(addr, mapper.NTTile)
}

func (p *PPU) fetchAttributeByte() {
	addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	raw := p.readVRAMInternal(addr, mapper.NTAttribute)

	coarseX := int(p.v & 0x1F)
	coarseY := int((p.v >> 5) & 0x1F)

	if attr, ok := p.Mapper.(mapper.PerTileAttributer); ok && p.Mapper.Capabilities().HasPerTileAttributes {
		p.atByte = attr.ExtendedAttribute(coarseX, coarseY) & 0x03
		return
	}

	shift := uint((coarseY&2)<<1 | (coarseX & 2))
	p.atByte = (raw >> shift) & 0x03
}

func (p *PPU) fetchPatternLowByte() {
	base := uint16(0)
	if p.ctrl&ctrlBGTable != 0 {
		base = 0x1000
	}
	fineY := (p.v >> 12) & 0x07
	addr := base | uint16(p.ntByte)<<4 | fineY
	p.bgLoByte = p.readPattern(addr, mapper.FetchBackground)
}

func (p *PPU) fetchPatternHighByte() {
	base := uint16(0)
	if p.ctrl&ctrlBGTable != 0 {
		base = 0x1000
	}
	fineY := (p.v >> 12) & 0x07
	addr := base | uint16(p.ntByte)<<4 | fineY | 8
	p.bgHiByte = p.readPattern(addr, mapper.FetchBackground)
}

func (p *PPU) dummyNametableFetch() {
	addr := 0x2000 | (p.v & 0x0FFF)
	_ = p.readVRAMInternal(addr, mapper.NTTile)
}

// loadShiftRegisters loads the tile fetched by the previous 8 dots into the
// low byte of each shift register, keeping the current high byte (spec
// §4.3 "load the 16-bit shift registers").
func (p *PPU) loadShiftRegisters() {
	p.bgShiftLo = (p.bgShiftLo & 0xFF00) | uint16(p.bgLoByte)
	p.bgShiftHi = (p.bgShiftHi & 0xFF00) | uint16(p.bgHiByte)

	var atLo, atHi uint8
	if p.atByte&0x01 != 0 {
		atLo = 0xFF
	}
	if p.atByte&0x02 != 0 {
		atHi = 0xFF
	}
	p.atShiftLo = (p.atShiftLo & 0xFF00) | uint16(atLo)
	p.atShiftHi = (p.atShiftHi & 0xFF00) | uint16(atHi)
}

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyHorizontalBits() {
	if !p.renderingEnabled() {
		return
	}
	p.v = (p.v &^ 0x041F) | (p.t & 0x041F)
}

func (p *PPU) copyVerticalBits() {
	p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0)
}

// emitPixel composes and writes one framebuffer pixel for the current dot
// on a visible scanline (spec §4.3 "Pixel composition").
func (p *PPU) emitPixel() {
	x := p.dot - 1
	bgColor, bgPalette, bgOpaque := p.backgroundPixel(x)
	sprColor, sprPalette, sprBehind, sprOpaque, isSprite0 := p.spritePixel(x)

	var colorIdx uint8
	switch {
	case !bgOpaque && !sprOpaque:
		colorIdx = 0
	case !bgOpaque && sprOpaque:
		colorIdx = 0x10 + sprPalette<<2 + sprColor
	case bgOpaque && !sprOpaque:
		colorIdx = bgPalette<<2 + bgColor
	case sprBehind:
		colorIdx = bgPalette<<2 + bgColor
	default:
		colorIdx = 0x10 + sprPalette<<2 + sprColor
	}

	if bgOpaque && sprOpaque && isSprite0 && x < 255 &&
		!(x < 8 && (p.mask&maskLeftBG == 0 || p.mask&maskLeftSprites == 0)) {
		p.status |= statusSprite0
	}

	val := p.readPalette(0x3F00 + uint16(colorIdx))
	if p.mask&maskGrayscale != 0 {
		val &= 0x30
	}
	p.FrameBuffer[p.scanline*256+x] = nesPalette[val&0x3F]

	if p.renderingEnabled() {
		p.shiftBackgroundRegisters()
	}
}

func (p *PPU) backgroundPixel(x int) (color, palette uint8, opaque bool) {
	shift := uint(15 - p.x)
	lo := uint8((p.bgShiftLo >> shift) & 1)
	hi := uint8((p.bgShiftHi >> shift) & 1)
	color = hi<<1 | lo
	aLo := uint8((p.atShiftLo >> shift) & 1)
	aHi := uint8((p.atShiftHi >> shift) & 1)
	palette = aHi<<1 | aLo

	if p.mask&maskShowBG == 0 {
		return color, palette, false
	}
	if x < 8 && p.mask&maskLeftBG == 0 {
		return color, palette, false
	}
	return color, palette, color != 0
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.atShiftLo <<= 1
	p.atShiftHi <<= 1
}
