package ppu

import "nescore/hw/mapper"

// evaluateSprites scans primary OAM for the sprites visible on scanline+1,
// run at dot 257 of the current scanline (spec §4.3 "Sprite evaluation").
// It reproduces the documented overflow bug: once eight sprites have been
// copied to secondary OAM, further range tests read a byte offset that
// increments independently of the sprite index, misaligning later reads.
func (p *PPU) evaluateSprites() {
	nextScanline := p.scanline + 1
	spriteHeight := 8
	if p.ctrl&ctrlSpriteSize != 0 {
		spriteHeight = 16
	}

	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	p.sprite0OnThisLine = false

	n, m, count := 0, 0, 0
	for iter := 0; n < 64 && iter < 280; iter++ {
		y := int(p.oam[n*4+m])
		inRange := nextScanline-y-1 >= 0 && nextScanline-y-1 < spriteHeight

		switch {
		case count < 8:
			if inRange {
				copy(p.secondaryOAM[count*4:count*4+4], p.oam[n*4:n*4+4])
				if n == 0 {
					p.sprite0OnThisLine = true
				}
				count++
			}
			n++
		case inRange:
			p.status |= statusOverflow
			m = (m + 1) % 4
		default:
			n++
			m = (m + 1) % 4
		}
	}
	p.secondaryOAMCount = count
}

// fetchAllSpritePatterns fetches the pattern bytes for every secondary-OAM
// slot, including the unused ones (which fetch tile $FF so A12 still
// toggles for the mapper's edge counter), batched at dot 257 rather than
// spread across dots 257-320 (spec requires the toggling, not the exact
// per-dot schedule).
func (p *PPU) fetchAllSpritePatterns() {
	spriteHeight := 8
	if p.ctrl&ctrlSpriteSize != 0 {
		spriteHeight = 16
	}
	nextScanline := p.scanline + 1

	for slot := 0; slot < 8; slot++ {
		var y, tile, attr, x uint8
		if slot < p.secondaryOAMCount {
			y = p.secondaryOAM[slot*4+0]
			tile = p.secondaryOAM[slot*4+1]
			attr = p.secondaryOAM[slot*4+2]
			x = p.secondaryOAM[slot*4+3]
		} else {
			tile = 0xFF
		}

		row := nextScanline - int(y) - 1
		if attr&0x80 != 0 {
			row = spriteHeight - 1 - row
		}

		var base, tileIndex uint16
		if spriteHeight == 16 {
			base = uint16(tile&0x01) * 0x1000
			tileIndex = uint16(tile &^ 0x01)
			if row >= 8 {
				tileIndex++
				row -= 8
			}
		} else {
			if p.ctrl&ctrlSpriteTable != 0 {
				base = 0x1000
			}
			tileIndex = uint16(tile)
		}

		addrLo := base | tileIndex<<4 | uint16(row&0x07)
		addrHi := addrLo | 8
		lo := p.readPattern(addrLo, mapper.FetchSprite)
		hi := p.readPattern(addrHi, mapper.FetchSprite)

		if attr&0x40 != 0 {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[slot] = lo
		p.spritePatternHi[slot] = hi
		p.spriteAttr[slot] = attr
		p.spriteX[slot] = x
		p.spriteIndexIsZero[slot] = slot == 0 && p.sprite0OnThisLine
	}
	p.spriteCount = p.secondaryOAMCount
}

// spritePixel finds the highest-priority (lowest slot index) opaque sprite
// pixel at screen column x.
func (p *PPU) spritePixel(x int) (color, palette uint8, behind, opaque, isZero bool) {
	if p.mask&maskShowSprites == 0 {
		return 0, 0, false, false, false
	}
	if x < 8 && p.mask&maskLeftSprites == 0 {
		return 0, 0, false, false, false
	}
	for slot := 0; slot < p.spriteCount; slot++ {
		sx := int(p.spriteX[slot])
		if x < sx || x >= sx+8 {
			continue
		}
		bit := uint(x - sx)
		lo := (p.spritePatternLo[slot] >> (7 - bit)) & 1
		hi := (p.spritePatternHi[slot] >> (7 - bit)) & 1
		c := hi<<1 | lo
		if c == 0 {
			continue
		}
		pal := p.spriteAttr[slot] & 0x03
		behind = p.spriteAttr[slot]&0x20 != 0
		isZero = p.spriteIndexIsZero[slot]
		return c, pal, behind, true, isZero
	}
	return 0, 0, false, false, false
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}
