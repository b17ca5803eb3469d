package ppu

import "nescore/hw/mapper"

// a12FilterDots is the minimum number of PPU dots that must elapse with
// A12 low before a rising edge is recognized, reproducing MMC3's
// real-hardware debounce (spec §4.3 "A12 edge detection").
const a12FilterDots = 12

// readPattern fetches one pattern-table byte, always through the mapper's
// ppuRead hook, and reports the fetch address to A12 edge detection and to
// any mapper that implements mapper.A12Watcher.
func (p *PPU) readPattern(addr uint16, ctx mapper.FetchContext) uint8 {
	p.notifyA12(addr)
	if p.Mapper == nil {
		return 0
	}
	val, _ := p.Mapper.PPURead(addr, ctx)
	return val
}

func (p *PPU) notifyA12(addr uint16) {
	bit := addr&0x1000 != 0
	if bit && !p.prevA12 {
		if p.totalDots-p.a12LastHighAt > a12FilterDots {
			if p.Mapper != nil && p.Mapper.Capabilities().HasScanlineIRQ {
				if irq, ok := p.Mapper.(mapper.ScanlineIRQer); ok {
					irq.ClockScanline()
				}
			}
		}
	}
	if bit {
		p.a12LastHighAt = p.totalDots
	}
	p.prevA12 = bit

	if watcher, ok := p.Mapper.(mapper.A12Watcher); ok {
		watcher.WatchA12(addr)
	}
}
