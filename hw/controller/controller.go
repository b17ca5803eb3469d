// Package controller implements the standard NES controller's serial shift
// register and the zapper light gun, both addressed through $4016/$4017
// (spec §4.6 "Controllers and zapper").
package controller

import "nescore/internal/log"

// Button identifies one button of a standard controller.
type Button uint8

const (
	A Button = iota
	B
	Select
	Start
	Up
	Down
	Left
	Right

	buttonCount
)

func (b Button) String() string {
	names := [buttonCount]string{"A", "B", "Select", "Start", "Up", "Down", "Left", "Right"}
	if int(b) >= len(names) {
		return "?"
	}
	return names[b]
}

// Pad is a standard controller's serial shift register. Writes to $4016 with
// bit 0 set latch the live button state; while strobed, every read returns
// bit 0 of the A button. Once unstrobed, reads shift the latched byte out
// one bit at a time, advancing only after the owning instruction completes
// and only if this pad was actually read during it (spec §4.6).
type Pad struct {
	buttons   uint8 // live pressed-button bitmask, bit i = Button(i)
	shift     uint8 // latched shift register
	strobe    bool
	readCount uint8 // bits shifted out since the last strobe, saturates at 8
	readFlag  bool  // read during the current instruction; advance at housekeeping
}

// BeginInstruction is a hook for the per-instruction housekeeping pass
// (spec §4.2); the shift register only needs end-of-instruction advancement,
// so there is nothing to do here, but the CPU calls it unconditionally
// alongside EndInstruction to keep both ends of the housekeeping symmetric.
func (p *Pad) BeginInstruction() {}

func (p *Pad) SetButton(b Button, down bool) {
	if down {
		p.buttons |= 1 << uint(b)
	} else {
		p.buttons &^= 1 << uint(b)
	}
	log.ModInput.DebugZ("input state update").Stringer("button", b).Bool("down", down).End()
}

// Strobe implements a write to $4016. Bit 0 controls the strobe latch; while
// held high the shift register continuously reloads from the live button
// state and reads always return button A.
func (p *Pad) Strobe(val uint8) {
	strobe := val&0x01 != 0
	if strobe {
		p.shift = p.buttons
		p.readCount = 0
	}
	p.strobe = strobe
}

// Read returns the next serial bit, approximating open bus on bits 5-6 as
// the constant pattern 0x40 (documented deviation, spec §9).
func (p *Pad) Read() uint8 {
	p.readFlag = true
	if p.strobe {
		return (p.buttons & 0x01) | 0x40
	}
	var bit uint8 = 1
	if p.readCount < 8 {
		bit = p.shift & 0x01
	}
	return bit | 0x40
}

// EndInstruction implements the post-instruction housekeeping of spec §4.2:
// advance the shift register of any pad that was read during the
// instruction just completed, then clear the read flags.
func (p *Pad) EndInstruction() {
	if p.readFlag && !p.strobe {
		p.shift >>= 1
		p.shift |= 0x80
		if p.readCount < 8 {
			p.readCount++
		}
	}
	p.readFlag = false
}

// Zapper models the NES light gun, read through $4017 bit 3.
type Zapper struct {
	X, Y    int
	Trigger bool
}

func (z *Zapper) Move(x, y int) { z.X, z.Y = x, y }
func (z *Zapper) FireDown()     { z.Trigger = true }
func (z *Zapper) FireUp()       { z.Trigger = false }

// sensorWindow is the pixel radius around the reported cursor position
// within which a bright pixel counts as "light detected".
const sensorWindow = 4
const brightnessThreshold = 0x20 // brightness values (mean of R, G, B from ppu.BrightnessPlane) at/above this count as light

// Read reports bit 3 clear when light is detected at the zapper's last
// reported position, comparing against the beam position (beamX, beamY)
// the caller has already caught the PPU up to, and the frame buffer's
// recently emitted pixel there.
func (z *Zapper) Read(beamX, beamY int, frame []uint8, pitch int) uint8 {
	val := uint8(0x08)
	if z.detect(beamX, beamY, frame, pitch) {
		val = 0
	}
	if !z.Trigger {
		val |= 0x10
	}
	return val | 0x40
}

func (z *Zapper) detect(beamX, beamY int, frame []uint8, pitch int) bool {
	if frame == nil {
		return false
	}
	for dy := -sensorWindow; dy <= sensorWindow; dy++ {
		y := z.Y + dy
		if y < 0 || y >= beamY+1 {
			continue
		}
		for dx := -sensorWindow; dx <= sensorWindow; dx++ {
			x := z.X + dx
			if x < 0 || x >= pitch {
				continue
			}
			idx := y*pitch + x
			if idx < 0 || idx >= len(frame) {
				continue
			}
			if frame[idx] >= brightnessThreshold {
				return true
			}
		}
	}
	return false
}
