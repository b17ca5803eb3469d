// Package ppu implements the dot-accurate picture processing unit (spec
// §4.3 "PPU"): the loopy v/t/x/w scroll registers, the background and
// sprite pipelines, VBlank/NMI timing, and the A12 rising-edge signal that
// drives mapper scanline interrupts. Grounded on a conventional PPU implementation for
// the register bit-constant naming and the doScanline dispatch shape; the
// pipeline body itself (dot-by-dot shift registers, sprite evaluation with
// the overflow bug, A12 edge filtering) is authored fresh since the
// reference Tick/doScanline/render bodies are empty stubs.
package ppu

import (
	"nescore/hw/mapper"

	"github.com/go-faster/jx"
)

const (
	NumScanlines = 262
	NumDots      = 341

	// ppuClockDivider: the PPU runs at 4x the cpu package's master-clock
	// granularity (3 PPU dots per CPU cycle, since cpu.go's cycleBegin/End
	// advance the shared master clock by 12 units per CPU cycle).
	ppuClockDivider = 4
)

// PPUCTRL bits ($2000).
const (
	ctrlNametable     = 0b11
	ctrlVRAMIncr      = 1 << 2
	ctrlSpriteTable   = 1 << 3
	ctrlBGTable       = 1 << 4
	ctrlSpriteSize    = 1 << 5
	ctrlMasterSlave   = 1 << 6
	ctrlNMIEnable     = 1 << 7
)

// PPUMASK bits ($2001).
const (
	maskGrayscale     = 1 << 0
	maskLeftBG        = 1 << 1
	maskLeftSprites   = 1 << 2
	maskShowBG        = 1 << 3
	maskShowSprites   = 1 << 4
	maskEmphasizeRed  = 1 << 5
	maskEmphasizeGrn  = 1 << 6
	maskEmphasizeBlue = 1 << 7
)

// PPUSTATUS bits ($2002).
const (
	statusOverflow = 1 << 5
	statusSprite0  = 1 << 6
	statusVBlank   = 1 << 7
)

// FetchContext and NTContext re-export the mapper package's context enums
// under the names the rest of this package uses at call sites.
type (
	FetchContext = mapper.FetchContext
	NTContext    = mapper.NTContext
)

// PPU is the NES picture processing unit.
type PPU struct {
	Mapper mapper.Mapper

	ctrl, mask uint8
	oamAddr    uint8

	status uint8 // only the overflow/sprite0 bits live here; vblank tracked via nmiOccurred

	oam          [256]byte
	secondaryOAM [32]byte

	nametables [0x800]byte
	palette    [32]byte

	v, t uint16
	x    uint8
	w    bool

	readBuffer uint8
	ioLatch    uint8

	scanline, dot int
	totalDots     int64
	oddFrame      bool
	frameComplete bool

	warmingUp bool

	nmiOccurred       bool
	nmiOutputPending  bool
	nmiLine           bool
	nmiDelay          int
	suppressNMIFrame  bool

	bgShiftLo, bgShiftHi uint16
	atShiftLo, atShiftHi uint16

	ntByte, atByte, bgLoByte, bgHiByte uint8

	spriteCount                      int
	spritePatternLo, spritePatternHi [8]uint8
	spriteAttr, spriteX              [8]uint8
	spriteIndexIsZero                [8]bool
	sprite0OnThisLine                bool
	secondaryOAMCount                int

	prevA12       bool
	a12LastHighAt int64

	FrameBuffer [256 * 240]uint32
}

func New() *PPU {
	p := &PPU{}
	p.warmingUp = true
	return p
}

// Reset puts the PPU in its post-power-on state (spec §3 "PPU state").
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.readBuffer, p.ioLatch = 0, 0
	p.scanline, p.dot, p.totalDots = 0, 0, 0
	p.oddFrame = false
	p.frameComplete = false
	p.warmingUp = true
	p.nmiOccurred, p.nmiOutputPending, p.nmiLine, p.nmiDelay = false, false, false, 0
	p.suppressNMIFrame = false
	p.prevA12, p.a12LastHighAt = false, 0
}

// StartFrame clears the frame-complete flag so Tick can advance a new frame
// (spec §4.1 "Orchestrator calls PPU.startFrame").
func (p *PPU) StartFrame() { p.frameComplete = false }

// FrameComplete reports whether the PPU finished scanline 261 since the
// last StartFrame.
func (p *PPU) FrameComplete() bool { return p.frameComplete }

// Tick advances the PPU, dot by dot, until it has consumed masterClock/4
// dots total, matching the cpu package's shared master-clock domain.
func (p *PPU) Tick(masterClock int64) {
	target := masterClock / ppuClockDivider
	for p.totalDots < target {
		p.step()
		p.totalDots++
	}
}

// PollNMI reports whether the PPU's CPU-visible NMI line is currently
// asserted; the cpu package does its own edge detection across polls.
func (p *PPU) PollNMI() bool { return p.nmiLine }

// BeamPosition reports the PPU's current dot and scanline, for the
// zapper's beam-position catch-up read (spec §4.6).
func (p *PPU) BeamPosition() (int, int) { return p.dot, p.scanline }

// BrightnessPlane returns a single-byte-per-pixel brightness view of the
// frame buffer and its row pitch, for the zapper's light-sensor detection
// window; each byte is the mean of the pixel's three 8-bit color channels.
func (p *PPU) BrightnessPlane() ([]uint8, int) {
	plane := make([]uint8, len(p.FrameBuffer))
	for i, px := range p.FrameBuffer {
		r, g, b := (px>>16)&0xFF, (px>>8)&0xFF, px&0xFF
		plane[i] = uint8((r + g + b) / 3)
	}
	return plane, 256
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskShowBG|maskShowSprites) != 0
}

func (p *PPU) step() {
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 && p.nmiOutputPending {
			p.nmiLine = true
		}
	}

	switch {
	case p.scanline < 240:
		p.renderScanline()
	case p.scanline == 241 && p.dot == 1:
		p.enterVBlank()
	case p.scanline == 261:
		p.preRenderScanline()
	}

	p.advanceDot()
}

func (p *PPU) enterVBlank() {
	if !p.suppressNMIFrame {
		p.nmiOccurred = true
		p.updateNMIOutput()
	}
}

func (p *PPU) updateNMIOutput() {
	pending := p.nmiOccurred && p.ctrl&ctrlNMIEnable != 0
	if pending && !p.nmiOutputPending {
		p.nmiDelay = 3
	}
	if !pending {
		p.nmiDelay = 0
		p.nmiLine = false
	}
	p.nmiOutputPending = pending
}

// Serialize encodes every field spec §3's "PPU state" names: register
// latches, the loopy scroll registers, the pipeline shift registers and
// sprite-evaluation scratch state, nametable/OAM/palette RAM, and the A12
// edge-filter history (spec §6 "Save state").
func (p *PPU) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ctrl")
	e.Int(int(p.ctrl))
	e.FieldStart("mask")
	e.Int(int(p.mask))
	e.FieldStart("oamAddr")
	e.Int(int(p.oamAddr))
	e.FieldStart("status")
	e.Int(int(p.status))
	e.FieldStart("oam")
	e.Base64(p.oam[:])
	e.FieldStart("secondaryOAM")
	e.Base64(p.secondaryOAM[:])
	e.FieldStart("nametables")
	e.Base64(p.nametables[:])
	e.FieldStart("palette")
	e.Base64(p.palette[:])
	e.FieldStart("v")
	e.Int(int(p.v))
	e.FieldStart("t")
	e.Int(int(p.t))
	e.FieldStart("x")
	e.Int(int(p.x))
	e.FieldStart("w")
	e.Bool(p.w)
	e.FieldStart("readBuffer")
	e.Int(int(p.readBuffer))
	e.FieldStart("ioLatch")
	e.Int(int(p.ioLatch))
	e.FieldStart("scanline")
	e.Int(p.scanline)
	e.FieldStart("dot")
	e.Int(p.dot)
	e.FieldStart("totalDots")
	e.Int64(p.totalDots)
	e.FieldStart("oddFrame")
	e.Bool(p.oddFrame)
	e.FieldStart("frameComplete")
	e.Bool(p.frameComplete)
	e.FieldStart("warmingUp")
	e.Bool(p.warmingUp)
	e.FieldStart("nmiOccurred")
	e.Bool(p.nmiOccurred)
	e.FieldStart("nmiOutputPending")
	e.Bool(p.nmiOutputPending)
	e.FieldStart("nmiLine")
	e.Bool(p.nmiLine)
	e.FieldStart("nmiDelay")
	e.Int(p.nmiDelay)
	e.FieldStart("suppressNMIFrame")
	e.Bool(p.suppressNMIFrame)
	e.FieldStart("bgShiftLo")
	e.Int(int(p.bgShiftLo))
	e.FieldStart("bgShiftHi")
	e.Int(int(p.bgShiftHi))
	e.FieldStart("atShiftLo")
	e.Int(int(p.atShiftLo))
	e.FieldStart("atShiftHi")
	e.Int(int(p.atShiftHi))
	e.FieldStart("ntByte")
	e.Int(int(p.ntByte))
	e.FieldStart("atByte")
	e.Int(int(p.atByte))
	e.FieldStart("bgLoByte")
	e.Int(int(p.bgLoByte))
	e.FieldStart("bgHiByte")
	e.Int(int(p.bgHiByte))
	e.FieldStart("spriteCount")
	e.Int(p.spriteCount)
	e.FieldStart("spritePatternLo")
	e.Base64(p.spritePatternLo[:])
	e.FieldStart("spritePatternHi")
	e.Base64(p.spritePatternHi[:])
	e.FieldStart("spriteAttr")
	e.Base64(p.spriteAttr[:])
	e.FieldStart("spriteX")
	e.Base64(p.spriteX[:])
	e.FieldStart("spriteIndexIsZero")
	e.ArrStart()
	for _, v := range p.spriteIndexIsZero {
		e.Bool(v)
	}
	e.ArrEnd()
	e.FieldStart("sprite0OnThisLine")
	e.Bool(p.sprite0OnThisLine)
	e.FieldStart("secondaryOAMCount")
	e.Int(p.secondaryOAMCount)
	e.FieldStart("prevA12")
	e.Bool(p.prevA12)
	e.FieldStart("a12LastHighAt")
	e.Int64(p.a12LastHighAt)
	e.FieldStart("frameBuffer")
	e.Base64(frameBufferBytes(&p.FrameBuffer))
	e.ObjEnd()
	return e.Bytes(), nil
}

func (p *PPU) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "ctrl":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.ctrl = uint8(v)
		case "mask":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.mask = uint8(v)
		case "oamAddr":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.oamAddr = uint8(v)
		case "status":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.status = uint8(v)
		case "oam":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.oam) {
				copy(p.oam[:], v)
			}
		case "secondaryOAM":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.secondaryOAM) {
				copy(p.secondaryOAM[:], v)
			}
		case "nametables":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.nametables) {
				copy(p.nametables[:], v)
			}
		case "palette":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.palette) {
				copy(p.palette[:], v)
			}
		case "v":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.v = uint16(v)
		case "t":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.t = uint16(v)
		case "x":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.x = uint8(v)
		case "w":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.w = v
		case "readBuffer":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.readBuffer = uint8(v)
		case "ioLatch":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.ioLatch = uint8(v)
		case "scanline":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.scanline = v
		case "dot":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.dot = v
		case "totalDots":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			p.totalDots = v
		case "oddFrame":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.oddFrame = v
		case "frameComplete":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.frameComplete = v
		case "warmingUp":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.warmingUp = v
		case "nmiOccurred":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.nmiOccurred = v
		case "nmiOutputPending":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.nmiOutputPending = v
		case "nmiLine":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.nmiLine = v
		case "nmiDelay":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.nmiDelay = v
		case "suppressNMIFrame":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.suppressNMIFrame = v
		case "bgShiftLo":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.bgShiftLo = uint16(v)
		case "bgShiftHi":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.bgShiftHi = uint16(v)
		case "atShiftLo":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.atShiftLo = uint16(v)
		case "atShiftHi":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.atShiftHi = uint16(v)
		case "ntByte":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.ntByte = uint8(v)
		case "atByte":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.atByte = uint8(v)
		case "bgLoByte":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.bgLoByte = uint8(v)
		case "bgHiByte":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.bgHiByte = uint8(v)
		case "spriteCount":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.spriteCount = v
		case "spritePatternLo":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.spritePatternLo) {
				copy(p.spritePatternLo[:], v)
			}
		case "spritePatternHi":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.spritePatternHi) {
				copy(p.spritePatternHi[:], v)
			}
		case "spriteAttr":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.spriteAttr) {
				copy(p.spriteAttr[:], v)
			}
		case "spriteX":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(p.spriteX) {
				copy(p.spriteX[:], v)
			}
		case "spriteIndexIsZero":
			i := 0
			err := d.Arr(func(d *jx.Decoder) error {
				v, err := d.Bool()
				if err != nil {
					return err
				}
				if i < len(p.spriteIndexIsZero) {
					p.spriteIndexIsZero[i] = v
				}
				i++
				return nil
			})
			if err != nil {
				return err
			}
		case "sprite0OnThisLine":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.sprite0OnThisLine = v
		case "secondaryOAMCount":
			v, err := d.Int()
			if err != nil {
				return err
			}
			p.secondaryOAMCount = v
		case "prevA12":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			p.prevA12 = v
		case "a12LastHighAt":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			p.a12LastHighAt = v
		case "frameBuffer":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			setFrameBufferBytes(&p.FrameBuffer, v)
		default:
			return d.Skip()
		}
		return nil
	})
}

// frameBufferBytes/setFrameBufferBytes convert the packed-RGB frame buffer
// to and from a little-endian byte slice for the base64 save-state
// encoding, since jx only has a byte-array primitive.
func frameBufferBytes(fb *[256 * 240]uint32) []byte {
	out := make([]byte, len(fb)*4)
	for i, px := range fb {
		out[i*4] = byte(px)
		out[i*4+1] = byte(px >> 8)
		out[i*4+2] = byte(px >> 16)
		out[i*4+3] = byte(px >> 24)
	}
	return out
}

func setFrameBufferBytes(fb *[256 * 240]uint32, data []byte) {
	if len(data) != len(fb)*4 {
		return
	}
	for i := range fb {
		fb[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
}

func (p *PPU) advanceDot() {
	p.dot++
	maxDot := NumDots - 1
	if p.scanline == 261 && p.oddFrame && p.renderingEnabled() {
		maxDot = NumDots - 2 // odd-frame skip on the pre-render line
	}
	if p.dot > maxDot {
		p.dot = 0
		p.scanline++
		if p.scanline >= NumScanlines {
			p.scanline = 0
			p.oddFrame = !p.oddFrame
			p.frameComplete = true
			p.suppressNMIFrame = false
		}
	}
}
