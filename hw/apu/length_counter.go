package apu

import "github.com/go-faster/jx"

// lengthCounterLUT maps a 5-bit register value to its length-counter load
// value (standard NES length table, spec §4.4 "length counters").
var lengthCounterLUT = [32]uint8{
	10, 254, 20, 2, 40, 4, 80, 6, 160, 8, 60, 10, 14, 12, 26, 14,
	12, 16, 24, 18, 48, 20, 96, 22, 192, 24, 72, 26, 16, 28, 32, 30,
}

// lengthCounter is shared by the two pulse channels, the triangle, and the
// noise channel (spec §4.4); the DMC counts its remaining sample bytes
// instead. Grounded on a conventional length-counter implementation; the load/reload
// split (load latches a pending value, reload applies it only once the
// envelope/linear-counter side has observed the previous value) preserves
// the fix for length-counter-reload-timing.
type lengthCounter struct {
	isTriangle bool

	newHalt bool
	halt    bool

	enabled       bool
	counter       uint8
	reloadValue   uint8
	previousValue uint8
}

func (lc *lengthCounter) init(halt bool) { lc.newHalt = halt }

func (lc *lengthCounter) load(val uint8) {
	if lc.enabled {
		lc.reloadValue = lengthCounterLUT[val&0x1F]
		lc.previousValue = lc.counter
	}
}

func (lc *lengthCounter) reset(soft bool) {
	lc.enabled = false
	if soft && lc.isTriangle {
		return
	}
	lc.halt = false
	lc.newHalt = false
	lc.counter = 0
	lc.reloadValue = 0
	lc.previousValue = 0
}

func (lc *lengthCounter) status() bool { return lc.counter > 0 }

// reload applies a pending load() value; called once per cycle after the
// frame counter's length-counter clock has already run, so a length write
// in the same cycle as a clock is not immediately undone.
func (lc *lengthCounter) reload() {
	if lc.reloadValue != 0 {
		if lc.counter == lc.previousValue {
			lc.counter = lc.reloadValue
		}
		lc.reloadValue = 0
	}
	lc.halt = lc.newHalt
}

func (lc *lengthCounter) tick() {
	if lc.counter > 0 && !lc.halt {
		lc.counter--
	}
}

func (lc *lengthCounter) setEnabled(enabled bool) {
	if !enabled {
		lc.counter = 0
	}
	lc.enabled = enabled
}

func (lc *lengthCounter) encode(e *jx.Encoder, prefix string) {
	e.FieldStart(prefix + "Halt")
	e.Bool(lc.halt)
	e.FieldStart(prefix + "NewHalt")
	e.Bool(lc.newHalt)
	e.FieldStart(prefix + "Enabled")
	e.Bool(lc.enabled)
	e.FieldStart(prefix + "Counter")
	e.Int(int(lc.counter))
	e.FieldStart(prefix + "ReloadValue")
	e.Int(int(lc.reloadValue))
	e.FieldStart(prefix + "PreviousValue")
	e.Int(int(lc.previousValue))
}

func (lc *lengthCounter) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	switch key {
	case prefix + "Halt":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		lc.halt = v
	case prefix + "NewHalt":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		lc.newHalt = v
	case prefix + "Enabled":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		lc.enabled = v
	case prefix + "Counter":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		lc.counter = uint8(v)
	case prefix + "ReloadValue":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		lc.reloadValue = uint8(v)
	case prefix + "PreviousValue":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		lc.previousValue = uint8(v)
	default:
		return false, nil
	}
	return true, nil
}
