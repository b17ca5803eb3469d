package apu

import "github.com/go-faster/jx"

// triangleSequence is the 32-step triangle waveform (spec §4.4 "triangle
// channel"). Grounded on a conventional triangle-channel implementation.
var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8,
	7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7,
	8, 9, 10, 11, 12, 13, 14, 15,
}

type triangleChannel struct {
	length lengthCounter
	timer  sequencerTimer

	linearCounter       uint8
	linearCounterReload uint8
	linearReload        bool
	linearCtrl          bool

	pos uint8

	lastOutput uint8
}

func newTriangleChannel() *triangleChannel {
	return &triangleChannel{length: lengthCounter{isTriangle: true}}
}

func (tc *triangleChannel) reset(soft bool) {
	tc.timer.reset()
	tc.length.reset(soft)
	tc.linearCounter, tc.linearCounterReload = 0, 0
	tc.linearReload, tc.linearCtrl = false, false
	tc.pos = 0
	tc.lastOutput = 0
}

// writeLinear handles $4008.
func (tc *triangleChannel) writeLinear(val uint8) {
	tc.linearCtrl = val&0x80 != 0
	tc.linearCounterReload = val & 0x7F
	tc.length.init(tc.linearCtrl)
}

// writeTimerLo handles $400A.
func (tc *triangleChannel) writeTimerLo(val uint8) {
	tc.timer.period = (tc.timer.period &^ 0xFF) | uint16(val)
}

// writeLengthTimerHi handles $400B.
func (tc *triangleChannel) writeLengthTimerHi(val uint8) {
	tc.length.load(val >> 3)
	tc.timer.period = (tc.timer.period & 0xFF) | uint16(val&0x07)<<8
	tc.linearReload = true
}

func (tc *triangleChannel) tickLinearCounter() {
	if tc.linearReload {
		tc.linearCounter = tc.linearCounterReload
	} else if tc.linearCounter > 0 {
		tc.linearCounter--
	}
	if !tc.linearCtrl {
		tc.linearReload = false
	}
}

func (tc *triangleChannel) tickLength()   { tc.length.tick() }
func (tc *triangleChannel) reloadLength() { tc.length.reload() }

func (tc *triangleChannel) setEnabled(enabled bool) { tc.length.setEnabled(enabled) }
func (tc *triangleChannel) status() bool            { return tc.length.status() }

// tick advances the channel by one CPU cycle and returns its current 4-bit
// DAC output. The sequencer only advances while both the length and linear
// counters are nonzero (spec §4.4); with a period below 2 the output is not
// updated and holds its last value, so the ultrasonic waveform is not emitted.
func (tc *triangleChannel) tick() uint8 {
	if tc.timer.tick() {
		if tc.length.status() && tc.linearCounter > 0 {
			tc.pos = (tc.pos + 1) & 0x1F
			if tc.timer.period >= 2 {
				tc.lastOutput = triangleSequence[tc.pos]
			}
		}
	}
	return tc.lastOutput
}

func (tc *triangleChannel) output() uint8 { return tc.lastOutput }

func (tc *triangleChannel) encode(e *jx.Encoder, prefix string) {
	tc.length.encode(e, prefix+"Length")
	tc.timer.encode(e, prefix+"Timer")
	e.FieldStart(prefix + "LinearCounter")
	e.Int(int(tc.linearCounter))
	e.FieldStart(prefix + "LinearCounterReload")
	e.Int(int(tc.linearCounterReload))
	e.FieldStart(prefix + "LinearReload")
	e.Bool(tc.linearReload)
	e.FieldStart(prefix + "LinearCtrl")
	e.Bool(tc.linearCtrl)
	e.FieldStart(prefix + "Pos")
	e.Int(int(tc.pos))
	e.FieldStart(prefix + "LastOutput")
	e.Int(int(tc.lastOutput))
}

func (tc *triangleChannel) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	if ok, err := tc.length.decodeField(d, prefix+"Length", key); ok {
		return true, err
	}
	if ok, err := tc.timer.decodeField(d, prefix+"Timer", key); ok {
		return true, err
	}
	switch key {
	case prefix + "LinearCounter":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		tc.linearCounter = uint8(v)
	case prefix + "LinearCounterReload":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		tc.linearCounterReload = uint8(v)
	case prefix + "LinearReload":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		tc.linearReload = v
	case prefix + "LinearCtrl":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		tc.linearCtrl = v
	case prefix + "Pos":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		tc.pos = uint8(v)
	case prefix + "LastOutput":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		tc.lastOutput = uint8(v)
	default:
		return false, nil
	}
	return true, nil
}
