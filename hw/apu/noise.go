package apu

import "github.com/go-faster/jx"

// noisePeriodLUT converts a 4-bit register value to the documented CPU-cycle
// period; callers store it minus one in the timer's reload field, per
// sequencerTimer's reload-then-clock semantics (spec §4.4 "noise channel").
// Grounded on a conventional noise-channel implementation.
var noisePeriodLUT = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

type noiseChannel struct {
	envelope envelope
	timer    sequencerTimer

	shiftReg uint16
	mode     bool

	lastOutput uint8
}

func newNoiseChannel() *noiseChannel {
	nc := &noiseChannel{}
	nc.reset(false)
	return nc
}

func (nc *noiseChannel) reset(soft bool) {
	nc.envelope.reset(soft)
	nc.timer.reset()
	nc.timer.period = noisePeriodLUT[0] - 1
	nc.shiftReg = 1
	nc.mode = false
	nc.lastOutput = 0
}

// writeVolume handles $400C.
func (nc *noiseChannel) writeVolume(val uint8) { nc.envelope.init(val) }

// writePeriod handles $400E.
func (nc *noiseChannel) writePeriod(val uint8) {
	nc.timer.period = noisePeriodLUT[val&0x0F] - 1
	nc.mode = val&0x80 != 0
}

// writeLength handles $400F.
func (nc *noiseChannel) writeLength(val uint8) {
	nc.envelope.length.load(val >> 3)
	nc.envelope.restart()
}

func (nc *noiseChannel) tickEnvelope() { nc.envelope.tick() }
func (nc *noiseChannel) tickLength()   { nc.envelope.length.tick() }
func (nc *noiseChannel) reloadLength() { nc.envelope.length.reload() }

func (nc *noiseChannel) setEnabled(enabled bool) { nc.envelope.length.setEnabled(enabled) }
func (nc *noiseChannel) status() bool            { return nc.envelope.length.status() }

// tick advances the 15-bit LFSR by one CPU cycle and returns the channel's
// current 4-bit DAC output (spec §4.4 "feedback = bit0 XOR (bit1 if mode 0,
// bit6 if mode 1); shift right one; insert feedback into bit14").
func (nc *noiseChannel) tick() uint8 {
	if nc.timer.tick() {
		otherBit := uint(1)
		if nc.mode {
			otherBit = 6
		}
		feedback := (nc.shiftReg & 1) ^ ((nc.shiftReg >> otherBit) & 1)
		nc.shiftReg >>= 1
		nc.shiftReg |= feedback << 14
	}
	if nc.shiftReg&1 != 0 {
		nc.lastOutput = 0
	} else {
		nc.lastOutput = nc.envelope.output()
	}
	return nc.lastOutput
}

func (nc *noiseChannel) output() uint8 { return nc.lastOutput }

func (nc *noiseChannel) encode(e *jx.Encoder, prefix string) {
	nc.envelope.encode(e, prefix+"Env")
	nc.timer.encode(e, prefix+"Timer")
	e.FieldStart(prefix + "ShiftReg")
	e.Int(int(nc.shiftReg))
	e.FieldStart(prefix + "Mode")
	e.Bool(nc.mode)
	e.FieldStart(prefix + "LastOutput")
	e.Int(int(nc.lastOutput))
}

func (nc *noiseChannel) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	if ok, err := nc.envelope.decodeField(d, prefix+"Env", key); ok {
		return true, err
	}
	if ok, err := nc.timer.decodeField(d, prefix+"Timer", key); ok {
		return true, err
	}
	switch key {
	case prefix + "ShiftReg":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		nc.shiftReg = uint16(v)
	case prefix + "Mode":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		nc.mode = v
	case prefix + "LastOutput":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		nc.lastOutput = uint8(v)
	default:
		return false, nil
	}
	return true, nil
}
