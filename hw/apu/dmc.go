package apu

import "github.com/go-faster/jx"

// dmcPeriodLUT converts a 4-bit register value to the channel's period in
// CPU cycles; callers store it minus one in the timer's reload field, per
// sequencerTimer's reload-then-clock semantics (spec §4.4 "DMC channel").
// Grounded on a conventional DMC channel implementation.
var dmcPeriodLUT = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214, 190, 160, 142, 128, 106, 84, 72, 54,
}

// dmc is the delta-modulation channel. Its sample fetch talks to the CPU bus
// through the narrow CPUBus interface rather than a concrete *cpu.CPU (spec
// §9), and runs synchronously from inside tick rather than through the
// a needToRun/startDMCTransfer/processClock indirection, since this
// package already drives everything one CPU cycle at a time.
type dmc struct {
	bus CPUBus

	timer sequencerTimer

	sampleAddr  uint16
	sampleLen   uint16
	outputLevel uint8
	irqEnabled  bool
	loop        bool
	irqPending  bool

	curAddr   uint16
	remaining uint16
	readBuf   uint8
	bufEmpty  bool

	shiftReg uint8
	bitsLeft uint8
	silence  bool
}

func newDMC(bus CPUBus) *dmc {
	d := &dmc{bus: bus}
	d.reset(false)
	return d
}

func (d *dmc) reset(soft bool) {
	d.timer.reset()
	d.timer.period = dmcPeriodLUT[0] - 1

	if !soft {
		d.sampleAddr = 0xC000
		d.sampleLen = 1
	}

	d.outputLevel = 0
	d.irqEnabled = false
	d.loop = false
	d.irqPending = false

	d.curAddr = 0
	d.remaining = 0
	d.readBuf = 0
	d.bufEmpty = true

	d.shiftReg = 0
	d.bitsLeft = 8
	d.silence = true
}

func (d *dmc) initSample() {
	d.curAddr = d.sampleAddr
	d.remaining = d.sampleLen
}

// writeFlags handles $4010.
func (d *dmc) writeFlags(val uint8) {
	d.irqEnabled = val&0x80 != 0
	d.loop = val&0x40 != 0
	d.timer.period = dmcPeriodLUT[val&0x0F] - 1
	if !d.irqEnabled {
		d.irqPending = false
	}
}

// writeLoad handles $4011: the 7-bit output level can be set directly and
// the new value applies right away rather than waiting on the timer's
// reload (spec §4.4 "7-bit DAC").
func (d *dmc) writeLoad(val uint8) {
	d.outputLevel = val & 0x7F
}

// writeSampleAddr handles $4012: sample start is $C000 + $40*val.
func (d *dmc) writeSampleAddr(val uint8) {
	d.sampleAddr = 0xC000 | uint16(val)<<6
}

// writeSampleLen handles $4013: length is $10*val + 1 bytes.
func (d *dmc) writeSampleLen(val uint8) {
	d.sampleLen = uint16(val)<<4 | 0x1
}

func (d *dmc) setEnabled(enabled bool) {
	if !enabled {
		d.remaining = 0
	} else if d.remaining == 0 {
		d.initSample()
	}
}

func (d *dmc) status() bool { return d.remaining > 0 }

// fillBuffer performs the sample-fetch bus read through CPUBus when the
// internal buffer is empty and a sample remains (spec §4.4 "costs 4 stall
// cycles" / "advances the CPU open-bus latch").
func (d *dmc) fillBuffer() {
	if !d.bufEmpty || d.remaining == 0 {
		return
	}
	d.readBuf = d.bus.ReadSample(d.curAddr)
	d.bus.StallCycles(4)
	d.bufEmpty = false

	// Address wraps around to $8000, not $0000.
	d.curAddr++
	if d.curAddr == 0 {
		d.curAddr = 0x8000
	}
	d.remaining--

	if d.remaining == 0 {
		if d.loop {
			d.initSample()
		} else if d.irqEnabled {
			d.irqPending = true
		}
	}
}

// tick advances the channel by one CPU cycle and returns its current 7-bit
// DAC output.
func (d *dmc) tick() uint8 {
	d.fillBuffer()

	if d.timer.tick() {
		if !d.silence {
			if d.shiftReg&0x01 != 0 {
				if d.outputLevel <= 125 {
					d.outputLevel += 2
				}
			} else if d.outputLevel >= 2 {
				d.outputLevel -= 2
			}
			d.shiftReg >>= 1
		}

		d.bitsLeft--
		if d.bitsLeft == 0 {
			d.bitsLeft = 8
			if d.bufEmpty {
				d.silence = true
			} else {
				d.silence = false
				d.shiftReg = d.readBuf
				d.bufEmpty = true
			}
		}
	}

	return d.outputLevel
}

func (d *dmc) output() uint8 { return d.outputLevel }

// encode writes dmc's state, excluding bus which is a console-wired
// reference rather than serializable state (spec §6 "Save state").
func (d *dmc) encode(e *jx.Encoder, prefix string) {
	d.timer.encode(e, prefix+"Timer")
	e.FieldStart(prefix + "SampleAddr")
	e.Int(int(d.sampleAddr))
	e.FieldStart(prefix + "SampleLen")
	e.Int(int(d.sampleLen))
	e.FieldStart(prefix + "OutputLevel")
	e.Int(int(d.outputLevel))
	e.FieldStart(prefix + "IRQEnabled")
	e.Bool(d.irqEnabled)
	e.FieldStart(prefix + "Loop")
	e.Bool(d.loop)
	e.FieldStart(prefix + "IRQPending")
	e.Bool(d.irqPending)
	e.FieldStart(prefix + "CurAddr")
	e.Int(int(d.curAddr))
	e.FieldStart(prefix + "Remaining")
	e.Int(int(d.remaining))
	e.FieldStart(prefix + "ReadBuf")
	e.Int(int(d.readBuf))
	e.FieldStart(prefix + "BufEmpty")
	e.Bool(d.bufEmpty)
	e.FieldStart(prefix + "ShiftReg")
	e.Int(int(d.shiftReg))
	e.FieldStart(prefix + "BitsLeft")
	e.Int(int(d.bitsLeft))
	e.FieldStart(prefix + "Silence")
	e.Bool(d.silence)
}

func (d *dmc) decodeField(dec *jx.Decoder, prefix, key string) (bool, error) {
	if ok, err := d.timer.decodeField(dec, prefix+"Timer", key); ok {
		return true, err
	}
	switch key {
	case prefix + "SampleAddr":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.sampleAddr = uint16(v)
	case prefix + "SampleLen":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.sampleLen = uint16(v)
	case prefix + "OutputLevel":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.outputLevel = uint8(v)
	case prefix + "IRQEnabled":
		v, err := dec.Bool()
		if err != nil {
			return true, err
		}
		d.irqEnabled = v
	case prefix + "Loop":
		v, err := dec.Bool()
		if err != nil {
			return true, err
		}
		d.loop = v
	case prefix + "IRQPending":
		v, err := dec.Bool()
		if err != nil {
			return true, err
		}
		d.irqPending = v
	case prefix + "CurAddr":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.curAddr = uint16(v)
	case prefix + "Remaining":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.remaining = uint16(v)
	case prefix + "ReadBuf":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.readBuf = uint8(v)
	case prefix + "BufEmpty":
		v, err := dec.Bool()
		if err != nil {
			return true, err
		}
		d.bufEmpty = v
	case prefix + "ShiftReg":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.shiftReg = uint8(v)
	case prefix + "BitsLeft":
		v, err := dec.Int()
		if err != nil {
			return true, err
		}
		d.bitsLeft = uint8(v)
	case prefix + "Silence":
		v, err := dec.Bool()
		if err != nil {
			return true, err
		}
		d.silence = v
	default:
		return false, nil
	}
	return true, nil
}
