package apu

import "github.com/go-faster/jx"

// pulseDuty holds the four 8-step duty cycle sequences (spec §4.4 "8-entry
// duty table"). Grounded on a conventional pulse-channel implementation.
var pulseDuty = [4][8]uint8{
	{0, 0, 0, 0, 0, 0, 0, 1},
	{0, 0, 0, 0, 0, 0, 1, 1},
	{0, 0, 0, 0, 1, 1, 1, 1},
	{1, 1, 1, 1, 1, 1, 0, 0},
}

// pulseChannel is one of the two square-wave channels (spec §4.4 "pulse
// channels"). isOne distinguishes pulse 1, whose sweep-negate arithmetic
// carries an extra -1 (the documented hardware asymmetry between the two
// sweep units).
type pulseChannel struct {
	isOne bool

	envelope envelope
	timer    sequencerTimer

	duty    uint8
	dutyPos uint8

	realPeriod uint16

	sweepEnabled      bool
	sweepNegate       bool
	sweepPeriod       uint8
	sweepShift        uint8
	sweepDivider      uint8
	sweepReload       bool
	sweepTargetPeriod int32

	lastOutput uint8
}

func newPulseChannel(isOne bool) *pulseChannel {
	return &pulseChannel{isOne: isOne}
}

func (pc *pulseChannel) reset(soft bool) {
	pc.envelope.reset(soft)
	pc.timer.reset()
	pc.duty, pc.dutyPos = 0, 0
	pc.realPeriod = 0
	pc.sweepEnabled, pc.sweepNegate = false, false
	pc.sweepPeriod, pc.sweepShift, pc.sweepDivider = 0, 0, 0
	pc.sweepReload = false
	pc.sweepTargetPeriod = 0
	pc.lastOutput = 0
}

// writeDuty handles $4000/$4004.
func (pc *pulseChannel) writeDuty(val uint8) {
	pc.envelope.init(val)
	pc.duty = val >> 6
}

// writeSweep handles $4001/$4005.
func (pc *pulseChannel) writeSweep(val uint8) {
	pc.sweepEnabled = val&0x80 != 0
	pc.sweepNegate = val&0x08 != 0
	pc.sweepPeriod = (val&0x70)>>4 + 1
	pc.sweepShift = val & 0x07
	pc.updateTargetPeriod()
	pc.sweepReload = true
}

// writeTimerLo handles $4002/$4006.
func (pc *pulseChannel) writeTimerLo(val uint8) {
	pc.setPeriod((pc.realPeriod & 0x0700) | uint16(val))
}

// writeLengthTimerHi handles $4003/$4007.
func (pc *pulseChannel) writeLengthTimerHi(val uint8) {
	pc.envelope.length.load(val >> 3)
	pc.setPeriod((pc.realPeriod & 0xFF) | uint16(val&0x07)<<8)
	pc.dutyPos = 0
	pc.envelope.restart()
}

func (pc *pulseChannel) setPeriod(newPeriod uint16) {
	pc.realPeriod = newPeriod
	// spec §4.4 "timer reload is 2·period + 1 CPU cycles": the divider
	// reloads to period_field and clocks after period_field+1 cycles
	// (sequencerTimer.tick semantics), so the field itself is 2·period.
	pc.timer.period = pc.realPeriod * 2
	pc.updateTargetPeriod()
}

func (pc *pulseChannel) updateTargetPeriod() {
	shifted := int32(pc.realPeriod >> pc.sweepShift)
	if pc.sweepNegate {
		pc.sweepTargetPeriod = int32(pc.realPeriod) - shifted
		if pc.isOne {
			pc.sweepTargetPeriod--
		}
	} else {
		pc.sweepTargetPeriod = int32(pc.realPeriod) + shifted
	}
}

// isMuted reproduces the continuous target-period computation muting the
// channel whenever the target exceeds $7FF, even while sweep is disabled
// (spec §4.4 "mutes the channel if the target exceeds $7FF even when
// disabled").
func (pc *pulseChannel) isMuted() bool {
	return pc.realPeriod < 8 || (!pc.sweepNegate && pc.sweepTargetPeriod > 0x7FF)
}

func (pc *pulseChannel) tickSweep() {
	if pc.sweepDivider == 0 {
		if pc.sweepShift > 0 && pc.sweepEnabled && pc.realPeriod >= 8 && pc.sweepTargetPeriod <= 0x7FF {
			pc.setPeriod(uint16(pc.sweepTargetPeriod))
		}
		pc.sweepDivider = pc.sweepPeriod
	} else {
		pc.sweepDivider--
	}
	if pc.sweepReload {
		pc.sweepDivider = pc.sweepPeriod
		pc.sweepReload = false
	}
}

func (pc *pulseChannel) tickEnvelope() { pc.envelope.tick() }
func (pc *pulseChannel) tickLength()   { pc.envelope.length.tick() }
func (pc *pulseChannel) reloadLength() { pc.envelope.length.reload() }

func (pc *pulseChannel) setEnabled(enabled bool) { pc.envelope.length.setEnabled(enabled) }
func (pc *pulseChannel) status() bool            { return pc.envelope.length.status() }

// tick advances the channel by one CPU cycle and returns its current 4-bit
// DAC output.
func (pc *pulseChannel) tick() uint8 {
	if pc.timer.tick() {
		pc.dutyPos = (pc.dutyPos - 1) & 0x07
	}
	if pc.isMuted() {
		pc.lastOutput = 0
	} else {
		pc.lastOutput = pulseDuty[pc.duty][pc.dutyPos] * pc.envelope.output()
	}
	return pc.lastOutput
}

func (pc *pulseChannel) output() uint8 { return pc.lastOutput }

func (pc *pulseChannel) encode(e *jx.Encoder, prefix string) {
	pc.envelope.encode(e, prefix+"Env")
	pc.timer.encode(e, prefix+"Timer")
	e.FieldStart(prefix + "Duty")
	e.Int(int(pc.duty))
	e.FieldStart(prefix + "DutyPos")
	e.Int(int(pc.dutyPos))
	e.FieldStart(prefix + "RealPeriod")
	e.Int(int(pc.realPeriod))
	e.FieldStart(prefix + "SweepEnabled")
	e.Bool(pc.sweepEnabled)
	e.FieldStart(prefix + "SweepNegate")
	e.Bool(pc.sweepNegate)
	e.FieldStart(prefix + "SweepPeriod")
	e.Int(int(pc.sweepPeriod))
	e.FieldStart(prefix + "SweepShift")
	e.Int(int(pc.sweepShift))
	e.FieldStart(prefix + "SweepDivider")
	e.Int(int(pc.sweepDivider))
	e.FieldStart(prefix + "SweepReload")
	e.Bool(pc.sweepReload)
	e.FieldStart(prefix + "SweepTargetPeriod")
	e.Int(int(pc.sweepTargetPeriod))
	e.FieldStart(prefix + "LastOutput")
	e.Int(int(pc.lastOutput))
}

func (pc *pulseChannel) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	if ok, err := pc.envelope.decodeField(d, prefix+"Env", key); ok {
		return true, err
	}
	if ok, err := pc.timer.decodeField(d, prefix+"Timer", key); ok {
		return true, err
	}
	switch key {
	case prefix + "Duty":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.duty = uint8(v)
	case prefix + "DutyPos":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.dutyPos = uint8(v)
	case prefix + "RealPeriod":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.realPeriod = uint16(v)
	case prefix + "SweepEnabled":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		pc.sweepEnabled = v
	case prefix + "SweepNegate":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		pc.sweepNegate = v
	case prefix + "SweepPeriod":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.sweepPeriod = uint8(v)
	case prefix + "SweepShift":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.sweepShift = uint8(v)
	case prefix + "SweepDivider":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.sweepDivider = uint8(v)
	case prefix + "SweepReload":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		pc.sweepReload = v
	case prefix + "SweepTargetPeriod":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.sweepTargetPeriod = int32(v)
	case prefix + "LastOutput":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		pc.lastOutput = uint8(v)
	default:
		return false, nil
	}
	return true, nil
}
