package apu

import "github.com/go-faster/jx"

// APU orchestrates the five built-in channels, the frame counter, and the
// mixer, and implements cpu.APU so console wires it directly into the CPU's
// bus dispatch (spec §9 "Cyclic ownership": this package never imports
// cpu). Grounded on a conventional APU orchestrator for register dispatch and
// the quarter/half-frame fanout; Run()'s lazy catch-up loop is gone since
// Tick() is now called exactly once per CPU cycle by the CPU itself.
type APU struct {
	bus CPUBus

	pulse1   *pulseChannel
	pulse2   *pulseChannel
	triangle *triangleChannel
	noise    *noiseChannel
	dmc      *dmc

	frameCounter frameCounter
	mixer        *mixer

	cycle        uint64
	soundEnabled bool
}

// New builds an APU driven over bus for the DMC channel's sample fetches
// (spec §9); console is the only place a concrete *cpu.CPU is passed in,
// since *cpu.CPU structurally satisfies CPUBus.
func New(bus CPUBus) *APU {
	a := &APU{
		bus:          bus,
		pulse1:       newPulseChannel(true),
		pulse2:       newPulseChannel(false),
		triangle:     newTriangleChannel(),
		noise:        newNoiseChannel(),
		dmc:          newDMC(bus),
		mixer:        newMixer(),
		soundEnabled: true,
	}
	a.frameCounter.reset(false)
	return a
}

// RegisterExpansionSource wires a cartridge-side audio generator into the
// mix (spec §4.4 "Expansion audio").
func (a *APU) RegisterExpansionSource(src ExpansionSource) {
	a.mixer.registerExpansionSource(src)
}

// SetSoundEnabled implements the `emulateSound` config option (spec §6):
// when disabled, Tick skips the whole channel/mixer pipeline.
func (a *APU) SetSoundEnabled(enabled bool) { a.soundEnabled = enabled }

// SetSampleRate reconfigures the mixer's resampler ratio, observed by the
// `sampleRate` config option (spec §6).
func (a *APU) SetSampleRate(rate float64) { a.mixer.setSampleRate(rate) }

// SetPan sets a built-in channel's stereo pan weights (spec §4.4 "per-channel
// pan weights").
func (a *APU) SetPan(ch Channel, left, right float64) { a.mixer.setPan(ch, left, right) }

func (a *APU) Reset(soft bool) {
	a.cycle = 0
	a.pulse1.reset(soft)
	a.pulse2.reset(soft)
	a.triangle.reset(soft)
	a.noise.reset(soft)
	a.dmc.reset(soft)
	a.frameCounter.reset(soft)
	a.mixer.reset()
}

// onFrameClock fans a quarter/half frame clock out to every channel (spec
// §4.4 "frame counter").
func (a *APU) onFrameClock(typ frameType) {
	if typ == noFrame {
		return
	}

	a.pulse1.tickEnvelope()
	a.pulse2.tickEnvelope()
	a.triangle.tickLinearCounter()
	a.noise.tickEnvelope()

	if typ == halfFrame {
		a.pulse1.tickLength()
		a.pulse2.tickLength()
		a.triangle.tickLength()
		a.noise.tickLength()

		a.pulse1.tickSweep()
		a.pulse2.tickSweep()
	}
}

// Tick advances every channel, the frame counter, and the mixer by one CPU
// cycle. Called directly from cpu.cycleBegin.
func (a *APU) Tick() {
	if !a.soundEnabled {
		return
	}
	a.cycle++

	typ := a.frameCounter.tick()
	a.onFrameClock(typ)

	// Reload counters set by $4003/$4008/$400B/$400F writes after the
	// frame counter has clocked, so a length write landing on the same
	// cycle as a clock is not immediately undone.
	a.pulse1.reloadLength()
	a.pulse2.reloadLength()
	a.triangle.reloadLength()
	a.noise.reloadLength()

	p1 := a.pulse1.tick()
	p2 := a.pulse2.tick()
	tr := a.triangle.tick()
	no := a.noise.tick()
	dm := a.dmc.tick()

	a.mixer.clockExpansions()
	a.mixer.step(a.cycle, p1, p2, tr, no, dm)
}

// ReadOutputSamples drains the mixer's resampled PCM for the cycles elapsed
// since the last call.
func (a *APU) ReadOutputSamples(out []int16) int {
	return a.mixer.readSamples(out, int(a.cycle))
}

func (a *APU) status() uint8 {
	var status uint8
	if a.pulse1.status() {
		status |= 0x01
	}
	if a.pulse2.status() {
		status |= 0x02
	}
	if a.triangle.status() {
		status |= 0x04
	}
	if a.noise.status() {
		status |= 0x08
	}
	if a.dmc.status() {
		status |= 0x10
	}
	if a.frameCounter.readIRQ(true) {
		status |= 0x40
	}
	if a.dmc.irqPending {
		status |= 0x80
	}
	return status
}

// ReadStatus handles $4015.
func (a *APU) ReadStatus(peek bool) uint8 {
	status := a.status()
	if !peek {
		a.frameCounter.readIRQ(false)
	}
	return status
}

// ReadDebugRegister handles the read-only $4018-$401A instantaneous DAC
// mirror: $4018 packs pulse2 (bits 4-7) and pulse1 (bits 0-3), $4019 packs
// noise (bits 4-7) and triangle (bits 0-3), and $401A mirrors the DMC's
// 7-bit output level.
func (a *APU) ReadDebugRegister(addr uint16) uint8 {
	switch addr {
	case 0x4018:
		return a.pulse1.output() | a.pulse2.output()<<4
	case 0x4019:
		return a.triangle.output() | a.noise.output()<<4
	case 0x401A:
		return a.dmc.output()
	}
	return 0
}

// WriteRegister dispatches a write to any APU register in $4000-$4013,
// $4015, or $4017.
func (a *APU) WriteRegister(addr uint16, val uint8) {
	switch addr {
	case 0x4000:
		a.pulse1.writeDuty(val)
	case 0x4001:
		a.pulse1.writeSweep(val)
	case 0x4002:
		a.pulse1.writeTimerLo(val)
	case 0x4003:
		a.pulse1.writeLengthTimerHi(val)
	case 0x4004:
		a.pulse2.writeDuty(val)
	case 0x4005:
		a.pulse2.writeSweep(val)
	case 0x4006:
		a.pulse2.writeTimerLo(val)
	case 0x4007:
		a.pulse2.writeLengthTimerHi(val)
	case 0x4008:
		a.triangle.writeLinear(val)
	case 0x400A:
		a.triangle.writeTimerLo(val)
	case 0x400B:
		a.triangle.writeLengthTimerHi(val)
	case 0x400C:
		a.noise.writeVolume(val)
	case 0x400E:
		a.noise.writePeriod(val)
	case 0x400F:
		a.noise.writeLength(val)
	case 0x4010:
		a.dmc.writeFlags(val)
	case 0x4011:
		a.dmc.writeLoad(val)
	case 0x4012:
		a.dmc.writeSampleAddr(val)
	case 0x4013:
		a.dmc.writeSampleLen(val)
	case 0x4015:
		a.writeStatus(val)
	case 0x4017:
		a.frameCounter.write(val, a.cycle&1 != 0)
	}
}

func (a *APU) writeStatus(val uint8) {
	// Writing to $4015 clears the DMC IRQ flag before enabling the DMC,
	// since re-enabling it with a sample remaining can immediately set it
	// again.
	a.dmc.irqPending = false

	a.pulse1.setEnabled(val&0x01 != 0)
	a.pulse2.setEnabled(val&0x02 != 0)
	a.triangle.setEnabled(val&0x04 != 0)
	a.noise.setEnabled(val&0x08 != 0)
	a.dmc.setEnabled(val&0x10 != 0)
}

// IRQPending reports whether either the frame counter or the DMC channel
// currently has an unacknowledged IRQ.
func (a *APU) IRQPending() bool {
	return a.frameCounter.readIRQ(true) || a.dmc.irqPending
}

// Serialize encodes every channel, the frame counter, and the mixer's
// output-side state into a single document (spec §3 "APU state", §6 "Save
// state"). bus is excluded, since it is the console's wiring to the CPU
// rather than APU state.
func (a *APU) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	a.pulse1.encode(e, "p1")
	a.pulse2.encode(e, "p2")
	a.triangle.encode(e, "tri")
	a.noise.encode(e, "noise")
	a.dmc.encode(e, "dmc")
	a.frameCounter.encode(e, "fc")
	a.mixer.encode(e, "mix")
	e.FieldStart("cycle")
	e.Int64(int64(a.cycle))
	e.FieldStart("soundEnabled")
	e.Bool(a.soundEnabled)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (a *APU) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		if ok, err := a.pulse1.decodeField(d, "p1", key); ok {
			return err
		}
		if ok, err := a.pulse2.decodeField(d, "p2", key); ok {
			return err
		}
		if ok, err := a.triangle.decodeField(d, "tri", key); ok {
			return err
		}
		if ok, err := a.noise.decodeField(d, "noise", key); ok {
			return err
		}
		if ok, err := a.dmc.decodeField(d, "dmc", key); ok {
			return err
		}
		if ok, err := a.frameCounter.decodeField(d, "fc", key); ok {
			return err
		}
		if ok, err := a.mixer.decodeField(d, "mix", key); ok {
			return err
		}
		switch key {
		case "cycle":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			a.cycle = uint64(v)
		case "soundEnabled":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			a.soundEnabled = v
		default:
			return d.Skip()
		}
		return nil
	})
}
