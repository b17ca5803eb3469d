package apu

import "github.com/go-faster/jx"

// frameStepCycles gives the CPU-cycle offset of each step boundary in
// 4-step mode and 5-step mode (spec §4.4 "frame counter"); the trailing
// entries are wrap markers with no clock of their own. Grounded on
// a conventional frame-counter implementation.
var frameStepCycles = [2][6]int32{
	{7457, 14913, 22371, 29828, 29829, 29830},
	{7457, 14913, 22371, 29829, 37281, 37282},
}

var frameStepTypes = [2][6]frameType{
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
	{quarterFrame, halfFrame, quarterFrame, noFrame, halfFrame, noFrame},
}

// frameCounter is the shared divider that clocks envelopes/linear counters
// every quarter frame and length counters/sweep units every half frame.
// Reworked from a lazy Run(cyclesToRun) batching form into a
// direct tick() called once per CPU cycle; the delayed mode-change handling
// otherwise tracked via a separate writeDelayCounter observed inside
// Run is folded into the same per-cycle call.
type frameCounter struct {
	prevCycle int32
	curStep   int
	stepMode  int // 0: 4-step mode, 1: 5-step mode

	inhibitIRQ bool
	irqPending bool
	blockTick  uint8

	pendingWrite      bool
	pendingVal        uint8
	writeDelayCounter int8
}

func (fc *frameCounter) reset(soft bool) {
	fc.prevCycle = 0
	if !soft {
		fc.stepMode = 0
	}
	fc.curStep = 0
	fc.inhibitIRQ = false
	fc.irqPending = false
	fc.blockTick = 0

	// After reset or power-up the APU behaves as if $4017 were written with
	// $00 a few cycles before the first instruction runs.
	fc.pendingWrite = true
	fc.pendingVal = 0
	if fc.stepMode != 0 {
		fc.pendingVal = 0x80
	}
	fc.writeDelayCounter = 3
}

// write handles a $4017 write. cpuCycleOdd is the parity of the APU's own
// per-CPU-cycle counter, which decides whether the new mode takes effect 3
// or 4 CPU cycles later (spec §4.4 "mode-change delay").
func (fc *frameCounter) write(val uint8, cpuCycleOdd bool) {
	fc.pendingWrite = true
	fc.pendingVal = val
	if cpuCycleOdd {
		fc.writeDelayCounter = 4
	} else {
		fc.writeDelayCounter = 3
	}

	fc.inhibitIRQ = val&0x40 != 0
	if fc.inhibitIRQ {
		fc.irqPending = false
	}
}

// tick advances the sequencer by one CPU cycle and returns the kind of
// clock (if any) that should fire on the channels this cycle.
func (fc *frameCounter) tick() frameType {
	result := noFrame

	fc.prevCycle++
	if fc.prevCycle >= frameStepCycles[fc.stepMode][fc.curStep] {
		if !fc.inhibitIRQ && fc.stepMode == 0 && fc.curStep >= 3 {
			fc.irqPending = true
		}

		typ := frameStepTypes[fc.stepMode][fc.curStep]
		if typ != noFrame && fc.blockTick == 0 {
			result = typ
			// Do not allow a $4017 write to clock the frame counter again
			// for the next cycle.
			fc.blockTick = 2
		}

		fc.curStep++
		if fc.curStep == 6 {
			fc.curStep = 0
			fc.prevCycle = 0
		}
	}

	if fc.pendingWrite {
		fc.writeDelayCounter--
		if fc.writeDelayCounter == 0 {
			fc.pendingWrite = false
			fc.curStep = 0
			fc.prevCycle = 0
			if fc.pendingVal&0x80 != 0 {
				fc.stepMode = 1
			} else {
				fc.stepMode = 0
			}

			if fc.stepMode != 0 && fc.blockTick == 0 {
				// Writing to $4017 with bit 7 set immediately clocks both
				// the quarter-frame and half-frame units.
				result = halfFrame
				fc.blockTick = 2
			}
		}
	}

	if fc.blockTick > 0 {
		fc.blockTick--
	}

	return result
}

func (fc *frameCounter) readIRQ(peek bool) bool {
	pending := fc.irqPending
	if !peek {
		fc.irqPending = false
	}
	return pending
}

func (fc *frameCounter) encode(e *jx.Encoder, prefix string) {
	e.FieldStart(prefix + "PrevCycle")
	e.Int(int(fc.prevCycle))
	e.FieldStart(prefix + "CurStep")
	e.Int(fc.curStep)
	e.FieldStart(prefix + "StepMode")
	e.Int(fc.stepMode)
	e.FieldStart(prefix + "InhibitIRQ")
	e.Bool(fc.inhibitIRQ)
	e.FieldStart(prefix + "IRQPending")
	e.Bool(fc.irqPending)
	e.FieldStart(prefix + "BlockTick")
	e.Int(int(fc.blockTick))
	e.FieldStart(prefix + "PendingWrite")
	e.Bool(fc.pendingWrite)
	e.FieldStart(prefix + "PendingVal")
	e.Int(int(fc.pendingVal))
	e.FieldStart(prefix + "WriteDelayCounter")
	e.Int(int(fc.writeDelayCounter))
}

func (fc *frameCounter) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	switch key {
	case prefix + "PrevCycle":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.prevCycle = int32(v)
	case prefix + "CurStep":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.curStep = v
	case prefix + "StepMode":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.stepMode = v
	case prefix + "InhibitIRQ":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		fc.inhibitIRQ = v
	case prefix + "IRQPending":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		fc.irqPending = v
	case prefix + "BlockTick":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.blockTick = uint8(v)
	case prefix + "PendingWrite":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		fc.pendingWrite = v
	case prefix + "PendingVal":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.pendingVal = uint8(v)
	case prefix + "WriteDelayCounter":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		fc.writeDelayCounter = int8(v)
	default:
		return false, nil
	}
	return true, nil
}
