package apu

import "github.com/go-faster/jx"

// sequencerTimer is the per-channel divider that clocks a channel's
// sequencer. Reworked from a conventional channel-timer implementation's lazy
// run(targetCycle) catch-up form into a direct once-per-CPU-cycle
// decrement, since the apu package is ticked one CPU cycle at a time
// (spec §4.4's "2·period+1" and "period+1" reload values are CPU-cycle
// counts either way, so the two forms are equivalent).
type sequencerTimer struct {
	value  uint16
	period uint16
}

func (t *sequencerTimer) reset() {
	t.value = 0
	t.period = 0
}

// tick decrements the divider and reports whether it just reloaded,
// meaning the channel's sequencer should advance this cycle.
func (t *sequencerTimer) tick() bool {
	if t.value == 0 {
		t.value = t.period
		return true
	}
	t.value--
	return false
}

func (t *sequencerTimer) encode(e *jx.Encoder, prefix string) {
	e.FieldStart(prefix + "Value")
	e.Int(int(t.value))
	e.FieldStart(prefix + "Period")
	e.Int(int(t.period))
}

// decodeField restores one field encode wrote; returns false if key
// doesn't belong to this timer under prefix.
func (t *sequencerTimer) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	switch key {
	case prefix + "Value":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		t.value = uint16(v)
	case prefix + "Period":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		t.period = uint16(v)
	default:
		return false, nil
	}
	return true, nil
}
