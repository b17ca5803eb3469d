package apu

import "github.com/go-faster/jx"

// envelope is the divider/decay-counter pair shared by the pulse and noise
// channels (spec §4.4 "five channels share a common envelope/length-counter
// mechanism"). Grounded on a conventional envelope-unit implementation.
type envelope struct {
	constantVolume bool
	volume         uint8

	start   bool
	divider int8
	counter uint8

	length lengthCounter
}

func (e *envelope) init(regValue uint8) {
	e.length.init(regValue&0x20 != 0)
	e.constantVolume = regValue&0x10 != 0
	e.volume = regValue & 0x0F
}

func (e *envelope) restart() { e.start = true }

func (e *envelope) output() uint8 {
	if !e.length.status() {
		return 0
	}
	if e.constantVolume {
		return e.volume
	}
	return e.counter
}

func (e *envelope) reset(soft bool) {
	e.length.reset(soft)
	e.constantVolume = false
	e.volume = 0
	e.start = false
	e.divider = 0
	e.counter = 0
}

func (e *envelope) tick() {
	if !e.start {
		e.divider--
		if e.divider < 0 {
			e.divider = int8(e.volume)
			if e.counter > 0 {
				e.counter--
			} else if e.length.halt {
				e.counter = 15
			}
		}
		return
	}
	e.start = false
	e.counter = 15
	e.divider = int8(e.volume)
}

func (e *envelope) encode(enc *jx.Encoder, prefix string) {
	enc.FieldStart(prefix + "ConstantVolume")
	enc.Bool(e.constantVolume)
	enc.FieldStart(prefix + "Volume")
	enc.Int(int(e.volume))
	enc.FieldStart(prefix + "Start")
	enc.Bool(e.start)
	enc.FieldStart(prefix + "Divider")
	enc.Int(int(e.divider))
	enc.FieldStart(prefix + "Counter")
	enc.Int(int(e.counter))
	e.length.encode(enc, prefix+"Length")
}

func (e *envelope) decodeField(d *jx.Decoder, prefix, key string) (bool, error) {
	if ok, err := e.length.decodeField(d, prefix+"Length", key); ok {
		return true, err
	}
	switch key {
	case prefix + "ConstantVolume":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		e.constantVolume = v
	case prefix + "Volume":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		e.volume = uint8(v)
	case prefix + "Start":
		v, err := d.Bool()
		if err != nil {
			return true, err
		}
		e.start = v
	case prefix + "Divider":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		e.divider = int8(v)
	case prefix + "Counter":
		v, err := d.Int()
		if err != nil {
			return true, err
		}
		e.counter = uint8(v)
	default:
		return false, nil
	}
	return true, nil
}
