package ppu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := New()
	// New() starts in warm-up, so the CTRL, MASK and ADDR writes below only
	// update the I/O latch; the $2007 write and the ticks change the rest.
	p.WriteRegister(0x2000, 0x80) // PPUCTRL: enable NMI
	p.WriteRegister(0x2001, 0x1E) // PPUMASK: show everything
	p.WriteRegister(0x2006, 0x21)
	p.WriteRegister(0x2006, 0x08)
	p.WriteRegister(0x2007, 0x42)
	for i := 0; i < 5000; i++ {
		p.Tick(int64(i) * ppuClockDivider)
	}

	blob, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	p2 := New()
	if err := p2.Deserialize(blob); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	blob2, err := p2.Serialize()
	if err != nil {
		t.Fatalf("re-serialize: %v", err)
	}
	if diff := cmp.Diff(blob, blob2); diff != "" {
		t.Errorf("save -> load -> save produced a different document:\n%s", diff)
	}
}
