package cpu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	c := New()
	c.A, c.X, c.Y = 0x11, 0x22, 0x33
	c.SP, c.PC, c.P = 0xF0, 0xC000, 0x24
	c.RAM[0x0000] = 0xAA
	c.RAM[0x07FF] = 0xBB
	c.openBus = 0x5A
	c.Cycles = 123456
	c.masterClock = 7890
	c.nmiLine, c.needNMI = true, true
	c.runIRQ = true
	c.irqFlag = irqDMC
	c.halted = true

	blob, err := c.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	c2 := New()
	if err := c2.Deserialize(blob); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	blob2, err := c2.Serialize()
	if err != nil {
		t.Fatalf("re-serialize: %v", err)
	}
	if diff := cmp.Diff(blob, blob2); diff != "" {
		t.Errorf("save -> load -> save produced a different document:\n%s", diff)
	}

	if c2.A != c.A || c2.PC != c.PC || c2.RAM[0x07FF] != c.RAM[0x07FF] {
		t.Errorf("restored CPU state does not match original: got %+v", c2)
	}
}
