package console

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/hw/controller"
	"nescore/ines"
)

// buildRom assembles a minimal NROM (mapper 0) image: 32KiB of PRG filled
// with NOPs and a reset vector pointing at the start of the bank, enough to
// let RunFrame drive the CPU without ever halting or branching anywhere
// interesting.
func buildRom(t *testing.T) []byte {
	t.Helper()
	const prgSize = 32 * 1024
	const chrSize = 8 * 1024

	hdr := make([]byte, 16)
	copy(hdr, ines.Magic)
	hdr[4] = 2 // 2x 16KiB PRG banks
	hdr[5] = 1 // 1x 8KiB CHR bank

	buf := make([]byte, 16+prgSize+chrSize)
	copy(buf, hdr)

	prg := buf[16 : 16+prgSize]
	for i := range prg {
		prg[i] = 0xEA // NOP
	}
	prg[0x7FFC] = 0x00 // reset vector low -> $8000
	prg[0x7FFD] = 0x80 // reset vector high
	return buf
}

func TestLoadROMPowerOnRunFrame(t *testing.T) {
	c := New(DefaultConfig())
	if err := c.LoadROM(buildRom(t)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.PowerOn()

	frame, audio := c.RunFrame()
	if frame == nil {
		t.Fatal("RunFrame returned a nil frame buffer")
	}
	if len(audio)%2 != 0 {
		t.Errorf("RunFrame returned an odd-length interleaved audio slice: %d", len(audio))
	}
}

func TestButtonDownUpReachesPad(t *testing.T) {
	c := New(DefaultConfig())
	if err := c.LoadROM(buildRom(t)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.PowerOn()

	c.ButtonDown(1, controller.A)
	c.Pad1.Strobe(1)
	if v := c.Pad1.Read(); v&0x01 == 0 {
		t.Error("ButtonDown(1, A) did not reach Pad1")
	}
	c.ButtonUp(1, controller.A)
	c.Pad1.Strobe(1)
	if v := c.Pad1.Read(); v&0x01 != 0 {
		t.Error("ButtonUp(1, A) did not clear Pad1's A button")
	}
}

func TestZapperMoveFire(t *testing.T) {
	c := New(DefaultConfig())
	if err := c.LoadROM(buildRom(t)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.PowerOn()

	c.ZapperMove(12, 34)
	c.ZapperFire(true)
	if c.Zapper.X != 12 || c.Zapper.Y != 34 || !c.Zapper.Trigger {
		t.Errorf("zapper state after Move/Fire = %+v", c.Zapper)
	}
	c.ZapperFire(false)
	if c.Zapper.Trigger {
		t.Error("ZapperFire(false) did not release the trigger")
	}
}

// TestSaveLoadStateRoundTrip exercises property #7 at the orchestrator
// level: running a frame, saving, running more frames, then loading the
// saved state must reproduce the saved CPU/PPU/APU/mapper bytes exactly.
func TestSaveLoadStateRoundTrip(t *testing.T) {
	c := New(DefaultConfig())
	if err := c.LoadROM(buildRom(t)); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	c.PowerOn()
	c.RunFrame()

	saved, err := c.SaveState()
	if err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	c.RunFrame()
	c.RunFrame()

	if err := c.LoadState(saved); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	resaved, err := c.SaveState()
	if err != nil {
		t.Fatalf("re-SaveState: %v", err)
	}
	if diff := cmp.Diff(saved, resaved); diff != "" {
		t.Errorf("load did not restore the exact saved document:\n%s", diff)
	}
}
