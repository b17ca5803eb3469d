package mapper

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/ines"
)

// buildRom assembles a minimal iNES 1.0 image for mapperID with prgBanks
// 16 KiB PRG banks and chrBanks 8 KiB CHR banks, enough for every variant's
// construction path to succeed.
func buildRom(t *testing.T, mapperID uint8, prgBanks, chrBanks int) *ines.Rom {
	t.Helper()
	hdr := make([]byte, 16)
	copy(hdr, ines.Magic)
	hdr[4] = byte(prgBanks)
	hdr[5] = byte(chrBanks)
	hdr[6] = (mapperID & 0x0F) << 4
	hdr[7] = mapperID & 0xF0 // not NES 2.0 (bits 2-3 left clear)
	buf := make([]byte, 16+prgBanks*16384+chrBanks*8192)
	copy(buf, hdr)
	rom, err := ines.Parse(buf)
	if err != nil {
		t.Fatalf("buildRom: %v", err)
	}
	return rom
}

// TestSerializeDeserializeRoundTrip exercises property #7 (save -> load ->
// save is idempotent) against every registered mapper id.
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	for id := range registry {
		id := id
		t.Run("", func(t *testing.T) {
			rom := buildRom(t, uint8(id), 4, 2)
			m := New(rom)

			// Drive a handful of representative writes through each
			// variant's CPU/PPU ports so extra state (bank selects, IRQ
			// counters) is non-zero before the round trip.
			m.CPUWrite(0x8000, 0x01)
			m.CPUWrite(0xA000, 0x02)
			m.CPUWrite(0xC000, 0x03)
			m.CPUWrite(0xE000, 0x04)
			m.PPURead(0x0000, FetchBackground)

			blob, err := m.Serialize()
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}

			m2 := New(rom)
			if err := m2.Deserialize(blob); err != nil {
				t.Fatalf("Deserialize: %v", err)
			}

			blob2, err := m2.Serialize()
			if err != nil {
				t.Fatalf("re-serialize: %v", err)
			}
			if diff := cmp.Diff(blob, blob2); diff != "" {
				t.Errorf("mapper %d: save -> load -> save produced a different document:\n%s", id, diff)
			}
		})
	}
}
