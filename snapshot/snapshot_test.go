package snapshot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeComponent struct {
	data []byte
}

func (f *fakeComponent) Serialize() ([]byte, error) { return f.data, nil }
func (f *fakeComponent) Deserialize(data []byte) error {
	f.data = append([]byte(nil), data...)
	return nil
}

func TestEncodeDecodeApplyRoundTrip(t *testing.T) {
	cpu := &fakeComponent{data: []byte("cpu-state")}
	ppu := &fakeComponent{data: []byte("ppu-state")}
	apu := &fakeComponent{data: []byte("apu-state")}
	mp := &fakeComponent{data: []byte("mapper-state")}

	blob, err := Encode(0xDEADBEEF, cpu, ppu, apu, mp)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	doc, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Version != Version {
		t.Errorf("Version = %d, want %d", doc.Version, Version)
	}
	if doc.ROMChecksum != 0xDEADBEEF {
		t.Errorf("ROMChecksum = %#x, want %#x", doc.ROMChecksum, uint32(0xDEADBEEF))
	}

	cpu2 := &fakeComponent{}
	ppu2 := &fakeComponent{}
	apu2 := &fakeComponent{}
	mp2 := &fakeComponent{}
	if err := Apply(doc, 0xDEADBEEF, cpu2, ppu2, apu2, mp2); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if diff := cmp.Diff(cpu.data, cpu2.data); diff != "" {
		t.Errorf("cpu component mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(mp.data, mp2.data); diff != "" {
		t.Errorf("mapper component mismatch:\n%s", diff)
	}
}

func TestApplyProceedsOnChecksumMismatch(t *testing.T) {
	cpu := &fakeComponent{data: []byte("x")}
	ppu := &fakeComponent{data: []byte("y")}
	apu := &fakeComponent{data: []byte("z")}
	mp := &fakeComponent{data: []byte("w")}

	blob, err := Encode(1, cpu, ppu, apu, mp)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if err := Load(blob, 2, cpu, ppu, apu, mp); err != nil {
		t.Fatalf("Load should warn but proceed on a checksum mismatch, got error: %v", err)
	}
}
