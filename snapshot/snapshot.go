// Package snapshot implements the versioned save-state document: it
// composes the CPU, PPU, APU, and mapper's own serialized blobs into one
// document and round-trips it to bytes (spec §3 "On save, state serializes
// as a versioned document; on load, typed-array fields round-trip
// exactly", spec §6 "Save state").
package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"

	"nescore/internal/log"
)

// Version is bumped whenever a field is added, removed, or reinterpreted
// in any component's Serialize output, since a document's component blobs
// are opaque to everything outside their own package.
const Version = 1

// Component is any hardware unit that owns its own save-state encoding.
// cpu.CPU, ppu.PPU, apu.APU, and every mapper.Mapper implementation satisfy
// this (spec §4.5 "every mapper implement serialize;deserialize").
type Component interface {
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
}

// Document is the top-level save state: one opaque blob per component plus
// a checksum of the cartridge it was taken against.
type Document struct {
	Version     int
	ROMChecksum uint32

	CPU    []byte
	PPU    []byte
	APU    []byte
	Mapper []byte
}

// Encode serializes cpu, ppu, apu, and mapper into a single Document and
// returns its jx-encoded bytes.
func Encode(romChecksum uint32, cpu, ppu, apu, mapper Component) ([]byte, error) {
	cpuBlob, err := cpu.Serialize()
	if err != nil {
		return nil, fmt.Errorf("snapshot: serialize cpu: %w", err)
	}
	ppuBlob, err := ppu.Serialize()
	if err != nil {
		return nil, fmt.Errorf("snapshot: serialize ppu: %w", err)
	}
	apuBlob, err := apu.Serialize()
	if err != nil {
		return nil, fmt.Errorf("snapshot: serialize apu: %w", err)
	}
	mapperBlob, err := mapper.Serialize()
	if err != nil {
		return nil, fmt.Errorf("snapshot: serialize mapper: %w", err)
	}

	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("version")
	e.Int(Version)
	e.FieldStart("romChecksum")
	e.Int64(int64(romChecksum))
	e.FieldStart("cpu")
	e.Base64(cpuBlob)
	e.FieldStart("ppu")
	e.Base64(ppuBlob)
	e.FieldStart("apu")
	e.Base64(apuBlob)
	e.FieldStart("mapper")
	e.Base64(mapperBlob)
	e.ObjEnd()

	log.ModSnapshot.DebugZ("encoded save state").
		Uint32("romChecksum", romChecksum).
		Int("bytes", len(e.Bytes())).End()
	return e.Bytes(), nil
}

// Decode parses data into a Document without applying it to any component.
func Decode(data []byte) (*Document, error) {
	doc := &Document{}
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "version":
			v, err := d.Int()
			if err != nil {
				return err
			}
			doc.Version = v
		case "romChecksum":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			doc.ROMChecksum = uint32(v)
		case "cpu":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			doc.CPU = v
		case "ppu":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			doc.PPU = v
		case "apu":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			doc.APU = v
		case "mapper":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			doc.Mapper = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return doc, nil
}

// Apply restores doc's component blobs into cpu, ppu, apu, and mapper. If
// doc's romChecksum doesn't match currentROMChecksum, the mismatch is
// logged and the load proceeds anyway (spec §7 "Save-state mismatch...
// warn but proceed").
func Apply(doc *Document, currentROMChecksum uint32, cpu, ppu, apu, mapper Component) error {
	if doc.ROMChecksum != currentROMChecksum {
		log.ModSnapshot.WarnZ("save state checksum mismatch").
			Uint32("expected", currentROMChecksum).
			Uint32("saved", doc.ROMChecksum).End()
	}
	if err := cpu.Deserialize(doc.CPU); err != nil {
		return fmt.Errorf("snapshot: deserialize cpu: %w", err)
	}
	if err := ppu.Deserialize(doc.PPU); err != nil {
		return fmt.Errorf("snapshot: deserialize ppu: %w", err)
	}
	if err := apu.Deserialize(doc.APU); err != nil {
		return fmt.Errorf("snapshot: deserialize apu: %w", err)
	}
	if err := mapper.Deserialize(doc.Mapper); err != nil {
		return fmt.Errorf("snapshot: deserialize mapper: %w", err)
	}
	return nil
}

// Load decodes data and applies it in one step, the common case for a
// console's LoadState call.
func Load(data []byte, currentROMChecksum uint32, cpu, ppu, apu, mapper Component) error {
	doc, err := Decode(data)
	if err != nil {
		return err
	}
	return Apply(doc, currentROMChecksum, cpu, ppu, apu, mapper)
}
