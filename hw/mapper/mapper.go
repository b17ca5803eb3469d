// Package mapper implements the polymorphic cartridge mapper layer (spec
// §4.5 "Mapper layer (capability contract)"). Every variant is a concrete
// Go type satisfying the Mapper interface; optional behavior is expressed
// as additional small interfaces the orchestrator and PPU type-assert for,
// never by reflection or method-presence probing (spec §9 "Polymorphic
// mapper").
package mapper

import (
	"nescore/ines"
	"nescore/internal/log"
)

// FetchContext distinguishes which kind of PPU fetch produced a ppuRead
// call, since some mappers (CHR latch variants, MMC5) behave differently
// for background vs. sprite fetches.
type FetchContext uint8

const (
	FetchBackground FetchContext = iota
	FetchSprite
	FetchAttribute
)

// NTContext distinguishes a nametable-override access by what the PPU was
// fetching: the tile byte, the attribute byte, or a plain CPU-side access
// to the mapper's nametable-shadowing RAM (ExRAM and similar).
type NTContext uint8

const (
	NTTile NTContext = iota
	NTAttribute
	NTCPU
)

// Capabilities are declared once at construction (spec §4.5). The PPU and
// console consult these flags to decide which optional interfaces to
// type-assert for, rather than probing method presence.
type Capabilities struct {
	HasScanlineIRQ        bool
	HasNametableOverride  bool
	HasPerTileAttributes  bool
	HasCHRLatch           bool
}

// Mapper is the required contract every cartridge mapper implements.
type Mapper interface {
	CPURead(addr uint16) (val uint8, ok bool)
	CPUWrite(addr uint16, val uint8)
	PPURead(addr uint16, ctx FetchContext) (val uint8, ok bool)
	PPUWrite(addr uint16, val uint8) (consumed bool)
	Reset()
	Capabilities() Capabilities
	Mirroring() ines.NTMirroring
	Name() string

	// Serialize encodes the mapper's mutable state (bank selection, IRQ
	// counters, writable RAM) into a self-contained document; Deserialize
	// restores it against the same cartridge image (spec §4.5 "serialize;
	// deserialize", spec §6 "Save state").
	Serialize() ([]byte, error)
	Deserialize(data []byte) error
}

// ScanlineIRQer is implemented by mappers with HasScanlineIRQ == true.
type ScanlineIRQer interface {
	ClockScanline()
	IRQPending() bool
	AckIRQ()
}

// NametableOverrider is implemented by mappers with HasNametableOverride.
type NametableOverrider interface {
	ReadNametable(addr uint16, ctx NTContext) (val uint8, ok bool)
	WriteNametable(addr uint16, val uint8) (consumed bool)
}

// PerTileAttributer is implemented by mappers with HasPerTileAttributes.
type PerTileAttributer interface {
	ExtendedAttribute(coarseX, coarseY int) uint8
}

// RegisterWriteObserver receives every CPU-side PPU register write, for
// mappers that must react to e.g. the sprite-size bit (MMC5).
type RegisterWriteObserver interface {
	OnPPURegisterWrite(addr uint16, val uint8)
}

// EndScanliner is called at dot 4 of every rendered scanline.
type EndScanliner interface {
	OnEndScanline(line int)
}

// CPUClocker is called once per CPU cycle elapsed, for mappers with their
// own independent cycle counters (FME-7's and VRC4's IRQ counters; the
// MMC5's CPU-cycle timer is not implemented).
type CPUClocker interface {
	CPUClock(cycles int)
}

// IRQSource is implemented by any mapper that can assert an interrupt,
// regardless of what clocks it (A12 edges for ScanlineIRQer, CPU cycles for
// CPUClocker). The CPU polls IRQPending at the end of every CPU cycle.
type IRQSource interface {
	IRQPending() bool
	AckIRQ()
}

// A12Watcher receives every PPU pattern-space fetch address so it can run
// its own rising-edge detection independent of the PPU's MMC3-style filter.
// No mapper in this package implements it; VRC4's counter runs on CPU
// cycles through CPUClocker.
type A12Watcher interface {
	WatchA12(addr uint16)
}

// New builds the mapper for a parsed ROM's declared mapper id, falling
// back to NROM with a warning on an unsupported id (spec §7 "Unknown
// mapper").
func New(rom *ines.Rom) Mapper {
	ctor, ok := registry[rom.Mapper()]
	if !ok {
		log.ModMapper.WarnZ("unsupported mapper id, falling back to NROM").
			Uint16("mapper", rom.Mapper()).End()
		return newNROM(rom)
	}
	return ctor(rom)
}

type ctorFunc func(rom *ines.Rom) Mapper

var registry = map[uint16]ctorFunc{
	0:   func(rom *ines.Rom) Mapper { return newNROM(rom) },
	1:   func(rom *ines.Rom) Mapper { return newMMC1(rom) },
	2:   func(rom *ines.Rom) Mapper { return newUxROM(rom) },
	3:   func(rom *ines.Rom) Mapper { return newCNROM(rom) },
	4:   func(rom *ines.Rom) Mapper { return newMMC3(rom, "MMC3", false) },
	5:   func(rom *ines.Rom) Mapper { return newMMC5(rom) },
	6:   func(rom *ines.Rom) Mapper { return newMMC6(rom) },
	7:   func(rom *ines.Rom) Mapper { return newAxROM(rom) },
	9:   func(rom *ines.Rom) Mapper { return newMMC2(rom) },
	10:  func(rom *ines.Rom) Mapper { return newMMC4(rom) },
	11:  func(rom *ines.Rom) Mapper { return newColorDreams(rom) },
	25:  func(rom *ines.Rom) Mapper { return newVRC(rom, rom.SubMapper()) },
	34:  func(rom *ines.Rom) Mapper { return newBNROM(rom) },
	66:  func(rom *ines.Rom) Mapper { return newGxROM(rom) },
	69:  func(rom *ines.Rom) Mapper { return newFME7(rom) },
	79:  func(rom *ines.Rom) Mapper { return newNINA0306(rom) },
	206: func(rom *ines.Rom) Mapper { return newMMC3(rom, "DxROM", true) },
}

func clampBank(bank, count int) int {
	if count <= 0 {
		return 0
	}
	bank %= count
	if bank < 0 {
		bank += count
	}
	return bank
}
