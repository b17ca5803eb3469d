// Package console implements the orchestrator (spec §4.1 "Orchestrator
// (Console)"): it is the sole owner of one CPU, PPU, APU, cartridge+mapper,
// and two controller pads plus a zapper (spec §3 "Ownership"), and exposes
// the host-facing surface a frame pump drives: load_rom, power_on, reset,
// run_frame, button_down/up, zapper_move/fire, save_state, load_state.
// Grounded on `_examples/arl-nestor/emu/nes.go`'s powerUp/Reset/RunOneFrame
// shape; the catch-up-driven PPU/APU advance spec §4.1 describes as a
// second pass per instruction already happens inside hw/cpu's
// cycleBegin/cycleEnd (spec §9's "Cyclic ownership" rules out the
// orchestrator calling into PPU/APU a second time per cycle), so RunFrame
// only needs to drive CPU.Step in a loop and drain the APU's resampler once
// per frame.
package console

import (
	"fmt"

	"nescore/hw/apu"
	"nescore/hw/controller"
	"nescore/hw/cpu"
	"nescore/hw/mapper"
	"nescore/hw/ppu"
	"nescore/ines"
	"nescore/internal/log"
	"nescore/snapshot"
)

// RAMInitPattern selects how the CPU's internal RAM is seeded on a hard
// reset (spec §4.1 "configurable options... RAM init pattern {zero,
// all-ones, random}"). Some games rely on a particular pattern to
// reproduce a specific "uninitialized RAM" glitch, hence it is exposed as
// a config knob rather than hardcoded.
type RAMInitPattern uint8

const (
	RAMZero RAMInitPattern = iota
	RAMAllOnes
	RAMRandom
)

// Config carries every orchestrator-level option spec §4.1 names.
type Config struct {
	SampleRate         float64        `toml:"sample_rate"`
	RAMInitPattern     RAMInitPattern `toml:"ram_init_pattern"`
	PreferredFrameRate float64        `toml:"preferred_frame_rate"`
	EmulateSound       bool           `toml:"emulate_sound"`
}

// DefaultConfig matches the real hardware's NTSC behavior.
func DefaultConfig() Config {
	return Config{
		SampleRate:         44100,
		RAMInitPattern:     RAMZero,
		PreferredFrameRate: 60.0988,
		EmulateSound:       true,
	}
}

// Console is the orchestrator. It is the sole mutator of CPU/PPU/APU
// top-level lifecycle; the mapper remains the sole mutator of its own
// state, reached only through the capability contract (spec §3
// "Ownership").
type Console struct {
	cfg Config

	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Mapper mapper.Mapper
	Rom    *ines.Rom

	Pad1   *controller.Pad
	Pad2   *controller.Pad
	Zapper *controller.Zapper

	audioBuf []int16
}

// New builds an orchestrator with no cartridge loaded yet; call LoadROM
// before PowerOn.
func New(cfg Config) *Console {
	c := &Console{
		cfg:      cfg,
		Pad1:     &controller.Pad{},
		Pad2:     &controller.Pad{},
		Zapper:   &controller.Zapper{},
		audioBuf: make([]int16, 4096),
	}
	return c
}

// LoadROM parses a cartridge image and wires its mapper into the CPU/PPU,
// replacing any previously loaded cartridge (spec §4.1 "load_rom(bytes)").
func (c *Console) LoadROM(data []byte) error {
	rom, err := ines.Parse(data)
	if err != nil {
		return fmt.Errorf("console: load rom: %w", err)
	}
	c.Rom = rom
	c.Mapper = mapper.New(rom)

	c.CPU = cpu.New()
	c.PPU = ppu.New()
	c.APU = apu.New(c.CPU)

	c.CPU.PPU = c.PPU
	c.CPU.APU = c.APU
	c.CPU.Mapper = c.Mapper
	c.CPU.Pad1 = c.Pad1
	c.CPU.Pad2 = c.Pad2
	c.CPU.Zapper = c.Zapper
	c.CPU.SetBeamPositionFunc(c.PPU.BeamPosition)
	c.CPU.SetZapperFrameFunc(c.PPU.BrightnessPlane)

	c.PPU.Mapper = c.Mapper

	c.APU.SetSampleRate(c.cfg.SampleRate)
	c.APU.SetSoundEnabled(c.cfg.EmulateSound)

	log.ModEmu.InfoZ("loaded cartridge").
		Uint16("mapper", rom.Mapper()).
		Uint32("checksum", rom.Checksum).End()
	return nil
}

// PowerOn performs a hard reset and seeds CPU RAM per the configured
// RAMInitPattern (spec §4.1).
func (c *Console) PowerOn() {
	c.seedRAM()
	c.Reset(false)
}

func (c *Console) seedRAM() {
	switch c.cfg.RAMInitPattern {
	case RAMAllOnes:
		for i := range c.CPU.RAM {
			c.CPU.RAM[i] = 0xFF
		}
	case RAMRandom:
		seed := uint32(0x2545F491)
		for i := range c.CPU.RAM {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			c.CPU.RAM[i] = uint8(seed)
		}
	default:
		for i := range c.CPU.RAM {
			c.CPU.RAM[i] = 0
		}
	}
}

// Reset performs a soft or hard reset across PPU, APU, and CPU, in that
// order (spec §9, grounded on the teacher's powerUp/Reset sequencing).
func (c *Console) Reset(soft bool) {
	c.PPU.Reset()
	c.APU.Reset(soft)
	c.CPU.Reset(soft)
	c.Mapper.Reset()
}

// RunFrame drives the CPU one instruction at a time until the PPU signals
// the frame is complete, then drains the APU's resampled audio (spec §4.1
// "Frame algorithm"). It returns the just-rendered frame buffer and the
// interleaved stereo PCM samples produced this frame.
func (c *Console) RunFrame() (frame *[256 * 240]uint32, audio []int16) {
	c.PPU.StartFrame()
	for !c.PPU.FrameComplete() && !c.CPU.IsHalted() {
		c.CPU.Step()
	}
	n := c.APU.ReadOutputSamples(c.audioBuf)
	return &c.PPU.FrameBuffer, c.audioBuf[:n*2]
}

// ButtonDown/ButtonUp implement spec §4.1's button_down/up(pad, button).
func (c *Console) ButtonDown(pad int, b controller.Button) { c.pad(pad).SetButton(b, true) }
func (c *Console) ButtonUp(pad int, b controller.Button)   { c.pad(pad).SetButton(b, false) }

func (c *Console) pad(n int) *controller.Pad {
	if n == 2 {
		return c.Pad2
	}
	return c.Pad1
}

// ZapperMove/ZapperFire implement spec §4.1's zapper_move/fire.
func (c *Console) ZapperMove(x, y int) { c.Zapper.Move(x, y) }
func (c *Console) ZapperFire(down bool) {
	if down {
		c.Zapper.FireDown()
	} else {
		c.Zapper.FireUp()
	}
}

// SaveState and LoadState implement spec §4.1's save_state/load_state by
// delegating to the snapshot package (spec §6 "Save state").
func (c *Console) SaveState() ([]byte, error) {
	return snapshot.Encode(c.Rom.Checksum, c.CPU, c.PPU, c.APU, c.Mapper)
}

func (c *Console) LoadState(data []byte) error {
	return snapshot.Load(data, c.Rom.Checksum, c.CPU, c.PPU, c.APU, c.Mapper)
}
