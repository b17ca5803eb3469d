// Package apu implements the audio processing unit (spec §4.4 "APU"): the
// two pulse channels, triangle, noise, and DMC, their shared
// envelope/length-counter mechanics, the 4-/5-step frame counter, and the
// lookup-table mixer. Grounded on a conventional per-channel APU decomposition for the
// per-channel state machines (envelope divider, sweep target-period
// computation, length-counter load table, triangle linear counter, noise
// LFSR, DMC buffer/IRQ state machine); a lazy catch-up
// scheduler (Timer.Run(targetCycle), APU.Run()) is replaced with a
// straightforward per-CPU-cycle tick loop, since cpu.cycleBegin already invokes
// APU.Tick() exactly once per CPU cycle — an equivalent, simpler drive
// mechanism that needs no batching. The final mix stage is the literal
// precomputed lookup-table formula from spec §4.4 rather than a
// direct non-linear formula.
package apu

// Channel names a built-in audio channel, used for mixer pan weights.
type Channel int

const (
	ChannelPulse1 Channel = iota
	ChannelPulse2
	ChannelTriangle
	ChannelNoise
	ChannelDMC
	numChannels
)

// CPUBus is the narrow view of the CPU the DMC channel needs for its
// sample-fetch bus reads (spec §9 "do not model this as pointer loops"): the
// apu package never imports cpu, so console is the only place that wires
// the concrete *cpu.CPU in.
type CPUBus interface {
	// ReadSample performs a raw bus read, advancing the CPU's open-bus
	// latch like a real read (spec §4.4 "advances the CPU open-bus latch").
	ReadSample(addr uint16) uint8
	// StallCycles advances the CPU (and PPU) clock by n cycles with no
	// instruction executing (spec §4.4 "costs 4 stall cycles").
	StallCycles(n int)
}

// ExpansionSource is the "register expansion source" hook (spec §4.4
// "Expansion audio"): a cartridge-side audio generator the orchestrator
// registers with the APU so it is clocked alongside the built-in channels
// and its sample summed into the mix before DC blocking.
type ExpansionSource interface {
	Clock()
	Sample() float64
}

type frameType uint8

const (
	noFrame frameType = iota
	quarterFrame
	halfFrame
)
