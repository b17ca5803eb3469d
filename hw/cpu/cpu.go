// Package cpu implements the 6502-class CPU core (spec §4.2 "CPU (6502
// core)"): the documented instruction set, addressing modes, interrupt
// dispatch, the open-bus latch, and cycle accounting. Grounded on
// a conventional 6502 core for the master-clock-driven PPU/APU ticking
// scheme, the NMI edge-detector shape, and the Read8/Write8/push/pull bus
// plumbing; the opcode table itself is authored fresh against the
// documented 6502 instruction set since a reference opcodes.go file
// repository root only stubs a handful of opcodes.
package cpu

import (
	"nescore/hw/controller"
	"nescore/hw/hwdefs"
	"nescore/hw/mapper"
	"nescore/internal/log"

	"github.com/go-faster/jx"
)

const (
	NMIVector   = uint16(0xFFFA)
	ResetVector = uint16(0xFFFC)
	IRQVector   = uint16(0xFFFE)
)

// PPU is the narrow view the CPU needs of the PPU, satisfied by
// hw/ppu.PPU. Kept as a local interface (spec §9 "do not model this as
// pointer loops") so neither package imports the other; console wires the
// concrete type in.
type PPU interface {
	// Tick advances the PPU to absolute masterClock, the same clock domain
	// the CPU's cycleBegin/cycleEnd maintain.
	Tick(masterClock int64)
	ReadRegister(reg uint16, peek bool) uint8
	WriteRegister(reg uint16, val uint8)
	// PollNMI reports whether the PPU's internal NMI line is currently
	// asserted; the CPU does its own edge detection over consecutive polls.
	PollNMI() bool
}

// APU is the narrow view the CPU needs of the APU.
type APU interface {
	Tick()
	ReadStatus(peek bool) uint8
	WriteRegister(addr uint16, val uint8)
	IRQPending() bool
	// ReadDebugRegister serves the read-only $4018-$401A instantaneous DAC
	// mirror; addr is the full CPU address.
	ReadDebugRegister(addr uint16) uint8
}

// irqSource distinguishes which device asserted IRQ; hwdefs.IRQSource
// carries the bitmask and its String() formatting so the cpu and apu
// packages share one vocabulary for IRQ diagnostics.
type irqSource = hwdefs.IRQSource

const (
	irqExternal     = hwdefs.External
	irqFrameCounter = hwdefs.FrameCounter
	irqDMC          = hwdefs.DMC
)

// CPU is the 6502 core. It owns the 64KiB logical address space dispatch
// and the open-bus latch; PPU/APU/mapper/controller are narrow interfaces
// so the console package is the only place that wires concrete types
// together (spec §9 "Cyclic ownership").
type CPU struct {
	RAM [0x800]byte

	PPU     PPU
	APU     APU
	Mapper  mapper.Mapper
	Pad1    *controller.Pad
	Pad2    *controller.Pad
	Zapper  *controller.Zapper

	openBus uint8

	Cycles      int64
	masterClock int64

	A, X, Y, SP uint8
	PC          uint16
	P           P

	nmiLine, prevNmiLine bool
	needNMI, prevNeedNMI bool
	runIRQ, prevRunIRQ   bool
	irqFlag              irqSource

	dmaStallCycles int
	halted         bool

	beamFn       func() (int, int)         // resolves the PPU's current beam position, for the zapper
	zapperFrameFn func() ([]uint8, int)    // resolves a brightness plane + row pitch for zapper detection
}

func New() *CPU {
	return &CPU{SP: 0xFD}
}

// SetBeamPositionFunc lets the console wire in a callback the CPU uses to
// resolve the PPU's beam position when the zapper is read, without the cpu
// package importing the ppu package just for that one field.
func (c *CPU) SetBeamPositionFunc(f func() (int, int)) { c.beamFn = f }

// SetZapperFrameFunc lets the console wire in a callback the CPU uses to
// resolve a brightness plane of the just-rendered frame (plus its row
// pitch) when the zapper is read, without the cpu package importing the
// ppu package just for that one field.
func (c *CPU) SetZapperFrameFunc(f func() ([]uint8, int)) { c.zapperFrameFn = f }

func (c *CPU) Reset(soft bool) {
	if soft {
		c.SP -= 3
		c.P.set(FlagInterrupt, true)
	} else {
		c.A, c.X, c.Y = 0, 0, 0
		c.runIRQ = false
		c.SP = 0xFD
		c.P = 0
		c.P.set(FlagInterrupt, true)
	}

	c.PC = c.peek16(ResetVector)
	c.Cycles = -1
	c.nmiLine = false
	c.masterClock = ntscCPUDivider

	for i := 0; i < 8; i++ {
		c.cycleBegin(true)
		c.cycleEnd(true)
	}
}

// Run executes instructions until at least ncycles CPU cycles have
// elapsed or the CPU halts; it returns nothing (spec §4.1 step 1's
// CPU.step is one instruction; Run drives a whole-frame loop the way a
// frame-stepped emulator calls CPU.Run(29781) once per frame.
// console.RunFrame does not use it: it calls Step in a loop to match
// spec §4.1's per-instruction accounting).
func (c *CPU) Run(ncycles int64) {
	until := c.Cycles + ncycles
	for c.Cycles < until && !c.halted {
		c.Step()
	}
}

// Step executes exactly one instruction and returns the number of CPU
// cycles it took (spec §4.2 contract).
func (c *CPU) Step() int64 {
	if c.halted {
		return 0
	}
	startCycles := c.Cycles
	if c.Pad1 != nil {
		c.Pad1.BeginInstruction()
	}
	if c.Pad2 != nil {
		c.Pad2.BeginInstruction()
	}
	if mm, ok := c.Mapper.(mmc1BeginInstruction); ok {
		mm.BeginInstruction()
	}

	opcode := c.Read8(c.PC)
	c.PC++
	op := opTable[opcode]
	if op == nil {
		log.ModCPU.WarnZ("unofficial opcode executed as NOP (declared gap)").
			Hex8("opcode", opcode).Hex16("pc", c.PC-1).End()
		op = opNOP
	}
	op(c)

	if c.Pad1 != nil {
		c.Pad1.EndInstruction()
	}
	if c.Pad2 != nil {
		c.Pad2.EndInstruction()
	}

	if !c.halted && (c.prevRunIRQ || c.prevNeedNMI) {
		c.irq()
	}

	return c.Cycles - startCycles
}

// mmc1BeginInstruction lets the CPU notify the MMC1 mapper (and only it)
// that a new instruction is starting, so its same-instruction
// double-write guard (spec scenario 4) resets at the right boundary
// without the mapper package needing any notion of "instruction".
type mmc1BeginInstruction interface{ BeginInstruction() }

func (c *CPU) Halt()         { c.halted = true }
func (c *CPU) IsHalted() bool { return c.halted }

// irq dispatches a pending interrupt at an instruction boundary: NMI takes
// priority over IRQ (spec §4.2 "Interrupt dispatch order").
func (c *CPU) irq() {
	c.Read8(c.PC)
	c.Read8(c.PC)
	c.push16(c.PC)

	if c.needNMI {
		c.needNMI = false
		p := c.P
		p.set(FlagBreak, false)
		p.set(FlagUnused, true)
		c.push8(uint8(p))
		c.P.set(FlagInterrupt, true)
		c.PC = c.Read16(NMIVector)
	} else {
		p := c.P
		p.set(FlagBreak, false)
		p.set(FlagUnused, true)
		c.push8(uint8(p))
		c.P.set(FlagInterrupt, true)
		c.PC = c.Read16(IRQVector)
	}
}

const (
	ntscStartClockCount = 6
	ntscEndClockCount   = 6
	ntscCPUDivider      = 12
	ppuClockOffset      = 1
)

func (c *CPU) cycleBegin(forRead bool) {
	if forRead {
		c.masterClock += ntscStartClockCount - 1
	} else {
		c.masterClock += ntscStartClockCount + 1
	}
	c.Cycles++

	if c.PPU != nil {
		c.PPU.Tick(c.masterClock - ppuClockOffset)
	}
	if c.APU != nil {
		c.APU.Tick()
	}
	if mc, ok := c.Mapper.(mapper.CPUClocker); ok {
		mc.CPUClock(1)
	}
}

func (c *CPU) cycleEnd(forRead bool) {
	if forRead {
		c.masterClock += ntscEndClockCount + 1
	} else {
		c.masterClock += ntscEndClockCount - 1
	}
	if c.PPU != nil {
		c.PPU.Tick(c.masterClock - ppuClockOffset)
	}
	c.handleInterrupts()
}

func (c *CPU) handleInterrupts() {
	c.prevNeedNMI = c.needNMI
	if !c.prevNmiLine && c.nmiLine {
		c.needNMI = true
	}
	c.prevNmiLine = c.nmiLine

	if c.PPU != nil {
		c.nmiLine = c.PPU.PollNMI()
	}

	if c.APU != nil && c.APU.IRQPending() {
		c.irqFlag |= irqFrameCounter
	} else {
		c.irqFlag &^= irqFrameCounter
	}
	if src, ok := c.Mapper.(mapper.IRQSource); ok && src.IRQPending() {
		c.irqFlag |= irqExternal
	} else {
		c.irqFlag &^= irqExternal
	}

	c.prevRunIRQ = c.runIRQ
	c.runIRQ = c.irqFlag != 0 && !c.P.has(FlagInterrupt)
}

// --- bus dispatch (spec §4.2 "CPU bus routing") ---

func (c *CPU) Read8(addr uint16) uint8 {
	c.serviceDMA()
	c.cycleBegin(true)
	val, ok := c.busRead(addr)
	if ok {
		c.openBus = val
	} else {
		val = c.openBus
	}
	c.cycleEnd(true)
	return val
}

// Peek8 reads without ticking a cycle or updating the open-bus latch;
// Reset uses it (through peek16) to fetch the reset vector.
func (c *CPU) Peek8(addr uint16) uint8 {
	val, ok := c.busRead(addr)
	if !ok {
		return c.openBus
	}
	return val
}

// ReadSample performs a raw bus read for the DMC channel's sample fetch. It
// updates the open-bus latch like a real read but does not re-enter cycle
// ticking, since it is called from inside APU.Tick, which already owns the
// current cycle.
func (c *CPU) ReadSample(addr uint16) uint8 {
	val, ok := c.busRead(addr)
	if ok {
		c.openBus = val
	} else {
		val = c.openBus
	}
	return val
}

// StallCycles advances the master clock by n CPU cycles with no instruction
// executing, for the DMC channel's sample-fetch bus stall (spec §4.4 "costs
// 4 stall cycles"). The PPU is kept in sync; the APU is deliberately not
// re-ticked, since this is called from inside APU.Tick itself.
func (c *CPU) StallCycles(n int) {
	c.Cycles += int64(n)
	c.masterClock += int64(n) * ntscCPUDivider
	if c.PPU != nil {
		c.PPU.Tick(c.masterClock - ppuClockOffset)
	}
}

func (c *CPU) peek16(addr uint16) uint16 {
	lo := c.Peek8(addr)
	hi := c.Peek8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) busRead(addr uint16) (uint8, bool) {
	switch {
	case addr < 0x2000:
		return c.RAM[addr&0x7FF], true
	case addr < 0x4000:
		if c.PPU != nil {
			return c.PPU.ReadRegister(0x2000+(addr&0x7), false), true
		}
		return 0, false
	case addr == 0x4015:
		if c.APU != nil {
			return c.APU.ReadStatus(false), true
		}
		return 0, false
	case addr == 0x4016:
		if c.Pad1 != nil {
			return c.Pad1.Read(), true
		}
		return 0, false
	case addr == 0x4017:
		val := uint8(0)
		got := false
		if c.Pad2 != nil {
			val = c.Pad2.Read()
			got = true
		}
		if c.Zapper != nil {
			bx, by := c.beamPosition()
			frame, pitch := c.zapperFrame()
			val = c.Zapper.Read(bx, by, frame, pitch)
			got = true
		}
		return val, got
	case addr >= 0x4018 && addr <= 0x401A:
		if c.APU != nil {
			return c.APU.ReadDebugRegister(addr), true
		}
		return 0, false
	case addr < 0x4020:
		return 0, false // other APU registers are write-only
	case addr >= 0x4020:
		if c.Mapper != nil {
			return c.Mapper.CPURead(addr)
		}
		return 0, false
	}
	return 0, false
}

func (c *CPU) beamPosition() (int, int) {
	if c.beamFn != nil {
		return c.beamFn()
	}
	return 0, 0
}

func (c *CPU) zapperFrame() ([]uint8, int) {
	if c.zapperFrameFn != nil {
		return c.zapperFrameFn()
	}
	return nil, 0
}

func (c *CPU) Write8(addr uint16, val uint8) {
	c.cycleBegin(false)
	c.busWrite(addr, val)
	c.openBus = val
	c.cycleEnd(false)
}

func (c *CPU) busWrite(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		c.RAM[addr&0x7FF] = val
	case addr < 0x4000:
		if c.PPU != nil {
			c.PPU.WriteRegister(0x2000+(addr&0x7), val)
		}
		if obs, ok := c.Mapper.(mapper.RegisterWriteObserver); ok {
			obs.OnPPURegisterWrite(0x2000+(addr&0x7), val)
		}
	case addr == 0x4014:
		c.startOAMDMA(val)
	case addr == 0x4016:
		if c.Pad1 != nil {
			c.Pad1.Strobe(val)
		}
		if c.Pad2 != nil {
			c.Pad2.Strobe(val)
		}
	case addr == 0x4017:
		if c.APU != nil {
			c.APU.WriteRegister(addr, val)
		}
	case addr < 0x4020:
		if c.APU != nil {
			c.APU.WriteRegister(addr, val)
		}
	case addr >= 0x4020:
		if c.Mapper != nil {
			c.Mapper.CPUWrite(addr, val)
		}
	}
}

func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) Write16(addr uint16, val uint16) {
	c.Write8(addr, uint8(val))
	c.Write8(addr+1, uint8(val>>8))
}

func (c *CPU) push8(val uint8) {
	c.Write8(0x0100+uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Read8(0x0100 + uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

// startOAMDMA performs the 256 paired read/writes of spec §4.2's $4014
// handler, stalling the CPU 513 or 514 cycles depending on cycle parity.
func (c *CPU) startOAMDMA(page uint8) {
	c.dmaStallCycles = 513
	if c.Cycles%2 == 1 {
		c.dmaStallCycles = 514
	}
	// One alignment cycle (two on an odd cycle) precedes the 256 pairs.
	for i := c.dmaStallCycles - 512; i > 0; i-- {
		c.cycleBegin(true)
		c.cycleEnd(true)
	}
	base := uint16(page) << 8
	for i := 0; i < 256; i++ {
		b := c.Read8(base + uint16(i))
		c.cycleBegin(false)
		if c.PPU != nil {
			c.PPU.WriteRegister(0x2004, b)
		}
		c.openBus = b
		c.cycleEnd(false)
	}
}

// Serialize encodes every field a save state needs to restore bit-exact
// execution: registers, RAM, the open-bus latch, cycle/clock counters, and
// the latched interrupt-edge state (spec §3 "CPU state", §6 "Save state").
func (c *CPU) Serialize() ([]byte, error) {
	e := &jx.Encoder{}
	e.ObjStart()
	e.FieldStart("ram")
	e.Base64(c.RAM[:])
	e.FieldStart("a")
	e.Int(int(c.A))
	e.FieldStart("x")
	e.Int(int(c.X))
	e.FieldStart("y")
	e.Int(int(c.Y))
	e.FieldStart("sp")
	e.Int(int(c.SP))
	e.FieldStart("pc")
	e.Int(int(c.PC))
	e.FieldStart("p")
	e.Int(int(c.P))
	e.FieldStart("openBus")
	e.Int(int(c.openBus))
	e.FieldStart("cycles")
	e.Int64(c.Cycles)
	e.FieldStart("masterClock")
	e.Int64(c.masterClock)
	e.FieldStart("nmiLine")
	e.Bool(c.nmiLine)
	e.FieldStart("prevNmiLine")
	e.Bool(c.prevNmiLine)
	e.FieldStart("needNMI")
	e.Bool(c.needNMI)
	e.FieldStart("prevNeedNMI")
	e.Bool(c.prevNeedNMI)
	e.FieldStart("runIRQ")
	e.Bool(c.runIRQ)
	e.FieldStart("prevRunIRQ")
	e.Bool(c.prevRunIRQ)
	e.FieldStart("irqFlag")
	e.Int(int(c.irqFlag))
	e.FieldStart("halted")
	e.Bool(c.halted)
	e.ObjEnd()
	return e.Bytes(), nil
}

func (c *CPU) Deserialize(data []byte) error {
	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "ram":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			if len(v) == len(c.RAM) {
				copy(c.RAM[:], v)
			}
		case "a":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.A = uint8(v)
		case "x":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.X = uint8(v)
		case "y":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.Y = uint8(v)
		case "sp":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.SP = uint8(v)
		case "pc":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.PC = uint16(v)
		case "p":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.P = P(v)
		case "openBus":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.openBus = uint8(v)
		case "cycles":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			c.Cycles = v
		case "masterClock":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			c.masterClock = v
		case "nmiLine":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.nmiLine = v
		case "prevNmiLine":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.prevNmiLine = v
		case "needNMI":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.needNMI = v
		case "prevNeedNMI":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.prevNeedNMI = v
		case "runIRQ":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.runIRQ = v
		case "prevRunIRQ":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.prevRunIRQ = v
		case "irqFlag":
			v, err := d.Int()
			if err != nil {
				return err
			}
			c.irqFlag = irqSource(v)
		case "halted":
			v, err := d.Bool()
			if err != nil {
				return err
			}
			c.halted = v
		default:
			return d.Skip()
		}
		return nil
	})
}

func (c *CPU) serviceDMA() {
	// startOAMDMA already spent every stall cycle itself (alignment cycles
	// plus 256 read/write pairs); dmaStallCycles is retained only for callers
	// (e.g. a future cycle-exact trace) that want to report the stall.
	c.dmaStallCycles = 0
}
