// Package log provides the structured, low-overhead logging used across the
// core. It wraps logrus with a small chain-style Entry so call sites read
// like log.ModCPU.WarnZ("halted").Hex16("pc", pc).End() without allocating
// a map when the level is disabled.
package log

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

type Module uint

const (
	ModEmu Module = iota
	ModCPU
	ModPPU
	ModAPU
	ModMapper
	ModInES
	ModInput
	ModSnapshot

	numModules
)

var modNames = [numModules]string{
	"emu", "cpu", "ppu", "apu", "mapper", "ines", "input", "snapshot",
}

func (m Module) String() string {
	if int(m) < len(modNames) {
		return modNames[m]
	}
	return "<unknown>"
}

// Level mirrors logrus levels so callers never need to import logrus
// directly.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func toLogrus(l Level) logrus.Level { return logrus.Level(l) }

// SetLevel adjusts the global verbosity, mirroring a conventional
// EnableDebugModules/DisableDebugModules but collapsed to one knob since the
// core has far fewer modules than a full emulator frontend.
func SetLevel(l Level) { logrus.SetLevel(toLogrus(l)) }

type field struct {
	key   string
	value string
}

// Entry accumulates fields for a single log line. The zero value, returned
// when the level is disabled, silently swallows every chained call so
// call sites never need a level check of their own.
type Entry struct {
	mod    Module
	lvl    Level
	msg    string
	fields []field
	live   bool
}

func newEntry(mod Module, lvl Level, msg string) *Entry {
	if !logrus.IsLevelEnabled(toLogrus(lvl)) {
		return &Entry{live: false}
	}
	return &Entry{mod: mod, lvl: lvl, msg: msg, live: true}
}

func (m Module) DebugZ(msg string) *Entry { return newEntry(m, DebugLevel, msg) }
func (m Module) InfoZ(msg string) *Entry  { return newEntry(m, InfoLevel, msg) }
func (m Module) WarnZ(msg string) *Entry  { return newEntry(m, WarnLevel, msg) }
func (m Module) ErrorZ(msg string) *Entry { return newEntry(m, ErrorLevel, msg) }
func (m Module) PanicZ(msg string) *Entry { return newEntry(m, PanicLevel, msg) }

func (e *Entry) add(key, val string) *Entry {
	if e == nil || !e.live {
		return e
	}
	e.fields = append(e.fields, field{key, val})
	return e
}

func (e *Entry) String(key, val string) *Entry  { return e.add(key, val) }
func (e *Entry) Bool(key string, v bool) *Entry {
	if v {
		return e.add(key, "true")
	}
	return e.add(key, "false")
}
func (e *Entry) Int(key string, v int) *Entry       { return e.add(key, strconv.Itoa(v)) }
func (e *Entry) Uint8(key string, v uint8) *Entry   { return e.add(key, strconv.FormatUint(uint64(v), 10)) }
func (e *Entry) Uint16(key string, v uint16) *Entry { return e.add(key, strconv.FormatUint(uint64(v), 10)) }
func (e *Entry) Uint32(key string, v uint32) *Entry { return e.add(key, strconv.FormatUint(uint64(v), 10)) }
func (e *Entry) Hex8(key string, v uint8) *Entry    { return e.add(key, fmt.Sprintf("%02x", v)) }
func (e *Entry) Hex16(key string, v uint16) *Entry  { return e.add(key, fmt.Sprintf("%04x", v)) }
func (e *Entry) Hex32(key string, v uint32) *Entry  { return e.add(key, fmt.Sprintf("%08x", v)) }
func (e *Entry) Error(key string, err error) *Entry {
	if err == nil {
		return e.add(key, "<nil>")
	}
	return e.add(key, err.Error())
}
func (e *Entry) Stringer(key string, v fmt.Stringer) *Entry { return e.add(key, v.String()) }
func (e *Entry) Blob(key string, b []byte) *Entry           { return e.add(key, hex.EncodeToString(b)) }

// End flushes the entry to the underlying logger. No-op on a disabled entry.
func (e *Entry) End() {
	if e == nil || !e.live {
		return
	}
	fields := make(logrus.Fields, len(e.fields)+1)
	fields["mod"] = e.mod.String()
	for _, f := range e.fields {
		fields[f.key] = f.value
	}
	logrus.WithFields(fields).Log(toLogrus(e.lvl), e.msg)
}
