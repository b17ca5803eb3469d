// Command nestrun runs a single ROM in a desktop window, grounded on
// `_examples/arl-nestor`'s cli.go/main.go shape (kong CLI, TOML config)
// but trimmed to the one "run a ROM" path that command offers outside its
// GUI/debugger/rom-infos modes, which are out of scope here.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"nescore/cmd/nestrun/hostsdl"
	"nescore/console"
	"nescore/internal/log"
)

type cli struct {
	RomPath string `arg:"" name:"rom" help:"Path to the .nes ROM to run." type:"existingfile"`

	Config    string `name:"config" help:"Path to a TOML config file; written with defaults if missing." default:"nestrun.toml"`
	SaveState string `name:"save-state" help:"Load this save-state file on startup." type:"path"`
	Debug     bool   `name:"debug" help:"Enable debug-level logging."`
}

var vars = kong.Vars{
	"description": "Run a .nes ROM in a desktop window. F5 saves state, F7 loads it.",
}

func main() {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("nestrun"),
		kong.Description(vars["description"]),
		kong.UsageOnError())
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "nestrun: %v\n", err)
		os.Exit(1)
	}
	if ctx.Error != nil {
		fmt.Fprintf(os.Stderr, "nestrun: %v\n", ctx.Error)
		os.Exit(1)
	}

	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(c); err != nil {
		fmt.Fprintf(os.Stderr, "nestrun: %v\n", err)
		os.Exit(1)
	}
}

func run(c cli) error {
	cfg := loadConfigOrDefault(c.Config)
	if _, err := os.Stat(c.Config); os.IsNotExist(err) {
		if err := saveConfig(cfg, c.Config); err != nil {
			log.ModEmu.WarnZ("could not write default config").Error("err", err).End()
		}
	}

	romData, err := os.ReadFile(c.RomPath)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}

	nes := console.New(cfg.Console)
	if err := nes.LoadROM(romData); err != nil {
		return fmt.Errorf("load rom: %w", err)
	}
	nes.PowerOn()

	if c.SaveState != "" {
		data, err := os.ReadFile(c.SaveState)
		if err != nil {
			return fmt.Errorf("read save state: %w", err)
		}
		if err := nes.LoadState(data); err != nil {
			return fmt.Errorf("load save state: %w", err)
		}
	}

	win, err := hostsdl.New("nescore - "+filepath.Base(c.RomPath), cfg.Window.Scale)
	if err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	defer win.Close()

	if cfg.Console.EmulateSound {
		if err := win.OpenAudio(int(cfg.Console.SampleRate)); err != nil {
			log.ModEmu.WarnZ("could not open audio device, running silent").Error("err", err).End()
		}
	}

	stateFile := c.SaveState
	if stateFile == "" {
		stateFile = c.RomPath + ".state"
	}

	for {
		quit := false
		for _, ev := range win.PollEvents() {
			switch {
			case ev.Quit:
				quit = true
			case ev.SaveState:
				if err := saveStateToFile(nes, stateFile); err != nil {
					log.ModEmu.WarnZ("save state failed").Error("err", err).End()
				}
			case ev.LoadState:
				if err := loadStateFromFile(nes, stateFile); err != nil {
					log.ModEmu.WarnZ("load state failed").Error("err", err).End()
				}
			case ev.IsZapper:
				nes.ZapperMove(ev.ZapperX, ev.ZapperY)
				if ev.HasFireEdge {
					nes.ZapperFire(ev.ZapperFire)
				}
			default:
				if ev.Down {
					nes.ButtonDown(1, ev.Button)
				} else {
					nes.ButtonUp(1, ev.Button)
				}
			}
		}
		if quit {
			return nil
		}

		frame, audio := nes.RunFrame()
		if err := win.Blit(frame); err != nil {
			return fmt.Errorf("blit frame: %w", err)
		}
		if err := win.QueueAudio(audio); err != nil {
			log.ModEmu.WarnZ("queue audio failed").Error("err", err).End()
		}
	}
}

func saveStateToFile(nes *console.Console, path string) error {
	data, err := nes.SaveState()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadStateFromFile(nes *console.Console, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return nes.LoadState(data)
}
