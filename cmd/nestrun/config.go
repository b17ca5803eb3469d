package main

import (
	"os"

	"github.com/BurntSushi/toml"

	"nescore/console"
)

// hostConfig bundles the orchestrator's Config with the host-side
// settings the frame pump itself needs, so one TOML file covers both
// (grounded on `_examples/arl-nestor/emu/config.go`'s Config/
// LoadConfigOrDefault/SaveConfig shape, minus its `kirsle/configdir`
// lookup: that dependency never made it into the retrieved pack, so the
// config path is resolved relative to the working directory via a CLI
// flag instead of a platform config directory).
type hostConfig struct {
	Console console.Config `toml:"console"`
	Window  windowConfig   `toml:"window"`
}

type windowConfig struct {
	Scale int `toml:"scale"`
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		Console: console.DefaultConfig(),
		Window:  windowConfig{Scale: 3},
	}
}

// loadConfigOrDefault mirrors the teacher's LoadConfigOrDefault: a missing
// or unparsable file yields defaults rather than failing the run.
func loadConfigOrDefault(path string) hostConfig {
	var cfg hostConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return defaultHostConfig()
	}
	return cfg
}

// saveConfig writes cfg to path, creating it if absent (teacher's
// SaveConfig, minus the configdir lookup).
func saveConfig(cfg hostConfig, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
