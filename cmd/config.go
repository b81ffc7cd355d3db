package cmd

import (
	"os"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the on-disk TOML shape for --config (SPEC_FULL.md
// 10.3). Every field has a zero value that reproduces the unconfigured
// interpreter's behavior, so a config file only ever needs to set the
// values a user wants to override.
type fileConfig struct {
	Limits struct {
		MaxCallDepth        int `toml:"max_call_depth"`
		InitialHeapCapacity int `toml:"initial_heap_capacity"`
	} `toml:"limits"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
