// Package config loads engine settings from an HCL file, with defaults
// for anything left unset. Command-line flags may override individual
// fields after loading.
package config

import (
	"os"

	"github.com/hashicorp/hcl"
)

// Config holds the engine's tunables.
type Config struct {
	DataDir          string `hcl:"data_dir"`
	BufferPoolFrames int    `hcl:"buffer_pool_frames"`
	WALBuffer        int    `hcl:"wal_buffer"`
	LogLevel         string `hcl:"log_level"`
	LogFile          string `hcl:"log_file"`
}

// Default returns the built-in settings: data in ./data, a 64-frame
// pool per table, and info-level logging to stderr.
func Default() Config {
	return Config{
		DataDir:          "data",
		BufferPoolFrames: 64,
		WALBuffer:        256,
		LogLevel:         "info",
		LogFile:          "",
	}
}

// Load reads an HCL config file over the defaults. A missing file is not
// an error; the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := hcl.Decode(&cfg, string(data)); err != nil {
		return cfg, err
	}
	return cfg, nil
}
