// Package config decodes the TOML settings an engine is opened with, and
// validates them before any directory or file is touched.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	defaultBlockSize    = 4096
	defaultPoolCapacity = 128
	defaultLogFileName  = "wal.log"
)

// Config holds everything an Engine needs to open a database directory.
type Config struct {
	Directory    string `toml:"directory"`
	BlockSize    int    `toml:"block_size"`
	PoolCapacity int    `toml:"pool_capacity"`
	LogFileName  string `toml:"log_file"`
}

// Default returns a Config with a 4096-byte block size, a 128-frame pool,
// and a log file named "wal.log". Directory is left empty and must be set
// by the caller.
func Default() Config {
	return Config{
		BlockSize:    defaultBlockSize,
		PoolCapacity: defaultPoolCapacity,
		LogFileName:  defaultLogFileName,
	}
}

// Load reads and decodes the TOML document at path, starting from Default()
// so a config file only needs to override the fields it cares about.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: reading %q", path)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parsing %q", path)
	}

	return cfg, nil
}

// Validate rejects a config that would fail before ever reaching disk: a
// non-positive block size or pool capacity, or an empty directory or log
// file name.
func (c Config) Validate() error {
	if c.Directory == "" {
		return errors.New("config: directory must not be empty")
	}
	if c.BlockSize <= 0 {
		return errors.Errorf("config: block_size must be positive, got %d", c.BlockSize)
	}
	if c.PoolCapacity <= 0 {
		return errors.Errorf("config: pool_capacity must be positive, got %d", c.PoolCapacity)
	}
	if c.LogFileName == "" {
		return errors.New("config: log_file must not be empty")
	}
	return nil
}
