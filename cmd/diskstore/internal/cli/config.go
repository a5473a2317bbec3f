package cli

import (
	"github.com/pkg/errors"

	"github.com/luigitni/diskstore/config"
)

// loadConfig builds the Config a command should open, starting from
// --config (if given) or Default(), then applying --dir on top.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	if configFlag != "" {
		loaded, err := config.Load(configFlag)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if dirFlag != "" {
		cfg.Directory = dirFlag
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, errors.Wrap(err, "cli: invalid configuration")
	}

	return cfg, nil
}
