package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// BootstrapFileName is looked up inside the config directory
const BootstrapFileName = "follower_config.yaml"

// Environment overrides
const (
	EnvAddress = "FOLLOWER_ADDRESS"
	EnvPort    = "PORT"
)

// LoadBootstrapConfig loads follower_config.yaml from configDir.
// A missing file is not an error: the defaults are used instead.
// Environment overrides are applied last.
func LoadBootstrapConfig(configDir string) (*Config, error) {
	path := filepath.Join(configDir, BootstrapFileName)

	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, fmt.Errorf("error loading bootstrap config file '%s': %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if addr := os.Getenv(EnvAddress); addr != "" {
		cfg.Receiver.Address = addr
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid %s environment value '%s': %w", EnvPort, port, err)
		}
		cfg.Server.HTTPPort = p
	}
	return nil
}
