package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultFile is the config file looked up in the working directory when
// CONFIG_PATH is unset.
const DefaultFile = "examwatch.yaml"

// Load builds the configuration for examctl and devserver. Both commands load
// .env into the process environment first, so values from .env behave like
// real environment variables here.
//
// Precedence is ENV, then the YAML file, then env-default tags. A missing
// examwatch.yaml is fine; a missing file named by CONFIG_PATH is not.
func Load() (*Config, error) {
	var cfg Config

	path, explicit := configFile()
	_, statErr := os.Stat(path)

	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config: CONFIG_PATH %s: %w", path, statErr)
	case !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func configFile() (path string, explicit bool) {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p, true
	}
	return DefaultFile, false
}
