// Package config parses the forensicstore CLI's TOML configuration file,
// the way smf's internal/parser/toml parses its schema documents: a plain
// struct decoded with BurntSushi/toml, then validated and defaulted.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/forensicanalysis/forensicstore/internal/logging"
)

// Config is the root of a forensicstore.toml document.
type Config struct {
	Container ContainerConfig `toml:"container"`
	Logging   loggingConfig   `toml:"logging"`
}

// ContainerConfig is the [container] TOML table: the defaults applied to
// every container a CLI invocation opens or creates.
type ContainerConfig struct {
	// Discriminator is the record field that names a record's type.
	// Defaults to "type".
	Discriminator string `toml:"discriminator"`
	// Strict gates every mutation on schema validation when true.
	Strict bool `toml:"strict"`
}

type loggingConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the configuration used when no forensicstore.toml is
// present: a "type" discriminator and strict mode on, matching
// pyforensicstore's ForensicStore default of discriminator="type" plus
// the safer-by-default posture spec.md recommends for new containers.
func Default() Config {
	return Config{
		Container: ContainerConfig{Discriminator: "type", Strict: true},
		Logging:   loggingConfig{Level: "info"},
	}
}

// ParseFile opens path and parses it as a forensicstore TOML config.
func ParseFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a TOML config from r, defaulting any field left unset.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if cfg.Container.Discriminator == "" {
		cfg.Container.Discriminator = "type"
	}
	return cfg, nil
}

// LogLevel maps the configured textual log level to a logging.Level,
// defaulting to Info for an empty or unrecognized value.
func (c Config) LogLevel() logging.Level {
	switch c.Logging.Level {
	case "debug":
		return logging.Debug
	case "warn":
		return logging.Warn
	case "error":
		return logging.Error
	default:
		return logging.Info
	}
}

// LoggingConfig converts the config's [logging] table into a
// logging.Config ready to be passed to logging.New.
func (c Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.LogLevel(),
		FilePath:   c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	}
}
