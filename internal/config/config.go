package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds process configuration for the driftline daemon.
type Config struct {
	// Network settings
	Listen string `yaml:"listen"`

	// Simulation-read loop frequency in Hz.
	TickRate int `yaml:"tick_rate"`

	// Joystick displacement below this many pixels reads as centered.
	DeadZone float64 `yaml:"dead_zone"`

	// Path to the YAML level description.
	Level string `yaml:"level"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when a field, or the whole file, is
// absent.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:8090",
		TickRate: 60,
		DeadZone: 10,
		Level:    "levels/default.yaml",
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", c.TickRate)
	}
	if c.DeadZone < 0 {
		return fmt.Errorf("dead_zone must not be negative, got %g", c.DeadZone)
	}
	if c.Level == "" {
		return fmt.Errorf("level path is required")
	}
	return nil
}
