package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backends accepted by Config.Backend
const (
	BackendOCCA = "occa"
	BackendHost = "host"
)

// Fill modes accepted by Config.Fill
const (
	FillRandom   = "random"
	FillConstant = "constant"
)

// DefaultLength is the number of elements added when none is configured
const DefaultLength = 256

// Config represents the run configuration
type Config struct {
	Length int `yaml:"length"`

	// Backend selects the device implementation: "occa" or "host"
	Backend string `yaml:"backend"`

	// Devices lists OCCA property strings tried in order
	Devices []string `yaml:"devices,omitempty"`

	// MaxGroupWidth caps the thread-group width below the device maximum;
	// zero uses the device maximum
	MaxGroupWidth int `yaml:"max_group_width"`

	// Seed for operand generation; zero seeds from the clock
	Seed uint64 `yaml:"seed"`

	Fill  string  `yaml:"fill"`
	FillA float32 `yaml:"fill_a"`
	FillB float32 `yaml:"fill_b"`

	// Quiet suppresses the per-element verification lines
	Quiet bool `yaml:"quiet"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns configuration with default values
func Default() *Config {
	return &Config{
		Length:  DefaultLength,
		Backend: BackendOCCA,
		Fill:    FillRandom,
		FillA:   1,
		FillB:   2,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the run cannot use
func (c *Config) Validate() error {
	if c.Length < 1 {
		return fmt.Errorf("length must be at least 1, got %d", c.Length)
	}
	switch c.Backend {
	case BackendOCCA, BackendHost:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxGroupWidth < 0 {
		return fmt.Errorf("max_group_width must not be negative, got %d", c.MaxGroupWidth)
	}
	switch c.Fill {
	case FillRandom, FillConstant:
	default:
		return fmt.Errorf("unknown fill %q", c.Fill)
	}
	return nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
