// Package config provides configuration loading and management for wfc3-tools.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bourque/wfc3-tools/pkg/regionstats"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Region statistics parameters
	Stats struct {
		// Sigma is the sigma-clipping threshold in standard deviations
		Sigma float64 `yaml:"sigma"`

		// Iterations is the number of clipping passes
		Iterations int `yaml:"iterations"`

		// Exclusion selects how annulus holes are removed: "mask" or "sentinel"
		Exclusion string `yaml:"exclusion"`

		// HistogramBins is the number of bins in each region histogram
		HistogramBins int `yaml:"histogramBins"`
	} `yaml:"stats"`

	// Processing parameters
	Processing struct {
		// Workers is how many images are processed at once
		Workers int `yaml:"workers"`

		// Extension is the FITS HDU the image is read from
		Extension int `yaml:"extension"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir is where tables are written
		Dir string `yaml:"dir"`

		// Histograms enables the per-region histogram tables
		Histograms bool `yaml:"histograms"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a logrus level name
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Stats.Sigma = 3.0
	cfg.Stats.Iterations = 1
	cfg.Stats.Exclusion = "mask"
	cfg.Stats.HistogramBins = 30

	cfg.Processing.Workers = runtime.NumCPU()
	cfg.Processing.Extension = 0

	cfg.Output.Dir = "."
	cfg.Output.Histograms = true

	cfg.Logging.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		return cfg, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.Stats.Sigma <= 0 {
		return fmt.Errorf("stats.sigma must be positive, got %v", c.Stats.Sigma)
	}
	if c.Stats.Iterations < 0 {
		return fmt.Errorf("stats.iterations must not be negative, got %d", c.Stats.Iterations)
	}
	if _, err := regionstats.ParseExclusionMode(c.Stats.Exclusion); err != nil {
		return fmt.Errorf("stats.exclusion: %w", err)
	}
	if c.Stats.HistogramBins <= 0 {
		return fmt.Errorf("stats.histogramBins must be positive, got %d", c.Stats.HistogramBins)
	}
	if c.Processing.Workers <= 0 {
		return fmt.Errorf("processing.workers must be positive, got %d", c.Processing.Workers)
	}
	if c.Processing.Extension < 0 {
		return fmt.Errorf("processing.extension must not be negative, got %d", c.Processing.Extension)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// EngineOptions converts the stats section into region statistics options
func (c *Config) EngineOptions(log logrus.FieldLogger) (regionstats.Options, error) {
	mode, err := regionstats.ParseExclusionMode(c.Stats.Exclusion)
	if err != nil {
		return regionstats.Options{}, err
	}
	return regionstats.Options{
		Sigma:      c.Stats.Sigma,
		Iterations: c.Stats.Iterations,
		Exclusion:  mode,
		Logger:     log,
	}, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
