package app

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything an App instance needs to run one invocation.
type Config struct {
	Manifest  string
	BuildDir  string
	Selectors []string

	Workers   int
	KeepGoing bool
	Verbose   bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Manifest == "" {
		return nil, errors.New("Manifest is a required configuration field and cannot be empty")
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = ".kraken/build"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// FileConfig is the optional kraken.yaml companion file. Values apply only
// where the command line left a field unset.
type FileConfig struct {
	Manifest  string `yaml:"manifest"`
	BuildDir  string `yaml:"build_dir"`
	Workers   int    `yaml:"workers"`
	KeepGoing *bool  `yaml:"keep_going"`
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// LoadFileConfig reads and parses a yaml config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &fc, nil
}

// Merge fills unset fields of cfg from the file config.
func (fc *FileConfig) Merge(cfg *Config) {
	if cfg.Manifest == "" {
		cfg.Manifest = fc.Manifest
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = fc.BuildDir
	}
	if cfg.Workers == 0 {
		cfg.Workers = fc.Workers
	}
	if !cfg.KeepGoing && fc.KeepGoing != nil {
		cfg.KeepGoing = *fc.KeepGoing
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = fc.LogFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = fc.LogLevel
	}
}
