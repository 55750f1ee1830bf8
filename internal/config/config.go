// Package config provides the runtime configuration of freegpu.
// Values start from DefaultConfig and are overridden by command-line flags;
// there is no configuration file.
package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shepherd-project/freegpu/internal/gpu"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultThreshold is the used-memory cutoff in MB
	DefaultThreshold = gpu.DefaultThresholdMB
	// DefaultBinary is the GPU query utility
	DefaultBinary = gpu.DefaultBinary
	// DefaultOutput is the output format
	DefaultOutput = "text"
	// DefaultLogLevel keeps a normal run silent on stderr
	DefaultLogLevel = "warn"
)

// Config represents the complete application configuration
type Config struct {
	Threshold int64     `yaml:"threshold" json:"threshold"` // MB
	Verbose   bool      `yaml:"verbose" json:"verbose"`
	Quiet     bool      `yaml:"quiet" json:"quiet"`
	Output    string    `yaml:"output" json:"output"` // text, json, yaml
	SMI       SMIConfig `yaml:"smi" json:"smi"`
	Log       LogConfig `yaml:"log" json:"log"`
}

// SMIConfig describes how the GPU query utility is invoked
type SMIConfig struct {
	Binary  string        `yaml:"binary" json:"binary"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"` // 0 = wait indefinitely
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		Output:    DefaultOutput,
		SMI: SMIConfig{
			Binary: DefaultBinary,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: "text",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Threshold < 0 {
		return errors.Newf("invalid threshold: %d (must not be negative)", c.Threshold)
	}

	validOutputs := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validOutputs[strings.ToLower(c.Output)] {
		return errors.Newf("invalid output format: %q (must be text, json, or yaml)", c.Output)
	}

	if strings.TrimSpace(c.SMI.Binary) == "" {
		return errors.New("smi binary cannot be empty")
	}
	if c.SMI.Timeout < 0 {
		return errors.Newf("invalid smi timeout: %s", c.SMI.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return errors.Newf("invalid log level: %q (must be debug, info, warn, or error)", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		return errors.Newf("invalid log format: %q (must be text or json)", c.Log.Format)
	}

	return nil
}

// YAML renders the effective configuration, used for debug logging.
func (c *Config) YAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal config")
	}
	return string(data), nil
}
