// Package gpu queries NVIDIA devices through nvidia-smi and turns the tabular
// output into records that can be filtered by memory usage.
package gpu

import (
	"context"
	"time"
)

// DefaultBinary is the utility invoked when no other path is configured.
const DefaultBinary = "nvidia-smi"

// Querier returns the raw CSV text describing every device on the host.
// Implementations spawn at most one child process per call.
type Querier interface {
	Query(ctx context.Context) (string, error)
}

// Logger interface for GPU package logging.
// This avoids direct dependency on internal/logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (n noopLogger) Debugf(format string, args ...interface{}) {}
func (n noopLogger) Infof(format string, args ...interface{})  {}
func (n noopLogger) Errorf(format string, args ...interface{}) {}

// Config contains configuration for the nvidia-smi querier.
type Config struct {
	// Binary is the executable name or path; defaults to nvidia-smi.
	Binary string
	// Timeout bounds a single query. Zero waits for the utility indefinitely.
	Timeout time.Duration
	// Logger for logging (optional)
	Logger Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Binary: DefaultBinary,
	}
}
