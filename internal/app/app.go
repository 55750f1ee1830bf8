// Package app runs one query-parse-filter-report pass and maps its outcome
// to a diagnostic line and a process exit code.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shepherd-project/freegpu/internal/config"
	"github.com/shepherd-project/freegpu/internal/gpu"
	"github.com/shepherd-project/freegpu/internal/logger"
	"github.com/shepherd-project/freegpu/internal/report"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	// ErrNoDevices means the utility succeeded but listed no usable device.
	ErrNoDevices = errors.New("no GPUs detected")
	// ErrInvalidConfig marks configuration and usage errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Options wires an App. Only Config is required.
type Options struct {
	Config  *config.Config
	Querier gpu.Querier
	Host    report.HostCollector
	Stdout  io.Writer
	Logger  *logger.Logger
}

// App holds everything a single run needs.
type App struct {
	cfg     *config.Config
	format  report.Format
	querier gpu.Querier
	host    report.HostCollector
	stdout  io.Writer
	log     *logger.Logger
}

// New validates the configuration and fills in production defaults for any
// collaborator left nil.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Mark(err, ErrInvalidConfig)
	}

	format, err := report.ParseFormat(cfg.Output)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidConfig)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	querier := opts.Querier
	if querier == nil {
		querier = gpu.NewNvidiaQuerier(&gpu.Config{
			Binary:  cfg.SMI.Binary,
			Timeout: cfg.SMI.Timeout,
			Logger:  log,
		})
	}

	host := opts.Host
	if host == nil {
		host = report.CollectHost
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	return &App{
		cfg:     cfg,
		format:  format,
		querier: querier,
		host:    host,
		stdout:  stdout,
		log:     log,
	}, nil
}

// Run queries the devices once and writes the report to stdout.
// Nothing is written to stdout when an error is returned.
func (a *App) Run(ctx context.Context) error {
	if a.log.Enabled(logger.DEBUG) {
		if dump, err := a.cfg.YAML(); err == nil {
			a.log.Debugf("effective configuration:\n%s", strings.TrimSpace(dump))
		}
	}

	raw, err := a.querier.Query(ctx)
	if err != nil {
		a.log.WithError(err).Debug("query failed")
		return err
	}

	records := gpu.Parse(raw)
	if len(records) == 0 {
		return ErrNoDevices
	}

	free := gpu.FilterFree(records, a.cfg.Threshold)
	a.log.WithFields(map[string]interface{}{
		"devices":   len(records),
		"free":      len(free),
		"threshold": a.cfg.Threshold,
	}).Debug("filtered devices")

	doc := &report.Document{
		ThresholdMB: a.cfg.Threshold,
		Devices:     report.NewDevices(records),
		Free:        report.NewDevices(free),
	}
	if a.format != report.FormatText {
		doc.Host = a.host(ctx)
	}

	return report.NewWriter(a.stdout, a.format, a.cfg.Verbose, a.cfg.Quiet).Write(doc)
}

// ExitCode maps the result of Run (or New) to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// Diagnostic returns the single line printed to standard error for err.
func Diagnostic(err error) string {
	var execErr *gpu.ExecutionError
	switch {
	case errors.As(err, &execErr):
		switch execErr.Kind {
		case gpu.KindNotFound:
			return fmt.Sprintf("Error: %s not found. Make sure NVIDIA drivers are installed.", execErr.Binary)
		case gpu.KindNonZeroExit:
			msg := fmt.Sprintf("Error running %s: exit status %d", execErr.Binary, execErr.ExitCode)
			if execErr.Stderr != "" {
				msg += ": " + strings.Join(strings.Fields(execErr.Stderr), " ")
			}
			return msg
		default:
			return fmt.Sprintf("Unexpected error: %v", execErr.Err)
		}
	case errors.Is(err, ErrNoDevices):
		return "No GPUs detected."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
