package main

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/shepherd-project/freegpu/internal/app"
	"github.com/shepherd-project/freegpu/internal/config"
	"github.com/shepherd-project/freegpu/internal/gpu"
	"github.com/shepherd-project/freegpu/internal/logger"
	"github.com/shepherd-project/freegpu/internal/report"
	"github.com/shepherd-project/freegpu/internal/version"
	"github.com/spf13/cobra"
)

const examples = `  freegpu                    # Print indexes of free GPUs
  freegpu -v                 # Verbose output with details
  freegpu -t 500             # Use 500MB threshold instead of 300MB
  freegpu -q                 # Quiet mode (no output if no free GPUs)
  freegpu -o json            # Machine-readable report`

// dependencies lets tests replace the collaborators that touch the host.
// Zero values select the real implementations.
type dependencies struct {
	querier gpu.Querier
	host    report.HostCollector
}

func newRootCmd(stdout, stderr io.Writer, deps dependencies) *cobra.Command {
	cfg := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "freegpu",
		Short: "Find GPUs that are currently not in use",
		Long: "Find GPUs that are currently not in use (memory usage < threshold).\n\n" +
			"Devices are read from nvidia-smi; a GPU is free when its used memory is\n" +
			"strictly below the threshold.",
		Example:       examples,
		Version:       version.GetVersionInfo().String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			return markUsage(cobra.NoArgs(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewLogger(&cfg.Log, stderr)

			a, err := app.New(app.Options{
				Config:  cfg,
				Querier: deps.querier,
				Host:    deps.host,
				Stdout:  stdout,
				Logger:  log,
			})
			if err != nil {
				return err
			}

			log.Debugf("freegpu %s", version.GetVersionInfo())
			return a.Run(cmd.Context())
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate(version.GetVersionInfo().FullString() + "\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return markUsage(err)
	})

	f := cmd.Flags()
	f.Int64VarP(&cfg.Threshold, "threshold", "t", cfg.Threshold,
		"Memory usage threshold in MB to consider GPU as free")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose,
		"Show detailed information about free GPUs")
	f.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet,
		"Do not output anything if no free GPUs are found")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output,
		"Output format: text, json, or yaml")
	f.StringVar(&cfg.SMI.Binary, "smi-path", cfg.SMI.Binary,
		"GPU query utility to run")
	f.DurationVar(&cfg.SMI.Timeout, "timeout", cfg.SMI.Timeout,
		"Abort the query after this long (0 waits indefinitely)")
	f.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level,
		"Diagnostic log level on stderr: debug, info, warn, error")
	f.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format,
		"Diagnostic log format: text or json")

	return cmd
}

func markUsage(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, app.ErrInvalidConfig)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer, deps dependencies) int {
	cmd := newRootCmd(stdout, stderr, deps)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return app.ExitOK
	}

	fmt.Fprintln(stderr, app.Diagnostic(err))
	code := app.ExitCode(err)
	if code == app.ExitUsage {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	return code
}
