package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shepherd-project/freegpu/internal/gpu"
	"github.com/shepherd-project/freegpu/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleOutput = "0, RTX 3080, 100, 10240\n1, RTX 3080, 400, 10240\n2, RTX 3080, 50, 10240"

type stubQuerier struct {
	output string
	err    error
}

func (q stubQuerier) Query(ctx context.Context) (string, error) {
	return q.output, q.err
}

func run(t *testing.T, q gpu.Querier, args ...string) (int, string, string) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps := dependencies{
		querier: q,
		host:    func(context.Context) report.Host { return report.Host{Hostname: "node-7"} },
	}
	code := execute(context.Background(), args, stdout, stderr, deps)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Outputs(t *testing.T) {
	tests := []struct {
		name   string
		output string
		args   []string
		stdout string
	}{
		{"default", sampleOutput, nil, "0 2\n"},
		{"short threshold", sampleOutput, []string{"-t", "500"}, "0 1 2\n"},
		{"long threshold", sampleOutput, []string{"--threshold=60"}, "2\n"},
		{"threshold boundary", sampleOutput, []string{"-t", "100"}, "2\n"},
		{"verbose", sampleOutput, []string{"-v"}, "Free GPUs found:\n" +
			"  GPU 0: RTX 3080 (100MB / 10240MB used)\n" +
			"  GPU 2: RTX 3080 (50MB / 10240MB used)\n"},
		{"none free", sampleOutput, []string{"-t", "10"}, "No free GPUs found.\n"},
		{"none free quiet", sampleOutput, []string{"-q", "-t", "10"}, ""},
		{"combined short flags", sampleOutput, []string{"-qv", "--threshold", "10"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, stubQuerier{output: tt.output}, tt.args...)

			assert.Equal(t, 0, code)
			assert.Equal(t, tt.stdout, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestExecute_NoGPUsDetected(t *testing.T) {
	code, stdout, stderr := run(t, stubQuerier{output: "\n"})

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "No GPUs detected.\n", stderr)
}

func TestExecute_QueryFailure(t *testing.T) {
	q := stubQuerier{err: &gpu.ExecutionError{
		Kind:     gpu.KindNonZeroExit,
		Binary:   "nvidia-smi",
		ExitCode: 9,
		Stderr:   "Driver not loaded",
	}}

	code, stdout, stderr := run(t, q, "-v")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Error running nvidia-smi: exit status 9: Driver not loaded\n", stderr)
}

func TestExecute_MissingUtility(t *testing.T) {
	code, stdout, stderr := run(t, nil, "--smi-path", "freegpu-test-missing-utility")

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "not found")
}

func TestExecute_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"positional argument", []string{"extra"}, "unknown command"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"non-integer threshold", []string{"-t", "lots"}, "invalid argument"},
		{"negative threshold", []string{"-t", "-1"}, "invalid threshold"},
		{"bad output format", []string{"-o", "xml"}, "invalid output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := run(t, stubQuerier{output: sampleOutput}, tt.args...)

			assert.Equal(t, 2, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, tt.msg)
			assert.Contains(t, stderr, "freegpu --help")
		})
	}
}

func TestExecute_YAMLOutput(t *testing.T) {
	code, stdout, stderr := run(t, stubQuerier{output: sampleOutput}, "-o", "yaml", "-t", "75")
	require.Equal(t, 0, code, stderr)

	var doc report.Document
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "node-7", doc.Host.Hostname)
	assert.Equal(t, int64(75), doc.ThresholdMB)
	require.Len(t, doc.Free, 1)
	assert.Equal(t, 2, doc.Free[0].Index)
}

func TestExecute_DebugLogsGoToStderr(t *testing.T) {
	code, stdout, stderr := run(t, stubQuerier{output: sampleOutput}, "--log-level", "debug")

	assert.Equal(t, 0, code)
	assert.Equal(t, "0 2\n", stdout)
	assert.Contains(t, stderr, "DEBUG")
}

func TestExecute_Help(t *testing.T) {
	code, stdout, _ := run(t, stubQuerier{}, "--help")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "-t, --threshold int")
	assert.Contains(t, stdout, "-q, --quiet")
	assert.Contains(t, stdout, "freegpu -t 500")
}

func TestExecute_Version(t *testing.T) {
	code, stdout, _ := run(t, stubQuerier{}, "--version")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "freegpu ")
	assert.Contains(t, stdout, "Go Version:")
}

func TestNewRootCmd_Defaults(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{}, dependencies{})

	threshold, err := cmd.Flags().GetInt64("threshold")
	require.NoError(t, err)
	assert.Equal(t, int64(300), threshold)

	timeout, err := cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), timeout)

	smi, err := cmd.Flags().GetString("smi-path")
	require.NoError(t, err)
	assert.Equal(t, "nvidia-smi", smi)

	assert.Equal(t, "v", cmd.Flags().Lookup("verbose").Shorthand)
	assert.Equal(t, "q", cmd.Flags().Lookup("quiet").Shorthand)
}
