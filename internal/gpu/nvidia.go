package gpu

import (
	"bytes"
	"context"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// queryArgs asks for exactly the four columns Parse expects, in order.
var queryArgs = []string{
	"--query-gpu=index,name,memory.used,memory.total",
	"--format=csv,noheader,nounits",
}

// waitDelay bounds how long Query waits for the output pipes once the
// context has ended. A wrapper script can leave descendants holding them.
const waitDelay = time.Second

// NvidiaQuerier runs nvidia-smi (or a compatible utility) once per Query.
type NvidiaQuerier struct {
	binary  string
	timeout time.Duration
	logger  Logger
}

// NewNvidiaQuerier creates a querier from cfg. A nil cfg uses DefaultConfig.
func NewNvidiaQuerier(cfg *Config) *NvidiaQuerier {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	binary := cfg.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &NvidiaQuerier{
		binary:  binary,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Binary returns the executable this querier invokes.
func (q *NvidiaQuerier) Binary() string {
	return q.binary
}

// Query runs the utility and returns its complete standard output.
// Standard error is captured separately and attached to the returned
// *ExecutionError when the utility exits non-zero.
func (q *NvidiaQuerier) Query(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, q.binary, queryArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	q.logger.Debugf("Running %s %s", q.binary, strings.Join(queryArgs, " "))

	// Run waits for the child and its output copiers, so both pipes are
	// drained and the process released whichever way it ends.
	if err := cmd.Run(); err != nil {
		execErr := q.classify(ctx, err, stderr.String())
		q.logger.Debugf("%s failed (%s): %v", q.binary, execErr.Kind, err)
		return "", execErr
	}

	q.logger.Debugf("%s returned %d bytes", q.binary, stdout.Len())
	return stdout.String(), nil
}

func (q *NvidiaQuerier) classify(ctx context.Context, err error, stderr string) *ExecutionError {
	execErr := &ExecutionError{
		Kind:     KindUnexpected,
		Binary:   q.binary,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		// The child was killed because the context ended; its exit status is
		// an artefact of the kill, not a verdict from the utility.
		execErr.Err = errors.Wrap(ctx.Err(), "query aborted")
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		execErr.Kind = KindNotFound
	case errors.As(err, &exitErr):
		execErr.Kind = KindNonZeroExit
		execErr.ExitCode = exitErr.ExitCode()
	}

	return execErr
}
