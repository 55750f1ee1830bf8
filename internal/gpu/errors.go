package gpu

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind classifies why a query could not produce output.
type ErrorKind int

const (
	// KindUnexpected covers every failure that is neither a missing binary
	// nor a non-zero exit (permission denied, cancelled context, ...).
	KindUnexpected ErrorKind = iota
	// KindNotFound means the utility executable could not be located.
	KindNotFound
	// KindNonZeroExit means the utility ran but reported failure.
	KindNonZeroExit
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindNonZeroExit:
		return "non-zero-exit"
	default:
		return "unexpected"
	}
}

// Sentinels matched by ExecutionError.Is so callers can branch with errors.Is.
var (
	ErrNotFound    = errors.New("gpu query utility not found")
	ErrNonZeroExit = errors.New("gpu query utility exited with non-zero status")
	ErrUnexpected  = errors.New("unexpected gpu query failure")
)

// ExecutionError is returned by Query when the utility could not be run to
// a successful completion.
type ExecutionError struct {
	Kind     ErrorKind
	Binary   string
	ExitCode int    // only meaningful for KindNonZeroExit
	Stderr   string // captured standard error, trimmed
	Err      error
}

func (e *ExecutionError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Binary)
	case KindNonZeroExit:
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.ExitCode)
	default:
		return fmt.Sprintf("running %s: %v", e.Binary, e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *ExecutionError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNonZeroExit:
		return e.Kind == KindNonZeroExit
	case ErrUnexpected:
		return e.Kind == KindUnexpected
	}
	return false
}
