package cli

import (
	"errors"
	"fmt"
)

// ErrUsage marks errors caused by how the command was invoked (bad flags,
// invalid config values) as opposed to generation failures. Callers test for
// it with errors.Is.
var ErrUsage = errors.New("invalid invocation")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func usageErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (e usageError) Error() string { return e.msg }

func (e usageError) Is(target error) bool { return target == ErrUsage }
