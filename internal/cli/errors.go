package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// ErrPromptCancelled indicates that the user aborted an interactive prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// ErrNotInteractive is returned by prompts when stdin is not a terminal.
var ErrNotInteractive = errors.New("interactive prompt requires a terminal")

// ExitError carries a process exit code for a failure whose message has
// already been written to stdout.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var errFailed = &ExitError{Code: ExitFailure}
