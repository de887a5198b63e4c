package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Exit codes for hitreq CLI
const (
	// ExitSuccess indicates the request succeeded and every check passed
	ExitSuccess = 0

	// ExitCheckFailure indicates a --select or --schema check failed
	ExitCheckFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for err. reported is set when the
// error was already printed by a formatter.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

func configError(err error) error {
	return &exitError{code: ExitConfigError, err: err}
}

// requestError maps a failed request onto its exit code.
func requestError(err error) error {
	code := ExitNetworkError
	if errors.Is(err, http.ErrInvalidOption) {
		code = ExitUsageError
	}
	return &exitError{code: code, err: err, reported: true}
}

func checkFailure(err error) error {
	return &exitError{code: ExitCheckFailure, err: err, reported: true}
}

// exitCode returns the process exit code for an error returned by a command.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitUsageError
}
