package main

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // one or more tests failed
	ExitCommandError = 2 // bad flags, config or suite definitions
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// exitCode maps err to a process exit code. Errors that carry no code come
// from cobra itself (unknown flags, bad arguments).
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}
