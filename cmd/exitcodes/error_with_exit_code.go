package exitcodes

import "errors"

// ErrorWithExitCode attaches the process exit code to an error returned by a solbuild command. Compilation failures
// carry ExitCodeCompilationError and configuration failures ExitCodeHandledError, so main can exit accordingly.
type ErrorWithExitCode struct {
	err      error
	exitCode int
}

// NewErrorWithExitCode wraps err with the exit code the process should terminate with.
func NewErrorWithExitCode(err error, exitCode int) *ErrorWithExitCode {
	return &ErrorWithExitCode{
		err:      err,
		exitCode: exitCode,
	}
}

// Error returns the message of the wrapped error.
func (e *ErrorWithExitCode) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// Unwrap returns the wrapped error so the typed compilation errors remain reachable through errors.As.
func (e *ErrorWithExitCode) Unwrap() error {
	return e.err
}

// ExitCode returns the exit code attached to the error.
func (e *ErrorWithExitCode) ExitCode() int {
	return e.exitCode
}

// GetInnerErrorAndExitCode returns the error to report and the exit code for an error returned by a command: 0 for
// nil, the attached code if an ErrorWithExitCode is found anywhere in the chain, and 1 otherwise.
func GetInnerErrorAndExitCode(err error) (error, int) {
	if err == nil {
		return nil, ExitCodeSuccess
	}
	var withExitCode *ErrorWithExitCode
	if errors.As(err, &withExitCode) {
		return withExitCode.err, withExitCode.exitCode
	}
	return err, ExitCodeGeneralError
}
