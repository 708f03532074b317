package exitcodes

const (
	// ================================
	// Platform-universal exit codes
	// ================================

	// ExitCodeSuccess indicates no errors or failures had occurred.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates some type of general error occurred.
	ExitCodeGeneralError = 1

	// ================================
	// Application-specific exit codes
	// ================================
	// Note: Despite not being standardized, exit codes 2-5 are often used for common use cases, so we avoid them.

	// ExitCodeCompilationError indicates the contract could not be compiled: its source or an import could not be
	// read, the compiler reported errors, or the contract was absent from the output. The error has already been
	// logged.
	ExitCodeCompilationError = 6

	// ExitCodeHandledError indicates that there was an error that was already logged, so it should not be printed
	// again.
	ExitCodeHandledError = 7
)

// IsHandledExitCode indicates whether errors with the given exit code were already reported to the user.
func IsHandledExitCode(exitCode int) bool {
	return exitCode == ExitCodeHandledError || exitCode == ExitCodeCompilationError
}
