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

	// ExitCodeHandledError indicates that an error occurred and was already reported to the user, so it should not be
	// printed again at the top-level.
	ExitCodeHandledError = 6

	// ExitCodeCloneDetected indicates that at least one analyzed contract matched a library contract at or above the
	// match threshold, and the user asked for this to fail the run.
	ExitCodeCloneDetected = 7
)
