package cli

// Exit codes of the cointax binary.
const (
	// ExitFailure means the exports could not be loaded, reconciled or fetched.
	ExitFailure = 1

	// ExitShortfalls means a strict run found disposals that the held lots
	// could not fully account for.
	ExitShortfalls = 2
)

// CommandError signals a command failure with a specific exit code.
// Commands return this after printing their own diagnostics to stderr, so main
// only has to exit.
type CommandError struct {
	exitCode int
	reason   string
}

// NewCommandError creates a CommandError. reason is a short summary that was
// already shown to the user.
func NewCommandError(exitCode int, reason string) *CommandError {
	return &CommandError{exitCode: exitCode, reason: reason}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.reason == "" {
		return "command failed"
	}
	return e.reason
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}
