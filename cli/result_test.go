package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCommandError(t *testing.T) {
	t.Run("implements error interface", func(t *testing.T) {
		err := NewCommandError(ExitFailure, "failed to load exports")
		assert.EqualError(t, err, "failed to load exports")
	})

	t.Run("default message", func(t *testing.T) {
		assert.EqualError(t, NewCommandError(ExitFailure, ""), "command failed")
	})

	t.Run("returns exit code", func(t *testing.T) {
		err := NewCommandError(ExitShortfalls, "")
		assert.Equal(t, 2, err.ExitCode())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		err := fmt.Errorf("gains: %w", NewCommandError(ExitFailure, "reconciliation stopped"))

		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, ExitFailure, cmdErr.ExitCode())
	})
}
