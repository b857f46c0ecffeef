package exitcodes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGetInnerErrorAndExitCode(t *testing.T) {
	err, code := GetInnerErrorAndExitCode(nil)
	assert.NoError(t, err)
	assert.Equal(t, ExitCodeSuccess, code)

	generic := errors.New("boom")
	err, code = GetInnerErrorAndExitCode(generic)
	assert.Equal(t, generic, err)
	assert.Equal(t, ExitCodeGeneralError, code)

	err, code = GetInnerErrorAndExitCode(NewErrorWithExitCode(generic, ExitCodeCloneDetected))
	assert.Equal(t, generic, err)
	assert.Equal(t, ExitCodeCloneDetected, code)

	// Exit codes survive further wrapping
	wrapped := errors.Wrap(NewErrorWithExitCode(generic, ExitCodeHandledError), "analyze")
	err, code = GetInnerErrorAndExitCode(wrapped)
	assert.Equal(t, generic, err)
	assert.Equal(t, ExitCodeHandledError, code)
}
