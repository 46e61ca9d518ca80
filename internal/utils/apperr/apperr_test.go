package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_WrappedSentinelMatches(t *testing.T) {
	err := fmt.Errorf("create channel: %w", ErrChannelLimitReached)

	assert.True(t, errors.Is(err, ErrChannelLimitReached))
	assert.False(t, errors.Is(err, ErrChannelNotFound))
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))
}

func TestAppError_CauseIsReachable(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrUploadFailed(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "media upload failed: connection reset", err.Error())
	assert.True(t, IsCode(err, CodeUnavailable))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("boom")))
}
