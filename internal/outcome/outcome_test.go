package outcome

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeValuesAreStable(t *testing.T) {
	t.Parallel()

	// Wire contract: these values are consumed by external callers.
	assert.Equal(t, 0, int(Success))
	assert.Equal(t, -1, int(InvalidInput))
	assert.Equal(t, -2, int(JsonError))
	assert.Equal(t, -3, int(ProviderNotFound))
	assert.Equal(t, -4, int(ModelNotFound))
	assert.Equal(t, -5, int(NetworkError))
	assert.Equal(t, -6, int(AuthenticationError))
	assert.Equal(t, -7, int(RateLimitError))
	assert.Equal(t, -8, int(TimeoutError))
	assert.Equal(t, -9, int(InternalError))
	assert.Equal(t, -10, int(MemoryError))
	assert.Equal(t, -11, int(Utf8Error))
	assert.Equal(t, -12, int(NullPointer))
	assert.Equal(t, -13, int(Cancelled))
	assert.Equal(t, -14, int(NotImplemented))
	assert.Equal(t, -99, int(Unknown))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Success, CodeOf(nil))
	assert.Equal(t, ModelNotFound, CodeOf(New(ModelNotFound, "model missing")))
	assert.Equal(t, Unknown, CodeOf(errors.New("plain error")))

	wrapped := fmt.Errorf("outer context: %w", New(TimeoutError, "deadline hit"))
	assert.Equal(t, TimeoutError, CodeOf(wrapped))
}

func TestErrorfPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Errorf(NetworkError, "dial upstream: %w", cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, NetworkError, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNilCause(t *testing.T) {
	t.Parallel()

	err := Wrap(JsonError, "decode", nil)
	// Typed nil must not leak into error returns.
	assert.Nil(t, err)
}
