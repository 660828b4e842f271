package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := New("error")
	withHint := WithHint(err, "try this fix")

	hints := GetAllHints(withHint)
	require.Len(t, hints, 1)
	assert.Equal(t, "try this fix", hints[0])
}

func TestStackTrace(t *testing.T) {
	err := New("with stack")
	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}

func TestSentinels(t *testing.T) {
	t.Run("invalid request", func(t *testing.T) {
		err := NewInvalidRequestError("adjust entry %d has zero delta", 2)
		assert.True(t, IsInvalidRequestError(err))
		assert.False(t, IsNotFoundError(err))
		assert.Contains(t, err.Error(), "adjust entry 2 has zero delta")
	})

	t.Run("not found", func(t *testing.T) {
		err := Wrap(ErrNotFound, "item milk")
		assert.True(t, IsNotFoundError(err))
		assert.False(t, IsNotFoundError(nil))
	})

	t.Run("write failed keeps cause", func(t *testing.T) {
		cause := New("disk full")
		err := WrapWriteFailed(cause, "add milk")
		assert.True(t, Is(err, ErrWriteFailed))
		assert.True(t, Is(err, cause))
		assert.Contains(t, err.Error(), "add milk")
		assert.Nil(t, WrapWriteFailed(nil, "noop"))
	})
}

func TestCombineErrors(t *testing.T) {
	first := New("first")
	second := New("second")

	combined := CombineErrors(first, second)
	assert.True(t, Is(combined, first))
	assert.Equal(t, first.Error(), combined.Error())

	assert.Equal(t, second, CombineErrors(nil, second))
	assert.Nil(t, CombineErrors(nil, nil))
}
