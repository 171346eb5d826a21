package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeNotFound, "Food not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", New(CodeConflict, "taken"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(cause, CodeInternal, "failed to save food")

	assert.Equal(t, "failed to save food", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestFrom(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("coded error passes through", func(t *testing.T) {
		original := New(CodeValidation, "name is required")
		assert.Same(t, original, From(fmt.Errorf("ctx: %w", original)))
	})

	t.Run("uncoded error becomes internal", func(t *testing.T) {
		cause := errors.New("disk full")
		got := From(cause)
		require.NotNil(t, got)
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, "unexpected error", got.Message)
		assert.ErrorIs(t, got, cause)
	})
}
