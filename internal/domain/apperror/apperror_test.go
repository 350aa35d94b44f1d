package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("user", "42"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestAs(t *testing.T) {
	err := fmt.Errorf("create: %w", Validation("email", "email is required"))

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "email", e.Field)
	assert.Equal(t, "validation: email is required", e.Error())
}

func TestErrorWithCause(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindConflict, Message: "duplicate", Err: cause}

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "conflict: duplicate: boom", err.Error())
}
