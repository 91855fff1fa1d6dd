package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInvalidEmail, KindOf(Validation(KindInvalidEmail, "bad email")))
	assert.Equal(t, KindEmailTaken, KindOf(Conflict("taken")))
	assert.Equal(t, KindInvalidCredentials, KindOf(Unauthorized("nope")))
	assert.Equal(t, KindUserNotFound, KindOf(NotFound("gone")))
	assert.Equal(t, KindStorage, KindOf(Storage("boom", errors.New("db down"))))
	assert.Equal(t, KindStorage, KindOf(errors.New("plain error")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Conflict("taken"))
	assert.Equal(t, KindEmailTaken, KindOf(err))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(Validation(KindWeakPassword, "weak")))
	assert.True(t, IsValidation(Validation(KindEmptyName, "blank")))
	assert.False(t, IsValidation(Conflict("taken")))
	assert.False(t, IsValidation(Storage("boom", nil)))
	assert.False(t, IsValidation(nil))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "taken", Conflict("taken").Error())

	wrapped := Storage("lookup failed", errors.New("timeout"))
	assert.Equal(t, "lookup failed: timeout", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "timeout")
}

func TestIsMatchesByKind(t *testing.T) {
	assert.True(t, errors.Is(Conflict("a"), Conflict("b")))
	assert.False(t, errors.Is(Conflict("a"), NotFound("b")))
}
