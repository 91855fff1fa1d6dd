package valueobject

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/pkg/apperror"
)

func TestNewEmail(t *testing.T) {
	t.Run("normalizes case and surrounding whitespace", func(t *testing.T) {
		e, err := NewEmail("  John.Doe@Example.COM  ")
		require.NoError(t, err)
		assert.Equal(t, "john.doe@example.com", e.String())
	})

	t.Run("accepts plus addressing and subdomains", func(t *testing.T) {
		for _, raw := range []string{
			"user+tag@mail.example.com",
			"a@b.co",
			"first.last@sub.domain.org",
		} {
			_, err := NewEmail(raw)
			assert.NoError(t, err, raw)
		}
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := NewEmail("   ")
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidEmail, apperror.KindOf(err))
	})

	t.Run("rejects malformed addresses", func(t *testing.T) {
		for _, raw := range []string{
			"plainaddress",
			"@example.com",
			"user@",
			"user@nodot",
			"user name@example.com",
			"user@exam ple.com",
			"user@@example.com",
		} {
			_, err := NewEmail(raw)
			assert.Error(t, err, raw)
			assert.True(t, apperror.IsValidation(err), raw)
		}
	})

	t.Run("rejects addresses over 255 characters", func(t *testing.T) {
		local := strings.Repeat("a", 250)
		_, err := NewEmail(local + "@example.com")
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidEmail, apperror.KindOf(err))
	})
}

func TestEmailEquals(t *testing.T) {
	a, err := NewEmail("USER@example.com")
	require.NoError(t, err)
	b, err := NewEmail("user@EXAMPLE.com")
	require.NoError(t, err)
	c, err := NewEmail("other@example.com")
	require.NoError(t, err)

	assert.True(t, a.Equals(b), "case variants normalize to the same address")
	assert.False(t, a.Equals(c))
}

func TestEmailIsZero(t *testing.T) {
	var zero Email
	assert.True(t, zero.IsZero())

	e, err := NewEmail("user@example.com")
	require.NoError(t, err)
	assert.False(t, e.IsZero())
}
