package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

func mustEmail(t *testing.T, raw string) valueobject.Email {
	t.Helper()
	e, err := valueobject.NewEmail(raw)
	require.NoError(t, err)
	return e
}

func mustHash(t *testing.T, hash string) valueobject.Password {
	t.Helper()
	p, err := valueobject.NewPasswordFromHash(hash)
	require.NoError(t, err)
	return p
}

func newTestUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser("user-1", mustEmail(t, "jane@example.com"), mustHash(t, "stored-hash"), "Jane", "Doe")
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	t.Run("sets both timestamps to creation time", func(t *testing.T) {
		before := time.Now().UTC()
		u := newTestUser(t)
		after := time.Now().UTC()

		assert.Equal(t, u.CreatedAt(), u.UpdatedAt())
		assert.False(t, u.CreatedAt().Before(before))
		assert.False(t, u.CreatedAt().After(after))
	})

	t.Run("exposes identity and profile", func(t *testing.T) {
		u := newTestUser(t)
		assert.Equal(t, "user-1", u.ID())
		assert.Equal(t, "jane@example.com", u.Email().String())
		assert.Equal(t, "Jane", u.FirstName())
		assert.Equal(t, "Doe", u.LastName())
		assert.Equal(t, "Jane Doe", u.FullName())
	})

	t.Run("rejects blank names", func(t *testing.T) {
		_, err := NewUser("u", mustEmail(t, "a@b.co"), mustHash(t, "h"), "  ", "Doe")
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyName, apperror.KindOf(err))

		_, err = NewUser("u", mustEmail(t, "a@b.co"), mustHash(t, "h"), "Jane", "")
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyName, apperror.KindOf(err))
	})

	t.Run("rejects a zero credential", func(t *testing.T) {
		_, err := NewUser("u", mustEmail(t, "a@b.co"), valueobject.Password{}, "Jane", "Doe")
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyCredential, apperror.KindOf(err))
	})
}

func TestRehydrateUser(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2024, 6, 2, 15, 30, 0, 0, time.UTC)

	u, err := RehydrateUser("user-9", mustEmail(t, "old@example.com"), mustHash(t, "h"), "Old", "Timer", createdAt, updatedAt)
	require.NoError(t, err)
	assert.Equal(t, createdAt, u.CreatedAt())
	assert.Equal(t, updatedAt, u.UpdatedAt())
}

func TestUserUpdateProfile(t *testing.T) {
	str := func(s string) *string { return &s }

	t.Run("updates only the supplied fields", func(t *testing.T) {
		u := newTestUser(t)
		prevUpdated := u.UpdatedAt()

		require.NoError(t, u.UpdateProfile(str("Janet"), nil, nil))
		assert.Equal(t, "Janet", u.FirstName())
		assert.Equal(t, "Doe", u.LastName())
		assert.Equal(t, "jane@example.com", u.Email().String())
		assert.False(t, u.UpdatedAt().Before(prevUpdated))
	})

	t.Run("changes email when supplied", func(t *testing.T) {
		u := newTestUser(t)
		next := mustEmail(t, "janet@example.com")
		require.NoError(t, u.UpdateProfile(nil, nil, &next))
		assert.Equal(t, "janet@example.com", u.Email().String())
	})

	t.Run("leaves entity untouched on validation failure", func(t *testing.T) {
		u := newTestUser(t)
		prevUpdated := u.UpdatedAt()

		err := u.UpdateProfile(str("   "), str("Smith"), nil)
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyName, apperror.KindOf(err))

		assert.Equal(t, "Jane", u.FirstName())
		assert.Equal(t, "Doe", u.LastName(), "valid field in the same call must not apply")
		assert.Equal(t, prevUpdated, u.UpdatedAt())
	})

	t.Run("does not change createdAt", func(t *testing.T) {
		u := newTestUser(t)
		created := u.CreatedAt()
		require.NoError(t, u.UpdateProfile(str("Janet"), str("Smith"), nil))
		assert.Equal(t, created, u.CreatedAt())
	})
}

func TestUserUpdatePassword(t *testing.T) {
	t.Run("replaces credential and bumps updatedAt", func(t *testing.T) {
		u := newTestUser(t)
		prevUpdated := u.UpdatedAt()

		require.NoError(t, u.UpdatePassword(mustHash(t, "new-hash")))
		assert.Equal(t, "new-hash", u.Password().String())
		assert.False(t, u.UpdatedAt().Before(prevUpdated))
	})

	t.Run("rejects a zero credential", func(t *testing.T) {
		u := newTestUser(t)
		err := u.UpdatePassword(valueobject.Password{})
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyCredential, apperror.KindOf(err))
		assert.Equal(t, "stored-hash", u.Password().String())
	})
}
