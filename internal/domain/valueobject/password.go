package valueobject

import (
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

// Password is an immutable credential value. Depending on the constructor it
// holds either user-supplied plaintext (strength-checked) or a stored hash
// (accepted as-is). The value itself does not record which.
type Password struct {
	value string
}

// NewPasswordFromPlainText validates strength rules for user-supplied input:
// at least 8 characters with one uppercase letter, one lowercase letter and
// one digit. Symbols and spaces are allowed but satisfy no requirement.
func NewPasswordFromPlainText(plain string) (Password, error) {
	if plain == "" {
		return Password{}, apperror.Validation(apperror.KindWeakPassword, "password cannot be empty")
	}
	if len(plain) < 8 {
		return Password{}, apperror.Validation(apperror.KindWeakPassword, "password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range plain {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return Password{}, apperror.Validation(apperror.KindWeakPassword, "password must contain uppercase, lowercase, and numbers")
	}
	return Password{value: plain}, nil
}

// NewPasswordFromHash accepts an already-hashed credential. Strength rules do
// not apply here: rehydrating a stored hash must never re-run plaintext
// validation against a hash string.
func NewPasswordFromHash(hash string) (Password, error) {
	if hash == "" {
		return Password{}, apperror.Validation(apperror.KindEmptyPassword, "password cannot be empty")
	}
	return Password{value: hash}, nil
}

func (p Password) String() string { return p.value }

func (p Password) Equals(other Password) bool { return p.value == other.value }

func (p Password) IsZero() bool { return p.value == "" }
