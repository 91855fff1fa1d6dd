package valueobject

import (
	"regexp"
	"strings"

	"github.com/oksasatya/user-account-api/pkg/apperror"
)

const maxEmailLength = 255

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is an immutable, normalized email address. The zero value is invalid;
// construct through NewEmail.
type Email struct {
	value string
}

// NewEmail normalizes (trim, lowercase) and validates the raw address.
func NewEmail(raw string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return Email{}, apperror.Validation(apperror.KindInvalidEmail, "email cannot be empty")
	}
	if !emailPattern.MatchString(v) {
		return Email{}, apperror.Validation(apperror.KindInvalidEmail, "invalid email format")
	}
	if len(v) > maxEmailLength {
		return Email{}, apperror.Validation(apperror.KindInvalidEmail, "email is too long")
	}
	return Email{value: v}, nil
}

func (e Email) String() string { return e.value }

// Equals compares normalized forms, so case variants of the same address are equal.
func (e Email) Equals(other Email) bool { return e.value == other.value }

func (e Email) IsZero() bool { return e.value == "" }
