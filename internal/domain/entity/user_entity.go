package entity

import (
	"strings"
	"time"

	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

// User is the aggregate root for the user domain. Credentials are stored as
// bcrypt hashes in the password value; plaintext never reaches this entity.
//
// Fields are unexported so invariants can only change through the mutation
// methods below.
type User struct {
	id        string
	email     valueobject.Email
	password  valueobject.Password
	firstName string
	lastName  string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser constructs a freshly registered user with both timestamps set to now.
func NewUser(id string, email valueobject.Email, password valueobject.Password, firstName, lastName string) (*User, error) {
	now := time.Now().UTC()
	return newUser(id, email, password, firstName, lastName, now, now)
}

// RehydrateUser reconstructs a user from storage, keeping the persisted
// timestamps. The same invariants apply as at creation.
func RehydrateUser(id string, email valueobject.Email, password valueobject.Password, firstName, lastName string, createdAt, updatedAt time.Time) (*User, error) {
	return newUser(id, email, password, firstName, lastName, createdAt, updatedAt)
}

func newUser(id string, email valueobject.Email, password valueobject.Password, firstName, lastName string, createdAt, updatedAt time.Time) (*User, error) {
	u := &User{
		id:        id,
		email:     email,
		password:  password,
		firstName: firstName,
		lastName:  lastName,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) validate() error {
	if strings.TrimSpace(u.firstName) == "" {
		return apperror.Validation(apperror.KindEmptyName, "first name cannot be empty")
	}
	if strings.TrimSpace(u.lastName) == "" {
		return apperror.Validation(apperror.KindEmptyName, "last name cannot be empty")
	}
	if u.password.IsZero() {
		return apperror.Validation(apperror.KindEmptyCredential, "password cannot be empty")
	}
	return nil
}

// UpdateProfile applies only the supplied fields (nil means "leave unchanged"),
// re-validates the resulting state and bumps updatedAt. On a validation
// failure the entity is left untouched.
func (u *User) UpdateProfile(firstName, lastName *string, email *valueobject.Email) error {
	next := *u
	if firstName != nil {
		next.firstName = *firstName
	}
	if lastName != nil {
		next.lastName = *lastName
	}
	if email != nil {
		next.email = *email
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.updatedAt = time.Now().UTC()
	*u = next
	return nil
}

// UpdatePassword replaces the credential and bumps updatedAt. The password
// was already validated at its own construction.
func (u *User) UpdatePassword(password valueobject.Password) error {
	if password.IsZero() {
		return apperror.Validation(apperror.KindEmptyCredential, "password cannot be empty")
	}
	u.password = password
	u.updatedAt = time.Now().UTC()
	return nil
}

func (u *User) ID() string                     { return u.id }
func (u *User) Email() valueobject.Email       { return u.email }
func (u *User) Password() valueobject.Password { return u.password }
func (u *User) FirstName() string              { return u.firstName }
func (u *User) LastName() string               { return u.lastName }
func (u *User) CreatedAt() time.Time           { return u.createdAt }
func (u *User) UpdatedAt() time.Time           { return u.updatedAt }

func (u *User) FullName() string { return u.firstName + " " + u.lastName }
