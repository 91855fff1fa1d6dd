package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/mailer"
)

// fakeRepo is an in-memory UserRepository that counts calls so tests can
// assert on side effects.
type fakeRepo struct {
	users            map[string]*entity.User
	saveCalls        int
	findByEmailCalls int
	findAllPg        repo.Pagination
	saveErr          error
	findErr          error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*entity.User{}}
}

func (f *fakeRepo) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.users[u.ID()] = u
	return u, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.users[id], nil
}

func (f *fakeRepo) FindByEmail(_ context.Context, email valueobject.Email) (*entity.User, error) {
	f.findByEmailCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email().Equals(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindAll(_ context.Context, pg repo.Pagination) ([]*entity.User, error) {
	f.findAllPg = pg
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*entity.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	u, err := f.FindByEmail(ctx, email)
	return u != nil, err
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	return nil
}

// fakeHasher produces deterministic, reversible "hashes" so tests can tell
// plaintext from stored credentials without bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }
func (fakeHasher) Verify(plain, hash string) bool    { return hash == "hashed:"+plain }

type fakeIssuer struct {
	refresh map[string]*helpers.Claims
}

func (f *fakeIssuer) GenerateAccessToken(userID, email, sessionID string) (string, time.Time, error) {
	return fmt.Sprintf("access|%s|%s|%s", userID, email, sessionID), time.Now().Add(time.Hour), nil
}

func (f *fakeIssuer) GenerateRefreshToken(userID, email, sessionID string) (string, time.Time, error) {
	token := fmt.Sprintf("refresh|%s|%s|%s", userID, email, sessionID)
	if f.refresh == nil {
		f.refresh = map[string]*helpers.Claims{}
	}
	f.refresh[token] = &helpers.Claims{Email: email, SessionID: sessionID}
	f.refresh[token].Subject = userID
	return token, time.Now().Add(24 * time.Hour), nil
}

func (f *fakeIssuer) ParseRefreshToken(token string) (*helpers.Claims, error) {
	if c, ok := f.refresh[token]; ok {
		return c, nil
	}
	return nil, errors.New("token is malformed")
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type fakePub struct {
	published []any
	err       error
}

func (f *fakePub) PublishJSON(_ context.Context, body any) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, body)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService(r *fakeRepo) (*Service, *fakePub) {
	pub := &fakePub{}
	svc := NewService(r, fakeHasher{}, &fakeIssuer{}, &seqIDs{}, nil, quietLogger(), pub, nil, "")
	return svc, pub
}

func registerUser(t *testing.T, svc *Service, email string) *entity.User {
	t.Helper()
	u, _, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "Password123",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, err)
	return u
}

func TestServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user and issues tokens", func(t *testing.T) {
		r := newFakeRepo()
		svc, pub := newTestService(r)

		u, pair, err := svc.Register(ctx, RegisterInput{
			Email:     "  Jane.Doe@Example.COM ",
			Password:  "Password123",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.NoError(t, err)
		assert.Equal(t, "jane.doe@example.com", u.Email().String())
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, 1, r.saveCalls)

		require.Len(t, pub.published, 1, "welcome email enqueued")
		job, ok := pub.published[0].(mailer.EmailJob)
		require.True(t, ok)
		assert.Equal(t, "jane.doe@example.com", job.To)
		assert.Equal(t, "welcome", job.Template)
		assert.Equal(t, "Jane", job.Data["first_name"], "renderer reads this key")
		assert.Equal(t, "Jane Doe", job.Data["full_name"])
	})

	t.Run("stores a hash, never the plaintext", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		u := registerUser(t, svc, "jane@example.com")
		assert.NotEqual(t, "Password123", u.Password().String())
		assert.Equal(t, "hashed:Password123", u.Password().String())
	})

	t.Run("rejects a duplicate email without saving", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registerUser(t, svc, "jane@example.com")
		savesBefore := r.saveCalls

		_, _, err := svc.Register(ctx, RegisterInput{
			Email:     "JANE@EXAMPLE.COM",
			Password:  "Password123",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmailTaken, apperror.KindOf(err))
		assert.Equal(t, savesBefore, r.saveCalls)
	})

	t.Run("duplicate email wins over weak password", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registerUser(t, svc, "jane@example.com")

		_, _, err := svc.Register(ctx, RegisterInput{
			Email:     "jane@example.com",
			Password:  "weak",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmailTaken, apperror.KindOf(err))
	})

	t.Run("rejects a weak password without saving", func(t *testing.T) {
		r := newFakeRepo()
		svc, pub := newTestService(r)

		_, _, err := svc.Register(ctx, RegisterInput{
			Email:     "jane@example.com",
			Password:  "password",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindWeakPassword, apperror.KindOf(err))
		assert.Zero(t, r.saveCalls)
		assert.Empty(t, pub.published)
	})

	t.Run("rejects an invalid email before touching the directory", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, _, err := svc.Register(ctx, RegisterInput{
			Email:     "not-an-email",
			Password:  "Password123",
			FirstName: "Jane",
			LastName:  "Doe",
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidEmail, apperror.KindOf(err))
		assert.Zero(t, r.findByEmailCalls)
	})

	t.Run("rejects blank names without saving", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, _, err := svc.Register(ctx, RegisterInput{
			Email:     "jane@example.com",
			Password:  "Password123",
			FirstName: " ",
			LastName:  "Doe",
		})
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmptyName, apperror.KindOf(err))
		assert.Zero(t, r.saveCalls)
	})
}

func TestServiceLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		u, pair, err := svc.Login(ctx, "Jane@Example.com", "Password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID(), u.ID())
		assert.NotEmpty(t, pair.AccessToken)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registerUser(t, svc, "jane@example.com")

		_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "Password123")
		_, _, errWrong := svc.Login(ctx, "jane@example.com", "WrongPass1")
		require.Error(t, errUnknown)
		require.Error(t, errWrong)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
		assert.Equal(t, apperror.KindOf(errUnknown), apperror.KindOf(errWrong))
	})

	t.Run("malformed email maps to the same credential failure", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, _, err := svc.Login(ctx, "not-an-email", "Password123")
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))
	})
}

func TestServiceRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the pair for a valid refresh token", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")
		_, pair, err := svc.Login(ctx, "jane@example.com", "Password123")
		require.NoError(t, err)

		next, userID, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID(), userID)
		assert.NotEmpty(t, next.AccessToken)
		assert.NotEqual(t, pair.AccessToken, next.AccessToken, "fresh session id per rotation")
	})

	t.Run("rejects an unknown token", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, _, err := svc.Refresh(ctx, "garbage")
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))
	})
}

func TestServiceGetProfile(t *testing.T) {
	ctx := context.Background()
	r := newFakeRepo()
	svc, _ := newTestService(r)
	registered := registerUser(t, svc, "jane@example.com")

	t.Run("returns the stored user", func(t *testing.T) {
		u, err := svc.GetProfile(ctx, registered.ID())
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email().String())
	})

	t.Run("unknown id yields not found", func(t *testing.T) {
		_, err := svc.GetProfile(ctx, "missing")
		require.Error(t, err)
		assert.Equal(t, apperror.KindUserNotFound, apperror.KindOf(err))
	})
}

func TestServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()
	str := func(s string) *string { return &s }

	t.Run("applies only the supplied fields", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		u, err := svc.UpdateProfile(ctx, registered.ID(), UpdateProfileInput{FirstName: str("Janet")})
		require.NoError(t, err)
		assert.Equal(t, "Janet", u.FirstName())
		assert.Equal(t, "Doe", u.LastName())
		assert.Equal(t, "jane@example.com", u.Email().String())
	})

	t.Run("changes email to an unclaimed address", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		u, err := svc.UpdateProfile(ctx, registered.ID(), UpdateProfileInput{Email: str("janet@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "janet@example.com", u.Email().String())
	})

	t.Run("own email in a different case skips the directory lookup", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")
		lookupsBefore := r.findByEmailCalls

		u, err := svc.UpdateProfile(ctx, registered.ID(), UpdateProfileInput{Email: str("JANE@EXAMPLE.COM")})
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", u.Email().String())
		assert.Equal(t, lookupsBefore, r.findByEmailCalls)
	})

	t.Run("conflicts when another user owns the address", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")
		registerUser(t, svc, "taken@example.com")
		savesBefore := r.saveCalls

		_, err := svc.UpdateProfile(ctx, registered.ID(), UpdateProfileInput{Email: str("taken@example.com")})
		require.Error(t, err)
		assert.Equal(t, apperror.KindEmailTaken, apperror.KindOf(err))
		assert.Equal(t, savesBefore, r.saveCalls)
	})

	t.Run("invalid replacement email fails validation", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		_, err := svc.UpdateProfile(ctx, registered.ID(), UpdateProfileInput{Email: str("nope")})
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidEmail, apperror.KindOf(err))
	})

	t.Run("unknown user yields not found", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{FirstName: str("X")})
		require.Error(t, err)
		assert.Equal(t, apperror.KindUserNotFound, apperror.KindOf(err))
	})
}

func TestServiceChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the credential after verifying the current one", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		require.NoError(t, svc.ChangePassword(ctx, registered.ID(), "Password123", "NewSecret9"))

		_, _, err := svc.Login(ctx, "jane@example.com", "NewSecret9")
		assert.NoError(t, err)
		_, _, err = svc.Login(ctx, "jane@example.com", "Password123")
		assert.Error(t, err)
	})

	t.Run("rejects a wrong current password", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")

		err := svc.ChangePassword(ctx, registered.ID(), "WrongPass1", "NewSecret9")
		require.Error(t, err)
		assert.Equal(t, apperror.KindInvalidCredentials, apperror.KindOf(err))
	})

	t.Run("rejects a weak replacement", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)
		registered := registerUser(t, svc, "jane@example.com")
		savesBefore := r.saveCalls

		err := svc.ChangePassword(ctx, registered.ID(), "Password123", "short")
		require.Error(t, err)
		assert.Equal(t, apperror.KindWeakPassword, apperror.KindOf(err))
		assert.Equal(t, savesBefore, r.saveCalls)
	})
}

func TestServiceListUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("applies defaults and caps the limit", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		_, err := svc.ListUsers(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, repo.Pagination{Page: 1, Limit: 10}, r.findAllPg)

		_, err = svc.ListUsers(ctx, 2, 500)
		require.NoError(t, err)
		assert.Equal(t, repo.Pagination{Page: 2, Limit: 100}, r.findAllPg)
	})

	t.Run("empty directory yields an empty slice", func(t *testing.T) {
		r := newFakeRepo()
		svc, _ := newTestService(r)

		users, err := svc.ListUsers(ctx, 1, 10)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})
}

func TestServiceSearchUsersWithoutES(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())
	out, err := svc.SearchUsers(context.Background(), "jane", 10)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
