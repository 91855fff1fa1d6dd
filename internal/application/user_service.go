package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	repo "github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/apperror"
	"github.com/oksasatya/user-account-api/pkg/helpers"
	"github.com/oksasatya/user-account-api/pkg/mailer"
)

// PasswordHasher hashes plaintext with a slow, salted one-way algorithm and
// verifies plaintext against a stored hash.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer signs session tokens carrying the user id as subject plus the
// normalized email.
type TokenIssuer interface {
	GenerateAccessToken(userID, email, sessionID string) (string, time.Time, error)
	GenerateRefreshToken(userID, email, sessionID string) (string, time.Time, error)
	ParseRefreshToken(token string) (*helpers.Claims, error)
}

// IDGenerator produces globally unique identifiers for new users and sessions.
type IDGenerator interface {
	NewID() string
}

// Publisher enqueues background jobs (welcome emails).
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service orchestrates the user identity and credential lifecycle. All
// collaborators are injected; Redis, ES and Pub are optional and skipped
// when nil.
type Service struct {
	Repo         repo.UserRepository
	Hasher       PasswordHasher
	Tokens       TokenIssuer
	IDs          IDGenerator
	Redis        *redis.Client
	Logger       *logrus.Logger
	Pub          Publisher
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(r repo.UserRepository, hasher PasswordHasher, tokens TokenIssuer, ids IDGenerator, rdb *redis.Client, logger *logrus.Logger, pub Publisher, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         r,
		Hasher:       hasher,
		Tokens:       tokens,
		IDs:          ids,
		Redis:        rdb,
		Logger:       logger,
		Pub:          pub,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput carries a partial profile update; nil fields are left
// unchanged, which is distinct from "supplied as empty".
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Register creates a new account. The uniqueness check and the strength
// validation both run before any hashing or persistence, so a duplicate email
// or weak password causes zero side effects.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	email, err := valueobject.NewEmail(in.Email)
	if err != nil {
		return nil, TokenPair{}, err
	}

	existing, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, apperror.Storage("email lookup failed", err)
	}
	if existing != nil {
		return nil, TokenPair{}, apperror.Conflict("email already in use")
	}

	plain, err := valueobject.NewPasswordFromPlainText(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	hash, err := s.Hasher.Hash(plain.String())
	if err != nil {
		return nil, TokenPair{}, apperror.Storage("password hashing failed", err)
	}
	credential, err := valueobject.NewPasswordFromHash(hash)
	if err != nil {
		return nil, TokenPair{}, err
	}

	u, err := entity.NewUser(s.IDs.NewID(), email, credential, in.FirstName, in.LastName)
	if err != nil {
		return nil, TokenPair{}, err
	}

	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		// A unique-constraint race surfaces here as a conflict; anything else
		// is a storage fault.
		if apperror.KindOf(err) == apperror.KindEmailTaken {
			return nil, TokenPair{}, err
		}
		return nil, TokenPair{}, apperror.Storage("saving user failed", err)
	}

	pair, err := s.issueTokens(ctx, saved)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.enqueueWelcomeEmail(ctx, saved)
	_ = s.indexUser(ctx, saved)

	return saved, pair, nil
}

// Login verifies the credential pair and issues tokens. Unknown email and
// wrong password yield the identical error so callers cannot enumerate
// accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	addr, err := valueobject.NewEmail(email)
	if err != nil {
		return nil, TokenPair{}, apperror.Unauthorized("invalid credentials")
	}
	u, err := s.Repo.FindByEmail(ctx, addr)
	if err != nil {
		return nil, TokenPair{}, apperror.Storage("email lookup failed", err)
	}
	if u == nil || !s.Hasher.Verify(password, u.Password().String()) {
		return nil, TokenPair{}, apperror.Unauthorized("invalid credentials")
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh rotates the token pair after validating the refresh token and its
// session. Any failure maps to invalid credentials.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", apperror.Unauthorized("invalid refresh token")
	}
	u, err := s.Repo.FindByID(ctx, claims.UserID())
	if err != nil || u == nil {
		return TokenPair{}, "", apperror.Unauthorized("invalid refresh token")
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID())).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, "", apperror.Unauthorized("invalid refresh token")
		}
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pair, u.ID(), nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("user lookup failed", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user not found")
	}
	return u, nil
}

// UpdateProfile applies a partial update. When the email changes to an
// address owned by a different user the update fails with a conflict; a case
// variant of the user's own address short-circuits without a directory
// round-trip.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.Storage("user lookup failed", err)
	}
	if u == nil {
		return nil, apperror.NotFound("user not found")
	}

	var newEmail *valueobject.Email
	if in.Email != nil {
		addr, err := valueobject.NewEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		if !addr.Equals(u.Email()) {
			other, err := s.Repo.FindByEmail(ctx, addr)
			if err != nil {
				return nil, apperror.Storage("email lookup failed", err)
			}
			if other != nil && other.ID() != u.ID() {
				return nil, apperror.Conflict("email already in use")
			}
			newEmail = &addr
		}
	}

	if err := u.UpdateProfile(in.FirstName, in.LastName, newEmail); err != nil {
		return nil, err
	}

	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindEmailTaken {
			return nil, err
		}
		return nil, apperror.Storage("saving user failed", err)
	}

	s.refreshSession(ctx, saved)
	_ = s.indexUser(ctx, saved)
	return saved, nil
}

// ChangePassword verifies the current password, validates the replacement
// and persists its hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, replacement string) error {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return apperror.Storage("user lookup failed", err)
	}
	if u == nil {
		return apperror.NotFound("user not found")
	}
	if !s.Hasher.Verify(current, u.Password().String()) {
		return apperror.Unauthorized("invalid credentials")
	}

	plain, err := valueobject.NewPasswordFromPlainText(replacement)
	if err != nil {
		return err
	}
	hash, err := s.Hasher.Hash(plain.String())
	if err != nil {
		return apperror.Storage("password hashing failed", err)
	}
	credential, err := valueobject.NewPasswordFromHash(hash)
	if err != nil {
		return err
	}
	if err := u.UpdatePassword(credential); err != nil {
		return err
	}
	if _, err := s.Repo.Save(ctx, u); err != nil {
		return apperror.Storage("saving user failed", err)
	}
	return nil
}

// ListUsers delegates to the directory. Defaults: page 1, limit 10, limit
// capped at 100.
func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]*entity.User, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	users, err := s.Repo.FindAll(ctx, repo.Pagination{Page: page, Limit: limit})
	if err != nil {
		return nil, apperror.Storage("listing users failed", err)
	}
	return users, nil
}

// Logout revokes the session so existing tokens stop validating.
func (s *Service) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
	}
}

// issueTokens generates an access/refresh pair and records the session in
// Redis under a fresh session id.
func (s *Service) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := s.IDs.NewID()
	access, aexp, err := s.Tokens.GenerateAccessToken(u.ID(), u.Email().String(), sid)
	if err != nil {
		s.logError(err, u.ID(), "generate access token failed")
		return TokenPair{}, apperror.Storage("token generation failed", err)
	}
	refresh, rexp, err := s.Tokens.GenerateRefreshToken(u.ID(), u.Email().String(), sid)
	if err != nil {
		s.logError(err, u.ID(), "generate refresh token failed")
		return TokenPair{}, apperror.Storage("token generation failed", err)
	}

	if s.Redis != nil {
		key := sessionKey(u.ID())
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID(),
			"email":      u.Email().String(),
			"name":       u.FullName(),
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// refreshSession mirrors profile changes into the session hash, preserving
// its TTL.
func (s *Service) refreshSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	key := sessionKey(u.ID())
	pipe := s.Redis.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"email":      u.Email().String(),
		"name":       u.FullName(),
		"updated_at": nowRFC3339(),
	})
	if ttl, tErr := s.Redis.TTL(ctx, key).Result(); tErr == nil && ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, pErr := pipe.Exec(ctx); pErr != nil && s.Logger != nil {
		s.Logger.WithError(pErr).WithField("key", key).Warn("redis pipeline failed")
	}
}

func (s *Service) enqueueWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	// Data keys follow the job's JSON convention; the worker's template
	// renderer looks them up by these names.
	job := mailer.EmailJob{
		To:       u.Email().String(),
		Template: "welcome",
		Data: map[string]any{
			"first_name": u.FirstName(),
			"full_name":  u.FullName(),
			"email":      u.Email().String(),
		},
	}
	if err := job.Validate(); err != nil {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID()).Warn("welcome email enqueue failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID(),
		"email":      u.Email().String(),
		"first_name": u.FirstName(),
		"last_name":  u.LastName(),
		"full_name":  u.FullName(),
		"created_at": u.CreatedAt().Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt().Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID(), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID()).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID()).Warn("es index response error")
	}
	return nil
}

// SearchUsers performs a multi_match query on email and name fields.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "first_name", "last_name", "full_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *Service) logError(err error, userID, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error(msg)
	}
}
