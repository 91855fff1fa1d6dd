package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/internal/domain/repository"
	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
	"github.com/oksasatya/user-account-api/pkg/apperror"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// DB is the subset of pgxpool.Pool the repository uses; pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository persists users in the users table.
type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, created_at, updated_at`

// Save upserts by id and returns the stored row. A unique violation on the
// email column maps to an email-taken conflict, which is the race-safety
// backstop for concurrent registrations.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns+`
	`, u.ID(), u.Email().String(), u.Password().String(), u.FirstName(), u.LastName(), u.CreatedAt(), u.UpdatedAt())

	saved, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, apperror.Conflict("email already in use")
		}
		return nil, err
	}
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return absentOnNoRows(scanUser(row))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email valueobject.Email) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email.String())
	return absentOnNoRows(scanUser(row))
}

// FindAll returns a page of users in insertion order, which keeps results
// stable across calls with no intervening writes.
func (r *UserRepository) FindAll(ctx context.Context, p repository.Pagination) ([]*entity.User, error) {
	page := p.Page
	if page <= 0 {
		page = defaultPage
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email.String()).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		id, emailStr, hash, firstName, lastName string
		createdAt, updatedAt                    time.Time
	)
	if err := row.Scan(&id, &emailStr, &hash, &firstName, &lastName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	email, err := valueobject.NewEmail(emailStr)
	if err != nil {
		return nil, err
	}
	password, err := valueobject.NewPasswordFromHash(hash)
	if err != nil {
		return nil, err
	}
	return entity.RehydrateUser(id, email, password, firstName, lastName, createdAt, updatedAt)
}

func absentOnNoRows(u *entity.User, err error) (*entity.User, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
