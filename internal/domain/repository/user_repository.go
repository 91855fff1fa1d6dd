package repository

import (
	"context"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/internal/domain/valueobject"
)

// Pagination selects a page of results. Zero values fall back to the
// implementation's defaults.
type Pagination struct {
	Page  int
	Limit int
}

// UserRepository defines the persistence operations the application layer
// depends on. Lookups return (nil, nil) when no user matches; any returned
// error is a storage fault. Email lookups always use the normalized form
// carried by the Email value.
type UserRepository interface {
	// Save inserts or updates by id and returns the persisted representation,
	// so storage-assigned fields round-trip.
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email valueobject.Email) (*entity.User, error)
	FindAll(ctx context.Context, p Pagination) ([]*entity.User, error)
	ExistsByEmail(ctx context.Context, email valueobject.Email) (bool, error)
	Delete(ctx context.Context, id string) error
}
