package repositories

import (
	"context"
	"errors"

	"vidhub/internal/models"
)

// ErrUserNotFound is returned by lookups when no matching record exists.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)

	// Single-field updates. Each issues one UPDATE against one row so the
	// write is atomic at the store level and skips full-record validation.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url string) error
	UpdateCoverImage(ctx context.Context, id, url string) error
}
