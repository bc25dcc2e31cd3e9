package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidhub/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByUsernameOrEmail retrieves a user matching either identifier.
func (r *GORMUserRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	return r.first(ctx, "username = ? OR email = ?", username, email)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, append([]interface{}{query}, args...)...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateRefreshToken overwrites the stored refresh token for the user.
// An empty token marks the session as logged out.
func (r *GORMUserRepository) UpdateRefreshToken(ctx context.Context, id, token string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"refresh_token": token})
}

// UpdatePassword overwrites the stored password hash for the user.
func (r *GORMUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": passwordHash})
}

// UpdateAccount overwrites the user's display name and email.
func (r *GORMUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"full_name": fullName, "email": email})
}

// UpdateAvatar overwrites the user's avatar URL.
func (r *GORMUserRepository) UpdateAvatar(ctx context.Context, id, url string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"avatar": url})
}

// UpdateCoverImage overwrites the user's cover image URL.
func (r *GORMUserRepository) UpdateCoverImage(ctx context.Context, id, url string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"cover_image": url})
}

func (r *GORMUserRepository) updateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("failed to update user %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
