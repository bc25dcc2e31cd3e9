package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Password holds a bcrypt hash and
// RefreshToken holds the single currently valid refresh token ("" when the
// user is logged out); neither is ever serialized.
type User struct {
	ID           string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username     string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email        string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	FullName     string `json:"fullName" gorm:"type:varchar(255)" validate:"required"`
	Password     string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Avatar       string `json:"avatar" gorm:"type:varchar(512)"`
	CoverImage   string `json:"coverImage" gorm:"type:varchar(512)"`
	RefreshToken string `json:"-" gorm:"type:varchar(512)"`
	WatchHistory string `json:"-" gorm:"type:text"` // opaque reference, not part of the auth scope
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// PublicUser is the projection returned to clients. It is constructed at the
// read boundary so the credential fields can never leak, even if User grows
// new sensitive fields later.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Public returns the client-safe view of the user.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
	}
}
