package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"vidhub/internal/apierr"
	"vidhub/internal/models"
	"vidhub/internal/repositories"
	"vidhub/pkg/assetstore"
	"vidhub/pkg/events"
)

// UserService handles profile reads and updates, including avatar and cover
// image replacement through the asset store.
type UserService struct {
	userRepo  repositories.UserRepository
	assets    assetstore.Store
	publisher events.Publisher
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(userRepo repositories.UserRepository, assets assetstore.Store, publisher events.Publisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		assets:    assets,
		publisher: publisher,
	}
}

// Get returns the current user's public view.
func (s *UserService) Get(ctx context.Context, userID string) (*models.PublicUser, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// GetChannel returns the public profile behind a username.
func (s *UserService) GetChannel(ctx context.Context, username string) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apierr.NotFound("Channel does not exist")
	}
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// UpdateAccount updates the display name and email.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.PublicUser, error) {
	if fullName == "" || email == "" {
		return nil, apierr.BadRequest("All fields are required")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		if existing.ID != userID {
			return nil, apierr.Conflict("Email is already in use")
		}
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	if err := s.userRepo.UpdateAccount(ctx, userID, fullName, email); err != nil {
		return nil, err
	}

	user.FullName = fullName
	user.Email = email
	return user.Public(), nil
}

// UpdateAvatar uploads the replacement, persists its URL, and then removes
// the superseded asset best-effort.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, file *FileInput) (*models.PublicUser, error) {
	return s.updateImage(ctx, userID, file, "Avatar")
}

// UpdateCoverImage replaces the cover image the same way as UpdateAvatar.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, file *FileInput) (*models.PublicUser, error) {
	return s.updateImage(ctx, userID, file, "CoverImage")
}

func (s *UserService) updateImage(ctx context.Context, userID string, file *FileInput, kind string) (*models.PublicUser, error) {
	if file == nil || len(file.Data) == 0 {
		if kind == "Avatar" {
			return nil, apierr.BadRequest("Avatar file is required")
		}
		return nil, apierr.BadRequest("Cover image file is required")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.assets.Upload(ctx, file.Filename, file.ContentType, bytes.NewReader(file.Data))
	if err != nil {
		log.Printf("Image upload failed for user %s: %v", userID, err)
		return nil, apierr.Internal("Failed to upload image")
	}

	var previous string
	if kind == "Avatar" {
		previous = user.Avatar
		if err := s.userRepo.UpdateAvatar(ctx, userID, url); err != nil {
			return nil, err
		}
		user.Avatar = url
		s.publish(events.TypeUserAvatarUpdated, user.ID, user.Username)
	} else {
		previous = user.CoverImage
		if err := s.userRepo.UpdateCoverImage(ctx, userID, url); err != nil {
			return nil, err
		}
		user.CoverImage = url
		s.publish(events.TypeUserCoverImageUpdated, user.ID, user.Username)
	}

	// The record already points at the new asset, so a failed cleanup only
	// leaves an orphaned object behind.
	if previous != "" {
		if err := s.assets.Delete(ctx, previous); err != nil {
			log.Printf("Warning: Failed to delete superseded asset %s for user %s: %v", previous, userID, err)
		}
	}

	return user.Public(), nil
}

func (s *UserService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apierr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) publish(eventType, userID, username string) {
	if s.publisher == nil {
		log.Println("Event publisher is not initialized. Skipping message publication.")
		return
	}
	err := s.publisher.PublishUserEvent(events.Event{
		Type:       eventType,
		UserID:     userID,
		Username:   username,
		OccurredAt: time.Now(),
	})
	if err != nil {
		log.Printf("Warning: Failed to publish %s event for user %s: %v", eventType, userID, err)
	}
}
