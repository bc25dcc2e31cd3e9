package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"vidhub/internal/apierr"
	"vidhub/internal/models"
	"vidhub/internal/repositories"
	"vidhub/pkg/assetstore"
	"vidhub/pkg/events"
)

// FileInput carries an uploaded file through the service layer.
type FileInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RegisterInput holds the fields required to create an account.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

// Session is the result of a successful login or refresh. The refresh token
// it carries is the one now persisted on the user record; any previously
// issued refresh token is revoked from this point on.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.PublicUser
}

// AuthService handles registration and the session lifecycle: login,
// refresh-token rotation, logout and password change.
type AuthService struct {
	userRepo  repositories.UserRepository
	tokens    *TokenService
	assets    assetstore.Store
	publisher events.Publisher
}

// NewAuthService creates a new AuthService. publisher may be nil, in which
// case lifecycle events are skipped.
func NewAuthService(userRepo repositories.UserRepository, tokens *TokenService, assets assetstore.Store, publisher events.Publisher) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokens:    tokens,
		assets:    assets,
		publisher: publisher,
	}
}

// Register creates a new account. The avatar upload must succeed before the
// record is created; a failed upload leaves no partial user behind.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, avatar, coverImage *FileInput) (*models.PublicUser, error) {
	if avatar == nil || len(avatar.Data) == 0 {
		return nil, apierr.BadRequest("Avatar file is required")
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))

	if _, err := s.userRepo.GetByUsernameOrEmail(ctx, username, in.Email); err == nil {
		return nil, apierr.Conflict("User with this email or username already exists")
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	avatarURL, err := s.assets.Upload(ctx, avatar.Filename, avatar.ContentType, bytes.NewReader(avatar.Data))
	if err != nil {
		log.Printf("Avatar upload failed for %s: %v", username, err)
		return nil, apierr.Internal("Failed to upload avatar")
	}

	coverURL := ""
	if coverImage != nil && len(coverImage.Data) > 0 {
		coverURL, err = s.assets.Upload(ctx, coverImage.Filename, coverImage.ContentType, bytes.NewReader(coverImage.Data))
		if err != nil {
			log.Printf("Cover image upload failed for %s: %v", username, err)
			return nil, apierr.Internal("Failed to upload cover image")
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:   username,
		Email:      in.Email,
		FullName:   in.FullName,
		Password:   string(hashedPassword),
		Avatar:     avatarURL,
		CoverImage: coverURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	created, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, apierr.Internal("Something went wrong while registering the user")
	}

	s.publish(events.TypeUserRegistered, created.ID, created.Username)
	return created.Public(), nil
}

// Login authenticates by username or email and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, username, email, password string) (*Session, error) {
	if username == "" && email == "" {
		return nil, apierr.BadRequest("Username or email is required")
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, strings.ToLower(username), email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apierr.NotFound("User does not exist")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.Unauthorized("Invalid user credentials")
	}

	return s.issueSession(ctx, user)
}

// Refresh exchanges a valid, current refresh token for a rotated token pair.
// A superseded token is rejected even while cryptographically valid, which is
// what makes rotation an effective revocation mechanism.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*Session, error) {
	if presented == "" {
		return nil, apierr.Unauthorized("Unauthorized request")
	}

	userID, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return nil, apierr.Unauthorized("Invalid refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apierr.Unauthorized("Invalid refresh token")
	}

	if user.RefreshToken != presented {
		return nil, apierr.Unauthorized("Refresh token is expired or used")
	}

	return s.issueSession(ctx, user)
}

// Logout clears the stored refresh token. Already-issued access tokens stay
// valid until natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apierr.NotFound("User not found")
		}
		return err
	}
	return nil
}

// ChangePassword verifies the old password and stores a hash of the new one.
// Outstanding tokens are not rotated.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apierr.NotFound("User not found")
	}
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apierr.Unauthorized("Invalid old password")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	s.publish(events.TypeUserPasswordChanged, user.ID, user.Username)
	return nil
}

// issueSession issues a token pair and overwrites the stored refresh token.
// The single-column update keeps the write atomic at the store level.
func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*Session, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

func (s *AuthService) publish(eventType, userID, username string) {
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
