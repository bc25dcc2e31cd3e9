package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vidhub/internal/apierr"
	"vidhub/internal/models"
	"vidhub/internal/repositories"
	"vidhub/internal/services"
)

func testAvatar() *services.FileInput {
	return &services.FileInput{Filename: "avatar.png", ContentType: "image/png", Data: []byte("png-bytes")}
}

func assertAPIError(t *testing.T, err error, status int) *apierr.APIError {
	t.Helper()
	var apiErr *apierr.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.Status)
	return apiErr
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockAssets := new(MockAssetStore)
	tokenService := services.NewTokenService(testTokenConfig())
	authService := services.NewAuthService(mockRepo, tokenService, mockAssets, nil)

	input := services.RegisterInput{
		FullName: "Alice Example",
		Email:    "alice@x.com",
		Username: "Alice",
		Password: "pw123456",
	}

	// Successful registration: username is lowercased, the avatar upload
	// happens before the record is created, and the stored password is a
	// bcrypt hash of the input.
	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "alice", "alice@x.com").
		Return(nil, repositories.ErrUserNotFound).Once()
	mockAssets.On("Upload", mock.Anything, "avatar.png", "image/png", mock.Anything).
		Return("http://assets.local/media/avatar.png", nil).Once()
	var created models.User
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*models.User)
			u.ID = "user-123"
			created = *u
		}).Return(nil).Once()
	mockRepo.On("GetByID", mock.Anything, "user-123").
		Return(&models.User{
			ID:       "user-123",
			Username: "alice",
			Email:    "alice@x.com",
			FullName: "Alice Example",
			Password: "stored-hash",
			Avatar:   "http://assets.local/media/avatar.png",
		}, nil).Once()

	user, err := authService.Register(context.Background(), input, testAvatar(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("pw123456")))
	assert.Equal(t, "http://assets.local/media/avatar.png", user.Avatar)
	assert.Equal(t, "", user.CoverImage)
	mockRepo.AssertExpectations(t)
	mockAssets.AssertExpectations(t)

	// The returned view never carries credential fields in any form.
	body, err := json.Marshal(user)
	assert.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "refreshToken")
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockAssets := new(MockAssetStore)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), mockAssets, nil)

	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "alice", "alice@x.com").
		Return(&models.User{ID: "user-1"}, nil).Once()

	_, err := authService.Register(context.Background(), services.RegisterInput{
		FullName: "Alice Example",
		Email:    "alice@x.com",
		Username: "alice",
		Password: "pw123456",
	}, testAvatar(), nil)
	assertAPIError(t, err, 409)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockAssets.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RegisterMissingAvatar(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockAssets := new(MockAssetStore)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), mockAssets, nil)

	_, err := authService.Register(context.Background(), services.RegisterInput{
		FullName: "Alice Example",
		Email:    "alice@x.com",
		Username: "alice",
		Password: "pw123456",
	}, nil, nil)
	assertAPIError(t, err, 400)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUploadFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockAssets := new(MockAssetStore)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), mockAssets, nil)

	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "alice", "alice@x.com").
		Return(nil, repositories.ErrUserNotFound).Once()
	mockAssets.On("Upload", mock.Anything, "avatar.png", "image/png", mock.Anything).
		Return("", assert.AnError).Once()

	_, err := authService.Register(context.Background(), services.RegisterInput{
		FullName: "Alice Example",
		Email:    "alice@x.com",
		Username: "alice",
		Password: "pw123456",
	}, testAvatar(), nil)
	assertAPIError(t, err, 500)

	// A failed upload must not leave a partial record behind.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := services.NewTokenService(testTokenConfig())
	authService := services.NewAuthService(mockRepo, tokenService, new(MockAssetStore), nil)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:       "user-123",
		Username: "alice",
		Email:    "alice@x.com",
		Password: string(hashedPassword),
	}

	var stored string
	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "alice", "").Return(user, nil).Once()
	mockRepo.On("UpdateRefreshToken", mock.Anything, "user-123", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).Return(nil).Once()

	session, err := authService.Login(context.Background(), "alice", "", "pw123")
	assert.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, session.RefreshToken, stored)
	assert.Equal(t, "alice", session.User.Username)

	userID, err := tokenService.VerifyAccessToken(session.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("pw123"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Username: "alice", Password: string(hashedPassword)}

	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "alice", "").Return(user, nil).Once()

	_, err := authService.Login(context.Background(), "alice", "", "wrongpassword")
	assertAPIError(t, err, 401)
	// A failed login must leave the stored refresh token untouched.
	mockRepo.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	mockRepo.On("GetByUsernameOrEmail", mock.Anything, "ghost", "").
		Return(nil, repositories.ErrUserNotFound).Once()

	_, err := authService.Login(context.Background(), "ghost", "", "pw123")
	assertAPIError(t, err, 404)
}

func TestAuthService_LoginMissingIdentifier(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	_, err := authService.Login(context.Background(), "", "", "pw123")
	assertAPIError(t, err, 400)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := services.NewTokenService(testTokenConfig())
	authService := services.NewAuthService(mockRepo, tokenService, new(MockAssetStore), nil)

	firstToken, err := tokenService.IssueRefreshToken("user-123")
	require.NoError(t, err)

	user := &models.User{ID: "user-123", Username: "alice", RefreshToken: firstToken}
	mockRepo.On("GetByID", mock.Anything, "user-123").Return(user, nil)
	mockRepo.On("UpdateRefreshToken", mock.Anything, "user-123", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { user.RefreshToken = args.String(2) }).Return(nil)

	// First refresh succeeds and rotates the stored token.
	session, err := authService.Refresh(context.Background(), firstToken)
	assert.NoError(t, err)
	assert.NotEqual(t, firstToken, session.RefreshToken)
	assert.Equal(t, session.RefreshToken, user.RefreshToken)

	// Reusing the superseded token fails even though it is still validly
	// signed and unexpired.
	_, err = authService.Refresh(context.Background(), firstToken)
	apiErr := assertAPIError(t, err, 401)
	assert.Equal(t, "Refresh token is expired or used", apiErr.Message)

	// The rotated token keeps working.
	_, err = authService.Refresh(context.Background(), session.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_RefreshInvalidToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	_, err := authService.Refresh(context.Background(), "")
	assertAPIError(t, err, 401)

	_, err = authService.Refresh(context.Background(), "invalid.token.string")
	assertAPIError(t, err, 401)
}

func TestAuthService_RefreshAfterLogout(t *testing.T) {
	mockRepo := new(MockUserRepository)
	tokenService := services.NewTokenService(testTokenConfig())
	authService := services.NewAuthService(mockRepo, tokenService, new(MockAssetStore), nil)

	refreshToken, err := tokenService.IssueRefreshToken("user-123")
	require.NoError(t, err)

	user := &models.User{ID: "user-123", Username: "alice", RefreshToken: refreshToken}
	mockRepo.On("GetByID", mock.Anything, "user-123").Return(user, nil)
	mockRepo.On("UpdateRefreshToken", mock.Anything, "user-123", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { user.RefreshToken = args.String(2) }).Return(nil)

	err = authService.Logout(context.Background(), "user-123")
	assert.NoError(t, err)
	assert.Equal(t, "", user.RefreshToken)

	_, err = authService.Refresh(context.Background(), refreshToken)
	assertAPIError(t, err, 401)
}

func TestAuthService_ChangePassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockPublisher := new(MockPublisher)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), new(MockAssetStore), mockPublisher)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Username: "alice", Password: string(hashedPassword)}

	var newHash string
	mockRepo.On("GetByID", mock.Anything, "user-123").Return(user, nil).Once()
	mockRepo.On("UpdatePassword", mock.Anything, "user-123", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { newHash = args.String(2) }).Return(nil).Once()
	mockPublisher.On("PublishUserEvent", mock.AnythingOfType("events.Event")).Return(nil).Once()

	err := authService.ChangePassword(context.Background(), "user-123", "oldpassword", "newpassword")
	assert.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpassword")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(newHash), []byte("oldpassword")))
	mockRepo.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestAuthService_ChangePasswordWrongOld(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)
	user := &models.User{ID: "user-123", Username: "alice", Password: string(hashedPassword)}

	mockRepo.On("GetByID", mock.Anything, "user-123").Return(user, nil).Once()

	err := authService.ChangePassword(context.Background(), "user-123", "wrongpassword", "newpassword")
	assertAPIError(t, err, 401)
	mockRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ChangePasswordUnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, services.NewTokenService(testTokenConfig()), new(MockAssetStore), nil)

	mockRepo.On("GetByID", mock.Anything, "ghost").Return(nil, repositories.ErrUserNotFound).Once()

	err := authService.ChangePassword(context.Background(), "ghost", "oldpassword", "newpassword")
	assertAPIError(t, err, 404)
}
