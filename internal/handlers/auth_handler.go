package handlers

import (
	"fmt"
	"io"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidhub/internal/apierr"
	"vidhub/internal/response"
	"vidhub/internal/services"
)

// AuthHandler handles HTTP requests for registration and the session lifecycle.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
// requireAuth guards the routes that need an authenticated caller.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	users := router.Group("/users")
	users.Post("/register", h.HandleRegister)
	users.Post("/login", h.HandleLogin)
	users.Post("/refreshToken", h.HandleRefreshToken)
	users.Post("/logout", requireAuth, h.HandleLogout)
	users.Post("/change-password", requireAuth, h.HandleChangePassword)
}

// RegisterRequest represents the multipart form fields for registration.
type RegisterRequest struct {
	FullName string `json:"fullName" form:"fullName" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Username string `json:"username" form:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleRegister handles new user registration with avatar/cover-image upload.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return response.FailValidation(c, "Invalid request body", []string{err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return response.FailValidation(c, "Validation failed", validationMessages(err))
	}

	avatar, err := fileInput(c, "avatar")
	if err != nil {
		return response.Fail(c, apierr.BadRequest("Avatar file is required"))
	}
	coverImage, _ := fileInput(c, "coverImage") // optional

	user, err := h.authService.Register(c.Context(), services.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}, avatar, coverImage)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Username, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusCreated, user, "User registered successfully")
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// HandleLogin authenticates the user and delivers the token pair both as
// http-only cookies and in the response body for non-cookie clients.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return response.FailValidation(c, "Invalid request body", []string{err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return response.FailValidation(c, "Validation failed", validationMessages(err))
	}

	session, err := h.authService.Login(c.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s%s: %v", req.Username, req.Email, err)
		return response.Fail(c, err)
	}

	setSessionCookies(c, session)
	return response.OK(c, fiber.StatusOK, fiber.Map{
		"user":         session.User,
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	}, "User logged in successfully")
}

// HandleRefreshToken rotates the refresh token. The incoming token is read
// from the cookie first, falling back to the request body.
func (h *AuthHandler) HandleRefreshToken(c *fiber.Ctx) error {
	token := c.Cookies("refreshToken")
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if err := c.BodyParser(&body); err == nil {
			token = body.RefreshToken
		}
	}

	session, err := h.authService.Refresh(c.Context(), token)
	if err != nil {
		log.Printf("Error refreshing token: %v", err)
		return response.Fail(c, err)
	}

	setSessionCookies(c, session)
	return response.OK(c, fiber.StatusOK, fiber.Map{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	}, "Access token refreshed")
}

// HandleLogout invalidates the stored refresh token and clears both cookies.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	if err := h.authService.Logout(c.Context(), userID); err != nil {
		log.Printf("Error during logout for user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	clearSessionCookies(c)
	return response.OK(c, fiber.StatusOK, nil, "User logged out successfully")
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" validate:"required"`
}

// HandleChangePassword verifies the old password and stores the new one.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing change-password request body: %v", err)
		return response.FailValidation(c, "Invalid request body", []string{err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return response.FailValidation(c, "Validation failed", validationMessages(err))
	}

	userID, _ := c.Locals("user_id").(string)
	if err := h.authService.ChangePassword(c.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		log.Printf("Error changing password for user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, nil, "Password changed successfully")
}

func setSessionCookies(c *fiber.Ctx, session *services.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     "accessToken",
		Value:    session.AccessToken,
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refreshToken",
		Value:    session.RefreshToken,
		Path:     "/",
		HTTPOnly: true,
		Secure:   true,
	})
}

func clearSessionCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   true,
		})
	}
}

// fileInput reads one uploaded file from the multipart form.
func fileInput(c *fiber.Ctx, field string) (*services.FileInput, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file %s: %w", field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file %s: %w", field, err)
	}

	return &services.FileInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func validationMessages(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	return messages
}
