package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vidhub/internal/apierr"
	"vidhub/internal/response"
	"vidhub/internal/services"
)

// UserHandler handles HTTP requests for profile reads and updates.
type UserHandler struct {
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the profile routes with the Fiber app. The update
// endpoints accept both PATCH and POST for client compatibility.
func (h *UserHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	users := router.Group("/users")

	users.Get("/getUser", requireAuth, h.HandleGetUser)
	users.Post("/getUser", requireAuth, h.HandleGetUser)

	users.Patch("/updateUser", requireAuth, h.HandleUpdateUser)
	users.Post("/updateUser", requireAuth, h.HandleUpdateUser)

	users.Patch("/updateAvatar", requireAuth, h.HandleUpdateAvatar)
	users.Post("/updateAvatar", requireAuth, h.HandleUpdateAvatar)

	users.Patch("/updateCoverImage", requireAuth, h.HandleUpdateCoverImage)
	users.Post("/updateCoverImage", requireAuth, h.HandleUpdateCoverImage)

	users.Get("/getChannel/:username", h.HandleGetChannel)
}

// HandleGetUser returns the authenticated user's profile.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	user, err := h.userService.Get(c.Context(), userID)
	if err != nil {
		log.Printf("Error fetching user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, user, "User fetched successfully")
}

// UpdateUserRequest represents the request body for an account update.
type UpdateUserRequest struct {
	FullName string `json:"fullName" form:"fullName" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
}

// HandleUpdateUser updates the display name and email.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update-user request body: %v", err)
		return response.FailValidation(c, "Invalid request body", []string{err.Error()})
	}

	if err := h.validate.Struct(req); err != nil {
		return response.FailValidation(c, "Validation failed", validationMessages(err))
	}

	userID, _ := c.Locals("user_id").(string)
	user, err := h.userService.UpdateAccount(c.Context(), userID, req.FullName, req.Email)
	if err != nil {
		log.Printf("Error updating account for user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, user, "Account details updated successfully")
}

// HandleUpdateAvatar replaces the user's avatar.
func (h *UserHandler) HandleUpdateAvatar(c *fiber.Ctx) error {
	file, err := fileInput(c, "avatar")
	if err != nil {
		return response.Fail(c, apierr.BadRequest("Avatar file is required"))
	}

	userID, _ := c.Locals("user_id").(string)
	user, err := h.userService.UpdateAvatar(c.Context(), userID, file)
	if err != nil {
		log.Printf("Error updating avatar for user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, user, "Avatar updated successfully")
}

// HandleUpdateCoverImage replaces the user's cover image.
func (h *UserHandler) HandleUpdateCoverImage(c *fiber.Ctx) error {
	file, err := fileInput(c, "coverImage")
	if err != nil {
		return response.Fail(c, apierr.BadRequest("Cover image file is required"))
	}

	userID, _ := c.Locals("user_id").(string)
	user, err := h.userService.UpdateCoverImage(c.Context(), userID, file)
	if err != nil {
		log.Printf("Error updating cover image for user %s: %v", userID, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, user, "Cover image updated successfully")
}

// HandleGetChannel returns the public profile behind a username.
func (h *UserHandler) HandleGetChannel(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := h.userService.GetChannel(c.Context(), username)
	if err != nil {
		log.Printf("Error fetching channel %s: %v", username, err)
		return response.Fail(c, err)
	}

	return response.OK(c, fiber.StatusOK, user, "Channel fetched successfully")
}
