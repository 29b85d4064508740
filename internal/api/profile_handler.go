package api

import (
	"errors"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"profile-service/internal/service"
)

type ProfileHandler struct {
	profileService service.ProfileService
	validate       *validator.Validate
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		validate:       validator.New(),
	}
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

// GetCurrentUser reports the profile for the active session. An absent
// session or a session without a backing row are both a valid logged-out
// state, not an error.
func (h *ProfileHandler) GetCurrentUser(c *fiber.Ctx) error {
	profile, err := h.profileService.FetchCurrentUser(c.Context(), CurrentIdentity(c))

	if err != nil {
		slog.Error("Failed to fetch current user", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch profile"})
	}

	if profile == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": nil})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": profile})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if err := h.profileService.UpdateProfile(c.Context(), identity.ID, req.Name); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing avatar file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read avatar file"})
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot read avatar file"})
	}

	avatarURL, err := h.profileService.UpdateAvatar(c.Context(), identity.ID, service.AvatarUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        body,
	})

	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "avatar_url": avatarURL})
}
