package api

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"profile-service/internal/auth"
)

type AuthHandler struct {
	sessions *auth.Service
	validate *validator.Validate
}

func NewAuthHandler(sessions *auth.Service) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		validate: validator.New(),
	}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	provider := c.Params("provider")
	state := uuid.New().String()

	url, err := h.sessions.AuthURL(provider, state)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown provider"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not start sign-in"})
	}

	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	code := c.Query("code")

	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing authorization code"})
	}

	user, pair, err := h.sessions.HandleCallback(c.Context(), provider, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown provider"})
		}
		slog.Error("OAuth callback failed", "provider", provider, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Sign-in failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user_id":       user.ID,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	newAccessToken, err := h.sessions.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"access_token": newAccessToken})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if err := h.sessions.Logout(c.Context(), req.RefreshToken); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Logout failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Logged out"})
}
