package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"profile-service/internal/storage"
)

type AvatarHandler struct {
	store storage.ObjectStore
}

func NewAvatarHandler(store storage.ObjectStore) *AvatarHandler {
	return &AvatarHandler{store: store}
}

// GetAvatar streams a stored blob back by key. The same key is reused across
// uploads, so the response is cached as effectively immutable.
func (h *AvatarHandler) GetAvatar(c *fiber.Ctx) error {
	key := c.Query("key")

	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing key parameter"})
	}

	obj, err := h.store.Get(c.Context(), key)

	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
		}
		slog.Error("Failed to fetch avatar from object store", "key", key, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Storage service unavailable"})
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "image/png"
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")

	return c.Status(fiber.StatusOK).Send(obj.Body)
}
