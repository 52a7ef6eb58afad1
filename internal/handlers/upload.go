package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mustaqeer/mustaqeer-api/internal/database"
	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
	"github.com/mustaqeer/mustaqeer-api/internal/models"
)

const maxAvatarBytes = 1 << 20

var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadAvatar stores a profile image under uploads/ and points the user's
// avatar at it.
func UploadAvatar(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image file provided",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only jpg, png, and webp images are allowed",
		})
	}
	if file.Size > maxAvatarBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Profile image must be under 1MB",
		})
	}

	if err := os.MkdirAll("uploads", 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create uploads directory",
		})
	}

	filename := uuid.New().String() + ext
	if err := c.SaveFile(file, filepath.Join("uploads", filename)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image",
		})
	}

	imageURL := fmt.Sprintf("/uploads/%s", filename)
	if err := database.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("avatar_url", imageURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{
		"url": imageURL,
	})
}
