package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
	"github.com/mustaqeer/mustaqeer-api/internal/models"
	"github.com/mustaqeer/mustaqeer-api/internal/services"
)

// GetMyProgress returns the caller's reading ledger for their current
// episode, creating it at the start of the Quran on first fetch.
func GetMyProgress(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	progress, err := progressService.GetOrCreate(userID)
	if err != nil {
		return progressError(c, err)
	}
	return c.JSON(progress)
}

// SubmitProgress records the juz the caller read today
func SubmitProgress(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.SubmitProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ReadedJuz < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "readedJuz must be at least 1",
		})
	}

	progress, err := progressService.Submit(userID, req.ReadedJuz)
	if err != nil {
		return progressError(c, err)
	}
	return c.JSON(progress)
}

// progressError translates service errors into HTTP responses
func progressError(c *fiber.Ctx, err error) error {
	var quotaErr *services.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": quotaErr.Error()})
	case errors.Is(err, services.ErrEpisodeNotJoined),
		errors.Is(err, services.ErrProgressNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}
}
