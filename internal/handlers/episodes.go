package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mustaqeer/mustaqeer-api/internal/database"
	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
	"github.com/mustaqeer/mustaqeer-api/internal/models"
	"github.com/mustaqeer/mustaqeer-api/internal/services"
)

// CreateEpisode starts a new episode with the caller as its first member
func CreateEpisode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateEpisodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Juz < 1 || req.Juz > 30 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Juz must be between 1 and 30",
		})
	}
	if len(req.Description) < 20 || len(req.Description) > 150 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Description must be between 20 and 150 characters",
		})
	}

	episode, err := episodeService.Create(userID, req.Juz, req.Description)
	if err != nil {
		return episodeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(episode)
}

// GetEpisodes lists all episodes with member counts
func GetEpisodes(c *fiber.Ctx) error {
	juz := c.QueryInt("juz")
	if juz > 0 {
		episodes, err := episodeService.ByJuz(juz)
		if err != nil {
			return episodeError(c, err)
		}
		return c.JSON(episodes)
	}

	summaries, err := episodeService.List()
	if err != nil {
		return episodeError(c, err)
	}
	return c.JSON(summaries)
}

// GetEpisode returns a single episode by ID
func GetEpisode(c *fiber.Ctx) error {
	episodeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid episode ID",
		})
	}

	episode, err := episodeService.Get(episodeID)
	if err != nil {
		return episodeError(c, err)
	}
	return c.JSON(episode)
}

// GetEpisodeMembers lists the members of an episode
func GetEpisodeMembers(c *fiber.Ctx) error {
	episodeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid episode ID",
		})
	}

	members, err := episodeService.Members(episodeID)
	if err != nil {
		return episodeError(c, err)
	}

	var result []models.MemberInfo
	for _, m := range members {
		result = append(result, models.MemberInfo{
			ID:        m.UserID,
			Name:      m.User.Name,
			AvatarURL: m.User.AvatarURL,
			JoinedAt:  m.JoinedAt,
		})
	}
	return c.JSON(result)
}

// JoinEpisode adds the caller to an episode
func JoinEpisode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	episodeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid episode ID",
		})
	}

	member, err := episodeService.Join(userID, episodeID)
	if err != nil {
		return episodeError(c, err)
	}

	// Notify other episode members
	var joiner models.User
	database.DB.First(&joiner, "id = ?", userID)
	notifier.NotifyEpisodeMembers(episodeID, userID, services.NotifMemberJoined,
		"New member joined",
		joiner.Name+" joined your episode",
		map[string]interface{}{"episodeId": episodeID.String()},
	)

	// Broadcast member joined via WebSocket
	WS.Broadcast(episodeID, userID, WSEvent{
		Type:      EventMemberJoined,
		EpisodeID: episodeID.String(),
		UserID:    userID.String(),
		Data: map[string]interface{}{
			"userName": joiner.Name,
		},
	})

	return c.JSON(fiber.Map{
		"message":   "Successfully joined episode",
		"episodeId": member.EpisodeID,
	})
}

// ExitEpisode removes the caller from their episode. Exiting as the last
// member deletes the episode as well.
func ExitEpisode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	episodeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid episode ID",
		})
	}

	episodeDeleted, err := episodeService.Exit(userID, episodeID)
	if err != nil {
		return episodeError(c, err)
	}

	if episodeDeleted {
		return c.JSON(fiber.Map{
			"message": "Episode and last member deleted successfully",
		})
	}

	notifier.NotifyEpisodeMembers(episodeID, userID, services.NotifMemberLeft,
		"Member left",
		"A member left your episode",
		map[string]interface{}{"episodeId": episodeID.String()},
	)

	WS.Broadcast(episodeID, userID, WSEvent{
		Type:      EventMemberLeft,
		EpisodeID: episodeID.String(),
		UserID:    userID.String(),
	})

	return c.JSON(fiber.Map{
		"message": "User exited from the episode successfully",
	})
}

// episodeError translates service errors into HTTP responses
func episodeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrActiveEpisodeExists),
		errors.Is(err, services.ErrTooFarBehind):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrEpisodeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotAMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}
}
