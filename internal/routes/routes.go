package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/mustaqeer/mustaqeer-api/internal/handlers"
	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
)

func Setup(app *fiber.App, limiter *middleware.RateLimiter) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", limiter.Limit("register", 5, time.Minute), handlers.Register)
	auth.Post("/login", limiter.Limit("login", 10, time.Minute), handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)
	protected.Post("/me/avatar", handlers.UploadAvatar)

	episodes := protected.Group("/episodes")
	episodes.Get("/", handlers.GetEpisodes)
	episodes.Post("/", handlers.CreateEpisode)
	episodes.Get("/:id", handlers.GetEpisode)
	episodes.Get("/:id/members", handlers.GetEpisodeMembers)
	episodes.Post("/:id/join", handlers.JoinEpisode)
	episodes.Post("/:id/exit", handlers.ExitEpisode)

	progress := protected.Group("/progress")
	progress.Get("/", handlers.GetMyProgress)
	progress.Post("/read", handlers.SubmitProgress)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllRead)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time episode updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/episodes/:id", websocket.New(handlers.HandleWebSocket))
}
