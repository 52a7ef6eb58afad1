package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mustaqeer/mustaqeer-api/internal/config"
	"github.com/mustaqeer/mustaqeer-api/internal/database"
	"github.com/mustaqeer/mustaqeer-api/internal/handlers"
	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
	"github.com/mustaqeer/mustaqeer-api/internal/routes"
	"github.com/mustaqeer/mustaqeer-api/internal/services"
)

func main() {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis is optional; rate limiting degrades to a no-op without it
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	} else {
		log.Println("No REDIS_URL configured, rate limiting disabled")
	}

	clock := services.SystemClock()
	push := services.InitPush(database.DB, cfg.FCMServiceAccount)
	notifier := services.NewNotifier(database.DB, push)
	episodeService := services.NewEpisodeService(database.DB, clock)
	progressService := services.NewProgressService(database.DB, clock)
	rolloverService := services.NewRolloverService(database.DB, clock, episodeService, notifier)

	handlers.Init(episodeService, progressService, notifier)

	// Mirror khatmah completions to connected episode rooms
	rolloverService.OnKhatmah(func(episodeID uuid.UUID, khatmiCount int) {
		handlers.WS.Broadcast(episodeID, uuid.Nil, handlers.WSEvent{
			Type:      handlers.EventKhatmah,
			EpisodeID: episodeID.String(),
			Data: map[string]interface{}{
				"khatmiCount": khatmiCount,
			},
		})
	})

	// Daily rollover pinned to midnight UTC
	stopRollover := make(chan struct{})
	defer close(stopRollover)
	rolloverService.Start(stopRollover)

	app := fiber.New(fiber.Config{
		AppName: "mustaqeer-api",
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Static("/uploads", "./uploads")

	routes.Setup(app, middleware.NewRateLimiter(redisClient))

	log.Printf("Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
