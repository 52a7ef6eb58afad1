package handlers

import "github.com/mustaqeer/mustaqeer-api/internal/services"

var (
	episodeService  *services.EpisodeService
	progressService *services.ProgressService
	notifier        *services.Notifier
)

// Init wires the service layer into the handler package. Must be called once
// at startup before routes are registered.
func Init(episodes *services.EpisodeService, progress *services.ProgressService, notify *services.Notifier) {
	episodeService = episodes
	progressService = progress
	notifier = notify
}
