package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mustaqeer/mustaqeer-api/internal/models"
)

// RolloverService advances every episode once per day at 00:00 UTC: each
// member's quota baseline grows by the episode's daily rate, members whose
// accumulated quota reaches the eviction limit are dropped, and the episode's
// cumulative progress moves forward, wrapping into a khatmah at 30 juz.
type RolloverService struct {
	db        *gorm.DB
	clock     Clock
	episodes  *EpisodeService
	notifier  *Notifier
	onKhatmah func(episodeID uuid.UUID, khatmiCount int)

	mu sync.Mutex // never two overlapping runs
}

func NewRolloverService(db *gorm.DB, clock Clock, episodes *EpisodeService, notifier *Notifier) *RolloverService {
	return &RolloverService{db: db, clock: clock, episodes: episodes, notifier: notifier}
}

// OnKhatmah registers a callback fired whenever an episode completes a full
// reading. The transport layer hooks its live broadcast in here.
func (s *RolloverService) OnKhatmah(fn func(episodeID uuid.UUID, khatmiCount int)) {
	s.onKhatmah = fn
}

// Run performs one full rollover pass over every episode in storage. A
// failure on one member or episode never aborts the pass; failures are
// collected and returned joined.
func (s *RolloverService) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	var episodes []models.Episode
	if err := s.db.Find(&episodes).Error; err != nil {
		return fmt.Errorf("rollover: load episodes: %w", err)
	}

	var errs []error
	for i := range episodes {
		errs = append(errs, s.rolloverEpisode(&episodes[i], now)...)
	}

	for _, err := range errs {
		log.Printf("Rollover: %v", err)
	}
	return errors.Join(errs...)
}

func (s *RolloverService) rolloverEpisode(episode *models.Episode, now time.Time) []error {
	var errs []error

	var entries []models.Progress
	if err := s.db.Where("episode_id = ? AND state != ?", episode.ID, models.ProgressDropped).Find(&entries).Error; err != nil {
		return []error{fmt.Errorf("episode %s: load progress: %w", episode.ID, err)}
	}

	episodeDeleted := false
	for i := range entries {
		progress := &entries[i]
		progress.JuzRequired += episode.Juz
		progress.SubmissionTime = now

		if progress.JuzRequired >= EvictionLimit {
			// The member has fallen too far behind: zero the ledger,
			// drop them, and remove their membership.
			progress.JuzRequired = 0
			progress.JuzReaded = 0
			progress.Remained = 0
			progress.XP = 0
			progress.State = models.ProgressDropped
			if err := s.db.Save(progress).Error; err != nil {
				errs = append(errs, fmt.Errorf("episode %s: drop member %s: %w", episode.ID, progress.UserID, err))
				continue
			}

			deleted, err := s.episodes.Exit(progress.UserID, episode.ID)
			if err != nil {
				errs = append(errs, fmt.Errorf("episode %s: evict member %s: %w", episode.ID, progress.UserID, err))
				continue
			}
			episodeDeleted = episodeDeleted || deleted

			s.notifier.Notify(progress.UserID, NotifEvicted,
				"Dropped from your episode",
				"You fell too far behind on your daily reading and were removed from the episode.",
				map[string]interface{}{"episodeId": episode.ID.String()},
			)
			continue
		}

		if err := s.db.Save(progress).Error; err != nil {
			errs = append(errs, fmt.Errorf("episode %s: update progress %s: %w", episode.ID, progress.UserID, err))
		}
	}

	// Evicting the last member deleted the episode with it.
	if episodeDeleted {
		return errs
	}

	if episode.Progress+episode.Juz > TotalJuz {
		episode.KhatmiCount++
		episode.Progress = 0 // overflow is dropped, not carried
		s.notifier.NotifyEpisodeMembers(episode.ID, episode.UserID, NotifKhatmah,
			"Khatmah complete",
			"Your episode finished a full reading of the Quran. A new round starts today.",
			map[string]interface{}{"episodeId": episode.ID.String(), "khatmiCount": episode.KhatmiCount},
		)
		if s.onKhatmah != nil {
			s.onKhatmah(episode.ID, episode.KhatmiCount)
		}
	} else {
		episode.Progress += episode.Juz
	}

	// Write only the columns this pass owns. Evictions above may have
	// flipped is_full through Exit, so the in-memory snapshot is stale.
	if err := s.db.Model(&models.Episode{}).Where("id = ?", episode.ID).
		Updates(map[string]interface{}{
			"progress":     episode.Progress,
			"khatmi_count": episode.KhatmiCount,
		}).Error; err != nil {
		errs = append(errs, fmt.Errorf("episode %s: save: %w", episode.ID, err))
	}
	return errs
}

// Start launches the daily rollover loop pinned to midnight UTC. The loop
// runs until stopCh is closed.
func (s *RolloverService) Start(stopCh <-chan struct{}) {
	go func() {
		for {
			now := s.clock.Now()
			timer := time.NewTimer(nextMidnightUTC(now).Sub(now))

			select {
			case <-timer.C:
				if err := s.Run(); err != nil {
					log.Printf("Rollover: daily run finished with errors: %v", err)
				} else {
					log.Println("Rollover: daily run finished")
				}
			case <-stopCh:
				timer.Stop()
				log.Println("Rollover: worker stopped")
				return
			}
		}
	}()
}

func nextMidnightUTC(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(24 * time.Hour)
}
