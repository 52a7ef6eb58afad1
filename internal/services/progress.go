package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mustaqeer/mustaqeer-api/internal/models"
	"github.com/mustaqeer/mustaqeer-api/internal/quran"
)

// ProgressService keeps the per-member daily reading ledger. Dropped rows are
// terminal: lookups skip them, so a user who re-joins starts a fresh row.
type ProgressService struct {
	db    *gorm.DB
	clock Clock
}

func NewProgressService(db *gorm.DB, clock Clock) *ProgressService {
	return &ProgressService{db: db, clock: clock}
}

// GetOrCreate returns the ledger row for the user's current episode,
// creating one seeded at the start of the Quran if none exists yet.
func (s *ProgressService) GetOrCreate(userID uuid.UUID) (*models.Progress, error) {
	member, episode, err := s.currentEpisode(userID)
	if err != nil {
		return nil, err
	}

	var progress models.Progress
	err = retryOnce(func() error {
		return s.db.Where("user_id = ? AND episode_id = ? AND state != ?",
			userID, episode.ID, models.ProgressDropped).First(&progress).Error
	})
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	start := quran.First()
	progress = models.Progress{
		Juz:            start.Juz,
		Chapter:        start.Chapter,
		Verse:          start.Verse,
		Page:           start.Page,
		Content:        start.Content,
		SubmissionTime: s.clock.Now(),
		JuzRequired:    episode.Juz,
		JuzReaded:      0,
		Remained:       episode.Juz,
		XP:             0,
		State:          models.ProgressNotStarted,
		UserID:         member.UserID,
		EpisodeID:      episode.ID,
	}
	if err := s.db.Create(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// Submit records today's reading. The allowed quota is the day's baseline
// plus any deficit carried over from prior days; reading past it fails with
// a QuotaExceededError carrying the computed quota.
func (s *ProgressService) Submit(userID uuid.UUID, readedJuz int) (*models.Progress, error) {
	_, episode, err := s.currentEpisode(userID)
	if err != nil {
		return nil, err
	}

	var progress models.Progress
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND episode_id = ? AND state != ?",
			userID, episode.ID, models.ProgressDropped).First(&progress).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProgressNotFound
			}
			return err
		}

		quota := progress.JuzRequired + progress.Remained
		if readedJuz > quota {
			return &QuotaExceededError{Quota: quota}
		}

		progress.Remained = quota - readedJuz
		progress.XP += readedJuz * XPPerJuz
		progress.JuzReaded += readedJuz
		progress.SubmissionTime = s.clock.Now()
		if progress.Remained == 0 {
			progress.State = models.ProgressCompleted
		} else {
			progress.State = models.ProgressActive
		}

		// Move the reading position to the start of the next unread juz.
		pos := quran.ByNumber(progress.JuzReaded + 1)
		progress.Juz = pos.Juz
		progress.Chapter = pos.Chapter
		progress.Verse = pos.Verse
		progress.Page = pos.Page
		progress.Content = pos.Content

		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// currentEpisode resolves the user's active membership and its episode.
func (s *ProgressService) currentEpisode(userID uuid.UUID) (*models.Member, *models.Episode, error) {
	var member models.Member
	err := retryOnce(func() error {
		return s.db.Where("user_id = ?", userID).First(&member).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEpisodeNotJoined
		}
		return nil, nil, err
	}

	var episode models.Episode
	err = retryOnce(func() error {
		return s.db.Where("id = ?", member.EpisodeID).First(&episode).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrEpisodeNotJoined
		}
		return nil, nil, err
	}
	return &member, &episode, nil
}
