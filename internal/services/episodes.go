package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mustaqeer/mustaqeer-api/internal/models"
)

// EpisodeService owns the episode lifecycle and membership records. Every
// mutation runs in a single transaction so the member-count checks and the
// is_full flag can't drift apart under concurrent joins.
type EpisodeService struct {
	db    *gorm.DB
	clock Clock
}

func NewEpisodeService(db *gorm.DB, clock Clock) *EpisodeService {
	return &EpisodeService{db: db, clock: clock}
}

// Create starts a new episode with the requesting user as its first member.
// Creation is blocked while any non-full episode with the same juz exists,
// regardless of its member count.
func (s *EpisodeService) Create(userID uuid.UUID, juz int, description string) (*models.Episode, error) {
	var episode models.Episode

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Member
		err := tx.Where("user_id = ?", userID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		isFull := false
		var open models.Episode
		err = tx.Where("juz = ? AND is_full = ?", juz, false).First(&open).Error
		if err == nil {
			var memberCount int64
			if err := tx.Model(&models.Member{}).Where("episode_id = ?", open.ID).Count(&memberCount).Error; err != nil {
				return err
			}
			if memberCount < MaxMembers {
				return ErrActiveEpisodeExists
			}
			// The found episode carries a stale is_full flag; the new
			// episode inherits a pre-computed flag for the 49-member edge.
			if memberCount == MaxMembers-1 {
				isFull = true
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		episode = models.Episode{
			Juz:         juz,
			Description: description,
			Progress:    0,
			IsFull:      isFull,
			UserID:      userID,
		}
		if err := tx.Create(&episode).Error; err != nil {
			return err
		}

		member := models.Member{
			UserID:    userID,
			EpisodeID: episode.ID,
			JoinedAt:  s.clock.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &episode, nil
}

// Join adds the user to an episode. Full episodes are reported as not found
// so their existence doesn't leak through this path.
func (s *EpisodeService) Join(userID, episodeID uuid.UUID) (*models.Member, error) {
	var member models.Member

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Member
		err := tx.Where("user_id = ?", userID).First(&existing).Error
		if err == nil {
			return ErrAlreadyMember
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var episode models.Episode
		err = tx.Where("id = ? AND is_full = ?", episodeID, false).First(&episode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEpisodeNotFound
			}
			return err
		}

		if episode.Progress > CatchUpLimit {
			return ErrTooFarBehind
		}

		member = models.Member{
			UserID:    userID,
			EpisodeID: episode.ID,
			JoinedAt:  s.clock.Now(),
		}
		if err := tx.Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return err
		}

		var memberCount int64
		if err := tx.Model(&models.Member{}).Where("episode_id = ?", episode.ID).Count(&memberCount).Error; err != nil {
			return err
		}
		if memberCount > MaxMembers {
			// Two joiners raced past the capacity check; roll back this one.
			return ErrConflict
		}
		if memberCount >= MaxMembers {
			if err := tx.Model(&episode).Update("is_full", true).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Exit removes the user's membership. When the last member leaves, the
// episode is deleted with them. Returns whether the episode was deleted.
func (s *EpisodeService) Exit(userID, episodeID uuid.UUID) (bool, error) {
	episodeDeleted := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var episode models.Episode
		err := tx.Where("id = ?", episodeID).First(&episode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEpisodeNotFound
			}
			return err
		}

		var member models.Member
		err = tx.Where("episode_id = ? AND user_id = ?", episodeID, userID).First(&member).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAMember
			}
			return err
		}

		var memberCount int64
		if err := tx.Model(&models.Member{}).Where("episode_id = ?", episodeID).Count(&memberCount).Error; err != nil {
			return err
		}

		if err := tx.Delete(&member).Error; err != nil {
			return err
		}

		if memberCount == 1 {
			if err := tx.Delete(&episode).Error; err != nil {
				return err
			}
			episodeDeleted = true
			return nil
		}

		if episode.IsFull && memberCount-1 < MaxMembers {
			if err := tx.Model(&episode).Update("is_full", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return episodeDeleted, err
}

// List returns all episodes with their member counts.
func (s *EpisodeService) List() ([]models.EpisodeSummary, error) {
	var episodes []models.Episode
	err := retryOnce(func() error {
		return s.db.Order("created_at DESC").Find(&episodes).Error
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]models.EpisodeSummary, len(episodes))
	for i, episode := range episodes {
		count, err := s.MemberCount(episode.ID)
		if err != nil {
			return nil, err
		}
		summaries[i] = models.EpisodeSummary{
			ID:          episode.ID,
			Juz:         episode.Juz,
			Description: episode.Description,
			Progress:    episode.Progress,
			KhatmiCount: episode.KhatmiCount,
			IsFull:      episode.IsFull,
			MemberCount: count,
			CreatedAt:   episode.CreatedAt,
		}
	}
	return summaries, nil
}

// Get returns a single episode by id.
func (s *EpisodeService) Get(episodeID uuid.UUID) (*models.Episode, error) {
	var episode models.Episode
	err := retryOnce(func() error {
		return s.db.Where("id = ?", episodeID).First(&episode).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEpisodeNotFound
		}
		return nil, err
	}
	return &episode, nil
}

// ByJuz returns all episodes reading at the given daily rate.
func (s *EpisodeService) ByJuz(juz int) ([]models.Episode, error) {
	var episodes []models.Episode
	err := retryOnce(func() error {
		return s.db.Where("juz = ?", juz).Order("created_at DESC").Find(&episodes).Error
	})
	if err != nil {
		return nil, err
	}
	return episodes, nil
}

// MemberCount counts the active members of an episode.
func (s *EpisodeService) MemberCount(episodeID uuid.UUID) (int, error) {
	var count int64
	err := retryOnce(func() error {
		return s.db.Model(&models.Member{}).Where("episode_id = ?", episodeID).Count(&count).Error
	})
	return int(count), err
}

// Members lists an episode's members with their user profiles preloaded.
func (s *EpisodeService) Members(episodeID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := retryOnce(func() error {
		return s.db.Where("episode_id = ?", episodeID).Preload("User").Find(&members).Error
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}
