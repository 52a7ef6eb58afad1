package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member links one user to one episode. The unique index on UserID enforces
// the one-active-membership-per-user rule across all episodes. Rows are
// hard-deleted on exit so a user can join again later.
type Member struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	EpisodeID uuid.UUID `json:"episodeId" gorm:"type:uuid;index;not null"`
	JoinedAt  time.Time `json:"joinedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations (for preloading)
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (m *Member) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	return nil
}

type MemberInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl"`
	JoinedAt  time.Time `json:"joinedAt"`
}
