package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Progress states
const (
	ProgressNotStarted = "not_started"
	ProgressActive     = "active"
	ProgressCompleted  = "completed"
	ProgressDropped    = "dropped" // terminal; the row is kept but never reused
)

// Progress is the daily reading ledger for one user in one episode.
// Rows are created lazily on first fetch and never deleted.
type Progress struct {
	ID uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`

	// Current reading position
	Juz     int    `json:"juz" gorm:"not null"`
	Chapter int    `json:"chapter" gorm:"not null"`
	Verse   int    `json:"verse" gorm:"not null"`
	Page    int    `json:"page" gorm:"not null"`
	Content string `json:"content"` // opening words at the current position

	SubmissionTime time.Time `json:"submissionTime"`

	// Ledger
	JuzRequired int    `json:"juzRequired" gorm:"default:0"` // today's quota baseline, grows each rollover
	JuzReaded   int    `json:"juzReaded" gorm:"default:0"`   // lifetime juz read
	Remained    int    `json:"remained" gorm:"default:0"`    // deficit carried from the prior day
	XP          int    `json:"xp" gorm:"default:0"`
	State       string `json:"state" gorm:"not null;default:'not_started'"`

	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;index;not null"`
	EpisodeID uuid.UUID `json:"episodeId" gorm:"type:uuid;index;not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Progress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Progress DTOs
type SubmitProgressRequest struct {
	ReadedJuz int `json:"readedJuz" validate:"required,min=1"`
}
