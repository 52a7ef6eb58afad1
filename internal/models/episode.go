package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Episode struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Juz         int       `json:"juz" gorm:"not null;index"` // daily reading rate, 1..30
	Description string    `json:"description" gorm:"not null"`
	Progress    int       `json:"progress" gorm:"default:0"` // cumulative juz advanced, 0..30
	KhatmiCount int       `json:"khatmiCount" gorm:"default:0"`
	IsFull      bool      `json:"isFull" gorm:"default:false;index"`
	UserID      uuid.UUID `json:"ownerUserId" gorm:"type:uuid;not null"` // first member / creator
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Members []Member `json:"members,omitempty" gorm:"foreignKey:EpisodeID"`
}

func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Episode DTOs
type CreateEpisodeRequest struct {
	Juz         int    `json:"juz" validate:"required,min=1,max=30"`
	Description string `json:"description" validate:"required,min=20,max=150"`
}

type EpisodeSummary struct {
	ID          uuid.UUID `json:"id"`
	Juz         int       `json:"juz"`
	Description string    `json:"description"`
	Progress    int       `json:"progress"`
	KhatmiCount int       `json:"khatmiCount"`
	IsFull      bool      `json:"isFull"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
