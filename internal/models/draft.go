package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreDraft holds an in-progress store configuration form so it survives
// page reloads. Payload is the raw JSON of the form values.
type StoreDraft struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	DraftKey  string    `json:"draft_key" gorm:"uniqueIndex;not null"`
	Step      int       `json:"step"`
	Payload   string    `json:"payload" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *StoreDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
