package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessingStatus is the counter block shared by every bulk run.
type ProcessingStatus struct {
	Total      int `json:"total"`
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type RunKind string

const (
	RunKindCollections RunKind = "collections"
	RunKindProducts    RunKind = "products"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

type RecordOutcome string

const (
	OutcomeSucceeded RecordOutcome = "SUCCEEDED"
	OutcomeFailed    RecordOutcome = "FAILED"
)

// PublishRun is one bulk collection import or product upload.
type PublishRun struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	Kind       RunKind          `json:"kind" gorm:"not null;index"`
	StoreID    string           `json:"store_id" gorm:"index"`
	StoreName  string           `json:"store_name"`
	Status     RunStatus        `json:"status" gorm:"default:RUNNING"`
	Counters   ProcessingStatus `json:"status_counters" gorm:"embedded;embeddedPrefix:count_"`
	Message    string           `json:"message"`
	Records    []RunRecord      `json:"records,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (r *PublishRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return nil
}

// RunRecord is the per-row outcome of a run. Row keeps the original CSV row
// as JSON so failed rows can be exported again.
type RunRecord struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	RunID     string        `json:"run_id" gorm:"index;not null"`
	Position  int           `json:"position"`
	Title     string        `json:"title"`
	Handle    string        `json:"handle"`
	Outcome   RecordOutcome `json:"outcome" gorm:"index"`
	Error     string        `json:"error"`
	Row       string        `json:"row" gorm:"type:text"`
	CreatedAt time.Time     `json:"created_at"`
}
