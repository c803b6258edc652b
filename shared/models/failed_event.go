package models

import (
	"time"

	"gorm.io/gorm"
)

type RetryStatus string

const (
	RetryPending           RetryStatus = "pending"
	RetryResolved          RetryStatus = "resolved"
	RetryPermanentlyFailed RetryStatus = "permanently_failed"
)

// FailedActivityEvent is an activity event whose persist failed and is
// waiting for another attempt.
type FailedActivityEvent struct {
	ID              string       `json:"id" gorm:"type:varchar(64);primaryKey"`
	OriginalEventID string       `json:"original_event_id" gorm:"type:varchar(64);not null;uniqueIndex"`
	UserID          string       `json:"user_id" gorm:"type:varchar(64);not null"`
	Type            ActivityType `json:"type" gorm:"type:varchar(30);not null"`
	EntityType      Kind         `json:"entity_type,omitempty" gorm:"type:varchar(30)"`
	EntityID        string       `json:"entity_id,omitempty" gorm:"type:varchar(64)"`
	Description     string       `json:"description" gorm:"type:text"`
	OccurredAt      time.Time    `json:"occurred_at"`
	ErrorMessage    string       `json:"error_message" gorm:"type:text;not null"`
	RetryCount      int          `json:"retry_count" gorm:"default:0"`
	Status          RetryStatus  `json:"status" gorm:"type:varchar(30);default:'pending';index"`
	NextRetryAt     *time.Time   `json:"next_retry_at,omitempty" gorm:"index"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (FailedActivityEvent) TableName() string {
	return "failed_activity_events"
}

func (f *FailedActivityEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	if f.Status == "" {
		f.Status = RetryPending
	}
	return nil
}

// Activity rebuilds the activity the event was meant to persist.
func (f *FailedActivityEvent) Activity() Activity {
	return Activity{
		ID:          f.OriginalEventID,
		Type:        f.Type,
		UserID:      f.UserID,
		EntityType:  f.EntityType,
		EntityID:    f.EntityID,
		Description: f.Description,
		CreatedAt:   f.OccurredAt,
	}
}
