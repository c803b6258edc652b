// Package events carries activity events from the services that perform
// writes to the activity service over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/pavitra93/go-rental-management/shared/models"
)

const EventTypeActivity = "activity"

// ActivityEvent is the wire form of an activity log entry. The event ID
// becomes the activity ID so a redelivered event is stored once.
type ActivityEvent struct {
	ID          string              `json:"id"`
	EventType   string              `json:"event_type"`
	Type        models.ActivityType `json:"type"`
	UserID      string              `json:"user_id"`
	EntityType  models.Kind         `json:"entity_type,omitempty"`
	EntityID    string              `json:"entity_id,omitempty"`
	Description string              `json:"description"`
	Timestamp   time.Time           `json:"timestamp"`
}

// NewActivityEvent stamps a fresh event id.
func NewActivityEvent(userID string, typ models.ActivityType, kind models.Kind, entityID, description string, at time.Time) ActivityEvent {
	return ActivityEvent{
		ID:          uuid.NewString(),
		EventType:   EventTypeActivity,
		Type:        typ,
		UserID:      userID,
		EntityType:  kind,
		EntityID:    entityID,
		Description: description,
		Timestamp:   at.UTC(),
	}
}

func (e ActivityEvent) Activity() models.Activity {
	return models.Activity{
		ID:          e.ID,
		Type:        e.Type,
		UserID:      e.UserID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Description: e.Description,
		CreatedAt:   e.Timestamp,
	}
}

// Failed builds the retry record for an event whose persist failed.
func (e ActivityEvent) Failed(cause error, nextRetryAt time.Time) models.FailedActivityEvent {
	return models.FailedActivityEvent{
		OriginalEventID: e.ID,
		UserID:          e.UserID,
		Type:            e.Type,
		EntityType:      e.EntityType,
		EntityID:        e.EntityID,
		Description:     e.Description,
		OccurredAt:      e.Timestamp,
		ErrorMessage:    cause.Error(),
		Status:          models.RetryPending,
		NextRetryAt:     &nextRetryAt,
	}
}
