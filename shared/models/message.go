package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a direct message between two users
type Message struct {
	ID         string     `json:"id" gorm:"type:varchar(64);primaryKey"`
	SenderID   string     `json:"sender_id" gorm:"type:varchar(64);not null;index"`
	ReceiverID string     `json:"receiver_id" gorm:"type:varchar(64);not null;index"`
	Subject    string     `json:"subject" gorm:"type:varchar(200)"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	Read       bool       `json:"read" gorm:"not null;default:false"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// Involves reports whether userID sent or received the message.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// MarkRead flips the read flag. A read message never becomes unread again.
func (m *Message) MarkRead(at time.Time) bool {
	if m.Read {
		return false
	}
	m.Read = true
	m.ReadAt = &at
	return true
}

func (m *Message) Validate() error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return invalid("message requires a sender and a receiver")
	}
	if m.Content == "" {
		return invalid("message content is empty")
	}
	return nil
}

// ActivityType classifies activity log entries
type ActivityType string

const (
	ActivityCreated       ActivityType = "created"
	ActivityUpdated       ActivityType = "updated"
	ActivityStatusChanged ActivityType = "status_changed"
	ActivityCommented     ActivityType = "commented"
	ActivityMessageRead   ActivityType = "message_read"
	ActivityLogin         ActivityType = "login"
	ActivityProfileUpdate ActivityType = "profile_updated"
)

// Activity is an append-only audit log entry
type Activity struct {
	ID          string       `json:"id" gorm:"type:varchar(64);primaryKey"`
	Type        ActivityType `json:"type" gorm:"type:varchar(30);not null;index"`
	UserID      string       `json:"user_id" gorm:"type:varchar(64);not null;index"`
	EntityType  Kind         `json:"entity_type,omitempty" gorm:"type:varchar(30)"`
	EntityID    string       `json:"entity_id,omitempty" gorm:"type:varchar(64)"`
	Description string       `json:"description" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
}

func (Activity) TableName() string {
	return "activities"
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
