package models

import (
	"time"

	"gorm.io/gorm"
)

// MaintenanceStatus represents the progress of a maintenance request
type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "open"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceOpen, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

// IsOpen reports whether work is still outstanding.
func (s MaintenanceStatus) IsOpen() bool {
	return s == MaintenanceOpen || s == MaintenanceInProgress
}

// Priority represents the urgency of a maintenance request
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MaintenanceRequest represents a repair request raised by a tenant
type MaintenanceRequest struct {
	ID          string            `json:"id" gorm:"type:varchar(64);primaryKey"`
	UnitID      string            `json:"unit_id" gorm:"type:varchar(64);not null;index"`
	TenantID    string            `json:"tenant_id" gorm:"type:varchar(64);not null;index"`
	Title       string            `json:"title" gorm:"type:varchar(200);not null"`
	Description string            `json:"description" gorm:"type:text"`
	Category    string            `json:"category,omitempty" gorm:"type:varchar(50)"`
	Status      MaintenanceStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	Priority    Priority          `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Relationships
	Comments []Comment `json:"comments" gorm:"foreignKey:RequestID"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

func (m *MaintenanceRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = MaintenanceOpen
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}
	return nil
}

func (m *MaintenanceRequest) Validate() error {
	if m.UnitID == "" || m.TenantID == "" {
		return invalid("maintenance request requires a unit and a tenant")
	}
	if m.Title == "" {
		return invalid("maintenance request requires a title")
	}
	if m.Status != "" && !m.Status.Valid() {
		return invalid("unknown maintenance status %q", m.Status)
	}
	if m.Priority != "" && !m.Priority.Valid() {
		return invalid("unknown priority %q", m.Priority)
	}
	return nil
}

// Comment is an entry in a maintenance request's discussion thread.
// Comments are only ever appended.
type Comment struct {
	ID        string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	RequestID string    `json:"request_id" gorm:"type:varchar(64);not null;index"`
	AuthorID  string    `json:"author_id" gorm:"type:varchar(64);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Comment) TableName() string {
	return "maintenance_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
