package models

import (
	"time"

	"gorm.io/gorm"
)

// ApplicationStatus represents the lifecycle state of a rental application
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// Recommendation is the landlord's advice on an application
type Recommendation string

const (
	RecommendationPending        Recommendation = "pending"
	RecommendationRecommended    Recommendation = "recommended"
	RecommendationNotRecommended Recommendation = "not_recommended"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationPending, RecommendationRecommended, RecommendationNotRecommended:
		return true
	}
	return false
}

// Application represents a tenant's request to rent a unit
type Application struct {
	ID                     string            `json:"id" gorm:"type:varchar(64);primaryKey"`
	UnitID                 string            `json:"unit_id" gorm:"type:varchar(64);not null;index"`
	TenantID               string            `json:"tenant_id" gorm:"type:varchar(64);not null;index"`
	Status                 ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	LandlordRecommendation Recommendation    `json:"landlord_recommendation" gorm:"type:varchar(20);not null;default:'pending'"`
	LandlordNotes          string            `json:"landlord_notes,omitempty" gorm:"type:text"`
	AdminNotes             string            `json:"admin_notes,omitempty" gorm:"type:text"`
	EmploymentInfo         string            `json:"employment_info,omitempty" gorm:"type:text"`
	MonthlyIncome          float64           `json:"monthly_income" gorm:"type:decimal(12,2)"`
	MoveInDate             *time.Time        `json:"move_in_date,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = ApplicationPending
	}
	if a.LandlordRecommendation == "" {
		a.LandlordRecommendation = RecommendationPending
	}
	return nil
}

func (a *Application) Validate() error {
	if a.UnitID == "" || a.TenantID == "" {
		return invalid("application requires a unit and a tenant")
	}
	if a.Status != "" && !a.Status.Valid() {
		return invalid("unknown application status %q", a.Status)
	}
	if a.LandlordRecommendation != "" && !a.LandlordRecommendation.Valid() {
		return invalid("unknown landlord recommendation %q", a.LandlordRecommendation)
	}
	if a.MonthlyIncome < 0 {
		return invalid("monthly income must not be negative")
	}
	return nil
}
