package store

import (
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
)

// Patches list the whitelisted fields of each domain write. A nil field is
// left unchanged.

type UserPatch struct {
	Role      *models.UserRole   `json:"role"`
	Status    *models.UserStatus `json:"status"`
	FirstName *string            `json:"first_name"`
	LastName  *string            `json:"last_name"`
	Email     *string            `json:"email"`
	Phone     *string            `json:"phone"`
}

type PropertyPatch struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	PropertyType  *string `json:"property_type"`
	TotalUnits    *int    `json:"total_units"`
	OccupiedUnits *int    `json:"occupied_units"`
}

type UnitPatch struct {
	UnitNumber *string            `json:"unit_number"`
	Bedrooms   *int               `json:"bedrooms"`
	Bathrooms  *int               `json:"bathrooms"`
	Status     *models.UnitStatus `json:"status"`
	RentAmount *float64           `json:"rent_amount"`
}

type ApplicationPatch struct {
	Status                 *models.ApplicationStatus `json:"status"`
	LandlordRecommendation *models.Recommendation    `json:"landlord_recommendation"`
	LandlordNotes          *string                   `json:"landlord_notes"`
	AdminNotes             *string                   `json:"admin_notes"`
	EmploymentInfo         *string                   `json:"employment_info"`
	MonthlyIncome          *float64                  `json:"monthly_income"`
	MoveInDate             *time.Time                `json:"move_in_date"`
}

// onlyAdminNotes reports whether the patch changes nothing but admin notes
// relative to a.
func (p ApplicationPatch) onlyAdminNotes(a *models.Application) bool {
	return (p.Status == nil || *p.Status == a.Status) &&
		(p.LandlordRecommendation == nil || *p.LandlordRecommendation == a.LandlordRecommendation) &&
		(p.LandlordNotes == nil || *p.LandlordNotes == a.LandlordNotes) &&
		(p.EmploymentInfo == nil || *p.EmploymentInfo == a.EmploymentInfo) &&
		(p.MonthlyIncome == nil || *p.MonthlyIncome == a.MonthlyIncome) &&
		p.MoveInDate == nil
}

type LeasePatch struct {
	Status            *models.LeaseStatus      `json:"status"`
	EndDate           *time.Time               `json:"end_date"`
	RentAmount        *float64                 `json:"rent_amount"`
	DepositAmount     *float64                 `json:"deposit_amount"`
	PaymentFrequency  *models.PaymentFrequency `json:"payment_frequency"`
	TerminationReason *string                  `json:"termination_reason"`
}

type PaymentPatch struct {
	Status    *models.PaymentStatus `json:"status"`
	LateFee   *float64              `json:"late_fee"`
	PaidDate  *time.Time            `json:"paid_date"`
	Method    *string               `json:"method"`
	Reference *string               `json:"reference"`
}

type MaintenancePatch struct {
	Status      *models.MaintenanceStatus `json:"status"`
	Priority    *models.Priority          `json:"priority"`
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Category    *string                   `json:"category"`
}

type MessagePatch struct {
	Subject *string `json:"subject"`
	Content *string `json:"content"`
	Read    *bool   `json:"read"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
