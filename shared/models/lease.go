package models

import (
	"time"

	"gorm.io/gorm"
)

// LeaseStatus represents the lifecycle state of a lease
type LeaseStatus string

const (
	LeasePending    LeaseStatus = "pending"
	LeaseActive     LeaseStatus = "active"
	LeaseEnded      LeaseStatus = "ended"
	LeaseTerminated LeaseStatus = "terminated"
)

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeasePending, LeaseActive, LeaseEnded, LeaseTerminated:
		return true
	}
	return false
}

// PaymentFrequency represents how often rent is due
type PaymentFrequency string

const (
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyAnnually  PaymentFrequency = "annually"
)

func (f PaymentFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// Lease represents a rental agreement between a tenant and a unit
type Lease struct {
	ID                string           `json:"id" gorm:"type:varchar(64);primaryKey"`
	UnitID            string           `json:"unit_id" gorm:"type:varchar(64);not null;index"`
	TenantID          string           `json:"tenant_id" gorm:"type:varchar(64);not null;index"`
	Status            LeaseStatus      `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	StartDate         time.Time        `json:"start_date" gorm:"not null"`
	EndDate           time.Time        `json:"end_date" gorm:"not null"`
	RentAmount        float64          `json:"rent_amount" gorm:"type:decimal(12,2);not null"`
	DepositAmount     float64          `json:"deposit_amount" gorm:"type:decimal(12,2);not null;default:0"`
	PaymentFrequency  PaymentFrequency `json:"payment_frequency" gorm:"type:varchar(20);not null;default:'monthly'"`
	TerminationReason string           `json:"termination_reason,omitempty" gorm:"type:text"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (Lease) TableName() string {
	return "leases"
}

func (l *Lease) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	if l.Status == "" {
		l.Status = LeasePending
	}
	if l.PaymentFrequency == "" {
		l.PaymentFrequency = FrequencyMonthly
	}
	return nil
}

// IsActive checks if the lease is currently in force
func (l *Lease) IsActive() bool {
	return l.Status == LeaseActive
}

func (l *Lease) Validate() error {
	if l.UnitID == "" || l.TenantID == "" {
		return invalid("lease requires a unit and a tenant")
	}
	if l.Status != "" && !l.Status.Valid() {
		return invalid("unknown lease status %q", l.Status)
	}
	if l.PaymentFrequency != "" && !l.PaymentFrequency.Valid() {
		return invalid("unknown payment frequency %q", l.PaymentFrequency)
	}
	if !l.StartDate.Before(l.EndDate) {
		return invalid("lease start date must be before end date")
	}
	if l.RentAmount < 0 || l.DepositAmount < 0 {
		return invalid("lease amounts must not be negative")
	}
	return nil
}
