package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentPartial PaymentStatus = "partial"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue, PaymentPartial:
		return true
	}
	return false
}

// IsOutstanding reports whether money is still expected for the payment.
func (s PaymentStatus) IsOutstanding() bool {
	return s == PaymentPending || s == PaymentOverdue
}

// Payment represents a rent installment on a lease
type Payment struct {
	ID        string        `json:"id" gorm:"type:varchar(64);primaryKey"`
	LeaseID   string        `json:"lease_id" gorm:"type:varchar(64);not null;index"`
	TenantID  string        `json:"tenant_id" gorm:"type:varchar(64);not null;index"`
	Status    PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Amount    float64       `json:"amount" gorm:"type:decimal(12,2);not null"`
	LateFee   *float64      `json:"late_fee,omitempty" gorm:"type:decimal(12,2)"`
	DueDate   time.Time     `json:"due_date" gorm:"not null;index"`
	PaidDate  *time.Time    `json:"paid_date,omitempty"`
	Method    string        `json:"method,omitempty" gorm:"type:varchar(50)"`
	Reference string        `json:"reference,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = PaymentPending
	}
	return nil
}

// Total returns the amount plus any accrued late fee.
func (p *Payment) Total() float64 {
	if p.LateFee == nil {
		return p.Amount
	}
	return p.Amount + *p.LateFee
}

func (p *Payment) Validate() error {
	if p.LeaseID == "" || p.TenantID == "" {
		return invalid("payment requires a lease and a tenant")
	}
	if p.Status != "" && !p.Status.Valid() {
		return invalid("unknown payment status %q", p.Status)
	}
	if p.Amount <= 0 {
		return invalid("payment amount must be positive")
	}
	if p.LateFee != nil && *p.LateFee < 0 {
		return invalid("late fee must not be negative")
	}
	return nil
}
