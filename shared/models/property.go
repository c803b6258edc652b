package models

import (
	"time"

	"gorm.io/gorm"
)

// Property represents a building or complex owned by a landlord
type Property struct {
	ID            string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	LandlordID    string    `json:"landlord_id" gorm:"type:varchar(64);not null;index"`
	Name          string    `json:"name" gorm:"type:varchar(200);not null"`
	Address       string    `json:"address" gorm:"type:varchar(255)"`
	City          string    `json:"city" gorm:"type:varchar(100)"`
	PropertyType  string    `json:"property_type" gorm:"type:varchar(50)"`
	TotalUnits    int       `json:"total_units" gorm:"not null;default:0"`
	OccupiedUnits int       `json:"occupied_units" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *Property) Validate() error {
	if p.LandlordID == "" {
		return invalid("property requires a landlord")
	}
	if p.TotalUnits < 0 || p.OccupiedUnits < 0 {
		return invalid("unit counts must not be negative")
	}
	if p.OccupiedUnits > p.TotalUnits {
		return invalid("occupied units %d exceed total units %d", p.OccupiedUnits, p.TotalUnits)
	}
	return nil
}

// UnitStatus represents the availability of a unit
type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusOccupied    UnitStatus = "occupied"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusReserved    UnitStatus = "reserved"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitStatusAvailable, UnitStatusOccupied, UnitStatusMaintenance, UnitStatusReserved:
		return true
	}
	return false
}

// Unit represents a rentable space inside a property
type Unit struct {
	ID         string     `json:"id" gorm:"type:varchar(64);primaryKey"`
	PropertyID string     `json:"property_id" gorm:"type:varchar(64);not null;index"`
	UnitNumber string     `json:"unit_number" gorm:"type:varchar(50);not null"`
	Bedrooms   int        `json:"bedrooms"`
	Bathrooms  int        `json:"bathrooms"`
	Status     UnitStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	RentAmount float64    `json:"rent_amount" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Unit) TableName() string {
	return "units"
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Status == "" {
		u.Status = UnitStatusAvailable
	}
	return nil
}

func (u *Unit) IsOccupied() bool {
	return u.Status == UnitStatusOccupied
}

func (u *Unit) Validate() error {
	if u.PropertyID == "" {
		return invalid("unit requires a property")
	}
	if u.Status != "" && !u.Status.Valid() {
		return invalid("unknown unit status %q", u.Status)
	}
	if u.RentAmount < 0 {
		return invalid("rent amount must not be negative")
	}
	return nil
}
