package enrich

import (
	"strings"

	"github.com/pavitra93/go-rental-management/shared/models"
)

// Sentinel display values used when a referenced parent is missing.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

type UnitRef struct {
	ID         string  `json:"id"`
	UnitNumber string  `json:"unit_number"`
	RentAmount float64 `json:"rent_amount"`
}

type PropertyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Contact is the display form of a counterpart user.
type Contact struct {
	ID        string          `json:"id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone,omitempty"`
	Email     string          `json:"email,omitempty"`
	Role      models.UserRole `json:"role,omitempty"`
}

func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type LeaseRow struct {
	models.Lease
	Unit     UnitRef     `json:"unit"`
	Property PropertyRef `json:"property"`
	Tenant   Contact     `json:"tenant"`
}

type PaymentRow struct {
	models.Payment
	Unit     UnitRef     `json:"unit"`
	Property PropertyRef `json:"property"`
	Tenant   Contact     `json:"tenant"`
	Total    float64     `json:"total"`
}

type MaintenanceRow struct {
	models.MaintenanceRequest
	Unit     UnitRef     `json:"unit"`
	Property PropertyRef `json:"property"`
	Tenant   Contact     `json:"tenant"`
}

type ApplicationRow struct {
	models.Application
	Unit     UnitRef     `json:"unit"`
	Property PropertyRef `json:"property"`
	Tenant   Contact     `json:"tenant"`
}

type MessageRow struct {
	models.Message
	Sender   Contact `json:"sender"`
	Receiver Contact `json:"receiver"`
}

// UnitRow carries the current tenant when the unit has an active lease.
type UnitRow struct {
	models.Unit
	Property PropertyRef `json:"property"`
	Tenant   *Contact    `json:"tenant,omitempty"`
}
