package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validator interface {
	Validate() error
}

func TestValidate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	negative := -5.0

	cases := []struct {
		name  string
		value validator
		ok    bool
	}{
		{"user", &User{Role: RoleTenant}, true},
		{"user unknown role", &User{Role: "owner"}, false},
		{"user unknown status", &User{Role: RoleAdmin, Status: "banned"}, false},
		{"property", &Property{LandlordID: "L1", TotalUnits: 2, OccupiedUnits: 2}, true},
		{"property overfull", &Property{LandlordID: "L1", TotalUnits: 1, OccupiedUnits: 2}, false},
		{"property without landlord", &Property{TotalUnits: 1}, false},
		{"unit", &Unit{PropertyID: "P1", RentAmount: 1200}, true},
		{"unit negative rent", &Unit{PropertyID: "P1", RentAmount: -1}, false},
		{"unit unknown status", &Unit{PropertyID: "P1", Status: "demolished"}, false},
		{"application", &Application{UnitID: "U1", TenantID: "T1"}, true},
		{"application unknown recommendation", &Application{UnitID: "U1", TenantID: "T1", LandlordRecommendation: "maybe"}, false},
		{"lease", &Lease{UnitID: "U1", TenantID: "T1", StartDate: start, EndDate: start.AddDate(1, 0, 0)}, true},
		{"lease ends before start", &Lease{UnitID: "U1", TenantID: "T1", StartDate: start, EndDate: start}, false},
		{"lease negative deposit", &Lease{UnitID: "U1", TenantID: "T1", StartDate: start, EndDate: start.AddDate(1, 0, 0), DepositAmount: -1}, false},
		{"payment", &Payment{LeaseID: "Lse1", TenantID: "T1", Amount: 1200}, true},
		{"payment zero amount", &Payment{LeaseID: "Lse1", TenantID: "T1"}, false},
		{"payment negative late fee", &Payment{LeaseID: "Lse1", TenantID: "T1", Amount: 1200, LateFee: &negative}, false},
		{"maintenance", &MaintenanceRequest{UnitID: "U1", TenantID: "T1", Title: "Leak"}, true},
		{"maintenance unknown priority", &MaintenanceRequest{UnitID: "U1", TenantID: "T1", Title: "Leak", Priority: "asap"}, false},
		{"message", &Message{SenderID: "T1", ReceiverID: "L1", Content: "hi"}, true},
		{"message empty", &Message{SenderID: "T1", ReceiverID: "L1"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.value.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestMarkReadOnlyOnce(t *testing.T) {
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := &Message{SenderID: "L1", ReceiverID: "T1", Content: "Rent reminder"}

	assert.True(t, m.MarkRead(first))
	assert.False(t, m.MarkRead(first.Add(time.Hour)))
	require.NotNil(t, m.ReadAt)
	assert.Equal(t, first, *m.ReadAt)
}

func TestPaymentTotal(t *testing.T) {
	fee := 50.0
	p := Payment{Amount: 1200}
	assert.Equal(t, 1200.0, p.Total())
	p.LateFee = &fee
	assert.Equal(t, 1250.0, p.Total())
}

func TestBeforeCreateDefaults(t *testing.T) {
	lease := &Lease{}
	require.NoError(t, lease.BeforeCreate(nil))
	assert.NotEmpty(t, lease.ID)
	assert.Equal(t, LeasePending, lease.Status)
	assert.Equal(t, FrequencyMonthly, lease.PaymentFrequency)

	app := &Application{ID: "A1"}
	require.NoError(t, app.BeforeCreate(nil))
	assert.Equal(t, "A1", app.ID)
	assert.Equal(t, ApplicationPending, app.Status)
	assert.Equal(t, RecommendationPending, app.LandlordRecommendation)
}
