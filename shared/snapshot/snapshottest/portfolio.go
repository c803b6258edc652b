// Package snapshottest builds a small rental portfolio for tests.
//
// Landlord L1 owns P1 (units U1, U2); landlord L2 owns P2 (unit U3). Tenant T1
// leases U1 (Lse1) and tenant T2 leases U3 (Lse2). Unit UX points at a
// property that does not exist, and lease LseGone points at a unit that does
// not exist.
package snapshottest

import (
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
)

// Now is the reference time all fixture dates are relative to.
var Now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return Now.AddDate(0, 0, n)
}

func fee(v float64) *float64 {
	return &v
}

// Portfolio returns the fixture collections. Each call returns fresh slices.
func Portfolio() snapshot.Collections {
	return snapshot.Collections{
		Users: []models.User{
			{ID: "ADM", Role: models.RoleAdmin, Status: models.UserStatusActive, FirstName: "Ada", LastName: "Admin", Email: "ada@example.com", CreatedAt: days(-400)},
			{ID: "L1", Role: models.RoleLandlord, Status: models.UserStatusActive, FirstName: "Lena", LastName: "Lord", Email: "lena@example.com", Phone: "555-0101", CreatedAt: days(-300)},
			{ID: "L2", Role: models.RoleLandlord, Status: models.UserStatusActive, FirstName: "Liam", LastName: "Lane", Email: "liam@example.com", CreatedAt: days(-290)},
			{ID: "T1", Role: models.RoleTenant, Status: models.UserStatusActive, FirstName: "Tom", LastName: "Tenant", Email: "tom@example.com", Phone: "555-0111", CreatedAt: days(-200)},
			{ID: "T2", Role: models.RoleTenant, Status: models.UserStatusActive, FirstName: "Tia", LastName: "Torres", Email: "tia@example.com", CreatedAt: days(-190)},
		},
		Properties: []models.Property{
			{ID: "P1", LandlordID: "L1", Name: "P1", City: "Nairobi", TotalUnits: 2, OccupiedUnits: 1, CreatedAt: days(-280)},
			{ID: "P2", LandlordID: "L2", Name: "P2", City: "Mombasa", TotalUnits: 1, OccupiedUnits: 1, CreatedAt: days(-270)},
		},
		Units: []models.Unit{
			{ID: "U1", PropertyID: "P1", UnitNumber: "U1", Status: models.UnitStatusOccupied, RentAmount: 15000, CreatedAt: days(-279)},
			{ID: "U2", PropertyID: "P1", UnitNumber: "U2", Status: models.UnitStatusAvailable, RentAmount: 12000, CreatedAt: days(-278)},
			{ID: "U3", PropertyID: "P2", UnitNumber: "U3", Status: models.UnitStatusOccupied, RentAmount: 9000, CreatedAt: days(-269)},
			{ID: "UX", PropertyID: "ghost", UnitNumber: "UX", Status: models.UnitStatusAvailable, RentAmount: 7000, CreatedAt: days(-260)},
		},
		Applications: []models.Application{
			{ID: "A1", UnitID: "U2", TenantID: "T2", Status: models.ApplicationPending, LandlordRecommendation: models.RecommendationPending, CreatedAt: days(-3)},
			{ID: "A2", UnitID: "U3", TenantID: "T1", Status: models.ApplicationRejected, LandlordRecommendation: models.RecommendationNotRecommended, AdminNotes: "unit taken", CreatedAt: days(-40)},
		},
		Leases: []models.Lease{
			{ID: "Lse1", UnitID: "U1", TenantID: "T1", Status: models.LeaseActive, StartDate: days(-180), EndDate: days(185), RentAmount: 15000, DepositAmount: 30000, PaymentFrequency: models.FrequencyMonthly, CreatedAt: days(-181)},
			{ID: "Lse2", UnitID: "U3", TenantID: "T2", Status: models.LeaseActive, StartDate: days(-90), EndDate: days(275), RentAmount: 9000, DepositAmount: 9000, PaymentFrequency: models.FrequencyMonthly, CreatedAt: days(-91)},
			{ID: "LseX", UnitID: "UX", TenantID: "T1", Status: models.LeaseEnded, StartDate: days(-500), EndDate: days(-200), RentAmount: 7000, PaymentFrequency: models.FrequencyMonthly, CreatedAt: days(-501)},
			{ID: "LseGone", UnitID: "deleted-unit", TenantID: "T2", Status: models.LeasePending, StartDate: days(10), EndDate: days(375), RentAmount: 8000, PaymentFrequency: models.FrequencyQuarterly, CreatedAt: days(-2)},
		},
		Payments: []models.Payment{
			{ID: "Pay1", LeaseID: "Lse1", TenantID: "T1", Status: models.PaymentOverdue, Amount: 15000, LateFee: fee(500), DueDate: days(-5), CreatedAt: days(-35)},
			{ID: "Pay2", LeaseID: "Lse1", TenantID: "T1", Status: models.PaymentPaid, Amount: 15000, DueDate: days(-35), CreatedAt: days(-65)},
			{ID: "Pay3", LeaseID: "Lse2", TenantID: "T2", Status: models.PaymentPending, Amount: 9000, DueDate: days(10), CreatedAt: days(-20)},
			{ID: "Pay4", LeaseID: "Lse1", TenantID: "T1", Status: models.PaymentPending, Amount: 15000, DueDate: days(25), CreatedAt: days(-5)},
			{ID: "Pay5", LeaseID: "Lse2", TenantID: "T2", Status: models.PaymentPaid, Amount: 9000, DueDate: days(-20), CreatedAt: days(-50)},
		},
		Maintenance: []models.MaintenanceRequest{
			{ID: "M1", UnitID: "U1", TenantID: "T1", Title: "Leaking tap", Status: models.MaintenanceOpen, Priority: models.PriorityHigh, CreatedAt: days(-4),
				Comments: []models.Comment{
					{ID: "C1", RequestID: "M1", AuthorID: "T1", Content: "Kitchen tap drips", CreatedAt: days(-4)},
					{ID: "C2", RequestID: "M1", AuthorID: "L1", Content: "Plumber booked", CreatedAt: days(-3)},
				}},
			{ID: "M2", UnitID: "U3", TenantID: "T2", Title: "No hot water", Status: models.MaintenanceInProgress, Priority: models.PriorityUrgent, CreatedAt: days(-2)},
			{ID: "M3", UnitID: "U1", TenantID: "T1", Title: "Broken blind", Status: models.MaintenanceCompleted, Priority: models.PriorityLow, CreatedAt: days(-60)},
		},
		Messages: []models.Message{
			{ID: "Msg1", SenderID: "T1", ReceiverID: "L1", Subject: "Tap", Content: "The tap leaks", CreatedAt: days(-4)},
			{ID: "Msg2", SenderID: "L1", ReceiverID: "T1", Subject: "Re: Tap", Content: "Plumber Tuesday", CreatedAt: days(-3)},
			{ID: "Msg3", SenderID: "ADM", ReceiverID: "T1", Subject: "Welcome", Content: "Welcome aboard", Read: true, CreatedAt: days(-150)},
			{ID: "Msg4", SenderID: "T2", ReceiverID: "L2", Subject: "Hot water", Content: "Still cold", CreatedAt: days(-1)},
		},
		Activities: []models.Activity{
			{ID: "Act1", Type: models.ActivityCreated, UserID: "T1", EntityType: models.KindMaintenance, EntityID: "M1", Description: "opened maintenance request", CreatedAt: days(-4)},
			{ID: "Act2", Type: models.ActivityStatusChanged, UserID: "L1", EntityType: models.KindLease, EntityID: "Lse1", Description: "lease activated", CreatedAt: days(-180)},
		},
	}
}

// Graph returns the fixture as an indexed graph.
func Graph() *snapshot.Graph {
	return snapshot.New(Portfolio())
}

func Admin() models.Actor    { return models.Actor{ID: "ADM", Role: models.RoleAdmin} }
func Landlord() models.Actor { return models.Actor{ID: "L1", Role: models.RoleLandlord} }
func Tenant() models.Actor   { return models.Actor{ID: "T1", Role: models.RoleTenant} }
