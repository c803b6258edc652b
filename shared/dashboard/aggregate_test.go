package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/scope"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
	"github.com/pavitra93/go-rental-management/shared/snapshot/snapshottest"
)

func scoped(t *testing.T, actor models.Actor) *snapshot.Graph {
	t.Helper()
	g := snapshottest.Graph()
	s, err := scope.Resolve(actor, g)
	require.NoError(t, err)
	return s.Filter(g)
}

func TestLandlordStats(t *testing.T) {
	actor := snapshottest.Landlord()
	stats, err := Aggregate(actor, scoped(t, actor), snapshottest.Now)
	require.NoError(t, err)
	require.NotNil(t, stats.Landlord)
	assert.Nil(t, stats.Admin)
	assert.Nil(t, stats.Tenant)

	assert.Equal(t, &LandlordStats{
		TotalProperties:         1,
		TotalUnits:              2,
		OccupiedUnits:           1,
		OccupancyRate:           50,
		CollectedRevenue:        15000,
		OverduePayments:         1,
		PendingApplications:     1,
		OpenMaintenanceRequests: 1,
		ActiveLeases:            1,
		UnreadMessages:          1,
	}, stats.Landlord)
}

func TestAdminStats(t *testing.T) {
	actor := snapshottest.Admin()
	stats, err := Aggregate(actor, scoped(t, actor), snapshottest.Now)
	require.NoError(t, err)

	assert.Equal(t, &AdminStats{
		TotalUsers:              5,
		TotalProperties:         2,
		TotalUnits:              4,
		OccupancyRate:           50,
		TotalRevenue:            24000,
		OverduePayments:         1,
		PendingApplications:     1,
		OpenMaintenanceRequests: 2,
		ActiveLeases:            2,
	}, stats.Admin)
}

func TestTenantStats(t *testing.T) {
	actor := snapshottest.Tenant()
	stats, err := Aggregate(actor, scoped(t, actor), snapshottest.Now)
	require.NoError(t, err)
	require.NotNil(t, stats.Tenant)

	ts := stats.Tenant
	assert.Equal(t, "Lse1", ts.ActiveLeaseID)
	require.NotNil(t, ts.NextPaymentDue)
	// Pay1 is overdue but its due date has passed.
	assert.Equal(t, "Pay4", ts.NextPaymentDue.ID)
	assert.Equal(t, 1, ts.UnreadMessages)
	assert.Equal(t, 1, ts.OpenMaintenanceRequests)
	assert.Equal(t, 1, ts.OverduePayments)
	assert.Equal(t, 0, ts.PendingApplications)
}

func TestTenantWithoutPayments(t *testing.T) {
	actor := models.Actor{ID: "T9", Role: models.RoleTenant}
	stats, err := Aggregate(actor, scoped(t, actor), snapshottest.Now)
	require.NoError(t, err)
	assert.Nil(t, stats.Tenant.NextPaymentDue)
	assert.Empty(t, stats.Tenant.ActiveLeaseID)
}

func TestOccupancyWithoutUnits(t *testing.T) {
	assert.Equal(t, 0.0, OccupancyRate(nil))

	stats, err := Aggregate(snapshottest.Landlord(), snapshot.Empty(), snapshottest.Now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Landlord.OccupancyRate)

	stats, err = Aggregate(snapshottest.Admin(), nil, snapshottest.Now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.Admin.OccupancyRate)
}

func TestAggregateInvalidRole(t *testing.T) {
	_, err := Aggregate(models.Actor{ID: "X", Role: "guest"}, snapshottest.Graph(), snapshottest.Now)
	assert.ErrorIs(t, err, scope.ErrInvalidRole)
}

func TestNextPaymentDue(t *testing.T) {
	now := snapshottest.Now
	payments := []models.Payment{
		{ID: "past", Status: models.PaymentPending, DueDate: now.Add(-time.Hour)},
		{ID: "paid", Status: models.PaymentPaid, DueDate: now.Add(time.Hour)},
		{ID: "later", Status: models.PaymentPending, DueDate: now.Add(48 * time.Hour)},
		{ID: "soon", Status: models.PaymentOverdue, DueDate: now.Add(2 * time.Hour)},
		{ID: "exact", Status: models.PaymentPartial, DueDate: now},
	}

	next := NextPaymentDue(payments, now)
	require.NotNil(t, next)
	assert.Equal(t, "soon", next.ID)

	payments = append(payments, models.Payment{ID: "now", Status: models.PaymentPending, DueDate: now})
	assert.Equal(t, "now", NextPaymentDue(payments, now).ID)
	assert.Nil(t, NextPaymentDue(nil, now))
}
