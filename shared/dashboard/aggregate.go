// Package dashboard reduces a scoped snapshot into per-role summary counters.
// Every call recomputes from its input; nothing is cached.
package dashboard

import (
	"fmt"
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/scope"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
)

type AdminStats struct {
	TotalUsers              int     `json:"total_users"`
	TotalProperties         int     `json:"total_properties"`
	TotalUnits              int     `json:"total_units"`
	OccupancyRate           float64 `json:"occupancy_rate"`
	TotalRevenue            float64 `json:"total_revenue"`
	OverduePayments         int     `json:"overdue_payments"`
	PendingApplications     int     `json:"pending_applications"`
	OpenMaintenanceRequests int     `json:"open_maintenance_requests"`
	ActiveLeases            int     `json:"active_leases"`
}

type LandlordStats struct {
	TotalProperties         int     `json:"total_properties"`
	TotalUnits              int     `json:"total_units"`
	OccupiedUnits           int     `json:"occupied_units"`
	OccupancyRate           float64 `json:"occupancy_rate"`
	CollectedRevenue        float64 `json:"collected_revenue"`
	OverduePayments         int     `json:"overdue_payments"`
	PendingApplications     int     `json:"pending_applications"`
	OpenMaintenanceRequests int     `json:"open_maintenance_requests"`
	ActiveLeases            int     `json:"active_leases"`
	UnreadMessages          int     `json:"unread_messages"`
}

type TenantStats struct {
	ActiveLeaseID           string          `json:"active_lease_id,omitempty"`
	NextPaymentDue          *models.Payment `json:"next_payment_due"`
	UnreadMessages          int             `json:"unread_messages"`
	OpenMaintenanceRequests int             `json:"open_maintenance_requests"`
	OverduePayments         int             `json:"overdue_payments"`
	PendingApplications     int             `json:"pending_applications"`
}

// Stats holds exactly one of the role-specific blocks.
type Stats struct {
	Role     models.UserRole `json:"role"`
	Admin    *AdminStats     `json:"admin,omitempty"`
	Landlord *LandlordStats  `json:"landlord,omitempty"`
	Tenant   *TenantStats    `json:"tenant,omitempty"`
}

// Aggregate computes the actor's counters over view, which must already be
// narrowed to the actor's scope.
func Aggregate(actor models.Actor, view *snapshot.Graph, now time.Time) (Stats, error) {
	if view == nil {
		view = snapshot.Empty()
	}
	switch actor.Role {
	case models.RoleAdmin:
		return Stats{Role: actor.Role, Admin: adminStats(view)}, nil
	case models.RoleLandlord:
		return Stats{Role: actor.Role, Landlord: landlordStats(actor, view)}, nil
	case models.RoleTenant:
		return Stats{Role: actor.Role, Tenant: tenantStats(actor, view, now)}, nil
	default:
		return Stats{}, fmt.Errorf("%w: %q", scope.ErrInvalidRole, actor.Role)
	}
}

// OccupancyRate is occupied units over all units as a percentage, 0 when
// there are no units.
func OccupancyRate(units []models.Unit) float64 {
	if len(units) == 0 {
		return 0
	}
	return float64(occupied(units)) / float64(len(units)) * 100
}

func occupied(units []models.Unit) int {
	n := 0
	for i := range units {
		if units[i].IsOccupied() {
			n++
		}
	}
	return n
}

func paidRevenue(payments []models.Payment) float64 {
	var sum float64
	for _, p := range payments {
		if p.Status == models.PaymentPaid {
			sum += p.Amount
		}
	}
	return sum
}

func countPayments(payments []models.Payment, status models.PaymentStatus) int {
	n := 0
	for _, p := range payments {
		if p.Status == status {
			n++
		}
	}
	return n
}

func pendingApplications(apps []models.Application) int {
	n := 0
	for _, a := range apps {
		if a.Status == models.ApplicationPending {
			n++
		}
	}
	return n
}

func openMaintenance(reqs []models.MaintenanceRequest) int {
	n := 0
	for _, m := range reqs {
		if m.Status.IsOpen() {
			n++
		}
	}
	return n
}

func activeLeases(leases []models.Lease) int {
	n := 0
	for i := range leases {
		if leases[i].IsActive() {
			n++
		}
	}
	return n
}

func unreadFor(messages []models.Message, userID string) int {
	n := 0
	for _, m := range messages {
		if m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n
}

func adminStats(g *snapshot.Graph) *AdminStats {
	return &AdminStats{
		TotalUsers:              len(g.Users),
		TotalProperties:         len(g.Properties),
		TotalUnits:              len(g.Units),
		OccupancyRate:           OccupancyRate(g.Units),
		TotalRevenue:            paidRevenue(g.Payments),
		OverduePayments:         countPayments(g.Payments, models.PaymentOverdue),
		PendingApplications:     pendingApplications(g.Applications),
		OpenMaintenanceRequests: openMaintenance(g.Maintenance),
		ActiveLeases:            activeLeases(g.Leases),
	}
}

func landlordStats(actor models.Actor, g *snapshot.Graph) *LandlordStats {
	return &LandlordStats{
		TotalProperties:         len(g.Properties),
		TotalUnits:              len(g.Units),
		OccupiedUnits:           occupied(g.Units),
		OccupancyRate:           OccupancyRate(g.Units),
		CollectedRevenue:        paidRevenue(g.Payments),
		OverduePayments:         countPayments(g.Payments, models.PaymentOverdue),
		PendingApplications:     pendingApplications(g.Applications),
		OpenMaintenanceRequests: openMaintenance(g.Maintenance),
		ActiveLeases:            activeLeases(g.Leases),
		UnreadMessages:          unreadFor(g.Messages, actor.ID),
	}
}

func tenantStats(actor models.Actor, g *snapshot.Graph, now time.Time) *TenantStats {
	stats := &TenantStats{
		UnreadMessages:          unreadFor(g.Messages, actor.ID),
		OpenMaintenanceRequests: openMaintenance(g.Maintenance),
		OverduePayments:         countPayments(g.Payments, models.PaymentOverdue),
		PendingApplications:     pendingApplications(g.Applications),
		NextPaymentDue:          NextPaymentDue(g.Payments, now),
	}

	// latest start wins when more than one lease is active
	var start time.Time
	for i := range g.Leases {
		l := &g.Leases[i]
		if l.TenantID == actor.ID && l.IsActive() && (stats.ActiveLeaseID == "" || l.StartDate.After(start)) {
			stats.ActiveLeaseID = l.ID
			start = l.StartDate
		}
	}
	return stats
}

// NextPaymentDue returns the outstanding payment with the earliest due date
// that is not before now, or nil.
func NextPaymentDue(payments []models.Payment, now time.Time) *models.Payment {
	var next *models.Payment
	for i := range payments {
		p := payments[i]
		if !p.Status.IsOutstanding() || p.DueDate.Before(now) {
			continue
		}
		if next == nil || p.DueDate.Before(next.DueDate) {
			next = &p
		}
	}
	return next
}
