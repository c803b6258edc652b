// Package enrich attaches display fields to scoped entity lists by following
// foreign keys through a snapshot graph. Missing parents never drop a row:
// the joiner substitutes sentinel values and records an OrphanedReference.
package enrich

import (
	"fmt"
	"sort"
	"time"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
)

// OrphanedReference describes a foreign key with no matching parent.
type OrphanedReference struct {
	Kind     models.Kind `json:"kind"`
	ID       string      `json:"id"`
	Parent   models.Kind `json:"parent"`
	ParentID string      `json:"parent_id"`
}

func (o OrphanedReference) Error() string {
	return fmt.Sprintf("%s %s references missing %s %q", o.Kind, o.ID, o.Parent, o.ParentID)
}

type Order string

const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ParseOrder maps "asc" to OrderAsc and anything else to OrderDesc.
func ParseOrder(s string) Order {
	if Order(s) == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

// Options narrows and orders a joined list. Zero value means newest first,
// no filtering. Priority only applies to maintenance rows.
type Options struct {
	Order    Order
	Status   string
	Priority models.Priority
}

// Joiner is not safe for concurrent use.
type Joiner struct {
	g       *snapshot.Graph
	orphans []OrphanedReference
	seen    map[OrphanedReference]struct{}
}

// New returns a joiner that resolves parents against g.
func New(g *snapshot.Graph) *Joiner {
	if g == nil {
		g = snapshot.Empty()
	}
	return &Joiner{g: g, seen: map[OrphanedReference]struct{}{}}
}

// Orphans returns the missing references seen so far, in discovery order.
func (j *Joiner) Orphans() []OrphanedReference {
	out := make([]OrphanedReference, len(j.orphans))
	copy(out, j.orphans)
	return out
}

func (j *Joiner) orphan(kind models.Kind, id string, parent models.Kind, parentID string) {
	o := OrphanedReference{Kind: kind, ID: id, Parent: parent, ParentID: parentID}
	if _, ok := j.seen[o]; ok {
		return
	}
	j.seen[o] = struct{}{}
	j.orphans = append(j.orphans, o)
}

func (j *Joiner) unit(kind models.Kind, id, unitID string) (UnitRef, PropertyRef) {
	u, ok := j.g.Unit(unitID)
	if !ok {
		j.orphan(kind, id, models.KindUnit, unitID)
		return UnitRef{ID: unitID, UnitNumber: NotAvailable}, PropertyRef{Name: Unknown}
	}
	ref := UnitRef{ID: u.ID, UnitNumber: u.UnitNumber, RentAmount: u.RentAmount}
	return ref, j.property(models.KindUnit, u.ID, u.PropertyID)
}

func (j *Joiner) property(kind models.Kind, id, propertyID string) PropertyRef {
	p, ok := j.g.Property(propertyID)
	if !ok {
		j.orphan(kind, id, models.KindProperty, propertyID)
		return PropertyRef{ID: propertyID, Name: Unknown}
	}
	return PropertyRef{ID: p.ID, Name: p.Name}
}

func (j *Joiner) contact(kind models.Kind, id, userID string) Contact {
	u, ok := j.g.User(userID)
	if !ok {
		j.orphan(kind, id, models.KindUser, userID)
		return Contact{ID: userID, FirstName: Unknown}
	}
	return Contact{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func (j *Joiner) Leases(items []models.Lease, opts Options) []LeaseRow {
	rows := make([]LeaseRow, 0, len(items))
	for _, l := range items {
		if opts.Status != "" && string(l.Status) != opts.Status {
			continue
		}
		unit, prop := j.unit(models.KindLease, l.ID, l.UnitID)
		rows = append(rows, LeaseRow{
			Lease:    l,
			Unit:     unit,
			Property: prop,
			Tenant:   j.contact(models.KindLease, l.ID, l.TenantID),
		})
	}
	sortRows(rows, opts.Order, func(r LeaseRow) (time.Time, string) { return r.CreatedAt, r.ID })
	return rows
}

// Payments resolves the unit through the payment's lease and sorts by due date.
func (j *Joiner) Payments(items []models.Payment, opts Options) []PaymentRow {
	rows := make([]PaymentRow, 0, len(items))
	for _, p := range items {
		if opts.Status != "" && string(p.Status) != opts.Status {
			continue
		}
		row := PaymentRow{
			Payment: p,
			Tenant:  j.contact(models.KindPayment, p.ID, p.TenantID),
			Total:   p.Total(),
		}
		if l, ok := j.g.Lease(p.LeaseID); ok {
			row.Unit, row.Property = j.unit(models.KindLease, l.ID, l.UnitID)
		} else {
			j.orphan(models.KindPayment, p.ID, models.KindLease, p.LeaseID)
			row.Unit = UnitRef{UnitNumber: NotAvailable}
			row.Property = PropertyRef{Name: Unknown}
		}
		rows = append(rows, row)
	}
	sortRows(rows, opts.Order, func(r PaymentRow) (time.Time, string) { return r.DueDate, r.ID })
	return rows
}

func (j *Joiner) Maintenance(items []models.MaintenanceRequest, opts Options) []MaintenanceRow {
	rows := make([]MaintenanceRow, 0, len(items))
	for _, m := range items {
		if opts.Status != "" && string(m.Status) != opts.Status {
			continue
		}
		if opts.Priority != "" && m.Priority != opts.Priority {
			continue
		}
		unit, prop := j.unit(models.KindMaintenance, m.ID, m.UnitID)
		rows = append(rows, MaintenanceRow{
			MaintenanceRequest: m,
			Unit:               unit,
			Property:           prop,
			Tenant:             j.contact(models.KindMaintenance, m.ID, m.TenantID),
		})
	}
	sortRows(rows, opts.Order, func(r MaintenanceRow) (time.Time, string) { return r.CreatedAt, r.ID })
	return rows
}

func (j *Joiner) Applications(items []models.Application, opts Options) []ApplicationRow {
	rows := make([]ApplicationRow, 0, len(items))
	for _, a := range items {
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		unit, prop := j.unit(models.KindApplication, a.ID, a.UnitID)
		rows = append(rows, ApplicationRow{
			Application: a,
			Unit:        unit,
			Property:    prop,
			Tenant:      j.contact(models.KindApplication, a.ID, a.TenantID),
		})
	}
	sortRows(rows, opts.Order, func(r ApplicationRow) (time.Time, string) { return r.CreatedAt, r.ID })
	return rows
}

// Messages accepts "read" or "unread" as a status filter.
func (j *Joiner) Messages(items []models.Message, opts Options) []MessageRow {
	rows := make([]MessageRow, 0, len(items))
	for _, m := range items {
		switch opts.Status {
		case "read":
			if !m.Read {
				continue
			}
		case "unread":
			if m.Read {
				continue
			}
		}
		rows = append(rows, MessageRow{
			Message:  m,
			Sender:   j.contact(models.KindMessage, m.ID, m.SenderID),
			Receiver: j.contact(models.KindMessage, m.ID, m.ReceiverID),
		})
	}
	sortRows(rows, opts.Order, func(r MessageRow) (time.Time, string) { return r.CreatedAt, r.ID })
	return rows
}

func (j *Joiner) Units(items []models.Unit, opts Options) []UnitRow {
	tenants := make(map[string]string)
	for _, l := range j.g.Leases {
		if l.IsActive() {
			if _, taken := tenants[l.UnitID]; !taken {
				tenants[l.UnitID] = l.TenantID
			}
		}
	}

	rows := make([]UnitRow, 0, len(items))
	for _, u := range items {
		if opts.Status != "" && string(u.Status) != opts.Status {
			continue
		}
		row := UnitRow{Unit: u, Property: j.property(models.KindUnit, u.ID, u.PropertyID)}
		if tenantID, ok := tenants[u.ID]; ok {
			c := j.contact(models.KindUnit, u.ID, tenantID)
			row.Tenant = &c
		}
		rows = append(rows, row)
	}
	sortRows(rows, opts.Order, func(r UnitRow) (time.Time, string) { return r.CreatedAt, r.ID })
	return rows
}

// sortRows orders by timestamp. Ties break by id.
func sortRows[T any](rows []T, order Order, key func(T) (time.Time, string)) {
	asc := order == OrderAsc
	sort.SliceStable(rows, func(a, b int) bool {
		ta, ia := key(rows[a])
		tb, ib := key(rows[b])
		if !ta.Equal(tb) {
			if asc {
				return ta.Before(tb)
			}
			return ta.After(tb)
		}
		if asc {
			return ia < ib
		}
		return ia > ib
	})
}
