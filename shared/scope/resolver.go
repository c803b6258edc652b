// Package scope computes which entities an actor may see. Resolution is a
// pure function of the actor and a snapshot graph.
package scope

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/snapshot"
)

// ErrInvalidRole is returned when the actor's role is not admin, landlord or tenant
var ErrInvalidRole = errors.New("invalid role")

// IDSet is a set of entity ids
type IDSet map[string]struct{}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scope is the set of entity ids visible to one actor. Contacts holds the
// users the actor may message; Users additionally includes the actor.
type Scope struct {
	Actor        models.Actor
	Users        IDSet
	Contacts     IDSet
	Properties   IDSet
	Units        IDSet
	Applications IDSet
	Leases       IDSet
	Payments     IDSet
	Maintenance  IDSet
	Messages     IDSet
	Activities   IDSet
}

func newScope(actor models.Actor) *Scope {
	return &Scope{
		Actor:        actor,
		Users:        IDSet{},
		Contacts:     IDSet{},
		Properties:   IDSet{},
		Units:        IDSet{},
		Applications: IDSet{},
		Leases:       IDSet{},
		Payments:     IDSet{},
		Maintenance:  IDSet{},
		Messages:     IDSet{},
		Activities:   IDSet{},
	}
}

// Empty returns a scope that allows nothing.
func Empty(actor models.Actor) *Scope {
	return newScope(actor)
}

// Resolve computes the actor's scope over g. An unknown role yields an empty
// scope together with ErrInvalidRole. Children whose parent is missing from
// the graph are left out rather than reported.
func Resolve(actor models.Actor, g *snapshot.Graph) (*Scope, error) {
	if g == nil {
		g = snapshot.Empty()
	}
	switch actor.Role {
	case models.RoleAdmin:
		return resolveAdmin(actor, g), nil
	case models.RoleLandlord:
		return resolveLandlord(actor, g), nil
	case models.RoleTenant:
		return resolveTenant(actor, g), nil
	default:
		return Empty(actor), fmt.Errorf("%w: %q", ErrInvalidRole, actor.Role)
	}
}

func resolveAdmin(actor models.Actor, g *snapshot.Graph) *Scope {
	s := newScope(actor)
	for _, u := range g.Users {
		s.Users.add(u.ID)
		if u.ID != actor.ID {
			s.Contacts.add(u.ID)
		}
	}
	for _, p := range g.Properties {
		s.Properties.add(p.ID)
	}
	for _, u := range g.Units {
		s.Units.add(u.ID)
	}
	for _, a := range g.Applications {
		s.Applications.add(a.ID)
	}
	for _, l := range g.Leases {
		s.Leases.add(l.ID)
	}
	for _, p := range g.Payments {
		s.Payments.add(p.ID)
	}
	for _, m := range g.Maintenance {
		s.Maintenance.add(m.ID)
	}
	for _, m := range g.Messages {
		s.Messages.add(m.ID)
	}
	for _, a := range g.Activities {
		s.Activities.add(a.ID)
	}
	return s
}

func resolveLandlord(actor models.Actor, g *snapshot.Graph) *Scope {
	s := newScope(actor)
	for _, p := range g.Properties {
		if p.LandlordID == actor.ID {
			s.Properties.add(p.ID)
		}
	}
	for _, u := range g.Units {
		if s.Properties.Has(u.PropertyID) {
			s.Units.add(u.ID)
		}
	}
	for _, l := range g.Leases {
		if s.Units.Has(l.UnitID) {
			s.Leases.add(l.ID)
			if _, ok := g.User(l.TenantID); ok {
				s.Contacts.add(l.TenantID)
			}
		}
	}
	for _, p := range g.Payments {
		if s.Leases.Has(p.LeaseID) {
			s.Payments.add(p.ID)
		}
	}
	for _, m := range g.Maintenance {
		if s.Units.Has(m.UnitID) {
			s.Maintenance.add(m.ID)
		}
	}
	for _, a := range g.Applications {
		if s.Units.Has(a.UnitID) {
			s.Applications.add(a.ID)
		}
	}
	for _, id := range g.AdminIDs() {
		s.Contacts.add(id)
	}
	addOwn(s, actor, g)
	return s
}

func resolveTenant(actor models.Actor, g *snapshot.Graph) *Scope {
	s := newScope(actor)
	for _, l := range g.Leases {
		if l.TenantID == actor.ID {
			s.Leases.add(l.ID)
			reachUnit(s, g, l.UnitID)
		}
	}
	for _, p := range g.Payments {
		if p.TenantID == actor.ID || s.Leases.Has(p.LeaseID) {
			s.Payments.add(p.ID)
		}
	}
	for _, m := range g.Maintenance {
		if m.TenantID == actor.ID {
			s.Maintenance.add(m.ID)
		}
	}
	for _, a := range g.Applications {
		if a.TenantID == actor.ID {
			s.Applications.add(a.ID)
			reachUnit(s, g, a.UnitID)
		}
	}
	for id := range s.Properties {
		p, _ := g.Property(id)
		if _, ok := g.User(p.LandlordID); ok {
			s.Contacts.add(p.LandlordID)
		}
	}
	for _, id := range g.AdminIDs() {
		s.Contacts.add(id)
	}
	addOwn(s, actor, g)
	return s
}

// reachUnit adds a unit and its property when both exist.
func reachUnit(s *Scope, g *snapshot.Graph, unitID string) {
	u, ok := g.Unit(unitID)
	if !ok {
		return
	}
	s.Units.add(u.ID)
	if _, ok := g.Property(u.PropertyID); ok {
		s.Properties.add(u.PropertyID)
	}
}

// addOwn adds the actor's messages, activities and the user records the
// actor may see.
func addOwn(s *Scope, actor models.Actor, g *snapshot.Graph) {
	for _, m := range g.Messages {
		if m.Involves(actor.ID) {
			s.Messages.add(m.ID)
		}
	}
	for _, a := range g.Activities {
		if a.UserID == actor.ID {
			s.Activities.add(a.ID)
		}
	}
	delete(s.Contacts, actor.ID)
	for id := range s.Contacts {
		s.Users.add(id)
	}
	if _, ok := g.User(actor.ID); ok {
		s.Users.add(actor.ID)
	}
}

// Allows reports whether the entity is inside the scope.
func (s *Scope) Allows(kind models.Kind, id string) bool {
	switch kind {
	case models.KindUser:
		return s.Users.Has(id)
	case models.KindProperty:
		return s.Properties.Has(id)
	case models.KindUnit:
		return s.Units.Has(id)
	case models.KindApplication:
		return s.Applications.Has(id)
	case models.KindLease:
		return s.Leases.Has(id)
	case models.KindPayment:
		return s.Payments.Has(id)
	case models.KindMaintenance:
		return s.Maintenance.Has(id)
	case models.KindMessage:
		return s.Messages.Has(id)
	case models.KindActivity:
		return s.Activities.Has(id)
	}
	return false
}

// Filter narrows g to the scoped entities, keeping g's order.
func (s *Scope) Filter(g *snapshot.Graph) *snapshot.Graph {
	if g == nil {
		return snapshot.Empty()
	}
	return snapshot.New(snapshot.Collections{
		Users:        keep(g.Users, s.Users, func(u models.User) string { return u.ID }),
		Properties:   keep(g.Properties, s.Properties, func(p models.Property) string { return p.ID }),
		Units:        keep(g.Units, s.Units, func(u models.Unit) string { return u.ID }),
		Applications: keep(g.Applications, s.Applications, func(a models.Application) string { return a.ID }),
		Leases:       keep(g.Leases, s.Leases, func(l models.Lease) string { return l.ID }),
		Payments:     keep(g.Payments, s.Payments, func(p models.Payment) string { return p.ID }),
		Maintenance:  keep(g.Maintenance, s.Maintenance, func(m models.MaintenanceRequest) string { return m.ID }),
		Messages:     keep(g.Messages, s.Messages, func(m models.Message) string { return m.ID }),
		Activities:   keep(g.Activities, s.Activities, func(a models.Activity) string { return a.ID }),
	})
}

func keep[T any](items []T, set IDSet, key func(T) string) []T {
	out := make([]T, 0, len(set))
	for _, item := range items {
		if set.Has(key(item)) {
			out = append(out, item)
		}
	}
	return out
}
