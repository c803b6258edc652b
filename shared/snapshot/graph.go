// Package snapshot provides an immutable, indexed view over one read of every
// entity collection. Resolvers and joiners take a Graph instead of reading
// shared state, so the same input always yields the same output.
package snapshot

import "github.com/pavitra93/go-rental-management/shared/models"

// Collections is the raw result of loading every collection.
type Collections struct {
	Users        []models.User
	Properties   []models.Property
	Units        []models.Unit
	Applications []models.Application
	Leases       []models.Lease
	Payments     []models.Payment
	Maintenance  []models.MaintenanceRequest
	Messages     []models.Message
	Activities   []models.Activity
}

// Graph is a read-only snapshot with id indexes. Callers must not modify the
// exported slices once the graph is built.
type Graph struct {
	Collections

	users        map[string]int
	properties   map[string]int
	units        map[string]int
	applications map[string]int
	leases       map[string]int
	payments     map[string]int
	maintenance  map[string]int
	messages     map[string]int
}

// New indexes c. Duplicate ids keep the first occurrence.
func New(c Collections) *Graph {
	g := &Graph{Collections: c}
	g.users = index(c.Users, func(u models.User) string { return u.ID })
	g.properties = index(c.Properties, func(p models.Property) string { return p.ID })
	g.units = index(c.Units, func(u models.Unit) string { return u.ID })
	g.applications = index(c.Applications, func(a models.Application) string { return a.ID })
	g.leases = index(c.Leases, func(l models.Lease) string { return l.ID })
	g.payments = index(c.Payments, func(p models.Payment) string { return p.ID })
	g.maintenance = index(c.Maintenance, func(m models.MaintenanceRequest) string { return m.ID })
	g.messages = index(c.Messages, func(m models.Message) string { return m.ID })
	return g
}

// Empty returns a graph with no entities.
func Empty() *Graph {
	return New(Collections{})
}

func index[T any](items []T, key func(T) string) map[string]int {
	m := make(map[string]int, len(items))
	for i, item := range items {
		k := key(item)
		if _, dup := m[k]; !dup {
			m[k] = i
		}
	}
	return m
}

func lookup[T any](items []T, idx map[string]int, id string) (T, bool) {
	i, ok := idx[id]
	if !ok {
		var zero T
		return zero, false
	}
	return items[i], true
}

func (g *Graph) User(id string) (models.User, bool) {
	return lookup(g.Users, g.users, id)
}

func (g *Graph) Property(id string) (models.Property, bool) {
	return lookup(g.Properties, g.properties, id)
}

func (g *Graph) Unit(id string) (models.Unit, bool) {
	return lookup(g.Units, g.units, id)
}

func (g *Graph) Application(id string) (models.Application, bool) {
	return lookup(g.Applications, g.applications, id)
}

func (g *Graph) Lease(id string) (models.Lease, bool) {
	return lookup(g.Leases, g.leases, id)
}

func (g *Graph) Payment(id string) (models.Payment, bool) {
	return lookup(g.Payments, g.payments, id)
}

func (g *Graph) MaintenanceRequest(id string) (models.MaintenanceRequest, bool) {
	return lookup(g.Collections.Maintenance, g.maintenance, id)
}

func (g *Graph) Message(id string) (models.Message, bool) {
	return lookup(g.Messages, g.messages, id)
}

// PropertyOfUnit follows Unit.PropertyID.
func (g *Graph) PropertyOfUnit(unitID string) (models.Property, bool) {
	u, ok := g.Unit(unitID)
	if !ok {
		return models.Property{}, false
	}
	return g.Property(u.PropertyID)
}

// AdminIDs returns the ids of every admin user in load order.
func (g *Graph) AdminIDs() []string {
	var ids []string
	for _, u := range g.Users {
		if u.Role == models.RoleAdmin {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

// Has reports whether an entity of the given kind exists.
func (g *Graph) Has(kind models.Kind, id string) bool {
	var ok bool
	switch kind {
	case models.KindUser:
		_, ok = g.users[id]
	case models.KindProperty:
		_, ok = g.properties[id]
	case models.KindUnit:
		_, ok = g.units[id]
	case models.KindApplication:
		_, ok = g.applications[id]
	case models.KindLease:
		_, ok = g.leases[id]
	case models.KindPayment:
		_, ok = g.payments[id]
	case models.KindMaintenance:
		_, ok = g.maintenance[id]
	case models.KindMessage:
		_, ok = g.messages[id]
	case models.KindActivity:
		for _, a := range g.Activities {
			if a.ID == id {
				return true
			}
		}
	}
	return ok
}
