package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// collection describes one routed entity collection.
type collection struct {
	path  string
	kind  models.Kind
	label string
}

var collections = []collection{
	{"users", models.KindUser, "Users"},
	{"properties", models.KindProperty, "Properties"},
	{"units", models.KindUnit, "Units"},
	{"applications", models.KindApplication, "Applications"},
	{"leases", models.KindLease, "Leases"},
	{"payments", models.KindPayment, "Payments"},
	{"maintenance", models.KindMaintenance, "Maintenance requests"},
	{"messages", models.KindMessage, "Messages"},
}

// scoped returns the actor's slice of one collection.
func scoped(v *loader.View, kind models.Kind) any {
	g := v.Scoped
	switch kind {
	case models.KindUser:
		return g.Users
	case models.KindProperty:
		return g.Properties
	case models.KindUnit:
		return g.Units
	case models.KindApplication:
		return g.Applications
	case models.KindLease:
		return g.Leases
	case models.KindPayment:
		return g.Payments
	case models.KindMaintenance:
		return g.Maintenance
	case models.KindMessage:
		return g.Messages
	case models.KindActivity:
		return g.Activities
	}
	return nil
}

// findScoped returns one entity if it is inside the actor's scope.
func findScoped(v *loader.View, kind models.Kind, id string) (any, bool) {
	if !v.Scope.Allows(kind, id) {
		return nil, false
	}
	g := v.Graph
	switch kind {
	case models.KindUser:
		item, ok := g.User(id)
		return item, ok
	case models.KindProperty:
		item, ok := g.Property(id)
		return item, ok
	case models.KindUnit:
		item, ok := g.Unit(id)
		return item, ok
	case models.KindApplication:
		item, ok := g.Application(id)
		return item, ok
	case models.KindLease:
		item, ok := g.Lease(id)
		return item, ok
	case models.KindPayment:
		item, ok := g.Payment(id)
		return item, ok
	case models.KindMaintenance:
		item, ok := g.MaintenanceRequest(id)
		return item, ok
	case models.KindMessage:
		item, ok := g.Message(id)
		return item, ok
	}
	return nil, false
}

// handleList returns the scoped collection
func handleList(svc *rentalService, col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		utils.OKResponse(c, col.label+" retrieved successfully", scoped(view, col.kind))
	}
}

// handleGet returns one entity; entities outside the scope are reported as
// not found
func handleGet(svc *rentalService, col collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		item, ok := findScoped(view, col.kind, c.Param("id"))
		if !ok {
			utils.NotFoundResponse(c, fmt.Sprintf("%s not found", col.kind))
			return
		}
		utils.OKResponse(c, "Retrieved successfully", item)
	}
}

// handleGetActivities returns the actor's activity log
func handleGetActivities(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		utils.OKResponse(c, "Activities retrieved successfully", view.Scoped.Activities)
	}
}

// handleLandlordProperties lists a landlord's properties
func handleLandlordProperties(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		landlordID := c.Param("id")
		if !view.Scope.Allows(models.KindUser, landlordID) {
			utils.NotFoundResponse(c, "Landlord not found")
			return
		}

		props, err := svc.store.Properties.GetByRelated(c.Request.Context(), "landlord_id", landlordID)
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch properties")
			return
		}
		utils.OKResponse(c, "Properties retrieved successfully", allowed(view, models.KindProperty, props, func(p models.Property) string { return p.ID }))
	}
}

// handleTenantLeases lists a tenant's leases
func handleTenantLeases(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		tenantID := c.Param("id")
		if !view.Scope.Allows(models.KindUser, tenantID) {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}

		leases, err := svc.store.Leases.GetByRelated(c.Request.Context(), "tenant_id", tenantID)
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch leases")
			return
		}
		utils.OKResponse(c, "Leases retrieved successfully", allowed(view, models.KindLease, leases, func(l models.Lease) string { return l.ID }))
	}
}

// handleUserMessages lists messages sent or received by a user
func handleUserMessages(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		userID := c.Param("id")
		if !view.Scope.Allows(models.KindUser, userID) {
			utils.NotFoundResponse(c, "User not found")
			return
		}

		msgs, err := svc.store.MessagesForUser(c.Request.Context(), userID)
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch messages")
			return
		}
		utils.OKResponse(c, "Messages retrieved successfully", allowed(view, models.KindMessage, msgs, func(m models.Message) string { return m.ID }))
	}
}

// allowed drops the items outside the actor's scope.
func allowed[T any](v *loader.View, kind models.Kind, items []T, id func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v.Scope.Allows(kind, id(item)) {
			out = append(out, item)
		}
	}
	return out
}
