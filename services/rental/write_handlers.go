package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// CommentRequest represents a new maintenance comment
type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, fmt.Sprintf(format, args...))
}

// target loads the view and checks that the routed entity is in scope.
func (svc *rentalService) target(c *gin.Context, kind models.Kind) (*loader.View, string, bool) {
	view, ok := svc.view(c)
	if !ok {
		return nil, "", false
	}
	id := c.Param("id")
	if !view.Scope.Allows(kind, id) {
		utils.DomainErrorResponse(c, notInScope(kind, id), "")
		return nil, "", false
	}
	return view, id, true
}

// creator loads the view and checks the actor's role may create kind.
func (svc *rentalService) creator(c *gin.Context, kind models.Kind) (*loader.View, bool) {
	view, ok := svc.view(c)
	if !ok {
		return nil, false
	}
	if err := authorizeCreate(view.Actor, kind); err != nil {
		writeError(c, err, "")
		return nil, false
	}
	return view, true
}

func requireRole(view *loader.View, userID string, role models.UserRole) error {
	u, ok := view.Graph.User(userID)
	if !ok || u.Role != role {
		return invalidf("%s is not a %s", userID, role)
	}
	return nil
}

// leasesUnit reports whether one of the actor's scoped leases is on unitID.
func leasesUnit(view *loader.View, unitID string) bool {
	for _, l := range view.Scoped.Leases {
		if l.UnitID == unitID && l.TenantID == view.Actor.ID {
			return true
		}
	}
	return false
}

// handleCreateUser creates a user record (admin only)
func handleCreateUser(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindUser)
		if !ok {
			return
		}
		user.LastLoginAt = nil

		if err := svc.store.Users.Create(c.Request.Context(), &user); err != nil {
			writeError(c, err, "Failed to create user")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindUser, user.ID, fmt.Sprintf("created %s %s", user.Role, user.Email))
		utils.CreatedResponse(c, "User created successfully", user)
	}
}

// handleCreateProperty creates a property; landlords always own what they create
func handleCreateProperty(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var prop models.Property
		if err := c.ShouldBindJSON(&prop); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindProperty)
		if !ok {
			return
		}

		if view.Actor.IsLandlord() {
			if prop.LandlordID != "" && prop.LandlordID != view.Actor.ID {
				writeError(c, forbid("landlords create properties for themselves"), "")
				return
			}
			prop.LandlordID = view.Actor.ID
		} else if err := requireRole(view, prop.LandlordID, models.RoleLandlord); err != nil {
			writeError(c, err, "")
			return
		}

		if err := svc.store.Properties.Create(c.Request.Context(), &prop); err != nil {
			writeError(c, err, "Failed to create property")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindProperty, prop.ID, "created property "+prop.Name)
		utils.CreatedResponse(c, "Property created successfully", prop)
	}
}

// handleCreateUnit adds a unit to a property in the actor's scope
func handleCreateUnit(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var unit models.Unit
		if err := c.ShouldBindJSON(&unit); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindUnit)
		if !ok {
			return
		}
		if !view.Scope.Allows(models.KindProperty, unit.PropertyID) {
			writeError(c, notInScope(models.KindProperty, unit.PropertyID), "")
			return
		}

		if err := svc.store.Units.Create(c.Request.Context(), &unit); err != nil {
			writeError(c, err, "Failed to create unit")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindUnit, unit.ID, "created unit "+unit.UnitNumber)
		utils.CreatedResponse(c, "Unit created successfully", unit)
	}
}

// handleCreateApplication files an application for an available unit
func handleCreateApplication(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var app models.Application
		if err := c.ShouldBindJSON(&app); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindApplication)
		if !ok {
			return
		}

		if view.Actor.IsTenant() {
			if app.TenantID != "" && app.TenantID != view.Actor.ID {
				writeError(c, forbid("tenants apply for themselves"), "")
				return
			}
			app.TenantID = view.Actor.ID
		} else if err := requireRole(view, app.TenantID, models.RoleTenant); err != nil {
			writeError(c, err, "")
			return
		}

		unit, ok := view.Graph.Unit(app.UnitID)
		if !ok {
			writeError(c, fmt.Errorf("%w: unit %s", store.ErrNotFound, app.UnitID), "")
			return
		}
		if unit.Status != models.UnitStatusAvailable {
			writeError(c, invalidf("unit %s is %s", unit.ID, unit.Status), "")
			return
		}
		// new applications always start unreviewed
		app.Status = models.ApplicationPending
		app.LandlordRecommendation = models.RecommendationPending
		app.LandlordNotes, app.AdminNotes = "", ""

		if err := svc.store.Applications.Create(c.Request.Context(), &app); err != nil {
			writeError(c, err, "Failed to create application")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindApplication, app.ID, "applied for unit "+unit.UnitNumber)
		utils.CreatedResponse(c, "Application submitted successfully", app)
	}
}

// handleCreateLease creates a lease on a unit in the actor's scope
func handleCreateLease(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var lease models.Lease
		if err := c.ShouldBindJSON(&lease); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindLease)
		if !ok {
			return
		}
		if !view.Scope.Allows(models.KindUnit, lease.UnitID) {
			writeError(c, notInScope(models.KindUnit, lease.UnitID), "")
			return
		}
		if err := requireRole(view, lease.TenantID, models.RoleTenant); err != nil {
			writeError(c, err, "")
			return
		}
		if lease.Status != "" && lease.Status != models.LeasePending && lease.Status != models.LeaseActive {
			writeError(c, invalidf("a new lease is pending or active"), "")
			return
		}

		if err := svc.store.Leases.Create(c.Request.Context(), &lease); err != nil {
			writeError(c, err, "Failed to create lease")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindLease, lease.ID, "created lease for unit "+lease.UnitID)
		utils.CreatedResponse(c, "Lease created successfully", lease)
	}
}

// handleCreatePayment schedules a payment on a lease in the actor's scope
func handleCreatePayment(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pay models.Payment
		if err := c.ShouldBindJSON(&pay); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindPayment)
		if !ok {
			return
		}
		lease, ok := view.Graph.Lease(pay.LeaseID)
		if !ok || !view.Scope.Allows(models.KindLease, pay.LeaseID) {
			writeError(c, notInScope(models.KindLease, pay.LeaseID), "")
			return
		}
		pay.TenantID = lease.TenantID
		if pay.Status == "" {
			pay.Status = models.PaymentPending
		}

		if err := svc.store.Payments.Create(c.Request.Context(), &pay); err != nil {
			writeError(c, err, "Failed to create payment")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindPayment, pay.ID, fmt.Sprintf("scheduled payment of %.2f", pay.Amount))
		utils.CreatedResponse(c, "Payment created successfully", pay)
	}
}

// handleCreateMaintenance opens a maintenance request on the tenant's unit
func handleCreateMaintenance(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.MaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindMaintenance)
		if !ok {
			return
		}
		if !view.Scope.Allows(models.KindUnit, req.UnitID) {
			writeError(c, notInScope(models.KindUnit, req.UnitID), "")
			return
		}
		if view.Actor.IsTenant() {
			if !leasesUnit(view, req.UnitID) {
				writeError(c, forbid("maintenance is requested on a leased unit"), "")
				return
			}
			req.TenantID = view.Actor.ID
		} else if err := requireRole(view, req.TenantID, models.RoleTenant); err != nil {
			writeError(c, err, "")
			return
		}
		req.Status = models.MaintenanceOpen
		req.ResolvedAt = nil
		req.Comments = nil

		if err := svc.store.Maintenance.Create(c.Request.Context(), &req); err != nil {
			writeError(c, err, "Failed to create maintenance request")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindMaintenance, req.ID, "opened request "+req.Title)
		utils.CreatedResponse(c, "Maintenance request created successfully", req)
	}
}

// handleCreateMessage sends a message to one of the actor's contacts
func handleCreateMessage(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var msg models.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, ok := svc.creator(c, models.KindMessage)
		if !ok {
			return
		}
		if !view.Scope.Contacts.Has(msg.ReceiverID) {
			writeError(c, notInScope(models.KindUser, msg.ReceiverID), "")
			return
		}
		msg.SenderID = view.Actor.ID
		msg.Read = false
		msg.ReadAt = nil

		if err := svc.store.Messages.Create(c.Request.Context(), &msg); err != nil {
			writeError(c, err, "Failed to send message")
			return
		}
		svc.publish(view.Actor, models.ActivityCreated, models.KindMessage, msg.ID, "sent message to "+msg.ReceiverID)
		utils.CreatedResponse(c, "Message sent successfully", msg)
	}
}

// handleUpdateUser patches a user; users may edit their own profile
func handleUpdateUser(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.UserPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindUser)
		if !ok {
			return
		}
		current, _ := view.Graph.User(id)
		if err := authorizeUserPatch(view.Actor, current, patch); err != nil {
			writeError(c, err, "")
			return
		}

		user, err := svc.store.UpdateUser(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update user")
			return
		}
		svc.invalidateActor(c.Request.Context(), id)
		svc.publish(view.Actor, models.ActivityProfileUpdate, models.KindUser, id, "updated profile")
		utils.OKResponse(c, "User updated successfully", user)
	}
}

// handleUpdateProperty patches a property
func handleUpdateProperty(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.PropertyPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindProperty)
		if !ok {
			return
		}
		if err := landlordOnly(view.Actor, models.KindProperty); err != nil {
			writeError(c, err, "")
			return
		}

		prop, err := svc.store.UpdateProperty(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update property")
			return
		}
		svc.publish(view.Actor, models.ActivityUpdated, models.KindProperty, id, "updated property "+prop.Name)
		utils.OKResponse(c, "Property updated successfully", prop)
	}
}

// handleUpdateUnit patches a unit
func handleUpdateUnit(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.UnitPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindUnit)
		if !ok {
			return
		}
		if err := landlordOnly(view.Actor, models.KindUnit); err != nil {
			writeError(c, err, "")
			return
		}
		before, _ := view.Graph.Unit(id)

		unit, err := svc.store.UpdateUnit(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update unit")
			return
		}
		svc.publish(view.Actor, statusActivity(before.Status, unit.Status), models.KindUnit, id, fmt.Sprintf("unit %s is %s", unit.UnitNumber, unit.Status))
		utils.OKResponse(c, "Unit updated successfully", unit)
	}
}

// handleUpdateApplication moves an application through review
func handleUpdateApplication(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.ApplicationPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindApplication)
		if !ok {
			return
		}
		before, _ := view.Graph.Application(id)
		if err := authorizeApplicationPatch(view.Actor, before, patch); err != nil {
			writeError(c, err, "")
			return
		}

		app, err := svc.store.UpdateApplication(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update application")
			return
		}
		svc.publish(view.Actor, statusActivity(before.Status, app.Status), models.KindApplication, id, fmt.Sprintf("application %s", app.Status))
		utils.OKResponse(c, "Application updated successfully", app)
	}
}

// handleUpdateLease moves a lease through its lifecycle
func handleUpdateLease(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.LeasePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindLease)
		if !ok {
			return
		}
		if err := landlordOnly(view.Actor, models.KindLease); err != nil {
			writeError(c, err, "")
			return
		}
		before, _ := view.Graph.Lease(id)

		lease, err := svc.store.UpdateLease(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update lease")
			return
		}
		svc.publish(view.Actor, statusActivity(before.Status, lease.Status), models.KindLease, id, fmt.Sprintf("lease %s", lease.Status))
		utils.OKResponse(c, "Lease updated successfully", lease)
	}
}

// handleUpdatePayment records payment progress
func handleUpdatePayment(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.PaymentPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindPayment)
		if !ok {
			return
		}
		before, _ := view.Graph.Payment(id)
		if err := authorizePaymentPatch(view.Actor, before, patch); err != nil {
			writeError(c, err, "")
			return
		}

		pay, err := svc.store.UpdatePayment(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update payment")
			return
		}
		svc.publish(view.Actor, statusActivity(before.Status, pay.Status), models.KindPayment, id, fmt.Sprintf("payment %s", pay.Status))
		utils.OKResponse(c, "Payment updated successfully", pay)
	}
}

// handleUpdateMaintenance moves a maintenance request through its lifecycle
func handleUpdateMaintenance(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.MaintenancePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindMaintenance)
		if !ok {
			return
		}
		before, _ := view.Graph.MaintenanceRequest(id)
		if err := authorizeMaintenancePatch(view.Actor, before, patch); err != nil {
			writeError(c, err, "")
			return
		}

		req, err := svc.store.UpdateMaintenance(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update maintenance request")
			return
		}
		svc.publish(view.Actor, statusActivity(before.Status, req.Status), models.KindMaintenance, id, fmt.Sprintf("request %s", req.Status))
		utils.OKResponse(c, "Maintenance request updated successfully", req)
	}
}

// handleUpdateMessage edits a message or marks it read
func handleUpdateMessage(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch store.MessagePatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindMessage)
		if !ok {
			return
		}
		before, _ := view.Graph.Message(id)
		if err := authorizeMessagePatch(view.Actor, before, patch); err != nil {
			writeError(c, err, "")
			return
		}

		msg, err := svc.store.UpdateMessage(c.Request.Context(), id, patch)
		if err != nil {
			writeError(c, err, "Failed to update message")
			return
		}
		typ := models.ActivityUpdated
		if msg.Read && !before.Read {
			typ = models.ActivityMessageRead
		}
		svc.publish(view.Actor, typ, models.KindMessage, id, "updated message")
		utils.OKResponse(c, "Message updated successfully", msg)
	}
}

// handleAddComment appends to a maintenance request's thread
func handleAddComment(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		view, id, ok := svc.target(c, models.KindMaintenance)
		if !ok {
			return
		}

		comment, err := svc.store.AddMaintenanceComment(c.Request.Context(), id, view.Actor.ID, req.Content)
		if err != nil {
			writeError(c, err, "Failed to add comment")
			return
		}
		svc.publish(view.Actor, models.ActivityCommented, models.KindMaintenance, id, "added a comment")
		utils.CreatedResponse(c, "Comment added successfully", comment)
	}
}

// handleMarkRead marks a received message read
func handleMarkRead(svc *rentalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, id, ok := svc.target(c, models.KindMessage)
		if !ok {
			return
		}
		before, _ := view.Graph.Message(id)
		if before.ReceiverID != view.Actor.ID {
			writeError(c, forbid("only the receiver marks a message read"), "")
			return
		}

		msg, err := svc.store.MarkMessageRead(c.Request.Context(), id)
		if err != nil {
			writeError(c, err, "Failed to mark message read")
			return
		}
		if !before.Read {
			svc.publish(view.Actor, models.ActivityMessageRead, models.KindMessage, id, "read message")
		}
		utils.OKResponse(c, "Message marked as read", msg)
	}
}
