package main

import (
	"fmt"

	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
)

// creators lists the roles that may create each kind of entity.
var creators = map[models.Kind][]models.UserRole{
	models.KindUser:        {models.RoleAdmin},
	models.KindProperty:    {models.RoleAdmin, models.RoleLandlord},
	models.KindUnit:        {models.RoleAdmin, models.RoleLandlord},
	models.KindApplication: {models.RoleAdmin, models.RoleTenant},
	models.KindLease:       {models.RoleAdmin, models.RoleLandlord},
	models.KindPayment:     {models.RoleAdmin, models.RoleLandlord},
	models.KindMaintenance: {models.RoleAdmin, models.RoleTenant},
	models.KindMessage:     {models.RoleAdmin, models.RoleLandlord, models.RoleTenant},
}

func authorizeCreate(actor models.Actor, kind models.Kind) error {
	for _, r := range creators[kind] {
		if actor.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot create %s", errForbidden, actor.Role, kind)
}

func changed[T comparable](p *T, cur T) bool {
	return p != nil && *p != cur
}

func forbid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errForbidden, fmt.Sprintf(format, args...))
}

func authorizeUserPatch(actor models.Actor, target models.User, p store.UserPatch) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.ID != target.ID {
		return forbid("only admins edit other users")
	}
	if changed(p.Status, target.Status) {
		return forbid("only admins change account status")
	}
	return nil
}

// landlordOnly covers properties, units and leases: admins and the owning
// landlord may edit them.
func landlordOnly(actor models.Actor, kind models.Kind) error {
	if actor.IsAdmin() || actor.IsLandlord() {
		return nil
	}
	return forbid("%s cannot edit %s", actor.Role, kind)
}

// authorizeApplicationPatch splits an application between its three
// parties: the applicant withdraws, the landlord recommends and the admin
// approves or rejects.
func authorizeApplicationPatch(actor models.Actor, app models.Application, p store.ApplicationPatch) error {
	recommends := changed(p.LandlordRecommendation, app.LandlordRecommendation) || changed(p.LandlordNotes, app.LandlordNotes)
	applicantEdits := changed(p.EmploymentInfo, app.EmploymentInfo) || changed(p.MonthlyIncome, app.MonthlyIncome) || p.MoveInDate != nil

	switch actor.Role {
	case models.RoleAdmin:
		if recommends {
			return forbid("the landlord recommendation is set by the landlord")
		}
		if changed(p.Status, app.Status) && *p.Status == models.ApplicationWithdrawn {
			return forbid("only the applicant can withdraw an application")
		}
	case models.RoleLandlord:
		if changed(p.Status, app.Status) || changed(p.AdminNotes, app.AdminNotes) || applicantEdits {
			return forbid("landlords may only set their recommendation")
		}
	case models.RoleTenant:
		if app.TenantID != actor.ID {
			return forbid("not your application")
		}
		if changed(p.Status, app.Status) && *p.Status != models.ApplicationWithdrawn {
			return forbid("applicants may only withdraw")
		}
		if recommends || changed(p.AdminNotes, app.AdminNotes) {
			return forbid("applicants cannot set review fields")
		}
	default:
		return forbid("unknown role")
	}
	return nil
}

func authorizePaymentPatch(actor models.Actor, pay models.Payment, p store.PaymentPatch) error {
	if actor.IsAdmin() || actor.IsLandlord() {
		return nil
	}
	if pay.TenantID != actor.ID {
		return forbid("not your payment")
	}
	if changed(p.Status, pay.Status) || p.LateFee != nil || p.PaidDate != nil {
		return forbid("tenants may only submit a payment method and reference")
	}
	return nil
}

func authorizeMaintenancePatch(actor models.Actor, req models.MaintenanceRequest, p store.MaintenancePatch) error {
	if actor.IsAdmin() || actor.IsLandlord() {
		return nil
	}
	if req.TenantID != actor.ID {
		return forbid("not your request")
	}
	if changed(p.Status, req.Status) && *p.Status != models.MaintenanceCancelled {
		return forbid("tenants may only cancel a request")
	}
	if changed(p.Priority, req.Priority) {
		return forbid("priority is set by the landlord")
	}
	return nil
}

// authorizeMessagePatch lets the receiver mark a message read and the
// sender edit it while it is unread.
func authorizeMessagePatch(actor models.Actor, m models.Message, p store.MessagePatch) error {
	if actor.IsAdmin() {
		return nil
	}
	edits := changed(p.Subject, m.Subject) || changed(p.Content, m.Content)
	switch actor.ID {
	case m.ReceiverID:
		if edits {
			return forbid("only the sender edits a message")
		}
	case m.SenderID:
		if changed(p.Read, m.Read) {
			return forbid("only the receiver marks a message read")
		}
		if edits && m.Read {
			return forbid("message was already read")
		}
	default:
		return forbid("not your message")
	}
	return nil
}
