package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/dashboard"
	"github.com/pavitra93/go-rental-management/shared/enrich"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// StatsResponse is the dashboard summary for one user
type StatsResponse struct {
	UserID string          `json:"user_id"`
	Stats  dashboard.Stats `json:"stats"`
}

// handleStats returns the role-specific counters
func handleStats(svc *dashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}

		stats, err := dashboard.Aggregate(view.Actor, view.Scoped, svc.now())
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to compute stats")
			return
		}
		utils.OKResponse(c, "Stats retrieved successfully", StatsResponse{UserID: view.Actor.ID, Stats: stats})
	}
}

// handleView returns one enriched, filtered and ordered list
func handleView(svc *dashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := viewKinds[c.Param("kind")]
		if !ok {
			utils.NotFoundResponse(c, fmt.Sprintf("Unknown view %q", c.Param("kind")))
			return
		}
		opts, err := parseOptions(c, kind)
		if err != nil {
			utils.DomainErrorResponse(c, err, "")
			return
		}
		view, ok := svc.view(c)
		if !ok {
			return
		}

		j := enrich.New(view.Graph)
		var rows any
		switch kind {
		case models.KindLease:
			rows = j.Leases(view.Scoped.Leases, opts)
		case models.KindPayment:
			rows = j.Payments(view.Scoped.Payments, opts)
		case models.KindMaintenance:
			rows = j.Maintenance(view.Scoped.Maintenance, opts)
		case models.KindApplication:
			rows = j.Applications(view.Scoped.Applications, opts)
		case models.KindMessage:
			rows = j.Messages(view.Scoped.Messages, opts)
		case models.KindUnit:
			rows = j.Units(view.Scoped.Units, opts)
		}
		logOrphans(j, view.Actor)

		utils.OKResponse(c, "View retrieved successfully", rows)
	}
}

// handlePaymentReport streams the payment ledger as an xlsx workbook
func handlePaymentReport(svc *dashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, ok := svc.view(c)
		if !ok {
			return
		}
		if view.Actor.IsTenant() {
			utils.ForbiddenResponse(c, "Reports are available to landlords and admins")
			return
		}

		now := svc.now()
		stats, err := dashboard.Aggregate(view.Actor, view.Scoped, now)
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to compute stats")
			return
		}
		j := enrich.New(view.Graph)
		rows := j.Payments(view.Scoped.Payments, enrich.Options{Order: enrich.ParseOrder(c.Query("order"))})
		logOrphans(j, view.Actor)

		data, err := buildPaymentReport(rows, stats, now)
		if err != nil {
			logrus.WithError(err).WithField("user_id", view.Actor.ID).Error("Failed to build payment report")
			utils.InternalServerErrorResponse(c, "Failed to build report")
			return
		}

		filename := fmt.Sprintf("payments-%s-%s.xlsx", view.Actor.ID, now.Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, data)
	}
}

// handleEndSession drops the caller's dashboard session
func handleEndSession(svc *dashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.ActorFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User not found in context")
			return
		}
		svc.sessions.Drop(actor.ID)
		utils.OKResponse(c, "Dashboard session closed", nil)
	}
}
