package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/enrich"
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/taxonomy"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

type dashboardService struct {
	loader   *loader.Loader
	sessions *loader.Registry
	now      func() time.Time
}

// view reloads the caller's session. Admins may pass ?as=<userId> to see
// the dashboard of another user through the same session, so switching
// users quickly discards the older load.
func (svc *dashboardService) view(c *gin.Context) (*loader.View, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not found in context")
		return nil, false
	}

	view, err := svc.sessions.Session(actor.ID).Reload(c.Request.Context(), actor)
	if errors.Is(err, loader.ErrStaleLoad) {
		utils.ConflictResponse(c, "Superseded by a newer request")
		return nil, false
	}
	if err != nil {
		utils.DomainErrorResponse(c, err, "Failed to load dashboard")
		return nil, false
	}

	as := c.Query("as")
	if as == "" || as == actor.ID {
		return view, true
	}
	if !actor.IsAdmin() {
		utils.ForbiddenResponse(c, "Only admins can view as another user")
		return nil, false
	}
	switched, err := view.As(as)
	if err != nil {
		utils.DomainErrorResponse(c, err, "Failed to switch user")
		return nil, false
	}
	logrus.WithFields(logrus.Fields{"admin": actor.ID, "as": as}).Debug("Dashboard viewed as another user")
	return switched, true
}

// viewKinds maps the /views/:kind path segment to an entity kind.
var viewKinds = map[string]models.Kind{
	"leases":       models.KindLease,
	"payments":     models.KindPayment,
	"maintenance":  models.KindMaintenance,
	"applications": models.KindApplication,
	"messages":     models.KindMessage,
	"units":        models.KindUnit,
}

// parseOptions reads ?status, ?priority and ?order. Status values are
// checked against the kind's vocabulary.
func parseOptions(c *gin.Context, kind models.Kind) (enrich.Options, error) {
	opts := enrich.Options{
		Order:    enrich.ParseOrder(c.Query("order")),
		Status:   c.Query("status"),
		Priority: models.Priority(c.Query("priority")),
	}

	if opts.Status != "" && !validStatus(kind, opts.Status) {
		return opts, fmt.Errorf("%w: %s %q", taxonomy.ErrUnknownStatus, kind, opts.Status)
	}
	if opts.Priority != "" {
		if kind != models.KindMaintenance {
			return opts, fmt.Errorf("%w: priority only filters maintenance", models.ErrValidation)
		}
		if !taxonomy.ValidPriority(opts.Priority) {
			return opts, fmt.Errorf("%w: unknown priority %q", taxonomy.ErrUnknownStatus, opts.Priority)
		}
	}
	return opts, nil
}

func validStatus(kind models.Kind, status string) bool {
	switch kind {
	case models.KindMessage:
		return status == "read" || status == "unread"
	case models.KindUnit:
		return models.UnitStatus(status).Valid()
	}
	return taxonomy.Valid(kind, status)
}

func logOrphans(j *enrich.Joiner, actor models.Actor) {
	for _, o := range j.Orphans() {
		logrus.WithFields(logrus.Fields{
			"user_id":   actor.ID,
			"kind":      o.Kind,
			"id":        o.ID,
			"parent":    o.Parent,
			"parent_id": o.ParentID,
		}).Debug("Orphaned reference")
	}
}
