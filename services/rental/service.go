package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/loader"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// errForbidden is returned when the actor may see an entity but not make
// the requested change
var errForbidden = errors.New("insufficient permissions")

// rentalService carries the dependencies of the rental handlers.
type rentalService struct {
	store  *store.Store
	loader *loader.Loader
	events events.Publisher
	auth   *middleware.AuthMiddleware
	now    func() time.Time
}

// view loads the actor's scoped snapshot. It writes the error response and
// returns false when the load fails.
func (svc *rentalService) view(c *gin.Context) (*loader.View, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "User not found in context")
		return nil, false
	}
	view, err := svc.loader.Load(c.Request.Context(), actor)
	if err != nil {
		utils.DomainErrorResponse(c, err, "Failed to load data")
		return nil, false
	}
	return view, true
}

// writeError reports a failed write.
func writeError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, errForbidden) {
		utils.ForbiddenResponse(c, err.Error())
		return
	}
	utils.DomainErrorResponse(c, err, fallback)
}

func notInScope(kind models.Kind, id string) error {
	return fmt.Errorf("%w: %s %s", store.ErrNotFound, kind, id)
}

// publish records an activity. Delivery problems are logged and never fail
// the request.
func (svc *rentalService) publish(actor models.Actor, typ models.ActivityType, kind models.Kind, id, description string) {
	if svc.events == nil {
		return
	}
	event := events.NewActivityEvent(actor.ID, typ, kind, id, description, svc.now())
	if err := svc.events.Publish(event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"entity_type": kind,
			"entity_id":   id,
		}).Warn("Activity event not published")
	}
}

// statusActivity picks the activity type for a write that may have moved
// the entity's status.
func statusActivity[S comparable](before S, after S) models.ActivityType {
	if before != after {
		return models.ActivityStatusChanged
	}
	return models.ActivityUpdated
}

func (svc *rentalService) invalidateActor(ctx context.Context, userID string) {
	if svc.auth == nil {
		return
	}
	if err := svc.auth.InvalidateActor(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached actor")
	}
}
