package main

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/events"
	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

type authService struct {
	idp      IdentityProvider
	store    *store.Store
	sessions *cache.SessionStore
	auth     *middleware.AuthMiddleware
	events   events.Publisher
	now      func() time.Time
}

// authError reports identity provider failures.
func authError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, "Invalid credentials")
	case errors.Is(err, ErrUsernameTaken):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, utils.ErrCircuitOpen):
		utils.ServiceUnavailableResponse(c, "Authentication service temporarily unavailable")
	default:
		utils.DomainErrorResponse(c, err, fallback)
	}
}

func (svc *authService) publish(userID string, typ models.ActivityType, description string) {
	if svc.events == nil {
		return
	}
	event := events.NewActivityEvent(userID, typ, models.KindUser, userID, description, svc.now())
	if err := svc.events.Publish(event); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Activity event not published")
	}
}

// refreshActor drops the cached actor and rewrites the caller's session so
// the next request resolves the user again.
func (svc *authService) refreshActor(ctx context.Context, token string, user *models.User) {
	if err := svc.auth.InvalidateActor(ctx, user.ID); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to invalidate cached actor")
	}
	if svc.sessions == nil || token == "" {
		return
	}
	actor := models.Actor{ID: user.ID, Role: user.Role, Email: user.Email}
	if err := svc.sessions.UpdateActor(ctx, token, actor); err != nil && !errors.Is(err, cache.ErrSessionNotFound) {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to update session")
	}
}
