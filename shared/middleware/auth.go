// Package middleware authenticates requests and puts the acting user into
// the gin context.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/cache"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
	ContextToken  = "access_token"
	contextActor  = "actor"
)

var (
	// ErrUnknownUser is returned when a verified token names no usable user
	ErrUnknownUser = errors.New("user not registered")
	// ErrInactiveUser is returned for inactive or suspended accounts
	ErrInactiveUser = errors.New("user account is not active")
)

// UserLookup finds the stored user behind a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware handles JWT token validation
type AuthMiddleware struct {
	verifier       Verifier
	users          UserLookup
	actors         *cache.ActorCache
	sessions       *cache.SessionStore
	circuitBreaker *utils.CircuitBreaker
}

type Option func(*AuthMiddleware)

// WithActorCache caches actors resolved from the database.
func WithActorCache(actors *cache.ActorCache) Option {
	return func(am *AuthMiddleware) { am.actors = actors }
}

// WithSessions requires every token to have a live session.
func WithSessions(sessions *cache.SessionStore) Option {
	return func(am *AuthMiddleware) { am.sessions = sessions }
}

func NewAuthMiddleware(verifier Verifier, users UserLookup, opts ...Option) *AuthMiddleware {
	am := &AuthMiddleware{
		verifier:       verifier,
		users:          users,
		circuitBreaker: utils.NewCircuitBreaker("auth-user-lookup", 5, 30*time.Second).IgnoreErrors(store.ErrNotFound),
	}
	for _, opt := range opts {
		opt(am)
	}
	return am
}

// RequireAuth middleware validates JWT tokens and resolves the actor
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := am.verifier.Verify(tokenString)
		if err != nil {
			logrus.WithError(err).Debug("Rejected bearer token")
			utils.UnauthorizedResponse(c, "Invalid token")
			c.Abort()
			return
		}

		if am.sessions != nil {
			if _, err := am.sessions.Touch(c.Request.Context(), tokenString); err != nil {
				if errors.Is(err, cache.ErrSessionNotFound) || errors.Is(err, cache.ErrSessionExpired) {
					utils.UnauthorizedResponse(c, "Session expired, please log in again")
					c.Abort()
					return
				}
				// redis trouble must not lock everyone out
				logrus.WithError(err).Warn("Session check skipped")
			}
		}

		actor, err := am.resolveActor(c.Request.Context(), claims)
		switch {
		case errors.Is(err, ErrUnknownUser), errors.Is(err, store.ErrNotFound):
			utils.UnauthorizedResponse(c, "User not found")
			c.Abort()
			return
		case errors.Is(err, ErrInactiveUser):
			utils.ForbiddenResponse(c, err.Error())
			c.Abort()
			return
		case err != nil:
			utils.DomainErrorResponse(c, err, "Failed to resolve user")
			c.Abort()
			return
		}

		SetActor(c, actor)
		c.Set(ContextToken, tokenString)
		c.Next()
	}
}

// RequireValidToken checks only the token signature and sets the subject.
// Used at the edge, where the users table is not reachable.
func RequireValidToken(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}
		claims, err := verifier.Verify(tokenString)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.Sub)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.CustomRole)
		c.Next()
	}
}

// resolveActor looks the subject up in the actor cache, then the users
// table. The role claim is never trusted on its own: only active, registered
// users are admitted, and only active users are cached.
func (am *AuthMiddleware) resolveActor(ctx context.Context, claims *CognitoClaims) (models.Actor, error) {
	if am.actors != nil {
		if cached, err := am.actors.Get(ctx, claims.Sub); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			logrus.WithError(err).Warn("Actor cache read failed")
		}
	}

	if am.users == nil {
		return models.Actor{}, fmt.Errorf("%w: no user store configured", ErrUnknownUser)
	}

	var user *models.User
	err := am.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		user, err = am.users.GetByID(ctx, claims.Sub)
		return err
	})
	if err != nil {
		return models.Actor{}, err
	}
	if user.Status != models.UserStatusActive {
		return models.Actor{}, fmt.Errorf("%w: account is %s", ErrInactiveUser, user.Status)
	}

	if claims.CustomRole != "" && models.UserRole(claims.CustomRole) != user.Role {
		logrus.WithFields(logrus.Fields{
			"user_id":    user.ID,
			"claim_role": claims.CustomRole,
			"role":       user.Role,
		}).Warn("Token role claim does not match stored role")
	}

	actor := models.Actor{ID: user.ID, Role: user.Role, Email: user.Email}
	if am.actors != nil {
		if err := am.actors.Put(ctx, actor); err != nil {
			logrus.WithError(err).Warn("Actor cache write failed")
		}
	}
	return actor, nil
}

// InvalidateActor drops the cached actor so the next request resolves the
// user again.
func (am *AuthMiddleware) InvalidateActor(ctx context.Context, userID string) error {
	if am.actors == nil {
		return nil
	}
	return am.actors.Invalidate(ctx, userID)
}

// RequireRole middleware allows only the given roles
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "User role not found in context")
			c.Abort()
			return
		}

		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "Insufficient permissions")
		c.Abort()
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return authHeader
}

// SetActor stores the actor in the gin context.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(contextActor, actor)
	c.Set(ContextUserID, actor.ID)
	c.Set(ContextEmail, actor.Email)
	c.Set(ContextRole, string(actor.Role))
}

// ActorFromContext returns the actor set by RequireAuth.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(contextActor)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// GetUserFromContext extracts user information from the Gin context
func GetUserFromContext(c *gin.Context) (userID, email, role string) {
	return c.GetString(ContextUserID), c.GetString(ContextEmail), c.GetString(ContextRole)
}
