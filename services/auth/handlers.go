package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-rental-management/shared/middleware"
	"github.com/pavitra93/go-rental-management/shared/models"
	"github.com/pavitra93/go-rental-management/shared/store"
	"github.com/pavitra93/go-rental-management/shared/utils"
)

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role,omitempty"` // landlord or tenant, defaults to tenant
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	Username     string `json:"username"`
}

// ProfileRequest lists the fields a user may change on their own profile.
type ProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

type StatusRequest struct {
	Status models.UserStatus `json:"status" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	IDToken      string       `json:"id_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	SessionID    string       `json:"session_id,omitempty"`
	User         *models.User `json:"user"`
}

// handleLogin signs the user in with Cognito and opens a token session.
func handleLogin(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		ctx := c.Request.Context()

		tokens, err := svc.idp.SignIn(ctx, req.Username, req.Password)
		if err != nil {
			authError(c, err, "Failed to sign in")
			return
		}

		userID, err := subjectFromToken(tokens.IDToken)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to extract user ID from token")
			return
		}

		user, err := svc.store.Users.GetByID(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			utils.UnauthorizedResponse(c, "User not registered")
			return
		}
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to load user")
			return
		}
		if user.Status != models.UserStatusActive {
			utils.ForbiddenResponse(c, fmt.Sprintf("User account is %s", user.Status))
			return
		}

		resp := LoginResponse{
			AccessToken:  tokens.AccessToken,
			IDToken:      tokens.IDToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			TokenType:    "Bearer",
			User:         user,
		}

		if svc.sessions != nil {
			actor := models.Actor{ID: user.ID, Role: user.Role, Email: user.Email}
			expiry := svc.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
			session, err := svc.sessions.Create(ctx, tokens.AccessToken, actor, expiry)
			if err != nil {
				utils.InternalServerErrorResponse(c, "Failed to create session")
				return
			}
			resp.SessionID = session.SessionID
		}

		if err := svc.store.TouchLogin(ctx, user.ID); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login time")
		}
		svc.publish(user.ID, models.ActivityLogin, "signed in")

		utils.OKResponse(c, "Login successful", resp)
	}
}

// handleRegister creates the Cognito identity and the user row. A failed
// insert deletes the identity again.
func handleRegister(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		role := models.RoleTenant
		switch models.UserRole(req.Role) {
		case "", models.RoleTenant:
		case models.RoleLandlord:
			role = models.RoleLandlord
		case models.RoleAdmin:
			utils.BadRequestResponse(c, "Admin users must be created through a separate process")
			return
		default:
			utils.BadRequestResponse(c, "Invalid role. Must be 'landlord' or 'tenant'")
			return
		}
		ctx := c.Request.Context()

		sub, err := svc.idp.SignUp(ctx, SignUpInput{Username: req.Username, Password: req.Password, Role: role})
		if err != nil {
			authError(c, err, "Failed to register user")
			return
		}

		user := &models.User{
			ID:        sub,
			CognitoID: sub,
			Role:      role,
			Status:    models.UserStatusActive,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Email:     req.Username,
			Phone:     req.Phone,
		}
		if err := svc.store.Users.Create(ctx, user); err != nil {
			if delErr := svc.idp.DeleteUser(ctx, req.Username); delErr != nil {
				logrus.WithFields(logrus.Fields{
					"username": req.Username,
					"error":    delErr,
				}).Warn("Failed to compensate orphaned Cognito user")
			}
			utils.DomainErrorResponse(c, err, "Failed to complete registration")
			return
		}

		svc.publish(user.ID, models.ActivityCreated, fmt.Sprintf("registered as %s", role))
		utils.CreatedResponse(c, "User registered successfully. Please confirm email before login.", user)
	}
}

// handleRefreshToken handles token refresh
func handleRefreshToken(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		tokens, err := svc.idp.Refresh(c.Request.Context(), req.RefreshToken, req.Username)
		if err != nil {
			authError(c, err, "Failed to refresh token")
			return
		}

		utils.OKResponse(c, "Token refreshed successfully", gin.H{
			"access_token": tokens.AccessToken,
			"id_token":     tokens.IDToken,
			"expires_in":   tokens.ExpiresIn,
			"token_type":   "Bearer",
		})
	}
}

func handleVerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFromContext(c)
		utils.OKResponse(c, "Token is valid", actor)
	}
}

// handleLogout revokes the caller's token session.
func handleLogout(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc.sessions == nil {
			utils.OKResponse(c, "Logout successful", nil)
			return
		}
		token := c.GetString(middleware.ContextToken)
		if err := svc.sessions.Revoke(c.Request.Context(), token); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to revoke session")
			return
		}
		utils.OKResponse(c, "Logout successful", gin.H{"message": "Session revoked successfully"})
	}
}

func handleGetProfile(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.ActorFromContext(c)
		user, err := svc.store.Users.GetByID(c.Request.Context(), actor.ID)
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to load profile")
			return
		}
		utils.OKResponse(c, "Profile retrieved successfully", user)
	}
}

// handleUpdateProfile applies the caller's own profile changes and makes
// the next request resolve the actor afresh.
func handleUpdateProfile(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		actor, _ := middleware.ActorFromContext(c)
		ctx := c.Request.Context()

		user, err := svc.store.UpdateUser(ctx, actor.ID, store.UserPatch{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		})
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to update profile")
			return
		}

		svc.refreshActor(ctx, c.GetString(middleware.ContextToken), user)
		svc.publish(user.ID, models.ActivityProfileUpdate, "updated profile")
		utils.OKResponse(c, "Profile updated successfully", user)
	}
}

// handleGetUsers lists every user (admin only)
func handleGetUsers(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.store.Users.GetAll(c.Request.Context())
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch users")
			return
		}
		if role := models.UserRole(c.Query("role")); role != "" {
			filtered := users[:0]
			for _, u := range users {
				if u.Role == role {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
		utils.OKResponse(c, "Users retrieved successfully", users)
	}
}

func handleGetUser(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.store.Users.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch user")
			return
		}
		utils.OKResponse(c, "User retrieved successfully", user)
	}
}

// handleSetUserStatus activates or suspends an account (admin only). The
// cached actor is dropped so a suspension applies on the next request.
func handleSetUserStatus(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		user, err := svc.store.UpdateUser(ctx, id, store.UserPatch{Status: &req.Status})
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to update user")
			return
		}
		svc.refreshActor(ctx, "", user)

		actor, _ := middleware.ActorFromContext(c)
		svc.publish(actor.ID, models.ActivityStatusChanged, fmt.Sprintf("set user %s to %s", id, user.Status))
		utils.OKResponse(c, "User updated successfully", user)
	}
}

// handleConfirmEmail confirms a pending sign-up in Cognito (admin only)
func handleConfirmEmail(svc *authService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := svc.store.Users.GetByID(ctx, c.Param("id"))
		if err != nil {
			utils.DomainErrorResponse(c, err, "Failed to fetch user")
			return
		}

		if err := svc.idp.ConfirmSignUp(ctx, user.Email); err != nil {
			authError(c, err, "Failed to confirm email")
			return
		}

		utils.OKResponse(c, "Email confirmed successfully", gin.H{
			"username": user.Email,
			"message":  "User can now login",
		})
	}
}
