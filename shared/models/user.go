package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role a user acts under
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleLandlord UserRole = "landlord"
	RoleTenant   UserRole = "tenant"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleLandlord, RoleTenant:
		return true
	}
	return false
}

// UserStatus represents the account status of a user
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents an admin, landlord or tenant account
type User struct {
	ID          string     `json:"id" gorm:"type:varchar(64);primaryKey"`
	CognitoID   string     `json:"cognito_id,omitempty" gorm:"type:varchar(255);index"`
	Role        UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	Status      UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	FirstName   string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName    string     `json:"last_name" gorm:"type:varchar(100)"`
	Email       string     `json:"email" gorm:"type:varchar(255);index"`
	Phone       string     `json:"phone" gorm:"type:varchar(50)"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

func (u *User) GetID() string {
	return u.ID
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Validate() error {
	if !u.Role.Valid() {
		return invalid("unknown role %q", u.Role)
	}
	switch u.Status {
	case "", UserStatusActive, UserStatusInactive, UserStatusSuspended:
	default:
		return invalid("unknown user status %q", u.Status)
	}
	return nil
}

// Actor is the authenticated user performing an operation
type Actor struct {
	ID    string   `json:"id"`
	Role  UserRole `json:"role"`
	Email string   `json:"email,omitempty"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsLandlord() bool {
	return a.Role == RoleLandlord
}

func (a Actor) IsTenant() bool {
	return a.Role == RoleTenant
}
