// Package user manages identities, their roles and per-module permission
// grants, and the authentication endpoints.
package user

import (
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Modules that can carry permission grants
var KnownModules = []string{
	"reports", "events", "governorates", "users",
	"coordinations", "meetings", "memos", "logs",
}

// Actions that can be granted on a module
var KnownActions = []string{"create", "read", "update", "delete", "approve"}

// User is an account in the system. Accounts are never hard-deleted,
// only disabled.
type User struct {
	ID            types.ID     `json:"id"`
	Username      string       `json:"username"`
	PasswordHash  string       `json:"-"`
	FullName      string       `json:"fullName"`
	Email         string       `json:"email,omitempty"`
	PhoneNumber   string       `json:"phoneNumber,omitempty"`
	Role          string       `json:"role"`
	GovernorateID *types.ID    `json:"governorateId,omitempty"`
	Department    string       `json:"department,omitempty"`
	IsActive      bool         `json:"isActive"`
	LastLogin     *time.Time   `json:"lastLogin,omitempty"`
	Permissions   []Permission `json:"permissions"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Permission grants a set of actions on one module.
type Permission struct {
	Module  string   `json:"module"`
	Actions []string `json:"actions"`
}

// LoginRequest authenticates by username and password.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// RegisterRequest creates a new account. Admin-only.
type RegisterRequest struct {
	Username      string       `json:"username" validate:"required,min=3,max=50"`
	Password      string       `json:"password" validate:"required,min=8"`
	FullName      string       `json:"fullName" validate:"required"`
	Email         string       `json:"email" validate:"omitempty,email"`
	PhoneNumber   string       `json:"phoneNumber"`
	Role          string       `json:"role" validate:"required,oneof=admin supervisor data_entry reviewer viewer"`
	GovernorateID *types.ID    `json:"governorateId"`
	Department    string       `json:"department"`
	Permissions   []Permission `json:"permissions"`
}

// UpdateRequest updates account fields. Absent fields are left unchanged.
type UpdateRequest struct {
	FullName      *string   `json:"fullName"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	PhoneNumber   *string   `json:"phoneNumber"`
	Role          *string   `json:"role" validate:"omitempty,oneof=admin supervisor data_entry reviewer viewer"`
	GovernorateID *types.ID `json:"governorateId"`
	Department    *string   `json:"department"`
	IsActive      *bool     `json:"isActive"`
}

// ChangePasswordRequest changes the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ResetPasswordRequest sets a new password for another account. Admin-only.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UpdatePermissionsRequest replaces an account's permission grants.
type UpdatePermissionsRequest struct {
	Permissions []Permission `json:"permissions" validate:"required"`
}

// ListFilter narrows a user listing.
type ListFilter struct {
	Role          string
	GovernorateID *types.ID
	IsActive      *bool
	Search        string
	Page          int
	Limit         int
}
