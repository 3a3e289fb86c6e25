// Package auth issues and validates session tokens and gates requests on
// roles and per-module permission grants.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleDataEntry  = "data_entry"
	RoleReviewer   = "reviewer"
	RoleViewer     = "viewer"
)

// ValidRoles lists every assignable role.
var ValidRoles = []string{RoleAdmin, RoleSupervisor, RoleDataEntry, RoleReviewer, RoleViewer}

// IsValidRole reports whether role is an assignable role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Token types carried in claims
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims are the JWT claims carried by both access and refresh tokens.
type Claims struct {
	UserID    types.ID `json:"id"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// SessionUser is the authenticated identity attached to a request. It is
// loaded fresh from storage on every request so disabling a user or
// changing their grants takes effect immediately, not at token expiry.
type SessionUser struct {
	ID            types.ID            `json:"id"`
	Username      string              `json:"username"`
	FullName      string              `json:"fullName"`
	Role          string              `json:"role"`
	GovernorateID *types.ID           `json:"governorateId,omitempty"`
	IsActive      bool                `json:"isActive"`
	Permissions   map[string][]string `json:"permissions"`
}

// UserSource loads session users during authentication.
type UserSource interface {
	FindSessionUser(ctx context.Context, id types.ID) (*SessionUser, error)
}

type contextKey struct{}

// WithUser attaches the session user to a context.
func WithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the session user attached to the context, if any.
func FromContext(ctx context.Context) (*SessionUser, bool) {
	u, ok := ctx.Value(contextKey{}).(*SessionUser)
	return u, ok
}
