package auth

import (
	"github.com/sitrep-gov/platform/internal/shared/metrics"
)

// Authorize decides whether a user may perform an action on a module.
// Admins pass every check. Inactive users fail every check. Everyone else
// needs a permission grant for the module whose action set contains the
// action.
func Authorize(u *SessionUser, module, action string) bool {
	allowed := authorize(u, module, action)
	metrics.RecordAuthorizationDecision(module, action, allowed)
	return allowed
}

func authorize(u *SessionUser, module, action string) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.Role == RoleAdmin {
		return true
	}

	actions, ok := u.Permissions[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// AllowRoles decides role-only gates. An empty role list allows any
// authenticated active user. Admins always pass.
func AllowRoles(u *SessionUser, roles ...string) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if len(roles) == 0 || u.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
