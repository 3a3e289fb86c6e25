package auth

import (
	"testing"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

func activeUser(role string, perms map[string][]string) *SessionUser {
	return &SessionUser{
		ID:          types.NewID(),
		Username:    "tester",
		Role:        role,
		IsActive:    true,
		Permissions: perms,
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		user   *SessionUser
		module string
		action string
		want   bool
	}{
		{
			name:   "admin bypasses everything",
			user:   activeUser(RoleAdmin, nil),
			module: "reports",
			action: "delete",
			want:   true,
		},
		{
			name:   "grant with matching action",
			user:   activeUser(RoleDataEntry, map[string][]string{"reports": {"read", "create"}}),
			module: "reports",
			action: "create",
			want:   true,
		},
		{
			name:   "grant without matching action",
			user:   activeUser(RoleDataEntry, map[string][]string{"reports": {"read"}}),
			module: "reports",
			action: "delete",
			want:   false,
		},
		{
			name:   "no grant for module",
			user:   activeUser(RoleReviewer, map[string][]string{"events": {"read"}}),
			module: "reports",
			action: "read",
			want:   false,
		},
		{
			name: "inactive admin is denied",
			user: &SessionUser{
				ID:       types.NewID(),
				Role:     RoleAdmin,
				IsActive: false,
			},
			module: "reports",
			action: "read",
			want:   false,
		},
		{
			name:   "nil user is denied",
			user:   nil,
			module: "reports",
			action: "read",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.user, tt.module, tt.action); got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllowRoles(t *testing.T) {
	tests := []struct {
		name  string
		user  *SessionUser
		roles []string
		want  bool
	}{
		{"empty role list allows anyone active", activeUser(RoleViewer, nil), nil, true},
		{"admin always passes", activeUser(RoleAdmin, nil), []string{RoleSupervisor}, true},
		{"matching role passes", activeUser(RoleSupervisor, nil), []string{RoleSupervisor, RoleReviewer}, true},
		{"non-matching role fails", activeUser(RoleViewer, nil), []string{RoleSupervisor}, false},
		{"inactive user always fails", &SessionUser{Role: RoleSupervisor, IsActive: false}, nil, false},
		{"nil user always fails", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowRoles(tt.user, tt.roles...); got != tt.want {
				t.Errorf("AllowRoles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range ValidRoles {
		if !IsValidRole(role) {
			t.Errorf("IsValidRole(%q) = false", role)
		}
	}
	if IsValidRole("superuser") {
		t.Error("IsValidRole(superuser) = true")
	}
	if IsValidRole("") {
		t.Error("IsValidRole(\"\") = true")
	}
}
