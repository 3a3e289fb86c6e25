package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

type fakeUserSource struct {
	users map[types.ID]*SessionUser
}

func (f *fakeUserSource) FindSessionUser(_ context.Context, id types.ID) (*SessionUser, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("user", id.String())
	}
	return u, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	issuer := testIssuer()

	active := activeUser(RoleDataEntry, nil)
	disabled := activeUser(RoleSupervisor, nil)
	disabled.IsActive = false
	unknown := activeUser(RoleViewer, nil)

	source := &fakeUserSource{users: map[types.ID]*SessionUser{
		active.ID:   active,
		disabled.ID: disabled,
	}}

	token := func(u *SessionUser) string {
		pair, err := issuer.Issue(u)
		if err != nil {
			t.Fatalf("Issue() unexpected error: %v", err)
		}
		return pair.AccessToken
	}

	refreshToken := func(u *SessionUser) string {
		pair, err := issuer.Issue(u)
		if err != nil {
			t.Fatalf("Issue() unexpected error: %v", err)
		}
		return pair.RefreshToken
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token for active user", "Bearer " + token(active), http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"refresh token not accepted", "Bearer " + refreshToken(active), http.StatusUnauthorized},
		{"disabled user", "Bearer " + token(disabled), http.StatusUnauthorized},
		{"unknown user", "Bearer " + token(unknown), http.StatusUnauthorized},
	}

	mw := Authenticate(issuer, source)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/reports", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthenticateAttachesUser(t *testing.T) {
	issuer := testIssuer()
	user := activeUser(RoleReviewer, map[string][]string{"events": {"read"}})
	source := &fakeUserSource{users: map[types.ID]*SessionUser{user.ID: user}}

	pair, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	var got *SessionUser
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	Authenticate(issuer, source)(handler).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("no session user attached to request context")
	}
	if got.ID != user.ID {
		t.Errorf("attached user ID = %v, want %v", got.ID, user.ID)
	}
}

func TestRequireRoles(t *testing.T) {
	supervisor := activeUser(RoleSupervisor, nil)
	viewer := activeUser(RoleViewer, nil)

	tests := []struct {
		name       string
		user       *SessionUser
		roles      []string
		wantStatus int
	}{
		{"matching role", supervisor, []string{RoleSupervisor}, http.StatusOK},
		{"non-matching role", viewer, []string{RoleSupervisor}, http.StatusForbidden},
		{"no user in context", nil, []string{RoleSupervisor}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/reports/x", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			RequireRoles(tt.roles...)(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	granted := activeUser(RoleDataEntry, map[string][]string{"reports": {"create"}})
	denied := activeUser(RoleDataEntry, map[string][]string{"reports": {"read"}})

	tests := []struct {
		name       string
		user       *SessionUser
		wantStatus int
	}{
		{"granted", granted, http.StatusOK},
		{"denied", denied, http.StatusForbidden},
		{"no user in context", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/reports", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			RequirePermission("reports", "create")(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
