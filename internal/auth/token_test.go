package auth

import (
	"testing"
	"time"

	"github.com/sitrep-gov/platform/internal/shared/config"
)

func testIssuer() *Issuer {
	return NewIssuer(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func TestIssueAndVerify(t *testing.T) {
	issuer := testIssuer()
	user := activeUser(RoleSupervisor, nil)

	pair, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Issue() returned empty tokens")
	}

	claims, err := issuer.Verify(pair.AccessToken, TokenAccess)
	if err != nil {
		t.Fatalf("Verify(access) unexpected error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %v, want %v", claims.UserID, user.ID)
	}
	if claims.Username != user.Username {
		t.Errorf("claims.Username = %q, want %q", claims.Username, user.Username)
	}
	if claims.Role != RoleSupervisor {
		t.Errorf("claims.Role = %q, want %q", claims.Role, RoleSupervisor)
	}

	if _, err := issuer.Verify(pair.RefreshToken, TokenRefresh); err != nil {
		t.Errorf("Verify(refresh) unexpected error: %v", err)
	}
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	issuer := testIssuer()
	pair, err := issuer.Issue(activeUser(RoleViewer, nil))
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	if _, err := issuer.Verify(pair.RefreshToken, TokenAccess); err == nil {
		t.Error("refresh token accepted as access token")
	}
	if _, err := issuer.Verify(pair.AccessToken, TokenRefresh); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	pair, err := testIssuer().Issue(activeUser(RoleViewer, nil))
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}

	other := NewIssuer(config.AuthConfig{
		JWTSecret:       "different-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	if _, err := other.Verify(pair.AccessToken, TokenAccess); err == nil {
		t.Error("token signed with another secret was accepted")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: time.Hour,
	})

	pair, err := issuer.Issue(activeUser(RoleViewer, nil))
	if err != nil {
		t.Fatalf("Issue() unexpected error: %v", err)
	}
	if _, err := issuer.Verify(pair.AccessToken, TokenAccess); err == nil {
		t.Error("expired token was accepted")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := testIssuer()
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(token, TokenAccess); err == nil {
			t.Errorf("Verify(%q) accepted a malformed token", token)
		}
	}
}
