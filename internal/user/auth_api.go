package user

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// AuthHandler provides the authentication endpoints
type AuthHandler struct {
	repo    *Repository
	issuer  *auth.Issuer
	emitter *audit.Emitter
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(repo *Repository, issuer *auth.Issuer, emitter *audit.Emitter) *AuthHandler {
	return &AuthHandler{repo: repo, issuer: issuer, emitter: emitter}
}

// Routes registers the auth routes. Login and refresh are public, the
// rest require the session middleware passed in by the caller.
func (h *AuthHandler) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/refresh-token", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", h.Me)
		r.Post("/change-password", h.ChangePassword)
		r.Post("/logout", h.Logout)
		r.With(auth.RequireRoles(auth.RoleAdmin)).Post("/register", h.Register)
	})

	return r
}

// Login authenticates by username/password and issues a token pair
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	u, err := h.repo.FindByUsername(r.Context(), req.Username)
	if err != nil {
		// Same response for unknown user and wrong password.
		respond.Error(w, errors.Unauthorized("invalid credentials"))
		return
	}
	if !u.IsActive {
		respond.Error(w, errors.Unauthorized("account is disabled"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		respond.Error(w, errors.Unauthorized("invalid credentials"))
		return
	}

	session, err := h.repo.FindSessionUser(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	pair, err := h.issuer.Issue(session)
	if err != nil {
		respond.Error(w, err)
		return
	}

	now := time.Now().UTC()
	if err := h.repo.RecordLogin(r.Context(), u.ID, now); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionLogin, "auth", &u.ID, "user logged in")

	respond.Message(w, http.StatusOK, "login successful", map[string]any{
		"user":         session,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Refresh exchanges a valid refresh token for a new token pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	claims, err := h.issuer.Verify(req.RefreshToken, auth.TokenRefresh)
	if err != nil {
		respond.Error(w, err)
		return
	}

	session, err := h.repo.FindSessionUser(r.Context(), claims.UserID)
	if err != nil {
		respond.Error(w, errors.Unauthorized("invalid token"))
		return
	}
	if !session.IsActive {
		respond.Error(w, errors.Unauthorized("account is disabled"))
		return
	}

	pair, err := h.issuer.Issue(session)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, pair)
}

// Register creates a new account. Admin-only.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}
	if err := validatePermissions(req.Permissions); err != nil {
		respond.Error(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, errors.Wrap(err, "failed to hash password"))
		return
	}

	u := &User{
		ID:            types.NewID(),
		Username:      req.Username,
		PasswordHash:  string(hash),
		FullName:      req.FullName,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		Role:          req.Role,
		GovernorateID: req.GovernorateID,
		Department:    req.Department,
		IsActive:      true,
		Permissions:   req.Permissions,
	}

	if err := h.repo.Create(r.Context(), u); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionRegister, "users", &u.ID, "user registered: "+u.Username)

	created, err := h.repo.FindByID(r.Context(), u.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusCreated, "user registered", created)
}

// Me returns the calling user's profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	u, err := h.repo.FindByID(r.Context(), session.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ChangePassword changes the calling user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	u, err := h.repo.FindByID(r.Context(), session.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		respond.Error(w, errors.Unauthorized("current password is incorrect"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, errors.Wrap(err, "failed to hash password"))
		return
	}
	if err := h.repo.UpdatePasswordHash(r.Context(), u.ID, string(hash)); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionPasswordReset, "auth", &u.ID, "password changed")
	respond.Message(w, http.StatusOK, "password changed", nil)
}

// Logout records the logout. Tokens are stateless, so the entry is the
// only server-side effect.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.FromContext(r.Context())
	if !ok {
		respond.Error(w, errors.Unauthorized("authentication required"))
		return
	}

	h.emitter.Record(r, audit.ActionLogout, "auth", &session.ID, "user logged out")
	respond.Message(w, http.StatusOK, "logged out", nil)
}

func validatePermissions(perms []Permission) error {
	details := map[string]string{}
	for _, p := range perms {
		if !contains(KnownModules, p.Module) {
			details[p.Module] = "unknown module"
			continue
		}
		for _, a := range p.Actions {
			if !contains(KnownActions, a) {
				details[p.Module] = "unknown action: " + a
			}
		}
	}
	if len(details) > 0 {
		return errors.Validation("invalid permissions", details)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
