package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides the admin user-management endpoints
type Handler struct {
	repo    *Repository
	logs    *audit.Repository
	emitter *audit.Emitter
}

// NewHandler creates a new user handler
func NewHandler(repo *Repository, logs *audit.Repository, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, logs: logs, emitter: emitter}
}

// Routes registers the user management routes. The whole collection is
// admin-only.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRoles(auth.RoleAdmin))

	r.Get("/", h.ListUsers)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", h.GetUser)
		r.Put("/", h.UpdateUser)
		r.Delete("/", h.DeactivateUser)
		r.Put("/reset-password", h.ResetPassword)
		r.Put("/permissions", h.UpdatePermissions)
		r.Get("/logs", h.UserLogs)
	})

	return r
}

func userIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		return "", errors.BadRequest("invalid user ID")
	}
	return id, nil
}

// ListUsers lists users with filters
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Page:   1,
		Limit:  20,
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}
	if g := r.URL.Query().Get("governorateId"); g != "" {
		id, err := types.ParseID(g)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid governorate ID"))
			return
		}
		filter.GovernorateID = &id
	}
	if a := r.URL.Query().Get("isActive"); a != "" {
		active, err := strconv.ParseBool(a)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid isActive, expected true or false"))
			return
		}
		filter.IsActive = &active
	}

	users, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, users, len(users), total, filter.Page, filter.Limit)
}

// GetUser gets a user by ID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	u, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// UpdateUser updates account fields
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	u, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.GovernorateID != nil {
		u.GovernorateID = req.GovernorateID
	}
	if req.Department != nil {
		u.Department = *req.Department
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := h.repo.Update(r.Context(), u); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "users", &id, "user updated")
	respond.Message(w, http.StatusOK, "user updated", u)
}

// DeactivateUser soft-disables a user
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Deactivate(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "users", &id, "user deactivated")
	respond.Message(w, http.StatusOK, "user deactivated", nil)
}

// ResetPassword sets a new password for another account
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, errors.Wrap(err, "failed to hash password"))
		return
	}
	if err := h.repo.UpdatePasswordHash(r.Context(), id, string(hash)); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionPasswordReset, "users", &id, "password reset by admin")
	respond.Message(w, http.StatusOK, "password reset", nil)
}

// UpdatePermissions replaces a user's permission grants
func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req UpdatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validatePermissions(req.Permissions); err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.repo.SetPermissions(r.Context(), id, req.Permissions); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "users", &id, "permissions updated")

	u, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "permissions updated", u)
}

// UserLogs lists the system log entries for one user
func (h *Handler) UserLogs(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	filter := audit.ListFilter{UserID: &id, Page: 1, Limit: 50}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}

	entries, total, err := h.logs.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, entries, len(entries), total, filter.Page, filter.Limit)
}
