package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Handler provides HTTP handlers for reading the system log
type Handler struct {
	repo *Repository
}

// NewHandler creates a new audit handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the system log routes. Reading logs is admin-only.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireRoles(auth.RoleAdmin))
	r.Get("/", h.ListLogs)
	return r
}

// ListLogs lists system log entries with filters
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Module: r.URL.Query().Get("module"),
		Action: r.URL.Query().Get("action"),
		Page:   1,
		Limit:  50,
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		filter.Limit = l
	}

	if userID := r.URL.Query().Get("userId"); userID != "" {
		id, err := types.ParseID(userID)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid user ID"))
			return
		}
		filter.UserID = &id
	}

	if from := r.URL.Query().Get("startDate"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid startDate, expected YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if to := r.URL.Query().Get("endDate"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid endDate, expected YYYY-MM-DD"))
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	entries, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, entries, len(entries), total, filter.Page, filter.Limit)
}
