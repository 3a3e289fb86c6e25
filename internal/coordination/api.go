package coordination

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/governorate"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the coordination module
type Handler struct {
	repo    *Repository
	govs    *governorate.Repository
	emitter *audit.Emitter
}

// NewHandler creates a new coordination handler
func NewHandler(repo *Repository, govs *governorate.Repository, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, govs: govs, emitter: emitter}
}

// Routes registers the coordination routes. Approval and rejection are
// supervisor decisions.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission("coordinations", "read")).Get("/", h.ListCoordinations)
	r.With(auth.RequirePermission("coordinations", "create")).Post("/", h.CreateCoordination)

	r.Route("/{coordinationID}", func(r chi.Router) {
		r.With(auth.RequirePermission("coordinations", "read")).Get("/", h.GetCoordination)
		r.With(auth.RequirePermission("coordinations", "update")).Put("/", h.UpdateCoordination)
		r.With(auth.RequirePermission("coordinations", "delete")).Delete("/", h.DeleteCoordination)
		r.With(auth.RequireRoles(auth.RoleSupervisor)).Patch("/approve", h.ApproveCoordination)
		r.With(auth.RequireRoles(auth.RoleSupervisor)).Patch("/reject", h.RejectCoordination)
		r.With(auth.RequirePermission("coordinations", "update")).Patch("/complete", h.CompleteCoordination)
		r.With(auth.RequirePermission("coordinations", "update")).Patch("/cancel", h.CancelCoordination)
	})

	return r
}

func coordIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "coordinationID"))
	if err != nil {
		return "", errors.BadRequest("invalid coordination ID")
	}
	return id, nil
}

// ListCoordinations lists coordination requests with filters
func (h *Handler) ListCoordinations(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		Department: r.URL.Query().Get("department"),
		Page:       1,
		Limit:      20,
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
	if from := r.URL.Query().Get("dateFrom"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid dateFrom, expected YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &t
	}
	if to := r.URL.Query().Get("dateTo"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid dateTo, expected YYYY-MM-DD"))
			return
		}
		filter.DateTo = &t
	}

	coords, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, coords, len(coords), total, filter.Page, filter.Limit)
}

// GetCoordination gets a coordination request by ID
func (h *Handler) GetCoordination(w http.ResponseWriter, r *http.Request) {
	id, err := coordIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// CreateCoordination files a coordination request
func (h *Handler) CreateCoordination(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.govs.FindActive(r.Context(), req.GovernorateID); err != nil {
		respond.Error(w, err)
		return
	}

	now := time.Now().UTC()
	priority := PriorityNormal
	if req.Priority != "" {
		priority = req.Priority
	}

	c := &Coordination{
		ID:                types.NewID(),
		RequestTime:       now,
		RequestDate:       now.Truncate(24 * time.Hour),
		MovementTime:      req.MovementTime,
		GovernorateID:     req.GovernorateID,
		FromLocation:      req.FromLocation,
		ToLocation:        req.ToLocation,
		RouteDetails:      req.RouteDetails,
		Department:        req.Department,
		Forces:            req.Forces,
		Vehicles:          req.Vehicles,
		VehicleTypes:      req.VehicleTypes,
		Weapons:           req.Weapons,
		WeaponTypes:       req.WeaponTypes,
		Purpose:           req.Purpose,
		EstimatedDuration: req.EstimatedDuration,
		Status:            StatusPending,
		Priority:          priority,
		Notes:             req.Notes,
		RequestedBy:       session.ID,
	}
	if c.VehicleTypes == nil {
		c.VehicleTypes = []string{}
	}
	if c.WeaponTypes == nil {
		c.WeaponTypes = []string{}
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionCreate, "coordinations", &c.ID, "coordination requested: "+c.RequestNumber)
	respond.Message(w, http.StatusCreated, "coordination request created", c)
}

// UpdateCoordination edits a still-pending request
func (h *Handler) UpdateCoordination(w http.ResponseWriter, r *http.Request) {
	id, err := coordIDParam(r)
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

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if c.Status != StatusPending {
		respond.Error(w, errors.BadRequest("only pending requests can be edited"))
		return
	}

	if req.MovementTime != nil {
		c.MovementTime = *req.MovementTime
	}
	if req.FromLocation != nil {
		c.FromLocation = *req.FromLocation
	}
	if req.ToLocation != nil {
		c.ToLocation = *req.ToLocation
	}
	if req.RouteDetails != nil {
		c.RouteDetails = *req.RouteDetails
	}
	if req.Department != nil {
		c.Department = *req.Department
	}
	if req.Forces != nil {
		c.Forces = *req.Forces
	}
	if req.Vehicles != nil {
		c.Vehicles = *req.Vehicles
	}
	if req.VehicleTypes != nil {
		c.VehicleTypes = req.VehicleTypes
	}
	if req.Weapons != nil {
		c.Weapons = *req.Weapons
	}
	if req.WeaponTypes != nil {
		c.WeaponTypes = req.WeaponTypes
	}
	if req.Purpose != nil {
		c.Purpose = *req.Purpose
	}
	if req.EstimatedDuration != nil {
		c.EstimatedDuration = *req.EstimatedDuration
	}
	if req.Priority != nil {
		c.Priority = *req.Priority
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "coordinations", &id, "coordination request updated")
	respond.Message(w, http.StatusOK, "coordination request updated", c)
}

// ApproveCoordination approves a pending request
func (h *Handler) ApproveCoordination(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusApproved, audit.ActionApprove, func(c *Coordination, session *auth.SessionUser) {
		now := time.Now().UTC()
		c.ApprovalTime = &now
		c.ApprovedBy = &session.ID
	})
}

// RejectCoordination rejects a pending request with a reason
func (h *Handler) RejectCoordination(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	h.transition(w, r, StatusRejected, audit.ActionReject, func(c *Coordination, session *auth.SessionUser) {
		c.RejectionReason = req.Reason
		c.ApprovedBy = &session.ID
	})
}

// CompleteCoordination closes out an approved movement
func (h *Handler) CompleteCoordination(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, errors.BadRequest("invalid request body"))
			return
		}
	}

	h.transition(w, r, StatusCompleted, audit.ActionUpdate, func(c *Coordination, _ *auth.SessionUser) {
		if req.ReturnTime != nil {
			c.ReturnTime = req.ReturnTime
		} else {
			now := time.Now().UTC()
			c.ReturnTime = &now
		}
	})
}

// CancelCoordination cancels a pending request
func (h *Handler) CancelCoordination(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCancelled, audit.ActionUpdate, nil)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to, auditAction string, apply func(*Coordination, *auth.SessionUser)) {
	session, _ := auth.FromContext(r.Context())

	id, err := coordIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if !CanTransition(c.Status, to) {
		respond.Error(w, errors.BadRequest("cannot change status from "+c.Status+" to "+to))
		return
	}

	c.Status = to
	if apply != nil {
		apply(c, session)
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, auditAction, "coordinations", &id, "coordination request "+to)
	respond.Message(w, http.StatusOK, "coordination request "+to, c)
}

// DeleteCoordination removes a request
func (h *Handler) DeleteCoordination(w http.ResponseWriter, r *http.Request) {
	id, err := coordIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "coordinations", &id, "coordination request deleted")
	respond.Message(w, http.StatusOK, "coordination request deleted", nil)
}
