package governorate

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the governorate module
type Handler struct {
	repo    *Repository
	emitter *audit.Emitter
}

// NewHandler creates a new governorate handler
func NewHandler(repo *Repository, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, emitter: emitter}
}

// Routes registers the governorate routes. Reads are public; every
// mutation requires an authenticated admin session.
func (h *Handler) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListGovernorates)
	r.Get("/{governorateID}", h.GetGovernorate)
	r.Get("/{governorateID}/regions", h.ListRegions)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(auth.RequireRoles(auth.RoleAdmin))

		r.Post("/", h.CreateGovernorate)
		r.Put("/{governorateID}", h.UpdateGovernorate)
		r.Delete("/{governorateID}", h.DeleteGovernorate)
		r.Post("/{governorateID}/regions", h.AddRegion)
		r.Delete("/{governorateID}/regions", h.RemoveRegion)
	})

	return r
}

func idParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "governorateID"))
	if err != nil {
		return "", errors.BadRequest("invalid governorate ID")
	}
	return id, nil
}

// ListGovernorates lists governorates
func (h *Handler) ListGovernorates(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search:          r.URL.Query().Get("search"),
		IncludeInactive: r.URL.Query().Get("includeInactive") == "true",
	}

	govs, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, govs, len(govs))
}

// GetGovernorate gets a governorate by ID
func (h *Handler) GetGovernorate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	g, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

// ListRegions lists a governorate's regions
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	g, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, g.Regions, len(g.Regions))
}

// CreateGovernorate creates a governorate
func (h *Handler) CreateGovernorate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	g := &Governorate{
		ID:       types.NewID(),
		Name:     req.Name,
		Code:     req.Code,
		Regions:  req.Regions,
		Contact:  req.Contact,
		IsActive: true,
	}
	if g.Regions == nil {
		g.Regions = []string{}
	}

	if err := h.repo.Create(r.Context(), g); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionCreate, "governorates", &g.ID, "governorate created: "+g.Code)
	respond.Message(w, http.StatusCreated, "governorate created", g)
}

// UpdateGovernorate updates governorate fields
func (h *Handler) UpdateGovernorate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
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

	g, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Code != nil {
		g.Code = *req.Code
	}
	if req.Contact != nil {
		g.Contact = *req.Contact
	}

	if err := h.repo.Update(r.Context(), g); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "governorates", &id, "governorate updated")
	respond.Message(w, http.StatusOK, "governorate updated", g)
}

// DeleteGovernorate soft-deletes a governorate
func (h *Handler) DeleteGovernorate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.SoftDelete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "governorates", &id, "governorate deactivated")
	respond.Message(w, http.StatusOK, "governorate deactivated", nil)
}

// AddRegion appends a region to a governorate
func (h *Handler) AddRegion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.AddRegion(r.Context(), id, req.Region); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "governorates", &id, "region added: "+req.Region)

	g, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "region added", g)
}

// RemoveRegion removes a region from a governorate
func (h *Handler) RemoveRegion(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.RemoveRegion(r.Context(), id, req.Region); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "governorates", &id, "region removed: "+req.Region)

	g, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "region removed", g)
}
