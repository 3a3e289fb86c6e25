package event

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/governorate"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the event module
type Handler struct {
	repo        *Repository
	govs        *governorate.Repository
	attachments *attachment.Service
	emitter     *audit.Emitter
}

// NewHandler creates a new event handler
func NewHandler(repo *Repository, govs *governorate.Repository, attachments *attachment.Service, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, govs: govs, attachments: attachments, emitter: emitter}
}

// Routes registers the event routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission("events", "read")).Get("/", h.ListEvents)
	r.With(auth.RequirePermission("events", "create")).Post("/", h.CreateEvent)
	r.With(auth.RequirePermission("events", "read")).Get("/by-governorate/{governorateID}", h.ListByGovernorate)

	r.Route("/{eventID}", func(r chi.Router) {
		r.With(auth.RequirePermission("events", "read")).Get("/", h.GetEvent)
		r.With(auth.RequirePermission("events", "update")).Put("/", h.UpdateEvent)
		r.With(auth.RequirePermission("events", "delete")).Delete("/", h.DeleteEvent)

		r.Route("/attachments", func(r chi.Router) {
			r.With(auth.RequirePermission("events", "read")).Get("/", h.ListAttachments)
			r.With(auth.RequirePermission("events", "update")).Post("/", h.UploadAttachment)
			r.With(auth.RequirePermission("events", "update")).Delete("/{attachmentID}", h.DeleteAttachment)
		})
	})

	return r
}

func eventIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "eventID"))
	if err != nil {
		return "", errors.BadRequest("invalid event ID")
	}
	return id, nil
}

func pageParams(r *http.Request) (page, limit int) {
	page, limit = 1, 20
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	return page, limit
}

func (h *Handler) listFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{
		EventType: r.URL.Query().Get("eventType"),
		Severity:  r.URL.Query().Get("severity"),
	}
	filter.Page, filter.Limit = pageParams(r)

	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := NormalizeStatus(s)
		if !ok {
			return filter, errors.BadRequest("invalid status filter")
		}
		filter.Status = status
	}
	if rep := r.URL.Query().Get("reportId"); rep != "" {
		id, err := types.ParseID(rep)
		if err != nil {
			return filter, errors.BadRequest("invalid report ID")
		}
		filter.ReportID = &id
	}
	if g := r.URL.Query().Get("governorateId"); g != "" {
		id, err := types.ParseID(g)
		if err != nil {
			return filter, errors.BadRequest("invalid governorate ID")
		}
		filter.GovernorateID = &id
	}
	if from := r.URL.Query().Get("dateFrom"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, errors.BadRequest("invalid dateFrom, expected YYYY-MM-DD")
		}
		filter.DateFrom = &t
	}
	if to := r.URL.Query().Get("dateTo"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, errors.BadRequest("invalid dateTo, expected YYYY-MM-DD")
		}
		filter.DateTo = &t
	}

	return filter, nil
}

// ListEvents lists events with filters
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := h.listFilter(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	events, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, events, len(events), total, filter.Page, filter.Limit)
}

// ListByGovernorate lists the events of one governorate
func (h *Handler) ListByGovernorate(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "governorateID"))
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid governorate ID"))
		return
	}

	if _, err := h.govs.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	filter, err := h.listFilter(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	filter.GovernorateID = &id

	events, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, events, len(events), total, filter.Page, filter.Limit)
}

// GetEvent gets an event with its attachments
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	ev, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	ev.Attachments, err = h.attachments.List(r.Context(), attachment.OwnerEvent, ev.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, ev)
}

// CreateEvent creates an event under a report. The region must belong to
// the governorate, and the parent report must exist; only then is the
// event persisted and the report's event count updated.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
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

	gov, err := h.govs.FindActive(r.Context(), req.GovernorateID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if !gov.HasRegion(req.Region) {
		respond.Error(w, errors.Validation("validation failed", map[string]string{
			"region": "region does not belong to governorate " + gov.Name,
		}))
		return
	}

	status := StatusOngoing
	if req.Status != "" {
		normalized, ok := NormalizeStatus(req.Status)
		if !ok {
			respond.Error(w, errors.Validation("validation failed", map[string]string{
				"status": "must be one of: ongoing, finished, monitoring",
			}))
			return
		}
		status = normalized
	}

	severity := SeverityMedium
	if req.Severity != "" {
		severity = req.Severity
	}

	ev := &Event{
		ID:              types.NewID(),
		ReportID:        req.ReportID,
		GovernorateID:   req.GovernorateID,
		Region:          req.Region,
		EventTime:       req.EventTime,
		EventDate:       req.EventTime.UTC().Truncate(24 * time.Hour),
		EventType:       req.EventType,
		Severity:        severity,
		Description:     req.Description,
		InvolvedParties: req.InvolvedParties,
		Intervention:    req.Intervention,
		Response:        req.Response,
		Results:         req.Results,
		Casualties:      req.Casualties,
		Status:          status,
		Location:        req.Location,
		CreatedBy:       session.ID,
	}
	if ev.InvolvedParties == nil {
		ev.InvolvedParties = []string{}
	}

	if err := h.repo.Create(r.Context(), ev); err != nil {
		respond.Error(w, err)
		return
	}

	metrics.RecordEventCreated(ev.EventType, ev.Severity)
	h.emitter.Record(r, audit.ActionCreate, "events", &ev.ID, "event created: "+ev.EventNumber)
	respond.Message(w, http.StatusCreated, "event created", ev)
}

// UpdateEvent updates event fields, re-checking the region invariant
// against whichever governorate is effective after the update
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
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

	ev, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if req.GovernorateID != nil {
		ev.GovernorateID = *req.GovernorateID
	}
	if req.Region != nil {
		ev.Region = *req.Region
	}
	if req.GovernorateID != nil || req.Region != nil {
		gov, err := h.govs.FindActive(r.Context(), ev.GovernorateID)
		if err != nil {
			respond.Error(w, err)
			return
		}
		if !gov.HasRegion(ev.Region) {
			respond.Error(w, errors.Validation("validation failed", map[string]string{
				"region": "region does not belong to governorate " + gov.Name,
			}))
			return
		}
	}

	if req.EventTime != nil {
		ev.EventTime = *req.EventTime
		ev.EventDate = req.EventTime.UTC().Truncate(24 * time.Hour)
	}
	if req.EventType != nil {
		ev.EventType = *req.EventType
	}
	if req.Severity != nil {
		ev.Severity = *req.Severity
	}
	if req.Description != nil {
		ev.Description = *req.Description
	}
	if req.InvolvedParties != nil {
		ev.InvolvedParties = req.InvolvedParties
	}
	if req.Intervention != nil {
		ev.Intervention = *req.Intervention
	}
	if req.Response != nil {
		ev.Response = *req.Response
	}
	if req.Results != nil {
		ev.Results = *req.Results
	}
	if req.Casualties != nil {
		if req.Casualties.Killed < 0 || req.Casualties.Injured < 0 || req.Casualties.Arrested < 0 {
			respond.Error(w, errors.Validation("validation failed", map[string]string{
				"casualties": "counts must be non-negative",
			}))
			return
		}
		ev.Casualties = *req.Casualties
	}
	if req.Status != nil {
		status, ok := NormalizeStatus(*req.Status)
		if !ok {
			respond.Error(w, errors.Validation("validation failed", map[string]string{
				"status": "must be one of: ongoing, finished, monitoring",
			}))
			return
		}
		ev.Status = status
	}
	if req.Location != nil {
		ev.Location = req.Location
	}

	if err := h.repo.Update(r.Context(), ev); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "events", &id, "event updated")
	respond.Message(w, http.StatusOK, "event updated", ev)
}

// DeleteEvent removes an event and its attachments
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerEvent, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	for _, a := range attachments {
		if err := h.attachments.Remove(r.Context(), attachment.OwnerEvent, id, a.ID); err != nil {
			respond.Error(w, err)
			return
		}
	}

	h.emitter.Record(r, audit.ActionDelete, "events", &id, "event deleted")
	respond.Message(w, http.StatusOK, "event deleted", nil)
}

// ListAttachments lists an event's attachments
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerEvent, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, attachments, len(attachments))
}

// UploadAttachment stores a file against an event
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	a, err := h.attachments.Upload(r, attachment.OwnerEvent, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpload, "events", &id, "attachment uploaded: "+a.Filename)
	respond.Message(w, http.StatusCreated, "attachment uploaded", a)
}

// DeleteAttachment removes one of an event's attachments
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	attachmentID, err := types.ParseID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid attachment ID"))
		return
	}

	if err := h.attachments.Remove(r.Context(), attachment.OwnerEvent, id, attachmentID); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "events", &id, "attachment removed")
	respond.Message(w, http.StatusOK, "attachment removed", nil)
}
