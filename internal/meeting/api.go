package meeting

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the meeting module
type Handler struct {
	repo        *Repository
	attachments *attachment.Service
	emitter     *audit.Emitter
}

// NewHandler creates a new meeting handler
func NewHandler(repo *Repository, attachments *attachment.Service, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, attachments: attachments, emitter: emitter}
}

// Routes registers the meeting and call routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission("meetings", "read")).Get("/", h.ListMeetings)
	r.With(auth.RequirePermission("meetings", "create")).Post("/", h.CreateMeeting)

	r.Route("/{meetingID}", func(r chi.Router) {
		r.With(auth.RequirePermission("meetings", "read")).Get("/", h.GetMeeting)
		r.With(auth.RequirePermission("meetings", "update")).Put("/", h.UpdateMeeting)
		r.With(auth.RequirePermission("meetings", "delete")).Delete("/", h.DeleteMeeting)
		r.With(auth.RequirePermission("meetings", "update")).Patch("/complete", h.CompleteMeeting)
		r.With(auth.RequirePermission("meetings", "update")).Patch("/postpone", h.PostponeMeeting)
		r.With(auth.RequirePermission("meetings", "update")).Patch("/cancel", h.CancelMeeting)

		r.Route("/attachments", func(r chi.Router) {
			r.With(auth.RequirePermission("meetings", "read")).Get("/", h.ListAttachments)
			r.With(auth.RequirePermission("meetings", "update")).Post("/", h.UploadAttachment)
			r.With(auth.RequirePermission("meetings", "update")).Delete("/{attachmentID}", h.DeleteAttachment)
		})
	})

	return r
}

func meetingIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "meetingID"))
	if err != nil {
		return "", errors.BadRequest("invalid meeting ID")
	}
	return id, nil
}

// ListMeetings lists meetings and calls with filters
func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Kind:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
		Page:   1,
		Limit:  20,
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		filter.Limit = l
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

	meetings, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, meetings, len(meetings), total, filter.Page, filter.Limit)
}

// GetMeeting gets a meeting or call with its attachments
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

// CreateMeeting schedules a meeting or call
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
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
	if err := CheckKindRules(req.Kind, req.Location, req.Participants); err != nil {
		respond.Error(w, err)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid date, expected YYYY-MM-DD"))
		return
	}

	m := &MeetingCall{
		ID:           types.NewID(),
		Kind:         req.Kind,
		Date:         date,
		Time:         req.Time,
		Duration:     req.Duration,
		Location:     req.Location,
		RequestedBy:  req.RequestedBy,
		Participants: req.Participants,
		Agenda:       req.Agenda,
		Purpose:      req.Purpose,
		Decisions:    []string{},
		FollowUp:     []FollowUp{},
		Status:       StatusScheduled,
		CreatedBy:    session.ID,
	}

	if err := h.repo.Create(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionCreate, "meetings", &m.ID, m.Kind+" scheduled: "+m.ReferenceNumber)
	respond.Message(w, http.StatusCreated, m.Kind+" scheduled", m)
}

// UpdateMeeting edits a still-scheduled record
func (h *Handler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
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

	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if m.Status != StatusScheduled && m.Status != StatusPostponed {
		respond.Error(w, errors.BadRequest("only scheduled records can be edited"))
		return
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid date, expected YYYY-MM-DD"))
			return
		}
		m.Date = date
	}
	if req.Time != nil {
		m.Time = *req.Time
	}
	if req.Duration != nil {
		m.Duration = *req.Duration
	}
	if req.Location != nil {
		m.Location = *req.Location
	}
	if req.RequestedBy != nil {
		m.RequestedBy = *req.RequestedBy
	}
	if req.Participants != nil {
		m.Participants = req.Participants
	}
	if req.Agenda != nil {
		m.Agenda = *req.Agenda
	}
	if req.Purpose != nil {
		m.Purpose = *req.Purpose
	}

	if err := CheckKindRules(m.Kind, m.Location, m.Participants); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "meetings", &id, m.Kind+" updated")
	respond.Message(w, http.StatusOK, m.Kind+" updated", m)
}

// CompleteMeeting records minutes, decisions and follow-up actions
func (h *Handler) CompleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req CompleteRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, errors.BadRequest("invalid request body"))
			return
		}
		if err := validate.Struct(req); err != nil {
			respond.Error(w, err)
			return
		}
	}

	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if m.Status != StatusScheduled && m.Status != StatusPostponed {
		respond.Error(w, errors.BadRequest("cannot complete a "+m.Status+" record"))
		return
	}

	m.Status = StatusCompleted
	m.Minutes = req.Minutes
	if req.Decisions != nil {
		m.Decisions = req.Decisions
	}
	if req.FollowUp != nil {
		m.FollowUp = req.FollowUp
	}
	if req.Duration != "" {
		m.Duration = req.Duration
	}

	if err := h.repo.Update(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "meetings", &id, m.Kind+" completed")
	respond.Message(w, http.StatusOK, m.Kind+" completed", m)
}

// PostponeMeeting moves a scheduled record to a later date
func (h *Handler) PostponeMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req PostponeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, errors.BadRequest("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, err)
		return
	}

	postponedTo, err := time.Parse("2006-01-02", req.PostponedTo)
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid postponedTo, expected YYYY-MM-DD"))
		return
	}

	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if m.Status != StatusScheduled && m.Status != StatusPostponed {
		respond.Error(w, errors.BadRequest("cannot postpone a "+m.Status+" record"))
		return
	}

	m.Status = StatusPostponed
	m.PostponedTo = &postponedTo
	m.Reason = req.Reason

	if err := h.repo.Update(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "meetings", &id, m.Kind+" postponed to "+req.PostponedTo)
	respond.Message(w, http.StatusOK, m.Kind+" postponed", m)
}

// CancelMeeting cancels a scheduled record
func (h *Handler) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var req CancelRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, errors.BadRequest("invalid request body"))
			return
		}
	}

	m, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if m.Status == StatusCompleted || m.Status == StatusCancelled {
		respond.Error(w, errors.BadRequest("cannot cancel a "+m.Status+" record"))
		return
	}

	m.Status = StatusCancelled
	m.Reason = req.Reason

	if err := h.repo.Update(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "meetings", &id, m.Kind+" cancelled")
	respond.Message(w, http.StatusOK, m.Kind+" cancelled", m)
}

// DeleteMeeting removes a record and its attachments
func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerMeeting, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	for _, a := range attachments {
		if err := h.attachments.Remove(r.Context(), attachment.OwnerMeeting, id, a.ID); err != nil {
			respond.Error(w, err)
			return
		}
	}

	h.emitter.Record(r, audit.ActionDelete, "meetings", &id, "meeting record deleted")
	respond.Message(w, http.StatusOK, "meeting record deleted", nil)
}

// ListAttachments lists a record's attachments
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerMeeting, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, attachments, len(attachments))
}

// UploadAttachment stores a file against a meeting or call
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	a, err := h.attachments.Upload(r, attachment.OwnerMeeting, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpload, "meetings", &id, "attachment uploaded: "+a.Filename)
	respond.Message(w, http.StatusCreated, "attachment uploaded", a)
}

// DeleteAttachment removes one of a record's attachments
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := meetingIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	attachmentID, err := types.ParseID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid attachment ID"))
		return
	}

	if err := h.attachments.Remove(r.Context(), attachment.OwnerMeeting, id, attachmentID); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "meetings", &id, "attachment removed")
	respond.Message(w, http.StatusOK, "attachment removed", nil)
}
