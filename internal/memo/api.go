package memo

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
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the memo module
type Handler struct {
	repo        *Repository
	govs        *governorate.Repository
	attachments *attachment.Service
	emitter     *audit.Emitter
}

// NewHandler creates a new memo handler
func NewHandler(repo *Repository, govs *governorate.Repository, attachments *attachment.Service, emitter *audit.Emitter) *Handler {
	return &Handler{repo: repo, govs: govs, attachments: attachments, emitter: emitter}
}

// Routes registers the memo and release routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission("memos", "read")).Get("/", h.ListMemos)
	r.With(auth.RequirePermission("memos", "create")).Post("/", h.CreateMemo)

	r.Route("/{memoID}", func(r chi.Router) {
		r.With(auth.RequirePermission("memos", "read")).Get("/", h.GetMemo)
		r.With(auth.RequirePermission("memos", "update")).Put("/", h.UpdateMemo)
		r.With(auth.RequirePermission("memos", "delete")).Delete("/", h.DeleteMemo)

		r.Route("/attachments", func(r chi.Router) {
			r.With(auth.RequirePermission("memos", "read")).Get("/", h.ListAttachments)
			r.With(auth.RequirePermission("memos", "update")).Post("/", h.UploadAttachment)
			r.With(auth.RequirePermission("memos", "update")).Delete("/{attachmentID}", h.DeleteAttachment)
		})
	})

	return r
}

func memoIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "memoID"))
	if err != nil {
		return "", errors.BadRequest("invalid memo ID")
	}
	return id, nil
}

func parseDateField(value, field string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.BadRequest("invalid " + field + ", expected YYYY-MM-DD")
	}
	return &t, nil
}

// ListMemos lists memo and release documents with filters
func (h *Handler) ListMemos(w http.ResponseWriter, r *http.Request) {
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
	if g := r.URL.Query().Get("governorateId"); g != "" {
		id, err := types.ParseID(g)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid governorate ID"))
			return
		}
		filter.GovernorateID = &id
	}
	if from := r.URL.Query().Get("dateFrom"); from != "" {
		t, err := parseDateField(from, "dateFrom")
		if err != nil {
			respond.Error(w, err)
			return
		}
		filter.DateFrom = t
	}
	if to := r.URL.Query().Get("dateTo"); to != "" {
		t, err := parseDateField(to, "dateTo")
		if err != nil {
			respond.Error(w, err)
			return
		}
		filter.DateTo = t
	}

	memos, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, memos, len(memos), total, filter.Page, filter.Limit)
}

// GetMemo gets a memo or release document by ID
func (h *Handler) GetMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
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

// CreateMemo drafts a memo or release document
func (h *Handler) CreateMemo(w http.ResponseWriter, r *http.Request) {
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

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respond.Error(w, err)
		return
	}

	m := &MemoRelease{
		ID:              types.NewID(),
		Kind:            req.Kind,
		Date:            *date,
		Time:            req.Time,
		Location:        req.Location,
		Subject:         req.Subject,
		Content:         req.Content,
		GovernorateID:   req.GovernorateID,
		IssuedTo:        req.IssuedTo,
		IssuedBy:        req.IssuedBy,
		PersonName:      req.PersonName,
		PersonID:        req.PersonID,
		ResidencePlace:  req.ResidencePlace,
		DetentionPeriod: req.DetentionPeriod,
		DetentionReason: req.DetentionReason,
		Status:          StatusDraft,
		CreatedBy:       session.ID,
	}
	if req.DateOfBirth != nil {
		m.DateOfBirth, err = parseDateField(*req.DateOfBirth, "dateOfBirth")
		if err != nil {
			respond.Error(w, err)
			return
		}
	}
	if req.DetentionDate != nil {
		m.DetentionDate, err = parseDateField(*req.DetentionDate, "detentionDate")
		if err != nil {
			respond.Error(w, err)
			return
		}
	}
	if req.ReleaseDate != nil {
		m.ReleaseDate, err = parseDateField(*req.ReleaseDate, "releaseDate")
		if err != nil {
			respond.Error(w, err)
			return
		}
	}

	if err := CheckKindRules(m.Kind, m.PersonName, m.ResidencePlace, m.DetentionDate); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionCreate, "memos", &m.ID, m.Kind+" drafted: "+m.ReferenceNumber)
	respond.Message(w, http.StatusCreated, m.Kind+" created", m)
}

// UpdateMemo edits a document. Status moves forward only.
func (h *Handler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
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

	if req.Date != nil {
		d, err := parseDateField(*req.Date, "date")
		if err != nil {
			respond.Error(w, err)
			return
		}
		m.Date = *d
	}
	if req.Time != nil {
		m.Time = *req.Time
	}
	if req.Location != nil {
		m.Location = *req.Location
	}
	if req.Subject != nil {
		m.Subject = *req.Subject
	}
	if req.Content != nil {
		m.Content = *req.Content
	}
	if req.IssuedTo != nil {
		m.IssuedTo = *req.IssuedTo
	}
	if req.IssuedBy != nil {
		m.IssuedBy = *req.IssuedBy
	}
	if req.PersonName != nil {
		m.PersonName = *req.PersonName
	}
	if req.PersonID != nil {
		m.PersonID = *req.PersonID
	}
	if req.DateOfBirth != nil {
		d, err := parseDateField(*req.DateOfBirth, "dateOfBirth")
		if err != nil {
			respond.Error(w, err)
			return
		}
		m.DateOfBirth = d
	}
	if req.ResidencePlace != nil {
		m.ResidencePlace = *req.ResidencePlace
	}
	if req.DetentionDate != nil {
		d, err := parseDateField(*req.DetentionDate, "detentionDate")
		if err != nil {
			respond.Error(w, err)
			return
		}
		m.DetentionDate = d
	}
	if req.ReleaseDate != nil {
		d, err := parseDateField(*req.ReleaseDate, "releaseDate")
		if err != nil {
			respond.Error(w, err)
			return
		}
		m.ReleaseDate = d
	}
	if req.DetentionPeriod != nil {
		m.DetentionPeriod = *req.DetentionPeriod
	}
	if req.DetentionReason != nil {
		m.DetentionReason = *req.DetentionReason
	}
	if req.Status != nil && *req.Status != m.Status {
		if !CanTransition(m.Status, *req.Status) {
			respond.Error(w, errors.BadRequest("cannot change status from "+m.Status+" to "+*req.Status))
			return
		}
		m.Status = *req.Status
	}

	if err := CheckKindRules(m.Kind, m.PersonName, m.ResidencePlace, m.DetentionDate); err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), m); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "memos", &id, m.Kind+" updated")
	respond.Message(w, http.StatusOK, m.Kind+" updated", m)
}

// DeleteMemo removes a document and its attachments
func (h *Handler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerMemo, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	for _, a := range attachments {
		if err := h.attachments.Remove(r.Context(), attachment.OwnerMemo, id, a.ID); err != nil {
			respond.Error(w, err)
			return
		}
	}

	h.emitter.Record(r, audit.ActionDelete, "memos", &id, "memo document deleted")
	respond.Message(w, http.StatusOK, "memo document deleted", nil)
}

// ListAttachments lists a document's attachments
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerMemo, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, attachments, len(attachments))
}

// UploadAttachment stores a file against a document
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	a, err := h.attachments.Upload(r, attachment.OwnerMemo, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpload, "memos", &id, "attachment uploaded: "+a.Filename)
	respond.Message(w, http.StatusCreated, "attachment uploaded", a)
}

// DeleteAttachment removes one of a document's attachments
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := memoIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	attachmentID, err := types.ParseID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid attachment ID"))
		return
	}

	if err := h.attachments.Remove(r.Context(), attachment.OwnerMemo, id, attachmentID); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "memos", &id, "attachment removed")
	respond.Message(w, http.StatusOK, "attachment removed", nil)
}
