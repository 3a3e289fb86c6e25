package report

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/event"
	"github.com/sitrep-gov/platform/internal/governorate"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

// Handler provides HTTP handlers for the report module
type Handler struct {
	repo        *Repository
	events      *event.Repository
	govs        *governorate.Repository
	attachments *attachment.Service
	emitter     *audit.Emitter
}

// NewHandler creates a new report handler
func NewHandler(repo *Repository, events *event.Repository, govs *governorate.Repository, attachments *attachment.Service, emitter *audit.Emitter) *Handler {
	return &Handler{
		repo:        repo,
		events:      events,
		govs:        govs,
		attachments: attachments,
		emitter:     emitter,
	}
}

// Routes registers the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(auth.RequirePermission("reports", "read")).Get("/", h.ListReports)
	r.With(auth.RequirePermission("reports", "create")).Post("/", h.CreateReport)

	r.Route("/{reportID}", func(r chi.Router) {
		r.With(auth.RequirePermission("reports", "read")).Get("/", h.GetReport)
		r.With(auth.RequirePermission("reports", "update")).Put("/", h.UpdateReport)
		r.With(auth.RequireRoles(auth.RoleAdmin, auth.RoleSupervisor)).Delete("/", h.DeleteReport)
		r.With(auth.RequirePermission("reports", "update")).Patch("/archive", h.ArchiveReport)
		r.With(auth.RequirePermission("reports", "read")).Get("/events", h.ListReportEvents)

		r.Route("/attachments", func(r chi.Router) {
			r.With(auth.RequirePermission("reports", "read")).Get("/", h.ListAttachments)
			r.With(auth.RequirePermission("reports", "update")).Post("/", h.UploadAttachment)
			r.With(auth.RequirePermission("reports", "update")).Delete("/{attachmentID}", h.DeleteAttachment)
		})
	})

	return r
}

func reportIDParam(r *http.Request) (types.ID, error) {
	id, err := types.ParseID(chi.URLParam(r, "reportID"))
	if err != nil {
		return "", errors.BadRequest("invalid report ID")
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

// ListReports lists reports with filters
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Status:     r.URL.Query().Get("status"),
		ReportType: r.URL.Query().Get("reportType"),
	}
	filter.Page, filter.Limit = pageParams(r)

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
	if g := r.URL.Query().Get("governorateId"); g != "" {
		id, err := types.ParseID(g)
		if err != nil {
			respond.Error(w, errors.BadRequest("invalid governorate ID"))
			return
		}
		filter.GovernorateID = &id
	}

	reports, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, reports, len(reports), total, filter.Page, filter.Limit)
}

// GetReport gets a report with its attachments
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	rep, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	rep.Attachments, err = h.attachments.List(r.Context(), attachment.OwnerReport, rep.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, rep)
}

// CreateReport creates a daily report
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
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

	reportDate, err := time.Parse("2006-01-02", req.ReportDate)
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid reportDate, expected YYYY-MM-DD"))
		return
	}

	if err := h.checkGovernorates(r, req.GovernorateIDs); err != nil {
		respond.Error(w, err)
		return
	}

	rep := &Report{
		ID:             types.NewID(),
		ReportDate:     reportDate,
		ReportType:     req.ReportType,
		Status:         StatusDraft,
		Summary:        req.Summary,
		GovernorateIDs: req.GovernorateIDs,
		CreatedBy:      session.ID,
	}
	if rep.GovernorateIDs == nil {
		rep.GovernorateIDs = []types.ID{}
	}

	if err := h.repo.Create(r.Context(), rep); err != nil {
		respond.Error(w, err)
		return
	}

	metrics.RecordReportCreated(rep.ReportType)
	h.emitter.Record(r, audit.ActionCreate, "reports", &rep.ID, "report created: "+rep.ReportNumber)
	respond.Message(w, http.StatusCreated, "report created", rep)
}

// UpdateReport updates summary, governorates and status. A status change
// into approved stamps the caller as approver.
func (h *Handler) UpdateReport(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())

	id, err := reportIDParam(r)
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

	rep, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if req.Summary != nil {
		rep.Summary = *req.Summary
	}
	if req.GovernorateIDs != nil {
		if err := h.checkGovernorates(r, req.GovernorateIDs); err != nil {
			respond.Error(w, err)
			return
		}
		rep.GovernorateIDs = req.GovernorateIDs
	}
	if req.Status != nil && *req.Status != rep.Status {
		if !CanTransition(rep.Status, *req.Status) {
			respond.Error(w, errors.BadRequest("cannot change status from "+rep.Status+" to "+*req.Status))
			return
		}
		metrics.RecordReportStatusChange(rep.Status, *req.Status)
		if *req.Status == StatusApproved {
			rep.ApprovedBy = &session.ID
		}
		rep.Status = *req.Status
	}

	if err := h.repo.Update(r.Context(), rep); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpdate, "reports", &id, "report updated")
	respond.Message(w, http.StatusOK, "report updated", rep)
}

// ArchiveReport archives a report. Unlike deletion this is allowed with
// events attached.
func (h *Handler) ArchiveReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	rep, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if !CanTransition(rep.Status, StatusArchived) {
		respond.Error(w, errors.BadRequest("report is already archived"))
		return
	}

	metrics.RecordReportStatusChange(rep.Status, StatusArchived)
	rep.Status = StatusArchived
	if err := h.repo.Update(r.Context(), rep); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionArchive, "reports", &id, "report archived")
	respond.Message(w, http.StatusOK, "report archived", rep)
}

// DeleteReport deletes a report without events
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	// Remove stored files first; the row delete below re-checks that no
	// events reference the report.
	attachments, err := h.attachments.List(r.Context(), attachment.OwnerReport, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	for _, a := range attachments {
		if err := h.attachments.Remove(r.Context(), attachment.OwnerReport, id, a.ID); err != nil {
			respond.Error(w, err)
			return
		}
	}

	h.emitter.Record(r, audit.ActionDelete, "reports", &id, "report deleted")
	respond.Message(w, http.StatusOK, "report deleted", nil)
}

// ListReportEvents lists the events attached to a report
func (h *Handler) ListReportEvents(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	page, limit := pageParams(r)
	events, total, err := h.events.ListByReport(r.Context(), id, page, limit)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.List(w, events, len(events), total, page, limit)
}

// ListAttachments lists a report's attachments
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	attachments, err := h.attachments.List(r.Context(), attachment.OwnerReport, id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Collection(w, attachments, len(attachments))
}

// UploadAttachment stores a file against a report
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	a, err := h.attachments.Upload(r, attachment.OwnerReport, id)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionUpload, "reports", &id, "attachment uploaded: "+a.Filename)
	respond.Message(w, http.StatusCreated, "attachment uploaded", a)
}

// DeleteAttachment removes one of a report's attachments
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	id, err := reportIDParam(r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	attachmentID, err := types.ParseID(chi.URLParam(r, "attachmentID"))
	if err != nil {
		respond.Error(w, errors.BadRequest("invalid attachment ID"))
		return
	}

	if err := h.attachments.Remove(r.Context(), attachment.OwnerReport, id, attachmentID); err != nil {
		respond.Error(w, err)
		return
	}

	h.emitter.Record(r, audit.ActionDelete, "reports", &id, "attachment removed")
	respond.Message(w, http.StatusOK, "attachment removed", nil)
}

func (h *Handler) checkGovernorates(r *http.Request, ids []types.ID) error {
	for _, id := range ids {
		if _, err := h.govs.FindActive(r.Context(), id); err != nil {
			return err
		}
	}
	return nil
}
