// Package report manages daily reports, the dated containers events are
// filed under.
package report

import (
	"time"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Report types
const (
	TypeMorning = "morning"
	TypeEvening = "evening"
)

// Statuses
const (
	StatusDraft    = "draft"
	StatusComplete = "complete"
	StatusApproved = "approved"
	StatusArchived = "archived"
)

// Report is one daily report. The (reportDate, reportType) pair is unique
// and, together with the report number, immutable after creation: event
// numbers embed the date and type parsed from the parent number, so
// shifting a report to another day would orphan its numbering.
type Report struct {
	ID             types.ID                `json:"id"`
	ReportNumber   string                  `json:"reportNumber"`
	ReportDate     time.Time               `json:"reportDate"`
	ReportType     string                  `json:"reportType"`
	Status         string                  `json:"status"`
	Summary        string                  `json:"summary"`
	EventCount     int                     `json:"eventCount"`
	GovernorateIDs []types.ID              `json:"governorateIds"`
	CreatedBy      types.ID                `json:"createdBy"`
	ApprovedBy     *types.ID               `json:"approvedBy,omitempty"`
	Attachments    []attachment.Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// CanTransition reports whether a status change is allowed. Statuses move
// forward through draft, complete, approved, archived; archiving is
// additionally allowed from any earlier status.
func CanTransition(from, to string) bool {
	if from == to {
		return false
	}
	if to == StatusArchived {
		return from != StatusArchived
	}
	switch from {
	case StatusDraft:
		return to == StatusComplete
	case StatusComplete:
		return to == StatusApproved
	default:
		return false
	}
}

// CreateRequest creates a daily report.
type CreateRequest struct {
	ReportDate     string     `json:"reportDate" validate:"required"`
	ReportType     string     `json:"reportType" validate:"required,oneof=morning evening"`
	Summary        string     `json:"summary"`
	GovernorateIDs []types.ID `json:"governorateIds"`
}

// UpdateRequest updates report fields. The date, type and number are
// immutable; a status change must be a valid transition.
type UpdateRequest struct {
	Summary        *string    `json:"summary"`
	Status         *string    `json:"status" validate:"omitempty,oneof=draft complete approved archived"`
	GovernorateIDs []types.ID `json:"governorateIds"`
}

// ListFilter narrows a report listing.
type ListFilter struct {
	Status        string
	ReportType    string
	DateFrom      *time.Time
	DateTo        *time.Time
	GovernorateID *types.ID
	CreatedBy     *types.ID
	Page          int
	Limit         int
}
