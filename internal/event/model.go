// Package event manages security events, the records filed under daily
// reports.
package event

import (
	"time"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Statuses. The stored value for a resolved event is always "finished";
// "resolved" is accepted on input as an alias and normalized.
const (
	StatusOngoing    = "ongoing"
	StatusFinished   = "finished"
	StatusMonitoring = "monitoring"

	statusResolvedAlias = "resolved"
)

// Severities
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// NormalizeStatus maps an input status to its canonical stored form.
// It returns false for values that are not statuses at all.
func NormalizeStatus(s string) (string, bool) {
	switch s {
	case StatusOngoing, StatusFinished, StatusMonitoring:
		return s, true
	case statusResolvedAlias:
		return StatusFinished, true
	default:
		return "", false
	}
}

// Casualties is the fixed casualty triple carried by every event.
type Casualties struct {
	Killed   int `json:"killed" validate:"gte=0"`
	Injured  int `json:"injured" validate:"gte=0"`
	Arrested int `json:"arrested" validate:"gte=0"`
}

// Event is one security event. It belongs to exactly one report and one
// governorate, and its region must be a member of that governorate's
// region list.
type Event struct {
	ID              types.ID                `json:"id"`
	ReportID        types.ID                `json:"reportId"`
	EventNumber     string                  `json:"eventNumber"`
	GovernorateID   types.ID                `json:"governorateId"`
	Region          string                  `json:"region"`
	EventTime       time.Time               `json:"eventTime"`
	EventDate       time.Time               `json:"eventDate"`
	EventType       string                  `json:"eventType"`
	Severity        string                  `json:"severity"`
	Description     string                  `json:"description"`
	InvolvedParties []string                `json:"involvedParties"`
	Intervention    string                  `json:"intervention,omitempty"`
	Response        string                  `json:"response,omitempty"`
	Results         string                  `json:"results,omitempty"`
	Casualties      Casualties              `json:"casualties"`
	Status          string                  `json:"status"`
	Location        *types.Coordinates      `json:"location,omitempty"`
	CreatedBy       types.ID                `json:"createdBy"`
	Attachments     []attachment.Attachment `json:"attachments,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

// CreateRequest creates an event under a report.
type CreateRequest struct {
	ReportID        types.ID           `json:"reportId" validate:"required"`
	GovernorateID   types.ID           `json:"governorateId" validate:"required"`
	Region          string             `json:"region" validate:"required"`
	EventTime       time.Time          `json:"eventTime" validate:"required"`
	EventType       string             `json:"eventType" validate:"required,oneof=security_incident arrest checkpoint raid confrontation other"`
	Severity        string             `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Description     string             `json:"description" validate:"required"`
	InvolvedParties []string           `json:"involvedParties"`
	Intervention    string             `json:"intervention"`
	Response        string             `json:"response"`
	Results         string             `json:"results"`
	Casualties      Casualties         `json:"casualties"`
	Status          string             `json:"status"`
	Location        *types.Coordinates `json:"location"`
}

// UpdateRequest updates event fields. The report, number and date/type
// lineage are immutable. Changing governorate or region re-checks the
// membership invariant against the effective governorate.
type UpdateRequest struct {
	GovernorateID   *types.ID          `json:"governorateId"`
	Region          *string            `json:"region"`
	EventTime       *time.Time         `json:"eventTime"`
	EventType       *string            `json:"eventType" validate:"omitempty,oneof=security_incident arrest checkpoint raid confrontation other"`
	Severity        *string            `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Description     *string            `json:"description"`
	InvolvedParties []string           `json:"involvedParties"`
	Intervention    *string            `json:"intervention"`
	Response        *string            `json:"response"`
	Results         *string            `json:"results"`
	Casualties      *Casualties        `json:"casualties"`
	Status          *string            `json:"status"`
	Location        *types.Coordinates `json:"location"`
}

// ListFilter narrows an event listing.
type ListFilter struct {
	ReportID      *types.ID
	GovernorateID *types.ID
	EventType     string
	Severity      string
	Status        string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	Limit         int
}
