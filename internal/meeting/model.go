// Package meeting manages meetings and phone calls with their minutes,
// decisions and follow-up actions.
package meeting

import (
	"time"

	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Kinds
const (
	KindMeeting = "meeting"
	KindCall    = "call"
)

// Statuses
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusPostponed = "postponed"
	StatusCancelled = "cancelled"
)

// NumberPrefix returns the reference number prefix for a kind.
func NumberPrefix(kind string) string {
	if kind == KindCall {
		return refnum.PrefixCall
	}
	return refnum.PrefixMeeting
}

// Participant is one attendee of a meeting or call.
type Participant struct {
	Name  string `json:"name" validate:"required"`
	Title string `json:"title,omitempty"`
}

// FollowUp is one action item agreed in a meeting or call.
type FollowUp struct {
	Action     string     `json:"action" validate:"required"`
	AssignedTo string     `json:"assignedTo,omitempty"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	Done       bool       `json:"done"`
}

// MeetingCall is one meeting or call record.
type MeetingCall struct {
	ID              types.ID      `json:"id"`
	ReferenceNumber string        `json:"referenceNumber"`
	Kind            string        `json:"type"`
	Date            time.Time     `json:"date"`
	Time            string        `json:"time"`
	Duration        string        `json:"duration,omitempty"`
	Location        string        `json:"location,omitempty"`
	RequestedBy     string        `json:"requestedBy"`
	Participants    []Participant `json:"participants"`
	Agenda          string        `json:"agenda,omitempty"`
	Purpose         string        `json:"purpose"`
	Minutes         string        `json:"minutes,omitempty"`
	Decisions       []string      `json:"decisions"`
	FollowUp        []FollowUp    `json:"followUp"`
	Status          string        `json:"status"`
	PostponedTo     *time.Time    `json:"postponedTo,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	CreatedBy       types.ID      `json:"createdBy"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// CreateRequest schedules a meeting or call.
type CreateRequest struct {
	Kind         string        `json:"type" validate:"required,oneof=meeting call"`
	Date         string        `json:"date" validate:"required"`
	Time         string        `json:"time" validate:"required"`
	Duration     string        `json:"duration"`
	Location     string        `json:"location"`
	RequestedBy  string        `json:"requestedBy" validate:"required"`
	Participants []Participant `json:"participants" validate:"required,min=1,dive"`
	Agenda       string        `json:"agenda"`
	Purpose      string        `json:"purpose" validate:"required"`
}

// CheckKindRules enforces the constraints that depend on the kind: every
// record needs at least one participant, and a meeting needs a location
// while a call does not.
func CheckKindRules(kind, location string, participants []Participant) error {
	details := map[string]string{}
	if len(participants) == 0 {
		details["participants"] = "at least one participant is required"
	}
	if kind == KindMeeting && location == "" {
		details["location"] = "location is required for meetings"
	}
	if len(details) > 0 {
		return errors.Validation("validation failed", details)
	}
	return nil
}

// UpdateRequest edits a scheduled record.
type UpdateRequest struct {
	Date         *string       `json:"date"`
	Time         *string       `json:"time"`
	Duration     *string       `json:"duration"`
	Location     *string       `json:"location"`
	RequestedBy  *string       `json:"requestedBy"`
	Participants []Participant `json:"participants" validate:"omitempty,min=1,dive"`
	Agenda       *string       `json:"agenda"`
	Purpose      *string       `json:"purpose"`
}

// CompleteRequest records the outcome of a meeting or call.
type CompleteRequest struct {
	Minutes   string     `json:"minutes"`
	Decisions []string   `json:"decisions"`
	FollowUp  []FollowUp `json:"followUp" validate:"omitempty,dive"`
	Duration  string     `json:"duration"`
}

// PostponeRequest moves a scheduled record to a later date.
type PostponeRequest struct {
	PostponedTo string `json:"postponedTo" validate:"required"`
	Reason      string `json:"reason"`
}

// CancelRequest cancels a scheduled record.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ListFilter narrows a meeting/call listing.
type ListFilter struct {
	Kind     string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}
