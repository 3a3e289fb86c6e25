// Package memo manages official memos and release documents.
package memo

import (
	"time"

	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/shared/errors"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Kinds
const (
	KindMemo    = "memo"
	KindRelease = "release"
)

// Statuses
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusReceived  = "received"
	StatusProcessed = "processed"
)

// ValidStatuses lists the accepted document statuses in workflow order.
var ValidStatuses = []string{StatusDraft, StatusSent, StatusReceived, StatusProcessed}

func statusRank(status string) int {
	for i, s := range ValidStatuses {
		if s == status {
			return i
		}
	}
	return -1
}

// CanTransition reports whether a document status may move from one stage
// to another. The workflow only moves forward.
func CanTransition(from, to string) bool {
	f, t := statusRank(from), statusRank(to)
	return f >= 0 && t >= 0 && t > f
}

// NumberPrefix returns the reference number prefix for a kind.
func NumberPrefix(kind string) string {
	if kind == KindRelease {
		return refnum.PrefixRelease
	}
	return refnum.PrefixMemo
}

// MemoRelease is one memo or release document.
type MemoRelease struct {
	ID              types.ID   `json:"id"`
	ReferenceNumber string     `json:"referenceNumber"`
	Kind            string     `json:"type"`
	Date            time.Time  `json:"date"`
	Time            string     `json:"time"`
	Location        string     `json:"location,omitempty"`
	Subject         string     `json:"subject"`
	Content         string     `json:"content,omitempty"`
	GovernorateID   types.ID   `json:"governorateId"`
	IssuedTo        string     `json:"issuedTo,omitempty"`
	IssuedBy        string     `json:"issuedBy,omitempty"`
	PersonName      string     `json:"personName,omitempty"`
	PersonID        string     `json:"personId,omitempty"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	ResidencePlace  string     `json:"residencePlace,omitempty"`
	DetentionDate   *time.Time `json:"detentionDate,omitempty"`
	ReleaseDate     *time.Time `json:"releaseDate,omitempty"`
	DetentionPeriod string     `json:"detentionPeriod,omitempty"`
	DetentionReason string     `json:"detentionReason,omitempty"`
	Status          string     `json:"status"`
	CreatedBy       types.ID   `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CreateRequest drafts a memo or release document.
type CreateRequest struct {
	Kind            string   `json:"type" validate:"required,oneof=memo release"`
	Date            string   `json:"date" validate:"required"`
	Time            string   `json:"time" validate:"required"`
	Location        string   `json:"location"`
	Subject         string   `json:"subject" validate:"required"`
	Content         string   `json:"content"`
	GovernorateID   types.ID `json:"governorateId" validate:"required"`
	IssuedTo        string   `json:"issuedTo"`
	IssuedBy        string   `json:"issuedBy"`
	PersonName      string   `json:"personName"`
	PersonID        string   `json:"personId"`
	DateOfBirth     *string  `json:"dateOfBirth"`
	ResidencePlace  string   `json:"residencePlace"`
	DetentionDate   *string  `json:"detentionDate"`
	ReleaseDate     *string  `json:"releaseDate"`
	DetentionPeriod string   `json:"detentionPeriod"`
	DetentionReason string   `json:"detentionReason"`
}

// CheckKindRules enforces the person fields a release document must carry.
// Plain memos have no person attached.
func CheckKindRules(kind, personName, residencePlace string, detentionDate *time.Time) error {
	if kind != KindRelease {
		return nil
	}
	details := map[string]string{}
	if personName == "" {
		details["personName"] = "person name is required for release documents"
	}
	if residencePlace == "" {
		details["residencePlace"] = "residence place is required for release documents"
	}
	if detentionDate == nil {
		details["detentionDate"] = "detention date is required for release documents"
	}
	if len(details) > 0 {
		return errors.Validation("validation failed", details)
	}
	return nil
}

// UpdateRequest edits a document.
type UpdateRequest struct {
	Date            *string `json:"date"`
	Time            *string `json:"time"`
	Location        *string `json:"location"`
	Subject         *string `json:"subject"`
	Content         *string `json:"content"`
	IssuedTo        *string `json:"issuedTo"`
	IssuedBy        *string `json:"issuedBy"`
	PersonName      *string `json:"personName"`
	PersonID        *string `json:"personId"`
	DateOfBirth     *string `json:"dateOfBirth"`
	ResidencePlace  *string `json:"residencePlace"`
	DetentionDate   *string `json:"detentionDate"`
	ReleaseDate     *string `json:"releaseDate"`
	DetentionPeriod *string `json:"detentionPeriod"`
	DetentionReason *string `json:"detentionReason"`
	Status          *string `json:"status" validate:"omitempty,oneof=draft sent received processed"`
}

// ListFilter narrows a memo/release listing.
type ListFilter struct {
	Kind          string
	Status        string
	GovernorateID *types.ID
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	Limit         int
}
