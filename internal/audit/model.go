// Package audit appends an immutable system log entry for every
// state-changing action.
package audit

import (
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Actions
const (
	ActionCreate        = "create"
	ActionUpdate        = "update"
	ActionDelete        = "delete"
	ActionApprove       = "approve"
	ActionReject        = "reject"
	ActionArchive       = "archive"
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionRegister      = "register"
	ActionPasswordReset = "password_reset"
	ActionUpload        = "upload"
)

// Entry is one append-only system log record. Entries are never mutated
// or deleted.
type Entry struct {
	ID         types.ID  `json:"id"`
	UserID     *types.ID `json:"userId,omitempty"`
	Action     string    `json:"action"`
	Module     string    `json:"module"`
	ResourceID *types.ID `json:"resourceId,omitempty"`
	Details    string    `json:"details,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListFilter narrows a log listing.
type ListFilter struct {
	UserID    *types.ID
	Module    string
	Action    string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	Limit     int
}
