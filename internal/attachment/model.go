// Package attachment stores uploaded files on disk and tracks them per
// owning record.
package attachment

import (
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Owner types
const (
	OwnerReport  = "report"
	OwnerEvent   = "event"
	OwnerMeeting = "meeting"
	OwnerMemo    = "memo"
)

// Attachment is one stored file tied to an owning record.
type Attachment struct {
	ID         types.ID  `json:"id"`
	OwnerType  string    `json:"-"`
	OwnerID    types.ID  `json:"-"`
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	MimeType   string    `json:"mimetype"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
