// Package coordination manages force movement coordination requests.
package coordination

import (
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Priorities
const (
	PriorityNormal    = "normal"
	PriorityUrgent    = "urgent"
	PriorityEmergency = "emergency"
)

// Coordination is one movement coordination request. It starts pending
// and is resolved by a supervisor: approved or rejected, then completed
// once the movement returns, or cancelled by the requester while still
// pending.
type Coordination struct {
	ID                types.ID   `json:"id"`
	RequestNumber     string     `json:"requestNumber"`
	RequestTime       time.Time  `json:"requestTime"`
	RequestDate       time.Time  `json:"requestDate"`
	ApprovalTime      *time.Time `json:"approvalTime,omitempty"`
	MovementTime      time.Time  `json:"movementTime"`
	ReturnTime        *time.Time `json:"returnTime,omitempty"`
	GovernorateID     types.ID   `json:"governorateId"`
	FromLocation      string     `json:"fromLocation"`
	ToLocation        string     `json:"toLocation"`
	RouteDetails      string     `json:"routeDetails,omitempty"`
	Department        string     `json:"department"`
	Forces            int        `json:"forces"`
	Vehicles          int        `json:"vehicles"`
	VehicleTypes      []string   `json:"vehicleTypes"`
	Weapons           int        `json:"weapons"`
	WeaponTypes       []string   `json:"weaponTypes"`
	Purpose           string     `json:"purpose"`
	EstimatedDuration string     `json:"estimatedDuration,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	RequestedBy       types.ID   `json:"requestedBy"`
	ApprovedBy        *types.ID  `json:"approvedBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCompleted
	default:
		return false
	}
}

// CreateRequest files a coordination request.
type CreateRequest struct {
	MovementTime      time.Time `json:"movementTime" validate:"required"`
	GovernorateID     types.ID  `json:"governorateId" validate:"required"`
	FromLocation      string    `json:"fromLocation" validate:"required"`
	ToLocation        string    `json:"toLocation" validate:"required"`
	RouteDetails      string    `json:"routeDetails"`
	Department        string    `json:"department" validate:"required,oneof=police national_security civil_defense intelligence preventive_security other"`
	Forces            int       `json:"forces" validate:"required,min=1"`
	Vehicles          int       `json:"vehicles" validate:"gte=0"`
	VehicleTypes      []string  `json:"vehicleTypes"`
	Weapons           int       `json:"weapons" validate:"gte=0"`
	WeaponTypes       []string  `json:"weaponTypes"`
	Purpose           string    `json:"purpose" validate:"required"`
	EstimatedDuration string    `json:"estimatedDuration"`
	Priority          string    `json:"priority" validate:"omitempty,oneof=normal urgent emergency"`
	Notes             string    `json:"notes"`
}

// UpdateRequest edits a pending request. Resolved requests are immutable
// apart from their status transitions.
type UpdateRequest struct {
	MovementTime      *time.Time `json:"movementTime"`
	FromLocation      *string    `json:"fromLocation"`
	ToLocation        *string    `json:"toLocation"`
	RouteDetails      *string    `json:"routeDetails"`
	Department        *string    `json:"department" validate:"omitempty,oneof=police national_security civil_defense intelligence preventive_security other"`
	Forces            *int       `json:"forces" validate:"omitempty,min=1"`
	Vehicles          *int       `json:"vehicles" validate:"omitempty,gte=0"`
	VehicleTypes      []string   `json:"vehicleTypes"`
	Weapons           *int       `json:"weapons" validate:"omitempty,gte=0"`
	WeaponTypes       []string   `json:"weaponTypes"`
	Purpose           *string    `json:"purpose"`
	EstimatedDuration *string    `json:"estimatedDuration"`
	Priority          *string    `json:"priority" validate:"omitempty,oneof=normal urgent emergency"`
	Notes             *string    `json:"notes"`
}

// RejectRequest carries the reason a request was turned down.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CompleteRequest closes out an approved movement.
type CompleteRequest struct {
	ReturnTime *time.Time `json:"returnTime"`
}

// ListFilter narrows a coordination listing.
type ListFilter struct {
	Status        string
	Priority      string
	GovernorateID *types.ID
	Department    string
	DateFrom      *time.Time
	DateTo        *time.Time
	Page          int
	Limit         int
}
