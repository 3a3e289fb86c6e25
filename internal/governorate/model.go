// Package governorate manages the administrative regions events are
// reported against.
package governorate

import (
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Governorate is a named administrative area with a unique code and a
// list of regions. Every event must name a region belonging to its
// governorate. Deletion is soft; inactive governorates stay referencable
// by historical records.
type Governorate struct {
	ID        types.ID          `json:"id"`
	Name      string            `json:"name"`
	Code      string            `json:"code"`
	Regions   []string          `json:"regions"`
	Contact   types.ContactInfo `json:"contact"`
	IsActive  bool              `json:"isActive"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// HasRegion reports whether region is an exact member of the
// governorate's region list.
func (g *Governorate) HasRegion(region string) bool {
	for _, r := range g.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// CreateRequest creates a governorate.
type CreateRequest struct {
	Name    string            `json:"name" validate:"required"`
	Code    string            `json:"code" validate:"required,min=2,max=10"`
	Regions []string          `json:"regions"`
	Contact types.ContactInfo `json:"contact"`
}

// UpdateRequest updates governorate fields. Absent fields are left
// unchanged. Regions are managed through the region endpoints, not here.
type UpdateRequest struct {
	Name    *string            `json:"name"`
	Code    *string            `json:"code" validate:"omitempty,min=2,max=10"`
	Contact *types.ContactInfo `json:"contact"`
}

// RegionRequest names a single region.
type RegionRequest struct {
	Region string `json:"region" validate:"required"`
}

// ListFilter narrows a governorate listing.
type ListFilter struct {
	Search          string
	IncludeInactive bool
}
