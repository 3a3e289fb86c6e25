package coordination

import (
	"testing"
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusApproved, StatusCompleted, true},

		{StatusPending, StatusCompleted, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusCancelled, false},
		{StatusRejected, StatusApproved, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusApproved, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCreateRequestDepartmentEnum(t *testing.T) {
	base := func(department string) CreateRequest {
		return CreateRequest{
			MovementTime:  time.Date(2025, 5, 4, 14, 0, 0, 0, time.UTC),
			GovernorateID: types.NewID(),
			FromLocation:  "HQ",
			ToLocation:    "Crater district",
			Department:    department,
			Forces:        12,
			Purpose:       "routine patrol rotation",
		}
	}

	tests := []struct {
		department string
		wantErr    bool
	}{
		{"police", false},
		{"national_security", false},
		{"civil_defense", false},
		{"intelligence", false},
		{"preventive_security", false},
		{"other", false},
		{"catering", true},
		{"Police", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.department, func(t *testing.T) {
			err := validate.Struct(base(tt.department))
			if (err != nil) != tt.wantErr {
				t.Errorf("department %q: error = %v, wantErr %v", tt.department, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRequestDepartmentEnum(t *testing.T) {
	bad := "catering"
	if err := validate.Struct(UpdateRequest{Department: &bad}); err == nil {
		t.Errorf("department %q accepted on update", bad)
	}

	good := "intelligence"
	if err := validate.Struct(UpdateRequest{Department: &good}); err != nil {
		t.Errorf("department %q rejected on update: %v", good, err)
	}
}
