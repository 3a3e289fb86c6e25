package event

import (
	"testing"
	"time"

	"github.com/sitrep-gov/platform/internal/shared/types"
	"github.com/sitrep-gov/platform/internal/shared/validate"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"ongoing", "ongoing", true},
		{"finished", "finished", true},
		{"monitoring", "monitoring", true},
		{"resolved", "finished", true},
		{"closed", "", false},
		{"Resolved", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeStatus(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCreateRequestEventTypeEnum(t *testing.T) {
	base := func(eventType string) CreateRequest {
		return CreateRequest{
			ReportID:      types.NewID(),
			GovernorateID: types.NewID(),
			Region:        "Crater",
			EventTime:     time.Date(2025, 5, 4, 9, 30, 0, 0, time.UTC),
			EventType:     eventType,
			Description:   "patrol stopped at checkpoint",
		}
	}

	tests := []struct {
		eventType string
		wantErr   bool
	}{
		{"security_incident", false},
		{"arrest", false},
		{"checkpoint", false},
		{"raid", false},
		{"confrontation", false},
		{"other", false},
		{"birthday_party", true},
		{"Arrest", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			err := validate.Struct(base(tt.eventType))
			if (err != nil) != tt.wantErr {
				t.Errorf("eventType %q: error = %v, wantErr %v", tt.eventType, err, tt.wantErr)
			}
		})
	}
}

func TestUpdateRequestEventTypeEnum(t *testing.T) {
	bad := "parade"
	if err := validate.Struct(UpdateRequest{EventType: &bad}); err == nil {
		t.Errorf("eventType %q accepted on update", bad)
	}

	good := "raid"
	if err := validate.Struct(UpdateRequest{EventType: &good}); err != nil {
		t.Errorf("eventType %q rejected on update: %v", good, err)
	}
}
