package report

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusComplete, true},
		{StatusComplete, StatusApproved, true},
		{StatusApproved, StatusArchived, true},

		// archive is reachable from any earlier status
		{StatusDraft, StatusArchived, true},
		{StatusComplete, StatusArchived, true},

		// no skipping forward
		{StatusDraft, StatusApproved, false},

		// no moving backward
		{StatusComplete, StatusDraft, false},
		{StatusApproved, StatusComplete, false},
		{StatusArchived, StatusDraft, false},
		{StatusArchived, StatusApproved, false},

		// no self transitions
		{StatusDraft, StatusDraft, false},
		{StatusArchived, StatusArchived, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
