package memo

import (
	"testing"
	"time"
)

func TestCheckKindRules(t *testing.T) {
	detained := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		kind           string
		personName     string
		residencePlace string
		detentionDate  *time.Time
		wantErr        bool
	}{
		{"memo needs no person", KindMemo, "", "", nil, false},
		{"release with all person fields", KindRelease, "Ahmed Saleh", "Aden, Crater", &detained, false},
		{"release missing person name", KindRelease, "", "Aden, Crater", &detained, true},
		{"release missing residence", KindRelease, "Ahmed Saleh", "", &detained, true},
		{"release missing detention date", KindRelease, "Ahmed Saleh", "Aden, Crater", nil, true},
		{"release missing everything", KindRelease, "", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKindRules(tt.kind, tt.personName, tt.residencePlace, tt.detentionDate)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckKindRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusProcessed, true},
		{StatusSent, StatusReceived, true},
		{StatusReceived, StatusProcessed, true},

		{StatusSent, StatusDraft, false},
		{StatusProcessed, StatusReceived, false},
		{StatusDraft, StatusDraft, false},
		{StatusDraft, "archived", false},
		{"", StatusSent, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNumberPrefix(t *testing.T) {
	if got := NumberPrefix(KindMemo); got != "MEMO" {
		t.Errorf("NumberPrefix(memo) = %q", got)
	}
	if got := NumberPrefix(KindRelease); got != "REL" {
		t.Errorf("NumberPrefix(release) = %q", got)
	}
}
