package meeting

import "testing"

func TestCheckKindRules(t *testing.T) {
	one := []Participant{{Name: "Director of Operations"}}

	tests := []struct {
		name         string
		kind         string
		location     string
		participants []Participant
		wantErr      bool
	}{
		{"meeting with location and participant", KindMeeting, "HQ briefing room", one, false},
		{"call without location", KindCall, "", one, false},
		{"meeting without location", KindMeeting, "", one, true},
		{"meeting without participants", KindMeeting, "HQ briefing room", nil, true},
		{"call without participants", KindCall, "", nil, true},
		{"meeting missing both", KindMeeting, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKindRules(tt.kind, tt.location, tt.participants)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckKindRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNumberPrefix(t *testing.T) {
	if got := NumberPrefix(KindMeeting); got != "MTG" {
		t.Errorf("NumberPrefix(meeting) = %q", got)
	}
	if got := NumberPrefix(KindCall); got != "CALL" {
		t.Errorf("NumberPrefix(call) = %q", got)
	}
}
