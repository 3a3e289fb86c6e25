package refnum

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		date     time.Time
		typeCode string
		seq      int64
		want     string
	}{
		{"report morning", PrefixReport, date(2025, 5, 4), CodeMorning, 1, "REP-20250504-M-001"},
		{"report evening", PrefixReport, date(2025, 5, 4), CodeEvening, 2, "REP-20250504-E-002"},
		{"event", PrefixEvent, date(2025, 5, 4), CodeMorning, 3, "EVT-20250504-M-003"},
		{"coordination no type", PrefixCoordination, date(2025, 12, 31), "", 7, "COORD-20251231-007"},
		{"meeting", PrefixMeeting, date(2025, 1, 1), "", 12, "MTG-20250101-012"},
		{"padding stays three digits", PrefixReport, date(2025, 5, 4), CodeMorning, 999, "REP-20250504-M-999"},
		{"overflow widens", PrefixReport, date(2025, 5, 4), CodeMorning, 1000, "REP-20250504-M-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.prefix, tt.date, tt.typeCode, tt.seq)
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		want    Parsed
		wantErr bool
	}{
		{
			name:   "report number",
			number: "REP-20250504-M-002",
			want:   Parsed{Prefix: "REP", Date: date(2025, 5, 4), TypeCode: "M", Seq: 2},
		},
		{
			name:   "event number",
			number: "EVT-20250504-E-011",
			want:   Parsed{Prefix: "EVT", Date: date(2025, 5, 4), TypeCode: "E", Seq: 11},
		},
		{
			name:   "untyped series",
			number: "COORD-20251231-007",
			want:   Parsed{Prefix: "COORD", Date: date(2025, 12, 31), Seq: 7},
		},
		{
			name:   "overflowed sequence",
			number: "REP-20250504-M-1000",
			want:   Parsed{Prefix: "REP", Date: date(2025, 5, 4), TypeCode: "M", Seq: 1000},
		},
		{name: "empty", number: "", wantErr: true},
		{name: "missing sequence", number: "REP-20250504-M", wantErr: true},
		{name: "bad date", number: "REP-2025054-M-001", wantErr: true},
		{name: "unpadded sequence", number: "REP-20250504-M-1", wantErr: true},
		{name: "lowercase prefix", number: "rep-20250504-M-001", wantErr: true},
		{name: "unknown type code", number: "REP-20250504-X-001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.number)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.number, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.number, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.number, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	number := Format(PrefixReport, date(2025, 5, 4), CodeMorning, 42)
	parsed, err := Parse(number)
	if err != nil {
		t.Fatalf("Parse(%q) unexpected error: %v", number, err)
	}
	rebuilt := Format(parsed.Prefix, parsed.Date, parsed.TypeCode, parsed.Seq)
	if rebuilt != number {
		t.Errorf("round trip changed number: %q -> %q", number, rebuilt)
	}
}

func TestTypeCode(t *testing.T) {
	if code, err := TypeCode("morning"); err != nil || code != "M" {
		t.Errorf("TypeCode(morning) = %q, %v", code, err)
	}
	if code, err := TypeCode("evening"); err != nil || code != "E" {
		t.Errorf("TypeCode(evening) = %q, %v", code, err)
	}
	if _, err := TypeCode("weekly"); err == nil {
		t.Error("TypeCode(weekly) expected error")
	}
}

func TestScopeKeys(t *testing.T) {
	d := date(2025, 5, 4)

	if got := ScopeTyped(PrefixReport, d, CodeMorning); got != "REP:20250504:M" {
		t.Errorf("ScopeTyped = %q", got)
	}
	if got := ScopeDated(PrefixCoordination, d); got != "COORD:20250504" {
		t.Errorf("ScopeDated = %q", got)
	}
	if got := ScopeParent(PrefixEvent, "abc-123"); got != "EVT:abc-123" {
		t.Errorf("ScopeParent = %q", got)
	}

	// Morning and evening sequences must not share a counter.
	if ScopeTyped(PrefixReport, d, CodeMorning) == ScopeTyped(PrefixReport, d, CodeEvening) {
		t.Error("morning and evening scopes collide")
	}
	// Nor do different days.
	if ScopeDated(PrefixMemo, d) == ScopeDated(PrefixMemo, date(2025, 5, 5)) {
		t.Error("scopes for different days collide")
	}
}
