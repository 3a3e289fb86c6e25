package governorate

import "testing"

func TestHasRegion(t *testing.T) {
	g := &Governorate{Regions: []string{"North", "South", "Old City"}}

	tests := []struct {
		region string
		want   bool
	}{
		{"North", true},
		{"Old City", true},
		{"north", false},
		{"East", false},
		{"", false},
		{"Old", false},
	}

	for _, tt := range tests {
		if got := g.HasRegion(tt.region); got != tt.want {
			t.Errorf("HasRegion(%q) = %v, want %v", tt.region, got, tt.want)
		}
	}

	empty := &Governorate{}
	if empty.HasRegion("North") {
		t.Error("HasRegion on empty governorate returned true")
	}
}
