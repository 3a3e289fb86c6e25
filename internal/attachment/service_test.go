package attachment

import (
	"strings"
	"testing"
)

func TestStoredFilename(t *testing.T) {
	tests := []struct {
		name     string
		owner    string
		original string
		wantExt  string
		wantBase string
	}{
		{"plain name", "report", "photo.jpg", ".jpg", "report-photo-"},
		{"spaces sanitized", "event", "scene of incident.png", ".png", "event-scene_of_incident-"},
		{"path stripped", "report", "../../etc/passwd", "", "report-passwd-"},
		{"unicode sanitized", "memo", "تقرير.pdf", ".pdf", "memo-"},
		{"empty base", "event", ".gitignore", ".gitignore", "event-file-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storedFilename(tt.owner, tt.original)

			if !strings.HasPrefix(got, tt.wantBase) {
				t.Errorf("storedFilename(%q) = %q, want prefix %q", tt.original, got, tt.wantBase)
			}
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("storedFilename(%q) = %q, want suffix %q", tt.original, got, tt.wantExt)
			}
			if strings.ContainsAny(got, "/\\ ") {
				t.Errorf("storedFilename(%q) = %q contains unsafe characters", tt.original, got)
			}
		})
	}
}

func TestStoredFilenameUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := storedFilename("report", "photo.jpg")
		if seen[name] {
			t.Fatalf("duplicate stored filename %q", name)
		}
		seen[name] = true
	}
}

func TestAllowedMimeTypes(t *testing.T) {
	for _, mt := range []string{"image/jpeg", "application/pdf", "text/plain"} {
		if !allowedMimeTypes[mt] {
			t.Errorf("%s should be allowed", mt)
		}
	}
	for _, mt := range []string{"application/x-msdownload", "text/html", ""} {
		if allowedMimeTypes[mt] {
			t.Errorf("%s should not be allowed", mt)
		}
	}
}
