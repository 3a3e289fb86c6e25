package user

import "testing"

func TestValidatePermissions(t *testing.T) {
	tests := []struct {
		name    string
		perms   []Permission
		wantErr bool
	}{
		{"empty", nil, false},
		{"single module", []Permission{{Module: "reports", Actions: []string{"read", "create"}}}, false},
		{"all known modules", []Permission{
			{Module: "reports", Actions: []string{"read"}},
			{Module: "events", Actions: []string{"read", "update"}},
			{Module: "governorates", Actions: []string{"read"}},
			{Module: "coordinations", Actions: []string{"approve"}},
		}, false},
		{"unknown module", []Permission{{Module: "billing", Actions: []string{"read"}}}, true},
		{"unknown action", []Permission{{Module: "reports", Actions: []string{"publish"}}}, true},
		{"mixed valid and invalid", []Permission{
			{Module: "reports", Actions: []string{"read"}},
			{Module: "reports", Actions: []string{"destroy"}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePermissions(tt.perms)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePermissions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
