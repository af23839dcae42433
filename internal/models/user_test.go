package models

import "testing"

// TestUserIsAdmin verifies role checks.
func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		admin bool
	}{
		{name: "admin", role: RoleAdmin, admin: true},
		{name: "viewer", role: RoleViewer, admin: false},
		{name: "empty", role: Role(""), admin: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{Role: tc.role}
			if got := u.IsAdmin(); got != tc.admin {
				t.Errorf("IsAdmin() = %v, want %v", got, tc.admin)
			}
		})
	}
}
