package identity

import "testing"

func TestDemoAccountByEmail(t *testing.T) {
	tests := []struct {
		email    string
		wantRole Role
		wantOk   bool
	}{
		{"student@schoolier.com", RoleStudent, true},
		{"instructor@schoolier.com", RoleInstructor, true},
		{"admin@schoolier.com", RoleAdmin, true},
		{"business@schoolier.com", RoleBusinessAdmin, true},
		{"employee@schoolier.com", RoleEmployee, true},
		{"  Admin@Schoolier.COM ", RoleAdmin, true}, // cleaned
		{"nobody@schoolier.com", "", false},
		{"student@example.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			acct, ok := DemoAccountByEmail(tt.email)
			if ok != tt.wantOk {
				t.Fatalf("DemoAccountByEmail() ok = %v, want %v", ok, tt.wantOk)
			}
			if ok && acct.Role != tt.wantRole {
				t.Errorf("DemoAccountByEmail() role = %v, want %v", acct.Role, tt.wantRole)
			}
		})
	}
}

func TestInferDemoRole(t *testing.T) {
	tests := []struct {
		email string
		want  Role
	}{
		// registry wins
		{"instructor@schoolier.com", RoleInstructor},
		{"business@schoolier.com", RoleBusinessAdmin},

		// whole-segment matching on the local part
		{"teacher@schoolier.com", RoleInstructor},
		{"site-admin@schoolier.com", RoleAdmin},
		{"superadmin@schoolier.com", RoleAdmin},
		{"demo.entreprise@schoolier.com", RoleBusinessAdmin},
		{"employe+test@schoolier.com", RoleEmployee},
		{"jane_employee@schoolier.com", RoleEmployee},

		// substrings must not match
		{"notadmin@schoolier.com", RoleStudent},
		{"administrator@schoolier.com", RoleStudent},
		{"teachers@schoolier.com", RoleStudent},

		// degenerate inputs
		{"", RoleStudent},
		{"no-at-sign", RoleStudent},
		{"someone@example.com", RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := InferDemoRole(tt.email); got != tt.want {
				t.Errorf("InferDemoRole(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
