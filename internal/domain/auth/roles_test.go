package auth

import "testing"

func TestNormalizeRoleManagerAliases(t *testing.T) {
	for _, raw := range []string{"md", "MD", "Md", "owner", "OWNER", "admin", " manager "} {
		if got := NormalizeRole(raw); got != RoleMD {
			t.Fatalf("expected %q to normalize to MD, got %q", raw, got)
		}
	}
}

func TestNormalizeRoleDefaultsToEmployee(t *testing.T) {
	for _, raw := range []string{"employee", "EMPLOYEE", "", "intern", "staff"} {
		if got := NormalizeRole(raw); got != RoleEmployee {
			t.Fatalf("expected %q to normalize to EMPLOYEE, got %q", raw, got)
		}
	}
}
