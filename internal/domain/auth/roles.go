package auth

import "strings"

const (
	RoleEmployee = "EMPLOYEE"
	RoleMD       = "MD"
)

// NormalizeRole maps the loose role spellings found in imported data onto
// the closed enumeration. Call it once at the system boundary; internal
// logic only compares against the canonical tags.
func NormalizeRole(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "md", "owner", "admin", "manager", "managing director":
		return RoleMD
	default:
		return RoleEmployee
	}
}

func IsManager(role string) bool {
	return role == RoleMD
}
