package directory

import "strings"

// Role is one of the closed set of directory roles. Unrecognized or
// absent server values normalize to Associate.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleManager   Role = "Manager"
	RoleAssociate Role = "Associate"
)

// Roles lists the assignable roles in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleAssociate}
}

// NormalizeRole maps an arbitrary server role string onto the closed
// set. Matching is by case-insensitive prefix so "administrator" and
// "ADMIN" both land on Admin; anything else is Associate.
func NormalizeRole(raw string) Role {
	r := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(r, "admin"):
		return RoleAdmin
	case strings.HasPrefix(r, "manager"):
		return RoleManager
	default:
		return RoleAssociate
	}
}

// ParseRole maps a user-supplied role name onto the closed set,
// reporting whether it named a known role exactly.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, true
	case "manager":
		return RoleManager, true
	case "associate":
		return RoleAssociate, true
	default:
		return RoleAssociate, false
	}
}

// String returns the wire and display form of the role.
func (r Role) String() string {
	return string(r)
}
