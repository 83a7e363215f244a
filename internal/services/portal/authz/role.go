package authz

import "strings"

// Role identifies an account role label.
type Role string

const (
	RoleUnknown    Role = ""
	RoleSuperAdmin Role = "SuperAdmin"
	RoleAdmin      Role = "Admin"
	RoleEditor     Role = "Editor"
	RoleUser       Role = "User"
)

// Rank is the privilege level of a role. Higher ranks have more authority.
type Rank int

const (
	RankUnknown    Rank = 0
	RankUser       Rank = 1
	RankEditor     Rank = 2
	RankAdmin      Rank = 3
	RankSuperAdmin Rank = 4
)

// orderedRoles lists valid roles from most to least privileged.
var orderedRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleEditor, RoleUser}

// ParseRole normalizes a role label. Matching is case-insensitive and
// ignores surrounding whitespace; "super_admin" and "super-admin" are
// accepted for SuperAdmin.
func ParseRole(label string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "superadmin", "super_admin", "super-admin", "super admin":
		return RoleSuperAdmin, true
	case "admin":
		return RoleAdmin, true
	case "editor":
		return RoleEditor, true
	case "user":
		return RoleUser, true
	default:
		return RoleUnknown, false
	}
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return RankOf(r) != RankUnknown
}

// String returns the canonical label.
func (r Role) String() string {
	return string(r)
}

// Label returns the human-readable name shown in tables and dropdowns.
func (r Role) Label() string {
	if r == RoleSuperAdmin {
		return "Super Admin"
	}
	if !r.Valid() {
		return "Unknown"
	}
	return string(r)
}

// RankOf returns the privilege rank for role. Unknown roles rank below User.
func RankOf(role Role) Rank {
	switch role {
	case RoleSuperAdmin:
		return RankSuperAdmin
	case RoleAdmin:
		return RankAdmin
	case RoleEditor:
		return RankEditor
	case RoleUser:
		return RankUser
	default:
		return RankUnknown
	}
}

// AtLeast reports whether role meets minimum. Unknown roles never satisfy
// any minimum, including an unknown minimum.
func AtLeast(role, minimum Role) bool {
	rank := RankOf(role)
	want := RankOf(minimum)
	if rank == RankUnknown || want == RankUnknown {
		return false
	}
	return rank >= want
}

// Roles returns every valid role from most to least privileged.
func Roles() []Role {
	out := make([]Role, len(orderedRoles))
	copy(out, orderedRoles)
	return out
}

// AssignableRoles returns the roles actingRole may assign, most privileged
// first.
func AssignableRoles(actingRole Role) []Role {
	var out []Role
	for _, role := range orderedRoles {
		if CanAssign(actingRole, role).Allowed {
			out = append(out, role)
		}
	}
	return out
}
