package authz

import "strings"

const (
	ReasonAllowSuperAdmin      = "ALLOW_SUPER_ADMIN"
	ReasonAllowHigherRank      = "ALLOW_HIGHER_RANK"
	ReasonAllowSelfEdit        = "ALLOW_SELF_EDIT"
	ReasonAllowRoleUnchanged   = "ALLOW_ROLE_UNCHANGED"
	ReasonDenyRankRequired     = "DENY_RANK_REQUIRED"
	ReasonDenySelfDelete       = "DENY_SELF_DELETE"
	ReasonDenyUnknownRole      = "DENY_UNKNOWN_ROLE"
	ReasonDenySuperAdminExists = "DENY_SUPER_ADMIN_EXISTS"
)

// Decision is the outcome of one authority check.
type Decision struct {
	Allowed    bool
	ReasonCode string
}

func allow(reason string) Decision { return Decision{Allowed: true, ReasonCode: reason} }

func deny(reason string) Decision { return Decision{Allowed: false, ReasonCode: reason} }

// Target is the account an actor wants to act on.
type Target struct {
	ID   string
	Role Role
}

// CanAssign reports whether actingRole may grant targetRole. SuperAdmin may
// assign any valid role; everyone else only strictly lower roles. Unknown
// target roles are always denied.
func CanAssign(actingRole, targetRole Role) Decision {
	if !targetRole.Valid() {
		return deny(ReasonDenyUnknownRole)
	}
	if actingRole == RoleSuperAdmin {
		return allow(ReasonAllowSuperAdmin)
	}
	if RankOf(targetRole) < RankOf(actingRole) {
		return allow(ReasonAllowHigherRank)
	}
	return deny(ReasonDenyRankRequired)
}

// CanEdit reports whether the actor may edit target. Self edits are always
// allowed.
func CanEdit(actingID string, actingRole Role, target Target) Decision {
	if isSelf(actingID, target.ID) {
		return allow(ReasonAllowSelfEdit)
	}
	if actingRole == RoleSuperAdmin {
		return allow(ReasonAllowSuperAdmin)
	}
	if RankOf(target.Role) < RankOf(actingRole) {
		return allow(ReasonAllowHigherRank)
	}
	return deny(ReasonDenyRankRequired)
}

// CanDelete reports whether the actor may delete target. Deleting oneself is
// always denied, even for SuperAdmin.
func CanDelete(actingID string, actingRole Role, target Target) Decision {
	if isSelf(actingID, target.ID) {
		return deny(ReasonDenySelfDelete)
	}
	if actingRole == RoleSuperAdmin {
		return allow(ReasonAllowSuperAdmin)
	}
	if RankOf(target.Role) < RankOf(actingRole) {
		return allow(ReasonAllowHigherRank)
	}
	return deny(ReasonDenyRankRequired)
}

// CanCreateAccount applies CanAssign plus the single-SuperAdmin rule.
func CanCreateAccount(actingRole, requestedRole Role, superAdminExists bool) Decision {
	decision := CanAssign(actingRole, requestedRole)
	if !decision.Allowed {
		return decision
	}
	if requestedRole == RoleSuperAdmin && superAdminExists {
		return deny(ReasonDenySuperAdminExists)
	}
	return decision
}

// CanChangeRole decides an account update that may change target's role.
// The edit itself must pass CanEdit; an unchanged role needs nothing more.
func CanChangeRole(actingID string, actingRole Role, target Target, requestedRole Role, superAdminExists bool) Decision {
	edit := CanEdit(actingID, actingRole, target)
	if !edit.Allowed {
		return edit
	}
	if requestedRole == target.Role && requestedRole.Valid() {
		return allow(ReasonAllowRoleUnchanged)
	}
	return CanCreateAccount(actingRole, requestedRole, superAdminExists)
}

// isSelf compares identifiers; blank identifiers never match.
func isSelf(actingID, targetID string) bool {
	actingID = strings.TrimSpace(actingID)
	return actingID != "" && actingID == strings.TrimSpace(targetID)
}
