package authz

import (
	"reflect"
	"testing"
)

func TestRankOrdering(t *testing.T) {
	ranks := []Rank{
		RankOf(RoleSuperAdmin),
		RankOf(RoleAdmin),
		RankOf(RoleEditor),
		RankOf(RoleUser),
		RankOf(Role("Owner")),
	}
	for i := 1; i < len(ranks); i++ {
		if ranks[i-1] <= ranks[i] {
			t.Fatalf("rank %d (%d) must exceed rank %d (%d)", i-1, ranks[i-1], i, ranks[i])
		}
	}
	if RankOf(RoleUnknown) != 0 {
		t.Fatalf("unknown rank = %d, want 0", RankOf(RoleUnknown))
	}
	if RankOf(RoleUser) != 1 || RankOf(RoleSuperAdmin) != 4 {
		t.Fatal("rank table mismatch")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		label string
		want  Role
		ok    bool
	}{
		{label: "SuperAdmin", want: RoleSuperAdmin, ok: true},
		{label: " super_admin ", want: RoleSuperAdmin, ok: true},
		{label: "SUPER-ADMIN", want: RoleSuperAdmin, ok: true},
		{label: "admin", want: RoleAdmin, ok: true},
		{label: "Editor", want: RoleEditor, ok: true},
		{label: "user", want: RoleUser, ok: true},
		{label: "", want: RoleUnknown, ok: false},
		{label: "root", want: RoleUnknown, ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanAssign(t *testing.T) {
	tests := []struct {
		name       string
		acting     Role
		target     Role
		allowed    bool
		reasonCode string
	}{
		{name: "admin cannot assign admin", acting: RoleAdmin, target: RoleAdmin, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "super admin assigns super admin", acting: RoleSuperAdmin, target: RoleSuperAdmin, allowed: true, reasonCode: ReasonAllowSuperAdmin},
		{name: "admin assigns editor", acting: RoleAdmin, target: RoleEditor, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "editor assigns user", acting: RoleEditor, target: RoleUser, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "editor cannot assign editor", acting: RoleEditor, target: RoleEditor, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "user cannot assign user", acting: RoleUser, target: RoleUser, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "admin cannot assign super admin", acting: RoleAdmin, target: RoleSuperAdmin, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "unknown target fails closed for super admin", acting: RoleSuperAdmin, target: Role("Owner"), allowed: false, reasonCode: ReasonDenyUnknownRole},
		{name: "unknown actor assigns nothing", acting: RoleUnknown, target: RoleUser, allowed: false, reasonCode: ReasonDenyRankRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanAssign(tt.acting, tt.target)
			if decision.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v", decision.Allowed, tt.allowed)
			}
			if decision.ReasonCode != tt.reasonCode {
				t.Fatalf("reason = %q, want %q", decision.ReasonCode, tt.reasonCode)
			}
		})
	}
}

func TestCanAssignSameRankOnlySuperAdmin(t *testing.T) {
	for _, role := range Roles() {
		got := CanAssign(role, role).Allowed
		if want := role == RoleSuperAdmin; got != want {
			t.Errorf("CanAssign(%s, %s) = %v, want %v", role, role, got, want)
		}
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name       string
		actingID   string
		acting     Role
		target     Target
		allowed    bool
		reasonCode string
	}{
		{name: "self edit above own rank", actingID: "p1", acting: RoleEditor, target: Target{ID: "p1", Role: RoleAdmin}, allowed: true, reasonCode: ReasonAllowSelfEdit},
		{name: "admin edits editor", actingID: "a1", acting: RoleAdmin, target: Target{ID: "e1", Role: RoleEditor}, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "editor cannot edit peer editor", actingID: "e1", acting: RoleEditor, target: Target{ID: "e2", Role: RoleEditor}, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "admin cannot edit super admin", actingID: "a1", acting: RoleAdmin, target: Target{ID: "s1", Role: RoleSuperAdmin}, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "super admin edits anyone", actingID: "s1", acting: RoleSuperAdmin, target: Target{ID: "s2", Role: RoleSuperAdmin}, allowed: true, reasonCode: ReasonAllowSuperAdmin},
		{name: "blank ids are not self", actingID: "", acting: RoleUser, target: Target{ID: "", Role: RoleUser}, allowed: false, reasonCode: ReasonDenyRankRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanEdit(tt.actingID, tt.acting, tt.target)
			if decision.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v", decision.Allowed, tt.allowed)
			}
			if decision.ReasonCode != tt.reasonCode {
				t.Fatalf("reason = %q, want %q", decision.ReasonCode, tt.reasonCode)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name       string
		actingID   string
		acting     Role
		target     Target
		allowed    bool
		reasonCode string
	}{
		{name: "self delete denied for super admin", actingID: "s1", acting: RoleSuperAdmin, target: Target{ID: "s1", Role: RoleSuperAdmin}, allowed: false, reasonCode: ReasonDenySelfDelete},
		{name: "self delete denied for user", actingID: "u1", acting: RoleUser, target: Target{ID: "u1", Role: RoleUser}, allowed: false, reasonCode: ReasonDenySelfDelete},
		{name: "admin deletes editor", actingID: "a1", acting: RoleAdmin, target: Target{ID: "e1", Role: RoleEditor}, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "editor cannot delete editor", actingID: "e1", acting: RoleEditor, target: Target{ID: "e2", Role: RoleEditor}, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "super admin deletes admin", actingID: "s1", acting: RoleSuperAdmin, target: Target{ID: "a1", Role: RoleAdmin}, allowed: true, reasonCode: ReasonAllowSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanDelete(tt.actingID, tt.acting, tt.target)
			if decision.Allowed != tt.allowed {
				t.Fatalf("allowed = %v, want %v", decision.Allowed, tt.allowed)
			}
			if decision.ReasonCode != tt.reasonCode {
				t.Fatalf("reason = %q, want %q", decision.ReasonCode, tt.reasonCode)
			}
		})
	}
}

func TestAdminActingOnEditor(t *testing.T) {
	target := Target{ID: "editor-1", Role: RoleEditor}
	if !CanEdit("admin-1", RoleAdmin, target).Allowed {
		t.Fatal("admin should edit editor")
	}
	if !CanDelete("admin-1", RoleAdmin, target).Allowed {
		t.Fatal("admin should delete editor")
	}
}

func TestEditorActingOnPeerEditor(t *testing.T) {
	target := Target{ID: "editor-2", Role: RoleEditor}
	if CanEdit("editor-1", RoleEditor, target).Allowed {
		t.Fatal("editor must not edit peer editor")
	}
	if CanDelete("editor-1", RoleEditor, target).Allowed {
		t.Fatal("editor must not delete peer editor")
	}
}

func TestCanCreateAccount(t *testing.T) {
	tests := []struct {
		name       string
		acting     Role
		requested  Role
		exists     bool
		allowed    bool
		reasonCode string
	}{
		{name: "admin cannot create super admin", acting: RoleAdmin, requested: RoleSuperAdmin, exists: true, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "super admin blocked by existing super admin", acting: RoleSuperAdmin, requested: RoleSuperAdmin, exists: true, allowed: false, reasonCode: ReasonDenySuperAdminExists},
		{name: "super admin may create first super admin", acting: RoleSuperAdmin, requested: RoleSuperAdmin, exists: false, allowed: true, reasonCode: ReasonAllowSuperAdmin},
		{name: "admin creates editor", acting: RoleAdmin, requested: RoleEditor, exists: true, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "unknown requested role", acting: RoleSuperAdmin, requested: RoleUnknown, exists: false, allowed: false, reasonCode: ReasonDenyUnknownRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanCreateAccount(tt.acting, tt.requested, tt.exists)
			if decision.Allowed != tt.allowed || decision.ReasonCode != tt.reasonCode {
				t.Fatalf("decision = %+v, want allowed=%v reason=%q", decision, tt.allowed, tt.reasonCode)
			}
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	tests := []struct {
		name       string
		actingID   string
		acting     Role
		target     Target
		requested  Role
		exists     bool
		allowed    bool
		reasonCode string
	}{
		{name: "self edit keeping role", actingID: "e1", acting: RoleEditor, target: Target{ID: "e1", Role: RoleEditor}, requested: RoleEditor, exists: true, allowed: true, reasonCode: ReasonAllowRoleUnchanged},
		{name: "self promotion denied", actingID: "e1", acting: RoleEditor, target: Target{ID: "e1", Role: RoleEditor}, requested: RoleAdmin, exists: true, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "admin demotes editor", actingID: "a1", acting: RoleAdmin, target: Target{ID: "e1", Role: RoleEditor}, requested: RoleUser, exists: true, allowed: true, reasonCode: ReasonAllowHigherRank},
		{name: "admin cannot promote to admin", actingID: "a1", acting: RoleAdmin, target: Target{ID: "e1", Role: RoleEditor}, requested: RoleAdmin, exists: true, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "edit denied short-circuits", actingID: "e1", acting: RoleEditor, target: Target{ID: "a1", Role: RoleAdmin}, requested: RoleAdmin, exists: true, allowed: false, reasonCode: ReasonDenyRankRequired},
		{name: "second super admin blocked", actingID: "s1", acting: RoleSuperAdmin, target: Target{ID: "a1", Role: RoleAdmin}, requested: RoleSuperAdmin, exists: true, allowed: false, reasonCode: ReasonDenySuperAdminExists},
		{name: "super admin self demotion", actingID: "s1", acting: RoleSuperAdmin, target: Target{ID: "s1", Role: RoleSuperAdmin}, requested: RoleAdmin, exists: true, allowed: true, reasonCode: ReasonAllowSuperAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := CanChangeRole(tt.actingID, tt.acting, tt.target, tt.requested, tt.exists)
			if decision.Allowed != tt.allowed || decision.ReasonCode != tt.reasonCode {
				t.Fatalf("decision = %+v, want allowed=%v reason=%q", decision, tt.allowed, tt.reasonCode)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	if !AtLeast(RoleAdmin, RoleEditor) || !AtLeast(RoleEditor, RoleEditor) {
		t.Fatal("expected admin and editor to meet editor minimum")
	}
	if AtLeast(RoleUser, RoleEditor) {
		t.Fatal("user must not meet editor minimum")
	}
	if AtLeast(RoleUnknown, RoleUser) || AtLeast(RoleSuperAdmin, RoleUnknown) {
		t.Fatal("unknown roles never satisfy minimums")
	}
}

func TestAssignableRoles(t *testing.T) {
	tests := []struct {
		acting Role
		want   []Role
	}{
		{acting: RoleSuperAdmin, want: []Role{RoleSuperAdmin, RoleAdmin, RoleEditor, RoleUser}},
		{acting: RoleAdmin, want: []Role{RoleEditor, RoleUser}},
		{acting: RoleEditor, want: []Role{RoleUser}},
		{acting: RoleUser, want: nil},
	}
	for _, tt := range tests {
		if got := AssignableRoles(tt.acting); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("AssignableRoles(%s) = %v, want %v", tt.acting, got, tt.want)
		}
	}
}

func TestRolesReturnsCopy(t *testing.T) {
	roles := Roles()
	roles[0] = RoleUser
	if Roles()[0] != RoleSuperAdmin {
		t.Fatal("Roles must not expose internal slice")
	}
}

func TestDecisionsAreDeterministic(t *testing.T) {
	all := append(Roles(), RoleUnknown)
	for _, acting := range all {
		for _, target := range all {
			tgt := Target{ID: "t", Role: target}
			first := []Decision{CanAssign(acting, target), CanEdit("a", acting, tgt), CanDelete("a", acting, tgt)}
			for i := 0; i < 3; i++ {
				again := []Decision{CanAssign(acting, target), CanEdit("a", acting, tgt), CanDelete("a", acting, tgt)}
				if !reflect.DeepEqual(first, again) {
					t.Fatalf("decisions for %s/%s changed between calls", acting, target)
				}
			}
		}
	}
}

func TestRoleLabel(t *testing.T) {
	if RoleSuperAdmin.Label() != "Super Admin" || RoleEditor.Label() != "Editor" || Role("x").Label() != "Unknown" {
		t.Fatal("unexpected labels")
	}
}
