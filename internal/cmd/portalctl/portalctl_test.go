package portalctl

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, err := NewRootCommand()
	if err != nil {
		t.Fatalf("new root command: %v", err)
	}
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBootstrapCreatesSingleSuperAdmin(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "portal.db")
	args := []string{"bootstrap", "--db-path", dbPath,
		"--email", "root@example.com", "--first-name", "Ada", "--last-name", "Admin", "--password", "secret1"}

	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !strings.Contains(out, "Created Ada Admin <root@example.com>") {
		t.Fatalf("bootstrap output = %q", out)
	}

	args[4] = "second@example.com"
	if _, err := execute(t, args...); err == nil {
		t.Fatal("expected second bootstrap to fail")
	}
}

func TestBootstrapRequiresFlags(t *testing.T) {
	if _, err := execute(t, "bootstrap", "--storage", "memory", "--email", "root@example.com"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestSeedOnlyFillsEmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "portal.db")

	out, err := execute(t, "seed", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.HasPrefix(out, "Seeded ") {
		t.Fatalf("seed output = %q", out)
	}

	out, err = execute(t, "seed", "--db-path", dbPath)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if !strings.Contains(out, "nothing seeded") {
		t.Fatalf("second seed output = %q", out)
	}
}

func TestAccessPrintsTable(t *testing.T) {
	out, err := execute(t, "access")
	if err != nil {
		t.Fatalf("access: %v", err)
	}
	for _, want := range []string{"PAGE", "dashboard", "subscriptions", "exercise_form"} {
		if !strings.Contains(out, want) {
			t.Fatalf("access output missing %q:\n%s", want, out)
		}
	}
}

func TestAccessForRole(t *testing.T) {
	out, err := execute(t, "access", "--role", "user")
	if err != nil {
		t.Fatalf("access --role: %v", err)
	}
	if !strings.Contains(out, "dashboard") || !strings.Contains(out, "tasks") {
		t.Fatalf("user pages missing dashboard or tasks:\n%s", out)
	}
	if strings.Contains(out, "users") || strings.Contains(out, "subscriptions") {
		t.Fatalf("user pages include admin pages:\n%s", out)
	}

	if _, err := execute(t, "access", "--role", "owner"); err == nil {
		t.Fatal("expected unknown role error")
	}
}

func TestCheckDecisions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "admin over editor",
			args: []string{"check", "--actor-role", "Admin", "--target-role", "Editor"},
			want: []string{"assign", "ALLOW_HIGHER_RANK"},
		},
		{
			name: "editor over admin",
			args: []string{"check", "--actor-role", "Editor", "--target-role", "Admin"},
			want: []string{"DENY_RANK_REQUIRED"},
		},
		{
			name: "self",
			args: []string{"check", "--actor-role", "Editor", "--target-role", "Editor", "--self"},
			want: []string{"ALLOW_SELF_EDIT", "DENY_SELF_DELETE"},
		},
		{
			name: "unknown target",
			args: []string{"check", "--actor-role", "SuperAdmin", "--target-role", "Owner"},
			want: []string{"DENY_UNKNOWN_ROLE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("check output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
