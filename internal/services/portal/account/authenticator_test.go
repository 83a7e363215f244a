package account

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
)

func TestLocalAuthenticator(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.create(t, f.root, "Eda", "eda@example.com", authz.RoleEditor)
	auth := NewLocalAuthenticator(f.store)

	principal, err := auth.Authenticate(ctx, " eda@example.com ", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if principal.DisplayName != "Eda Test" || principal.Role != authz.RoleEditor || !principal.Active {
		t.Fatalf("principal = %+v", principal)
	}

	for _, tc := range []struct{ email, password string }{
		{"eda@example.com", "wrong"},
		{"nobody@example.com", "secret1"},
	} {
		if _, err := auth.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, session.ErrInvalidCredentials) {
			t.Fatalf("authenticate(%q) err = %v", tc.email, err)
		}
	}
}

func TestLocalAuthenticatorBacksSessionLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	manager, err := session.NewManager(session.Config{Secret: []byte("k")}, NewLocalAuthenticator(f.store))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	sess, _, err := manager.Login(context.Background(), "root@example.com", "rootpass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Principal.ID != f.root.ID || sess.Principal.Role != authz.RoleSuperAdmin {
		t.Fatalf("principal = %+v", sess.Principal)
	}
}
