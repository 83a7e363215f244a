package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

type fakeAuth struct {
	principals map[string]Principal
	err        error
}

func (f fakeAuth) Authenticate(_ context.Context, email, password string) (Principal, error) {
	if f.err != nil {
		return Principal{}, f.err
	}
	p, ok := f.principals[email]
	if !ok || password != "secret" {
		return Principal{}, ErrInvalidCredentials
	}
	return p, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	put     []storage.SessionRecord
	ended   []string
	failPut error
}

func (f *fakeRecords) PutSessionRecord(_ context.Context, record storage.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut != nil {
		return f.failPut
	}
	f.put = append(f.put, record)
	return nil
}

func (f *fakeRecords) EndSessionRecord(_ context.Context, id string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, id)
	return nil
}

type fakeRecorder struct {
	logins []string
	active int
}

func (f *fakeRecorder) LoginAttempted(outcome string) { f.logins = append(f.logins, outcome) }
func (f *fakeRecorder) SessionsChanged(delta int)     { f.active += delta }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func testPrincipals() map[string]Principal {
	return map[string]Principal{
		"root@example.com":   {ID: "u-root", DisplayName: "Root", Role: "super admin", Active: true},
		"admin@example.com":  {ID: "u-admin", DisplayName: "Admin", Role: "Admin", Active: true},
		"user@example.com":   {ID: "u-user", DisplayName: "Student", Role: "User", Active: true},
		"ghost@example.com":  {ID: "u-ghost", DisplayName: "Ghost", Role: "Owner", Active: true},
		"frozen@example.com": {ID: "u-frozen", DisplayName: "Frozen", Role: "Editor", Active: false},
	}
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) (*Manager, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	if cfg.Secret == nil {
		cfg.Secret = []byte("test-secret")
	}
	cfg.Now = c.now
	m, err := NewManager(cfg, fakeAuth{principals: testPrincipals()}, opts...)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, c
}

func TestNewManagerRequiresSecretAndAuthenticator(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(Config{Secret: []byte("x")}, nil); err == nil {
		t.Fatal("expected error for nil authenticator")
	}
	if _, err := NewManager(Config{}, fakeAuth{}); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestLoginNormalizesRoleAndStartsOnDashboard(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	recorder := &fakeRecorder{}
	m, _ := newTestManager(t, Config{AllowUserLogin: true}, WithRecordStore(records), WithRecorder(recorder))

	sess, token, err := m.Login(context.Background(), "root@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Principal.Role != authz.RoleSuperAdmin {
		t.Fatalf("role = %q, want %q", sess.Principal.Role, authz.RoleSuperAdmin)
	}
	if sess.View.Page != navigation.PageDashboard {
		t.Fatalf("initial page = %q, want dashboard", sess.View.Page)
	}
	if token == "" {
		t.Fatal("expected token")
	}
	if len(records.put) != 1 || records.put[0].ID != sess.ID || records.put[0].PrincipalID != "u-root" {
		t.Fatalf("records = %+v", records.put)
	}
	if recorder.active != 1 || len(recorder.logins) != 1 || recorder.logins[0] != "success" {
		t.Fatalf("recorder = %+v", recorder)
	}
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		allowUser bool
		email     string
		password  string
		want      apperrors.Code
	}{
		{name: "wrong password", allowUser: true, email: "admin@example.com", password: "nope", want: apperrors.CodeInvalidCredentials},
		{name: "unknown email", allowUser: true, email: "who@example.com", password: "secret", want: apperrors.CodeInvalidCredentials},
		{name: "blank email", allowUser: true, email: " ", password: "secret", want: apperrors.CodeInvalidCredentials},
		{name: "unknown role", allowUser: true, email: "ghost@example.com", password: "secret", want: apperrors.CodeInvalidRole},
		{name: "inactive", allowUser: true, email: "frozen@example.com", password: "secret", want: apperrors.CodeAccountInactive},
		{name: "user on admin-only portal", allowUser: false, email: "user@example.com", password: "secret", want: apperrors.CodePortalAccessDenied},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m, _ := newTestManager(t, Config{AllowUserLogin: tc.allowUser})
			_, _, err := m.Login(context.Background(), tc.email, tc.password)
			if got := apperrors.CodeOf(err); got != tc.want {
				t.Fatalf("code = %q, want %q (err=%v)", got, tc.want, err)
			}
			if m.Len() != 0 {
				t.Fatalf("sessions = %d, want 0", m.Len())
			}
		})
	}
}

func TestLoginUnknownRoleIsLoggedAtWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	m, _ := newTestManager(t, Config{}, WithLogger(logger))

	if _, _, err := m.Login(context.Background(), "ghost@example.com", "secret"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("err = %v, want ErrInvalidRole", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "role=Owner") {
		t.Fatalf("log = %q", out)
	}
}

func TestLoginFailsWhenRecordCannotBePersisted(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{}, WithRecordStore(&fakeRecords{failPut: errors.New("disk full")}))
	if _, _, err := m.Login(context.Background(), "admin@example.com", "secret"); err == nil {
		t.Fatal("expected error")
	}
	if m.Len() != 0 {
		t.Fatalf("sessions = %d, want 0", m.Len())
	}
}

func TestResolveAndNavigate(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	ctx := context.Background()
	sess, token, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	view := navigation.View{Page: navigation.PageExercises, Module: navigation.ModuleReading, Mode: navigation.ModeList}
	if err := m.Navigate(sess.ID, view); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	got, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ID != sess.ID || got.View != view {
		t.Fatalf("resolved = %+v", got)
	}
	if err := m.Navigate("missing", view); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("navigate missing err = %v", err)
	}
}

func TestSessionsArePerLogin(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	ctx := context.Background()
	first, _, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	second, _, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct sessions")
	}
	_ = m.Navigate(first.ID, navigation.View{Page: navigation.PageUsers})
	got, _ := m.Get(second.ID)
	if got.View.Page != navigation.PageDashboard {
		t.Fatalf("second session view = %+v, want dashboard", got.View)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	other, _ := newTestManager(t, Config{Secret: []byte("other-secret")})
	ctx := context.Background()
	_, foreign, err := other.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for _, token := range []string{"", "garbage", foreign} {
		if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("resolve(%q) err = %v, want ErrSessionNotFound", token, err)
		}
	}
}

func TestResolveExpiredSession(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	m, c := newTestManager(t, Config{TTL: time.Hour}, WithRecordStore(records))
	ctx := context.Background()
	_, token, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	c.t = c.t.Add(2 * time.Hour)
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	recorder := &fakeRecorder{}
	m, _ := newTestManager(t, Config{}, WithRecordStore(records), WithRecorder(recorder))
	ctx := context.Background()
	sess, token, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := m.Logout(ctx, sess.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("resolve after logout err = %v", err)
	}
	if err := m.Logout(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second logout err = %v", err)
	}
	if len(records.ended) != 1 || records.ended[0] != sess.ID {
		t.Fatalf("ended = %v", records.ended)
	}
	if recorder.active != 0 {
		t.Fatalf("active = %d, want 0", recorder.active)
	}
}

func TestSweepRemovesExpiredSessions(t *testing.T) {
	t.Parallel()

	m, c := newTestManager(t, Config{TTL: time.Hour})
	ctx := context.Background()
	if _, _, err := m.Login(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	c.t = c.t.Add(30 * time.Minute)
	if _, _, err := m.Login(ctx, "root@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	c.t = c.t.Add(45 * time.Minute)
	if removed := m.Sweep(ctx); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
}

func TestUpdatePrincipal(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	sess, _, err := m.Login(context.Background(), "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	updated := sess.Principal
	updated.Role = authz.RoleEditor
	m.UpdatePrincipal(context.Background(), updated)
	got, _ := m.Get(sess.ID)
	if got.Principal.Role != authz.RoleEditor {
		t.Fatalf("role = %q, want Editor", got.Principal.Role)
	}
}

func TestUpdatePrincipalEndsInactiveSessions(t *testing.T) {
	t.Parallel()

	records := &fakeRecords{}
	recorder := &fakeRecorder{}
	m, _ := newTestManager(t, Config{}, WithRecordStore(records), WithRecorder(recorder))
	ctx := context.Background()
	sess, token, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	deactivated := sess.Principal
	deactivated.Active = false
	m.UpdatePrincipal(ctx, deactivated)

	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("resolve err = %v, want ErrSessionNotFound", err)
	}
	if m.Len() != 0 || recorder.active != 0 {
		t.Fatalf("len = %d active = %d, want 0", m.Len(), recorder.active)
	}
	if len(records.ended) != 1 || records.ended[0] != sess.ID {
		t.Fatalf("ended records = %v", records.ended)
	}
}

func TestEndPrincipalClosesEverySession(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	ctx := context.Background()
	var tokens []string
	for range 2 {
		_, token, err := m.Login(ctx, "admin@example.com", "secret")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		tokens = append(tokens, token)
	}
	_, rootToken, err := m.Login(ctx, "root@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if ended := m.EndPrincipal(ctx, "u-admin"); ended != 2 {
		t.Fatalf("ended = %d, want 2", ended)
	}
	for _, token := range tokens {
		if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("resolve err = %v, want ErrSessionNotFound", err)
		}
	}
	if _, err := m.Resolve(ctx, rootToken); err != nil {
		t.Fatalf("other principal lost its session: %v", err)
	}
	if ended := m.EndPrincipal(ctx, ""); ended != 0 {
		t.Fatalf("blank principal ended %d sessions", ended)
	}
}

func TestResolveRejectsInactivePrincipal(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, Config{})
	ctx := context.Background()
	sess, token, err := m.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	m.store.update(sess.ID, func(s *Session) { s.Principal.Active = false })

	if _, err := m.Resolve(ctx, token); !errors.Is(err, ErrInactive) {
		t.Fatalf("resolve err = %v, want ErrInactive", err)
	}
	if m.Len() != 0 {
		t.Fatalf("len = %d, want 0", m.Len())
	}
}

func TestAuthenticatorErrorsPropagate(t *testing.T) {
	t.Parallel()

	unavailable := apperrors.New(apperrors.CodeRemoteUnavailable, "backend down")
	recorder := &fakeRecorder{}
	m, err := NewManager(Config{Secret: []byte("s")}, fakeAuth{err: unavailable}, WithRecorder(recorder))
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, _, err := m.Login(context.Background(), "a@b", "secret"); !errors.Is(err, unavailable) {
		t.Fatalf("err = %v", err)
	}
	if len(recorder.logins) != 1 || recorder.logins[0] != "unavailable" {
		t.Fatalf("logins = %v", recorder.logins)
	}
}
