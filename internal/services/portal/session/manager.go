package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/id"
	"github.com/louisbranch/ieltsportal/internal/platform/requestctx"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const defaultTTL = 12 * time.Hour

// Session is one authenticated browser session.
type Session struct {
	ID        string
	Principal Principal
	View      navigation.View
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RecordStore persists durable session records.
type RecordStore interface {
	PutSessionRecord(ctx context.Context, record storage.SessionRecord) error
	EndSessionRecord(ctx context.Context, id string, endedAt time.Time) error
}

// Recorder receives login outcomes and session count changes.
// *metrics.Metrics implements it.
type Recorder interface {
	LoginAttempted(outcome string)
	SessionsChanged(delta int)
}

// Config configures a Manager.
type Config struct {
	Secret []byte
	TTL    time.Duration
	// AllowUserLogin admits principals with the User role.
	AllowUserLogin bool
	// InitialView is the view a new session starts on.
	InitialView navigation.View
	Now         func() time.Time
}

// Manager creates, resolves and destroys sessions.
type Manager struct {
	auth      Authenticator
	records   RecordStore
	logger    *slog.Logger
	recorder  Recorder
	store     *memoryStore
	signer    tokenSigner
	ttl       time.Duration
	allowUser bool
	initial   navigation.View
	now       func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRecordStore persists session records to store.
func WithRecordStore(store RecordStore) Option {
	return func(m *Manager) { m.records = store }
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(m *Manager) { m.recorder = recorder }
}

// NewManager builds a session manager.
func NewManager(cfg Config, auth Authenticator, opts ...Option) (*Manager, error) {
	if auth == nil {
		return nil, errors.New("authenticator is required")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.InitialView.Page == "" {
		cfg.InitialView = navigation.View{Page: navigation.PageDashboard}
	}
	m := &Manager{
		auth:      auth,
		logger:    slog.New(slog.DiscardHandler),
		store:     newMemoryStore(),
		signer:    tokenSigner{secret: cfg.Secret, now: cfg.Now},
		ttl:       cfg.TTL,
		allowUser: cfg.AllowUserLogin,
		initial:   cfg.InitialView,
		now:       cfg.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Login authenticates credentials and opens a session. It returns the
// session and its signed token.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		m.loginOutcome("invalid")
		return Session{}, "", ErrInvalidCredentials
	}
	principal, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		m.loginOutcome(loginOutcomeFor(err))
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			m.logger.ErrorContext(ctx, "authenticate", append(requestctx.LogAttrs(ctx), "error", err)...)
		}
		return Session{}, "", err
	}

	role, ok := authz.ParseRole(string(principal.Role))
	if !ok {
		m.loginOutcome("invalid_role")
		m.logger.WarnContext(ctx, "login rejected: unknown role",
			append(requestctx.LogAttrs(ctx), "principal_id", principal.ID, "role", string(principal.Role))...)
		return Session{}, "", ErrInvalidRole
	}
	principal.Role = role
	if !principal.Active {
		m.loginOutcome("inactive")
		return Session{}, "", ErrInactive
	}
	if role == authz.RoleUser && !m.allowUser {
		m.loginOutcome("denied")
		m.logger.InfoContext(ctx, "login rejected: portal is admin only", "principal_id", principal.ID)
		return Session{}, "", ErrPortalAccessDenied
	}

	sessionID, err := id.NewID()
	if err != nil {
		return Session{}, "", fmt.Errorf("generate session id: %w", err)
	}
	now := m.now().UTC()
	sess := Session{
		ID:        sessionID,
		Principal: principal,
		View:      m.initial,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	token, err := m.signer.sign(sess)
	if err != nil {
		return Session{}, "", err
	}
	if m.records != nil {
		record := storage.SessionRecord{ID: sess.ID, PrincipalID: principal.ID, CreatedAt: sess.CreatedAt, ExpiresAt: sess.ExpiresAt}
		if err := m.records.PutSessionRecord(ctx, record); err != nil {
			m.logger.ErrorContext(ctx, "persist session record", "session_id", sess.ID, "error", err)
			return Session{}, "", fmt.Errorf("persist session record: %w", err)
		}
	}
	m.store.put(sess)
	m.loginOutcome("success")
	m.sessionsChanged(1)
	m.logger.InfoContext(ctx, "session opened", "session_id", sess.ID, "principal_id", principal.ID, "role", string(role))
	return sess, token, nil
}

// Resolve verifies token and returns the live session it names.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	sessionID, principalID, err := m.signer.verify(token)
	if err != nil {
		return Session{}, err
	}
	sess, ok := m.store.get(sessionID)
	if !ok || sess.Principal.ID != principalID {
		return Session{}, ErrSessionNotFound
	}
	if !m.now().Before(sess.ExpiresAt) {
		m.end(ctx, sessionID)
		return Session{}, ErrSessionExpired
	}
	if !sess.Principal.Active {
		m.end(ctx, sessionID)
		return Session{}, ErrInactive
	}
	return sess, nil
}

// Get returns the live session with id.
func (m *Manager) Get(sessionID string) (Session, error) {
	sess, ok := m.store.get(sessionID)
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Navigate stores view as the session's current view.
func (m *Manager) Navigate(sessionID string, view navigation.View) error {
	if !m.store.update(sessionID, func(sess *Session) { sess.View = view }) {
		return ErrSessionNotFound
	}
	return nil
}

// UpdatePrincipal refreshes the principal of every session held by
// principal.ID. Used after an account edit changes the name or role. An
// inactive principal loses its sessions instead.
func (m *Manager) UpdatePrincipal(ctx context.Context, principal Principal) {
	if !principal.Active {
		m.EndPrincipal(ctx, principal.ID)
		return
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, sess := range m.store.sessions {
		if sess.Principal.ID == principal.ID {
			sess.Principal = principal
		}
	}
}

// EndPrincipal destroys every session held by principalID and returns how
// many were ended.
func (m *Manager) EndPrincipal(ctx context.Context, principalID string) int {
	if principalID == "" {
		return 0
	}
	removed := m.store.deletePrincipal(principalID)
	for _, sessionID := range removed {
		m.endRecord(ctx, sessionID)
	}
	if len(removed) > 0 {
		m.sessionsChanged(-len(removed))
		m.logger.InfoContext(ctx, "principal sessions closed", "principal_id", principalID, "count", len(removed))
	}
	return len(removed)
}

// Logout destroys the session.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if !m.end(ctx, sessionID) {
		return ErrSessionNotFound
	}
	m.logger.InfoContext(ctx, "session closed", "session_id", sessionID)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.store.len()
}

// Sweep removes expired sessions.
func (m *Manager) Sweep(ctx context.Context) int {
	removed := m.store.expire(m.now())
	for _, sessionID := range removed {
		m.endRecord(ctx, sessionID)
	}
	if len(removed) > 0 {
		m.sessionsChanged(-len(removed))
		m.logger.DebugContext(ctx, "expired sessions swept", "count", len(removed))
	}
	return len(removed)
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	sweep(ctx, interval, func() { m.Sweep(ctx) })
}

func (m *Manager) end(ctx context.Context, sessionID string) bool {
	if !m.store.delete(sessionID) {
		return false
	}
	m.sessionsChanged(-1)
	m.endRecord(ctx, sessionID)
	return true
}

func (m *Manager) endRecord(ctx context.Context, sessionID string) {
	if m.records == nil {
		return
	}
	if err := m.records.EndSessionRecord(ctx, sessionID, m.now().UTC()); err != nil && !errors.Is(err, storage.ErrNotFound) {
		m.logger.ErrorContext(ctx, "end session record", "session_id", sessionID, "error", err)
	}
}

func (m *Manager) loginOutcome(outcome string) {
	if m.recorder != nil {
		m.recorder.LoginAttempted(outcome)
	}
}

func (m *Manager) sessionsChanged(delta int) {
	if m.recorder != nil {
		m.recorder.SessionsChanged(delta)
	}
}

func loginOutcomeFor(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidCredentials:
		return "invalid"
	case apperrors.CodeAccountInactive:
		return "inactive"
	case apperrors.CodeRemoteUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}
