package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/id"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	systemActor     = "system"
)

// ErrSuperAdminExists is returned by BootstrapSuperAdmin when the portal
// already has a SuperAdmin.
var ErrSuperAdminExists = apperrors.New(apperrors.CodeSuperAdminBootstrap, "a super admin already exists")

// ActivityRecorder records dashboard activity lines.
type ActivityRecorder interface {
	Record(ctx context.Context, actor, message string) error
}

// DecisionRecorder receives authorization outcomes. *metrics.Metrics
// implements it.
type DecisionRecorder interface {
	AuthzDecided(operation, reason string)
}

// Service implements managed account operations.
type Service struct {
	store    storage.AccountStore
	activity ActivityRecorder
	recorder DecisionRecorder
	logger   *slog.Logger
	now      func() time.Time
	cost     int
}

// Option customizes a Service.
type Option func(*Service)

// WithActivity records account changes to recorder.
func WithActivity(recorder ActivityRecorder) Option {
	return func(s *Service) { s.activity = recorder }
}

// WithDecisionRecorder reports authorization decisions to recorder.
func WithDecisionRecorder(recorder DecisionRecorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService builds an account service over store.
func NewService(store storage.AccountStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOptions selects a page of accounts.
type ListOptions struct {
	// Query matches a case-insensitive substring of the full name.
	Query string
	// Filter is an AIP-160 expression over role, status, email, discount
	// and created_at.
	Filter    string
	PageSize  int
	PageToken string
}

// ListResult is one page of accounts.
type ListResult struct {
	Accounts      []Account
	NextPageToken string
}

// List returns non-deleted accounts.
func (s *Service) List(ctx context.Context, actor session.Principal, opts ListOptions) (ListResult, error) {
	if err := requireActor(actor); err != nil {
		return ListResult{}, err
	}
	offset, err := storage.DecodePageToken(opts.PageToken)
	if err != nil {
		return ListResult{}, err
	}
	parsed, err := storage.AccountFilterSchema.Parse(opts.Filter)
	if err != nil {
		return ListResult{}, apperrors.Wrap(apperrors.CodeInvalidFilter, "invalid filter", err)
	}
	page, err := s.store.ListAccounts(ctx, storage.AccountQuery{
		NameContains: opts.Query,
		Filter:       parsed,
		Offset:       offset,
		Limit:        storage.PageLimit(opts.PageSize, defaultPageSize, maxPageSize),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list accounts: %w", err)
	}
	result := ListResult{Accounts: make([]Account, 0, len(page.Accounts))}
	for _, record := range page.Accounts {
		result.Accounts = append(result.Accounts, fromRecord(record))
	}
	if page.HasMore {
		result.NextPageToken = storage.EncodePageToken(page.NextOffset)
	}
	return result, nil
}

// Get returns a non-deleted account.
func (s *Service) Get(ctx context.Context, actor session.Principal, accountID string) (Account, error) {
	if err := requireActor(actor); err != nil {
		return Account{}, err
	}
	return s.live(ctx, accountID)
}

// Create adds an account on behalf of actor.
func (s *Service) Create(ctx context.Context, actor session.Principal, input Input) (Account, error) {
	if err := requireActor(actor); err != nil {
		return Account{}, err
	}
	valid, err := input.validate(true)
	if err != nil {
		return Account{}, err
	}
	exists, err := s.store.SuperAdminExists(ctx, "")
	if err != nil {
		return Account{}, fmt.Errorf("check super admin: %w", err)
	}
	if decision := s.decide("create", authz.CanCreateAccount(actor.Role, valid.role, exists)); !decision.Allowed {
		return Account{}, denied("create", decision)
	}
	return s.insert(ctx, actor.ID, actor.DisplayName, valid)
}

// Update edits an account on behalf of actor.
func (s *Service) Update(ctx context.Context, actor session.Principal, accountID string, input Input) (Account, error) {
	if err := requireActor(actor); err != nil {
		return Account{}, err
	}
	current, err := s.live(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if decision := s.decide("edit", authz.CanEdit(actor.ID, actor.Role, current.Target())); !decision.Allowed {
		return Account{}, denied("edit", decision)
	}
	valid, err := input.validate(false)
	if err != nil {
		return Account{}, err
	}
	if valid.role != current.Role {
		exists, err := s.store.SuperAdminExists(ctx, current.ID)
		if err != nil {
			return Account{}, fmt.Errorf("check super admin: %w", err)
		}
		decision := s.decide("change_role", authz.CanChangeRole(actor.ID, actor.Role, current.Target(), valid.role, exists))
		if !decision.Allowed {
			return Account{}, denied("change_role", decision)
		}
	}
	if !strings.EqualFold(valid.Email, current.Email) {
		if err := s.ensureEmailFree(ctx, valid.Email); err != nil {
			return Account{}, err
		}
	}

	updated := current
	updated.FirstName = valid.FirstName
	updated.LastName = valid.LastName
	updated.Email = valid.Email
	updated.Role = valid.role
	updated.Active = valid.Active
	updated.ReferredBy = valid.ReferredBy
	updated.DiscountPercent = valid.DiscountPercent
	if valid.ReferralCode != "" {
		updated.ReferralCode = valid.ReferralCode
	}
	if valid.Password != "" {
		hash, err := s.hash(valid.Password)
		if err != nil {
			return Account{}, err
		}
		updated.PasswordHash = hash
	}
	now := s.now().UTC()
	updated.EditedBy = actor.ID
	updated.EditedAt = &now

	if err := s.store.PutAccount(ctx, updated.record()); err != nil {
		return Account{}, s.storeError(ctx, "update account", err)
	}
	s.logger.InfoContext(ctx, "account updated", "account_id", updated.ID, "actor_id", actor.ID, "role", string(updated.Role))
	s.record(ctx, actor.DisplayName, "updated account "+updated.FullName())
	return updated, nil
}

// Delete soft deletes an account on behalf of actor.
func (s *Service) Delete(ctx context.Context, actor session.Principal, accountID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	current, err := s.live(ctx, accountID)
	if err != nil {
		return err
	}
	if decision := s.decide("delete", authz.CanDelete(actor.ID, actor.Role, current.Target())); !decision.Allowed {
		return denied("delete", decision)
	}
	now := s.now().UTC()
	current.DeletedBy = actor.ID
	current.DeletedAt = &now
	if err := s.store.PutAccount(ctx, current.record()); err != nil {
		return s.storeError(ctx, "delete account", err)
	}
	s.logger.InfoContext(ctx, "account deleted", "account_id", current.ID, "actor_id", actor.ID)
	s.record(ctx, actor.DisplayName, "deleted account "+current.FullName())
	return nil
}

// RowPermissions reports which row actions the users table may enable.
type RowPermissions struct {
	CanEdit   bool
	CanDelete bool
}

// Permissions returns the row actions actor may take on account.
func (s *Service) Permissions(actor session.Principal, account Account) RowPermissions {
	return RowPermissions{
		CanEdit:   authz.CanEdit(actor.ID, actor.Role, account.Target()).Allowed,
		CanDelete: authz.CanDelete(actor.ID, actor.Role, account.Target()).Allowed,
	}
}

// AssignableRoles returns the roles actor may pick in the account form.
// editing is the account being edited, or nil on create; its current role
// is always offered.
func (s *Service) AssignableRoles(ctx context.Context, actor session.Principal, editing *Account) []authz.Role {
	exceptID := ""
	if editing != nil {
		exceptID = editing.ID
	}
	exists, err := s.store.SuperAdminExists(ctx, exceptID)
	if err != nil {
		s.logger.ErrorContext(ctx, "check super admin", "error", err)
		exists = true
	}
	var roles []authz.Role
	for _, role := range authz.Roles() {
		if editing != nil && role == editing.Role {
			roles = append(roles, role)
			continue
		}
		if authz.CanCreateAccount(actor.Role, role, exists).Allowed {
			roles = append(roles, role)
		}
	}
	return roles
}

// BootstrapSuperAdmin creates the portal's single SuperAdmin. It is
// reserved for operators and fails once a SuperAdmin exists.
func (s *Service) BootstrapSuperAdmin(ctx context.Context, input Input) (Account, error) {
	input.Role = string(authz.RoleSuperAdmin)
	input.Active = true
	valid, err := input.validate(true)
	if err != nil {
		return Account{}, err
	}
	exists, err := s.store.SuperAdminExists(ctx, "")
	if err != nil {
		return Account{}, fmt.Errorf("check super admin: %w", err)
	}
	if exists {
		return Account{}, ErrSuperAdminExists
	}
	return s.insert(ctx, systemActor, systemActor, valid)
}

func (s *Service) insert(ctx context.Context, actorID, actorName string, valid validInput) (Account, error) {
	if err := s.ensureEmailFree(ctx, valid.Email); err != nil {
		return Account{}, err
	}
	accountID, err := id.NewID()
	if err != nil {
		return Account{}, fmt.Errorf("generate account id: %w", err)
	}
	referral := valid.ReferralCode
	if referral == "" {
		if referral, err = id.NewReferralCode(); err != nil {
			return Account{}, fmt.Errorf("generate referral code: %w", err)
		}
	}
	hash, err := s.hash(valid.Password)
	if err != nil {
		return Account{}, err
	}
	created := Account{
		ID:              accountID,
		FirstName:       valid.FirstName,
		LastName:        valid.LastName,
		Email:           valid.Email,
		PasswordHash:    hash,
		Role:            valid.role,
		Active:          valid.Active,
		ReferralCode:    referral,
		ReferredBy:      valid.ReferredBy,
		DiscountPercent: valid.DiscountPercent,
		CreatedBy:       actorID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.store.PutAccount(ctx, created.record()); err != nil {
		return Account{}, s.storeError(ctx, "create account", err)
	}
	s.logger.InfoContext(ctx, "account created", "account_id", created.ID, "actor_id", actorID, "role", string(created.Role))
	s.record(ctx, actorName, "created account "+created.FullName())
	return created, nil
}

func (s *Service) live(ctx context.Context, accountID string) (Account, error) {
	record, err := s.store.GetAccount(ctx, strings.TrimSpace(accountID))
	if errors.Is(err, storage.ErrNotFound) {
		return Account{}, storage.ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	if record.DeletedAt != nil {
		return Account{}, storage.ErrNotFound
	}
	return fromRecord(record), nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.GetAccountByEmail(ctx, email)
	if err == nil {
		return storage.ErrEmailTaken
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("lookup email: %w", err)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, storage.ErrEmailTaken) {
		return storage.ErrEmailTaken
	}
	s.logger.ErrorContext(ctx, op, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) decide(operation string, decision authz.Decision) authz.Decision {
	if s.recorder != nil {
		s.recorder.AuthzDecided(operation, decision.ReasonCode)
	}
	return decision
}

func (s *Service) record(ctx context.Context, actor, message string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, actor, message); err != nil {
		s.logger.ErrorContext(ctx, "record activity", "error", err)
	}
}

func requireActor(actor session.Principal) error {
	if strings.TrimSpace(actor.ID) == "" || !actor.Role.Valid() {
		return session.ErrSessionNotFound
	}
	return nil
}

func denied(operation string, decision authz.Decision) error {
	return apperrors.WithMetadata(apperrors.CodeAuthzDenied, "operation not permitted", map[string]string{
		"operation": operation,
		"reason":    decision.ReasonCode,
	})
}

// ReasonOf returns the authz reason code carried by a denial.
func ReasonOf(err error) string {
	e, ok := apperrors.As(err)
	if !ok || e.Code != apperrors.CodeAuthzDenied {
		return ""
	}
	return e.Metadata["reason"]
}
