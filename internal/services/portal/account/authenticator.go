package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// LocalAuthenticator checks credentials against bcrypt hashes in the account
// store.
type LocalAuthenticator struct {
	store storage.AccountStore
}

// NewLocalAuthenticator builds an authenticator over store.
func NewLocalAuthenticator(store storage.AccountStore) *LocalAuthenticator {
	return &LocalAuthenticator{store: store}
}

// Authenticate implements session.Authenticator.
func (a *LocalAuthenticator) Authenticate(ctx context.Context, email, password string) (session.Principal, error) {
	record, err := a.store.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return session.Principal{}, session.ErrInvalidCredentials
	}
	if err != nil {
		return session.Principal{}, fmt.Errorf("lookup account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return session.Principal{}, session.ErrInvalidCredentials
	}
	return session.Principal{
		ID:          record.ID,
		DisplayName: record.FullName(),
		Email:       record.Email,
		Role:        authz.Role(record.Role),
		Active:      record.Active,
	}, nil
}

var _ session.Authenticator = (*LocalAuthenticator)(nil)

// PrincipalOf returns the session principal for account.
func PrincipalOf(account Account) session.Principal {
	return session.Principal{
		ID:          account.ID,
		DisplayName: account.FullName(),
		Email:       account.Email,
		Role:        account.Role,
		Active:      account.Active,
	}
}
