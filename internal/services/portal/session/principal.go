package session

import (
	"context"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
)

// Principal is the authenticated identity behind a session.
type Principal struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Role        authz.Role `json:"role"`
	Active      bool       `json:"active"`
}

// Target returns the principal as an authorization target.
func (p Principal) Target() authz.Target {
	return authz.Target{ID: p.ID, Role: p.Role}
}

// Authenticator verifies credentials and returns the matching principal.
// The returned role may be any label the backend uses; Manager.Login
// normalizes it and rejects labels it cannot map.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (Principal, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, email, password string) (Principal, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, email, password string) (Principal, error) {
	return f(ctx, email, password)
}
