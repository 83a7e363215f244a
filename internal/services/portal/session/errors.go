package session

import apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid email or password")
	// ErrInactive is returned when the principal is disabled.
	ErrInactive = apperrors.New(apperrors.CodeAccountInactive, "account is inactive")
	// ErrInvalidRole is returned when the principal's role cannot be mapped.
	ErrInvalidRole = apperrors.New(apperrors.CodeInvalidRole, "account role is not recognized")
	// ErrSessionNotFound is returned for unknown or destroyed sessions.
	ErrSessionNotFound = apperrors.New(apperrors.CodeSessionNotFound, "session not found")
	// ErrSessionExpired is returned when the session TTL has elapsed.
	ErrSessionExpired = apperrors.New(apperrors.CodeSessionExpired, "session expired")
	// ErrPortalAccessDenied is returned when the portal does not admit the
	// principal's role.
	ErrPortalAccessDenied = apperrors.New(apperrors.CodePortalAccessDenied, "portal access denied")
)
