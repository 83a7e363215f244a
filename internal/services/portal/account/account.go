// Package account manages portal accounts and the authorization checks that
// guard them.
package account

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^\S+@\S+$`)

// Account is a managed portal account.
type Account struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	PasswordHash    string
	Role            authz.Role
	Active          bool
	ReferralCode    string
	ReferredBy      string
	DiscountPercent *int
	CreatedBy       string
	CreatedAt       time.Time
	EditedBy        string
	EditedAt        *time.Time
	DeletedBy       string
	DeletedAt       *time.Time
}

// FullName returns "First Last".
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Deleted reports whether the account was soft deleted.
func (a Account) Deleted() bool {
	return a.DeletedAt != nil
}

// Target returns the account as an authorization target.
func (a Account) Target() authz.Target {
	return authz.Target{ID: a.ID, Role: a.Role}
}

// Input is the editable part of an account.
type Input struct {
	FirstName string
	LastName  string
	Email     string
	// Password is required on create. On update a blank password keeps the
	// current hash.
	Password        string
	Role            string
	Active          bool
	ReferralCode    string
	ReferredBy      string
	DiscountPercent *int
}

type validInput struct {
	Input
	role authz.Role
}

func (in Input) validate(creating bool) (validInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.ReferralCode = strings.TrimSpace(in.ReferralCode)
	in.ReferredBy = strings.TrimSpace(in.ReferredBy)

	if in.FirstName == "" {
		return validInput{}, apperrors.New(apperrors.CodeAccountFirstNameRequired, "first name is required")
	}
	if in.LastName == "" {
		return validInput{}, apperrors.New(apperrors.CodeAccountLastNameRequired, "last name is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return validInput{}, apperrors.New(apperrors.CodeAccountEmailInvalid, "email address is invalid")
	}
	if in.Password == "" && creating {
		return validInput{}, apperrors.New(apperrors.CodeAccountPasswordRequired, "password is required")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return validInput{}, apperrors.WithMetadata(apperrors.CodeAccountPasswordTooShort, "password is too short",
			map[string]string{"min": "6"})
	}
	if in.DiscountPercent != nil && (*in.DiscountPercent < 0 || *in.DiscountPercent > 100) {
		return validInput{}, apperrors.New(apperrors.CodeAccountDiscountRange, "discount must be between 0 and 100")
	}
	role, ok := authz.ParseRole(in.Role)
	if !ok {
		return validInput{}, apperrors.WithMetadata(apperrors.CodeInvalidRole, "role is not recognized",
			map[string]string{"role": in.Role})
	}
	return validInput{Input: in, role: role}, nil
}

func fromRecord(r storage.Account) Account {
	role, ok := authz.ParseRole(r.Role)
	if !ok {
		role = authz.RoleUnknown
	}
	return Account{
		ID:              r.ID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		PasswordHash:    r.PasswordHash,
		Role:            role,
		Active:          r.Active,
		ReferralCode:    r.ReferralCode,
		ReferredBy:      r.ReferredBy,
		DiscountPercent: r.DiscountPercent,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		EditedBy:        r.EditedBy,
		EditedAt:        r.EditedAt,
		DeletedBy:       r.DeletedBy,
		DeletedAt:       r.DeletedAt,
	}
}

func (a Account) record() storage.Account {
	return storage.Account{
		ID:              a.ID,
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		PasswordHash:    a.PasswordHash,
		Role:            string(a.Role),
		Active:          a.Active,
		ReferralCode:    a.ReferralCode,
		ReferredBy:      a.ReferredBy,
		DiscountPercent: a.DiscountPercent,
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		EditedBy:        a.EditedBy,
		EditedAt:        a.EditedAt,
		DeletedBy:       a.DeletedBy,
		DeletedAt:       a.DeletedAt,
	}
}
