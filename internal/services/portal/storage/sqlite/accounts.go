package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const accountColumns = `id, first_name, last_name, email, password_hash, role, active,
referral_code, referred_by, discount_percent, created_by, created_at,
edited_by, edited_at, deleted_by, deleted_at`

// PutAccount inserts or replaces an account.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(account.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	var discount sql.NullInt64
	if account.DiscountPercent != nil {
		discount = sql.NullInt64{Int64: int64(*account.DiscountPercent), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO accounts (`+accountColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    first_name = excluded.first_name,
    last_name = excluded.last_name,
    email = excluded.email,
    password_hash = excluded.password_hash,
    role = excluded.role,
    active = excluded.active,
    referral_code = excluded.referral_code,
    referred_by = excluded.referred_by,
    discount_percent = excluded.discount_percent,
    edited_by = excluded.edited_by,
    edited_at = excluded.edited_at,
    deleted_by = excluded.deleted_by,
    deleted_at = excluded.deleted_at`,
		account.ID, account.FirstName, account.LastName, strings.TrimSpace(account.Email),
		account.PasswordHash, account.Role, boolInt(account.Active),
		account.ReferralCode, account.ReferredBy, discount,
		account.CreatedBy, toMillis(account.CreatedAt),
		account.EditedBy, nullMillis(account.EditedAt),
		account.DeletedBy, nullMillis(account.DeletedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// GetAccount returns an account by ID, including soft-deleted ones.
func (s *Store) GetAccount(ctx context.Context, id string) (storage.Account, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Account{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if err != nil {
		return storage.Account{}, notFound(err)
	}
	return account, nil
}

// GetAccountByEmail returns the non-deleted account with email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (storage.Account, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Account{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower(?) AND deleted_at IS NULL`,
		strings.TrimSpace(email))
	account, err := scanAccount(row)
	if err != nil {
		return storage.Account{}, notFound(err)
	}
	return account, nil
}

// ListAccounts returns non-deleted accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, query storage.AccountQuery) (storage.AccountPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.AccountPage{}, err
	}
	clauses := []string{"deleted_at IS NULL"}
	var params []any
	if needle := strings.TrimSpace(query.NameContains); needle != "" {
		clauses = append(clauses, "instr(lower(first_name || ' ' || last_name), lower(?)) > 0")
		params = append(params, needle)
	}
	cond, err := query.Filter.SQL()
	if err != nil {
		return storage.AccountPage{}, err
	}
	clauses = append(clauses, cond.Clause)
	params = append(params, cond.Params...)

	limit, limitParams := limitClause(query.Offset, query.Limit)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts`+where(clauses)+` ORDER BY created_at, id`+limit,
		append(params, limitParams...)...)
	if err != nil {
		return storage.AccountPage{}, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []storage.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return storage.AccountPage{}, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return storage.AccountPage{}, fmt.Errorf("iterate accounts: %w", err)
	}
	n, more, next := pageBounds(len(accounts), query.Offset, query.Limit)
	return storage.AccountPage{Accounts: accounts[:n], HasMore: more, NextOffset: next}, nil
}

// SuperAdminExists reports whether a live SuperAdmin other than exceptID exists.
func (s *Store) SuperAdminExists(ctx context.Context, exceptID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var count int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE role = ? AND deleted_at IS NULL AND id != ?`,
		string(authz.RoleSuperAdmin), exceptID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count super admins: %w", err)
	}
	return count > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (storage.Account, error) {
	var (
		a                   storage.Account
		active              int
		discount            sql.NullInt64
		createdAt           int64
		editedAt, deletedAt sql.NullInt64
	)
	if err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash, &a.Role, &active,
		&a.ReferralCode, &a.ReferredBy, &discount, &a.CreatedBy, &createdAt,
		&a.EditedBy, &editedAt, &a.DeletedBy, &deletedAt,
	); err != nil {
		return storage.Account{}, err
	}
	a.Active = active != 0
	if discount.Valid {
		v := int(discount.Int64)
		a.DiscountPercent = &v
	}
	a.CreatedAt = fromMillis(createdAt)
	a.EditedAt = timePtr(editedAt)
	a.DeletedAt = timePtr(deletedAt)
	return a, nil
}
