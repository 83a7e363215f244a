package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/filter"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrEmailTaken indicates a unique email constraint violation.
var ErrEmailTaken = apperrors.New(apperrors.CodeAccountEmailTaken, "email already in use")

// Account is a managed account row.
type Account struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	PasswordHash    string
	Role            string
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

// Status is the filterable account state label.
func (a Account) Status() string {
	if a.Active {
		return "active"
	}
	return "inactive"
}

// FullName joins the first and last names.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// AccountFilterSchema declares the fields an account list filter may use.
// Columns name the SQLite schema; the memory store resolves by field name.
var AccountFilterSchema = filter.MustSchema(
	filter.Field{Name: "role", Type: filter.FieldString},
	filter.Field{Name: "status", Type: filter.FieldString, Column: "(CASE WHEN active = 1 THEN 'active' ELSE 'inactive' END)"},
	filter.Field{Name: "email", Type: filter.FieldString},
	filter.Field{Name: "discount", Type: filter.FieldInt, Column: "COALESCE(discount_percent, 0)"},
	filter.Field{Name: "created_at", Type: filter.FieldTimestamp},
)

// AccountQuery selects a page of non-deleted accounts ordered by creation.
type AccountQuery struct {
	// NameContains is a case-insensitive substring of the full name.
	NameContains string
	Filter       *filter.Filter
	Offset       int
	Limit        int
}

// AccountPage is one page of accounts.
type AccountPage struct {
	Accounts   []Account
	NextOffset int
	HasMore    bool
}

// AccountStore persists managed accounts.
type AccountStore interface {
	PutAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	ListAccounts(ctx context.Context, query AccountQuery) (AccountPage, error)
	// SuperAdminExists reports whether a non-deleted SuperAdmin account
	// exists, optionally ignoring one account ID.
	SuperAdminExists(ctx context.Context, exceptID string) (bool, error)
}

// Exercise is an exercise row. Tasks are an opaque JSON document owned by
// the exercise package.
type Exercise struct {
	ID             string
	Type           string
	Title          string
	Description    string
	AllowedMinutes int
	Passage        string
	ImageURL       string
	RecordingURL   string
	TasksJSON      []byte
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedBy      string
	UpdatedAt      time.Time
}

// ExerciseFilterSchema declares the fields an exercise list filter may use.
var ExerciseFilterSchema = filter.MustSchema(
	filter.Field{Name: "title", Type: filter.FieldString},
	filter.Field{Name: "allowed_minutes", Type: filter.FieldInt},
	filter.Field{Name: "created_by", Type: filter.FieldString},
	filter.Field{Name: "created_at", Type: filter.FieldTimestamp},
)

// ExerciseQuery selects a page of exercises of one type.
type ExerciseQuery struct {
	Type          string
	TitleContains string
	Filter        *filter.Filter
	Offset        int
	Limit         int
}

// ExercisePage is one page of exercises.
type ExercisePage struct {
	Exercises  []Exercise
	NextOffset int
	HasMore    bool
}

// ExerciseStore persists exercises.
type ExerciseStore interface {
	PutExercise(ctx context.Context, exercise Exercise) error
	GetExercise(ctx context.Context, id string) (Exercise, error)
	DeleteExercise(ctx context.Context, id string) error
	ListExercises(ctx context.Context, query ExerciseQuery) (ExercisePage, error)
	CountExercises(ctx context.Context) (map[string]int, error)
}

// Answer is a principal's draft answer for one task.
type Answer struct {
	PrincipalID string
	ExerciseID  string
	TaskID      string
	Payload     []byte
	UpdatedAt   time.Time
}

// AnswerStore persists draft answers keyed by principal, exercise and task.
type AnswerStore interface {
	PutAnswer(ctx context.Context, answer Answer) error
	GetAnswer(ctx context.Context, principalID, exerciseID, taskID string) (Answer, error)
	ListAnswers(ctx context.Context, principalID, exerciseID string) ([]Answer, error)
}

// ActivityEntry is one dashboard activity line.
type ActivityEntry struct {
	ID        string
	Actor     string
	Message   string
	CreatedAt time.Time
}

// ActivityStore persists the activity log. AppendActivity trims the log to
// the newest keep entries.
type ActivityStore interface {
	AppendActivity(ctx context.Context, entry ActivityEntry, keep int) error
	ListActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
}

// SessionRecord is the durable trace of one login session.
type SessionRecord struct {
	ID          string
	PrincipalID string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	EndedAt     *time.Time
}

// SessionRecordStore persists session records for auditing.
type SessionRecordStore interface {
	PutSessionRecord(ctx context.Context, record SessionRecord) error
	EndSessionRecord(ctx context.Context, id string, endedAt time.Time) error
	GetSessionRecord(ctx context.Context, id string) (SessionRecord, error)
}

// Store is a composite interface for portal storage concerns.
type Store interface {
	AccountStore
	ExerciseStore
	AnswerStore
	ActivityStore
	SessionRecordStore
	Close() error
}

const pageTokenPrefix = "offset:"

// EncodePageToken returns the opaque token for offset. Zero yields "".
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(pageTokenPrefix + strconv.Itoa(offset)))
}

// DecodePageToken parses a token produced by EncodePageToken.
func DecodePageToken(token string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, invalidToken(err)
	}
	value, ok := strings.CutPrefix(string(raw), pageTokenPrefix)
	if !ok {
		return 0, invalidToken(errors.New("missing prefix"))
	}
	offset, err := strconv.Atoi(value)
	if err != nil || offset < 0 {
		return 0, invalidToken(fmt.Errorf("bad offset %q", value))
	}
	return offset, nil
}

func invalidToken(cause error) error {
	return apperrors.Wrap(apperrors.CodeInvalidPageToken, "invalid page token", cause)
}

// PageLimit clamps a requested page size.
func PageLimit(requested, fallback, max int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > max {
		return max
	}
	return requested
}
