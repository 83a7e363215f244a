// Package memory provides an in-process portal store.
//
// It backs tests and the PORTAL_STORAGE=memory mode. Writes are
// last-write-wins and nothing is shared across processes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// Store keeps portal records in maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]storage.Account
	exercises map[string]storage.Exercise
	answers   map[answerKey]storage.Answer
	activity  []storage.ActivityEntry
	sessions  map[string]storage.SessionRecord
}

type answerKey struct {
	principalID string
	exerciseID  string
	taskID      string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:  make(map[string]storage.Account),
		exercises: make(map[string]storage.Exercise),
		answers:   make(map[answerKey]storage.Answer),
		sessions:  make(map[string]storage.SessionRecord),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// PutAccount inserts or replaces an account. Emails are unique among
// non-deleted accounts, compared case-insensitively.
func (s *Store) PutAccount(ctx context.Context, account storage.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.accounts {
		if id != account.ID && existing.DeletedAt == nil && account.DeletedAt == nil &&
			strings.EqualFold(existing.Email, account.Email) {
			return storage.ErrEmailTaken
		}
	}
	s.accounts[account.ID] = cloneAccount(account)
	return nil
}

// GetAccount returns an account by ID, including soft-deleted ones.
func (s *Store) GetAccount(ctx context.Context, id string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	return cloneAccount(account), nil
}

// GetAccountByEmail returns the non-deleted account with email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (storage.Account, error) {
	if err := ctx.Err(); err != nil {
		return storage.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.DeletedAt == nil && strings.EqualFold(account.Email, strings.TrimSpace(email)) {
			return cloneAccount(account), nil
		}
	}
	return storage.Account{}, storage.ErrNotFound
}

// ListAccounts returns non-deleted accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, query storage.AccountQuery) (storage.AccountPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountPage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query.NameContains))
	var matched []storage.Account
	for _, account := range s.accounts {
		if account.DeletedAt != nil {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(account.FullName()), needle) {
			continue
		}
		ok, err := query.Filter.Match(accountResolver(account))
		if err != nil {
			return storage.AccountPage{}, err
		}
		if ok {
			matched = append(matched, cloneAccount(account))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	items, next, more := paginate(matched, query.Offset, query.Limit)
	return storage.AccountPage{Accounts: items, NextOffset: next, HasMore: more}, nil
}

// SuperAdminExists reports whether a live SuperAdmin other than exceptID exists.
func (s *Store) SuperAdminExists(ctx context.Context, exceptID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, account := range s.accounts {
		if id != exceptID && account.DeletedAt == nil && account.Role == string(authz.RoleSuperAdmin) {
			return true, nil
		}
	}
	return false, nil
}

func accountResolver(account storage.Account) func(string) (any, bool) {
	return func(name string) (any, bool) {
		switch name {
		case "role":
			return account.Role, true
		case "status":
			return account.Status(), true
		case "email":
			return account.Email, true
		case "discount":
			if account.DiscountPercent == nil {
				return 0, true
			}
			return *account.DiscountPercent, true
		case "created_at":
			return account.CreatedAt, true
		default:
			return nil, false
		}
	}
}

// PutExercise inserts or replaces an exercise.
func (s *Store) PutExercise(ctx context.Context, exercise storage.Exercise) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[exercise.ID] = cloneExercise(exercise)
	return nil
}

// GetExercise returns an exercise by ID.
func (s *Store) GetExercise(ctx context.Context, id string) (storage.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return storage.Exercise{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	exercise, ok := s.exercises[id]
	if !ok {
		return storage.Exercise{}, storage.ErrNotFound
	}
	return cloneExercise(exercise), nil
}

// DeleteExercise removes an exercise and its answers.
func (s *Store) DeleteExercise(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.exercises[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.exercises, id)
	for key := range s.answers {
		if key.exerciseID == id {
			delete(s.answers, key)
		}
	}
	return nil
}

// ListExercises returns exercises of one type ordered by creation time.
func (s *Store) ListExercises(ctx context.Context, query storage.ExerciseQuery) (storage.ExercisePage, error) {
	if err := ctx.Err(); err != nil {
		return storage.ExercisePage{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query.TitleContains))
	var matched []storage.Exercise
	for _, exercise := range s.exercises {
		if query.Type != "" && exercise.Type != query.Type {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(exercise.Title), needle) {
			continue
		}
		ok, err := query.Filter.Match(exerciseResolver(exercise))
		if err != nil {
			return storage.ExercisePage{}, err
		}
		if ok {
			matched = append(matched, cloneExercise(exercise))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	items, next, more := paginate(matched, query.Offset, query.Limit)
	return storage.ExercisePage{Exercises: items, NextOffset: next, HasMore: more}, nil
}

// CountExercises returns the number of exercises per type.
func (s *Store) CountExercises(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, exercise := range s.exercises {
		counts[exercise.Type]++
	}
	return counts, nil
}

func exerciseResolver(exercise storage.Exercise) func(string) (any, bool) {
	return func(name string) (any, bool) {
		switch name {
		case "title":
			return exercise.Title, true
		case "allowed_minutes":
			return exercise.AllowedMinutes, true
		case "created_by":
			return exercise.CreatedBy, true
		case "created_at":
			return exercise.CreatedAt, true
		default:
			return nil, false
		}
	}
}

// PutAnswer inserts or replaces a draft answer.
func (s *Store) PutAnswer(ctx context.Context, answer storage.Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	answer.Payload = append([]byte(nil), answer.Payload...)
	s.answers[answerKey{answer.PrincipalID, answer.ExerciseID, answer.TaskID}] = answer
	return nil
}

// GetAnswer returns one draft answer.
func (s *Store) GetAnswer(ctx context.Context, principalID, exerciseID, taskID string) (storage.Answer, error) {
	if err := ctx.Err(); err != nil {
		return storage.Answer{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answers[answerKey{principalID, exerciseID, taskID}]
	if !ok {
		return storage.Answer{}, storage.ErrNotFound
	}
	answer.Payload = append([]byte(nil), answer.Payload...)
	return answer, nil
}

// ListAnswers returns a principal's answers for one exercise ordered by task ID.
func (s *Store) ListAnswers(ctx context.Context, principalID, exerciseID string) ([]storage.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Answer
	for key, answer := range s.answers {
		if key.principalID == principalID && key.exerciseID == exerciseID {
			answer.Payload = append([]byte(nil), answer.Payload...)
			out = append(out, answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

// AppendActivity prepends entry and keeps the newest keep entries.
func (s *Store) AppendActivity(ctx context.Context, entry storage.ActivityEntry, keep int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append([]storage.ActivityEntry{entry}, s.activity...)
	if keep > 0 && len(s.activity) > keep {
		s.activity = s.activity[:keep]
	}
	return nil
}

// ListActivity returns up to limit entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]storage.ActivityEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.activity)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]storage.ActivityEntry, n)
	copy(out, s.activity[:n])
	return out, nil
}

// PutSessionRecord stores a session record.
func (s *Store) PutSessionRecord(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = record
	return nil
}

// EndSessionRecord stamps the end time of a session record.
func (s *Store) EndSessionRecord(ctx context.Context, id string, endedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[id]
	if !ok {
		return storage.ErrNotFound
	}
	ended := endedAt.UTC()
	record.EndedAt = &ended
	s.sessions[id] = record
	return nil
}

// GetSessionRecord returns a session record by ID.
func (s *Store) GetSessionRecord(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.sessions[id]
	if !ok {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func paginate[T any](items []T, offset, limit int) ([]T, int, bool) {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil, 0, false
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	more := end < len(items)
	next := 0
	if more {
		next = end
	}
	return items[offset:end], next, more
}

func cloneAccount(a storage.Account) storage.Account {
	if a.DiscountPercent != nil {
		v := *a.DiscountPercent
		a.DiscountPercent = &v
	}
	if a.EditedAt != nil {
		v := *a.EditedAt
		a.EditedAt = &v
	}
	if a.DeletedAt != nil {
		v := *a.DeletedAt
		a.DeletedAt = &v
	}
	return a
}

func cloneExercise(e storage.Exercise) storage.Exercise {
	e.TasksJSON = append([]byte(nil), e.TasksJSON...)
	return e
}

var _ storage.Store = (*Store)(nil)
