package exercise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Gate answers page access questions. *navigation.Router implements it.
type Gate interface {
	Allowed(role authz.Role, page navigation.Page) bool
	CanManage(role authz.Role, page navigation.Page) bool
}

// ActivityRecorder records dashboard activity lines.
type ActivityRecorder interface {
	Record(ctx context.Context, actor, message string) error
}

// Service implements exercise operations.
type Service struct {
	store    storage.ExerciseStore
	gate     Gate
	activity ActivityRecorder
	logger   *slog.Logger
	now      func() time.Time
	newID    idFunc
}

// Option customizes a Service.
type Option func(*Service)

// WithActivity records exercise changes to recorder.
func WithActivity(recorder ActivityRecorder) Option {
	return func(s *Service) { s.activity = recorder }
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

// NewService builds an exercise service. gate decides which roles may view
// and manage exercises.
func NewService(store storage.ExerciseStore, gate Gate, opts ...Option) *Service {
	s := &Service{
		store:  store,
		gate:   gate,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
		newID:  defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOptions selects a page of exercises.
type ListOptions struct {
	// Query matches a case-insensitive substring of the title.
	Query string
	// Filter is an AIP-160 expression over title, allowed_minutes,
	// created_by and created_at.
	Filter    string
	PageSize  int
	PageToken string
}

// ListResult is one page of exercises.
type ListResult struct {
	Exercises     []Exercise
	NextPageToken string
}

// List returns exercises of type t.
func (s *Service) List(ctx context.Context, actor session.Principal, t Type, opts ListOptions) (ListResult, error) {
	if err := s.requireView(actor); err != nil {
		return ListResult{}, err
	}
	return s.list(ctx, t, opts)
}

// Browse lists exercises of type t for the task view. Any authenticated
// principal may browse.
func (s *Service) Browse(ctx context.Context, actor session.Principal, t Type, opts ListOptions) (ListResult, error) {
	if err := requireActor(actor); err != nil {
		return ListResult{}, err
	}
	return s.list(ctx, t, opts)
}

func (s *Service) list(ctx context.Context, t Type, opts ListOptions) (ListResult, error) {
	if _, ok := ParseType(string(t)); !ok {
		return ListResult{}, apperrors.New(apperrors.CodeExerciseInvalidType, "exercise type is not recognized")
	}
	offset, err := storage.DecodePageToken(opts.PageToken)
	if err != nil {
		return ListResult{}, err
	}
	parsed, err := storage.ExerciseFilterSchema.Parse(opts.Filter)
	if err != nil {
		return ListResult{}, apperrors.Wrap(apperrors.CodeInvalidFilter, "invalid filter", err)
	}
	page, err := s.store.ListExercises(ctx, storage.ExerciseQuery{
		Type:          string(t),
		TitleContains: opts.Query,
		Filter:        parsed,
		Offset:        offset,
		Limit:         storage.PageLimit(opts.PageSize, defaultPageSize, maxPageSize),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list exercises: %w", err)
	}
	result := ListResult{Exercises: make([]Exercise, 0, len(page.Exercises))}
	for _, record := range page.Exercises {
		exercise, err := fromRecord(record)
		if err != nil {
			return ListResult{}, err
		}
		result.Exercises = append(result.Exercises, exercise)
	}
	if page.HasMore {
		result.NextPageToken = storage.EncodePageToken(page.NextOffset)
	}
	return result, nil
}

// Get returns an exercise. Any authenticated principal may read exercises
// so the task view can render them.
func (s *Service) Get(ctx context.Context, actor session.Principal, exerciseID string) (Exercise, error) {
	if err := requireActor(actor); err != nil {
		return Exercise{}, err
	}
	return s.load(ctx, exerciseID)
}

// Create stores a new exercise of type t.
func (s *Service) Create(ctx context.Context, actor session.Principal, t Type, input Exercise) (Exercise, error) {
	if err := s.requireManage(actor, navigation.PageExerciseForm, "create"); err != nil {
		return Exercise{}, err
	}
	if input.Type != "" && input.Type != t {
		return Exercise{}, apperrors.New(apperrors.CodeExerciseTypeImmutable, "exercise type is fixed by its module")
	}
	input.Type = t
	input.ID = ""
	if err := normalizeExercise(&input, s.newID); err != nil {
		return Exercise{}, err
	}
	exerciseID, err := s.newID()
	if err != nil {
		return Exercise{}, fmt.Errorf("generate exercise id: %w", err)
	}
	now := s.now().UTC()
	input.ID = exerciseID
	input.CreatedBy, input.UpdatedBy = actor.ID, actor.ID
	input.CreatedAt, input.UpdatedAt = now, now
	if err := s.save(ctx, input); err != nil {
		return Exercise{}, err
	}
	s.logger.InfoContext(ctx, "exercise created", "exercise_id", input.ID, "type", string(t), "actor_id", actor.ID)
	s.record(ctx, actor, fmt.Sprintf("created %s exercise %q", t, input.Title))
	return input, nil
}

// Update replaces the editable fields and tasks of an exercise. The
// exercise keeps its type.
func (s *Service) Update(ctx context.Context, actor session.Principal, t Type, exerciseID string, input Exercise) (Exercise, error) {
	if err := s.requireManage(actor, navigation.PageExerciseForm, "update"); err != nil {
		return Exercise{}, err
	}
	current, err := s.loadTyped(ctx, t, exerciseID)
	if err != nil {
		return Exercise{}, err
	}
	if input.Type != "" && input.Type != current.Type {
		return Exercise{}, apperrors.New(apperrors.CodeExerciseTypeImmutable, "exercise type is fixed by its module")
	}
	input.ID = current.ID
	input.Type = current.Type
	input.CreatedBy = current.CreatedBy
	input.CreatedAt = current.CreatedAt
	if err := normalizeExercise(&input, s.newID); err != nil {
		return Exercise{}, err
	}
	input.UpdatedBy = actor.ID
	input.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, input); err != nil {
		return Exercise{}, err
	}
	s.logger.InfoContext(ctx, "exercise updated", "exercise_id", input.ID, "actor_id", actor.ID)
	s.record(ctx, actor, fmt.Sprintf("updated %s exercise %q", input.Type, input.Title))
	return input, nil
}

// Delete removes an exercise and its draft answers.
func (s *Service) Delete(ctx context.Context, actor session.Principal, t Type, exerciseID string) error {
	if err := s.requireManage(actor, navigation.PageExercises, "delete"); err != nil {
		return err
	}
	current, err := s.loadTyped(ctx, t, exerciseID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExercise(ctx, current.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		s.logger.ErrorContext(ctx, "delete exercise", "exercise_id", current.ID, "error", err)
		return fmt.Errorf("delete exercise: %w", err)
	}
	s.logger.InfoContext(ctx, "exercise deleted", "exercise_id", current.ID, "actor_id", actor.ID)
	s.record(ctx, actor, fmt.Sprintf("deleted %s exercise %q", current.Type, current.Title))
	return nil
}

// AddTask appends task to an exercise.
func (s *Service) AddTask(ctx context.Context, actor session.Principal, exerciseID string, task Task) (Exercise, error) {
	return s.mutateTasks(ctx, actor, "add_task", exerciseID, func(e *Exercise) error {
		task.ID = ""
		e.Tasks = append(e.Tasks, task)
		return nil
	})
}

// UpdateTask replaces the task with the same ID.
func (s *Service) UpdateTask(ctx context.Context, actor session.Principal, exerciseID string, task Task) (Exercise, error) {
	return s.mutateTasks(ctx, actor, "update_task", exerciseID, func(e *Exercise) error {
		for i := range e.Tasks {
			if e.Tasks[i].ID == task.ID {
				e.Tasks[i] = task
				return nil
			}
		}
		return taskNotFound(task.ID)
	})
}

// RemoveTask removes a task. The last task cannot be removed.
func (s *Service) RemoveTask(ctx context.Context, actor session.Principal, exerciseID, taskID string) (Exercise, error) {
	return s.mutateTasks(ctx, actor, "remove_task", exerciseID, func(e *Exercise) error {
		for i := range e.Tasks {
			if e.Tasks[i].ID == taskID {
				e.Tasks = append(e.Tasks[:i:i], e.Tasks[i+1:]...)
				return nil
			}
		}
		return taskNotFound(taskID)
	})
}

// Counts returns the number of exercises per type.
func (s *Service) Counts(ctx context.Context) (map[Type]int, error) {
	raw, err := s.store.CountExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("count exercises: %w", err)
	}
	counts := make(map[Type]int, len(types))
	for _, t := range types {
		counts[t] = raw[string(t)]
	}
	return counts, nil
}

func (s *Service) mutateTasks(ctx context.Context, actor session.Principal, op, exerciseID string, mutate func(*Exercise) error) (Exercise, error) {
	if err := s.requireManage(actor, navigation.PageExerciseForm, op); err != nil {
		return Exercise{}, err
	}
	current, err := s.load(ctx, exerciseID)
	if err != nil {
		return Exercise{}, err
	}
	if err := mutate(&current); err != nil {
		return Exercise{}, err
	}
	if err := normalizeExercise(&current, s.newID); err != nil {
		return Exercise{}, err
	}
	current.UpdatedBy = actor.ID
	current.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, current); err != nil {
		return Exercise{}, err
	}
	s.logger.InfoContext(ctx, "exercise tasks changed", "exercise_id", current.ID, "op", op, "actor_id", actor.ID)
	return current, nil
}

func (s *Service) load(ctx context.Context, exerciseID string) (Exercise, error) {
	record, err := s.store.GetExercise(ctx, strings.TrimSpace(exerciseID))
	if errors.Is(err, storage.ErrNotFound) {
		return Exercise{}, storage.ErrNotFound
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise: %w", err)
	}
	return fromRecord(record)
}

// loadTyped loads an exercise and hides it when it belongs to another module.
func (s *Service) loadTyped(ctx context.Context, t Type, exerciseID string) (Exercise, error) {
	current, err := s.load(ctx, exerciseID)
	if err != nil {
		return Exercise{}, err
	}
	if current.Type != t {
		return Exercise{}, storage.ErrNotFound
	}
	return current, nil
}

func (s *Service) save(ctx context.Context, e Exercise) error {
	record, err := toRecord(e)
	if err != nil {
		return err
	}
	if err := s.store.PutExercise(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "put exercise", "exercise_id", e.ID, "error", err)
		return fmt.Errorf("put exercise: %w", err)
	}
	return nil
}

func (s *Service) requireView(actor session.Principal) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if s.gate == nil || !s.gate.Allowed(actor.Role, navigation.PageExercises) {
		return denied("list")
	}
	return nil
}

func (s *Service) requireManage(actor session.Principal, page navigation.Page, op string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if s.gate == nil || !s.gate.CanManage(actor.Role, page) {
		return denied(op)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor session.Principal, message string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, actor.DisplayName, message); err != nil {
		s.logger.ErrorContext(ctx, "record activity", "error", err)
	}
}

func requireActor(actor session.Principal) error {
	if strings.TrimSpace(actor.ID) == "" || !actor.Role.Valid() {
		return session.ErrSessionNotFound
	}
	return nil
}

func denied(op string) error {
	return apperrors.WithMetadata(apperrors.CodeAuthzDenied, "operation not permitted", map[string]string{
		"operation": op,
		"reason":    authz.ReasonDenyRankRequired,
	})
}

func taskNotFound(taskID string) error {
	return apperrors.WithMetadata(apperrors.CodeTaskNotFound, "task not found", map[string]string{"task_id": taskID})
}
