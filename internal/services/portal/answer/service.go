package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// ExerciseReader loads exercises for the task view. *exercise.Service
// implements it.
type ExerciseReader interface {
	Get(ctx context.Context, actor session.Principal, exerciseID string) (exercise.Exercise, error)
}

// Service stores draft answers keyed by principal, exercise and task.
type Service struct {
	store     storage.AnswerStore
	exercises ExerciseReader
	now       func() time.Time
}

// NewService builds an answer service. A nil clock uses time.Now.
func NewService(store storage.AnswerStore, exercises ExerciseReader, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, exercises: exercises, now: now}
}

// Sheet is an exercise with the actor's answers, one per task.
type Sheet struct {
	Exercise exercise.Exercise
	Answers  map[string]Answer
}

// Answer returns the stored or blank answer for taskID.
func (s Sheet) Answer(taskID string) Answer {
	if a, ok := s.Answers[taskID]; ok {
		return a
	}
	task, _ := s.Exercise.Task(taskID)
	return Empty(s.Exercise.ID, task)
}

// Complete reports whether the task with taskID is fully answered.
func (s Sheet) Complete(taskID string) bool {
	task, ok := s.Exercise.Task(taskID)
	return ok && Complete(task, s.Answer(taskID))
}

// Open loads an exercise and the actor's draft answers for it.
func (s *Service) Open(ctx context.Context, actor session.Principal, exerciseID string) (Sheet, error) {
	ex, err := s.exercises.Get(ctx, actor, exerciseID)
	if err != nil {
		return Sheet{}, err
	}
	records, err := s.store.ListAnswers(ctx, actor.ID, ex.ID)
	if err != nil {
		return Sheet{}, fmt.Errorf("list answers: %w", err)
	}
	sheet := Sheet{Exercise: ex, Answers: make(map[string]Answer, len(records))}
	for _, record := range records {
		task, ok := ex.Task(record.TaskID)
		if !ok {
			continue
		}
		a, err := decode(record)
		if err != nil {
			return Sheet{}, err
		}
		if a.Type != task.Type {
			// The task changed type after the draft was saved.
			continue
		}
		sheet.Answers[record.TaskID] = a
	}
	return sheet, nil
}

// Save validates and stores a draft answer.
func (s *Service) Save(ctx context.Context, actor session.Principal, exerciseID, taskID string, a Answer) (Answer, error) {
	task, err := s.task(ctx, actor, exerciseID, taskID)
	if err != nil {
		return Answer{}, err
	}
	if err := validate(task, &a); err != nil {
		return Answer{}, err
	}
	return s.put(ctx, actor, exerciseID, task, a)
}

// Toggle applies an MCQ selection to the stored draft.
func (s *Service) Toggle(ctx context.Context, actor session.Principal, exerciseID, taskID, questionID, optionID string) (Answer, error) {
	task, err := s.task(ctx, actor, exerciseID, taskID)
	if err != nil {
		return Answer{}, err
	}
	current, err := s.get(ctx, actor.ID, exerciseID, task)
	if err != nil {
		return Answer{}, err
	}
	if err := ToggleOption(task, &current, questionID, optionID); err != nil {
		return Answer{}, err
	}
	return s.put(ctx, actor, exerciseID, task, current)
}

func (s *Service) task(ctx context.Context, actor session.Principal, exerciseID, taskID string) (exercise.Task, error) {
	ex, err := s.exercises.Get(ctx, actor, exerciseID)
	if err != nil {
		return exercise.Task{}, err
	}
	task, ok := ex.Task(taskID)
	if !ok {
		return exercise.Task{}, storage.ErrNotFound
	}
	return task, nil
}

func (s *Service) get(ctx context.Context, principalID, exerciseID string, task exercise.Task) (Answer, error) {
	record, err := s.store.GetAnswer(ctx, principalID, exerciseID, task.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return Empty(exerciseID, task), nil
	}
	if err != nil {
		return Answer{}, fmt.Errorf("get answer: %w", err)
	}
	a, err := decode(record)
	if err != nil {
		return Answer{}, err
	}
	if a.Type != task.Type {
		return Empty(exerciseID, task), nil
	}
	return a, nil
}

func (s *Service) put(ctx context.Context, actor session.Principal, exerciseID string, task exercise.Task, a Answer) (Answer, error) {
	a.ExerciseID = exerciseID
	a.TaskID = task.ID
	a.Type = task.Type
	a.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(a)
	if err != nil {
		return Answer{}, fmt.Errorf("encode answer: %w", err)
	}
	if err := s.store.PutAnswer(ctx, storage.Answer{
		PrincipalID: actor.ID,
		ExerciseID:  exerciseID,
		TaskID:      task.ID,
		Payload:     payload,
		UpdatedAt:   a.UpdatedAt,
	}); err != nil {
		return Answer{}, fmt.Errorf("put answer: %w", err)
	}
	return a, nil
}

func decode(record storage.Answer) (Answer, error) {
	var a Answer
	if err := json.Unmarshal(record.Payload, &a); err != nil {
		return Answer{}, fmt.Errorf("decode answer %s/%s: %w", record.ExerciseID, record.TaskID, err)
	}
	a.ExerciseID = record.ExerciseID
	a.TaskID = record.TaskID
	a.UpdatedAt = record.UpdatedAt
	return a, nil
}
