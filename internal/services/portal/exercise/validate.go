package exercise

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/id"
)

// idFunc generates identifiers for nested items.
type idFunc func() (string, error)

// normalizeExercise validates e in place, clears media fields its type does
// not allow and assigns missing IDs.
func normalizeExercise(e *Exercise, newID idFunc) error {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = strings.TrimSpace(e.Description)
	if _, ok := ParseType(string(e.Type)); !ok {
		return apperrors.WithMetadata(apperrors.CodeExerciseInvalidType, "exercise type is not recognized",
			map[string]string{"type": string(e.Type)})
	}
	if e.Title == "" {
		return apperrors.New(apperrors.CodeExerciseTitleRequired, "exercise title is required")
	}
	if e.AllowedMinutes <= 0 {
		return apperrors.New(apperrors.CodeExerciseInvalidMinutes, "allowed time must be at least one minute")
	}
	if len(e.Tasks) == 0 {
		return apperrors.New(apperrors.CodeExerciseTasksRequired, "Please add at least one task before saving")
	}
	if !e.Type.AllowsPassage() {
		e.Passage = ""
	}
	if !e.Type.AllowsImage() {
		e.ImageURL = ""
	}
	if !e.Type.AllowsRecording() {
		e.RecordingURL = ""
	}
	e.ImageURL = strings.TrimSpace(e.ImageURL)
	e.RecordingURL = strings.TrimSpace(e.RecordingURL)

	seen := make(map[string]bool, len(e.Tasks))
	for i := range e.Tasks {
		if err := normalizeTask(&e.Tasks[i], newID); err != nil {
			return err
		}
		if seen[e.Tasks[i].ID] {
			return apperrors.WithMetadata(apperrors.CodeTaskPayloadMismatch, "duplicate task id",
				map[string]string{"task_id": e.Tasks[i].ID})
		}
		seen[e.Tasks[i].ID] = true
	}
	return nil
}

// normalizeTask validates t in place and assigns missing IDs.
func normalizeTask(t *Task, newID idFunc) error {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	taskType, ok := ParseTaskType(string(t.Type))
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeTaskInvalidType, "task type is not recognized",
			map[string]string{"type": string(t.Type)})
	}
	t.Type = taskType
	if t.Title == "" {
		return apperrors.New(apperrors.CodeTaskTitleRequired, "task title is required")
	}
	if t.AllowedMinutes <= 0 {
		return invalidLimit("allowed_minutes")
	}
	if err := checkVariant(t); err != nil {
		return err
	}
	if err := ensureID(&t.ID, newID); err != nil {
		return err
	}

	switch t.Type {
	case TaskMatching:
		if err := ensureItemIDs(t.Matching.Group1, newID); err != nil {
			return err
		}
		return ensureItemIDs(t.Matching.Group2, newID)
	case TaskFillingBlanks:
		if t.FillingBlanks.MaxWordsPerBlank <= 0 {
			return invalidLimit("max_words_per_blank")
		}
		for i := range t.FillingBlanks.Blanks {
			blank := &t.FillingBlanks.Blanks[i]
			if blank.NumBlanks <= 0 {
				blank.NumBlanks = 1
			}
			if err := ensureID(&blank.ID, newID); err != nil {
				return err
			}
		}
	case TaskMCQ:
		for i := range t.MCQ.Questions {
			question := &t.MCQ.Questions[i]
			if err := ensureID(&question.ID, newID); err != nil {
				return err
			}
			if err := ensureItemIDs(question.Options, newID); err != nil {
				return err
			}
		}
	case TaskQA:
		if t.QA.MaxWordsPerAnswer <= 0 {
			return invalidLimit("max_words_per_answer")
		}
		return ensureItemIDs(t.QA.Questions, newID)
	case TaskWriting:
		if t.Writing.MinimumWordCount <= 0 {
			return invalidLimit("minimum_word_count")
		}
	}
	return nil
}

// checkVariant requires exactly the payload matching t.Type.
func checkVariant(t *Task) error {
	present := map[TaskType]bool{
		TaskMatching:      t.Matching != nil,
		TaskFillingBlanks: t.FillingBlanks != nil,
		TaskMCQ:           t.MCQ != nil,
		TaskQA:            t.QA != nil,
		TaskWriting:       t.Writing != nil,
	}
	for taskType, set := range present {
		if set != (taskType == t.Type) {
			return apperrors.WithMetadata(apperrors.CodeTaskPayloadMismatch, "task payload does not match its type",
				map[string]string{"type": string(t.Type)})
		}
	}
	return nil
}

func ensureItemIDs(items []Item, newID idFunc) error {
	for i := range items {
		if err := ensureID(&items[i].ID, newID); err != nil {
			return err
		}
	}
	return nil
}

func ensureID(target *string, newID idFunc) error {
	*target = strings.TrimSpace(*target)
	if *target != "" {
		return nil
	}
	generated, err := newID()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}
	*target = generated
	return nil
}

func invalidLimit(field string) error {
	return apperrors.WithMetadata(apperrors.CodeTaskInvalidLimit, "value must be at least one",
		map[string]string{"field": field})
}

func defaultID() (string, error) {
	return id.NewID()
}
