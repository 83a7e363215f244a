// Package answer stores draft answers for the editor task view and decides
// when a task is complete.
package answer

import (
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
)

// Answer is a principal's draft answer for one task. Only the field that
// matches Type is used.
type Answer struct {
	ExerciseID string            `json:"-"`
	TaskID     string            `json:"-"`
	Type       exercise.TaskType `json:"type"`
	UpdatedAt  time.Time         `json:"-"`
	// MCQ maps question IDs to selected option IDs.
	MCQ map[string][]string `json:"mcq,omitempty"`
	// Blanks maps blank entry IDs to gap index to text.
	Blanks map[string]map[int]string `json:"blanks,omitempty"`
	// Matching maps Group1 item IDs to Group2 item IDs.
	Matching map[string]string `json:"matching,omitempty"`
	// QA maps question IDs to answer text.
	QA map[string]string `json:"qa,omitempty"`
	// Writing is the essay text.
	Writing string `json:"writing,omitempty"`
}

// Empty returns a blank answer for task.
func Empty(exerciseID string, task exercise.Task) Answer {
	return Answer{ExerciseID: exerciseID, TaskID: task.ID, Type: task.Type}
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ToggleOption applies an MCQ selection. Single selection tasks replace the
// current choice; multiple selection tasks toggle the option.
func ToggleOption(task exercise.Task, a *Answer, questionID, optionID string) error {
	if task.Type != exercise.TaskMCQ || task.MCQ == nil {
		return mismatch(task)
	}
	if !optionExists(task.MCQ, questionID, optionID) {
		return apperrors.WithMetadata(apperrors.CodeAnswerOptionUnavailable, "option is not part of the question",
			map[string]string{"question_id": questionID, "option_id": optionID})
	}
	if a.MCQ == nil {
		a.MCQ = make(map[string][]string)
	}
	a.Type = exercise.TaskMCQ
	if !task.MCQ.AllowMultipleSelections {
		a.MCQ[questionID] = []string{optionID}
		return nil
	}
	selected := a.MCQ[questionID]
	if i := slices.Index(selected, optionID); i >= 0 {
		a.MCQ[questionID] = slices.Delete(slices.Clone(selected), i, i+1)
		return nil
	}
	a.MCQ[questionID] = append(slices.Clone(selected), optionID)
	return nil
}

// Complete reports whether a fully answers task.
func Complete(task exercise.Task, a Answer) bool {
	if a.Type != task.Type {
		return false
	}
	switch task.Type {
	case exercise.TaskMCQ:
		if task.MCQ == nil {
			return false
		}
		for _, question := range task.MCQ.Questions {
			if len(a.MCQ[question.ID]) == 0 {
				return false
			}
		}
		return true
	case exercise.TaskFillingBlanks:
		if task.FillingBlanks == nil {
			return false
		}
		for _, blank := range task.FillingBlanks.Blanks {
			for i := 0; i < gapCount(blank); i++ {
				words := WordCount(a.Blanks[blank.ID][i])
				if words == 0 || words > task.FillingBlanks.MaxWordsPerBlank {
					return false
				}
			}
		}
		return true
	case exercise.TaskMatching:
		if task.Matching == nil {
			return false
		}
		for _, item := range task.Matching.Group1 {
			if strings.TrimSpace(a.Matching[item.ID]) == "" {
				return false
			}
		}
		return true
	case exercise.TaskQA:
		if task.QA == nil {
			return false
		}
		for _, question := range task.QA.Questions {
			words := WordCount(a.QA[question.ID])
			if words == 0 || words > task.QA.MaxWordsPerAnswer {
				return false
			}
		}
		return true
	case exercise.TaskWriting:
		return task.Writing != nil && WordCount(a.Writing) >= task.Writing.MinimumWordCount
	}
	return false
}

// validate checks that a refers only to items of task and drops values for
// other task types.
func validate(task exercise.Task, a *Answer) error {
	if a.Type != "" && a.Type != task.Type {
		return mismatch(task)
	}
	a.Type = task.Type
	keepOnly(a, task.Type)
	switch task.Type {
	case exercise.TaskMCQ:
		for questionID, options := range a.MCQ {
			for _, optionID := range options {
				if !optionExists(task.MCQ, questionID, optionID) {
					return apperrors.WithMetadata(apperrors.CodeAnswerOptionUnavailable, "option is not part of the question",
						map[string]string{"question_id": questionID, "option_id": optionID})
				}
			}
			if !task.MCQ.AllowMultipleSelections && len(options) > 1 {
				a.MCQ[questionID] = options[len(options)-1:]
			}
		}
	case exercise.TaskMatching:
		for left, right := range a.Matching {
			if right == "" {
				delete(a.Matching, left)
				continue
			}
			if !itemExists(task.Matching.Group1, left) || !itemExists(task.Matching.Group2, right) {
				return mismatch(task)
			}
		}
	case exercise.TaskFillingBlanks:
		for blankID, gaps := range a.Blanks {
			i := slices.IndexFunc(task.FillingBlanks.Blanks, func(b exercise.Blank) bool { return b.ID == blankID })
			if i < 0 {
				return mismatch(task)
			}
			n := gapCount(task.FillingBlanks.Blanks[i])
			for gap := range gaps {
				if gap < 0 || gap >= n {
					return apperrors.WithMetadata(apperrors.CodeAnswerTaskMismatch, "gap is outside the blank",
						map[string]string{"task_id": task.ID, "blank_id": blankID, "gap": strconv.Itoa(gap)})
				}
			}
		}
	case exercise.TaskQA:
		for questionID := range a.QA {
			if !itemExists(task.QA.Questions, questionID) {
				return mismatch(task)
			}
		}
	}
	return nil
}

func keepOnly(a *Answer, t exercise.TaskType) {
	if t != exercise.TaskMCQ {
		a.MCQ = nil
	}
	if t != exercise.TaskFillingBlanks {
		a.Blanks = nil
	}
	if t != exercise.TaskMatching {
		a.Matching = nil
	}
	if t != exercise.TaskQA {
		a.QA = nil
	}
	if t != exercise.TaskWriting {
		a.Writing = ""
	}
}

// gapCount returns the number of gaps in blank. A blank always has one.
func gapCount(blank exercise.Blank) int {
	return max(blank.NumBlanks, 1)
}

func optionExists(mcq *exercise.MCQ, questionID, optionID string) bool {
	if mcq == nil {
		return false
	}
	for _, question := range mcq.Questions {
		if question.ID == questionID {
			return itemExists(question.Options, optionID)
		}
	}
	return false
}

func itemExists(items []exercise.Item, itemID string) bool {
	return slices.ContainsFunc(items, func(item exercise.Item) bool { return item.ID == itemID })
}

func mismatch(task exercise.Task) error {
	return apperrors.WithMetadata(apperrors.CodeAnswerTaskMismatch, "answer does not fit the task",
		map[string]string{"task_id": task.ID, "type": string(task.Type)})
}
