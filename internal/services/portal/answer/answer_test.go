package answer

import (
	"strings"
	"testing"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
)

func mcqTask(multiple bool) exercise.Task {
	return exercise.Task{
		ID:   "t-mcq",
		Type: exercise.TaskMCQ,
		MCQ: &exercise.MCQ{
			AllowMultipleSelections: multiple,
			Questions: []exercise.Question{
				{ID: "q1", Options: []exercise.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
				{ID: "q2", Options: []exercise.Item{{ID: "x"}, {ID: "y"}}},
			},
		},
	}
}

func TestToggleOptionSingleSelectionReplaces(t *testing.T) {
	t.Parallel()

	task := mcqTask(false)
	a := Empty("e", task)
	for _, option := range []string{"a", "b", "b"} {
		if err := ToggleOption(task, &a, "q1", option); err != nil {
			t.Fatalf("toggle %s: %v", option, err)
		}
	}
	if got := a.MCQ["q1"]; len(got) != 1 || got[0] != "b" {
		t.Fatalf("selection = %v, want [b]", got)
	}
}

func TestToggleOptionMultipleSelectionToggles(t *testing.T) {
	t.Parallel()

	task := mcqTask(true)
	a := Empty("e", task)
	for _, option := range []string{"a", "c", "a"} {
		if err := ToggleOption(task, &a, "q1", option); err != nil {
			t.Fatalf("toggle %s: %v", option, err)
		}
	}
	if got := a.MCQ["q1"]; len(got) != 1 || got[0] != "c" {
		t.Fatalf("selection = %v, want [c]", got)
	}
}

func TestToggleOptionRejectsUnknownOption(t *testing.T) {
	t.Parallel()

	task := mcqTask(false)
	a := Empty("e", task)
	err := ToggleOption(task, &a, "q1", "x")
	if apperrors.CodeOf(err) != apperrors.CodeAnswerOptionUnavailable {
		t.Fatalf("err = %v", err)
	}
	err = ToggleOption(exercise.NewTask(exercise.TaskQA), &a, "q1", "a")
	if apperrors.CodeOf(err) != apperrors.CodeAnswerTaskMismatch {
		t.Fatalf("non-mcq err = %v", err)
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	blanks := exercise.Task{ID: "t-fb", Type: exercise.TaskFillingBlanks, FillingBlanks: &exercise.FillingBlanks{
		MaxWordsPerBlank: 2,
		Blanks:           []exercise.Blank{{ID: "b1", NumBlanks: 2}, {ID: "b2", NumBlanks: 1}},
	}}
	matching := exercise.Task{ID: "t-m", Type: exercise.TaskMatching, Matching: &exercise.Matching{
		Group1: []exercise.Item{{ID: "h1"}, {ID: "h2"}},
		Group2: []exercise.Item{{ID: "i1"}, {ID: "i2"}},
	}}
	qa := exercise.Task{ID: "t-qa", Type: exercise.TaskQA, QA: &exercise.QA{
		MaxWordsPerAnswer: 3,
		Questions:         []exercise.Item{{ID: "q1"}, {ID: "q2"}},
	}}
	writing := exercise.Task{ID: "t-w", Type: exercise.TaskWriting, Writing: &exercise.Writing{MinimumWordCount: 5}}

	tests := []struct {
		name   string
		task   exercise.Task
		answer Answer
		want   bool
	}{
		{name: "mcq all answered", task: mcqTask(false), answer: Answer{Type: exercise.TaskMCQ, MCQ: map[string][]string{"q1": {"a"}, "q2": {"x"}}}, want: true},
		{name: "mcq missing question", task: mcqTask(false), answer: Answer{Type: exercise.TaskMCQ, MCQ: map[string][]string{"q1": {"a"}}}, want: false},
		{name: "blanks filled", task: blanks, answer: Answer{Type: exercise.TaskFillingBlanks, Blanks: map[string]map[int]string{"b1": {0: "one", 1: "two"}, "b2": {0: "three"}}}, want: true},
		{name: "blank over word limit", task: blanks, answer: Answer{Type: exercise.TaskFillingBlanks, Blanks: map[string]map[int]string{"b1": {0: "one", 1: "two three four"}, "b2": {0: "three"}}}, want: false},
		{name: "blank whitespace", task: blanks, answer: Answer{Type: exercise.TaskFillingBlanks, Blanks: map[string]map[int]string{"b1": {0: "one", 1: " "}, "b2": {0: "three"}}}, want: false},
		{name: "matching all", task: matching, answer: Answer{Type: exercise.TaskMatching, Matching: map[string]string{"h1": "i2", "h2": "i1"}}, want: true},
		{name: "matching partial", task: matching, answer: Answer{Type: exercise.TaskMatching, Matching: map[string]string{"h1": "i2"}}, want: false},
		{name: "qa within limit", task: qa, answer: Answer{Type: exercise.TaskQA, QA: map[string]string{"q1": "in the north", "q2": "walked"}}, want: true},
		{name: "qa over limit", task: qa, answer: Answer{Type: exercise.TaskQA, QA: map[string]string{"q1": "far in the north", "q2": "walked"}}, want: false},
		{name: "qa empty", task: qa, answer: Answer{Type: exercise.TaskQA, QA: map[string]string{"q1": "north"}}, want: false},
		{name: "writing enough", task: writing, answer: Answer{Type: exercise.TaskWriting, Writing: "one two three four five"}, want: true},
		{name: "writing short", task: writing, answer: Answer{Type: exercise.TaskWriting, Writing: "one two three four"}, want: false},
		{name: "wrong type", task: writing, answer: Answer{Type: exercise.TaskQA}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Complete(tc.task, tc.answer); got != tc.want {
				t.Fatalf("Complete = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateDropsForeignFields(t *testing.T) {
	t.Parallel()

	task := mcqTask(false)
	a := Answer{
		MCQ:     map[string][]string{"q1": {"a", "b"}},
		Writing: "stray",
		QA:      map[string]string{"q": "stray"},
	}
	if err := validate(task, &a); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if a.Writing != "" || a.QA != nil {
		t.Fatalf("foreign fields kept: %+v", a)
	}
	if got := a.MCQ["q1"]; len(got) != 1 || got[0] != "b" {
		t.Fatalf("single selection = %v", got)
	}

	bad := Answer{Type: exercise.TaskWriting}
	if err := validate(task, &bad); apperrors.CodeOf(err) != apperrors.CodeAnswerTaskMismatch {
		t.Fatalf("type mismatch err = %v", err)
	}
}

func TestValidateRejectsGapOutsideBlank(t *testing.T) {
	t.Parallel()

	task := exercise.Task{ID: "t-fb", Type: exercise.TaskFillingBlanks, FillingBlanks: &exercise.FillingBlanks{
		MaxWordsPerBlank: 1,
		Blanks:           []exercise.Blank{{ID: "b1", NumBlanks: 2}},
	}}
	ok := Answer{Blanks: map[string]map[int]string{"b1": {0: "one", 1: "two"}}}
	if err := validate(task, &ok); err != nil {
		t.Fatalf("in range gaps: %v", err)
	}
	for _, gap := range []int{2, -1} {
		a := Answer{Blanks: map[string]map[int]string{"b1": {gap: "stray"}}}
		if err := validate(task, &a); apperrors.CodeOf(err) != apperrors.CodeAnswerTaskMismatch {
			t.Fatalf("gap %d err = %v, want task mismatch", gap, err)
		}
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("  one\ttwo\nthree  "); got != 3 {
		t.Fatalf("WordCount = %d", got)
	}
	if got := WordCount(strings.Repeat(" ", 4)); got != 0 {
		t.Fatalf("WordCount blank = %d", got)
	}
}
