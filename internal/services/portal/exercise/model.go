package exercise

import (
	"strings"
	"time"

	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
)

// Type is the IELTS module an exercise belongs to.
type Type string

const (
	TypeReading   Type = "Reading"
	TypeWriting   Type = "Writing"
	TypeListening Type = "Listening"
	TypeSpeaking  Type = "Speaking"
)

var types = []Type{TypeReading, TypeWriting, TypeListening, TypeSpeaking}

// Types returns every exercise type in menu order.
func Types() []Type {
	out := make([]Type, len(types))
	copy(out, types)
	return out
}

// ParseType accepts a type label or module key in any case.
func ParseType(value string) (Type, bool) {
	value = strings.TrimSpace(value)
	for _, t := range types {
		if strings.EqualFold(value, string(t)) {
			return t, true
		}
	}
	return "", false
}

// TypeOf maps a router module to its exercise type.
func TypeOf(module navigation.Module) (Type, bool) {
	return ParseType(string(module))
}

// Module returns the router module for t.
func (t Type) Module() navigation.Module {
	return navigation.Module(strings.ToLower(string(t)))
}

// AllowsPassage reports whether exercises of type t carry a reading passage.
func (t Type) AllowsPassage() bool {
	return t == TypeReading || t == TypeWriting
}

// AllowsImage reports whether exercises of type t carry an image.
func (t Type) AllowsImage() bool {
	return t == TypeReading
}

// AllowsRecording reports whether exercises of type t carry a recording.
func (t Type) AllowsRecording() bool {
	return t == TypeListening || t == TypeSpeaking
}

// TaskType is the kind of a task.
type TaskType string

const (
	TaskMatching      TaskType = "Matching"
	TaskFillingBlanks TaskType = "Filling Blanks"
	TaskMCQ           TaskType = "MCQ"
	TaskQA            TaskType = "QA"
	TaskWriting       TaskType = "Writing"
)

var taskTypes = []TaskType{TaskMatching, TaskFillingBlanks, TaskMCQ, TaskQA, TaskWriting}

// TaskTypes returns every task type.
func TaskTypes() []TaskType {
	out := make([]TaskType, len(taskTypes))
	copy(out, taskTypes)
	return out
}

// ParseTaskType accepts a task type label in any case. "filling_blanks" and
// "filling-blanks" are accepted for form values.
func ParseTaskType(value string) (TaskType, bool) {
	value = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(value))
	for _, t := range taskTypes {
		if strings.EqualFold(value, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Item is an identified text value.
type Item struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// Blank is one sentence with gaps to fill.
type Blank struct {
	ID         string `json:"id" yaml:"id"`
	TextBefore string `json:"text_before" yaml:"text_before"`
	NumBlanks  int    `json:"num_blanks" yaml:"num_blanks"`
	TextAfter  string `json:"text_after,omitempty" yaml:"text_after"`
}

// Question is a multiple choice question.
type Question struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text" yaml:"text"`
	Options []Item `json:"options" yaml:"options"`
}

// Matching pairs every Group1 item with a Group2 item.
type Matching struct {
	Group1 []Item `json:"group1" yaml:"group1"`
	Group2 []Item `json:"group2" yaml:"group2"`
}

// FillingBlanks asks for words in sentence gaps.
type FillingBlanks struct {
	MaxWordsPerBlank int     `json:"max_words_per_blank" yaml:"max_words_per_blank"`
	Blanks           []Blank `json:"blanks" yaml:"blanks"`
}

// MCQ is a set of multiple choice questions.
type MCQ struct {
	AllowMultipleSelections bool       `json:"allow_multiple_selections" yaml:"allow_multiple_selections"`
	Questions               []Question `json:"questions" yaml:"questions"`
}

// QA is a set of open questions.
type QA struct {
	MaxWordsPerAnswer int    `json:"max_words_per_answer" yaml:"max_words_per_answer"`
	Questions         []Item `json:"questions" yaml:"questions"`
}

// Writing is a free text essay.
type Writing struct {
	MinimumWordCount int `json:"minimum_word_count" yaml:"minimum_word_count"`
}

// Task is one task of an exercise. Exactly one variant pointer is set and
// it matches Type.
type Task struct {
	ID             string   `json:"id" yaml:"id"`
	Type           TaskType `json:"type" yaml:"type"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description,omitempty" yaml:"description"`
	AllowedMinutes int      `json:"allowed_minutes" yaml:"allowed_minutes"`

	Matching      *Matching      `json:"matching,omitempty" yaml:"matching,omitempty"`
	FillingBlanks *FillingBlanks `json:"filling_blanks,omitempty" yaml:"filling_blanks,omitempty"`
	MCQ           *MCQ           `json:"mcq,omitempty" yaml:"mcq,omitempty"`
	QA            *QA            `json:"qa,omitempty" yaml:"qa,omitempty"`
	Writing       *Writing       `json:"writing,omitempty" yaml:"writing,omitempty"`
}

// Exercise is an exam exercise.
type Exercise struct {
	ID             string `yaml:"id"`
	Type           Type   `yaml:"type"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	AllowedMinutes int    `yaml:"allowed_minutes"`
	Passage        string `yaml:"passage"`
	ImageURL       string `yaml:"image_url"`
	RecordingURL   string `yaml:"recording_url"`
	Tasks          []Task `yaml:"tasks"`

	CreatedBy string    `yaml:"-"`
	CreatedAt time.Time `yaml:"-"`
	UpdatedBy string    `yaml:"-"`
	UpdatedAt time.Time `yaml:"-"`
}

// Task returns the task with id.
func (e Exercise) Task(taskID string) (Task, bool) {
	for _, task := range e.Tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return Task{}, false
}
