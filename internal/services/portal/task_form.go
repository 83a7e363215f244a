package portal

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
)

// taskForm is the flat form encoding of a task.
//
// Lines carries the variant items one per line:
//
//	Matching        Group1 items; Lines2 holds Group2 items
//	Filling Blanks  "text before | gaps | text after"
//	MCQ             "question | option; option"
//	QA              one question per line
//
// Limit is the words per blank, words per answer or minimum essay length
// depending on the type.
type taskForm struct {
	ID          string
	Type        string
	Title       string
	Description string
	Minutes     string
	Limit       string
	Multiple    bool
	Lines       string
	Lines2      string
}

const (
	fieldSeparator  = "|"
	optionSeparator = ";"
)

func parseTaskForm(r *http.Request) taskForm {
	return taskForm{
		ID:          strings.TrimSpace(r.PostFormValue("task_id")),
		Type:        strings.TrimSpace(r.PostFormValue("task_type")),
		Title:       r.PostFormValue("task_title"),
		Description: r.PostFormValue("task_description"),
		Minutes:     strings.TrimSpace(r.PostFormValue("task_minutes")),
		Limit:       strings.TrimSpace(r.PostFormValue("task_limit")),
		Multiple:    r.PostFormValue("task_multiple") == "true",
		Lines:       r.PostFormValue("task_lines"),
		Lines2:      r.PostFormValue("task_lines2"),
	}
}

// task decodes the form. Item IDs of previous are kept by position when
// the task type is unchanged.
func (f taskForm) task(previous *exercise.Task) (exercise.Task, error) {
	taskType, ok := exercise.ParseTaskType(f.Type)
	if !ok {
		return exercise.Task{}, apperrors.WithMetadata(apperrors.CodeTaskInvalidType, "task type is not recognized",
			map[string]string{"type": f.Type})
	}
	task := exercise.NewTask(taskType)
	task.ID = f.ID
	task.Title = f.Title
	task.Description = f.Description
	minutes, err := formInt(f.Minutes, exercise.DefaultTaskMinutes, "allowed_minutes")
	if err != nil {
		return exercise.Task{}, err
	}
	task.AllowedMinutes = minutes
	if previous != nil && previous.Type != taskType {
		previous = nil
	}

	switch taskType {
	case exercise.TaskMatching:
		var g1, g2 []exercise.Item
		if previous != nil {
			g1, g2 = previous.Matching.Group1, previous.Matching.Group2
		}
		task.Matching.Group1 = itemsOf(lines(f.Lines), g1)
		task.Matching.Group2 = itemsOf(lines(f.Lines2), g2)
	case exercise.TaskFillingBlanks:
		limit, err := formInt(f.Limit, exercise.DefaultMaxWordsPerBlank, "max_words_per_blank")
		if err != nil {
			return exercise.Task{}, err
		}
		task.FillingBlanks.MaxWordsPerBlank = limit
		for i, line := range lines(f.Lines) {
			blank, err := parseBlank(line)
			if err != nil {
				return exercise.Task{}, err
			}
			if previous != nil && i < len(previous.FillingBlanks.Blanks) {
				blank.ID = previous.FillingBlanks.Blanks[i].ID
			}
			task.FillingBlanks.Blanks = append(task.FillingBlanks.Blanks, blank)
		}
	case exercise.TaskMCQ:
		task.MCQ.AllowMultipleSelections = f.Multiple
		for i, line := range lines(f.Lines) {
			text, rawOptions, _ := strings.Cut(line, fieldSeparator)
			question := exercise.Question{Text: strings.TrimSpace(text)}
			var prevOptions []exercise.Item
			if previous != nil && i < len(previous.MCQ.Questions) {
				question.ID = previous.MCQ.Questions[i].ID
				prevOptions = previous.MCQ.Questions[i].Options
			}
			question.Options = itemsOf(splitTrim(rawOptions, optionSeparator), prevOptions)
			task.MCQ.Questions = append(task.MCQ.Questions, question)
		}
	case exercise.TaskQA:
		limit, err := formInt(f.Limit, exercise.DefaultMaxWordsPerAnswer, "max_words_per_answer")
		if err != nil {
			return exercise.Task{}, err
		}
		task.QA.MaxWordsPerAnswer = limit
		var prev []exercise.Item
		if previous != nil {
			prev = previous.QA.Questions
		}
		task.QA.Questions = itemsOf(lines(f.Lines), prev)
	case exercise.TaskWriting:
		limit, err := formInt(f.Limit, exercise.DefaultMinimumWordCount, "minimum_word_count")
		if err != nil {
			return exercise.Task{}, err
		}
		task.Writing.MinimumWordCount = limit
	}
	return task, nil
}

// taskFormOf encodes task for the editor.
func taskFormOf(task exercise.Task) taskForm {
	f := taskForm{
		ID:          task.ID,
		Type:        string(task.Type),
		Title:       task.Title,
		Description: task.Description,
		Minutes:     strconv.Itoa(task.AllowedMinutes),
	}
	var out, out2 []string
	switch {
	case task.Matching != nil:
		out = values(task.Matching.Group1)
		out2 = values(task.Matching.Group2)
	case task.FillingBlanks != nil:
		f.Limit = strconv.Itoa(task.FillingBlanks.MaxWordsPerBlank)
		for _, blank := range task.FillingBlanks.Blanks {
			line := blank.TextBefore + " " + fieldSeparator + " " + strconv.Itoa(blank.NumBlanks)
			if blank.TextAfter != "" {
				line += " " + fieldSeparator + " " + blank.TextAfter
			}
			out = append(out, line)
		}
	case task.MCQ != nil:
		f.Multiple = task.MCQ.AllowMultipleSelections
		for _, question := range task.MCQ.Questions {
			out = append(out, question.Text+" "+fieldSeparator+" "+strings.Join(values(question.Options), optionSeparator+" "))
		}
	case task.QA != nil:
		f.Limit = strconv.Itoa(task.QA.MaxWordsPerAnswer)
		out = values(task.QA.Questions)
	case task.Writing != nil:
		f.Limit = strconv.Itoa(task.Writing.MinimumWordCount)
	}
	f.Lines = strings.Join(out, "\n")
	f.Lines2 = strings.Join(out2, "\n")
	return f
}

func (f taskForm) view(loc i18n.Localizer, action, deleteURL string) templates.TaskFormView {
	selected, _ := exercise.ParseTaskType(f.Type)
	options := make([]templates.Option, 0, len(exercise.TaskTypes()))
	for _, t := range exercise.TaskTypes() {
		options = append(options, templates.Option{Value: string(t), Label: string(t), Selected: t == selected})
	}
	view := templates.TaskFormView{
		ID:            f.ID,
		Action:        action,
		DeleteURL:     deleteURL,
		Type:          f.Type,
		Types:         options,
		Title:         f.Title,
		Description:   f.Description,
		Minutes:       f.Minutes,
		Limit:         f.Limit,
		AllowMultiple: f.Multiple,
		Lines:         f.Lines,
		Lines2:        f.Lines2,
	}
	if f.ID != "" && selected != "" {
		view.Summary = templates.T(loc, "tasks.summary", string(selected), len(lines(f.Lines)))
	}
	return view
}

// parseBlank decodes "before | gaps | after". The gap count defaults to one
// and may be omitted: "before | after".
func parseBlank(line string) (exercise.Blank, error) {
	parts := splitTrim(line, fieldSeparator)
	blank := exercise.Blank{NumBlanks: 1}
	switch len(parts) {
	case 1:
		blank.TextBefore = parts[0]
	case 2:
		blank.TextBefore = parts[0]
		if n, err := strconv.Atoi(parts[1]); err == nil {
			blank.NumBlanks = n
		} else {
			blank.TextAfter = parts[1]
		}
	default:
		blank.TextBefore = parts[0]
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return exercise.Blank{}, apperrors.WithMetadata(apperrors.CodeTaskInvalidLimit, "gap count must be a positive number",
				map[string]string{"field": "num_blanks"})
		}
		blank.NumBlanks = n
		blank.TextAfter = strings.Join(parts[2:], " "+fieldSeparator+" ")
	}
	return blank, nil
}

func formInt(raw string, fallback int, field string) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeTaskInvalidLimit, "limit must be a positive number",
			map[string]string{"field": field})
	}
	return n, nil
}

func itemsOf(vals []string, previous []exercise.Item) []exercise.Item {
	items := make([]exercise.Item, 0, len(vals))
	for i, value := range vals {
		item := exercise.Item{Value: value}
		if i < len(previous) {
			item.ID = previous[i].ID
		}
		items = append(items, item)
	}
	return items
}

func values(items []exercise.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Value)
	}
	return out
}

// lines splits text into trimmed non-empty lines.
func lines(text string) []string {
	return splitTrim(text, "\n")
}

func splitTrim(text, sep string) []string {
	var out []string
	for _, part := range strings.Split(text, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
