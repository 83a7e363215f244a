package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
)

// ExerciseRow represents a row in an exercise module list.
type ExerciseRow struct {
	ID        string
	Title     string
	Minutes   string
	TaskCount string
	UpdatedAt string
	EditURL   string
	DeleteURL string
	TasksURL  string
}

// ExercisesPageView provides data for an exercise module list.
type ExercisesPageView struct {
	ModuleLabel string
	ListURL     string
	TableURL    string
	NewURL      string
	CanManage   bool
	Rows        []ExerciseRow
	Query       string
	Filter      string
	NextURL     string
	Message     string
	Error       string
}

// TaskFormView is one task editor. Lines and Lines2 carry the variant
// items one per line.
type TaskFormView struct {
	ID            string
	Action        string
	DeleteURL     string
	Type          string
	Types         []Option
	Title         string
	Description   string
	Minutes       string
	Limit         string
	AllowMultiple bool
	Lines         string
	Lines2        string
	Summary       string
}

// ExerciseFormView is the create or edit exercise form.
type ExerciseFormView struct {
	Action        string
	CancelURL     string
	Editing       bool
	ModuleLabel   string
	Title         string
	Description   string
	Minutes       string
	Passage       string
	ImageURL      string
	RecordingURL  string
	ShowPassage   bool
	ShowImage     bool
	ShowRecording bool
	// FirstTask is embedded in the create form since an exercise needs a
	// task before it can be saved.
	FirstTask *TaskFormView
	Tasks     []TaskFormView
	NewTask   *TaskFormView
	Message   string
	Error     string
}

// ExercisesPage renders an exercise module list.
func ExercisesPage(view ExercisesPageView, loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "exercises"),
		el("div", attrs("class", "page-heading"),
			el("h1", nil, text(view.ModuleLabel)),
			when(view.CanManage, el("a", attrs("class", "button", "href", href(view.NewURL)), text(T(loc, "exercises.create")))),
		),
		Alert("success", view.Message),
		Alert("error", view.Error),
		el("form", attrs("class", "search", "method", "get", "action", view.ListURL,
			"hx-get", view.TableURL, "hx-target", "#exercises-table", "hx-trigger", "input changed delay:300ms from:input, submit"),
			el("input", attrs("type", "search", "name", "q", "value", view.Query, "placeholder", T(loc, "exercises.search"))),
			el("input", attrs("type", "text", "name", "filter", "value", view.Filter, "placeholder", T(loc, "exercises.filter"))),
			el("button", attrs("type", "submit"), text(T(loc, "action.search"))),
		),
		ExercisesTable(view, loc),
	)
}

// ExercisesTable renders the swappable exercise table.
func ExercisesTable(view ExercisesPageView, loc i18n.Localizer) templ.Component {
	return el("div", attrs("id", "exercises-table"), exerciseRows(view, loc))
}

func exerciseRows(view ExercisesPageView, loc i18n.Localizer) templ.Component {
	if len(view.Rows) == 0 {
		return el("p", attrs("class", "empty"), text(T(loc, "exercises.empty")))
	}
	return group(
		el("table", nil,
			el("thead", nil, el("tr", nil,
				el("th", nil, text(T(loc, "exercises.title_field"))),
				el("th", nil, text(T(loc, "exercises.minutes"))),
				el("th", nil, text(T(loc, "exercises.tasks"))),
				el("th", nil, text(T(loc, "exercises.updated_at"))),
				el("th", nil, text(T(loc, "users.actions"))),
			)),
			el("tbody", nil, each(view.Rows, func(row ExerciseRow) templ.Component {
				return el("tr", attrs("id", "exercise-"+row.ID),
					el("td", nil, text(row.Title)),
					el("td", nil, text(row.Minutes)),
					el("td", nil, text(row.TaskCount)),
					el("td", nil, text(row.UpdatedAt)),
					el("td", attrs("class", "actions"),
						el("a", attrs("href", href(row.TasksURL)), text(T(loc, "action.preview"))),
						when(view.CanManage, el("a", attrs("href", href(row.EditURL)), text(T(loc, "action.edit")))),
						when(view.CanManage, el("form", attrs("method", "post", "action", row.DeleteURL,
							"hx-confirm", T(loc, "exercises.delete_confirm", row.Title)),
							el("button", attrs("type", "submit", "class", "danger"), text(T(loc, "action.delete"))),
						)),
					),
				)
			})),
		),
		when(view.NextURL != "", el("a", attrs("class", "next", "href", href(view.NextURL)), text(T(loc, "action.next")))),
	)
}

// ExerciseForm renders the exercise editor.
func ExerciseForm(view ExerciseFormView, loc i18n.Localizer) templ.Component {
	heading := T(loc, "exercises.new_title", view.ModuleLabel)
	if view.Editing {
		heading = T(loc, "exercises.edit_title", view.ModuleLabel)
	}
	return el("section", attrs("class", "exercise-form"),
		el("h1", nil, text(heading)),
		Alert("success", view.Message),
		Alert("error", view.Error),
		el("form", attrs("method", "post", "action", view.Action),
			field(T(loc, "exercises.title_field"), el("input", attrs("name", "title", "value", view.Title, "required", ""))),
			field(T(loc, "exercises.description"), el("textarea", attrs("name", "description"), text(view.Description))),
			field(T(loc, "exercises.minutes"), el("input", attrs("type", "number", "name", "allowed_minutes", "min", "1", "value", view.Minutes, "required", ""))),
			when(view.ShowPassage, field(T(loc, "exercises.passage"), el("textarea", attrs("name", "passage", "rows", "10"), text(view.Passage)))),
			when(view.ShowImage, field(T(loc, "exercises.image_url"), el("input", attrs("type", "url", "name", "image_url", "value", view.ImageURL)))),
			when(view.ShowRecording, field(T(loc, "exercises.recording_url"), el("input", attrs("type", "url", "name", "recording_url", "value", view.RecordingURL)))),
			firstTask(view.FirstTask, loc),
			el("div", attrs("class", "form-actions"),
				el("button", attrs("type", "submit"), text(T(loc, "action.save"))),
				el("a", attrs("href", href(view.CancelURL)), text(T(loc, "action.cancel"))),
			),
		),
		when(view.Editing, el("section", attrs("class", "tasks"),
			el("h2", nil, text(T(loc, "exercises.tasks"))),
			each(view.Tasks, func(task TaskFormView) templ.Component { return TaskForm(task, loc) }),
			newTask(view.NewTask, loc),
		)),
	)
}

func firstTask(task *TaskFormView, loc i18n.Localizer) templ.Component {
	if task == nil {
		return nil
	}
	return el("fieldset", attrs("class", "task"),
		el("legend", nil, text(T(loc, "tasks.first"))),
		taskFields(*task, loc),
	)
}

func newTask(task *TaskFormView, loc i18n.Localizer) templ.Component {
	if task == nil {
		return nil
	}
	return el("details", nil,
		el("summary", nil, text(T(loc, "tasks.add"))),
		TaskForm(*task, loc),
	)
}

// TaskForm renders one task editor with its save and remove actions.
func TaskForm(task TaskFormView, loc i18n.Localizer) templ.Component {
	legend := task.Title
	if legend == "" {
		legend = T(loc, "tasks.new")
	}
	return el("div", attrs("class", "task", "id", "task-"+task.ID),
		el("form", attrs("method", "post", "action", task.Action),
			el("fieldset", nil,
				el("legend", nil, text(legend)),
				when(task.Summary != "", el("p", attrs("class", "summary"), text(task.Summary))),
				el("input", attrs("type", "hidden", "name", "task_id", "value", task.ID)),
				taskFields(task, loc),
				el("button", attrs("type", "submit"), text(T(loc, "action.save"))),
			),
		),
		when(task.DeleteURL != "", el("form", attrs("method", "post", "action", task.DeleteURL,
			"hx-confirm", T(loc, "tasks.delete_confirm", task.Title)),
			el("button", attrs("type", "submit", "class", "danger"), text(T(loc, "action.delete"))),
		)),
	)
}

func taskFields(task TaskFormView, loc i18n.Localizer) templ.Component {
	return group(
		field(T(loc, "tasks.type"), selectInput("task_type", task.Types)),
		field(T(loc, "tasks.title_field"), el("input", attrs("name", "task_title", "value", task.Title, "required", ""))),
		field(T(loc, "tasks.description"), el("textarea", attrs("name", "task_description"), text(task.Description))),
		field(T(loc, "tasks.minutes"), el("input", attrs("type", "number", "name", "task_minutes", "min", "1", "value", task.Minutes))),
		field(T(loc, "tasks.limit"), el("input", attrs("type", "number", "name", "task_limit", "min", "1", "value", task.Limit))),
		el("label", attrs("class", "checkbox"),
			el("input", join(attrs("type", "checkbox", "name", "task_multiple", "value", "true"), attrIf(task.AllowMultiple, "checked", ""))),
			text(T(loc, "tasks.allow_multiple")),
		),
		field(T(loc, "tasks.lines"), el("textarea", attrs("name", "task_lines", "rows", "6"), text(task.Lines))),
		field(T(loc, "tasks.lines2"), el("textarea", attrs("name", "task_lines2", "rows", "4"), text(task.Lines2))),
		el("p", attrs("class", "hint"), text(T(loc, "tasks.lines_hint"))),
	)
}
