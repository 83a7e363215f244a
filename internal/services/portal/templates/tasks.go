package templates

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
)

// TaskLink is one exercise in the tasks index.
type TaskLink struct {
	Title     string
	Href      string
	TaskCount string
	Minutes   string
}

// TaskSection groups the tasks index by module.
type TaskSection struct {
	Label     string
	Exercises []TaskLink
}

// TasksIndexView provides data for the tasks index.
type TasksIndexView struct {
	Sections []TaskSection
	Error    string
}

// ChoiceView is one MCQ option.
type ChoiceView struct {
	ID       string
	Label    string
	Selected bool
}

// MCQQuestionView is one multiple choice question.
type MCQQuestionView struct {
	ID       string
	Text     string
	Multiple bool
	Options  []ChoiceView
}

// BlankInput is one gap of a sentence.
type BlankInput struct {
	Name  string
	Value string
}

// BlankView is one sentence with gaps.
type BlankView struct {
	Before string
	After  string
	Inputs []BlankInput
}

// MatchView pairs a Group1 item with a select of Group2 items.
type MatchView struct {
	Name    string
	Label   string
	Options []Option
}

// QAView is one open question.
type QAView struct {
	Name  string
	Text  string
	Value string
}

// WritingView is the essay editor.
type WritingView struct {
	Value string
	Words string
}

// TaskCardView is one task of the answer sheet.
type TaskCardView struct {
	ID          string
	Title       string
	Description string
	TypeLabel   string
	Minutes     string
	Hint        string
	Action      string
	Complete    bool
	Error       string

	MCQ      []MCQQuestionView
	Blanks   []BlankView
	Matching []MatchView
	QA       []QAView
	Writing  *WritingView
}

// TaskSheetView provides data for one exercise's answer sheet.
type TaskSheetView struct {
	Title        string
	Description  string
	Minutes      string
	Passage      string
	ImageURL     string
	RecordingURL string
	BackURL      string
	Tasks        []TaskCardView
}

// TasksIndex renders the exercises available for answering.
func TasksIndex(view TasksIndexView, loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "tasks-index"),
		el("h1", nil, text(T(loc, "tasks.title"))),
		Alert("error", view.Error),
		each(view.Sections, func(section TaskSection) templ.Component {
			return el("div", attrs("class", "module"),
				el("h2", nil, text(section.Label)),
				taskLinks(section.Exercises, loc),
			)
		}),
	)
}

func taskLinks(links []TaskLink, loc i18n.Localizer) templ.Component {
	if len(links) == 0 {
		return el("p", attrs("class", "empty"), text(T(loc, "exercises.empty")))
	}
	return el("ul", nil, each(links, func(link TaskLink) templ.Component {
		return el("li", nil,
			el("a", attrs("href", href(link.Href)), text(link.Title)),
			el("span", attrs("class", "meta"), text(T(loc, "tasks.meta", link.TaskCount, link.Minutes))),
		)
	}))
}

// TaskSheet renders an exercise with one card per task.
func TaskSheet(view TaskSheetView, loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "task-sheet"),
		el("a", attrs("class", "back", "href", href(view.BackURL)), text(T(loc, "tasks.back"))),
		el("h1", nil, text(view.Title)),
		when(view.Description != "", el("p", nil, text(view.Description))),
		el("p", attrs("class", "meta"), text(T(loc, "tasks.allowed_minutes", view.Minutes))),
		when(view.Passage != "", el("article", attrs("class", "passage"), text(view.Passage))),
		when(view.ImageURL != "", el("img", attrs("src", href(view.ImageURL), "alt", view.Title))),
		when(view.RecordingURL != "", el("audio", attrs("controls", "", "src", href(view.RecordingURL)))),
		each(view.Tasks, func(card TaskCardView) templ.Component { return TaskCard(card, loc) }),
	)
}

// TaskCard renders one task and its answer form. It is also the fragment
// swapped in after a save or an option toggle.
func TaskCard(card TaskCardView, loc i18n.Localizer) templ.Component {
	target := "#task-" + card.ID
	status := T(loc, "tasks.incomplete")
	if card.Complete {
		status = T(loc, "tasks.complete")
	}
	return el("div", attrs("class", "task-card", "id", "task-"+card.ID),
		el("header", nil,
			el("h2", nil, text(card.Title)),
			el("span", attrs("class", "badge"), text(card.TypeLabel)),
			el("span", join(attrs("class", "status"), attrIf(card.Complete, "data-complete", "true")), text(status)),
		),
		when(card.Description != "", el("p", nil, text(card.Description))),
		when(card.Hint != "", el("p", attrs("class", "hint"), text(card.Hint))),
		Alert("error", card.Error),
		mcqQuestions(card, target, loc),
		when(card.MCQ == nil, el("form", attrs("method", "post", "action", card.Action,
			"hx-post", card.Action, "hx-target", target, "hx-swap", "outerHTML"),
			blanks(card.Blanks),
			matches(card.Matching),
			qaInputs(card.QA),
			writing(card.Writing, loc),
			el("button", attrs("type", "submit"), text(T(loc, "action.save"))),
		)),
	)
}

func mcqQuestions(card TaskCardView, target string, loc i18n.Localizer) templ.Component {
	if card.MCQ == nil {
		return nil
	}
	return each(card.MCQ, func(question MCQQuestionView) templ.Component {
		kind := T(loc, "tasks.single")
		if question.Multiple {
			kind = T(loc, "tasks.multiple")
		}
		return el("fieldset", attrs("class", "mcq"),
			el("legend", nil, text(question.Text)),
			el("small", nil, text(kind)),
			each(question.Options, func(option ChoiceView) templ.Component {
				return el("form", attrs("method", "post", "action", card.Action,
					"hx-post", card.Action, "hx-target", target, "hx-swap", "outerHTML"),
					el("input", attrs("type", "hidden", "name", "toggle_question", "value", question.ID)),
					el("input", attrs("type", "hidden", "name", "toggle_option", "value", option.ID)),
					el("button", join(attrs("type", "submit", "class", "choice", "aria-pressed", strconv.FormatBool(option.Selected)),
						attrIf(option.Selected, "data-selected", "true")), text(option.Label)),
				)
			}),
		)
	})
}

func blanks(rows []BlankView) templ.Component {
	return each(rows, func(row BlankView) templ.Component {
		return el("p", attrs("class", "blank"),
			text(row.Before+" "),
			each(row.Inputs, func(input BlankInput) templ.Component {
				return el("input", attrs("type", "text", "name", input.Name, "value", input.Value, "size", "12"))
			}),
			when(row.After != "", text(" "+row.After)),
		)
	})
}

func matches(rows []MatchView) templ.Component {
	return each(rows, func(row MatchView) templ.Component {
		return field(row.Label, selectInput(row.Name, row.Options))
	})
}

func qaInputs(rows []QAView) templ.Component {
	return each(rows, func(row QAView) templ.Component {
		return field(row.Text, el("input", attrs("type", "text", "name", row.Name, "value", row.Value)))
	})
}

func writing(view *WritingView, loc i18n.Localizer) templ.Component {
	if view == nil {
		return nil
	}
	return group(
		el("textarea", attrs("name", "writing", "rows", "14"), text(view.Value)),
		el("p", attrs("class", "word-count"), text(T(loc, "tasks.word_count", view.Words))),
	)
}
