package portal

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/answer"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

// tasksIndexPageSize bounds each module section of the tasks index.
const tasksIndexPageSize = 100

// HandleTasks lists every exercise by module for answering.
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageTasks)})
	if !ok {
		return
	}
	var view templates.TasksIndexView
	for _, t := range exercise.Types() {
		result, err := h.exercises.Browse(r.Context(), req.actor(), t, exercise.ListOptions{PageSize: tasksIndexPageSize})
		if err != nil {
			view.Error = h.errorText(r, req.loc, "browse exercises", err)
			break
		}
		section := templates.TaskSection{Label: moduleLabel(req, t.Module())}
		for _, e := range result.Exercises {
			section.Exercises = append(section.Exercises, templates.TaskLink{
				Title:     e.Title,
				Href:      routepath.TaskExercise(e.ID),
				TaskCount: strconv.Itoa(len(e.Tasks)),
				Minutes:   strconv.Itoa(e.AllowedMinutes),
			})
		}
		view.Sections = append(view.Sections, section)
	}
	h.render(w, r, req, templates.T(req.loc, "tasks.title"), templates.TasksIndex(view, req.loc), http.StatusOK)
}

// HandleTaskSheet renders one exercise with the actor's draft answers.
func (h *Handler) HandleTaskSheet(w http.ResponseWriter, r *http.Request, exerciseID string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageTasks), ExerciseID: exerciseID})
	if !ok {
		return
	}
	sheet, err := h.answers.Open(r.Context(), req.actor(), exerciseID)
	if err != nil {
		view := templates.TasksIndexView{Error: h.errorText(r, req.loc, "open exercise", err)}
		h.render(w, r, req, templates.T(req.loc, "tasks.title"), templates.TasksIndex(view, req.loc), apperrors.HTTPStatus(err))
		return
	}
	ex := sheet.Exercise
	view := templates.TaskSheetView{
		Title:        ex.Title,
		Description:  ex.Description,
		Minutes:      strconv.Itoa(ex.AllowedMinutes),
		Passage:      ex.Passage,
		ImageURL:     ex.ImageURL,
		RecordingURL: ex.RecordingURL,
		BackURL:      routepath.Tasks,
	}
	for _, task := range ex.Tasks {
		view.Tasks = append(view.Tasks, taskCard(req, ex.ID, task, sheet.Answer(task.ID)))
	}
	h.render(w, r, req, ex.Title, templates.TaskSheet(view, req.loc), http.StatusOK)
}

// HandleTaskAnswer saves a draft answer or toggles an MCQ option.
func (h *Handler) HandleTaskAnswer(w http.ResponseWriter, r *http.Request, exerciseID, taskID string) {
	req, ok := h.peek(w, r, navigation.PageTasks)
	if !ok {
		return
	}
	if !requireMutation(w, r, req.loc) {
		return
	}
	sheet, err := h.answers.Open(r.Context(), req.actor(), exerciseID)
	if err != nil {
		http.Error(w, h.errorText(r, req.loc, "open exercise", err), apperrors.HTTPStatus(err))
		return
	}
	task, found := sheet.Exercise.Task(taskID)
	if !found {
		http.Error(w, h.errorText(r, req.loc, "open task", apperrors.New(apperrors.CodeTaskNotFound, "task not found")), http.StatusNotFound)
		return
	}

	var saved answer.Answer
	if questionID := strings.TrimSpace(r.PostFormValue("toggle_question")); questionID != "" {
		saved, err = h.answers.Toggle(r.Context(), req.actor(), exerciseID, taskID, questionID, strings.TrimSpace(r.PostFormValue("toggle_option")))
	} else {
		saved, err = h.answers.Save(r.Context(), req.actor(), exerciseID, taskID, parseAnswerForm(r, exerciseID, task))
	}
	status := http.StatusOK
	if err != nil {
		status = apperrors.HTTPStatus(err)
		saved = sheet.Answer(taskID)
	}
	if !sharedhtmx.IsHTMXRequest(r) && err == nil {
		http.Redirect(w, r, routepath.TaskExercise(exerciseID)+"#task-"+taskID, http.StatusSeeOther)
		return
	}
	card := taskCard(req, exerciseID, task, saved)
	if err != nil {
		card.Error = h.errorText(r, req.loc, "save answer", err)
	}
	sharedhtmx.RenderPage(w, r, templates.TaskCard(card, req.loc), nil, status, "")
}

// taskCard builds the answer card for task from a.
func taskCard(req *pageRequest, exerciseID string, task exercise.Task, a answer.Answer) templates.TaskCardView {
	card := templates.TaskCardView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		TypeLabel:   string(task.Type),
		Minutes:     strconv.Itoa(task.AllowedMinutes),
		Action:      routepath.TaskAnswer(exerciseID, task.ID),
		Complete:    answer.Complete(task, a),
	}
	switch {
	case task.MCQ != nil:
		card.MCQ = make([]templates.MCQQuestionView, 0, len(task.MCQ.Questions))
		for _, question := range task.MCQ.Questions {
			selected := make(map[string]bool, len(a.MCQ[question.ID]))
			for _, optionID := range a.MCQ[question.ID] {
				selected[optionID] = true
			}
			view := templates.MCQQuestionView{ID: question.ID, Text: question.Text, Multiple: task.MCQ.AllowMultipleSelections}
			for _, option := range question.Options {
				view.Options = append(view.Options, templates.ChoiceView{ID: option.ID, Label: option.Value, Selected: selected[option.ID]})
			}
			card.MCQ = append(card.MCQ, view)
		}
	case task.FillingBlanks != nil:
		card.Hint = templates.T(req.loc, "tasks.hint.filling_blanks", task.FillingBlanks.MaxWordsPerBlank)
		for _, blank := range task.FillingBlanks.Blanks {
			row := templates.BlankView{Before: blank.TextBefore, After: blank.TextAfter}
			for i := 0; i < max(blank.NumBlanks, 1); i++ {
				row.Inputs = append(row.Inputs, templates.BlankInput{Name: blankField(blank.ID, i), Value: a.Blanks[blank.ID][i]})
			}
			card.Blanks = append(card.Blanks, row)
		}
	case task.Matching != nil:
		card.Hint = templates.T(req.loc, "tasks.hint.matching")
		for _, item := range task.Matching.Group1 {
			options := []templates.Option{{Value: "", Label: templates.T(req.loc, "tasks.choose")}}
			for _, choice := range task.Matching.Group2 {
				options = append(options, templates.Option{Value: choice.ID, Label: choice.Value, Selected: a.Matching[item.ID] == choice.ID})
			}
			card.Matching = append(card.Matching, templates.MatchView{Name: "match." + item.ID, Label: item.Value, Options: options})
		}
	case task.QA != nil:
		card.Hint = templates.T(req.loc, "tasks.hint.qa", task.QA.MaxWordsPerAnswer)
		for _, question := range task.QA.Questions {
			card.QA = append(card.QA, templates.QAView{Name: "qa." + question.ID, Text: question.Value, Value: a.QA[question.ID]})
		}
	case task.Writing != nil:
		card.Hint = templates.T(req.loc, "tasks.hint.writing", task.Writing.MinimumWordCount)
		card.Writing = &templates.WritingView{Value: a.Writing, Words: strconv.Itoa(answer.WordCount(a.Writing))}
	}
	return card
}

// parseAnswerForm reads the answer fields named blank.<id>.<gap>,
// match.<id>, qa.<id> and writing.
func parseAnswerForm(r *http.Request, exerciseID string, task exercise.Task) answer.Answer {
	a := answer.Empty(exerciseID, task)
	switch {
	case task.FillingBlanks != nil:
		a.Blanks = make(map[string]map[int]string, len(task.FillingBlanks.Blanks))
		for _, blank := range task.FillingBlanks.Blanks {
			gaps := make(map[int]string, blank.NumBlanks)
			for i := 0; i < max(blank.NumBlanks, 1); i++ {
				if value := strings.TrimSpace(r.PostFormValue(blankField(blank.ID, i))); value != "" {
					gaps[i] = value
				}
			}
			if len(gaps) > 0 {
				a.Blanks[blank.ID] = gaps
			}
		}
	case task.Matching != nil:
		a.Matching = make(map[string]string, len(task.Matching.Group1))
		for _, item := range task.Matching.Group1 {
			if value := strings.TrimSpace(r.PostFormValue("match." + item.ID)); value != "" {
				a.Matching[item.ID] = value
			}
		}
	case task.QA != nil:
		a.QA = make(map[string]string, len(task.QA.Questions))
		for _, question := range task.QA.Questions {
			if value := strings.TrimSpace(r.PostFormValue("qa." + question.ID)); value != "" {
				a.QA[question.ID] = value
			}
		}
	case task.Writing != nil:
		a.Writing = r.PostFormValue("writing")
	}
	return a
}

func blankField(blankID string, gap int) string {
	return "blank." + blankID + "." + strconv.Itoa(gap)
}
