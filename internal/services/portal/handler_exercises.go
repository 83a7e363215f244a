package portal

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

// HandleExercisesIndex sends /exercises to the first module.
func (h *Handler) HandleExercisesIndex(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	http.Redirect(w, r, routepath.ExerciseModule(string(navigation.ModuleReading)), http.StatusSeeOther)
}

// HandleExerciseModule lists a module on GET and creates an exercise on
// POST.
func (h *Handler) HandleExerciseModule(w http.ResponseWriter, r *http.Request, module string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		h.createExercise(w, r, module)
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExercises), Module: module})
	if !ok {
		return
	}
	view := h.exerciseList(r, req)
	view.Message = firstNonEmpty(req.notice, notice(r, req.loc))
	h.render(w, r, req, view.ModuleLabel, templates.ExercisesPage(view, req.loc), http.StatusOK)
}

// HandleExerciseTable renders the module table for search and paging.
func (h *Handler) HandleExerciseTable(w http.ResponseWriter, r *http.Request, module string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.peek(w, r, navigation.PageExercises)
	if !ok {
		return
	}
	m, valid := navigation.ParseModule(module)
	if !valid {
		http.NotFound(w, r)
		return
	}
	req.view = navigation.View{Page: navigation.PageExercises, Module: m, Mode: navigation.ModeList}
	view := h.exerciseList(r, req)
	status := http.StatusOK
	if view.Error != "" {
		status = http.StatusBadRequest
	}
	if !sharedhtmx.IsHTMXRequest(r) {
		h.render(w, r, req, view.ModuleLabel, templates.ExercisesPage(view, req.loc), status)
		return
	}
	sharedhtmx.RenderPage(w, r, templates.ExercisesTable(view, req.loc), nil, status, "")
}

// HandleExerciseNew renders the create form.
func (h *Handler) HandleExerciseNew(w http.ResponseWriter, r *http.Request, module string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExerciseForm), Module: module})
	if !ok {
		return
	}
	t := typeOf(req.view)
	first := taskFormOf(exercise.NewTask(exercise.TaskMCQ))
	view := h.exerciseForm(req, exercise.NewExercise(t), &first)
	view.Message = req.notice
	h.renderExerciseForm(w, r, req, view, http.StatusOK)
}

// HandleExerciseEdit serves the edit form and applies updates posted to it.
func (h *Handler) HandleExerciseEdit(w http.ResponseWriter, r *http.Request, module, exerciseID string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExerciseForm), Module: module, ExerciseID: exerciseID})
	if !ok {
		return
	}
	current, ok := h.loadExercise(w, r, req, exerciseID)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		h.updateExercise(w, r, req, current)
		return
	}
	view := h.exerciseForm(req, current, nil)
	view.Message = firstNonEmpty(req.notice, notice(r, req.loc))
	h.renderExerciseForm(w, r, req, view, http.StatusOK)
}

// HandleExerciseDelete removes an exercise and returns to the module list.
func (h *Handler) HandleExerciseDelete(w http.ResponseWriter, r *http.Request, module, exerciseID string) {
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExercises), Module: module})
	if !ok {
		return
	}
	if !requireMutation(w, r, req.loc) {
		return
	}
	if err := h.exercises.Delete(r.Context(), req.actor(), typeOf(req.view), exerciseID); err != nil {
		view := h.exerciseList(r, req)
		view.Error = h.errorText(r, req.loc, "delete exercise", err)
		h.render(w, r, req, view.ModuleLabel, templates.ExercisesPage(view, req.loc), apperrors.HTTPStatus(err))
		return
	}
	sharedhtmx.Redirect(w, r, withNotice(routepath.ExerciseModule(module), "notice.exercise_deleted"))
}

// HandleExerciseTaskAdd appends a task to a saved exercise.
func (h *Handler) HandleExerciseTaskAdd(w http.ResponseWriter, r *http.Request, module, exerciseID string) {
	h.mutateTask(w, r, module, exerciseID, "add task", func(req *pageRequest, current exercise.Exercise) (exercise.Exercise, error) {
		task, err := parseTaskForm(r).task(nil)
		if err != nil {
			return exercise.Exercise{}, err
		}
		task.ID = ""
		return h.exercises.AddTask(r.Context(), req.actor(), current.ID, task)
	}, "notice.task_saved")
}

// HandleExerciseTaskUpdate replaces one task of a saved exercise.
func (h *Handler) HandleExerciseTaskUpdate(w http.ResponseWriter, r *http.Request, module, exerciseID, taskID string) {
	h.mutateTask(w, r, module, exerciseID, "update task", func(req *pageRequest, current exercise.Exercise) (exercise.Exercise, error) {
		var previous *exercise.Task
		if existing, ok := current.Task(taskID); ok {
			previous = &existing
		}
		task, err := parseTaskForm(r).task(previous)
		if err != nil {
			return exercise.Exercise{}, err
		}
		task.ID = taskID
		return h.exercises.UpdateTask(r.Context(), req.actor(), current.ID, task)
	}, "notice.task_saved")
}

// HandleExerciseTaskDelete removes one task of a saved exercise.
func (h *Handler) HandleExerciseTaskDelete(w http.ResponseWriter, r *http.Request, module, exerciseID, taskID string) {
	h.mutateTask(w, r, module, exerciseID, "remove task", func(req *pageRequest, current exercise.Exercise) (exercise.Exercise, error) {
		return h.exercises.RemoveTask(r.Context(), req.actor(), current.ID, taskID)
	}, "notice.task_removed")
}

type taskMutation func(req *pageRequest, current exercise.Exercise) (exercise.Exercise, error)

// mutateTask runs a task change from the edit page. Failures re-render the
// edit form with the error; success returns to it with a notice.
func (h *Handler) mutateTask(w http.ResponseWriter, r *http.Request, module, exerciseID, op string, mutate taskMutation, noticeKey string) {
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExerciseForm), Module: module, ExerciseID: exerciseID})
	if !ok {
		return
	}
	if !requireMutation(w, r, req.loc) {
		return
	}
	current, ok := h.loadExercise(w, r, req, exerciseID)
	if !ok {
		return
	}
	if _, err := mutate(req, current); err != nil {
		view := h.exerciseForm(req, current, nil)
		view.Error = h.errorText(r, req.loc, op, err)
		h.renderExerciseForm(w, r, req, view, apperrors.HTTPStatus(err))
		return
	}
	sharedhtmx.Redirect(w, r, withNotice(routepath.ExerciseEdit(module, exerciseID), noticeKey))
}

func (h *Handler) createExercise(w http.ResponseWriter, r *http.Request, module string) {
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageExerciseForm), Module: module})
	if !ok {
		return
	}
	if !requireSameOrigin(w, r, req.loc) {
		return
	}
	t := typeOf(req.view)
	input, err := parseExerciseForm(r, t)
	first := parseTaskForm(r)
	if err == nil {
		var task exercise.Task
		task, err = first.task(nil)
		if err == nil {
			input.Tasks = []exercise.Task{task}
			_, err = h.exercises.Create(r.Context(), req.actor(), t, input)
		}
	}
	if err != nil {
		view := h.exerciseForm(req, input, &first)
		view.Error = h.errorText(r, req.loc, "create exercise", err)
		h.renderExerciseForm(w, r, req, view, apperrors.HTTPStatus(err))
		return
	}
	h.leaveForm(r, req)
	sharedhtmx.Redirect(w, r, withNotice(routepath.ExerciseModule(module), "notice.exercise_created"))
}

func (h *Handler) updateExercise(w http.ResponseWriter, r *http.Request, req *pageRequest, current exercise.Exercise) {
	if !requireSameOrigin(w, r, req.loc) {
		return
	}
	t := typeOf(req.view)
	input, err := parseExerciseForm(r, t)
	input.Tasks = current.Tasks
	if err == nil {
		_, err = h.exercises.Update(r.Context(), req.actor(), t, current.ID, input)
	}
	if err != nil {
		input.ID = current.ID
		view := h.exerciseForm(req, input, nil)
		view.Error = h.errorText(r, req.loc, "update exercise", err)
		h.renderExerciseForm(w, r, req, view, apperrors.HTTPStatus(err))
		return
	}
	h.leaveForm(r, req)
	sharedhtmx.Redirect(w, r, withNotice(routepath.ExerciseModule(string(req.view.Module)), "notice.exercise_updated"))
}

// leaveForm moves the session back to the module list after a save so the
// redirect does not report a discarded form.
func (h *Handler) leaveForm(r *http.Request, req *pageRequest) {
	list := navigation.View{Page: navigation.PageExercises, Module: req.view.Module, Mode: navigation.ModeList}
	if err := h.sessions.Navigate(req.sess.ID, list); err != nil {
		h.logger.WarnContext(r.Context(), "store session view", "error", err)
	}
}

func (h *Handler) loadExercise(w http.ResponseWriter, r *http.Request, req *pageRequest, exerciseID string) (exercise.Exercise, bool) {
	current, err := h.exercises.Get(r.Context(), req.actor(), exerciseID)
	if err == nil && current.Type != typeOf(req.view) {
		err = apperrors.New(apperrors.CodeNotFound, "exercise not in module")
	}
	if err != nil {
		view := h.exerciseList(r, req)
		view.Error = h.errorText(r, req.loc, "get exercise", err)
		h.render(w, r, req, view.ModuleLabel, templates.ExercisesPage(view, req.loc), apperrors.HTTPStatus(err))
		return exercise.Exercise{}, false
	}
	return current, true
}

func (h *Handler) exerciseList(r *http.Request, req *pageRequest) templates.ExercisesPageView {
	module := string(req.view.Module)
	query := r.URL.Query()
	opts := exercise.ListOptions{
		Query:     strings.TrimSpace(query.Get("q")),
		Filter:    strings.TrimSpace(query.Get("filter")),
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}
	view := templates.ExercisesPageView{
		ModuleLabel: moduleLabel(req, req.view.Module),
		ListURL:     routepath.ExerciseModule(module),
		TableURL:    routepath.ExerciseModuleTable(module),
		NewURL:      routepath.ExerciseNew(module),
		CanManage:   h.router.CanManage(req.actor().Role, navigation.PageExercises),
		Query:       opts.Query,
		Filter:      opts.Filter,
	}
	result, err := h.exercises.List(r.Context(), req.actor(), typeOf(req.view), opts)
	if err != nil {
		view.Error = h.errorText(r, req.loc, "list exercises", err)
		return view
	}
	for _, e := range result.Exercises {
		view.Rows = append(view.Rows, templates.ExerciseRow{
			ID:        e.ID,
			Title:     e.Title,
			Minutes:   strconv.Itoa(e.AllowedMinutes),
			TaskCount: strconv.Itoa(len(e.Tasks)),
			UpdatedAt: e.UpdatedAt.Format(dateLayout),
			EditURL:   routepath.ExerciseEdit(module, e.ID),
			DeleteURL: routepath.ExerciseDelete(module, e.ID),
			TasksURL:  routepath.TaskExercise(e.ID),
		})
	}
	if result.NextPageToken != "" {
		next := url.Values{"q": {opts.Query}, "filter": {opts.Filter}, "page_token": {result.NextPageToken}}
		view.NextURL = view.TableURL + "?" + next.Encode()
	}
	return view
}

// exerciseForm builds the editor for e. first is the embedded task of the
// create form; saved exercises list their tasks instead.
func (h *Handler) exerciseForm(req *pageRequest, e exercise.Exercise, first *taskForm) templates.ExerciseFormView {
	module := string(req.view.Module)
	t := typeOf(req.view)
	minutes := ""
	if e.AllowedMinutes > 0 {
		minutes = strconv.Itoa(e.AllowedMinutes)
	}
	view := templates.ExerciseFormView{
		Action:        routepath.ExerciseModule(module),
		CancelURL:     routepath.ExerciseModule(module),
		ModuleLabel:   moduleLabel(req, req.view.Module),
		Title:         e.Title,
		Description:   e.Description,
		Minutes:       minutes,
		Passage:       e.Passage,
		ImageURL:      e.ImageURL,
		RecordingURL:  e.RecordingURL,
		ShowPassage:   t.AllowsPassage(),
		ShowImage:     t.AllowsImage(),
		ShowRecording: t.AllowsRecording(),
	}
	if first != nil {
		task := first.view(req.loc, "", "")
		view.FirstTask = &task
		return view
	}
	view.Action = routepath.Exercise(module, e.ID)
	view.Editing = true
	for _, task := range e.Tasks {
		view.Tasks = append(view.Tasks, taskFormOf(task).view(req.loc,
			routepath.ExerciseTask(module, e.ID, task.ID),
			routepath.ExerciseTaskDelete(module, e.ID, task.ID)))
	}
	blank := taskFormOf(exercise.NewTask(exercise.TaskMCQ))
	next := blank.view(req.loc, routepath.ExerciseTasks(module, e.ID), "")
	view.NewTask = &next
	return view
}

func (h *Handler) renderExerciseForm(w http.ResponseWriter, r *http.Request, req *pageRequest, view templates.ExerciseFormView, status int) {
	title := templates.T(req.loc, "exercises.new_title", view.ModuleLabel)
	if view.Editing {
		title = templates.T(req.loc, "exercises.edit_title", view.ModuleLabel)
	}
	h.render(w, r, req, title, templates.ExerciseForm(view, req.loc), status)
}

func parseExerciseForm(r *http.Request, t exercise.Type) (exercise.Exercise, error) {
	e := exercise.Exercise{
		Type:         t,
		Title:        r.PostFormValue("title"),
		Description:  r.PostFormValue("description"),
		Passage:      r.PostFormValue("passage"),
		ImageURL:     r.PostFormValue("image_url"),
		RecordingURL: r.PostFormValue("recording_url"),
	}
	raw := strings.TrimSpace(r.PostFormValue("allowed_minutes"))
	if raw == "" {
		e.AllowedMinutes = exercise.DefaultExerciseMinutes
		return e, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil {
		return e, apperrors.Wrap(apperrors.CodeExerciseInvalidMinutes, "allowed time must be a whole number", err)
	}
	e.AllowedMinutes = minutes
	return e, nil
}

// typeOf returns the exercise type of an exercise view. The router only
// produces valid modules for exercise pages.
func typeOf(view navigation.View) exercise.Type {
	t, _ := exercise.TypeOf(view.Module)
	return t
}

func moduleLabel(req *pageRequest, module navigation.Module) string {
	return templates.T(req.loc, "nav.exercises."+string(module))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
