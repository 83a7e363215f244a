package navigation

import "strings"

// Page is a portal page key.
type Page string

const (
	PageDashboard     Page = "dashboard"
	PageUsers         Page = "users"
	PageSubscriptions Page = "subscriptions"
	PageExercises     Page = "exercises"
	PageExerciseForm  Page = "exercise_form"
	PageTasks         Page = "tasks"
)

var pages = []Page{PageDashboard, PageUsers, PageSubscriptions, PageExercises, PageExerciseForm, PageTasks}

// Pages returns every known page key.
func Pages() []Page {
	out := make([]Page, len(pages))
	copy(out, pages)
	return out
}

// ParsePage normalizes a page key.
func ParsePage(value string) (Page, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	for _, page := range pages {
		if string(page) == key {
			return page, true
		}
	}
	return "", false
}

// Module is an exercise module key.
type Module string

const (
	ModuleReading   Module = "reading"
	ModuleWriting   Module = "writing"
	ModuleListening Module = "listening"
	ModuleSpeaking  Module = "speaking"
)

var modules = []Module{ModuleReading, ModuleWriting, ModuleListening, ModuleSpeaking}

// Modules returns the exercise modules in menu order.
func Modules() []Module {
	out := make([]Module, len(modules))
	copy(out, modules)
	return out
}

// ParseModule normalizes a module key.
func ParseModule(value string) (Module, bool) {
	key := strings.ToLower(strings.TrimSpace(value))
	for _, module := range modules {
		if string(module) == key {
			return module, true
		}
	}
	return "", false
}

// Mode is the sub-state of an exercise module.
type Mode string

const (
	ModeList Mode = "list"
	ModeForm Mode = "form"
)

// View is the router state for one session.
type View struct {
	Page       Page   `json:"page"`
	Module     Module `json:"module,omitempty"`
	Mode       Mode   `json:"mode,omitempty"`
	ExerciseID string `json:"exercise_id,omitempty"`
}

// InModule reports whether the view is inside an exercise module.
func (v View) InModule() bool {
	return v.Page == PageExercises || v.Page == PageExerciseForm
}

// Request is a navigation request, typically decoded from a URL.
type Request struct {
	Page       string
	Module     string
	ExerciseID string
}

// Resolution is the router's answer to a navigation request.
type Resolution struct {
	View       View
	Redirected bool
	ReasonCode string
	// FormDiscarded is set when the previous view held an open exercise form
	// that the new view leaves.
	FormDiscarded bool
}
