// Package navigation decides which portal screen renders for a principal.
//
// The router consults a declarative access table and never fails a
// request: a page the role may not open resolves to the dashboard and a
// warning is logged.
package navigation

import (
	"log/slog"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

const (
	ReasonAllowed          = "ALLOWED"
	ReasonUnknownPage      = "UNKNOWN_PAGE"
	ReasonInvalidModule    = "INVALID_MODULE"
	ReasonDenyRankRequired = authz.ReasonDenyRankRequired
)

const (
	outcomeAllowed    = "allowed"
	outcomeRedirected = "redirected"
	outcomeUnknown    = "unknown"
)

// Recorder receives navigation outcomes. *metrics.Metrics implements it.
type Recorder interface {
	NavigationResolved(page, outcome string)
}

// Router resolves navigation requests against an access table.
type Router struct {
	table    AccessTable
	logger   *slog.Logger
	recorder Recorder
}

// NewRouter builds a router. A nil logger discards output; a nil recorder
// disables metrics.
func NewRouter(table AccessTable, logger *slog.Logger, recorder Recorder) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{table: table, logger: logger, recorder: recorder}
}

// Table returns the access table in use.
func (r *Router) Table() AccessTable {
	return r.table
}

// Initial returns the view every session starts on.
func (r *Router) Initial() View {
	return View{Page: PageDashboard}
}

// Allowed reports whether role may open page. The dashboard is open to
// every session.
func (r *Router) Allowed(role authz.Role, page Page) bool {
	if page == PageDashboard {
		return true
	}
	rule, ok := r.table.Rule(page)
	if !ok {
		return false
	}
	return authz.AtLeast(role, rule.View)
}

// CanManage reports whether role may create, edit or delete within page.
func (r *Router) CanManage(role authz.Role, page Page) bool {
	rule, ok := r.table.Rule(page)
	if !ok || rule.Manage == authz.RoleUnknown {
		return false
	}
	return authz.AtLeast(role, rule.View) && authz.AtLeast(role, rule.Manage)
}

// Navigate resolves req for role, starting from current.
func (r *Router) Navigate(role authz.Role, current View, req Request) Resolution {
	page, ok := ParsePage(req.Page)
	if !ok {
		r.record(string(PageDashboard), outcomeUnknown)
		r.logger.Info("navigation to unknown page", "role", string(role), "page", req.Page)
		return r.resolve(current, r.Initial(), false, ReasonUnknownPage)
	}

	next := View{Page: page}
	switch page {
	case PageExercises, PageExerciseForm:
		module, ok := ParseModule(req.Module)
		if !ok {
			r.record(string(page), outcomeRedirected)
			r.logger.Warn("navigation with invalid module", "role", string(role), "page", string(page), "module", req.Module)
			return r.resolve(current, r.Initial(), true, ReasonInvalidModule)
		}
		next.Module = module
		next.Mode = ModeList
		if page == PageExerciseForm {
			next.Mode = ModeForm
			next.ExerciseID = req.ExerciseID
		}
	case PageTasks:
		next.ExerciseID = req.ExerciseID
	}

	if !r.Allowed(role, page) {
		r.record(string(page), outcomeRedirected)
		r.logger.Warn("navigation denied", "role", string(role), "page", string(page), "module", string(next.Module))
		return r.resolve(current, r.Initial(), true, ReasonDenyRankRequired)
	}
	r.record(string(page), outcomeAllowed)
	return r.resolve(current, next, false, ReasonAllowed)
}

func (r *Router) resolve(current, next View, redirected bool, reason string) Resolution {
	discarded := current.Mode == ModeForm &&
		(next.Page != PageExerciseForm || next.Module != current.Module || next.ExerciseID != current.ExerciseID)
	return Resolution{View: next, Redirected: redirected, ReasonCode: reason, FormDiscarded: discarded}
}

func (r *Router) record(page, outcome string) {
	if r.recorder != nil {
		r.recorder.NavigationResolved(page, outcome)
	}
}

// MenuItem is one sidebar entry.
type MenuItem struct {
	Page     Page   `json:"page"`
	Module   Module `json:"module,omitempty"`
	LabelKey string `json:"label_key"`
	Href     string `json:"href"`
	Active   bool   `json:"active"`
}

// Menu returns the sidebar for role with the entry for active marked.
func (r *Router) Menu(role authz.Role, active View) []MenuItem {
	var items []MenuItem
	add := func(page Page, module Module, labelKey, href string) {
		if !r.Allowed(role, page) {
			return
		}
		isActive := active.Page == page
		if page == PageExercises {
			isActive = active.InModule() && active.Module == module
		}
		items = append(items, MenuItem{Page: page, Module: module, LabelKey: labelKey, Href: href, Active: isActive})
	}

	add(PageDashboard, "", "nav.dashboard", routepath.Root)
	add(PageUsers, "", "nav.users", routepath.Users)
	add(PageSubscriptions, "", "nav.subscriptions", routepath.Subscriptions)
	for _, module := range modules {
		add(PageExercises, module, "nav.exercises."+string(module), routepath.ExerciseModule(string(module)))
	}
	add(PageTasks, "", "nav.tasks", routepath.Tasks)
	return items
}
