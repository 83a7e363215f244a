package portal

import (
	"net/http"
	"strconv"

	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

const activityTimeLayout = "2006-01-02 15:04"

// HandleDashboard renders the dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageDashboard)})
	if !ok {
		return
	}
	view := templates.DashboardView{
		Greeting: templates.T(req.loc, "dashboard.greeting", req.actor().DisplayName),
		Stats:    h.dashboardStats(r, req),
		Activity: h.activityRows(r, req),
	}
	h.render(w, r, req, templates.T(req.loc, "nav.dashboard"), templates.DashboardPage(view, req.loc), http.StatusOK)
}

// HandleDashboardActivity renders the activity panel for polling.
func (h *Handler) HandleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.peek(w, r, navigation.PageDashboard)
	if !ok {
		return
	}
	sharedhtmx.RenderPage(w, r, templates.ActivityPanel(h.activityRows(r, req), req.loc), nil, http.StatusOK, "")
}

func (h *Handler) activityRows(r *http.Request, req *pageRequest) []templates.ActivityRow {
	entries, err := h.activity.Recent(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list activity", "error", err)
		return nil
	}
	rows := make([]templates.ActivityRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, templates.ActivityRow{
			Actor:   entry.Actor,
			Message: entry.Message,
			When:    entry.CreatedAt.Format(activityTimeLayout),
		})
	}
	return rows
}

func (h *Handler) dashboardStats(r *http.Request, req *pageRequest) []templates.StatCard {
	role := req.actor().Role
	var cards []templates.StatCard
	if h.router.Allowed(role, navigation.PageUsers) {
		cards = append(cards, templates.StatCard{
			Label: templates.T(req.loc, "dashboard.sessions"),
			Value: strconv.Itoa(h.sessions.Len()),
			Href:  routepath.Users,
		})
	}
	if !h.router.Allowed(role, navigation.PageExercises) {
		return cards
	}
	counts, err := h.exercises.Counts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "count exercises", "error", err)
		return cards
	}
	for _, t := range exercise.Types() {
		module := string(t.Module())
		cards = append(cards, templates.StatCard{
			Label: templates.T(req.loc, "nav.exercises."+module),
			Value: strconv.Itoa(counts[t]),
			Href:  routepath.ExerciseModule(module),
		})
	}
	return cards
}

// HandleSubscriptions renders the subscriptions placeholder.
func (h *Handler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageSubscriptions)})
	if !ok {
		return
	}
	h.render(w, r, req, templates.T(req.loc, "subscriptions.title"), templates.SubscriptionsPage(req.loc), http.StatusOK)
}
