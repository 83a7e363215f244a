package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// StatCard is one dashboard counter.
type StatCard struct {
	Label string
	Value string
	Href  string
}

// ActivityRow is one recent activity entry.
type ActivityRow struct {
	Actor   string
	Message string
	When    string
}

// DashboardView provides data for the dashboard.
type DashboardView struct {
	Greeting string
	Stats    []StatCard
	Activity []ActivityRow
	Message  string
}

// DashboardPage renders the dashboard body.
func DashboardPage(view DashboardView, loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "dashboard"),
		el("h1", nil, text(view.Greeting)),
		Alert("error", view.Message),
		when(len(view.Stats) > 0, el("div", attrs("class", "stats"), each(view.Stats, func(card StatCard) templ.Component {
			body := group(el("strong", nil, text(card.Value)), el("span", nil, text(card.Label)))
			if card.Href == "" {
				return el("div", attrs("class", "stat"), body)
			}
			return el("a", attrs("class", "stat", "href", href(card.Href)), body)
		}))),
		ActivityPanel(view.Activity, loc),
	)
}

// ActivityPanel renders the recent activity panel. It polls itself for
// fresh entries.
func ActivityPanel(rows []ActivityRow, loc i18n.Localizer) templ.Component {
	return el("div", attrs("id", "activity", "hx-get", routepath.DashboardActivity, "hx-trigger", "every 30s", "hx-swap", "outerHTML"),
		activityList(rows, loc),
	)
}

func activityList(rows []ActivityRow, loc i18n.Localizer) templ.Component {
	if len(rows) == 0 {
		return el("div", attrs("class", "activity"),
			el("h2", nil, text(T(loc, "dashboard.activity"))),
			el("p", attrs("class", "empty"), text(T(loc, "dashboard.activity_empty"))),
		)
	}
	return el("div", attrs("class", "activity"),
		el("h2", nil, text(T(loc, "dashboard.activity"))),
		el("ul", nil, each(rows, func(row ActivityRow) templ.Component {
			return el("li", nil,
				el("time", nil, text(row.When)),
				text(" "),
				el("strong", nil, text(row.Actor)),
				text(" "+row.Message),
			)
		})),
	)
}
