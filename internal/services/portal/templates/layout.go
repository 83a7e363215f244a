package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// MenuItem is one sidebar link.
type MenuItem struct {
	Label  string
	Href   string
	Active bool
}

// LanguageOption is one language switcher entry.
type LanguageOption struct {
	Tag    string
	Label  string
	Href   string
	Active bool
}

// PageContext provides shared layout context for portal pages.
type PageContext struct {
	Lang      string
	Loc       i18n.Localizer
	Title     string
	UserName  string
	RoleLabel string
	Menu      []MenuItem
	Languages []LanguageOption
	// Notice is a one-off banner, such as a discarded form warning.
	Notice string
}

// T is a shorthand for translated copy.
func T(loc i18n.Localizer, key string, args ...any) string {
	return i18n.T(loc, key, args...)
}

// ComposePageTitle appends the application name to title.
func ComposePageTitle(loc i18n.Localizer, title string) string {
	app := T(loc, "app.name")
	if title == "" || title == app {
		return app
	}
	return title + " | " + app
}

// Layout wraps body in the authenticated chrome.
func Layout(page PageContext, body templ.Component) templ.Component {
	return document(page.Lang, ComposePageTitle(page.Loc, page.Title),
		el("div", attrs("class", "portal"),
			sidebar(page),
			el("div", attrs("class", "portal-content"),
				el("header", attrs("class", "portal-header"),
					el("span", attrs("class", "portal-user"), text(page.UserName)),
					el("span", attrs("class", "badge"), text(page.RoleLabel)),
					languageSwitcher(page.Languages),
				),
				when(page.Notice != "", Alert("info", page.Notice)),
				el("main", attrs("id", "main"), body),
			),
		),
	)
}

func document(lang, title string, body templ.Component) templ.Component {
	return group(
		templ.Raw("<!DOCTYPE html>"),
		el("html", attrs("lang", lang),
			el("head", nil,
				el("meta", attrs("charset", "utf-8")),
				el("meta", attrs("name", "viewport", "content", "width=device-width, initial-scale=1")),
				el("title", nil, text(title)),
				el("link", attrs("rel", "stylesheet", "href", routepath.StaticPrefix+"portal.css")),
				el("script", attrs("src", "https://unpkg.com/htmx.org@2.0.4", "defer", "")),
			),
			el("body", attrs("hx-boost", "true"), body),
		),
	)
}

func sidebar(page PageContext) templ.Component {
	return el("nav", attrs("class", "portal-menu"),
		el("a", attrs("class", "brand", "href", href(routepath.Root)), text(T(page.Loc, "app.name"))),
		el("ul", nil, each(page.Menu, func(item MenuItem) templ.Component {
			return el("li", attrIf(item.Active, "class", "active"),
				el("a", join(attrs("href", href(item.Href)), attrIf(item.Active, "aria-current", "page")), text(item.Label)),
			)
		})),
		el("form", attrs("method", "post", "action", routepath.Logout),
			el("button", attrs("type", "submit"), text(T(page.Loc, "nav.logout"))),
		),
	)
}

func languageSwitcher(options []LanguageOption) templ.Component {
	if len(options) == 0 {
		return nil
	}
	return el("span", attrs("class", "languages"), each(options, func(option LanguageOption) templ.Component {
		return el("a", join(attrs("href", href(option.Href), "hreflang", option.Tag), attrIf(option.Active, "class", "active")), text(option.Label))
	}))
}

// Alert renders an inline message. kind is one of info, success or error.
func Alert(kind, message string) templ.Component {
	if message == "" {
		return nil
	}
	role := "status"
	if kind == "error" {
		role = "alert"
	}
	return el("div", attrs("class", "alert alert-"+kind, "role", role), text(message))
}

// LoginView is the login form state.
type LoginView struct {
	Email string
	Error string
}

// LoginPage renders the unauthenticated login screen.
func LoginPage(view LoginView, page PageContext) templ.Component {
	loc := page.Loc
	return document(page.Lang, ComposePageTitle(loc, T(loc, "login.title")),
		el("main", attrs("id", "main", "class", "login"),
			el("h1", nil, text(T(loc, "app.name"))),
			el("p", nil, text(T(loc, "login.subtitle"))),
			Alert("error", view.Error),
			el("form", attrs("method", "post", "action", routepath.Login, "hx-boost", "false"),
				field(T(loc, "login.email"), el("input", attrs("type", "email", "name", "email", "value", view.Email, "required", "", "autocomplete", "username"))),
				field(T(loc, "login.password"), el("input", attrs("type", "password", "name", "password", "required", "", "autocomplete", "current-password"))),
				el("button", attrs("type", "submit"), text(T(loc, "login.submit"))),
			),
			languageSwitcher(page.Languages),
		),
	)
}

// SubscriptionsPage renders the subscriptions placeholder.
func SubscriptionsPage(loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "subscriptions"),
		el("h1", nil, text(T(loc, "subscriptions.title"))),
		el("p", nil, text(T(loc, "subscriptions.placeholder"))),
	)
}

func field(label string, input templ.Component) templ.Component {
	return el("label", attrs("class", "field"), el("span", nil, text(label)), input)
}

// Option is one select option.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

func selectInput(name string, options []Option, extra ...string) templ.Component {
	return el("select", join(attrs("name", name), extra), each(options, func(o Option) templ.Component {
		return el("option", join(attrs("value", o.Value), attrIf(o.Selected, "selected", "")), text(o.Label))
	}))
}
