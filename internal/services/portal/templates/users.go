package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// UserRow represents a row in the users table.
type UserRow struct {
	ID           string
	Name         string
	Email        string
	RoleLabel    string
	StatusLabel  string
	ReferralCode string
	Discount     string
	CreatedAt    string
	CanEdit      bool
	CanDelete    bool
}

// UsersTableView is the searchable accounts table.
type UsersTableView struct {
	Rows    []UserRow
	Query   string
	Filter  string
	NextURL string
}

// UserFormView is the create or edit account form.
type UserFormView struct {
	Action       string
	Editing      bool
	FirstName    string
	LastName     string
	Email        string
	Roles        []Option
	Active       bool
	ReferralCode string
	ReferredBy   string
	Discount     string
	Error        string
}

// UsersPageView provides data for the users page.
type UsersPageView struct {
	Message   string
	Error     string
	CanCreate bool
	Table     UsersTableView
	Form      *UserFormView
}

// UsersPage renders the users management screen.
func UsersPage(view UsersPageView, loc i18n.Localizer) templ.Component {
	return el("section", attrs("class", "users"),
		el("div", attrs("class", "page-heading"),
			el("h1", nil, text(T(loc, "users.title"))),
			when(view.CanCreate && view.Form == nil, el("a", attrs("class", "button", "href", href(routepath.UsersNew)), text(T(loc, "users.create")))),
		),
		Alert("success", view.Message),
		Alert("error", view.Error),
		formOrNil(view.Form, loc),
		el("form", attrs("class", "search", "method", "get", "action", routepath.Users,
			"hx-get", routepath.UsersTable, "hx-target", "#users-table", "hx-trigger", "input changed delay:300ms from:input, submit"),
			el("input", attrs("type", "search", "name", "q", "value", view.Table.Query, "placeholder", T(loc, "users.search"))),
			el("input", attrs("type", "text", "name", "filter", "value", view.Table.Filter, "placeholder", T(loc, "users.filter"))),
			el("button", attrs("type", "submit"), text(T(loc, "action.search"))),
		),
		UsersTable(view.Table, loc),
	)
}

func formOrNil(form *UserFormView, loc i18n.Localizer) templ.Component {
	if form == nil {
		return nil
	}
	return UserForm(*form, loc)
}

// UsersTable renders the accounts table.
func UsersTable(view UsersTableView, loc i18n.Localizer) templ.Component {
	if len(view.Rows) == 0 {
		return el("div", attrs("id", "users-table"), el("p", attrs("class", "empty"), text(T(loc, "users.empty"))))
	}
	return el("div", attrs("id", "users-table"),
		el("table", nil,
			el("thead", nil, el("tr", nil,
				el("th", nil, text(T(loc, "users.name"))),
				el("th", nil, text(T(loc, "users.email"))),
				el("th", nil, text(T(loc, "users.role"))),
				el("th", nil, text(T(loc, "users.status"))),
				el("th", nil, text(T(loc, "users.referral_code"))),
				el("th", nil, text(T(loc, "users.discount"))),
				el("th", nil, text(T(loc, "users.created_at"))),
				el("th", nil, text(T(loc, "users.actions"))),
			)),
			el("tbody", nil, each(view.Rows, func(row UserRow) templ.Component {
				return el("tr", attrs("id", "user-"+row.ID),
					el("td", nil, text(row.Name)),
					el("td", nil, text(row.Email)),
					el("td", nil, text(row.RoleLabel)),
					el("td", nil, text(row.StatusLabel)),
					el("td", nil, text(row.ReferralCode)),
					el("td", nil, text(row.Discount)),
					el("td", nil, text(row.CreatedAt)),
					el("td", attrs("class", "actions"),
						when(row.CanEdit, el("a", attrs("href", href(routepath.UserEdit(row.ID))), text(T(loc, "action.edit")))),
						when(row.CanDelete, el("form", attrs("method", "post", "action", routepath.UserDelete(row.ID),
							"hx-confirm", T(loc, "users.delete_confirm", row.Name)),
							el("button", attrs("type", "submit", "class", "danger"), text(T(loc, "action.delete"))),
						)),
					),
				)
			})),
		),
		when(view.NextURL != "", el("a", attrs("class", "next", "href", href(view.NextURL),
			"hx-get", view.NextURL, "hx-target", "#users-table", "hx-swap", "outerHTML"), text(T(loc, "action.next")))),
	)
}

// UserForm renders the account form.
func UserForm(view UserFormView, loc i18n.Localizer) templ.Component {
	title := T(loc, "users.create")
	passwordHint := ""
	if view.Editing {
		title = T(loc, "users.edit")
		passwordHint = T(loc, "users.password_keep")
	}
	return el("form", attrs("class", "user-form", "method", "post", "action", view.Action),
		el("h2", nil, text(title)),
		Alert("error", view.Error),
		field(T(loc, "users.first_name"), el("input", attrs("name", "first_name", "value", view.FirstName, "required", ""))),
		field(T(loc, "users.last_name"), el("input", attrs("name", "last_name", "value", view.LastName, "required", ""))),
		field(T(loc, "users.email"), el("input", attrs("type", "email", "name", "email", "value", view.Email, "required", ""))),
		field(T(loc, "users.password"), el("input", join(
			attrs("type", "password", "name", "password", "minlength", "6", "placeholder", passwordHint),
			attrIf(!view.Editing, "required", ""),
		))),
		field(T(loc, "users.role"), selectInput("role", view.Roles)),
		el("label", attrs("class", "checkbox"),
			el("input", join(attrs("type", "checkbox", "name", "active", "value", "true"), attrIf(view.Active, "checked", ""))),
			text(T(loc, "users.active")),
		),
		field(T(loc, "users.referral_code"), el("input", attrs("name", "referral_code", "value", view.ReferralCode))),
		field(T(loc, "users.referred_by"), el("input", attrs("name", "referred_by", "value", view.ReferredBy))),
		field(T(loc, "users.discount"), el("input", attrs("type", "number", "name", "discount", "min", "0", "max", "100", "value", view.Discount))),
		el("div", attrs("class", "form-actions"),
			el("button", attrs("type", "submit"), text(T(loc, "action.save"))),
			el("a", attrs("href", href(routepath.Users)), text(T(loc, "action.cancel"))),
		),
	)
}
