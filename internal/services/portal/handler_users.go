package portal

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/account"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

const dateLayout = "2006-01-02"

// HandleUsersPage renders the users screen and creates accounts on POST.
func (h *Handler) HandleUsersPage(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageUsers)})
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		h.createUser(w, r, req)
		return
	}
	view := templates.UsersPageView{Message: notice(r, req.loc), CanCreate: true}
	view.Table, view.Error = h.usersTable(r, req)
	h.renderUsers(w, r, req, view, http.StatusOK)
}

// HandleUsersTable renders the users table for search and paging.
func (h *Handler) HandleUsersTable(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.peek(w, r, navigation.PageUsers)
	if !ok {
		return
	}
	table, message := h.usersTable(r, req)
	status := http.StatusOK
	if message != "" {
		status = http.StatusBadRequest
	}
	if !sharedhtmx.IsHTMXRequest(r) {
		h.renderUsers(w, r, req, templates.UsersPageView{Table: table, Error: message, CanCreate: true}, status)
		return
	}
	sharedhtmx.RenderPage(w, r, templates.UsersTable(table, req.loc), nil, status, "")
}

// HandleUserNew renders the create account form.
func (h *Handler) HandleUserNew(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageUsers)})
	if !ok {
		return
	}
	form := h.userForm(r, req, nil, account.Input{Active: true})
	view := templates.UsersPageView{Form: &form}
	view.Table, view.Error = h.usersTable(r, req)
	h.renderUsers(w, r, req, view, http.StatusOK)
}

// HandleUserEdit renders the edit form on GET and applies the update on
// POST.
func (h *Handler) HandleUserEdit(w http.ResponseWriter, r *http.Request, userID string) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageUsers)})
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		h.updateUser(w, r, req, userID)
		return
	}
	acct, err := h.accounts.Get(r.Context(), req.actor(), userID)
	if err != nil {
		h.renderUsersError(w, r, req, h.errorText(r, req.loc, "get account", err), apperrors.HTTPStatus(err))
		return
	}
	if !h.accounts.Permissions(req.actor(), acct).CanEdit {
		h.renderUsersError(w, r, req, templates.T(req.loc, "error.reason."+authz.ReasonDenyRankRequired), http.StatusForbidden)
		return
	}
	form := h.userForm(r, req, &acct, inputOf(acct))
	view := templates.UsersPageView{Form: &form}
	view.Table, view.Error = h.usersTable(r, req)
	h.renderUsers(w, r, req, view, http.StatusOK)
}

// HandleUserDelete soft deletes an account.
func (h *Handler) HandleUserDelete(w http.ResponseWriter, r *http.Request, userID string) {
	req, ok := h.open(w, r, navigation.Request{Page: string(navigation.PageUsers)})
	if !ok {
		return
	}
	if !requireMutation(w, r, req.loc) {
		return
	}
	if err := h.accounts.Delete(r.Context(), req.actor(), userID); err != nil {
		h.renderUsersError(w, r, req, h.errorText(r, req.loc, "delete account", err), apperrors.HTTPStatus(err))
		return
	}
	h.sessions.EndPrincipal(r.Context(), userID)
	sharedhtmx.Redirect(w, r, withNotice(routepath.Users, "notice.user_deleted"))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request, req *pageRequest) {
	if !requireSameOrigin(w, r, req.loc) {
		return
	}
	input, err := parseAccountInput(r)
	if err == nil {
		_, err = h.accounts.Create(r.Context(), req.actor(), input)
	}
	if err != nil {
		form := h.userForm(r, req, nil, input)
		form.Error = h.errorText(r, req.loc, "create account", err)
		view := templates.UsersPageView{Form: &form}
		view.Table, _ = h.usersTable(r, req)
		h.renderUsers(w, r, req, view, apperrors.HTTPStatus(err))
		return
	}
	sharedhtmx.Redirect(w, r, withNotice(routepath.Users, "notice.user_created"))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, req *pageRequest, userID string) {
	if !requireSameOrigin(w, r, req.loc) {
		return
	}
	current, err := h.accounts.Get(r.Context(), req.actor(), userID)
	if err != nil {
		h.renderUsersError(w, r, req, h.errorText(r, req.loc, "get account", err), apperrors.HTTPStatus(err))
		return
	}
	input, err := parseAccountInput(r)
	var updated account.Account
	if err == nil {
		updated, err = h.accounts.Update(r.Context(), req.actor(), userID, input)
	}
	if err != nil {
		form := h.userForm(r, req, &current, input)
		form.Error = h.errorText(r, req.loc, "update account", err)
		view := templates.UsersPageView{Form: &form}
		view.Table, _ = h.usersTable(r, req)
		h.renderUsers(w, r, req, view, apperrors.HTTPStatus(err))
		return
	}
	h.sessions.UpdatePrincipal(r.Context(), account.PrincipalOf(updated))
	sharedhtmx.Redirect(w, r, withNotice(routepath.Users, "notice.user_updated"))
}

func (h *Handler) renderUsers(w http.ResponseWriter, r *http.Request, req *pageRequest, view templates.UsersPageView, status int) {
	view.CanCreate = view.CanCreate || view.Form == nil
	h.render(w, r, req, templates.T(req.loc, "users.title"), templates.UsersPage(view, req.loc), status)
}

// renderUsersError re-renders the users screen with an inline error.
func (h *Handler) renderUsersError(w http.ResponseWriter, r *http.Request, req *pageRequest, message string, status int) {
	view := templates.UsersPageView{Error: message}
	view.Table, _ = h.usersTable(r, req)
	h.renderUsers(w, r, req, view, status)
}

// usersTable lists accounts for the q, filter and page_token query
// parameters. A non-empty message reports a listing failure.
func (h *Handler) usersTable(r *http.Request, req *pageRequest) (templates.UsersTableView, string) {
	query := r.URL.Query()
	opts := account.ListOptions{
		Query:     strings.TrimSpace(query.Get("q")),
		Filter:    strings.TrimSpace(query.Get("filter")),
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}
	view := templates.UsersTableView{Query: opts.Query, Filter: opts.Filter}
	result, err := h.accounts.List(r.Context(), req.actor(), opts)
	if err != nil {
		return view, h.errorText(r, req.loc, "list accounts", err)
	}
	for _, acct := range result.Accounts {
		perms := h.accounts.Permissions(req.actor(), acct)
		view.Rows = append(view.Rows, templates.UserRow{
			ID:           acct.ID,
			Name:         acct.FullName(),
			Email:        acct.Email,
			RoleLabel:    acct.Role.Label(),
			StatusLabel:  statusLabel(req, acct.Active),
			ReferralCode: acct.ReferralCode,
			Discount:     discountLabel(acct.DiscountPercent),
			CreatedAt:    acct.CreatedAt.Format(dateLayout),
			CanEdit:      perms.CanEdit,
			CanDelete:    perms.CanDelete,
		})
	}
	if result.NextPageToken != "" {
		next := url.Values{"q": {opts.Query}, "filter": {opts.Filter}, "page_token": {result.NextPageToken}}
		view.NextURL = routepath.UsersTable + "?" + next.Encode()
	}
	return view, ""
}

func (h *Handler) userForm(r *http.Request, req *pageRequest, editing *account.Account, input account.Input) templates.UserFormView {
	form := templates.UserFormView{
		Action:       routepath.Users,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Active:       input.Active,
		ReferralCode: input.ReferralCode,
		ReferredBy:   input.ReferredBy,
		Discount:     discountLabel(input.DiscountPercent),
	}
	if editing != nil {
		form.Action = routepath.User(editing.ID)
		form.Editing = true
	}
	selected := input.Role
	for _, role := range h.accounts.AssignableRoles(r.Context(), req.actor(), editing) {
		form.Roles = append(form.Roles, templates.Option{
			Value:    string(role),
			Label:    role.Label(),
			Selected: string(role) == selected,
		})
	}
	return form
}

func inputOf(acct account.Account) account.Input {
	return account.Input{
		FirstName:       acct.FirstName,
		LastName:        acct.LastName,
		Email:           acct.Email,
		Role:            string(acct.Role),
		Active:          acct.Active,
		ReferralCode:    acct.ReferralCode,
		ReferredBy:      acct.ReferredBy,
		DiscountPercent: acct.DiscountPercent,
	}
}

func parseAccountInput(r *http.Request) (account.Input, error) {
	input := account.Input{
		FirstName:    r.PostFormValue("first_name"),
		LastName:     r.PostFormValue("last_name"),
		Email:        r.PostFormValue("email"),
		Password:     r.PostFormValue("password"),
		Role:         r.PostFormValue("role"),
		Active:       r.PostFormValue("active") == "true",
		ReferralCode: strings.TrimSpace(r.PostFormValue("referral_code")),
		ReferredBy:   strings.TrimSpace(r.PostFormValue("referred_by")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("discount")); raw != "" {
		discount, err := strconv.Atoi(raw)
		if err != nil {
			return input, apperrors.Wrap(apperrors.CodeAccountDiscountRange, "discount must be a whole number", err)
		}
		input.DiscountPercent = &discount
	}
	return input, nil
}

func statusLabel(req *pageRequest, active bool) string {
	if active {
		return templates.T(req.loc, "users.status_active")
	}
	return templates.T(req.loc, "users.status_inactive")
}

func discountLabel(discount *int) string {
	if discount == nil {
		return ""
	}
	return strconv.Itoa(*discount)
}
