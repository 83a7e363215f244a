package portal

import (
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/requestctx"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
	"golang.org/x/text/message"
)

// HandleLogin serves the login form and applies the per-IP rate limit to
// submissions.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.login.ServeHTTP(w, r)
}

func (h *Handler) serveLogin(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	loc, lang := h.localizer(w, r)
	if r.Method == http.MethodGet {
		if _, err := h.resolveSession(r); err == nil {
			http.Redirect(w, r, routepath.Root, http.StatusSeeOther)
			return
		}
		h.renderLogin(w, r, loc, lang, templates.LoginView{}, http.StatusOK)
		return
	}

	if !requireSameOrigin(w, r, loc) {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, loc, lang, templates.LoginView{Error: templates.T(loc, "error.INVALID_CREDENTIALS")}, http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	sess, token, err := h.sessions.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		view := templates.LoginView{Email: email, Error: h.errorText(r, loc, "login", err)}
		h.renderLogin(w, r, loc, lang, view, apperrors.HTTPStatus(err))
		return
	}
	setSessionCookie(w, r, token, sess.ExpiresAt)
	h.recordActivity(requestctx.WithUserID(r.Context(), sess.Principal.ID), sess.Principal.DisplayName, "logged in")
	http.Redirect(w, r, routepath.Root, http.StatusSeeOther)
}

func (h *Handler) handleLoginLimited(w http.ResponseWriter, r *http.Request) {
	if h.metrics != nil {
		h.metrics.LoginAttempted("rate_limited")
	}
	h.logger.WarnContext(r.Context(), "login rate limited", append(requestctx.LogAttrs(r.Context()), "client_ip", h.loginLimiter.Key(r))...)
	loc, lang := h.localizer(w, r)
	view := templates.LoginView{
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Error: i18n.ErrorMessage(loc, apperrors.New(apperrors.CodeRateLimited, "too many login attempts")),
	}
	h.renderLogin(w, r, loc, lang, view, http.StatusTooManyRequests)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, loc *message.Printer, lang string, view templates.LoginView, status int) {
	page := templates.PageContext{Lang: lang, Loc: loc, Languages: languageOptions(r, loc, lang)}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.LoginPage(view, page).Render(r.Context(), w); err != nil {
		h.logger.ErrorContext(r.Context(), "render login", "error", err)
	}
}

// HandleLogout destroys the session and returns to the login page.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	loc, _ := h.localizer(w, r)
	if !requireMutation(w, r, loc) {
		return
	}
	if sess, ok := sessionFromContext(r.Context()); ok {
		if err := h.sessions.Logout(r.Context(), sess.ID); err != nil {
			h.logger.WarnContext(r.Context(), "logout", append(requestctx.LogAttrs(r.Context()), "error", err)...)
		} else {
			h.recordActivity(r.Context(), sess.Principal.DisplayName, "logged out")
		}
	}
	clearSessionCookie(w, r)
	sharedhtmx.Redirect(w, r, routepath.Login)
}
