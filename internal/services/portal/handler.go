package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/message"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/platform/id"
	"github.com/louisbranch/ieltsportal/internal/platform/metrics"
	"github.com/louisbranch/ieltsportal/internal/platform/otel"
	"github.com/louisbranch/ieltsportal/internal/platform/ratelimit"
	"github.com/louisbranch/ieltsportal/internal/platform/requestctx"
	"github.com/louisbranch/ieltsportal/internal/services/portal/account"
	"github.com/louisbranch/ieltsportal/internal/services/portal/activity"
	"github.com/louisbranch/ieltsportal/internal/services/portal/answer"
	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"github.com/louisbranch/ieltsportal/internal/services/portal/exercise"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/api"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/auth"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/dashboard"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/exercises"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/subscriptions"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/tasks"
	"github.com/louisbranch/ieltsportal/internal/services/portal/module/users"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	"github.com/louisbranch/ieltsportal/internal/services/portal/static"
	"github.com/louisbranch/ieltsportal/internal/services/portal/templates"
	sharedhtmx "github.com/louisbranch/ieltsportal/internal/services/shared/htmx"
)

const (
	// sessionCookieName stores the signed session token.
	sessionCookieName = "portal_session"
	// requestIDHeader carries the request identifier in and out.
	requestIDHeader = "X-Request-ID"
	// tracerName names the portal HTTP tracer.
	tracerName = "ieltsportal/portal"
	// noticeParam carries a catalog key for a one-off success banner.
	noticeParam = "notice"
)

// Sessions is the session boundary used by the handler.
type Sessions interface {
	Login(ctx context.Context, email, password string) (session.Session, string, error)
	Resolve(ctx context.Context, token string) (session.Session, error)
	Navigate(sessionID string, view navigation.View) error
	UpdatePrincipal(ctx context.Context, principal session.Principal)
	EndPrincipal(ctx context.Context, principalID string) int
	Logout(ctx context.Context, sessionID string) error
	Len() int
}

// Accounts manages portal accounts.
type Accounts interface {
	List(ctx context.Context, actor session.Principal, opts account.ListOptions) (account.ListResult, error)
	Get(ctx context.Context, actor session.Principal, accountID string) (account.Account, error)
	Create(ctx context.Context, actor session.Principal, input account.Input) (account.Account, error)
	Update(ctx context.Context, actor session.Principal, accountID string, input account.Input) (account.Account, error)
	Delete(ctx context.Context, actor session.Principal, accountID string) error
	Permissions(actor session.Principal, acct account.Account) account.RowPermissions
	AssignableRoles(ctx context.Context, actor session.Principal, editing *account.Account) []authz.Role
}

// Exercises manages exam exercises.
type Exercises interface {
	List(ctx context.Context, actor session.Principal, t exercise.Type, opts exercise.ListOptions) (exercise.ListResult, error)
	Browse(ctx context.Context, actor session.Principal, t exercise.Type, opts exercise.ListOptions) (exercise.ListResult, error)
	Get(ctx context.Context, actor session.Principal, exerciseID string) (exercise.Exercise, error)
	Create(ctx context.Context, actor session.Principal, t exercise.Type, input exercise.Exercise) (exercise.Exercise, error)
	Update(ctx context.Context, actor session.Principal, t exercise.Type, exerciseID string, input exercise.Exercise) (exercise.Exercise, error)
	Delete(ctx context.Context, actor session.Principal, t exercise.Type, exerciseID string) error
	AddTask(ctx context.Context, actor session.Principal, exerciseID string, task exercise.Task) (exercise.Exercise, error)
	UpdateTask(ctx context.Context, actor session.Principal, exerciseID string, task exercise.Task) (exercise.Exercise, error)
	RemoveTask(ctx context.Context, actor session.Principal, exerciseID, taskID string) (exercise.Exercise, error)
	Counts(ctx context.Context) (map[exercise.Type]int, error)
}

// Answers stores draft answers for the task view.
type Answers interface {
	Open(ctx context.Context, actor session.Principal, exerciseID string) (answer.Sheet, error)
	Save(ctx context.Context, actor session.Principal, exerciseID, taskID string, a answer.Answer) (answer.Answer, error)
	Toggle(ctx context.Context, actor session.Principal, exerciseID, taskID, questionID, optionID string) (answer.Answer, error)
}

// ActivityLog is the dashboard activity log.
type ActivityLog interface {
	Record(ctx context.Context, actor, message string) error
	Recent(ctx context.Context) ([]activity.Entry, error)
}

// Dependencies wires the handler to the portal services.
type Dependencies struct {
	Sessions  Sessions
	Router    *navigation.Router
	Accounts  Accounts
	Exercises Exercises
	Answers   Answers
	Activity  ActivityLog
	// Metrics is optional; nil disables /metrics and request metrics.
	Metrics *metrics.Metrics
	// LoginLimiter is optional; nil disables login rate limiting.
	LoginLimiter *ratelimit.Limiter
	Logger       *slog.Logger
}

// Handler routes portal requests.
type Handler struct {
	sessions  Sessions
	router    *navigation.Router
	accounts  Accounts
	exercises Exercises
	answers   Answers
	activity  ActivityLog
	metrics   *metrics.Metrics
	logger    *slog.Logger
	login     http.Handler

	// loginLimiter keys rate-limited login attempts in logs.
	loginLimiter *ratelimit.Limiter
}

// NewHandler builds the HTTP handler for the portal.
func NewHandler(deps Dependencies) (http.Handler, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("session manager is required")
	case deps.Router == nil:
		return nil, errors.New("view router is required")
	case deps.Accounts == nil:
		return nil, errors.New("account service is required")
	case deps.Exercises == nil:
		return nil, errors.New("exercise service is required")
	case deps.Answers == nil:
		return nil, errors.New("answer service is required")
	case deps.Activity == nil:
		return nil, errors.New("activity log is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Handler{
		sessions:  deps.Sessions,
		router:    deps.Router,
		accounts:  deps.Accounts,
		exercises: deps.Exercises,
		answers:   deps.Answers,
		activity:  deps.Activity,
		metrics:   deps.Metrics,
		logger:    logger,

		loginLimiter: deps.LoginLimiter,
	}
	h.login = ratelimit.Middleware(deps.LoginLimiter, http.HandlerFunc(h.handleLoginLimited), http.MethodPost)(http.HandlerFunc(h.serveLogin))
	return h.routes(), nil
}

// routes wires the HTTP routes and the middleware chain.
func (h *Handler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServerFS(static.FS)))
	auth.RegisterRoutes(mux, h)
	dashboard.RegisterRoutes(mux, h)
	users.RegisterRoutes(mux, h)
	subscriptions.RegisterRoutes(mux, h)
	exercises.RegisterRoutes(mux, h)
	tasks.RegisterRoutes(mux, h)
	var metricsHandler http.Handler
	if h.metrics != nil {
		metricsHandler = h.metrics.Handler()
	}
	api.RegisterRoutes(mux, h, metricsHandler)

	var next http.Handler = h.withSession(mux)
	next = h.withMetrics(next)
	next = otel.HTTPMiddleware(tracerName, next)
	return h.withRequestID(next)
}

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return sess, ok
}

// isPublic reports whether path is served without a session.
func isPublic(path string) bool {
	switch path {
	case routepath.Login, routepath.Healthz, routepath.Metrics:
		return true
	}
	return strings.HasPrefix(path, routepath.StaticPrefix)
}

func (h *Handler) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			generated, err := id.NewID()
			if err == nil {
				requestID = generated
			}
		}
		if requestID != "" {
			w.Header().Set(requestIDHeader, requestID)
			r = r.WithContext(requestctx.WithRequestID(r.Context(), requestID))
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (h *Handler) withMetrics(next http.Handler) http.Handler {
	if h.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.metrics.ObserveRequest(r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel maps a path to its top-level route so metric labels stay
// bounded.
func routeLabel(path string) string {
	if path == routepath.Root {
		return routepath.Root
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	switch "/" + first {
	case routepath.Login, routepath.Logout, routepath.Users, routepath.Subscriptions,
		routepath.Exercises, routepath.Tasks, routepath.Healthz, routepath.Metrics:
		return "/" + first
	case "/dashboard":
		return routepath.DashboardActivity
	case "/api":
		return routepath.APISession
	case "/static":
		return routepath.StaticPrefix
	}
	return "other"
}

// withSession resolves the session token for every private path. Requests
// without a live session are sent to the login page; API calls get 401.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := h.resolveSession(r)
		if err != nil {
			clearSessionCookie(w, r)
			if strings.HasPrefix(r.URL.Path, "/api/") {
				loc, _ := h.localizer(w, r)
				writeJSONError(w, apperrors.HTTPStatus(err), err, loc)
				return
			}
			sharedhtmx.Redirect(w, r, routepath.Login)
			return
		}
		ctx := requestctx.WithUserID(r.Context(), sess.Principal.ID)
		ctx = context.WithValue(ctx, sessionContextKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) resolveSession(r *http.Request) (session.Session, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return session.Session{}, session.ErrSessionNotFound
	}
	return h.sessions.Resolve(r.Context(), token)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) localizer(w http.ResponseWriter, r *http.Request) (*message.Printer, string) {
	tag, persist := i18n.ResolveTag(r)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	return i18n.Printer(tag), tag.String()
}

// pageRequest is the per-request state of an authenticated page.
type pageRequest struct {
	sess   session.Session
	view   navigation.View
	loc    *message.Printer
	lang   string
	notice string
}

func (p *pageRequest) actor() session.Principal {
	return p.sess.Principal
}

// open resolves nav through the view router and stores the resulting view
// on the session. Denied navigation is redirected to the dashboard and
// open returns false.
func (h *Handler) open(w http.ResponseWriter, r *http.Request, nav navigation.Request) (*pageRequest, bool) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		sharedhtmx.Redirect(w, r, routepath.Login)
		return nil, false
	}
	res := h.router.Navigate(sess.Principal.Role, sess.View, nav)
	if res.Redirected {
		sharedhtmx.Redirect(w, r, routepath.Root)
		return nil, false
	}
	if err := h.sessions.Navigate(sess.ID, res.View); err != nil {
		h.logger.WarnContext(r.Context(), "store session view", append(requestctx.LogAttrs(r.Context()), "error", err)...)
	}
	sess.View = res.View
	loc, lang := h.localizer(w, r)
	req := &pageRequest{sess: sess, view: res.View, loc: loc, lang: lang}
	if res.FormDiscarded {
		req.notice = templates.T(loc, "notice.form_discarded")
	}
	return req, true
}

// peek checks page access without moving the session. Partial refreshes use
// it so polling never changes the current view.
func (h *Handler) peek(w http.ResponseWriter, r *http.Request, page navigation.Page) (*pageRequest, bool) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		sharedhtmx.Redirect(w, r, routepath.Login)
		return nil, false
	}
	if !h.router.Allowed(sess.Principal.Role, page) {
		h.logger.WarnContext(r.Context(), "partial request denied", "role", string(sess.Principal.Role), "page", string(page))
		sharedhtmx.Redirect(w, r, routepath.Root)
		return nil, false
	}
	loc, lang := h.localizer(w, r)
	return &pageRequest{sess: sess, view: sess.View, loc: loc, lang: lang}, true
}

func (h *Handler) pageContext(req *pageRequest, r *http.Request, title string) templates.PageContext {
	principal := req.actor()
	items := h.router.Menu(principal.Role, req.view)
	menu := make([]templates.MenuItem, 0, len(items))
	for _, item := range items {
		menu = append(menu, templates.MenuItem{Label: templates.T(req.loc, item.LabelKey), Href: item.Href, Active: item.Active})
	}
	return templates.PageContext{
		Lang:      req.lang,
		Loc:       req.loc,
		Title:     title,
		UserName:  principal.DisplayName,
		RoleLabel: principal.Role.Label(),
		Menu:      menu,
		Languages: languageOptions(r, req.loc, req.lang),
		Notice:    req.notice,
	}
}

func languageOptions(r *http.Request, loc *message.Printer, active string) []templates.LanguageOption {
	tags := i18n.Default().Tags()
	options := make([]templates.LanguageOption, 0, len(tags))
	for _, tag := range tags {
		query := url.Values{}
		if r != nil && r.URL != nil {
			query = r.URL.Query()
		}
		query.Set(i18n.LangParam, tag.String())
		path := routepath.Root
		if r != nil && r.URL != nil && r.Method == http.MethodGet {
			path = r.URL.Path
		}
		options = append(options, templates.LanguageOption{
			Tag:    tag.String(),
			Label:  templates.T(loc, "lang."+tag.String()),
			Href:   path + "?" + query.Encode(),
			Active: tag.String() == active,
		})
	}
	return options
}

// render writes body inside the layout, or alone for HTMX requests.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, req *pageRequest, title string, body templ.Component, status int) {
	page := h.pageContext(req, r, title)
	sharedhtmx.RenderPage(w, r, body, templates.Layout(page, body), status,
		sharedhtmx.TitleTag(templates.ComposePageTitle(req.loc, title)))
}

// errorText localizes err and logs errors that carry no domain code.
func (h *Handler) errorText(r *http.Request, loc *message.Printer, op string, err error) string {
	if apperrors.CodeOf(err) == apperrors.CodeUnknown {
		h.logger.ErrorContext(r.Context(), op, append(requestctx.LogAttrs(r.Context()), "error", err)...)
	}
	return i18n.ErrorMessage(loc, err)
}

// notice returns the localized success banner named by the notice query
// parameter. Only catalog keys under "notice." are honored.
func notice(r *http.Request, loc *message.Printer) string {
	key := strings.TrimSpace(r.URL.Query().Get(noticeParam))
	if !strings.HasPrefix(key, "notice.") || !i18n.Default().Has(key) {
		return ""
	}
	return templates.T(loc, key)
}

func withNotice(target, key string) string {
	return target + "?" + url.Values{noticeParam: {key}}.Encode()
}

func (h *Handler) recordActivity(ctx context.Context, actor, message string) {
	if err := h.activity.Record(ctx, actor, message); err != nil {
		h.logger.ErrorContext(ctx, "record activity", append(requestctx.LogAttrs(ctx), "error", err)...)
	}
}

// requireMutation guards state-changing requests: POST only and same
// origin.
func requireMutation(w http.ResponseWriter, r *http.Request, loc *message.Printer) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return requireSameOrigin(w, r, loc)
}

func requireSameOrigin(w http.ResponseWriter, r *http.Request, loc *message.Printer) bool {
	if r == nil {
		http.Error(w, loc.Sprintf("error.csrf_invalid"), http.StatusForbidden)
		return false
	}
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		if !sameOrigin(origin, r) {
			http.Error(w, loc.Sprintf("error.csrf_invalid"), http.StatusForbidden)
			return false
		}
		return true
	}
	if referer := strings.TrimSpace(r.Referer()); referer != "" {
		if !sameOrigin(referer, r) {
			http.Error(w, loc.Sprintf("error.csrf_invalid"), http.StatusForbidden)
			return false
		}
		return true
	}
	http.Error(w, loc.Sprintf("error.csrf_invalid"), http.StatusForbidden)
	return false
}

func sameOrigin(rawURL string, r *http.Request) bool {
	if rawURL == "" || rawURL == "null" || r == nil {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	if !strings.EqualFold(parsed.Host, r.Host) {
		return false
	}
	if parsed.Scheme != "" {
		return strings.EqualFold(parsed.Scheme, requestScheme(r))
	}
	return true
}

func requestScheme(r *http.Request) string {
	if r == nil {
		return "http"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		parts := strings.Split(proto, ",")
		return strings.ToLower(strings.TrimSpace(parts[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func isHTTPS(r *http.Request) bool {
	return requestScheme(r) == "https"
}
