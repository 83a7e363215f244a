package portal

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"github.com/louisbranch/ieltsportal/internal/services/portal/i18n"
	"github.com/louisbranch/ieltsportal/internal/services/portal/navigation"
	"github.com/louisbranch/ieltsportal/internal/services/portal/session"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

type sessionResponse struct {
	Principal    session.Principal     `json:"principal"`
	RoleLabel    string                `json:"role_label"`
	View         navigation.View       `json:"view"`
	AllowedPages []navigation.Page     `json:"allowed_pages"`
	Menu         []navigation.MenuItem `json:"menu"`
	ExpiresAt    time.Time             `json:"expires_at"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleSession returns the current principal, allowed pages and menu.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		loc, _ := h.localizer(w, r)
		writeJSONError(w, http.StatusUnauthorized, session.ErrSessionNotFound, loc)
		return
	}
	role := sess.Principal.Role
	var allowed []navigation.Page
	for _, page := range navigation.Pages() {
		if h.router.Allowed(role, page) {
			allowed = append(allowed, page)
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Principal:    sess.Principal,
		RoleLabel:    role.Label(),
		View:         sess.View,
		AllowedPages: allowed,
		Menu:         h.router.Menu(role, sess.View),
		ExpiresAt:    sess.ExpiresAt,
	})
}

// HandleHealth answers the liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !sharedroute.AllowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, err error, loc i18n.Localizer) {
	writeJSON(w, status, errorResponse{
		Code:    string(apperrors.CodeOf(err)),
		Message: i18n.ErrorMessage(loc, err),
	})
}
