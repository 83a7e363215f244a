// Package htmx renders portal pages for full and HTMX partial requests.
package htmx

import (
	"html"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

const (
	// RequestHeaderKey is the HTMX request header used to detect partial updates.
	RequestHeaderKey = "HX-Request"
	// RedirectHeaderKey asks HTMX to perform a full client-side redirect.
	RedirectHeaderKey = "HX-Redirect"
)

// IsHTMXRequest reports whether the request was initiated by HTMX.
func IsHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(RequestHeaderKey), "true")
}

// TitleTag formats an escaped `<title>` element.
func TitleTag(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return "<title>" + html.EscapeString(title) + "</title>"
}

// RenderPage writes fragment for HTMX requests and full otherwise. A zero
// status means 200. HTMX responses are prefixed with htmxTitle so the
// browser title follows the swapped content.
func RenderPage(w http.ResponseWriter, r *http.Request, fragment, full templ.Component, status int, htmxTitle string) {
	if status == 0 {
		status = http.StatusOK
	}
	target := full
	if IsHTMXRequest(r) && fragment != nil {
		target = fragment
	}
	if target == nil {
		target = fragment
	}
	if target == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if IsHTMXRequest(r) && htmxTitle != "" {
		_, _ = w.Write([]byte(htmxTitle))
	}
	_ = target.Render(r.Context(), w)
}

// Redirect sends the client to target. HTMX requests receive HX-Redirect so
// the whole page is replaced instead of the swap target.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMXRequest(r) {
		w.Header().Set("Location", target)
		w.Header().Set(RedirectHeaderKey, target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
