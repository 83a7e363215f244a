package i18n

import (
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/ieltsportal/internal/platform/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "portal_lang"
)

// Localizer provides translated strings for views.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// ResolveTag determines the best language tag for the request.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	bundle := Default()
	if r == nil {
		return bundle.Match(), false
	}

	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if tag, ok := bundle.Supported(value); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := bundle.Supported(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return bundle.Match(tags...), false
		}
	}

	return bundle.Match(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Printer returns a printer for tag from the embedded catalogs.
func Printer(tag language.Tag) *message.Printer {
	return Default().Printer(tag)
}

// ErrorKey returns the catalog key for err. Errors without a known code map
// to the generic unknown message.
func ErrorKey(err error) string {
	key := "error." + string(apperrors.CodeOf(err))
	if !Default().Has(key) {
		return "error." + string(apperrors.CodeUnknown)
	}
	return key
}

// ErrorMessage renders the localized message for err. Authz denial
// messages are specialized by reason code when the catalog has one.
func ErrorMessage(loc Localizer, err error) string {
	if err == nil {
		return ""
	}
	if e, ok := apperrors.As(err); ok && e.Code == apperrors.CodeAuthzDenied {
		if reason := e.Metadata["reason"]; reason != "" && Default().Has("error.reason."+reason) {
			return T(loc, "error.reason."+reason)
		}
	}
	return T(loc, ErrorKey(err))
}

// T returns a translated string or the key if no localizer is available.
func T(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if keyString, ok := key.(string); ok {
			return keyString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}
