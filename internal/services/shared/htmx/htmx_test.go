package htmx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testComponent struct {
	body string
}

func (c testComponent) Render(_ context.Context, w io.Writer) error {
	_, err := w.Write([]byte(c.body))
	return err
}

func TestIsHTMXRequest(t *testing.T) {
	t.Run("missing_request_is_not_htmx", func(t *testing.T) {
		t.Parallel()
		if got := IsHTMXRequest(nil); got {
			t.Fatalf("IsHTMXRequest(nil) = true, want false")
		}
	})

	t.Run("true_request_is_htmx", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		r.Header.Set(RequestHeaderKey, "true")
		if got := IsHTMXRequest(r); !got {
			t.Fatalf("IsHTMXRequest(request) = false, want true")
		}
	})
}

func TestTitleTag(t *testing.T) {
	t.Parallel()
	got := TitleTag(`Users <Portal>`)
	want := "<title>Users &lt;Portal&gt;</title>"
	if got != want {
		t.Fatalf("TitleTag(...) = %q, want %q", got, want)
	}
	if TitleTag("  ") != "" {
		t.Fatal("blank title should render nothing")
	}
}

func TestRenderPageForNonHTMXUsesFullRender(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RenderPage(w, r, testComponent{body: "<div>fragment</div>"}, testComponent{body: "<html>full</html>"}, 0, TitleTag("Ignored"))
	if got := w.Body.String(); got != "<html>full</html>" {
		t.Fatalf("body = %q, want full page", got)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRenderPageForHTMXUsesFragmentWithTitle(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.Header.Set(RequestHeaderKey, "true")
	w := httptest.NewRecorder()

	RenderPage(w, r, testComponent{body: "<div>fragment</div>"}, testComponent{body: "<html>full</html>"}, http.StatusForbidden, TitleTag("Users"))
	if got := w.Body.String(); got != "<title>Users</title><div>fragment</div>" {
		t.Fatalf("body = %q", got)
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestRenderPageFallsBackToFragment(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	RenderPage(w, r, testComponent{body: "<p>only</p>"}, nil, 0, "")
	if got := w.Body.String(); got != "<p>only</p>" {
		t.Fatalf("body = %q", got)
	}
}

func TestRedirect(t *testing.T) {
	t.Parallel()

	t.Run("plain", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/users", nil)
		w := httptest.NewRecorder()
		Redirect(w, r, "/")
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
			t.Fatalf("status=%d location=%q", w.Code, w.Header().Get("Location"))
		}
		if w.Header().Get(RedirectHeaderKey) != "" {
			t.Fatal("plain requests must not carry HX-Redirect")
		}
	})

	t.Run("htmx", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/users", nil)
		r.Header.Set(RequestHeaderKey, "true")
		w := httptest.NewRecorder()
		Redirect(w, r, "/")
		if w.Code != http.StatusSeeOther || w.Header().Get(RedirectHeaderKey) != "/" {
			t.Fatalf("status=%d hx-redirect=%q", w.Code, w.Header().Get(RedirectHeaderKey))
		}
	})
}
