package route

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRedirectTrailingSlash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		target   string
		wantOK   bool
		wantCode int
		wantLoc  string
	}{
		{name: "no trailing slash", target: "/users", wantCode: http.StatusOK},
		{name: "trailing slash", target: "/users/", wantOK: true, wantCode: http.StatusMovedPermanently, wantLoc: "/users"},
		{name: "nested", target: "/exercises/reading/ex-1/", wantOK: true, wantCode: http.StatusMovedPermanently, wantLoc: "/exercises/reading/ex-1"},
		{name: "keeps query", target: "/users/?q=ada", wantOK: true, wantCode: http.StatusMovedPermanently, wantLoc: "/users?q=ada"},
		{name: "root path", target: "/", wantCode: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()

			got := RedirectTrailingSlash(rec, req)
			if got != tc.wantOK {
				t.Fatalf("RedirectTrailingSlash = %v, want %v", got, tc.wantOK)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if got {
				if loc := rec.Header().Get("Location"); loc != tc.wantLoc {
					t.Fatalf("location = %q, want %q", loc, tc.wantLoc)
				}
			}
		})
	}
}

func TestAllowMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		want   bool
	}{
		{method: http.MethodGet, want: true},
		{method: http.MethodHead, want: true},
		{method: http.MethodPost, want: true},
		{method: http.MethodDelete, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tc.method, "/users", nil)
			rec := httptest.NewRecorder()
			if got := AllowMethods(rec, req, http.MethodGet, http.MethodPost); got != tc.want {
				t.Fatalf("AllowMethods = %v, want %v", got, tc.want)
			}
			if !tc.want {
				if rec.Code != http.StatusMethodNotAllowed {
					t.Fatalf("status = %d", rec.Code)
				}
				if allow := rec.Header().Get("Allow"); allow != "GET, POST" {
					t.Fatalf("Allow = %q", allow)
				}
			}
		})
	}
}
