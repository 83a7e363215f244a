package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeService struct {
	lastCall string
}

func (f *fakeService) HandleSession(http.ResponseWriter, *http.Request) {
	f.lastCall = "session"
}

func (f *fakeService) HandleHealth(http.ResponseWriter, *http.Request) {
	f.lastCall = "health"
}

func TestRegisterRoutes(t *testing.T) {
	svc := &fakeService{}
	mux := http.NewServeMux()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	RegisterRoutes(mux, svc, metrics)

	for path, want := range map[string]string{"/api/session": "session", "/healthz": "health"} {
		svc.lastCall = ""
		mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		if svc.lastCall != want {
			t.Fatalf("%s: lastCall = %q, want %q", path, svc.lastCall, want)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}

func TestRegisterRoutesWithoutMetrics(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, &fakeService{}, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
