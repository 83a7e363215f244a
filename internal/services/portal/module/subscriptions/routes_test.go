package subscriptions

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeService struct {
	called bool
}

func (f *fakeService) HandleSubscriptions(http.ResponseWriter, *http.Request) {
	f.called = true
}

func TestRegisterRoutes(t *testing.T) {
	svc := &fakeService{}
	mux := http.NewServeMux()
	RegisterRoutes(mux, svc)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/subscriptions", nil))
	if !svc.called {
		t.Fatal("expected subscriptions handler")
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/subscriptions/extra", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
