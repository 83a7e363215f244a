package otel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/ieltsportal/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("PORTAL_OTEL_ENDPOINT", "")
	t.Setenv("PORTAL_OTEL_ENABLED", "")

	shutdown, err := otel.Setup(context.Background(), "portal-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupNoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("PORTAL_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("PORTAL_OTEL_ENABLED", "FALSE")

	shutdown, err := otel.Setup(context.Background(), "portal-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address: nothing is exported.
	t.Setenv("PORTAL_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("PORTAL_OTEL_ENABLED", "")
	t.Setenv("PORTAL_VERSION", "test")

	shutdown, err := otel.Setup(context.Background(), "portal-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	handler := otel.HTTPMiddleware("portal-test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
