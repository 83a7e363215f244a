package api

import (
	"net/http"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// Service defines JSON and probe handlers consumed by this route module.
type Service interface {
	HandleSession(w http.ResponseWriter, r *http.Request)
	HandleHealth(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes wires API routes into the provided mux. metrics may be nil.
func RegisterRoutes(mux *http.ServeMux, service Service, metrics http.Handler) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.APISession, service.HandleSession)
	mux.HandleFunc(routepath.Healthz, service.HandleHealth)
	if metrics != nil {
		mux.Handle(routepath.Metrics, metrics)
	}
}
