package subscriptions

import (
	"net/http"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// Service defines the subscriptions handler consumed by this route module.
type Service interface {
	HandleSubscriptions(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes wires subscription routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Subscriptions, service.HandleSubscriptions)
}
