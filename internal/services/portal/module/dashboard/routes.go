package dashboard

import (
	"net/http"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// Service defines dashboard route handlers consumed by this route module.
type Service interface {
	HandleDashboard(w http.ResponseWriter, r *http.Request)
	HandleDashboardActivity(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes wires dashboard routes into the provided mux. The root
// pattern matches every unrouted path, so only "/" reaches the dashboard.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Root, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != routepath.Root {
			http.NotFound(w, r)
			return
		}
		service.HandleDashboard(w, r)
	})
	mux.HandleFunc(routepath.DashboardActivity, service.HandleDashboardActivity)
}
