package auth

import (
	"net/http"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
)

// Service defines login and logout handlers consumed by this route module.
type Service interface {
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleLogout(w http.ResponseWriter, r *http.Request)
}

// RegisterRoutes wires authentication routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Login, service.HandleLogin)
	mux.HandleFunc(routepath.Logout, service.HandleLogout)
}
