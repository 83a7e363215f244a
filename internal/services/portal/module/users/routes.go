package users

import (
	"net/http"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

// Service defines users route handlers consumed by this route module.
type Service interface {
	HandleUsersPage(w http.ResponseWriter, r *http.Request)
	HandleUsersTable(w http.ResponseWriter, r *http.Request)
	HandleUserNew(w http.ResponseWriter, r *http.Request)
	HandleUserEdit(w http.ResponseWriter, r *http.Request, userID string)
	HandleUserDelete(w http.ResponseWriter, r *http.Request, userID string)
}

// RegisterRoutes wires user routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Users, service.HandleUsersPage)
	mux.HandleFunc(routepath.UsersTable, service.HandleUsersTable)
	mux.HandleFunc(routepath.UsersNew, service.HandleUserNew)
	mux.HandleFunc(routepath.UsersPrefix, func(w http.ResponseWriter, r *http.Request) {
		HandleUserPath(w, r, service)
	})
}

// HandleUserPath parses user subroutes and dispatches to service handlers.
func HandleUserPath(w http.ResponseWriter, r *http.Request, service Service) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	if sharedroute.RedirectTrailingSlash(w, r) {
		return
	}

	parts := routepath.SplitPathParts(strings.TrimPrefix(r.URL.Path, routepath.UsersPrefix))
	switch {
	case len(parts) == 1, len(parts) == 2 && parts[1] == "edit":
		service.HandleUserEdit(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "delete":
		service.HandleUserDelete(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}
