package tasks

import (
	"net/http"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

// Service defines task view handlers consumed by this route module.
type Service interface {
	HandleTasks(w http.ResponseWriter, r *http.Request)
	HandleTaskSheet(w http.ResponseWriter, r *http.Request, exerciseID string)
	HandleTaskAnswer(w http.ResponseWriter, r *http.Request, exerciseID, taskID string)
}

// RegisterRoutes wires task view routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Tasks, service.HandleTasks)
	mux.HandleFunc(routepath.TasksPrefix, func(w http.ResponseWriter, r *http.Request) {
		HandleTaskPath(w, r, service)
	})
}

// HandleTaskPath parses task subroutes and dispatches to service handlers.
func HandleTaskPath(w http.ResponseWriter, r *http.Request, service Service) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	if sharedroute.RedirectTrailingSlash(w, r) {
		return
	}

	parts := routepath.SplitPathParts(strings.TrimPrefix(r.URL.Path, routepath.TasksPrefix))
	switch len(parts) {
	case 1:
		service.HandleTaskSheet(w, r, parts[0])
	case 2:
		service.HandleTaskAnswer(w, r, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}
