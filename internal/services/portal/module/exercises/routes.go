package exercises

import (
	"net/http"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/routepath"
	sharedroute "github.com/louisbranch/ieltsportal/internal/services/shared/route"
)

// Service defines exercise route handlers consumed by this route module.
// module is the raw path segment; handlers validate it.
type Service interface {
	HandleExercisesIndex(w http.ResponseWriter, r *http.Request)
	HandleExerciseModule(w http.ResponseWriter, r *http.Request, module string)
	HandleExerciseTable(w http.ResponseWriter, r *http.Request, module string)
	HandleExerciseNew(w http.ResponseWriter, r *http.Request, module string)
	// HandleExerciseEdit serves the edit form and applies updates posted to
	// the exercise path.
	HandleExerciseEdit(w http.ResponseWriter, r *http.Request, module, exerciseID string)
	HandleExerciseDelete(w http.ResponseWriter, r *http.Request, module, exerciseID string)
	HandleExerciseTaskAdd(w http.ResponseWriter, r *http.Request, module, exerciseID string)
	HandleExerciseTaskUpdate(w http.ResponseWriter, r *http.Request, module, exerciseID, taskID string)
	HandleExerciseTaskDelete(w http.ResponseWriter, r *http.Request, module, exerciseID, taskID string)
}

// RegisterRoutes wires exercise routes into the provided mux.
func RegisterRoutes(mux *http.ServeMux, service Service) {
	if mux == nil || service == nil {
		return
	}
	mux.HandleFunc(routepath.Exercises, service.HandleExercisesIndex)
	mux.HandleFunc(routepath.ExercisesPrefix, func(w http.ResponseWriter, r *http.Request) {
		HandleExercisePath(w, r, service)
	})
}

// HandleExercisePath parses exercise subroutes and dispatches to service
// handlers.
func HandleExercisePath(w http.ResponseWriter, r *http.Request, service Service) {
	if service == nil {
		http.NotFound(w, r)
		return
	}
	if sharedroute.RedirectTrailingSlash(w, r) {
		return
	}

	parts := routepath.SplitPathParts(strings.TrimPrefix(r.URL.Path, routepath.ExercisesPrefix))
	switch {
	case len(parts) == 1:
		service.HandleExerciseModule(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "table":
		service.HandleExerciseTable(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "new":
		service.HandleExerciseNew(w, r, parts[0])
	case len(parts) == 2, len(parts) == 3 && parts[2] == "edit":
		service.HandleExerciseEdit(w, r, parts[0], parts[1])
	case len(parts) == 3 && parts[2] == "delete":
		service.HandleExerciseDelete(w, r, parts[0], parts[1])
	case len(parts) == 3 && parts[2] == "tasks":
		service.HandleExerciseTaskAdd(w, r, parts[0], parts[1])
	case len(parts) == 4 && parts[2] == "tasks":
		service.HandleExerciseTaskUpdate(w, r, parts[0], parts[1], parts[3])
	case len(parts) == 5 && parts[2] == "tasks" && parts[4] == "delete":
		service.HandleExerciseTaskDelete(w, r, parts[0], parts[1], parts[3])
	default:
		http.NotFound(w, r)
	}
}
