// Package routepath holds the portal URL layout and path builders.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root         = "/"
	StaticPrefix = "/static/"
	Healthz      = "/healthz"
	Metrics      = "/metrics"
)

const (
	Login  = "/login"
	Logout = "/logout"
)

const (
	DashboardActivity = "/dashboard/activity"
)

const (
	Users       = "/users"
	UsersTable  = "/users/table"
	UsersNew    = "/users/new"
	UsersPrefix = "/users/"
)

const (
	Subscriptions = "/subscriptions"
)

const (
	Exercises       = "/exercises"
	ExercisesPrefix = "/exercises/"
)

const (
	Tasks       = "/tasks"
	TasksPrefix = "/tasks/"
)

const (
	APISession = "/api/session"
)

func User(userID string) string {
	return Users + "/" + escapeSegment(userID)
}

func UserEdit(userID string) string {
	return User(userID) + "/edit"
}

func UserDelete(userID string) string {
	return User(userID) + "/delete"
}

func ExerciseModule(module string) string {
	return Exercises + "/" + escapeSegment(module)
}

func ExerciseModuleTable(module string) string {
	return ExerciseModule(module) + "/table"
}

func ExerciseNew(module string) string {
	return ExerciseModule(module) + "/new"
}

func Exercise(module, exerciseID string) string {
	return ExerciseModule(module) + "/" + escapeSegment(exerciseID)
}

func ExerciseEdit(module, exerciseID string) string {
	return Exercise(module, exerciseID) + "/edit"
}

func ExerciseDelete(module, exerciseID string) string {
	return Exercise(module, exerciseID) + "/delete"
}

func ExerciseTasks(module, exerciseID string) string {
	return Exercise(module, exerciseID) + "/tasks"
}

func ExerciseTask(module, exerciseID, taskID string) string {
	return ExerciseTasks(module, exerciseID) + "/" + escapeSegment(taskID)
}

func ExerciseTaskDelete(module, exerciseID, taskID string) string {
	return ExerciseTask(module, exerciseID, taskID) + "/delete"
}

func TaskExercise(exerciseID string) string {
	return Tasks + "/" + escapeSegment(exerciseID)
}

func TaskAnswer(exerciseID, taskID string) string {
	return TaskExercise(exerciseID) + "/" + escapeSegment(taskID)
}

// SplitPathParts normalizes a slash-delimited route suffix into non-empty
// path segments.
func SplitPathParts(path string) []string {
	rawParts := strings.Split(path, "/")
	parts := make([]string, 0, len(rawParts))
	for _, part := range rawParts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(part); err == nil {
			part = unescaped
		}
		parts = append(parts, part)
	}
	return parts
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
