// Package errors provides structured, coded errors shared by portal packages.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authentication
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeAccountInactive     Code = "ACCOUNT_INACTIVE"
	CodeInvalidRole         Code = "INVALID_ROLE"
	CodeSessionNotFound     Code = "SESSION_NOT_FOUND"
	CodeSessionExpired      Code = "SESSION_EXPIRED"
	CodePortalAccessDenied  Code = "PORTAL_ACCESS_DENIED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeRemoteUnavailable   Code = "REMOTE_UNAVAILABLE"
	CodeSuperAdminBootstrap Code = "SUPER_ADMIN_BOOTSTRAPPED"

	// Authorization
	CodeAuthzDenied Code = "AUTHZ_DENIED"

	// Account validation
	CodeAccountFirstNameRequired Code = "ACCOUNT_FIRST_NAME_REQUIRED"
	CodeAccountLastNameRequired  Code = "ACCOUNT_LAST_NAME_REQUIRED"
	CodeAccountEmailInvalid      Code = "ACCOUNT_EMAIL_INVALID"
	CodeAccountPasswordRequired  Code = "ACCOUNT_PASSWORD_REQUIRED"
	CodeAccountPasswordTooShort  Code = "ACCOUNT_PASSWORD_TOO_SHORT"
	CodeAccountDiscountRange     Code = "ACCOUNT_DISCOUNT_OUT_OF_RANGE"
	CodeAccountEmailTaken        Code = "ACCOUNT_EMAIL_TAKEN"

	// Exercise validation
	CodeExerciseTitleRequired   Code = "EXERCISE_TITLE_REQUIRED"
	CodeExerciseInvalidType     Code = "EXERCISE_INVALID_TYPE"
	CodeExerciseInvalidMinutes  Code = "EXERCISE_INVALID_MINUTES"
	CodeExerciseTasksRequired   Code = "EXERCISE_TASKS_REQUIRED"
	CodeExerciseTypeImmutable   Code = "EXERCISE_TYPE_IMMUTABLE"
	CodeTaskInvalidType         Code = "TASK_INVALID_TYPE"
	CodeTaskTitleRequired       Code = "TASK_TITLE_REQUIRED"
	CodeTaskPayloadMismatch     Code = "TASK_PAYLOAD_MISMATCH"
	CodeTaskInvalidLimit        Code = "TASK_INVALID_LIMIT"
	CodeTaskNotFound            Code = "TASK_NOT_FOUND"
	CodeInvalidFilter           Code = "INVALID_FILTER"
	CodeInvalidPageToken        Code = "INVALID_PAGE_TOKEN"
	CodeAnswerTaskMismatch      Code = "ANSWER_TASK_MISMATCH"
	CodeAnswerOptionUnavailable Code = "ANSWER_OPTION_UNAVAILABLE"

	// Storage
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAccountFirstNameRequired,
		CodeAccountLastNameRequired,
		CodeAccountEmailInvalid,
		CodeAccountPasswordRequired,
		CodeAccountPasswordTooShort,
		CodeAccountDiscountRange,
		CodeExerciseTitleRequired,
		CodeExerciseInvalidType,
		CodeExerciseInvalidMinutes,
		CodeExerciseTasksRequired,
		CodeExerciseTypeImmutable,
		CodeTaskInvalidType,
		CodeTaskTitleRequired,
		CodeTaskPayloadMismatch,
		CodeTaskInvalidLimit,
		CodeInvalidFilter,
		CodeInvalidPageToken,
		CodeAnswerTaskMismatch,
		CodeAnswerOptionUnavailable,
		CodeInvalidRole:
		return http.StatusBadRequest

	case CodeInvalidCredentials,
		CodeSessionNotFound,
		CodeSessionExpired:
		return http.StatusUnauthorized

	case CodeAuthzDenied,
		CodeAccountInactive,
		CodePortalAccessDenied:
		return http.StatusForbidden

	case CodeNotFound,
		CodeTaskNotFound:
		return http.StatusNotFound

	case CodeAccountEmailTaken,
		CodeSuperAdminBootstrap:
		return http.StatusConflict

	case CodeRateLimited:
		return http.StatusTooManyRequests

	case CodeRemoteUnavailable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
