package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := WithMetadata(CodeAuthzDenied, "edit denied", map[string]string{"Reason": "DENY_RANK_REQUIRED"})
	wrapped := fmt.Errorf("update account: %w", err)

	if !stderrors.Is(wrapped, New(CodeAuthzDenied, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(wrapped, New(CodeNotFound, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "write account", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "write account" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestErrorFallsBackToCauseMessage(t *testing.T) {
	err := Wrap(CodeUnknown, "", stderrors.New("boom"))
	if err.Error() != "boom" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(fmt.Errorf("x: %w", New(CodeAccountEmailTaken, "taken"))); got != CodeAccountEmailTaken {
		t.Fatalf("code = %q", got)
	}
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeAccountEmailInvalid, http.StatusBadRequest},
		{CodeExerciseTasksRequired, http.StatusBadRequest},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeSessionExpired, http.StatusUnauthorized},
		{CodeAuthzDenied, http.StatusForbidden},
		{CodePortalAccessDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeAccountEmailTaken, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
	if HTTPStatus(nil) != http.StatusOK {
		t.Fatal("expected nil error to map to 200")
	}
	if HTTPStatus(stderrors.New("plain")) != http.StatusInternalServerError {
		t.Fatal("expected plain error to map to 500")
	}
}
