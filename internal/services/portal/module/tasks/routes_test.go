package tasks

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeService struct {
	lastCall     string
	lastExercise string
	lastTask     string
}

func (f *fakeService) HandleTasks(http.ResponseWriter, *http.Request) {
	f.lastCall = "tasks"
}

func (f *fakeService) HandleTaskSheet(_ http.ResponseWriter, _ *http.Request, exerciseID string) {
	f.lastCall = "sheet"
	f.lastExercise = exerciseID
}

func (f *fakeService) HandleTaskAnswer(_ http.ResponseWriter, _ *http.Request, exerciseID, taskID string) {
	f.lastCall = "answer"
	f.lastExercise = exerciseID
	f.lastTask = taskID
}

func TestRegisterRoutes(t *testing.T) {
	svc := &fakeService{}
	mux := http.NewServeMux()
	RegisterRoutes(mux, svc)

	tests := []struct {
		path         string
		wantCode     int
		wantCall     string
		wantExercise string
		wantTask     string
	}{
		{path: "/tasks", wantCode: http.StatusOK, wantCall: "tasks"},
		{path: "/tasks/ex-1", wantCode: http.StatusOK, wantCall: "sheet", wantExercise: "ex-1"},
		{path: "/tasks/ex-1/t-2", wantCode: http.StatusOK, wantCall: "answer", wantExercise: "ex-1", wantTask: "t-2"},
		{path: "/tasks/ex-1/t-2/extra", wantCode: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			*svc = fakeService{}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			if svc.lastCall != tc.wantCall || svc.lastExercise != tc.wantExercise || svc.lastTask != tc.wantTask {
				t.Fatalf("got %+v", *svc)
			}
		})
	}
}
