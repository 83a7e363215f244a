package routepath

import (
	"reflect"
	"testing"
)

func TestBuilders(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{got: User("u-1"), want: "/users/u-1"},
		{got: UserEdit("u-1"), want: "/users/u-1/edit"},
		{got: UserDelete(" u 2 "), want: "/users/u%202/delete"},
		{got: ExerciseModule("reading"), want: "/exercises/reading"},
		{got: ExerciseNew("writing"), want: "/exercises/writing/new"},
		{got: ExerciseEdit("listening", "ex-1"), want: "/exercises/listening/ex-1/edit"},
		{got: ExerciseTask("speaking", "ex-1", "t-1"), want: "/exercises/speaking/ex-1/tasks/t-1"},
		{got: ExerciseTaskDelete("reading", "ex-1", "t-1"), want: "/exercises/reading/ex-1/tasks/t-1/delete"},
		{got: TaskAnswer("ex-1", "t-2"), want: "/tasks/ex-1/t-2"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}

func TestSplitPathParts(t *testing.T) {
	got := SplitPathParts("/reading//ex-1/ tasks /t%201/")
	want := []string{"reading", "ex-1", "tasks", "t 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitPathParts = %v, want %v", got, want)
	}
	if parts := SplitPathParts(""); len(parts) != 0 {
		t.Fatalf("expected no parts, got %v", parts)
	}
}
