package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"golang.org/x/text/message"
)

type keyLocalizer struct{}

func (keyLocalizer) Sprintf(key message.Reference, args ...any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return ""
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func assertContains(t *testing.T, got string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Fatalf("expected %q in output:\n%s", w, got)
		}
	}
}

func TestTranslateFallback(t *testing.T) {
	if T(nil, "hello") != "hello" {
		t.Fatal("expected key fallback")
	}
	if T(keyLocalizer{}, "app.name") != "app.name" {
		t.Fatal("expected localizer value")
	}
}

func TestComposePageTitle(t *testing.T) {
	loc := keyLocalizer{}
	if got := ComposePageTitle(loc, ""); got != "app.name" {
		t.Fatalf("title = %q", got)
	}
	if got := ComposePageTitle(loc, "Users"); got != "Users | app.name" {
		t.Fatalf("title = %q", got)
	}
}

func TestElementEscapesTextAndAttributes(t *testing.T) {
	got := render(t, el("p", attrs("title", `"quoted"`), text("<b>bold</b>")))
	if got != `<p title="&#34;quoted&#34;">&lt;b&gt;bold&lt;/b&gt;</p>` {
		t.Fatalf("output = %s", got)
	}
}

func TestVoidElementsHaveNoClosingTag(t *testing.T) {
	got := render(t, el("input", join(attrs("name", "q"), attrIf(false, "checked", ""))))
	if got != `<input name="q">` {
		t.Fatalf("output = %s", got)
	}
}

func TestHrefRejectsUnsafeScheme(t *testing.T) {
	if got := href("javascript:alert(1)"); strings.HasPrefix(got, "javascript") {
		t.Fatalf("href = %q", got)
	}
	if got := href("/users/u-1"); got != "/users/u-1" {
		t.Fatalf("href = %q", got)
	}
}

func TestLayoutRendersMenuAndNotice(t *testing.T) {
	page := PageContext{
		Lang:      "en",
		Loc:       keyLocalizer{},
		Title:     "Dashboard",
		UserName:  "Ada Lovelace",
		RoleLabel: "Super Admin",
		Menu: []MenuItem{
			{Label: "Dashboard", Href: "/", Active: true},
			{Label: "Users", Href: "/users"},
		},
		Notice: "discarded",
	}
	got := render(t, Layout(page, text("body")))
	assertContains(t, got,
		"<!DOCTYPE html>",
		"<title>Dashboard | app.name</title>",
		`<li class="active"><a href="/" aria-current="page">Dashboard</a></li>`,
		`<a href="/users">Users</a>`,
		"Ada Lovelace",
		"Super Admin",
		`role="status">discarded</div>`,
		`<main id="main">body</main>`,
		`action="/logout"`,
	)
}

func TestLoginPageShowsError(t *testing.T) {
	got := render(t, LoginPage(LoginView{Email: "a@b.c", Error: "bad credentials"}, PageContext{Lang: "en", Loc: keyLocalizer{}}))
	assertContains(t, got, `value="a@b.c"`, `role="alert">bad credentials</div>`, `action="/login"`)
}

func TestUsersTableRowActions(t *testing.T) {
	view := UsersTableView{Rows: []UserRow{
		{ID: "u-1", Name: "Ada", CanEdit: true, CanDelete: true},
		{ID: "u-2", Name: "Bob"},
	}}
	got := render(t, UsersTable(view, keyLocalizer{}))
	assertContains(t, got, `id="users-table"`, `href="/users/u-1/edit"`, `action="/users/u-1/delete"`)
	if strings.Contains(got, "/users/u-2/edit") || strings.Contains(got, "/users/u-2/delete") {
		t.Fatalf("expected no actions for u-2:\n%s", got)
	}
}

func TestUsersTableEmpty(t *testing.T) {
	got := render(t, UsersTable(UsersTableView{}, keyLocalizer{}))
	assertContains(t, got, "users.empty")
}

func TestUserFormMarksSelectedRole(t *testing.T) {
	got := render(t, UserForm(UserFormView{
		Action: "/users",
		Roles:  []Option{{Value: "Admin", Label: "Admin"}, {Value: "Editor", Label: "Editor", Selected: true}},
		Active: true,
	}, keyLocalizer{}))
	assertContains(t, got, `<option value="Editor" selected="">Editor</option>`, `name="active" value="true" checked=""`)
}

func TestExercisesPageHidesManageActions(t *testing.T) {
	view := ExercisesPageView{
		ModuleLabel: "Reading",
		Rows:        []ExerciseRow{{ID: "ex-1", Title: "Cities", EditURL: "/exercises/reading/ex-1/edit", DeleteURL: "/exercises/reading/ex-1/delete", TasksURL: "/tasks/ex-1"}},
	}
	got := render(t, ExercisesPage(view, keyLocalizer{}))
	assertContains(t, got, "Cities", `href="/tasks/ex-1"`)
	if strings.Contains(got, "/edit") || strings.Contains(got, "/delete") {
		t.Fatalf("expected manage actions hidden:\n%s", got)
	}

	view.CanManage = true
	view.NewURL = "/exercises/reading/new"
	got = render(t, ExercisesPage(view, keyLocalizer{}))
	assertContains(t, got, `href="/exercises/reading/new"`, `href="/exercises/reading/ex-1/edit"`, `action="/exercises/reading/ex-1/delete"`)
}

func TestExerciseFormMediaFields(t *testing.T) {
	got := render(t, ExerciseForm(ExerciseFormView{ShowRecording: true, FirstTask: &TaskFormView{}}, keyLocalizer{}))
	assertContains(t, got, `name="recording_url"`, `name="task_type"`, "tasks.first")
	if strings.Contains(got, `name="passage"`) || strings.Contains(got, `name="image_url"`) {
		t.Fatalf("expected only recording media:\n%s", got)
	}
}

func TestTaskCardMCQToggles(t *testing.T) {
	card := TaskCardView{
		ID:     "t-1",
		Title:  "Pick one",
		Action: "/tasks/ex-1/t-1",
		MCQ: []MCQQuestionView{{ID: "q-1", Text: "Capital?", Options: []ChoiceView{
			{ID: "o-1", Label: "Paris", Selected: true},
			{ID: "o-2", Label: "Rome"},
		}}},
		Complete: true,
	}
	got := render(t, TaskCard(card, keyLocalizer{}))
	assertContains(t, got,
		`id="task-t-1"`,
		`name="toggle_option" value="o-1"`,
		`aria-pressed="true" data-selected="true">Paris`,
		`aria-pressed="false">Rome`,
		"tasks.complete",
	)
	if strings.Contains(got, "action.save") {
		t.Fatalf("mcq cards save through toggles only:\n%s", got)
	}
}

func TestTaskCardAnswerInputs(t *testing.T) {
	card := TaskCardView{
		ID:     "t-2",
		Action: "/tasks/ex-1/t-2",
		Blanks: []BlankView{{Before: "The cat sat on the", Inputs: []BlankInput{{Name: "blank.b-1.0", Value: "mat"}}}},
		QA:     []QAView{{Name: "qa.q-1", Text: "Why?", Value: "because"}},
		Writing: &WritingView{Value: "essay", Words: "1"},
	}
	got := render(t, TaskCard(card, keyLocalizer{}))
	assertContains(t, got,
		`name="blank.b-1.0" value="mat"`,
		`name="qa.q-1" value="because"`,
		`<textarea name="writing" rows="14">essay</textarea>`,
		"tasks.incomplete",
		`hx-target="#task-t-2"`,
	)
}

func TestActivityPanelPolls(t *testing.T) {
	got := render(t, ActivityPanel([]ActivityRow{{Actor: "Ada", Message: "created Bob"}}, keyLocalizer{}))
	assertContains(t, got, `hx-get="/dashboard/activity"`, "<strong>Ada</strong>", "created Bob")
}
