// Package storagetest holds the behavioral contract every portal store
// implementation must satisfy.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/ieltsportal/internal/services/portal/storage"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) storage.Store

// Run exercises the store contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("account email uniqueness", func(t *testing.T) { testAccountEmailUnique(t, newStore(t)) })
	t.Run("account listing", func(t *testing.T) { testAccountListing(t, newStore(t)) })
	t.Run("super admin exists", func(t *testing.T) { testSuperAdminExists(t, newStore(t)) })
	t.Run("exercises", func(t *testing.T) { testExercises(t, newStore(t)) })
	t.Run("answers", func(t *testing.T) { testAnswers(t, newStore(t)) })
	t.Run("activity", func(t *testing.T) { testActivity(t, newStore(t)) })
	t.Run("session records", func(t *testing.T) { testSessionRecords(t, newStore(t)) })
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func account(id, first, last, email, role string, offset time.Duration) storage.Account {
	return storage.Account{
		ID:           id,
		FirstName:    first,
		LastName:     last,
		Email:        email,
		PasswordHash: "hash-" + id,
		Role:         role,
		Active:       true,
		ReferralCode: "REF" + id,
		CreatedBy:    "seed",
		CreatedAt:    base.Add(offset),
	}
}

func intPtr(v int) *int { return &v }

func testAccounts(t *testing.T, store storage.Store) {
	ctx := context.Background()
	a := account("a1", "Ada", "Lovelace", "ada@example.com", "Admin", 0)
	a.DiscountPercent = intPtr(15)
	a.ReferredBy = "REFx"
	if err := store.PutAccount(ctx, a); err != nil {
		t.Fatalf("put account: %v", err)
	}

	got, err := store.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Email != a.Email || got.Role != "Admin" || !got.Active || got.ReferralCode != "REFa1" || got.ReferredBy != "REFx" {
		t.Fatalf("account = %+v", got)
	}
	if got.DiscountPercent == nil || *got.DiscountPercent != 15 {
		t.Fatalf("discount = %v", got.DiscountPercent)
	}
	if !got.CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, a.CreatedAt)
	}

	byEmail, err := store.GetAccountByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != "a1" {
		t.Fatalf("by email id = %q", byEmail.ID)
	}

	edited := base.Add(time.Hour)
	got.FirstName = "Augusta"
	got.EditedBy = "s1"
	got.EditedAt = &edited
	got.DiscountPercent = nil
	if err := store.PutAccount(ctx, got); err != nil {
		t.Fatalf("update account: %v", err)
	}
	again, err := store.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if again.FirstName != "Augusta" || again.EditedBy != "s1" || again.EditedAt == nil || !again.EditedAt.Equal(edited) {
		t.Fatalf("updated account = %+v", again)
	}
	if again.DiscountPercent != nil {
		t.Fatalf("expected cleared discount, got %v", *again.DiscountPercent)
	}

	deleted := base.Add(2 * time.Hour)
	again.DeletedBy = "s1"
	again.DeletedAt = &deleted
	if err := store.PutAccount(ctx, again); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := store.GetAccountByEmail(ctx, "ada@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected deleted account hidden from email lookup, got %v", err)
	}
	kept, err := store.GetAccount(ctx, "a1")
	if err != nil {
		t.Fatalf("get deleted by id: %v", err)
	}
	if kept.DeletedAt == nil || kept.DeletedBy != "s1" {
		t.Fatalf("deleted audit = %+v", kept)
	}

	if _, err := store.GetAccount(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testAccountEmailUnique(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.PutAccount(ctx, account("a1", "Ada", "L", "ada@example.com", "Editor", 0)); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := store.PutAccount(ctx, account("a2", "Other", "Ada", "Ada@Example.com", "User", time.Minute))
	if !errors.Is(err, storage.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
}

func testAccountListing(t *testing.T, store storage.Store) {
	ctx := context.Background()
	rows := []storage.Account{
		account("s1", "Sam", "Root", "sam@example.com", "SuperAdmin", 0),
		account("a1", "Ada", "Lovelace", "ada@example.com", "Admin", time.Minute),
		account("e1", "Edsger", "Dijkstra", "ed@example.com", "Editor", 2*time.Minute),
		account("u1", "Grace", "Hopper", "grace@example.com", "User", 3*time.Minute),
		account("u2", "Alan", "Turing", "alan@example.com", "User", 4*time.Minute),
	}
	rows[3].Active = false
	rows[4].DiscountPercent = intPtr(30)
	gone := base.Add(time.Hour)
	deleted := account("d1", "Del", "Eted", "del@example.com", "User", 5*time.Minute)
	deleted.DeletedAt = &gone
	rows = append(rows, deleted)
	for _, row := range rows {
		if err := store.PutAccount(ctx, row); err != nil {
			t.Fatalf("put %s: %v", row.ID, err)
		}
	}

	page, err := store.ListAccounts(ctx, storage.AccountQuery{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if ids(page.Accounts) != "s1,a1" || !page.HasMore || page.NextOffset != 2 {
		t.Fatalf("first page = %s more=%v next=%d", ids(page.Accounts), page.HasMore, page.NextOffset)
	}
	page, err = store.ListAccounts(ctx, storage.AccountQuery{Offset: 4, Limit: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if ids(page.Accounts) != "u2" || page.HasMore {
		t.Fatalf("last page = %s more=%v", ids(page.Accounts), page.HasMore)
	}

	page, err = store.ListAccounts(ctx, storage.AccountQuery{NameContains: "DIJK"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if ids(page.Accounts) != "e1" {
		t.Fatalf("name search = %s", ids(page.Accounts))
	}

	tests := []struct {
		filter string
		want   string
	}{
		{filter: `role = "User"`, want: "u1,u2"},
		{filter: `status = "inactive"`, want: "u1"},
		{filter: `role = "User" AND status = "active"`, want: "u2"},
		{filter: `discount >= 10`, want: "u2"},
		{filter: `email = "ada@example.com" OR role = "Editor"`, want: "a1,e1"},
		{filter: `created_at > timestamp("2026-03-01T09:02:30Z")`, want: "u1,u2"},
	}
	for _, tc := range tests {
		f, err := storage.AccountFilterSchema.Parse(tc.filter)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.filter, err)
		}
		page, err := store.ListAccounts(ctx, storage.AccountQuery{Filter: f})
		if err != nil {
			t.Fatalf("list %q: %v", tc.filter, err)
		}
		if got := ids(page.Accounts); got != tc.want {
			t.Errorf("filter %q = %s, want %s", tc.filter, got, tc.want)
		}
	}
}

func testSuperAdminExists(t *testing.T, store storage.Store) {
	ctx := context.Background()
	exists, err := store.SuperAdminExists(ctx, "")
	if err != nil || exists {
		t.Fatalf("empty store exists = %v %v", exists, err)
	}
	if err := store.PutAccount(ctx, account("s1", "Sam", "Root", "sam@example.com", "SuperAdmin", 0)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if exists, _ := store.SuperAdminExists(ctx, ""); !exists {
		t.Fatal("expected super admin to exist")
	}
	if exists, _ := store.SuperAdminExists(ctx, "s1"); exists {
		t.Fatal("expected exclusion of s1")
	}
}

func exercise(id, kind, title string, offset time.Duration) storage.Exercise {
	return storage.Exercise{
		ID:             id,
		Type:           kind,
		Title:          title,
		Description:    "desc " + id,
		AllowedMinutes: 40,
		Passage:        "passage",
		TasksJSON:      []byte(`[{"id":"t1"}]`),
		CreatedBy:      "e1",
		CreatedAt:      base.Add(offset),
		UpdatedBy:      "e1",
		UpdatedAt:      base.Add(offset),
	}
}

func testExercises(t *testing.T, store storage.Store) {
	ctx := context.Background()
	rows := []storage.Exercise{
		exercise("x1", "Reading", "Coral reefs", 0),
		exercise("x2", "Reading", "Urban farming", time.Minute),
		exercise("x3", "Listening", "Campus tour", 2*time.Minute),
	}
	rows[1].AllowedMinutes = 60
	for _, row := range rows {
		if err := store.PutExercise(ctx, row); err != nil {
			t.Fatalf("put %s: %v", row.ID, err)
		}
	}

	got, err := store.GetExercise(ctx, "x1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Coral reefs" || string(got.TasksJSON) != `[{"id":"t1"}]` || got.AllowedMinutes != 40 {
		t.Fatalf("exercise = %+v", got)
	}

	page, err := store.ListExercises(ctx, storage.ExerciseQuery{Type: "Reading"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if exerciseIDs(page.Exercises) != "x1,x2" {
		t.Fatalf("reading = %s", exerciseIDs(page.Exercises))
	}
	page, _ = store.ListExercises(ctx, storage.ExerciseQuery{Type: "Reading", TitleContains: "FARM"})
	if exerciseIDs(page.Exercises) != "x2" {
		t.Fatalf("title search = %s", exerciseIDs(page.Exercises))
	}
	f, err := storage.ExerciseFilterSchema.Parse(`allowed_minutes > 45`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	page, _ = store.ListExercises(ctx, storage.ExerciseQuery{Type: "Reading", Filter: f})
	if exerciseIDs(page.Exercises) != "x2" {
		t.Fatalf("filtered = %s", exerciseIDs(page.Exercises))
	}

	counts, err := store.CountExercises(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts["Reading"] != 2 || counts["Listening"] != 1 {
		t.Fatalf("counts = %v", counts)
	}

	if err := store.PutAnswer(ctx, storage.Answer{PrincipalID: "u1", ExerciseID: "x1", TaskID: "t1", Payload: []byte(`{}`), UpdatedAt: base}); err != nil {
		t.Fatalf("put answer: %v", err)
	}
	if err := store.DeleteExercise(ctx, "x1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetExercise(ctx, "x1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := store.GetAnswer(ctx, "u1", "x1", "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected answers removed with exercise, got %v", err)
	}
	if err := store.DeleteExercise(ctx, "x1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

func testAnswers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	if err := store.PutExercise(ctx, exercise("x1", "Reading", "Coral reefs", 0)); err != nil {
		t.Fatalf("put exercise: %v", err)
	}
	first := storage.Answer{PrincipalID: "u1", ExerciseID: "x1", TaskID: "t2", Payload: []byte(`{"text":"a"}`), UpdatedAt: base}
	second := storage.Answer{PrincipalID: "u1", ExerciseID: "x1", TaskID: "t1", Payload: []byte(`{"text":"b"}`), UpdatedAt: base}
	other := storage.Answer{PrincipalID: "u2", ExerciseID: "x1", TaskID: "t1", Payload: []byte(`{"text":"c"}`), UpdatedAt: base}
	for _, a := range []storage.Answer{first, second, other} {
		if err := store.PutAnswer(ctx, a); err != nil {
			t.Fatalf("put answer: %v", err)
		}
	}
	first.Payload = []byte(`{"text":"a2"}`)
	if err := store.PutAnswer(ctx, first); err != nil {
		t.Fatalf("overwrite answer: %v", err)
	}
	got, err := store.GetAnswer(ctx, "u1", "x1", "t2")
	if err != nil {
		t.Fatalf("get answer: %v", err)
	}
	if string(got.Payload) != `{"text":"a2"}` {
		t.Fatalf("payload = %s", got.Payload)
	}
	list, err := store.ListAnswers(ctx, "u1", "x1")
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	if len(list) != 2 || list[0].TaskID != "t1" || list[1].TaskID != "t2" {
		t.Fatalf("answers = %+v", list)
	}
}

func testActivity(t *testing.T, store storage.Store) {
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		entry := storage.ActivityEntry{
			ID:        string(rune('a' + i)),
			Actor:     "Ada",
			Message:   "event",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendActivity(ctx, entry, 5); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	entries, err := store.ListActivity(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 retained entries, got %d", len(entries))
	}
	if entries[0].ID != "g" || entries[4].ID != "c" {
		t.Fatalf("order = %s..%s", entries[0].ID, entries[4].ID)
	}
	entries, _ = store.ListActivity(ctx, 2)
	if len(entries) != 2 {
		t.Fatalf("limit ignored: %d", len(entries))
	}
}

func testSessionRecords(t *testing.T, store storage.Store) {
	ctx := context.Background()
	rec := storage.SessionRecord{ID: "sess-1", PrincipalID: "a1", CreatedAt: base, ExpiresAt: base.Add(12 * time.Hour)}
	if err := store.PutSessionRecord(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetSessionRecord(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PrincipalID != "a1" || !got.ExpiresAt.Equal(rec.ExpiresAt) || got.EndedAt != nil {
		t.Fatalf("record = %+v", got)
	}
	ended := base.Add(time.Hour)
	if err := store.EndSessionRecord(ctx, "sess-1", ended); err != nil {
		t.Fatalf("end: %v", err)
	}
	got, _ = store.GetSessionRecord(ctx, "sess-1")
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Fatalf("ended = %v", got.EndedAt)
	}
	if err := store.EndSessionRecord(ctx, "missing", ended); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func ids(accounts []storage.Account) string {
	out := ""
	for i, a := range accounts {
		if i > 0 {
			out += ","
		}
		out += a.ID
	}
	return out
}

func exerciseIDs(exercises []storage.Exercise) string {
	out := ""
	for i, e := range exercises {
		if i > 0 {
			out += ","
		}
		out += e.ID
	}
	return out
}
