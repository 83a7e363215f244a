package filter

import (
	"reflect"
	"testing"
	"time"
)

var accountSchema = MustSchema(
	Field{Name: "role", Type: FieldString},
	Field{Name: "status", Type: FieldString},
	Field{Name: "email", Type: FieldString},
	Field{Name: "discount", Type: FieldInt, Column: "discount_percent"},
	Field{Name: "created_at", Type: FieldTimestamp, Column: "created_at_ms"},
)

func TestSQLSimpleEquality(t *testing.T) {
	f, err := accountSchema.Parse(`role = "Admin"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond, err := f.SQL()
	if err != nil {
		t.Fatalf("sql: %v", err)
	}
	if cond.Clause != "role = ?" {
		t.Errorf("expected 'role = ?', got %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"Admin"}) {
		t.Errorf("Params = %v", cond.Params)
	}
}

func TestSQLEmptyFilter(t *testing.T) {
	f, err := accountSchema.Parse("  ")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if !f.Empty() {
		t.Fatal("expected empty filter")
	}
	cond, err := f.SQL()
	if err != nil {
		t.Fatalf("sql: %v", err)
	}
	if cond.Clause != "" || cond.Params != nil {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestSQLLogicalOperators(t *testing.T) {
	f, err := accountSchema.Parse(`role = "Editor" AND status = "active"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond, _ := f.SQL()
	if cond.Clause != "(role = ? AND status = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	if !reflect.DeepEqual(cond.Params, []any{"Editor", "active"}) {
		t.Fatalf("Params = %v", cond.Params)
	}

	f, err = accountSchema.Parse(`role = "Editor" OR role = "User"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond, _ = f.SQL()
	if cond.Clause != "(role = ? OR role = ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
}

func TestSQLMapsColumnsAndTimestamps(t *testing.T) {
	f, err := accountSchema.Parse(`discount >= 10 AND created_at > timestamp("2025-01-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	cond, err := f.SQL()
	if err != nil {
		t.Fatalf("sql: %v", err)
	}
	if cond.Clause != "(discount_percent >= ? AND created_at_ms > ?)" {
		t.Fatalf("Clause = %q", cond.Clause)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if !reflect.DeepEqual(cond.Params, []any{int64(10), want}) {
		t.Fatalf("Params = %v", cond.Params)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		`unknown = "x"`,
		`created_at = timestamp("not-a-time")`,
		`created_at = duration("1h")`,
		`role = `,
	}
	for _, input := range tests {
		if _, err := accountSchema.Parse(input); err == nil {
			t.Errorf("Parse(%q) expected error", input)
		}
	}
}

func TestMatch(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := map[string]any{
		"role":       "Editor",
		"status":     "active",
		"email":      "ed@example.com",
		"discount":   15,
		"created_at": created,
	}
	resolve := func(name string) (any, bool) {
		value, ok := record[name]
		return value, ok
	}

	tests := []struct {
		filter string
		want   bool
	}{
		{filter: ``, want: true},
		{filter: `role = "Editor"`, want: true},
		{filter: `role != "Editor"`, want: false},
		{filter: `role = "Admin" OR status = "active"`, want: true},
		{filter: `role = "Editor" AND status = "inactive"`, want: false},
		{filter: `discount > 10`, want: true},
		{filter: `discount <= 10`, want: false},
		{filter: `created_at >= timestamp("2025-03-01T12:00:00Z")`, want: true},
		{filter: `created_at < timestamp("2025-01-01T00:00:00Z")`, want: false},
		{filter: `NOT role = "User"`, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			f, err := accountSchema.Parse(tc.filter)
			if err != nil {
				t.Fatalf("parse filter: %v", err)
			}
			got, err := f.Match(resolve)
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Match() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchNilFilter(t *testing.T) {
	var f *Filter
	ok, err := f.Match(func(string) (any, bool) { return nil, false })
	if err != nil || !ok {
		t.Fatalf("nil filter should match, got %v %v", ok, err)
	}
}

func TestMatchUnresolvedField(t *testing.T) {
	f, err := accountSchema.Parse(`email = "a@b"`)
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if _, err := f.Match(func(string) (any, bool) { return nil, false }); err == nil {
		t.Fatal("expected unresolved field error")
	}
}

func TestNewSchemaValidation(t *testing.T) {
	if _, err := NewSchema(Field{Name: "", Type: FieldString}); err == nil {
		t.Fatal("expected missing name error")
	}
	if _, err := NewSchema(Field{Name: "a", Type: FieldString}, Field{Name: "a", Type: FieldInt}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := NewSchema(Field{Name: "a", Type: "bool"}); err == nil {
		t.Fatal("expected unsupported type error")
	}
	names := accountSchema.FieldNames()
	if !reflect.DeepEqual(names, []string{"created_at", "discount", "email", "role", "status"}) {
		t.Fatalf("FieldNames = %v", names)
	}
}
