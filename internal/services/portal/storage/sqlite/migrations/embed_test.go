package migrations

import (
	"io/fs"
	"sort"
	"strings"
	"testing"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	want := []string{"001_accounts.sql", "002_exercises.sql", "003_activity_sessions.sql"}
	if len(files) != len(want) {
		t.Fatalf("migrations = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("migration %d = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestMigrationsHaveUpSections(t *testing.T) {
	entries, _ := fs.ReadDir(FS, ".")
	for _, entry := range entries {
		data, err := fs.ReadFile(FS, entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		if !strings.Contains(string(data), "-- +migrate Up") {
			t.Fatalf("%s lacks an up section", entry.Name())
		}
	}
}
