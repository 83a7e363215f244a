package i18n

import (
	"slices"
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"
)

func TestDefaultBundleLocales(t *testing.T) {
	t.Parallel()

	tags := Default().Tags()
	if len(tags) != 2 {
		t.Fatalf("tags = %v, want en and es", tags)
	}
	if tags[0] != language.English {
		t.Fatalf("first tag = %v, want base locale", tags[0])
	}
	if !slices.Equal(Default().Keys("en"), Default().Keys("es")) {
		t.Fatal("en and es catalogs define different keys")
	}
}

func TestDefaultBundleFormatsArguments(t *testing.T) {
	t.Parallel()

	got := Printer(language.Spanish).Sprintf("dashboard.greeting", "Ana")
	if got != "Hola de nuevo, Ana" {
		t.Fatalf("greeting = %q", got)
	}
	if got := Printer(language.English).Sprintf("users.discount"); got != "Discount (%)" {
		t.Fatalf("discount label = %q", got)
	}
}

func TestLoadFromFS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr bool
	}{
		{
			name: "valid",
			files: fstest.MapFS{
				"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  a: \"A\"\n  b: \"B\"\n")},
				"locales/es.yaml": {Data: []byte("locale: es\nmessages:\n  a: \"Á\"\n")},
			},
		},
		{
			name: "key missing from base",
			files: fstest.MapFS{
				"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  a: \"A\"\n")},
				"locales/es.yaml": {Data: []byte("locale: es\nmessages:\n  b: \"B\"\n")},
			},
			wantErr: true,
		},
		{
			name: "locale does not match file",
			files: fstest.MapFS{
				"locales/en.yaml": {Data: []byte("locale: es\nmessages:\n  a: \"A\"\n")},
			},
			wantErr: true,
		},
		{
			name: "base locale missing",
			files: fstest.MapFS{
				"locales/es.yaml": {Data: []byte("locale: es\nmessages:\n  a: \"A\"\n")},
			},
			wantErr: true,
		},
		{
			name:    "no catalogs",
			files:   fstest.MapFS{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bundle, err := LoadFromFS(tt.files)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromFS() error = %v", err)
			}
			if !bundle.Has("b") || bundle.Has("c") {
				t.Fatalf("Has() mismatch for keys %v", bundle.Keys("en"))
			}
			// es falls back to en for keys it does not define.
			if got := bundle.Printer(language.Spanish).Sprintf("b"); got != "B" {
				t.Fatalf("fallback = %q, want B", got)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	t.Parallel()

	if tag, ok := Default().Supported("es-MX"); !ok || tag != language.Spanish {
		t.Fatalf("Supported(es-MX) = %v, %v", tag, ok)
	}
	if _, ok := Default().Supported("ja"); ok {
		t.Fatal("expected ja to be unsupported")
	}
	if _, ok := Default().Supported("not a tag"); ok {
		t.Fatal("expected malformed tag to be unsupported")
	}
}
