package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every key must be defined in.
const BaseLocale = "en"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Bundle holds the messages of every locale and the x/text catalog built
// from them.
type Bundle struct {
	locales map[string]map[string]string
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

var defaultBundle = mustLoadEmbedded()

// Default returns the bundle built from the embedded locale files.
func Default() *Bundle {
	return defaultBundle
}

// LoadFromFS reads locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	bundle := &Bundle{locales: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if err := bundle.add(p, file); err != nil {
			return nil, err
		}
	}
	base, ok := bundle.locales[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	for locale, messages := range bundle.locales {
		for key := range messages {
			if _, ok := base[key]; !ok {
				return nil, fmt.Errorf("locale %s: key %q is missing from base locale", locale, key)
			}
		}
	}
	if err := bundle.build(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (b *Bundle) add(p string, file catalogFile) error {
	locale := strings.TrimSpace(file.Locale)
	fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", p, locale, fromPath)
	}
	if len(file.Messages) == 0 {
		return fmt.Errorf("catalog %s: messages are required", p)
	}
	messages := make(map[string]string, len(file.Messages))
	for key, value := range file.Messages {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		messages[key] = value
	}
	b.locales[locale] = messages
	return nil
}

// build registers every message on a private catalog so printers never
// depend on the process-wide default catalog. Keys a locale does not
// translate are registered with the base locale text.
func (b *Bundle) build() error {
	b.builder = catalog.NewBuilder(catalog.Fallback(language.Make(BaseLocale)))
	locales := make([]string, 0, len(b.locales))
	for locale := range b.locales {
		locales = append(locales, locale)
	}
	sort.Slice(locales, func(i, j int) bool {
		// Base first so it is the matcher's default.
		if locales[i] == BaseLocale || locales[j] == BaseLocale {
			return locales[i] == BaseLocale
		}
		return locales[i] < locales[j]
	})
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		for key, value := range b.locales[BaseLocale] {
			if translated, ok := b.locales[locale][key]; ok {
				value = translated
			}
			if err := b.builder.SetString(tag, key, value); err != nil {
				return fmt.Errorf("register %s %q: %w", locale, key, err)
			}
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return nil
}

// Tags returns the supported locales, base locale first.
func (b *Bundle) Tags() []language.Tag {
	out := make([]language.Tag, len(b.tags))
	copy(out, b.tags)
	return out
}

// Match picks the best supported tag for the requested tags.
func (b *Bundle) Match(requested ...language.Tag) language.Tag {
	if len(requested) == 0 {
		return b.tags[0]
	}
	_, index, confidence := b.matcher.Match(requested...)
	if confidence == language.No {
		return b.tags[0]
	}
	return b.tags[index]
}

// Supported returns the supported tag for value.
func (b *Bundle) Supported(value string) (language.Tag, bool) {
	parsed, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return language.Tag{}, false
	}
	_, index, confidence := b.matcher.Match(parsed)
	if confidence < language.High {
		return language.Tag{}, false
	}
	return b.tags[index], true
}

// Has reports whether key is defined in the base locale.
func (b *Bundle) Has(key string) bool {
	_, ok := b.locales[BaseLocale][key]
	return ok
}

// Keys returns the sorted keys of locale.
func (b *Bundle) Keys(locale string) []string {
	messages := b.locales[locale]
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Printer returns a printer for tag backed by this bundle.
func (b *Bundle) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(b.builder))
}

func mustLoadEmbedded() *Bundle {
	bundle, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	return bundle
}
