package navigation

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/louisbranch/ieltsportal/internal/services/portal/authz"
	"gopkg.in/yaml.v3"
)

//go:embed access.yaml
var defaultAccessYAML []byte

// Rule holds the minimum roles for one page. Manage is empty when the page
// has no manage actions.
type Rule struct {
	View   authz.Role
	Manage authz.Role
}

// AccessTable maps every page to its access rule.
type AccessTable struct {
	rules map[Page]Rule
}

type accessDocument struct {
	Pages map[string]struct {
		View   string `yaml:"view"`
		Manage string `yaml:"manage"`
	} `yaml:"pages"`
}

// DefaultAccessTable returns the embedded table.
func DefaultAccessTable() AccessTable {
	table, err := ParseAccessTable(defaultAccessYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded access table: %v", err))
	}
	return table
}

// LoadAccessTable returns the embedded table, or the file at path when path
// is non-empty. The file replaces the embedded table entirely.
func LoadAccessTable(path string) (AccessTable, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultAccessTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AccessTable{}, fmt.Errorf("read access table: %w", err)
	}
	table, err := ParseAccessTable(data)
	if err != nil {
		return AccessTable{}, fmt.Errorf("access table %s: %w", path, err)
	}
	return table, nil
}

// ParseAccessTable decodes and validates a YAML access table.
func ParseAccessTable(data []byte) (AccessTable, error) {
	var doc accessDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return AccessTable{}, fmt.Errorf("decode access table: %w", err)
	}
	rules := make(map[Page]Rule, len(doc.Pages))
	for key, entry := range doc.Pages {
		page, ok := ParsePage(key)
		if !ok {
			return AccessTable{}, fmt.Errorf("unknown page %q", key)
		}
		view, ok := authz.ParseRole(entry.View)
		if !ok {
			return AccessTable{}, fmt.Errorf("page %s: invalid view role %q", page, entry.View)
		}
		rule := Rule{View: view}
		if strings.TrimSpace(entry.Manage) != "" {
			manage, ok := authz.ParseRole(entry.Manage)
			if !ok {
				return AccessTable{}, fmt.Errorf("page %s: invalid manage role %q", page, entry.Manage)
			}
			if authz.RankOf(manage) < authz.RankOf(view) {
				return AccessTable{}, fmt.Errorf("page %s: manage role %s below view role %s", page, manage, view)
			}
			rule.Manage = manage
		}
		rules[page] = rule
	}
	table := AccessTable{rules: rules}
	if err := table.validate(); err != nil {
		return AccessTable{}, err
	}
	return table, nil
}

func (t AccessTable) validate() error {
	var missing []string
	for _, page := range pages {
		if _, ok := t.rules[page]; !ok {
			missing = append(missing, string(page))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("access table missing pages: %s", strings.Join(missing, ", "))
	}
	if t.rules[PageDashboard].View != authz.RoleUser {
		return fmt.Errorf("dashboard must be open to %s", authz.RoleUser)
	}
	return nil
}

// Rule returns the access rule for page.
func (t AccessTable) Rule(page Page) (Rule, bool) {
	rule, ok := t.rules[page]
	return rule, ok
}
