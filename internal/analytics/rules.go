package analytics

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

type rulesFile struct {
	Category []CategoryRule `toml:"category"`
}

// LoadRules reads a keyword table from a TOML file of ordered
// [[category]] tables:
//
//	[[category]]
//	name = "food"
//	keywords = ["pizza", "tea"]
//
// The declaration order in the file is the match order.
func LoadRules(path string) ([]CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category rules: %w", err)
	}
	return ParseRules(string(data))
}

// ParseRules decodes a TOML keyword table; see LoadRules.
func ParseRules(doc string) ([]CategoryRule, error) {
	var f rulesFile
	if _, err := toml.Decode(doc, &f); err != nil {
		return nil, fmt.Errorf("parsing category rules: %w", err)
	}
	if len(f.Category) == 0 {
		return nil, fmt.Errorf("category rules: no [[category]] tables")
	}
	seen := make(map[Category]struct{}, len(f.Category))
	for i, r := range f.Category {
		name := Category(strings.ToLower(strings.TrimSpace(string(r.Category))))
		if name == "" {
			return nil, fmt.Errorf("category rules: table %d has no name", i+1)
		}
		if name == Funds {
			return nil, fmt.Errorf("category rules: %q is reserved for top-ups", Funds)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("category rules: duplicate category %q", name)
		}
		seen[name] = struct{}{}
		f.Category[i].Category = name
	}
	return f.Category, nil
}
