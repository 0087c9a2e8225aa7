package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRules = `
[[category]]
name = "Coffee"
keywords = ["espresso", "latte"]

[[category]]
name = "food"
keywords = ["pizza"]
`

func TestParseRules(t *testing.T) {
	rules, err := ParseRules(sampleRules)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, Category("coffee"), rules[0].Category)
	assert.Equal(t, []string{"espresso", "latte"}, rules[0].Keywords)

	c := NewCategorizer(rules)
	assert.Equal(t, Category("coffee"), c.Guess("Morning LATTE"))
	assert.Equal(t, Food, c.Guess("pizza"))
	assert.Equal(t, Other, c.Guess("Uber ride"))
}

func TestParseRulesErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"syntax", "[[category]\nname="},
		{"missing name", "[[category]]\nkeywords = [\"x\"]"},
		{"reserved", "[[category]]\nname = \"funds\""},
		{"duplicate", "[[category]]\nname = \"a\"\n[[category]]\nname = \"A\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
