package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuess(t *testing.T) {
	c := DefaultCategorizer()
	tests := []struct {
		name string
		in   string
		want Category
	}{
		{"empty", "", Other},
		{"whitespace only", "   \t", Other},
		{"punctuation only", "!!!", Other},
		{"restaurant dinner", "Had dinner at a nice restaurant", Food},
		{"uber ride", "Uber ride to airport", Transport},
		{"supermarket", "Weekly SUPERMARKET run", Groceries},
		{"electricity", "electricity-bill", Bills},
		{"netflix", "Netflix subscription", Bills},
		{"movie", "Movie night", Entertainment},
		{"amazon", "Amazon order", Shopping},
		{"substring match", "teaching materials", Food},
		{"no keyword", "xyzzy plugh", Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Guess(tt.in))
		})
	}
}

func TestGuessFirstRuleWins(t *testing.T) {
	c := NewCategorizer([]CategoryRule{
		{Category: Shopping, Keywords: []string{"coffee"}},
		{Category: Food, Keywords: []string{"coffee"}},
	})
	assert.Equal(t, Shopping, c.Guess("coffee beans"))
}

func TestNewCategorizerNormalizesKeywords(t *testing.T) {
	rules := []CategoryRule{{Category: Food, Keywords: []string{"  PIZZA ", "", "  "}}}
	c := NewCategorizer(rules)

	got := c.Rules()
	assert.Equal(t, []string{"pizza"}, got[0].Keywords)
	assert.Equal(t, Other, c.Guess("nothing here"), "blank keywords must not match everything")
	assert.Equal(t, Food, c.Guess("Pizza slice"))

	// The caller's table is left untouched.
	assert.Equal(t, "  PIZZA ", rules[0].Keywords[0])
}

func TestRulesReturnsCopy(t *testing.T) {
	c := DefaultCategorizer()
	r := c.Rules()
	r[0].Keywords[0] = "mutated"
	assert.Equal(t, "restaurant", c.Rules()[0].Keywords[0])
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "hello world 42", Normalize("  Hello,   WORLD!! 42 "))
	assert.Equal(t, "caf", Normalize("Café"))
}
