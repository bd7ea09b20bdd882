package view

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name  string
		title string
		query string
		want  []Span
	}{
		{"short query", "Fix the login", "lo", []Span{{Text: "Fix the login"}}},
		{"trimmed to short", "Fix the login", "  lo ", []Span{{Text: "Fix the login"}}},
		{"no match", "Fix the login", "xyz", []Span{{Text: "Fix the login"}}},
		{"case insensitive", "Fix the LOGIN page", "login", []Span{
			{Text: "Fix the "}, {Text: "LOGIN", Highlight: true}, {Text: " page"},
		}},
		{"non overlapping", "aaaa", "aaa", []Span{{Text: "aaa", Highlight: true}, {Text: "a"}}},
		{"repeated", "abcXabc", "ABC", []Span{
			{Text: "abc", Highlight: true}, {Text: "X"}, {Text: "abc", Highlight: true},
		}},
		{"unicode fold", "Écrire ÉCRIRE", "écr", []Span{
			{Text: "Écr", Highlight: true}, {Text: "ire "}, {Text: "ÉCR", Highlight: true}, {Text: "IRE"},
		}},
		{"empty title", "", "abc", []Span{{Text: ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Highlight(tt.title, tt.query))
		})
	}
}

func TestPropertyHighlightRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringMatching(`[abcABCéÉ xy]{0,30}`).Draw(t, "title")
		query := rapid.StringMatching(`[abcABCéÉ]{3,5}`).Draw(t, "query")

		var sb strings.Builder
		for _, s := range Highlight(title, query) {
			sb.WriteString(s.Text)
			if s.Highlight {
				require.True(t, strings.EqualFold(s.Text, query), "%q vs %q", s.Text, query)
			}
		}
		require.Equal(t, title, sb.String())
	})
}
