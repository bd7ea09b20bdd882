package view

import (
	"strings"
	"unicode/utf8"

	"github.com/vanderheijden86/taskview/pkg/model"
)

// Span is a run of title text, marked when it matched the search.
type Span struct {
	Text      string
	Highlight bool
}

// Highlight splits title into spans around case-insensitive, non-overlapping
// matches of query, scanning left to right. Queries shorter than
// model.MinSearchLength runes yield the whole title as a single plain span.
// Joining the span texts always gives back title.
func Highlight(title, query string) []Span {
	query = strings.TrimSpace(query)
	qlen := utf8.RuneCountInString(query)
	if qlen < model.MinSearchLength || title == "" {
		return []Span{{Text: title}}
	}

	var spans []Span
	plainStart := 0
	i := 0
	for i < len(title) {
		end, ok := matchAt(title, i, query, qlen)
		if !ok {
			_, size := utf8.DecodeRuneInString(title[i:])
			i += size
			continue
		}
		if plainStart < i {
			spans = append(spans, Span{Text: title[plainStart:i]})
		}
		spans = append(spans, Span{Text: title[i:end], Highlight: true})
		i = end
		plainStart = end
	}
	if plainStart < len(title) {
		spans = append(spans, Span{Text: title[plainStart:]})
	}
	return spans
}

// matchAt reports whether the qlen runes of title starting at byte offset i
// fold-equal query, and returns the byte offset just past them.
func matchAt(title string, i int, query string, qlen int) (int, bool) {
	end := i
	for n := 0; n < qlen; n++ {
		if end >= len(title) {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(title[end:])
		end += size
	}
	if !strings.EqualFold(title[i:end], query) {
		return 0, false
	}
	return end, true
}
