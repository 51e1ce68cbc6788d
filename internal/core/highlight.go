package core

import (
	"regexp"
	"strings"
)

// htmlEscaper replaces in a single pass, so entities it emits are never
// escaped a second time.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML replaces & < > " ' with their entities.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}

// HighlightText escapes text and wraps every case-insensitive occurrence of
// each search term in <mark> tags, keeping the matched casing.
//
// Terms are literal strings and are applied in order to the already-escaped
// text, so a later term can match inside markup added by an earlier one.
// Blank terms are skipped. Invalid UTF-8 in text or terms is replaced with
// U+FFFD before matching.
func HighlightText(text string, searchTerms []string) string {
	if text == "" || len(searchTerms) == 0 {
		return EscapeHTML(text)
	}

	highlighted := EscapeHTML(ValidUTF8(text))
	for _, term := range searchTerms {
		term = ValidUTF8(term)
		if strings.TrimSpace(term) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
		if err != nil {
			continue
		}
		highlighted = re.ReplaceAllString(highlighted, "<mark>${0}</mark>")
	}
	return highlighted
}

// ValidUTF8 replaces each run of invalid UTF-8 bytes in s with U+FFFD.
func ValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// SearchTerms returns the terms a cell in column should be highlighted with:
// the global filter first, then the column's own filter. Blank values are dropped.
func SearchTerms(filters FilterState, column string) []string {
	var terms []string
	if strings.TrimSpace(filters.Global) != "" {
		terms = append(terms, filters.Global)
	}
	if v := filters.ColumnFilters[column]; strings.TrimSpace(v) != "" {
		terms = append(terms, v)
	}
	return terms
}
