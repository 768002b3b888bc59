package moderation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeContent replaces every whole-word occurrence of a denylist term
// with asterisks of the same length. Matching ignores case; word edges are
// Unicode-aware so accented terms are handled too. Text without denylisted
// words is returned unchanged.
func (f *Filter) SanitizeContent(text string) string {
	for _, re := range f.patterns {
		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		var b strings.Builder
		last := 0
		for _, loc := range locs {
			start, end := loc[0], loc[1]
			if !wordEdge(text, start, end) {
				continue
			}
			b.WriteString(text[last:start])
			b.WriteString(strings.Repeat("*", utf8.RuneCountInString(text[start:end])))
			last = end
		}
		if last == 0 {
			continue
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return text
}

// wordEdge reports whether text[start:end] is not glued to a neighbouring
// letter or digit.
func wordEdge(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
