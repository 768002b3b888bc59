package moderation

import (
	"strings"
	"unicode/utf8"
)

// DuplicateThreshold is the similarity at or above which a text counts as
// a repeat of an earlier one.
const DuplicateThreshold = 0.85

// minSignificantLen excludes short words such as articles from similarity.
const minSignificantLen = 4

// IsDuplicate reports whether text is at least DuplicateThreshold similar
// to any of previous. It stops at the first match.
func IsDuplicate(text string, previous []string) bool {
	if len(previous) == 0 {
		return false
	}
	words := significantWords(text)
	for _, p := range previous {
		if jaccard(words, significantWords(p)) >= DuplicateThreshold {
			return true
		}
	}
	return false
}

// Similarity is the Jaccard index of the lower-cased words longer than
// three characters in a and b. Two texts without such words score 0.
func Similarity(a, b string) float64 {
	return jaccard(significantWords(a), significantWords(b))
}

func significantWords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) >= minSignificantLen {
			set[w] = struct{}{}
		}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	common := 0
	for w := range a {
		if _, ok := b[w]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
