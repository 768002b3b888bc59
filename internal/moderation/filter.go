package moderation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Filter holds the immutable word lists used by every check.
// A Filter is safe for concurrent use.
type Filter struct {
	terms      []string
	patterns   []*regexp.Regexp
	vowels     map[rune]struct{}
	consonants map[rune]struct{}
	symbols    map[rune]struct{}
}

// NewFilter returns a Filter with the built-in denylist.
func NewFilter() *Filter {
	return NewFilterWithTerms(defaultTerms)
}

// NewFilterWithTerms returns a Filter using terms as the denylist.
// Blank terms are ignored.
func NewFilterWithTerms(terms []string) *Filter {
	f := &Filter{
		vowels:     runeSet(DefaultVowels),
		consonants: runeSet(DefaultConsonants),
		symbols:    runeSet(spamSymbols),
	}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		f.terms = append(f.terms, t)
		f.patterns = append(f.patterns, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(t)))
	}
	return f
}

// WithAlphabet returns a copy of f that classifies letters with the given
// vowel and consonant sets.
func (f *Filter) WithAlphabet(vowels, consonants string) *Filter {
	cp := *f
	cp.vowels = runeSet(strings.ToLower(vowels))
	cp.consonants = runeSet(strings.ToLower(consonants))
	return &cp
}

// Terms returns a copy of the denylist.
func (f *Filter) Terms() []string {
	out := make([]string, len(f.terms))
	copy(out, f.terms)
	return out
}

// ValidateContent runs every check against text and accumulates the
// failures in check order.
func (f *Filter) ValidateContent(text string, opts Options) Verdict {
	opts = opts.withDefaults()
	v := Verdict{IsValid: true, Errors: []string{}}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < opts.MinLength {
		v.reject(ReasonTooShort, fmt.Sprintf("Content is too short (minimum %d characters)", opts.MinLength))
	}
	if utf8.RuneCountInString(text) > opts.MaxLength {
		v.reject(ReasonTooLong, fmt.Sprintf("Content is too long (maximum %d characters)", opts.MaxLength))
	}
	if _, found := f.ContainsProfanity(text); found {
		v.reject(ReasonProfanity, "Content contains inappropriate language")
	}
	if f.IsSpam(text) {
		v.reject(ReasonSpam, "Content appears to be spam")
	}
	if IsDuplicate(text, opts.PreviousContents) {
		v.reject(ReasonDuplicate, "Content is too similar to previous content")
	}

	return v
}

// ContainsProfanity reports the first denylist term that occurs anywhere
// in text, ignoring case.
func (f *Filter) ContainsProfanity(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}

func runeSet(s string) map[rune]struct{} {
	m := make(map[rune]struct{}, len(s))
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}

var defaultFilter = NewFilter()

// ValidateContent validates text with the built-in denylist.
func ValidateContent(text string, opts Options) Verdict {
	return defaultFilter.ValidateContent(text, opts)
}

// SanitizeContent redacts text with the built-in denylist.
func SanitizeContent(text string) string {
	return defaultFilter.SanitizeContent(text)
}
