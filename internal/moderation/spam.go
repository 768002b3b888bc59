package moderation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Spam thresholds.
const (
	maxLinks          = 3
	charRunLimit      = 5
	maxShoutingWords  = 2
	maxSymbolRatio    = 0.3
	minGibberishLen   = 5
	repeatedWordLimit = 7
	minVowelRatio     = 0.20
	consonantRunLimit = 4
	maxGibberishRatio = 0.30
)

var (
	linkPattern     = regexp.MustCompile(`(?i)https?://`)
	shoutingPattern = regexp.MustCompile(`\b[A-Z]{6,}\b`)
)

// spamCheck is one heuristic of IsSpam. Any match marks the text as spam.
type spamCheck struct {
	name  string
	match func(f *Filter, text string) bool
}

var spamChecks = []spamCheck{
	{name: "links", match: func(_ *Filter, text string) bool {
		return len(linkPattern.FindAllStringIndex(text, -1)) > maxLinks
	}},
	{name: "char_run", match: func(_ *Filter, text string) bool {
		return hasCharRun(text, charRunLimit)
	}},
	{name: "shouting", match: func(_ *Filter, text string) bool {
		return len(shoutingPattern.FindAllStringIndex(text, -1)) > maxShoutingWords
	}},
	{name: "symbols", match: func(f *Filter, text string) bool {
		return f.symbolRatio(text) > maxSymbolRatio
	}},
	{name: "gibberish", match: func(f *Filter, text string) bool {
		return f.gibberishRatio(text) > maxGibberishRatio
	}},
}

// IsSpam reports whether any spam heuristic matches text.
func (f *Filter) IsSpam(text string) bool {
	_, ok := f.SpamSignal(text)
	return ok
}

// SpamSignal returns the name of the first spam heuristic that matches text.
func (f *Filter) SpamSignal(text string) (string, bool) {
	for _, sc := range spamChecks {
		if sc.match(f, text) {
			return sc.name, true
		}
	}
	return "", false
}

// IsSpam reports whether text looks like spam using the built-in alphabet.
func IsSpam(text string) bool {
	return defaultFilter.IsSpam(text)
}

// hasCharRun reports whether text has n or more consecutive identical
// characters. Line breaks never take part in a run. RE2 has no
// backreferences, so this is a linear scan.
func hasCharRun(text string, n int) bool {
	count := 0
	prev := rune(-1)
	for _, r := range text {
		if isLineBreak(r) {
			count = 0
			prev = -1
			continue
		}
		if r == prev {
			count++
		} else {
			count = 1
			prev = r
		}
		if count >= n {
			return true
		}
	}
	return false
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func (f *Filter) symbolRatio(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}
	symbols := 0
	for _, r := range text {
		if _, ok := f.symbols[r]; ok {
			symbols++
		}
	}
	return float64(symbols) / float64(total)
}

func (f *Filter) gibberishRatio(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	gibberish := 0
	for _, w := range words {
		if f.isGibberishWord(w) {
			gibberish++
		}
	}
	return float64(gibberish) / float64(len(words))
}

// isGibberishWord flags words of five or more characters that are one
// repeated character, have too few vowels, or carry a long consonant run.
func (f *Filter) isGibberishWord(word string) bool {
	runes := []rune(strings.ToLower(word))
	if len(runes) < minGibberishLen {
		return false
	}

	if len(runes) >= repeatedWordLimit && allSame(runes) {
		return true
	}

	vowels, run, longestRun := 0, 0, 0
	for _, r := range runes {
		if _, ok := f.vowels[r]; ok {
			vowels++
		}
		if _, ok := f.consonants[r]; ok {
			run++
			if run > longestRun {
				longestRun = run
			}
		} else {
			run = 0
		}
	}

	if float64(vowels)/float64(len(runes)) < minVowelRatio {
		return true
	}
	return longestRun >= consonantRunLimit
}

func allSame(runes []rune) bool {
	for _, r := range runes[1:] {
		if r != runes[0] {
			return false
		}
	}
	return true
}
