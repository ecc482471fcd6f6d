package scoring

import (
	"regexp"
	"strings"
	"unicode"
)

// latinWordRe matches Latin-script word tokens.
var latinWordRe = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// stopwords are tokens too common to carry signal in description overlap.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "to": true, "in": true, "for": true, "with": true,
	"is": true, "are": true, "be": true, "on": true, "by": true,
	"that": true, "this": true, "it": true, "as": true, "at": true,
	"的": true, "了": true, "和": true, "与": true, "及": true,
	"是": true, "在": true, "有": true,
}

// Tokenize splits free text into comparable tokens: lowercased Latin words
// plus 1/2/3-character n-grams over contiguous Han runs, minus stopwords.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if tok == "" || stopwords[tok] || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	for _, word := range latinWordRe.FindAllString(text, -1) {
		add(strings.ToLower(word))
	}

	for _, run := range hanRuns(text) {
		for n := 1; n <= 3; n++ {
			for i := 0; i+n <= len(run); i++ {
				add(string(run[i : i+n]))
			}
		}
	}

	return tokens
}

// hanRuns extracts contiguous runs of Han characters as rune slices.
func hanRuns(text string) [][]rune {
	var runs [][]rune
	var current []rune
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			current = append(current, r)
			continue
		}
		if len(current) > 0 {
			runs = append(runs, current)
			current = nil
		}
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// overlapRatio returns |req ∩ cap| / |req| for token sets, clamped to [0,1].
func overlapRatio(reqTokens, capTokens []string) float64 {
	if len(reqTokens) == 0 {
		return 0
	}
	capSet := make(map[string]bool, len(capTokens))
	for _, tok := range capTokens {
		capSet[tok] = true
	}
	matched := 0
	for _, tok := range reqTokens {
		if capSet[tok] {
			matched++
		}
	}
	ratio := float64(matched) / float64(len(reqTokens))
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
