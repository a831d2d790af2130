package scoring

import (
	"strings"
	"unicode"
)

// NormalizeAnswer lowercases s, collapses whitespace runs to one space and trims the ends.
// Punctuation is kept, so "3.5" and "3 5" stay distinct.
func NormalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// NormalizeText lowercases s, turns every run of non-alphanumeric runes into one space and
// trims the ends. It is only used to tokenize free text for word error rate.
func NormalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// Tokenize splits normalized text into words.
func Tokenize(s string) []string {
	return strings.Fields(NormalizeText(s))
}

// CountWords counts whitespace-separated words without normalizing them.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// SentenceCount splits on runs of terminal punctuation.
func SentenceCount(s string) int {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

// UniqueWordRatio is distinct words over total words, apostrophes kept inside words.
func UniqueWordRatio(s string) float64 {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(tokens) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}

// wordEditDistance is the Levenshtein distance over word tokens. Insertions, deletions and
// substitutions all cost 1.
func wordEditDistance(ref, hyp []string) int {
	if len(ref) == 0 {
		return len(hyp)
	}
	if len(hyp) == 0 {
		return len(ref)
	}

	prev := make([]int, len(hyp)+1)
	curr := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ref); i++ {
		curr[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(hyp)]
}
