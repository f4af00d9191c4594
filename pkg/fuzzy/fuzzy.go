package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LevenshteinDistance counts the single-character edits turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalize(s1))
	r2 := []rune(normalize(s2))
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Match reports whether query appears in text, exactly, as a word prefix,
// or within threshold edits of one word.
func Match(query, text string, threshold int) bool {
	query = normalize(query)
	text = normalize(text)
	if query == "" {
		return false
	}
	if strings.Contains(text, query) {
		return true
	}
	for _, word := range strings.Fields(text) {
		if strings.HasPrefix(word, query) || LevenshteinDistance(query, word) <= threshold {
			return true
		}
	}
	return false
}

// Score rates how well query matches the weighted fields, 0 when it doesn't.
// Earlier fields weigh more.
func Score(query string, fields ...string) float64 {
	terms := strings.Fields(normalize(query))
	if len(terms) == 0 {
		return 0
	}

	var total float64
	for _, term := range terms {
		best := 0.0
		for i, field := range fields {
			weight := 1.0 / float64(i+1)
			f := normalize(field)
			var s float64
			switch {
			case containsWord(f, term):
				s = 1.0
			case strings.Contains(f, term):
				s = 0.8
			case Match(term, f, threshold(term)):
				s = 0.5
			}
			if s*weight > best {
				best = s * weight
			}
		}
		if best == 0 {
			// every term must match somewhere
			return 0
		}
		total += best
	}
	return total / float64(len(terms))
}

// threshold allows more typos for longer words.
func threshold(term string) int {
	switch n := len([]rune(term)); {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}

func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if strings.Trim(w, ".,:;!?()\"'") == word {
			return true
		}
	}
	return false
}

// normalize lowercases, strips accents and collapses whitespace.
func normalize(s string) string {
	// chains keep state, so each call gets its own
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
