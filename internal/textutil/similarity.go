package textutil

import "strings"

// commonShortWords are 2-3 letter words that must not be mistaken for
// collapsed initials ("of", "van", "mac", ...).
var commonShortWords = map[string]struct{}{
	"of": {}, "in": {}, "on": {}, "by": {}, "to": {}, "at": {}, "or": {},
	"an": {}, "is": {}, "it": {}, "no": {}, "so": {}, "do": {}, "my": {},
	"me": {}, "we": {}, "he": {}, "if": {}, "up": {}, "us": {}, "am": {},
	"as": {}, "be": {}, "go": {}, "la": {}, "le": {}, "de": {}, "du": {},
	"el": {}, "al": {}, "the": {}, "and": {}, "for": {}, "van": {},
	"von": {}, "mac": {}, "don": {}, "ben": {}, "sir": {}, "war": {},
	"new": {}, "old": {}, "red": {},
}

// WordOverlap returns the share of words the two names have in common,
// relative to the larger word set. Empty input yields 0.
func WordOverlap(a, b string) float64 {
	setA := WordSet(a)
	setB := WordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	overlap := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			overlap++
		}
	}
	maxLen := len(setA)
	if len(setB) > maxLen {
		maxLen = len(setB)
	}
	return float64(overlap) / float64(maxLen)
}

// expandCollapsedInitials turns "jrr" into ["j","r","r"]. Only 2-3 letter
// words that are not common short words are treated as collapsed initials.
func expandCollapsedInitials(word string) []string {
	if len(word) < 2 || len(word) > 3 {
		return []string{word}
	}
	for _, r := range word {
		if r < 'a' || r > 'z' {
			return []string{word}
		}
	}
	if _, ok := commonShortWords[word]; ok {
		return []string{word}
	}
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}

func isInitialMatch(a, b string) bool {
	if len(a) == 1 && len(b) > 1 {
		return b[0] == a[0]
	}
	if len(b) == 1 && len(a) > 1 {
		return a[0] == b[0]
	}
	return false
}

// InitialAwareSimilarity scores two names allowing single-letter initials to
// match full words at reduced weight. Handles "C Alanson" vs "Craig Alanson"
// and "JRR Tolkien" vs "J. R. R. Tolkien".
func InitialAwareSimilarity(a, b string) float64 {
	wordsA := NameParts(a)
	wordsB := NameParts(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	var expandedA, expandedB []string
	for _, w := range wordsA {
		expandedA = append(expandedA, expandCollapsedInitials(w)...)
	}
	for _, w := range wordsB {
		expandedB = append(expandedB, expandCollapsedInitials(w)...)
	}

	shorter, longer := expandedA, expandedB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	var score float64
	used := make(map[int]struct{}, len(longer))
	for _, sw := range shorter {
		for i, lw := range longer {
			if _, taken := used[i]; taken {
				continue
			}
			if sw == lw {
				score += 1.0
				used[i] = struct{}{}
				break
			}
			if isInitialMatch(sw, lw) {
				score += 0.7
				used[i] = struct{}{}
				break
			}
		}
	}

	maxWords := len(expandedA)
	if len(expandedB) > maxWords {
		maxWords = len(expandedB)
	}
	return score / float64(maxWords)
}

// NameSimilarity combines containment, word overlap, and initial-aware
// matching into a single 0-1 score.
func NameSimilarity(a, b string) float64 {
	normA := NormalizeName(a)
	normB := NormalizeName(b)
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}
	if len(normA) >= 3 && len(normB) >= 3 {
		if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
			return 0.9
		}
	}
	best := WordOverlap(a, b)
	if initial := InitialAwareSimilarity(a, b); initial > best {
		best = initial
	}
	return best
}
