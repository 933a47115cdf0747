package identity

import (
	"strings"

	"shelfmark/internal/textutil"
)

// drasticOverlapThreshold is the word-share below which an author change is
// considered drastic.
const drasticOverlapThreshold = 0.3

// IsDrasticAuthorChange reports whether replacing oldAuthor with newAuthor
// is an implausible identity change requiring corroboration, as opposed to a
// formatting variation (case, initials, expanded middle names).
//
// A change away from a placeholder author is never drastic: finding the real
// author is always an improvement.
func IsDrasticAuthorChange(oldAuthor, newAuthor string) bool {
	if strings.TrimSpace(oldAuthor) == "" || strings.TrimSpace(newAuthor) == "" {
		return false
	}
	if IsPlaceholderAuthor(oldAuthor) {
		return false
	}

	oldNorm := textutil.NormalizeName(oldAuthor)
	newNorm := textutil.NormalizeName(newAuthor)
	if oldNorm == newNorm {
		return false
	}

	oldParts := textutil.WordSet(oldAuthor)
	newParts := textutil.WordSet(newAuthor)
	overlap := 0
	for word := range oldParts {
		if _, ok := newParts[word]; ok {
			overlap++
		}
	}

	if overlap == 0 {
		// No shared words. Accept initials/substring variants of the same
		// surname ("Tolkien" vs "J.R.R. Tolkien") before calling it drastic.
		if surnamesRelated(oldParts, newParts) {
			return false
		}
		if textutil.InitialAwareSimilarity(oldAuthor, newAuthor) >= 0.7 {
			return false
		}
		return true
	}

	total := len(oldParts)
	if len(newParts) > total {
		total = len(newParts)
	}
	return total > 0 && float64(overlap)/float64(total) < drasticOverlapThreshold
}

// surnamesRelated checks whether the longest word of one name contains the
// longest word of the other, which catches surname-only references.
func surnamesRelated(a, b map[string]struct{}) bool {
	longA := longestWord(a)
	longB := longestWord(b)
	if longA == "" || longB == "" {
		return false
	}
	return strings.Contains(longA, longB) || strings.Contains(longB, longA)
}

func longestWord(parts map[string]struct{}) string {
	longest := ""
	for word := range parts {
		if len(word) > len(longest) {
			longest = word
		}
	}
	return longest
}
