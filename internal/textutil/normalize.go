package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var caseFolder = cases.Fold()

// NormalizeValue produces the canonical comparison form of an evidence value:
// NFC-normalized, case-folded, trimmed, inner whitespace collapsed.
func NormalizeValue(value string) string {
	value = norm.NFC.String(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	folded := caseFolder.String(value)
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeName prepares a personal name or title for fuzzy comparison:
// case-folded, punctuation stripped, leading articles removed.
func NormalizeName(value string) string {
	folded := NormalizeValue(value)
	if folded == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(out, article) {
			out = out[len(article):]
			break
		}
	}
	return out
}

// NameParts returns the significant words of a normalized name. Single
// characters are kept so initials can participate in matching.
func NameParts(value string) []string {
	return strings.Fields(NormalizeName(value))
}

// WordSet returns the multi-character words of a name as a set.
func WordSet(value string) map[string]struct{} {
	parts := NameParts(value)
	set := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if len(part) > 1 {
			set[part] = struct{}{}
		}
	}
	return set
}
