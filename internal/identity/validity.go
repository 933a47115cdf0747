package identity

import (
	"regexp"
	"strings"

	"shelfmark/internal/textutil"
)

var (
	numericOnlyPattern  = regexp.MustCompile(`^\d+$`)
	chapterPattern      = regexp.MustCompile(`^(?:chapter|ch|chap)\s*\d+$`)
	trackPattern        = regexp.MustCompile(`^(?:track|disc|cd|part|pt)\s*\d+$`)
	audiobookPattern    = regexp.MustCompile(`^(?:full\s+)?audiobook$`)
	bracketPattern      = regexp.MustCompile(`[\[\]()]`)
	leadingDigitPattern = regexp.MustCompile(`^\d`)
	volumePattern       = regexp.MustCompile(`^(?:vol|volume|book|part|chapter)\s*\d`)
)

// IsUnsearchableQuery reports whether a title is clearly not a book title and
// should never be sent to lookup services: chapter/track/disc markers, bare
// numbers, and generic labels.
func IsUnsearchableQuery(title string) bool {
	normalized := textutil.NormalizeValue(title)
	if len(normalized) <= 2 {
		return true
	}
	return numericOnlyPattern.MatchString(normalized) ||
		chapterPattern.MatchString(normalized) ||
		trackPattern.MatchString(normalized) ||
		audiobookPattern.MatchString(normalized)
}

// authorBlacklist rejects single words that are topics, not people.
var authorBlacklist = map[string]struct{}{
	"earth": {}, "world": {}, "war": {}, "book": {}, "vol": {}, "volume": {},
	"part": {}, "chapter": {}, "series": {}, "saga": {}, "chronicles": {},
	"collection": {}, "anthology": {}, "edition": {}, "complete": {},
	"unabridged": {}, "abridged": {}, "audio": {}, "audiobook": {},
	"ebook": {}, "scan": {}, "index": {}, "the": {}, "a": {}, "an": {},
	"of": {}, "and": {}, "or": {}, "in": {}, "unknown": {}, "various": {},
	"anonymous": {}, "none": {}, "null": {},
}

// IsValidAuthorForRecommendation reports whether an author string is fit to
// propose in a fix: long enough, not filename garbage, not a topic phrase.
func IsValidAuthorForRecommendation(author string) bool {
	author = strings.TrimSpace(author)
	if len(author) < 3 {
		return false
	}
	if bracketPattern.MatchString(author) || leadingDigitPattern.MatchString(author) {
		return false
	}
	normalized := textutil.NormalizeValue(author)
	if _, ok := authorBlacklist[normalized]; ok {
		return false
	}
	if volumePattern.MatchString(normalized) {
		return false
	}
	return !IsPlaceholderAuthor(author)
}

// titlePollutionPatterns match publisher/edition noise that indicates a
// scraped rather than identified title.
var titlePollutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(hardcover|paperback|mass market)\b`),
	regexp.MustCompile(`(?i)\b\d{4}\s*(edition|printing|ed\.)\b`),
	regexp.MustCompile(`(?i)\b(tantor|brilliance|podium|blackstone)\s+audio\b`),
	regexp.MustCompile(`(?i)\brecorded\s+books\b`),
	regexp.MustCompile(`(?i)\baudible\s+studios\b`),
	regexp.MustCompile(`(?i),\s*written\s+(and\s+)?read\s+`),
}

// IsValidTitleForRecommendation reports whether a title string is fit to
// propose in a fix.
func IsValidTitleForRecommendation(title string) bool {
	title = strings.TrimSpace(title)
	if len(title) < 2 {
		return false
	}
	for _, pattern := range titlePollutionPatterns {
		if pattern.MatchString(title) {
			return false
		}
	}
	return true
}

// IsGarbageTitleMatch reports whether a suggested title is too dissimilar
// from the query to accept: below 30% word overlap, with leniency for very
// short originals and suspicion for matches that lose series context.
func IsGarbageTitleMatch(original, suggested string) bool {
	similarity := textutil.NameSimilarity(original, suggested)
	origWords := len(textutil.NameParts(original))
	suggWords := len(textutil.NameParts(suggested))

	if origWords <= 2 {
		return similarity < 0.2
	}

	suggestedInOriginal := strings.Contains(
		textutil.NormalizeName(original), textutil.NormalizeName(suggested),
	)
	if origWords >= 5 && suggWords <= 2 && !suggestedInOriginal && similarity < 0.5 {
		return true
	}
	return similarity < 0.3
}
