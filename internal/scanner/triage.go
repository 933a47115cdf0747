package scanner

import (
	"regexp"
	"strings"
)

// Category grades a folder name by how much identity signal it carries.
type Category string

const (
	// CategoryClean names look like a real author or title; path-derived
	// hints are trusted.
	CategoryClean Category = "clean"
	// CategoryMessy names carry scene tags or rip markers; the underlying
	// name may be real but path hints are not trusted.
	CategoryMessy Category = "messy"
	// CategoryGarbage names carry no identity signal at all (hashes,
	// numbers, generic placeholders).
	CategoryGarbage Category = "garbage"
)

// TrustPathHints reports whether folder-derived author/title hints should
// seed the item for this category.
func (c Category) TrustPathHints() bool {
	return c == CategoryClean
}

// Scene release tags, torrent markers, quality indicators.
var messyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{[a-z]+\}`),
	regexp.MustCompile(`\[[A-Z0-9]+\]`),
	regexp.MustCompile(`(?i)\([^)]*(?:narrator|read by|unabridged|abridged|rip|scene|kbps)\b[^)]*\)`),
	regexp.MustCompile(`^\d{4}\s*-`),
	regexp.MustCompile(`\d{2}\.\d{2}\.\d{2}`),
	regexp.MustCompile(`(?i)\d+k\b`),
	regexp.MustCompile(`(?i)\d+kbps`),
	regexp.MustCompile(`\bHQ\b|\bLQ\b`),
	regexp.MustCompile(`-[A-Z]{2,4}$`),
	regexp.MustCompile(`(?i)\.com\b`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\b(rip|ripped|scene)\b`),
	regexp.MustCompile(`(?i)\b(x264|aac|mp3|flac|ogg|m4b)\b`),
}

// Folder names with no usable identity content. Anchored: these must match
// the whole name, not merely appear in it.
var garbagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[a-f0-9]{12,}$`),
	regexp.MustCompile(`^[\d\s\-.]+$`),
	regexp.MustCompile(`(?i)^(New Folder|tmp|downloads?|torrents?|audiobooks?|untitled)$`),
	regexp.MustCompile(`(?i)^(CD|Disc|Track)\s*\d+$`),
	regexp.MustCompile(`(?i)^Unknown\s*(Artist|Author|Album)?$`),
}

// Triage grades a folder name. Garbage patterns are checked first since they
// are the most restrictive.
func Triage(folderName string) Category {
	folderName = strings.TrimSpace(folderName)
	if folderName == "" {
		return CategoryGarbage
	}
	for _, pattern := range garbagePatterns {
		if pattern.MatchString(folderName) {
			return CategoryGarbage
		}
	}
	for _, pattern := range messyPatterns {
		if pattern.MatchString(folderName) {
			return CategoryMessy
		}
	}
	return CategoryClean
}
