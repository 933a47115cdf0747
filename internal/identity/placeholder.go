package identity

import "shelfmark/internal/textutil"

// placeholderAuthors are non-identity values commonly found in author
// position: system folders, watch-folder names, and generic labels. Moving
// away from one of these never counts as an author change.
var placeholderAuthors = map[string]struct{}{
	"unknown": {}, "unknown author": {}, "various": {}, "various authors": {},
	"va": {}, "n/a": {}, "none": {}, "no author": {}, "anonymous": {},
	"audiobook": {}, "audiobooks": {}, "ebook": {}, "ebooks": {},
	"book": {}, "books": {}, "author": {}, "authors": {}, "narrator": {},
	"untitled": {}, "metadata": {}, "tmp": {}, "temp": {}, "streams": {},
	"cache": {}, "data": {}, "log": {}, "logs": {}, "audio": {}, "media": {},
	"files": {}, "downloads": {}, "torrents": {}, "watch": {}, "incoming": {},
	"new": {}, "import": {}, "imports": {}, "inbox": {}, "input": {}, "drop": {},
}

// IsPlaceholderAuthor reports whether the name is a known non-identity value.
// Empty names count as placeholders.
func IsPlaceholderAuthor(name string) bool {
	normalized := textutil.NormalizeValue(name)
	if normalized == "" {
		return true
	}
	_, ok := placeholderAuthors[normalized]
	return ok
}
