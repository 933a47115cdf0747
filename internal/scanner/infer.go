package scanner

import (
	"path/filepath"
	"regexp"
	"strings"

	"shelfmark/internal/identity"
)

var (
	seriesNumPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(.+)$`)
	narratorBraces  = regexp.MustCompile(`\s*\{([^}]+)\}`)
	bracketTag      = regexp.MustCompile(`\s*\[([^\]]+)\]`)
	yearParens      = regexp.MustCompile(`\s*\((\d{4})\)`)
)

// InferIdentity derives an identity from a book folder's position under its
// library root. Layouts recognized: root/Author/Title and
// root/Author/Series/Title, with optional "NN - ", "{Narrator}", "[Tag]" and
// "(Year)" decorations on the title folder. A placeholder in author position
// yields an empty author so downstream layers do not inherit folder noise.
func InferIdentity(root, bookPath string) identity.Identity {
	rel, err := filepath.Rel(root, bookPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return identity.Identity{Title: parseTitleFolder(filepath.Base(bookPath)).Title}
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	id := parseTitleFolder(parts[len(parts)-1])
	switch {
	case len(parts) >= 3:
		id.Author = strings.TrimSpace(parts[0])
		id.Series = strings.TrimSpace(parts[len(parts)-2])
	case len(parts) == 2:
		id.Author = strings.TrimSpace(parts[0])
	}
	if identity.IsPlaceholderAuthor(id.Author) {
		id.Author = ""
	}
	return id
}

// parseTitleFolder strips recognized decorations off a title folder name and
// returns what they encoded.
func parseTitleFolder(name string) identity.Identity {
	var id identity.Identity
	name = strings.TrimSpace(name)

	if m := narratorBraces.FindStringSubmatch(name); m != nil {
		id.Narrator = strings.TrimSpace(m[1])
		name = narratorBraces.ReplaceAllString(name, "")
	}
	if m := yearParens.FindStringSubmatch(name); m != nil {
		id.Year = m[1]
		name = yearParens.ReplaceAllString(name, "")
	}
	// Edition and variant share the bracket form; recorded as variant since
	// the distinction is unrecoverable from the path alone.
	if m := bracketTag.FindStringSubmatch(name); m != nil {
		id.Variant = strings.TrimSpace(m[1])
		name = bracketTag.ReplaceAllString(name, "")
	}
	if m := seriesNumPrefix.FindStringSubmatch(name); m != nil {
		id.SeriesNum = strings.TrimLeft(m[1], "0")
		if id.SeriesNum == "" || strings.HasPrefix(id.SeriesNum, ".") {
			id.SeriesNum = "0" + id.SeriesNum
		}
		name = m[2]
	}

	id.Title = strings.TrimSpace(name)
	return id
}
