package textutil

import "strings"

// illegalPathChars are stripped from path components. Covers Windows-illegal
// characters plus ASCII control characters.
const illegalPathChars = "<>:\"/\\|?*"

// SanitizeComponent cleans a single path component for safe use inside the
// library tree. It returns false when the component is dangerous or degrades
// to fewer than two characters: traversal sequences, absolute prefixes, and
// empty results are all rejected rather than repaired.
func SanitizeComponent(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "\\") {
		return "", false
	}

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(illegalPathChars, r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Trim(b.String(), ". ")
	if len(cleaned) < 2 {
		return "", false
	}
	return cleaned, true
}
