package identity

import "strings"

// Identity describes the known or proposed identity of a library item.
// Zero-value fields mean "unknown".
type Identity struct {
	Author    string `json:"author,omitempty"`
	Title     string `json:"title,omitempty"`
	Series    string `json:"series,omitempty"`
	SeriesNum string `json:"series_num,omitempty"`
	Narrator  string `json:"narrator,omitempty"`
	Year      string `json:"year,omitempty"`
	Edition   string `json:"edition,omitempty"`
	Variant   string `json:"variant,omitempty"`
}

// Decision is an accepted resolution for an item: the identity to apply plus
// the confidence and provenance it was accepted with. Immutable once built.
type Decision struct {
	Identity
	Confidence int    `json:"confidence"`
	Source     string `json:"source"`
}

// IsEmpty reports whether the identity carries no usable author or title.
func (id Identity) IsEmpty() bool {
	return strings.TrimSpace(id.Author) == "" && strings.TrimSpace(id.Title) == ""
}

// Label renders "Title by Author" for logs and review reasons.
func (id Identity) Label() string {
	title := strings.TrimSpace(id.Title)
	author := strings.TrimSpace(id.Author)
	switch {
	case title == "" && author == "":
		return "(unidentified)"
	case author == "":
		return title
	case title == "":
		return "(untitled) by " + author
	default:
		return title + " by " + author
	}
}
