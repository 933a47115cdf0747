package identity_test

import (
	"testing"

	"shelfmark/internal/identity"
)

func TestIsDrasticAuthorChange(t *testing.T) {
	cases := []struct {
		name string
		old  string
		new  string
		want bool
	}{
		{"placeholder exemption", "Unknown", "Stephen King", false},
		{"watch folder exemption", "incoming", "Brandon Sanderson", false},
		{"identical", "Jane Doe", "Jane Doe", false},
		{"case only", "jane doe", "Jane Doe", false},
		{"initials variant", "J.R.R. Tolkien", "Tolkien", false},
		{"collapsed initials", "JRR Tolkien", "J. R. R. Tolkien", false},
		{"completely different", "Steven Boyett", "John Dickson Carr", true},
		{"different person shared first name", "Mark Twain", "Mark Lawrence", false},
		{"empty old", "", "Stephen King", false},
		{"empty new", "Stephen King", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := identity.IsDrasticAuthorChange(tc.old, tc.new); got != tc.want {
				t.Fatalf("IsDrasticAuthorChange(%q, %q) = %v, want %v", tc.old, tc.new, got, tc.want)
			}
		})
	}
}

func TestIsPlaceholderAuthor(t *testing.T) {
	for _, name := range []string{"Unknown", "various authors", "  ", "Downloads", "inbox"} {
		if !identity.IsPlaceholderAuthor(name) {
			t.Errorf("expected %q to be a placeholder", name)
		}
	}
	for _, name := range []string{"Stephen King", "Ursula K. Le Guin"} {
		if identity.IsPlaceholderAuthor(name) {
			t.Errorf("expected %q not to be a placeholder", name)
		}
	}
}

func TestIsUnsearchableQuery(t *testing.T) {
	unsearchable := []string{"chapter1", "Chapter 19", "01", "track05", "disc2", "audiobook", "Full Audiobook", "ab"}
	for _, q := range unsearchable {
		if !identity.IsUnsearchableQuery(q) {
			t.Errorf("expected %q to be unsearchable", q)
		}
	}
	searchable := []string{"The Hollow Man", "Dune", "Project Hail Mary"}
	for _, q := range searchable {
		if identity.IsUnsearchableQuery(q) {
			t.Errorf("expected %q to be searchable", q)
		}
	}
}

func TestIsValidAuthorForRecommendation(t *testing.T) {
	invalid := []string{"earth", "[SCAN] Vol 13", "1984 Author", "ab", "Unknown", "Vol 3"}
	for _, a := range invalid {
		if identity.IsValidAuthorForRecommendation(a) {
			t.Errorf("expected %q to be invalid", a)
		}
	}
	valid := []string{"Stephen King", "Ursula K. Le Guin", "N.K. Jemisin"}
	for _, a := range valid {
		if !identity.IsValidAuthorForRecommendation(a) {
			t.Errorf("expected %q to be valid", a)
		}
	}
}

func TestIsGarbageTitleMatch(t *testing.T) {
	cases := []struct {
		original, suggested string
		want                bool
	}{
		{"Mr. Murder", "Frankenstein", true},
		{"Expeditionary Force Book 14 - Match Game", "Match Game", false},
		{"Death Genesis", "The Darkborn AfterLife Genesis", false},
		{"The Hollow Man", "The Hollow Man", false},
	}
	for _, tc := range cases {
		if got := identity.IsGarbageTitleMatch(tc.original, tc.suggested); got != tc.want {
			t.Errorf("IsGarbageTitleMatch(%q, %q) = %v, want %v", tc.original, tc.suggested, got, tc.want)
		}
	}
}
