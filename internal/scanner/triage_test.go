package scanner_test

import (
	"testing"

	"shelfmark/internal/scanner"
)

func TestTriage(t *testing.T) {
	cases := []struct {
		name string
		want scanner.Category
	}{
		{"The Hollow Man", scanner.CategoryClean},
		{"Project Hail Mary", scanner.CategoryClean},
		{"01 - The Final Empire", scanner.CategoryClean},
		{"Dune [MP3] 64kbps", scanner.CategoryMessy},
		{"2023 - Some Book", scanner.CategoryMessy},
		{"Title (Unabridged)", scanner.CategoryMessy},
		{"Great Book-XYZ", scanner.CategoryMessy},
		{"audiobook.scene.rip", scanner.CategoryMessy},
		{"www.tracker.example Dune", scanner.CategoryMessy},
		{"deadbeefdeadbeef", scanner.CategoryGarbage},
		{"123 456", scanner.CategoryGarbage},
		{"New Folder", scanner.CategoryGarbage},
		{"CD 2", scanner.CategoryGarbage},
		{"Unknown Artist", scanner.CategoryGarbage},
		{"", scanner.CategoryGarbage},
		{"   ", scanner.CategoryGarbage},
	}
	for _, tc := range cases {
		if got := scanner.Triage(tc.name); got != tc.want {
			t.Errorf("Triage(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestTrustPathHints(t *testing.T) {
	if !scanner.CategoryClean.TrustPathHints() {
		t.Error("clean folder names should seed path hints")
	}
	if scanner.CategoryMessy.TrustPathHints() || scanner.CategoryGarbage.TrustPathHints() {
		t.Error("messy and garbage folder names must not seed path hints")
	}
}
