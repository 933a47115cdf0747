package guard_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"shelfmark/internal/audioprobe"
	"shelfmark/internal/config"
	"shelfmark/internal/guard"
	"shelfmark/internal/identity"
	"shelfmark/internal/oracle"
	"shelfmark/internal/services"
	"shelfmark/internal/sources"
)

type fakeOracle struct {
	resp     *oracle.Response
	err      error
	requests []oracle.Request
}

func (f *fakeOracle) Verify(_ context.Context, req oracle.Request) (*oracle.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeTranscriber struct {
	heard *audioprobe.Heard
	err   error
}

func (f *fakeTranscriber) Hear(context.Context, string) (*audioprobe.Heard, error) {
	return f.heard, f.err
}

type recordingSource struct {
	id    string
	hints []string
	cand  *sources.Candidate
}

func (r *recordingSource) ID() string { return r.id }

func (r *recordingSource) Lookup(_ context.Context, _, authorHint string) (*sources.Candidate, error) {
	r.hints = append(r.hints, authorHint)
	return r.cand, nil
}

func newGuard(t *testing.T, orc oracle.Oracle, transcriber audioprobe.Transcriber, cfg config.Verification, srcs ...sources.Source) *guard.Guard {
	t.Helper()
	gatherer := sources.NewGatherer(srcs, sources.NewRateLimiter(nil), nil)
	return guard.New(gatherer, orc, transcriber, cfg, nil)
}

func protecting() config.Verification {
	return config.Verification{ProtectAuthorChanges: true}
}

func TestEvaluatePassesNonDrasticChange(t *testing.T) {
	orc := &fakeOracle{}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "J.R.R. Tolkien", Title: "The Hobbit"}
	proposed := identity.Identity{Author: "Tolkien", Title: "The Hobbit"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Triggered || !out.Accepted {
		t.Fatalf("initials variant should pass ungated, got %+v", out)
	}
	if len(orc.requests) != 0 {
		t.Fatalf("oracle consulted for non-drastic change")
	}
}

func TestEvaluatePlaceholderAuthorAcceptedDirectly(t *testing.T) {
	orc := &fakeOracle{}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "Unknown", Title: "The Stand"}
	proposed := identity.Identity{Author: "Stephen King", Title: "The Stand"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Triggered {
		t.Fatal("placeholder replacement should not trigger the guard")
	}
	if !out.Accepted || out.Identity.Author != "Stephen King" {
		t.Fatalf("expected direct acceptance, got %+v", out)
	}
	if len(orc.requests) != 0 {
		t.Fatalf("oracle consulted despite placeholder exemption")
	}
}

func TestEvaluateDisabledProtectionPassesEverything(t *testing.T) {
	orc := &fakeOracle{}
	g := newGuard(t, orc, nil, config.Verification{ProtectAuthorChanges: false})

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.Accepted || out.Identity.Author != "John Dickson Carr" {
		t.Fatalf("expected unguarded acceptance, got %+v", out)
	}
}

func TestEvaluateWrongVerdictKeepsOriginalAuthor(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:          oracle.VerdictWrong,
		RecommendedAuthor: "Steven Boyett",
		RecommendedTitle:  "The Hollow Man",
		Confidence:        oracle.TierHigh,
	}}
	src := &recordingSource{id: "bookdb"}
	g := newGuard(t, orc, nil, protecting(), src)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.Triggered || !out.Accepted {
		t.Fatalf("expected triggered acceptance, got %+v", out)
	}
	if out.Identity.Author != "Steven Boyett" {
		t.Fatalf("WRONG verdict should restore the original author, got %q", out.Identity.Author)
	}
	if len(orc.requests) != 1 {
		t.Fatalf("expected exactly one oracle call, got %d", len(orc.requests))
	}
}

func TestEvaluateCorrectVerdictAppliesProposed(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictCorrect,
		Confidence: oracle.TierMedium,
	}}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "Jane Doe", Title: "First Novel"}
	proposed := identity.Identity{Author: "Octavia Butler", Title: "First Novel"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.Accepted || out.Identity.Author != "Octavia Butler" {
		t.Fatalf("CORRECT verdict should apply the proposed identity, got %+v", out)
	}
}

func TestEvaluateSweepsWithAndWithoutAuthorHint(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictCorrect,
		Confidence: oracle.TierHigh,
	}}
	src := &recordingSource{id: "bookdb", cand: &sources.Candidate{
		Identity: identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"},
	}}
	g := newGuard(t, orc, nil, protecting(), src)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	if _, err := g.Evaluate(context.Background(), "", original, proposed); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(src.hints) != 2 || src.hints[0] != "Steven Boyett" || src.hints[1] != "" {
		t.Fatalf("expected hinted then unhinted lookup, got %v", src.hints)
	}
	if len(orc.requests[0].Candidates) == 0 {
		t.Fatal("oracle request missing swept candidates")
	}
}

func TestEvaluateOracleUnavailableReturnsError(t *testing.T) {
	wrapped := fmt.Errorf("oracle request: %w", services.ErrUnavailable)
	orc := &fakeOracle{err: wrapped}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	_, err := g.Evaluate(context.Background(), "", original, proposed)
	if err == nil {
		t.Fatal("expected error when the oracle is unreachable")
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("error should preserve the unavailable marker, got %v", err)
	}
}

func TestEvaluateUncertainRoutesToReview(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictUncertain,
		Reasoning:  "candidates split between both authors",
		Confidence: oracle.TierLow,
	}}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Accepted || !out.NeedsReview {
		t.Fatalf("uncertain verdict must not be applied, got %+v", out)
	}
	if !strings.Contains(out.Reason, "candidates split") {
		t.Fatalf("review reason should carry the oracle reasoning, got %q", out.Reason)
	}
}

func TestEvaluateLowConfidenceVerdictIsNotActionable(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictWrong,
		Confidence: oracle.TierLow,
	}}
	g := newGuard(t, orc, nil, protecting())

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Accepted || !out.NeedsReview {
		t.Fatalf("low-confidence verdict must escalate to review, got %+v", out)
	}
}

func TestEvaluateTrustModeCorroboratesOriginal(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictUncertain,
		Confidence: oracle.TierLow,
	}}
	transcriber := &fakeTranscriber{heard: &audioprobe.Heard{Author: "Steven Boyett"}}
	cfg := protecting()
	cfg.TrustMode = true
	g := newGuard(t, orc, transcriber, cfg)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man", Narrator: "Ray Porter"}
	out, err := g.Evaluate(context.Background(), "/books/hollow.m4b", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.Accepted {
		t.Fatalf("audio corroboration should settle the tie, got %+v", out)
	}
	if out.Identity.Author != "Steven Boyett" {
		t.Fatalf("heard author backs the on-disk name, got %q", out.Identity.Author)
	}
	if out.Identity.Narrator != "Ray Porter" {
		t.Fatal("non-author fields of the proposal should survive the tiebreak")
	}
}

func TestEvaluateTrustModeCorroboratesProposed(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictUncertain,
		Confidence: oracle.TierLow,
	}}
	transcriber := &fakeTranscriber{heard: &audioprobe.Heard{Author: "John Dickson Carr"}}
	cfg := protecting()
	cfg.TrustMode = true
	g := newGuard(t, orc, transcriber, cfg)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "/books/hollow.m4b", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.Accepted || out.Identity.Author != "John Dickson Carr" {
		t.Fatalf("heard author backs the proposal, got %+v", out)
	}
}

func TestEvaluateTrustModeAmbiguousFallsBackToReview(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictUncertain,
		Confidence: oracle.TierLow,
	}}
	transcriber := &fakeTranscriber{heard: &audioprobe.Heard{Author: "Completely Different Person"}}
	cfg := protecting()
	cfg.TrustMode = true
	g := newGuard(t, orc, transcriber, cfg)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "/books/hollow.m4b", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Accepted || !out.NeedsReview {
		t.Fatalf("unrecognized heard author must escalate, got %+v", out)
	}
}

func TestEvaluateTrustModeTranscriptionFailureFallsBackToReview(t *testing.T) {
	orc := &fakeOracle{resp: &oracle.Response{
		Decision:   oracle.VerdictUncertain,
		Confidence: oracle.TierLow,
	}}
	transcriber := &fakeTranscriber{err: errors.New("ffmpeg exited 1")}
	cfg := protecting()
	cfg.TrustMode = true
	g := newGuard(t, orc, transcriber, cfg)

	original := identity.Identity{Author: "Steven Boyett", Title: "The Hollow Man"}
	proposed := identity.Identity{Author: "John Dickson Carr", Title: "The Hollow Man"}
	out, err := g.Evaluate(context.Background(), "/books/hollow.m4b", original, proposed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Accepted || !out.NeedsReview {
		t.Fatalf("failed transcription must not decide the tie, got %+v", out)
	}
}
