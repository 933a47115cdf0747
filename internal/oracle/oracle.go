// Package oracle defines the inference-oracle contract the pipeline and the
// drastic-change guard consult, plus the Anthropic-backed implementation.
package oracle

import (
	"context"
	"strings"

	"shelfmark/internal/identity"
	"shelfmark/internal/sources"
)

// Verdict is the oracle's ruling on a proposed identity change.
type Verdict string

const (
	VerdictCorrect   Verdict = "CORRECT"
	VerdictWrong     Verdict = "WRONG"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// Tier is the oracle's self-reported confidence in its verdict.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Request carries everything the oracle needs to rule on one item.
type Request struct {
	Original   identity.Identity
	Proposed   identity.Identity
	Candidates []*sources.Candidate
}

// Response is the oracle's structured ruling.
type Response struct {
	Decision          Verdict `json:"decision"`
	RecommendedAuthor string  `json:"recommended_author"`
	RecommendedTitle  string  `json:"recommended_title"`
	Reasoning         string  `json:"reasoning"`
	Confidence        Tier    `json:"confidence"`
}

// Actionable reports whether the verdict is decisive enough to apply without
// human review: CORRECT or WRONG at HIGH or MEDIUM confidence.
func (r *Response) Actionable() bool {
	if r == nil {
		return false
	}
	if r.Decision != VerdictCorrect && r.Decision != VerdictWrong {
		return false
	}
	return r.Confidence == TierHigh || r.Confidence == TierMedium
}

// Recommended returns the identity the verdict endorses: the proposed one
// for CORRECT, the oracle's own correction for WRONG.
func (r *Response) Recommended(req Request) identity.Identity {
	if r.Decision == VerdictCorrect {
		return req.Proposed
	}
	rec := identity.Identity{
		Author: strings.TrimSpace(r.RecommendedAuthor),
		Title:  strings.TrimSpace(r.RecommendedTitle),
	}
	if rec.Title == "" {
		rec.Title = req.Original.Title
	}
	if rec.Author == "" {
		rec.Author = req.Original.Author
	}
	rec.Series = req.Original.Series
	rec.SeriesNum = req.Original.SeriesNum
	rec.Narrator = req.Original.Narrator
	return rec
}

// Oracle is the verification service consumed by the pipeline. Transport
// failures must surface as errors (the caller retries); a reachable oracle
// that cannot decide answers UNCERTAIN instead.
type Oracle interface {
	Verify(ctx context.Context, req Request) (*Response, error)
}
